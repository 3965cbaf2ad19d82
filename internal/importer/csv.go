package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/easyexithomes/leadmatch/internal/matching"
	"github.com/easyexithomes/leadmatch/internal/models"
	"github.com/easyexithomes/leadmatch/internal/viability"
)

// DefaultMaxRows caps a single CSV upload
const DefaultMaxRows = 10000

// ErrTooManyRows is returned when a CSV exceeds the configured row cap
var ErrTooManyRows = errors.New("too many rows")

var validate = validator.New()

// header maps canonical column names to their index in a CSV
type header map[string]int

var columnAliases = map[string]string{
	"property_address":   "address",
	"street":             "address",
	"zip_code":           "zip",
	"zipcode":            "zip",
	"owner":              "owner_name",
	"after_repair_value": "arv",
	"repairs":            "repair_estimate",
	"profit":             "estimated_profit",
	"value":              "estimated_value",
	"score":              "viability_score",
	"stage":              "status",
	"company":            "company_name",
	"name":               "company_name",
	"contact":            "contact_name",
	"reliability":        "reliability_score",
	"markets":            "target_markets",
	"state_wide":         "statewide",
}

func parseHeader(record []string) header {
	h := make(header, len(record))
	for i, raw := range record {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(raw, "\ufeff")))
		name = strings.ReplaceAll(name, " ", "_")
		if canonical, ok := columnAliases[name]; ok {
			name = canonical
		}
		if _, seen := h[name]; !seen {
			h[name] = i
		}
	}
	return h
}

func (h header) has(column string) bool {
	_, ok := h[column]
	return ok
}

func (h header) get(record []string, column string) string {
	i, ok := h[column]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// readRecords reads the header and every data row, enforcing the row cap
func readRecords(r io.Reader, maxRows int) (header, [][]string, error) {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	first, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("CSV file is empty")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	var records [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		if isBlank(record) {
			continue
		}
		if len(records) == maxRows {
			return nil, nil, fmt.Errorf("%w: maximum %d allowed per upload", ErrTooManyRows, maxRows)
		}
		records = append(records, record)
	}

	return parseHeader(first), records, nil
}

func isBlank(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

// leadRow is the validated shape of one lead CSV line
type leadRow struct {
	Address         string   `validate:"required,max=300"`
	City            string   `validate:"max=100"`
	State           string   `validate:"omitempty,alpha,len=2"`
	Zip             string   `validate:"omitempty,max=10"`
	Market          string   `validate:"max=200"`
	OwnerName       string   `validate:"max=200"`
	ARV             *float64 `validate:"omitempty,gte=0"`
	RepairEstimate  *float64 `validate:"omitempty,gte=0"`
	EstimatedProfit *float64
	EstimatedValue  *float64 `validate:"omitempty,gte=0"`
	ViabilityScore  *int     `validate:"omitempty,gte=0,lte=100"`
	Status          string   `validate:"omitempty,oneof=new contacted qualified negotiating under_contract assigned closed dead"`
	Source          string   `validate:"max=100"`
}

var signalColumns = []string{
	"tax_years_delinquent", "probate_open", "recent_death", "foreclosure_active", "lis_pendens",
	"code_violations", "serious_violations", "bankruptcy", "abandoned_property", "deed_in_lieu",
}

// ParseLeadCSV reads a processed lead export. Each line becomes a lead
// candidate or a parse RowError. Leads without an explicit viability score
// are scored from distress-indicator columns when the file has any.
func ParseLeadCSV(r io.Reader, maxRows int) ([]models.Lead, []RowError, error) {
	h, records, err := readRecords(r, maxRows)
	if err != nil {
		return nil, nil, err
	}
	if !h.has("address") {
		return nil, nil, fmt.Errorf("CSV is missing the address column")
	}

	hasSignals := false
	for _, column := range signalColumns {
		if h.has(column) {
			hasSignals = true
			break
		}
	}

	leads := make([]models.Lead, 0, len(records))
	var rowErrors []RowError

	for i, record := range records {
		line := i + 2
		row, err := buildLeadRow(h, record)
		if err == nil {
			err = validate.Struct(row)
		}
		if err != nil {
			rowErrors = append(rowErrors, RowError{Stage: StageParse, Row: line, Key: h.get(record, "address"), Message: describe(err)})
			continue
		}

		lead := row.toLead()
		if lead.ViabilityScore == nil && hasSignals {
			signals, err := parseSignals(h, record)
			if err != nil {
				rowErrors = append(rowErrors, RowError{Stage: StageParse, Row: line, Key: row.Address, Message: err.Error()})
				continue
			}
			score := viability.Score(signals).Score
			lead.ViabilityScore = &score
		}
		leads = append(leads, lead)
	}

	return leads, rowErrors, nil
}

func buildLeadRow(h header, record []string) (*leadRow, error) {
	row := &leadRow{
		Address:   h.get(record, "address"),
		City:      h.get(record, "city"),
		State:     strings.ToUpper(h.get(record, "state")),
		Zip:       h.get(record, "zip"),
		Market:    h.get(record, "market"),
		OwnerName: h.get(record, "owner_name"),
		Status:    strings.ToLower(h.get(record, "status")),
		Source:    h.get(record, "source"),
	}

	var err error
	if row.ARV, err = parseMoney(h.get(record, "arv")); err != nil {
		return nil, fmt.Errorf("arv: %w", err)
	}
	if row.RepairEstimate, err = parseMoney(h.get(record, "repair_estimate")); err != nil {
		return nil, fmt.Errorf("repair_estimate: %w", err)
	}
	if row.EstimatedProfit, err = parseMoney(h.get(record, "estimated_profit")); err != nil {
		return nil, fmt.Errorf("estimated_profit: %w", err)
	}
	if row.EstimatedValue, err = parseMoney(h.get(record, "estimated_value")); err != nil {
		return nil, fmt.Errorf("estimated_value: %w", err)
	}
	if raw := h.get(record, "viability_score"); raw != "" {
		score, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("viability_score: %q is not a whole number", raw)
		}
		row.ViabilityScore = &score
	}

	return row, nil
}

func (row *leadRow) toLead() models.Lead {
	lead := models.Lead{
		Address:         row.Address,
		City:            optional(row.City),
		State:           optional(row.State),
		Zip:             optional(row.Zip),
		Market:          optional(row.Market),
		OwnerName:       optional(row.OwnerName),
		ARV:             row.ARV,
		RepairEstimate:  row.RepairEstimate,
		EstimatedProfit: row.EstimatedProfit,
		EstimatedValue:  row.EstimatedValue,
		ViabilityScore:  row.ViabilityScore,
		Status:          models.LeadStatus(row.Status),
		Source:          row.Source,
	}
	if lead.Status == "" {
		lead.Status = models.LeadStatusNew
	}
	if lead.Source == "" {
		lead.Source = "csv_import"
	}
	if lead.Market == nil && row.City != "" {
		market := row.City
		if row.State != "" {
			market += ", " + row.State
		}
		lead.Market = &market
	}
	return lead
}

func parseSignals(h header, record []string) (viability.Signals, error) {
	var s viability.Signals
	var err error

	if raw := h.get(record, "tax_years_delinquent"); raw != "" {
		if s.TaxYearsDelinquent, err = strconv.Atoi(raw); err != nil {
			return s, fmt.Errorf("tax_years_delinquent: %q is not a whole number", raw)
		}
	}

	flags := []struct {
		column string
		dest   *bool
	}{
		{"probate_open", &s.ProbateOpen},
		{"recent_death", &s.RecentDeath},
		{"foreclosure_active", &s.ForeclosureActive},
		{"lis_pendens", &s.LisPendens},
		{"bankruptcy", &s.Bankruptcy},
		{"abandoned_property", &s.AbandonedProperty},
		{"deed_in_lieu", &s.DeedInLieu},
	}
	for _, f := range flags {
		if *f.dest, err = parseFlag(h.get(record, f.column)); err != nil {
			return s, fmt.Errorf("%s: %w", f.column, err)
		}
	}

	violations, err := parseCount(h.get(record, "code_violations"))
	if err != nil {
		return s, fmt.Errorf("code_violations: %w", err)
	}
	serious, err := parseCount(h.get(record, "serious_violations"))
	if err != nil {
		return s, fmt.Errorf("serious_violations: %w", err)
	}
	if serious > violations {
		violations = serious
	}
	for i := 0; i < violations; i++ {
		s.CodeViolations = append(s.CodeViolations, viability.Violation{Serious: i < serious})
	}

	return s, nil
}

// buyerRow is the validated shape of one buyer-sourcing CSV line
type buyerRow struct {
	CompanyName      string   `validate:"required,max=200"`
	ContactName      string   `validate:"max=200"`
	Phone            string   `validate:"max=40"`
	Email            string   `validate:"omitempty,email"`
	Website          string   `validate:"omitempty,url"`
	TargetMarkets    string   `validate:"max=1000"`
	Notes            string   `validate:"max=2000"`
	ReliabilityScore *float64 `validate:"omitempty,gte=0,lte=10"`
	Tier             int      `validate:"gte=0,lte=3"`
}

// BuyerCSVOptions controls buyer CSV normalization
type BuyerCSVOptions struct {
	MaxRows           int
	PhoneRegion       string
	MultiMarketMarker string
}

// ParseBuyerCSV reads a buyer-sourcing export. Towns and counties fold into
// target markets; statewide buyers get the multi-market marker appended.
// Phones are normalized to E.164. Tier comes from an explicit tier column
// or is classified from the notes.
func ParseBuyerCSV(r io.Reader, opts BuyerCSVOptions) ([]models.Buyer, []RowError, error) {
	h, records, err := readRecords(r, opts.MaxRows)
	if err != nil {
		return nil, nil, err
	}
	if !h.has("company_name") {
		return nil, nil, fmt.Errorf("CSV is missing the company_name column")
	}
	marker := opts.MultiMarketMarker
	if marker == "" {
		marker = matching.DefaultMultiMarketMarker
	}

	buyers := make([]models.Buyer, 0, len(records))
	var rowErrors []RowError

	for i, record := range records {
		line := i + 2
		row, err := buildBuyerRow(h, record, opts.PhoneRegion, marker)
		if err == nil {
			err = validate.Struct(row)
		}
		if err != nil {
			rowErrors = append(rowErrors, RowError{Stage: StageParse, Row: line, Key: h.get(record, "company_name"), Message: describe(err)})
			continue
		}
		buyers = append(buyers, row.toBuyer())
	}

	return buyers, rowErrors, nil
}

func buildBuyerRow(h header, record []string, region, marker string) (*buyerRow, error) {
	row := &buyerRow{
		CompanyName: h.get(record, "company_name"),
		ContactName: h.get(record, "contact_name"),
		Phone:       NormalizePhone(h.get(record, "phone"), region),
		Email:       strings.ToLower(h.get(record, "email")),
		Website:     h.get(record, "website"),
		Notes:       h.get(record, "notes"),
	}

	statewide, err := parseFlag(h.get(record, "statewide"))
	if err != nil {
		return nil, fmt.Errorf("statewide: %w", err)
	}
	row.TargetMarkets = joinMarkets(
		h.get(record, "target_markets"),
		h.get(record, "towns"),
		h.get(record, "counties"),
	)
	if statewide && !strings.Contains(strings.ToLower(row.TargetMarkets), strings.ToLower(marker)) {
		row.TargetMarkets = joinMarkets(row.TargetMarkets, marker)
	}

	if row.ReliabilityScore, err = parseMoney(h.get(record, "reliability_score")); err != nil {
		return nil, fmt.Errorf("reliability_score: %w", err)
	}
	if raw := h.get(record, "tier"); raw != "" {
		if row.Tier, err = strconv.Atoi(raw); err != nil {
			return nil, fmt.Errorf("tier: %q is not a whole number", raw)
		}
	}
	if row.Tier == 0 {
		row.Tier = int(matching.ClassifyTier(row.Notes))
	}

	return row, nil
}

func (row *buyerRow) toBuyer() models.Buyer {
	return models.Buyer{
		CompanyName:      row.CompanyName,
		ContactName:      optional(row.ContactName),
		Phone:            optional(row.Phone),
		Email:            optional(row.Email),
		Website:          optional(row.Website),
		TargetMarkets:    optional(row.TargetMarkets),
		Notes:            optional(row.Notes),
		ReliabilityScore: row.ReliabilityScore,
		Tier:             row.Tier,
	}
}

// joinMarkets concatenates non-empty market lists with ", "
func joinMarkets(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p = strings.Trim(strings.TrimSpace(p), ","); p != "" {
			out = append(out, strings.TrimSpace(p))
		}
	}
	return strings.Join(out, ", ")
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// parseMoney accepts plain numbers and dollar-formatted values ("$120,000.50")
func parseMoney(raw string) (*float64, error) {
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(raw)
	if cleaned == "" {
		return nil, nil
	}
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil, fmt.Errorf("%q is not a number", raw)
	}
	return &value, nil
}

func parseFlag(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "0", "false", "f", "no", "n":
		return false, nil
	case "1", "true", "t", "yes", "y", "x":
		return true, nil
	default:
		return false, fmt.Errorf("%q is not a yes/no value", raw)
	}
}

func parseCount(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%q is not a non-negative count", raw)
	}
	return n, nil
}

// describe flattens validator errors into one readable message
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}
