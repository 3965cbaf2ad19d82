package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/easyexithomes/leadmatch/internal/logger"
	"github.com/easyexithomes/leadmatch/internal/metrics"
	"github.com/easyexithomes/leadmatch/internal/repository"
)

// ExistsFunc reports whether a record with the given dedupe key is already stored
type ExistsFunc func(ctx context.Context, key string) (bool, error)

// InsertFunc persists one new record
type InsertFunc[T any] func(ctx context.Context, item *T) error

// Stages at which a row can fail
const (
	StageParse  = "parse"
	StageImport = "import"
)

// RowError describes a candidate that could not be imported. For parse
// failures Row is the CSV line; for import failures it is the 1-based
// position in the candidate batch.
type RowError struct {
	Stage   string `json:"stage"`
	Row     int    `json:"row"`
	Key     string `json:"key,omitempty"`
	Message string `json:"message"`
}

// Summary counts the outcome of one import batch
type Summary struct {
	Inserted  int        `json:"inserted"`
	Skipped   int        `json:"skipped"`
	Errors    int        `json:"errors"`
	RowErrors []RowError `json:"row_errors,omitempty"`
}

// Total returns the number of candidates accounted for
func (s Summary) Total() int {
	return s.Inserted + s.Skipped + s.Errors
}

// AddRowErrors folds parse-stage failures into the summary
func (s *Summary) AddRowErrors(rowErrors []RowError) {
	s.Errors += len(rowErrors)
	s.RowErrors = append(s.RowErrors, rowErrors...)
}

// Importer inserts candidates whose dedupe key is not yet stored.
// Existing records are skipped, never overwritten. A failed lookup or insert
// is counted against that row and the batch continues.
type Importer[T any] struct {
	entity string
	key    func(*T) *string
	exists ExistsFunc
	insert InsertFunc[T]
	logger logger.Logger
}

// New creates an importer for one entity type. key returns the candidate's
// dedupe field; the importer trims it in place so the stored row carries
// the same value that was looked up.
func New[T any](entity string, key func(*T) *string, exists ExistsFunc, insert InsertFunc[T], log logger.Logger) *Importer[T] {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Importer[T]{
		entity: entity,
		key:    key,
		exists: exists,
		insert: insert,
		logger: log,
	}
}

// Run imports candidates sequentially. Row numbers in errors are 1-based
// positions in the candidate slice. Only context cancellation stops the batch early.
func (imp *Importer[T]) Run(ctx context.Context, candidates []T) (Summary, error) {
	summary := Summary{}

	for i := range candidates {
		if err := ctx.Err(); err != nil {
			return summary, fmt.Errorf("%s import interrupted after %d rows: %w", imp.entity, i, err)
		}

		candidate := &candidates[i]
		field := imp.key(candidate)
		*field = strings.TrimSpace(*field)
		key := *field
		row := i + 1

		if key == "" {
			imp.fail(&summary, row, key, errors.New("missing dedupe key"))
			continue
		}

		found, err := imp.exists(ctx, key)
		if err != nil {
			imp.fail(&summary, row, key, fmt.Errorf("lookup failed: %w", err))
			continue
		}
		if found {
			imp.skip(&summary)
			continue
		}

		if err := imp.insert(ctx, candidate); err != nil {
			// A concurrent writer won the race on the unique key.
			if errors.Is(err, repository.ErrDuplicate) {
				imp.skip(&summary)
				continue
			}
			imp.fail(&summary, row, key, fmt.Errorf("insert failed: %w", err))
			continue
		}

		summary.Inserted++
		metrics.ImportRowsTotal.WithLabelValues(imp.entity, metrics.ResultInserted).Inc()
	}

	imp.logger.Info("import finished",
		"entity", imp.entity,
		"inserted", summary.Inserted,
		"skipped", summary.Skipped,
		"errors", summary.Errors,
	)

	return summary, nil
}

func (imp *Importer[T]) skip(summary *Summary) {
	summary.Skipped++
	metrics.ImportRowsTotal.WithLabelValues(imp.entity, metrics.ResultSkipped).Inc()
}

func (imp *Importer[T]) fail(summary *Summary, row int, key string, err error) {
	summary.Errors++
	summary.RowErrors = append(summary.RowErrors, RowError{Stage: StageImport, Row: row, Key: key, Message: err.Error()})
	metrics.ImportRowsTotal.WithLabelValues(imp.entity, metrics.ResultError).Inc()
	imp.logger.Warn("import row failed", "entity", imp.entity, "row", row, "key", key, "error", err.Error())
}
