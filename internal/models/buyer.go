package models

import (
	"time"

	"github.com/google/uuid"
)

// Buyer represents a registered cash-buying entity
type Buyer struct {
	ID               uuid.UUID `json:"id" db:"id"`
	CompanyName      string    `json:"company_name" db:"company_name"`
	ContactName      *string   `json:"contact_name" db:"contact_name"`
	Phone            *string   `json:"phone" db:"phone"`
	Email            *string   `json:"email" db:"email"`
	Website          *string   `json:"website" db:"website"`
	TargetMarkets    *string   `json:"target_markets" db:"target_markets"`
	Notes            *string   `json:"notes" db:"notes"`
	ReliabilityScore *float64  `json:"reliability_score" db:"reliability_score"`
	// Tier is the typed priority tier (1-3). Zero means the row predates
	// tier classification and the tier must be derived from Notes.
	Tier      int       `json:"tier" db:"tier"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// TargetMarketsText returns the declared service area, or "" when absent
func (b *Buyer) TargetMarketsText() string {
	if b.TargetMarkets == nil {
		return ""
	}
	return *b.TargetMarkets
}

// NotesText returns the buyer notes, or "" when absent
func (b *Buyer) NotesText() string {
	if b.Notes == nil {
		return ""
	}
	return *b.Notes
}

// Reliability returns the reliability score on the 0-10 scale, 0 when unknown
func (b *Buyer) Reliability() float64 {
	if b.ReliabilityScore == nil {
		return 0
	}
	return *b.ReliabilityScore
}
