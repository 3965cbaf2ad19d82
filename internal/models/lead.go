package models

import (
	"time"

	"github.com/google/uuid"
)

// Lead represents a distressed-property opportunity tracked through the pipeline
type Lead struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	Address         string     `json:"address" db:"address"`
	City            *string    `json:"city" db:"city"`
	State           *string    `json:"state" db:"state"`
	Zip             *string    `json:"zip" db:"zip"`
	Market          *string    `json:"market" db:"market"`
	OwnerName       *string    `json:"owner_name" db:"owner_name"`
	ARV             *float64   `json:"arv" db:"arv"`
	RepairEstimate  *float64   `json:"repair_estimate" db:"repair_estimate"`
	EstimatedProfit *float64   `json:"estimated_profit" db:"estimated_profit"`
	EstimatedValue  *float64   `json:"estimated_value" db:"estimated_value"`
	ViabilityScore  *int       `json:"viability_score" db:"viability_score"`
	Status          LeadStatus `json:"status" db:"status"`
	Source          string     `json:"source" db:"source"`
	AssignedBuyerID *uuid.UUID `json:"assigned_buyer_id" db:"assigned_buyer_id"`
	AssignmentDate  *time.Time `json:"assignment_date" db:"assignment_date"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// MarketName returns the lead's market, or "" when the lead is un-scoped
func (l *Lead) MarketName() string {
	if l.Market == nil {
		return ""
	}
	return *l.Market
}

// ValueEstimate returns the figure deals are priced from: the estimated
// value when present, otherwise the after-repair value.
func (l *Lead) ValueEstimate() *float64 {
	if l.EstimatedValue != nil {
		return l.EstimatedValue
	}
	return l.ARV
}

// LeadStatus is a pipeline stage
type LeadStatus string

const (
	LeadStatusNew           LeadStatus = "new"
	LeadStatusContacted     LeadStatus = "contacted"
	LeadStatusQualified     LeadStatus = "qualified"
	LeadStatusNegotiating   LeadStatus = "negotiating"
	LeadStatusUnderContract LeadStatus = "under_contract"
	LeadStatusAssigned      LeadStatus = "assigned"
	LeadStatusClosed        LeadStatus = "closed"
	LeadStatusDead          LeadStatus = "dead"
)

// LeadStatuses lists every pipeline stage in board order
var LeadStatuses = []LeadStatus{
	LeadStatusNew,
	LeadStatusContacted,
	LeadStatusQualified,
	LeadStatusNegotiating,
	LeadStatusUnderContract,
	LeadStatusAssigned,
	LeadStatusClosed,
	LeadStatusDead,
}

// IsValid reports whether s is a known pipeline stage
func (s LeadStatus) IsValid() bool {
	for _, known := range LeadStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// LeadPatch carries a partial lead update. Nil fields are left untouched.
type LeadPatch struct {
	Status          *LeadStatus
	AssignedBuyerID *uuid.UUID
	AssignmentDate  *time.Time
	Market          *string
	EstimatedValue  *float64
	ViabilityScore  *int
}

// IsEmpty reports whether the patch changes nothing
func (p LeadPatch) IsEmpty() bool {
	return p.Status == nil && p.AssignedBuyerID == nil && p.AssignmentDate == nil &&
		p.Market == nil && p.EstimatedValue == nil && p.ViabilityScore == nil
}
