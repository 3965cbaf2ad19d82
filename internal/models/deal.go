package models

import (
	"time"

	"github.com/google/uuid"
)

// Deal is the transactional record created when a lead is assigned to a buyer
type Deal struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	LeadID          uuid.UUID  `json:"lead_id" db:"lead_id"`
	BuyerID         uuid.UUID  `json:"buyer_id" db:"buyer_id"`
	PropertyAddress string     `json:"property_address" db:"property_address"`
	Market          *string    `json:"market" db:"market"`
	ListPrice       *float64   `json:"list_price" db:"list_price"`
	OfferPrice      *float64   `json:"offer_price" db:"offer_price"`
	Status          DealStatus `json:"status" db:"status"`
	AssignmentDate  time.Time  `json:"assignment_date" db:"assignment_date"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// DealStatus represents deal status values
type DealStatus string

const (
	DealStatusAssigned      DealStatus = "assigned"
	DealStatusUnderContract DealStatus = "under_contract"
	DealStatusClosed        DealStatus = "closed"
	DealStatusCancelled     DealStatus = "cancelled"
)
