package model

import "time"

type PayCycleStatus string

const (
	CycleDraft  PayCycleStatus = "draft"
	CycleActive PayCycleStatus = "active"
	CycleClosed PayCycleStatus = "closed"
)

// PayCycle is one budgeting period (pay-to-pay). The alloc_* / rem_* columns
// are stored aggregates derived from the cycle's seeds; they may drift from
// the live sums and are repaired by the blueprint service.
type PayCycle struct {
	ID             int64          `json:"id"`
	HouseholdID    int64          `json:"household_id"`
	Name           string         `json:"name"`
	Status         PayCycleStatus `json:"status"`
	StartDate      string         `json:"start_date"`
	EndDate        string         `json:"end_date"`
	RitualClosedAt *time.Time     `json:"ritual_closed_at"`
	TotalAllocated *float64       `json:"total_allocated"`
	AllocNeeds     float64        `json:"alloc_needs"`
	AllocWants     float64        `json:"alloc_wants"`
	AllocSavings   float64        `json:"alloc_savings"`
	AllocRepay     float64        `json:"alloc_repay"`
	RemNeeds       float64        `json:"rem_needs"`
	RemWants       float64        `json:"rem_wants"`
	RemSavings     float64        `json:"rem_savings"`
	RemRepay       float64        `json:"rem_repay"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}
