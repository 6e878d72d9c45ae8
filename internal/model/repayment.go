package model

import "time"

type RepaymentStatus string

const (
	RepaymentActive RepaymentStatus = "active"
	RepaymentPaid   RepaymentStatus = "paid"
	RepaymentPaused RepaymentStatus = "paused"
)

// Repayment is a debt being paid down. Recurring repay seeds may link to one;
// marking such a seed paid reduces the outstanding balance.
type Repayment struct {
	ID              int64           `json:"id"`
	HouseholdID     int64           `json:"household_id"`
	Name            string          `json:"name"`
	StartingBalance float64         `json:"starting_balance"`
	CurrentBalance  float64         `json:"current_balance"`
	TargetDate      *string         `json:"target_date"`
	InterestRate    *float64        `json:"interest_rate"`
	Status          RepaymentStatus `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}
