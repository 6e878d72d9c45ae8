package model

import "time"

type PotStatus string

const (
	PotActive   PotStatus = "active"
	PotComplete PotStatus = "complete"
)

// Pot is a savings goal. Recurring savings seeds may link to a pot; marking
// such a seed paid credits the pot's current amount.
type Pot struct {
	ID            int64     `json:"id"`
	HouseholdID   int64     `json:"household_id"`
	Name          string    `json:"name"`
	CurrentAmount float64   `json:"current_amount"`
	TargetAmount  float64   `json:"target_amount"`
	TargetDate    *string   `json:"target_date"`
	Status        PotStatus `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
