package model

import "time"

type SeedType string

const (
	SeedNeed    SeedType = "need"
	SeedWant    SeedType = "want"
	SeedSavings SeedType = "savings"
	SeedRepay   SeedType = "repay"
)

type PaymentSource string

const (
	SourceMe      PaymentSource = "me"
	SourcePartner PaymentSource = "partner"
	SourceJoint   PaymentSource = "joint"
)

// Seed is a single budget line item (bill, saving contribution, or repayment)
// belonging to a paycycle. Joint seeds are split across both household
// members, each side independently payable.
type Seed struct {
	ID                int64         `json:"id"`
	HouseholdID       int64         `json:"household_id"`
	PaycycleID        int64         `json:"paycycle_id"`
	Name              string        `json:"name"`
	Type              SeedType      `json:"type"`
	Amount            float64       `json:"amount"`
	PaymentSource     PaymentSource `json:"payment_source"`
	SplitRatio        *float64      `json:"split_ratio"`
	IsRecurring       bool          `json:"is_recurring"`
	DueDate           *string       `json:"due_date"`
	IsPaid            bool          `json:"is_paid"`
	AmountMe          float64       `json:"amount_me"`
	AmountPartner     float64       `json:"amount_partner"`
	IsPaidMe          bool          `json:"is_paid_me"`
	IsPaidPartner     bool          `json:"is_paid_partner"`
	LinkedPotID       *int64        `json:"linked_pot_id"`
	LinkedRepaymentID *int64        `json:"linked_repayment_id"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// ValidSeedType reports whether t is one of the four seed types.
func ValidSeedType(t SeedType) bool {
	switch t {
	case SeedNeed, SeedWant, SeedSavings, SeedRepay:
		return true
	}
	return false
}

// ValidPaymentSource reports whether s is me, partner, or joint.
func ValidPaymentSource(s PaymentSource) bool {
	switch s {
	case SourceMe, SourcePartner, SourceJoint:
		return true
	}
	return false
}
