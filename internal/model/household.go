package model

import "time"

// PayCycleType determines how a household's cycle start/end dates are derived.
type PayCycleType string

const (
	PayCycleSpecificDate   PayCycleType = "specific_date"
	PayCycleLastWorkingDay PayCycleType = "last_working_day"
	PayCycleEvery4Weeks    PayCycleType = "every_4_weeks"
)

type Household struct {
	ID             int64        `json:"id"`
	Name           string       `json:"name"`
	OwnerName      string       `json:"owner_name"`
	PartnerName    *string      `json:"partner_name"`
	Currency       string       `json:"currency"`
	NeedsPercent   int          `json:"needs_percent"`
	WantsPercent   int          `json:"wants_percent"`
	SavingsPercent int          `json:"savings_percent"`
	RepayPercent   int          `json:"repay_percent"`
	JointRatio     float64      `json:"joint_ratio"`
	PayCycleType   PayCycleType `json:"pay_cycle_type"`
	PayDay         *int         `json:"pay_day"`
	AnchorDate     *string      `json:"anchor_date"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// HasPartner reports whether a second member has joined the household.
func (h *Household) HasPartner() bool {
	return h.PartnerName != nil && *h.PartnerName != ""
}
