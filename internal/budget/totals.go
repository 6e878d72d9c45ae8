package budget

import (
	"math"

	"github.com/plothq/plot/internal/model"
)

// Totals is the live allocated/remaining pair for one category.
type Totals struct {
	Allocated float64 `json:"allocated"`
	Remaining float64 `json:"remaining"`
}

// sanitize guards against NaN and infinite amounts sneaking in through the
// API boundary. Malformed amounts degrade to 0 rather than poisoning sums.
func sanitize(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return x
}

// SeedRemaining returns the unpaid portion of a single seed. Seeds paid from
// one side contribute their full amount until is_paid flips; joint seeds
// contribute each side's share independently.
func SeedRemaining(s model.Seed) float64 {
	if s.PaymentSource == model.SourceMe || s.PaymentSource == model.SourcePartner {
		if s.IsPaid {
			return 0
		}
		return sanitize(s.Amount)
	}
	var rem float64
	if !s.IsPaidMe {
		rem += sanitize(s.AmountMe)
	}
	if !s.IsPaidPartner {
		rem += sanitize(s.AmountPartner)
	}
	return rem
}

// CategoryTotals computes the live per-category allocated and remaining sums
// from seeds. This is the authoritative view the stored paycycle aggregates
// must agree with; the blueprint service repairs the stored side on drift.
func CategoryTotals(seeds []model.Seed, categories []Category) map[string]Totals {
	out := make(map[string]Totals, len(categories))
	for _, cat := range categories {
		var t Totals
		for _, s := range seeds {
			if s.Type != cat.SeedType {
				continue
			}
			t.Allocated += sanitize(s.Amount)
			t.Remaining += SeedRemaining(s)
		}
		out[cat.Key] = t
	}
	return out
}

// SumAmounts is the total allocation over all seeds regardless of category.
func SumAmounts(seeds []model.Seed) float64 {
	var sum float64
	for _, s := range seeds {
		sum += sanitize(s.Amount)
	}
	return sum
}
