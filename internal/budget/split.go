package budget

import "github.com/plothq/plot/internal/model"

// SeedSplit computes the me/partner shares of a seed's amount. Single-payer
// seeds carry the whole amount on one side. Joint seeds split by the seed's
// own ratio when set, falling back to the household's joint ratio, then 50/50.
func SeedSplit(amount float64, source model.PaymentSource, seedRatio *float64, householdRatio float64) (float64, float64) {
	switch source {
	case model.SourceMe:
		return amount, 0
	case model.SourcePartner:
		return 0, amount
	}
	ratio := householdRatio
	if seedRatio != nil {
		ratio = *seedRatio
	}
	if ratio < 0 || ratio > 1 {
		ratio = 0.5
	}
	me := amount * ratio
	return me, amount - me
}
