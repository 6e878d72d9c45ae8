package budget

import (
	"fmt"

	"github.com/plothq/plot/internal/model"
)

// Category describes one of the four budget categories and the seed type it
// aggregates, plus the paycycle column names its aggregates live in. The
// calculators iterate over a category slice instead of hardcoding four
// parallel paths; callers pass DefaultCategories or a test-local variant.
type Category struct {
	Key             string
	Label           string
	SeedType        model.SeedType
	PercentColumn   string
	AllocColumn     string
	RemainingColumn string
}

// DefaultCategories returns the standard needs/wants/savings/repay layout.
// The returned slice is fresh on each call; callers may not share mutations.
func DefaultCategories() []Category {
	return []Category{
		{Key: "needs", Label: "Needs", SeedType: model.SeedNeed, PercentColumn: "needs_percent", AllocColumn: "alloc_needs", RemainingColumn: "rem_needs"},
		{Key: "wants", Label: "Wants", SeedType: model.SeedWant, PercentColumn: "wants_percent", AllocColumn: "alloc_wants", RemainingColumn: "rem_wants"},
		{Key: "savings", Label: "Savings", SeedType: model.SeedSavings, PercentColumn: "savings_percent", AllocColumn: "alloc_savings", RemainingColumn: "rem_savings"},
		{Key: "repay", Label: "Repay", SeedType: model.SeedRepay, PercentColumn: "repay_percent", AllocColumn: "alloc_repay", RemainingColumn: "rem_repay"},
	}
}

// ValidatePercentSplit checks that household category percentages sum to 100.
func ValidatePercentSplit(needs, wants, savings, repay int) error {
	for _, p := range []int{needs, wants, savings, repay} {
		if p < 0 || p > 100 {
			return fmt.Errorf("category percentages must be between 0 and 100")
		}
	}
	if sum := needs + wants + savings + repay; sum != 100 {
		return fmt.Errorf("category percentages must sum to 100, got %d", sum)
	}
	return nil
}
