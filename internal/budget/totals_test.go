package budget

import (
	"math"
	"testing"

	"github.com/plothq/plot/internal/model"
)

func TestCategoryTotalsEmpty(t *testing.T) {
	totals := CategoryTotals(nil, DefaultCategories())

	if len(totals) != 4 {
		t.Fatalf("expected 4 categories, got %d", len(totals))
	}
	for key, tot := range totals {
		if tot.Allocated != 0 || tot.Remaining != 0 {
			t.Errorf("%s = %+v, want {0 0}", key, tot)
		}
	}
}

func TestCategoryTotalsSplitPayment(t *testing.T) {
	seeds := []model.Seed{
		{Type: model.SeedNeed, Amount: 100, PaymentSource: model.SourceMe, IsPaid: false},
		{Type: model.SeedNeed, Amount: 50, PaymentSource: model.SourceJoint, AmountMe: 20, AmountPartner: 30, IsPaidMe: true, IsPaidPartner: false},
	}

	totals := CategoryTotals(seeds, DefaultCategories())

	needs := totals["needs"]
	if needs.Allocated != 150 {
		t.Errorf("needs.Allocated = %v, want 150", needs.Allocated)
	}
	if needs.Remaining != 130 {
		t.Errorf("needs.Remaining = %v, want 130", needs.Remaining)
	}
}

func TestCategoryTotalsPaidSeedContributesNothing(t *testing.T) {
	seeds := []model.Seed{
		{Type: model.SeedWant, Amount: 40, PaymentSource: model.SourcePartner, IsPaid: true},
		{Type: model.SeedWant, Amount: 25, PaymentSource: model.SourcePartner, IsPaid: false},
	}

	totals := CategoryTotals(seeds, DefaultCategories())

	wants := totals["wants"]
	if wants.Allocated != 65 {
		t.Errorf("wants.Allocated = %v, want 65", wants.Allocated)
	}
	if wants.Remaining != 25 {
		t.Errorf("wants.Remaining = %v, want 25", wants.Remaining)
	}
}

func TestCategoryTotalsJointFullyPaid(t *testing.T) {
	seeds := []model.Seed{
		{Type: model.SeedSavings, Amount: 80, PaymentSource: model.SourceJoint, AmountMe: 40, AmountPartner: 40, IsPaidMe: true, IsPaidPartner: true},
	}

	totals := CategoryTotals(seeds, DefaultCategories())

	if rem := totals["savings"].Remaining; rem != 0 {
		t.Errorf("savings.Remaining = %v, want 0", rem)
	}
}

func TestCategoryTotalsPartitionSeeds(t *testing.T) {
	seeds := []model.Seed{
		{Type: model.SeedNeed, Amount: 100, PaymentSource: model.SourceMe},
		{Type: model.SeedWant, Amount: 30, PaymentSource: model.SourceMe},
		{Type: model.SeedSavings, Amount: 200, PaymentSource: model.SourcePartner},
		{Type: model.SeedRepay, Amount: 75.5, PaymentSource: model.SourceJoint, AmountMe: 40, AmountPartner: 35.5},
	}

	totals := CategoryTotals(seeds, DefaultCategories())

	var allocSum float64
	for _, tot := range totals {
		allocSum += tot.Allocated
	}
	if want := SumAmounts(seeds); allocSum != want {
		t.Errorf("sum of category allocations = %v, want %v", allocSum, want)
	}
}

func TestCategoryTotalsMalformedAmounts(t *testing.T) {
	seeds := []model.Seed{
		{Type: model.SeedNeed, Amount: math.NaN(), PaymentSource: model.SourceMe},
		{Type: model.SeedNeed, Amount: math.Inf(1), PaymentSource: model.SourceMe},
		{Type: model.SeedNeed, Amount: 10, PaymentSource: model.SourceMe},
	}

	totals := CategoryTotals(seeds, DefaultCategories())

	if got := totals["needs"].Allocated; got != 10 {
		t.Errorf("needs.Allocated = %v, want 10", got)
	}
	if got := totals["needs"].Remaining; got != 10 {
		t.Errorf("needs.Remaining = %v, want 10", got)
	}
}

func TestSeedRemainingFlipsToZeroWhenPaid(t *testing.T) {
	s := model.Seed{Type: model.SeedNeed, Amount: 42, PaymentSource: model.SourceMe}

	if rem := SeedRemaining(s); rem != 42 {
		t.Errorf("remaining = %v, want 42", rem)
	}
	s.IsPaid = true
	if rem := SeedRemaining(s); rem != 0 {
		t.Errorf("remaining after paid = %v, want 0", rem)
	}
}

func TestValidatePercentSplit(t *testing.T) {
	if err := ValidatePercentSplit(50, 30, 10, 10); err != nil {
		t.Errorf("valid split rejected: %v", err)
	}
	if err := ValidatePercentSplit(50, 30, 10, 5); err == nil {
		t.Error("expected error for split summing to 95")
	}
	if err := ValidatePercentSplit(120, -20, 0, 0); err == nil {
		t.Error("expected error for out-of-range percentages")
	}
}
