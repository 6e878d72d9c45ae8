package blueprint

import (
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/plothq/plot/internal/budget"
	"github.com/plothq/plot/internal/database"
	"github.com/plothq/plot/internal/model"
	"github.com/plothq/plot/internal/store"
)

type fixture struct {
	db        *sql.DB
	svc       *Service
	seeds     *store.SeedStore
	paycycles *store.PaycycleStore
	household *model.Household
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	categories := budget.DefaultCategories()
	hs := store.NewHouseholdStore(db)
	ps := store.NewPaycycleStore(db, categories)
	ss := store.NewSeedStore(db)
	pots := store.NewPotStore(db)
	rs := store.NewRepaymentStore(db)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h, err := hs.Create("Test Household", "Alex", "GBP")
	if err != nil {
		t.Fatalf("create household: %v", err)
	}

	return &fixture{
		db:        db,
		svc:       NewService(hs, ps, ss, pots, rs, categories, logger),
		seeds:     ss,
		paycycles: ps,
		household: h,
	}
}

func (f *fixture) createActiveCycle(t *testing.T, start, end string) *model.PayCycle {
	t.Helper()
	c, err := f.paycycles.Create(f.household.ID, "Paycycle "+start, model.CycleActive, start, end)
	if err != nil {
		t.Fatalf("create paycycle: %v", err)
	}
	return c
}

func (f *fixture) createSeed(t *testing.T, cycleID int64, name string, typ model.SeedType, amount float64, dueDate *string) *model.Seed {
	t.Helper()
	s, err := f.seeds.Create(model.Seed{
		HouseholdID:   f.household.ID,
		PaycycleID:    cycleID,
		Name:          name,
		Type:          typ,
		Amount:        amount,
		PaymentSource: model.SourceMe,
		AmountMe:      amount,
		DueDate:       dueDate,
	})
	if err != nil {
		t.Fatalf("create seed %q: %v", name, err)
	}
	return s
}

// setStoredTotal corrupts the stored aggregate directly, bypassing the store.
func (f *fixture) setStoredTotal(t *testing.T, cycleID int64, total any) {
	t.Helper()
	if _, err := f.db.Exec(`UPDATE paycycles SET total_allocated = ? WHERE id = ?`, total, cycleID); err != nil {
		t.Fatalf("set stored total: %v", err)
	}
}

func strp(s string) *string { return &s }

func fixedClock(date string) func() time.Time {
	t, _ := time.Parse(budget.DateLayout, date)
	return func() time.Time { return t }
}

func TestLoadActiveRepairsNullTotal(t *testing.T) {
	f := newFixture(t)
	f.svc.SetClock(fixedClock("2024-03-15"))
	cycle := f.createActiveCycle(t, "2024-03-01", "2024-03-31")
	f.createSeed(t, cycle.ID, "Rent", model.SeedNeed, 950, nil)
	f.createSeed(t, cycle.ID, "Fun", model.SeedWant, 50, nil)
	f.setStoredTotal(t, cycle.ID, nil)

	b, err := f.svc.LoadActive()
	if err != nil {
		t.Fatalf("load active: %v", err)
	}
	if b.PayCycle.TotalAllocated == nil || *b.PayCycle.TotalAllocated != 1000 {
		t.Errorf("total_allocated = %v, want 1000", b.PayCycle.TotalAllocated)
	}
	if b.PayCycle.AllocNeeds != 950 || b.PayCycle.AllocWants != 50 {
		t.Errorf("alloc = (%v, %v), want (950, 50)", b.PayCycle.AllocNeeds, b.PayCycle.AllocWants)
	}
}

func TestLoadActiveRepairsZeroAndDriftedTotal(t *testing.T) {
	for _, tc := range []struct {
		name   string
		stored float64
	}{
		{"zero", 0},
		{"drifted", 800},
	} {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.svc.SetClock(fixedClock("2024-03-15"))
			cycle := f.createActiveCycle(t, "2024-03-01", "2024-03-31")
			f.createSeed(t, cycle.ID, "Rent", model.SeedNeed, 950, nil)
			f.setStoredTotal(t, cycle.ID, tc.stored)

			b, err := f.svc.LoadActive()
			if err != nil {
				t.Fatalf("load active: %v", err)
			}
			if b.PayCycle.TotalAllocated == nil || *b.PayCycle.TotalAllocated != 950 {
				t.Errorf("total_allocated = %v, want 950", b.PayCycle.TotalAllocated)
			}
		})
	}
}

func TestNoRepairWithoutSeeds(t *testing.T) {
	f := newFixture(t)
	f.svc.SetClock(fixedClock("2024-03-15"))
	cycle := f.createActiveCycle(t, "2024-03-01", "2024-03-31")
	f.setStoredTotal(t, cycle.ID, nil)

	b, err := f.svc.LoadActive()
	if err != nil {
		t.Fatalf("load active: %v", err)
	}
	// A cycle with no seeds has nothing to repair from; the stored value
	// stands as-is.
	if b.PayCycle.TotalAllocated != nil {
		t.Errorf("total_allocated = %v, want nil", b.PayCycle.TotalAllocated)
	}
}

func TestStaleToleranceBoundary(t *testing.T) {
	f := newFixture(t)
	f.svc.SetClock(fixedClock("2024-03-15"))
	cycle := f.createActiveCycle(t, "2024-03-01", "2024-03-31")
	f.createSeed(t, cycle.ID, "Rent", model.SeedNeed, 950, nil)

	// Within the tolerance: not stale, stored value is kept.
	f.setStoredTotal(t, cycle.ID, 950.005)
	b, err := f.svc.LoadActive()
	if err != nil {
		t.Fatalf("load active: %v", err)
	}
	if b.PayCycle.TotalAllocated == nil || *b.PayCycle.TotalAllocated != 950.005 {
		t.Errorf("total_allocated = %v, want 950.005 (within tolerance)", b.PayCycle.TotalAllocated)
	}

	// Past the tolerance: repaired.
	f.setStoredTotal(t, cycle.ID, 950.05)
	b, err = f.svc.LoadActive()
	if err != nil {
		t.Fatalf("load active: %v", err)
	}
	if b.PayCycle.TotalAllocated == nil || *b.PayCycle.TotalAllocated != 950 {
		t.Errorf("total_allocated = %v, want 950 (repaired)", b.PayCycle.TotalAllocated)
	}
}

func TestSweepOverdueSettlesAndCounts(t *testing.T) {
	f := newFixture(t)
	cycle := f.createActiveCycle(t, "2024-03-01", "2024-03-31")
	f.createSeed(t, cycle.ID, "Rent", model.SeedNeed, 950, strp("2024-03-01"))
	f.createSeed(t, cycle.ID, "Water", model.SeedNeed, 40, strp("2024-03-10"))
	f.createSeed(t, cycle.ID, "Cinema", model.SeedWant, 20, strp("2024-03-25"))
	if err := f.paycycles.RecomputeAllocations(cycle.ID); err != nil {
		t.Fatalf("recompute: %v", err)
	}

	f.svc.SetClock(fixedClock("2024-03-15"))
	b := f.svc.SweepOverdue(cycle.ID)
	if b == nil {
		t.Fatal("expected a bundle after settling overdue seeds")
	}
	if b.OverdueSettled != 2 {
		t.Errorf("OverdueSettled = %d, want 2", b.OverdueSettled)
	}
	// Remaining reflects the two settled seeds; the future one stays unpaid.
	if b.PayCycle.RemNeeds != 0 {
		t.Errorf("rem_needs = %v, want 0", b.PayCycle.RemNeeds)
	}
	if b.PayCycle.RemWants != 20 {
		t.Errorf("rem_wants = %v, want 20", b.PayCycle.RemWants)
	}

	// Second sweep finds nothing and reports a no-op.
	if again := f.svc.SweepOverdue(cycle.ID); again != nil {
		t.Errorf("second sweep = %+v, want nil", again)
	}
}

func TestSweepOverdueNoOpReturnsNil(t *testing.T) {
	f := newFixture(t)
	f.svc.SetClock(fixedClock("2024-03-15"))
	cycle := f.createActiveCycle(t, "2024-03-01", "2024-03-31")
	f.createSeed(t, cycle.ID, "Cinema", model.SeedWant, 20, strp("2024-03-25"))

	if b := f.svc.SweepOverdue(cycle.ID); b != nil {
		t.Errorf("sweep = %+v, want nil when nothing is overdue", b)
	}
	if b := f.svc.SweepOverdue(99999); b != nil {
		t.Errorf("sweep of missing cycle = %+v, want nil", b)
	}
}

func TestLoadActiveSweepsThenRepairs(t *testing.T) {
	f := newFixture(t)
	f.svc.SetClock(fixedClock("2024-03-15"))
	cycle := f.createActiveCycle(t, "2024-03-01", "2024-03-31")
	f.createSeed(t, cycle.ID, "Rent", model.SeedNeed, 950, strp("2024-03-01"))
	f.setStoredTotal(t, cycle.ID, nil)

	b, err := f.svc.LoadActive()
	if err != nil {
		t.Fatalf("load active: %v", err)
	}
	if b.OverdueSettled != 1 {
		t.Errorf("OverdueSettled = %d, want 1", b.OverdueSettled)
	}
	seed, _ := f.seeds.GetByID(1)
	if !seed.IsPaid {
		t.Error("overdue seed should have been settled during load")
	}
	if b.PayCycle.TotalAllocated == nil || *b.PayCycle.TotalAllocated != 950 {
		t.Errorf("total_allocated = %v, want 950", b.PayCycle.TotalAllocated)
	}
	if b.PayCycle.RemNeeds != 0 {
		t.Errorf("rem_needs = %v, want 0 after settlement", b.PayCycle.RemNeeds)
	}
	if got := b.CategoryTotals["needs"]; got.Allocated != 950 || got.Remaining != 0 {
		t.Errorf("needs totals = %+v, want allocated 950 remaining 0", got)
	}
}

func TestLoadActiveWithoutActiveCycle(t *testing.T) {
	f := newFixture(t)

	b, err := f.svc.LoadActive()
	if err != nil {
		t.Fatalf("load active: %v", err)
	}
	if b.PayCycle != nil {
		t.Errorf("PayCycle = %+v, want nil", b.PayCycle)
	}
	if b.Household == nil || b.Household.ID != f.household.ID {
		t.Error("bundle should still carry the household")
	}
	if b.CategoryTotals == nil {
		t.Error("bundle should carry zeroed category totals")
	}
}

func TestLoadMissingCycle(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.Load(42); err == nil {
		t.Error("expected error loading a missing paycycle")
	}
}

func TestCreateNextCycleValidation(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.CreateNextCycle(0, model.CycleDraft); err == nil {
		t.Error("expected error for missing source id")
	}
}

func TestResyncDraftValidation(t *testing.T) {
	f := newFixture(t)
	if err := f.svc.ResyncDraft(0, 1); err == nil {
		t.Error("expected error for missing draft id")
	}
	if err := f.svc.ResyncDraft(1, 0); err == nil {
		t.Error("expected error for missing active id")
	}
}
