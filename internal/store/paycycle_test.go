package store

import (
	"math"
	"testing"

	"github.com/plothq/plot/internal/budget"
	"github.com/plothq/plot/internal/model"
)

func TestPaycycleActiveAndDraftLookup(t *testing.T) {
	db := newTestDB(t)
	h := createTestHousehold(t, db)
	ps := NewPaycycleStore(db, budget.DefaultCategories())

	createTestCycle(t, db, h.ID, model.CycleClosed, "2024-01-01", "2024-01-31")
	active := createTestCycle(t, db, h.ID, model.CycleActive, "2024-02-01", "2024-02-29")
	draft := createTestCycle(t, db, h.ID, model.CycleDraft, "2024-03-01", "2024-03-28")

	gotActive, err := ps.GetActive(h.ID)
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	if gotActive == nil || gotActive.ID != active.ID {
		t.Errorf("active cycle = %+v, want id %d", gotActive, active.ID)
	}

	gotDraft, err := ps.GetDraft(h.ID)
	if err != nil {
		t.Fatalf("get draft: %v", err)
	}
	if gotDraft == nil || gotDraft.ID != draft.ID {
		t.Errorf("draft cycle = %+v, want id %d", gotDraft, draft.ID)
	}

	cycles, err := ps.List(h.ID)
	if err != nil {
		t.Fatalf("list cycles: %v", err)
	}
	if len(cycles) != 3 {
		t.Errorf("expected 3 cycles, got %d", len(cycles))
	}
}

func TestRecomputeAllocations(t *testing.T) {
	db := newTestDB(t)
	h := createTestHousehold(t, db)
	cycle := createTestCycle(t, db, h.ID, model.CycleActive, "2024-03-01", "2024-03-28")
	ps := NewPaycycleStore(db, budget.DefaultCategories())
	ss := NewSeedStore(db)

	mustCreateSeed(t, ss, model.Seed{
		HouseholdID: h.ID, PaycycleID: cycle.ID, Name: "Rent", Type: model.SeedNeed,
		Amount: 950, PaymentSource: model.SourceMe, AmountMe: 950,
	})
	mustCreateSeed(t, ss, model.Seed{
		HouseholdID: h.ID, PaycycleID: cycle.ID, Name: "Eating out", Type: model.SeedWant,
		Amount: 50, PaymentSource: model.SourceJoint, AmountMe: 20, AmountPartner: 30,
	})

	if err := ps.RecomputeAllocations(cycle.ID); err != nil {
		t.Fatalf("recompute: %v", err)
	}

	got, err := ps.GetByID(cycle.ID)
	if err != nil {
		t.Fatalf("get cycle: %v", err)
	}
	if got.TotalAllocated == nil || *got.TotalAllocated != 1000 {
		t.Fatalf("total_allocated = %v, want 1000", got.TotalAllocated)
	}
	if got.AllocNeeds != 950 || got.RemNeeds != 950 {
		t.Errorf("needs = (%v, %v), want (950, 950)", got.AllocNeeds, got.RemNeeds)
	}
	if got.AllocWants != 50 || got.RemWants != 50 {
		t.Errorf("wants = (%v, %v), want (50, 50)", got.AllocWants, got.RemWants)
	}
	if got.AllocSavings != 0 || got.AllocRepay != 0 {
		t.Errorf("empty categories = (%v, %v), want (0, 0)", got.AllocSavings, got.AllocRepay)
	}
}

func TestRecomputeAllocationsReflectsPayments(t *testing.T) {
	db := newTestDB(t)
	h := createTestHousehold(t, db)
	cycle := createTestCycle(t, db, h.ID, model.CycleActive, "2024-03-01", "2024-03-28")
	ps := NewPaycycleStore(db, budget.DefaultCategories())
	ss := NewSeedStore(db)

	seed := mustCreateSeed(t, ss, model.Seed{
		HouseholdID: h.ID, PaycycleID: cycle.ID, Name: "Rent", Type: model.SeedNeed,
		Amount: 950, PaymentSource: model.SourceMe, AmountMe: 950,
	})
	if _, err := ss.MarkPaid(seed.ID, PayerMe); err != nil {
		t.Fatalf("mark paid: %v", err)
	}

	if err := ps.RecomputeAllocations(cycle.ID); err != nil {
		t.Fatalf("recompute: %v", err)
	}

	got, _ := ps.GetByID(cycle.ID)
	if got.AllocNeeds != 950 {
		t.Errorf("alloc_needs = %v, want 950", got.AllocNeeds)
	}
	if got.RemNeeds != 0 {
		t.Errorf("rem_needs = %v, want 0 after payment", got.RemNeeds)
	}
}

func TestCreateNextCycleClonesRecurringSeeds(t *testing.T) {
	db := newTestDB(t)
	h := createTestHousehold(t, db)
	hs := NewHouseholdStore(db)
	if _, err := hs.UpdateSettings(h.ID, 50, 30, 10, 10, 0.5, "GBP", model.PayCycleEvery4Weeks, nil, nil); err != nil {
		t.Fatalf("update settings: %v", err)
	}

	cycle := createTestCycle(t, db, h.ID, model.CycleActive, "2024-03-01", "2024-03-28")
	ps := NewPaycycleStore(db, budget.DefaultCategories())
	ss := NewSeedStore(db)

	recurring := mustCreateSeed(t, ss, model.Seed{
		HouseholdID: h.ID, PaycycleID: cycle.ID, Name: "Rent", Type: model.SeedNeed,
		Amount: 950, PaymentSource: model.SourceMe, AmountMe: 950,
		IsRecurring: true, DueDate: strp("2024-03-01"),
	})
	if _, err := ss.MarkPaid(recurring.ID, PayerMe); err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	mustCreateSeed(t, ss, model.Seed{
		HouseholdID: h.ID, PaycycleID: cycle.ID, Name: "Birthday gift", Type: model.SeedWant,
		Amount: 30, PaymentSource: model.SourceMe, AmountMe: 30,
	})

	next, err := ps.CreateNextCycle(cycle.ID, model.CycleDraft)
	if err != nil {
		t.Fatalf("create next cycle: %v", err)
	}
	if next.Status != model.CycleDraft {
		t.Errorf("status = %q, want draft", next.Status)
	}
	if next.StartDate != "2024-03-29" || next.EndDate != "2024-04-25" {
		t.Errorf("dates = (%s, %s), want (2024-03-29, 2024-04-25)", next.StartDate, next.EndDate)
	}

	seeds, err := ss.ListByPaycycle(next.ID)
	if err != nil {
		t.Fatalf("list next seeds: %v", err)
	}
	if len(seeds) != 1 {
		t.Fatalf("expected only the recurring seed, got %d", len(seeds))
	}
	clone := seeds[0]
	if clone.Name != "Rent" || !clone.IsRecurring {
		t.Errorf("clone = %q recurring=%v, want Rent recurring", clone.Name, clone.IsRecurring)
	}
	if clone.IsPaid || clone.IsPaidMe {
		t.Error("cloned seed should start unpaid")
	}
	// Day 1 lands before the cycle starts, so it clamps forward to the start.
	if clone.DueDate == nil || *clone.DueDate != "2024-03-29" {
		t.Errorf("rolled due date = %v, want 2024-03-29", clone.DueDate)
	}

	if next.TotalAllocated == nil || *next.TotalAllocated != 950 {
		t.Errorf("next total_allocated = %v, want 950", next.TotalAllocated)
	}
	if next.RemNeeds != 950 {
		t.Errorf("next rem_needs = %v, want 950 (paid flags reset)", next.RemNeeds)
	}
}

func TestCreateNextCycleMissingSource(t *testing.T) {
	db := newTestDB(t)
	createTestHousehold(t, db)
	ps := NewPaycycleStore(db, budget.DefaultCategories())

	if _, err := ps.CreateNextCycle(999, model.CycleDraft); err == nil {
		t.Error("expected error for missing source cycle")
	}
	if _, err := ps.CreateNextCycle(1, model.CycleClosed); err == nil {
		t.Error("expected error for closed target status")
	}
}

func TestResyncDraftFromActive(t *testing.T) {
	db := newTestDB(t)
	h := createTestHousehold(t, db)
	active := createTestCycle(t, db, h.ID, model.CycleActive, "2024-03-01", "2024-03-28")
	draft := createTestCycle(t, db, h.ID, model.CycleDraft, "2024-03-29", "2024-04-25")
	ps := NewPaycycleStore(db, budget.DefaultCategories())
	ss := NewSeedStore(db)

	// Existing in both: amount changed on the active side after rollover.
	mustCreateSeed(t, ss, model.Seed{
		HouseholdID: h.ID, PaycycleID: active.ID, Name: "Rent", Type: model.SeedNeed,
		Amount: 975, PaymentSource: model.SourceMe, AmountMe: 975,
		IsRecurring: true, DueDate: strp("2024-03-01"),
	})
	mustCreateSeed(t, ss, model.Seed{
		HouseholdID: h.ID, PaycycleID: draft.ID, Name: "Rent", Type: model.SeedNeed,
		Amount: 950, PaymentSource: model.SourceMe, AmountMe: 950,
		IsRecurring: true, DueDate: strp("2024-04-01"),
	})
	// New recurring seed added to the active cycle after the draft was made,
	// with its own split ratio.
	mustCreateSeed(t, ss, model.Seed{
		HouseholdID: h.ID, PaycycleID: active.ID, Name: "Gym", Type: model.SeedWant,
		Amount: 44, PaymentSource: model.SourceJoint, SplitRatio: floatp(0.75),
		AmountMe: 33, AmountPartner: 11,
		IsRecurring: true, DueDate: strp("2024-03-15"),
	})

	if err := ps.ResyncDraftFromActive(draft.ID, active.ID); err != nil {
		t.Fatalf("resync: %v", err)
	}

	seeds, err := ss.ListByPaycycle(draft.ID)
	if err != nil {
		t.Fatalf("list draft seeds: %v", err)
	}
	if len(seeds) != 2 {
		t.Fatalf("expected 2 draft seeds, got %d", len(seeds))
	}

	byName := make(map[string]model.Seed)
	for _, s := range seeds {
		byName[s.Name] = s
	}

	rent := byName["Rent"]
	if rent.Amount != 975 {
		t.Errorf("rent amount = %v, want 975 (updated from active)", rent.Amount)
	}
	if rent.DueDate == nil || *rent.DueDate != "2024-03-29" {
		t.Errorf("rent due = %v, want 2024-03-29 (clamped to draft start)", rent.DueDate)
	}

	gym, ok := byName["Gym"]
	if !ok {
		t.Fatal("gym seed should have been added to the draft")
	}
	if gym.AmountMe != 33 || gym.AmountPartner != 11 {
		t.Errorf("gym split = (%v, %v), want (33, 11) from the seed's own ratio", gym.AmountMe, gym.AmountPartner)
	}
	if gym.DueDate == nil || *gym.DueDate != "2024-03-29" {
		t.Errorf("gym due = %v, want 2024-03-29 (clamped to draft start)", gym.DueDate)
	}

	got, _ := ps.GetByID(draft.ID)
	if got.TotalAllocated == nil || math.Abs(*got.TotalAllocated-1019) > 0.001 {
		t.Errorf("draft total_allocated = %v, want 1019", got.TotalAllocated)
	}
}

func TestResyncRequiresDraftStatus(t *testing.T) {
	db := newTestDB(t)
	h := createTestHousehold(t, db)
	active := createTestCycle(t, db, h.ID, model.CycleActive, "2024-03-01", "2024-03-28")
	ps := NewPaycycleStore(db, budget.DefaultCategories())

	if err := ps.ResyncDraftFromActive(active.ID, active.ID); err == nil {
		t.Error("expected error when target is not a draft")
	}
	if err := ps.ResyncDraftFromActive(999, active.ID); err == nil {
		t.Error("expected error for missing draft")
	}
}

func TestActivatePromotesDraftAndClosesActive(t *testing.T) {
	db := newTestDB(t)
	h := createTestHousehold(t, db)
	active := createTestCycle(t, db, h.ID, model.CycleActive, "2024-03-01", "2024-03-28")
	draft := createTestCycle(t, db, h.ID, model.CycleDraft, "2024-03-29", "2024-04-25")
	ps := NewPaycycleStore(db, budget.DefaultCategories())

	promoted, err := ps.Activate(draft.ID)
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if promoted.Status != model.CycleActive {
		t.Errorf("status = %q, want active", promoted.Status)
	}

	old, _ := ps.GetByID(active.ID)
	if old.Status != model.CycleClosed {
		t.Errorf("previous active status = %q, want closed", old.Status)
	}

	// Only one active cycle remains.
	current, err := ps.GetActive(h.ID)
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	if current.ID != draft.ID {
		t.Errorf("active cycle = %d, want %d", current.ID, draft.ID)
	}
}

func TestActivateRejectsNonDraft(t *testing.T) {
	db := newTestDB(t)
	h := createTestHousehold(t, db)
	active := createTestCycle(t, db, h.ID, model.CycleActive, "2024-03-01", "2024-03-28")
	ps := NewPaycycleStore(db, budget.DefaultCategories())

	if _, err := ps.Activate(active.ID); err == nil {
		t.Error("expected error activating a non-draft cycle")
	}
}

func TestCloseRitual(t *testing.T) {
	db := newTestDB(t)
	h := createTestHousehold(t, db)
	cycle := createTestCycle(t, db, h.ID, model.CycleActive, "2024-03-01", "2024-03-28")
	ps := NewPaycycleStore(db, budget.DefaultCategories())

	if err := ps.CloseRitual(cycle.ID); err != nil {
		t.Fatalf("close ritual: %v", err)
	}
	got, _ := ps.GetByID(cycle.ID)
	if got.RitualClosedAt == nil {
		t.Error("ritual_closed_at should be set")
	}
	if got.Status != model.CycleActive {
		t.Errorf("status = %q, ritual close must not change status", got.Status)
	}

	if err := ps.CloseRitual(999); err == nil {
		t.Error("expected error for missing cycle")
	}
}

func mustCreateSeed(t *testing.T, ss *SeedStore, seed model.Seed) *model.Seed {
	t.Helper()
	created, err := ss.Create(seed)
	if err != nil {
		t.Fatalf("create seed %q: %v", seed.Name, err)
	}
	return created
}
