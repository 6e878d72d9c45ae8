// Package blueprint assembles the combined paycycle view (cycle + seeds +
// household + pots + repayments) and keeps its stored aggregates honest:
// loading the active cycle opportunistically settles overdue seeds and
// repairs allocation drift, always preferring stale data over a failed read.
package blueprint

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/plothq/plot/internal/budget"
	"github.com/plothq/plot/internal/model"
	"github.com/plothq/plot/internal/store"
)

// staleTolerance absorbs floating-point currency rounding when comparing the
// stored total against the live sum.
const staleTolerance = 0.01

// Bundle is the full blueprint for one paycycle. CategoryTotals carries the
// live per-category view derived from Seeds; OverdueSettled reports how many
// seeds the sweep settled during this load, for notification purposes.
type Bundle struct {
	Household      *model.Household         `json:"household"`
	PayCycle       *model.PayCycle          `json:"paycycle"`
	Seeds          []model.Seed             `json:"seeds"`
	Pots           []model.Pot              `json:"pots"`
	Repayments     []model.Repayment        `json:"repayments"`
	CategoryTotals map[string]budget.Totals `json:"category_totals"`
	OverdueSettled int                      `json:"overdue_settled"`
}

type Service struct {
	households *store.HouseholdStore
	paycycles  *store.PaycycleStore
	seeds      *store.SeedStore
	pots       *store.PotStore
	repayments *store.RepaymentStore
	categories []budget.Category
	now        func() time.Time
	logger     *slog.Logger
}

func NewService(hs *store.HouseholdStore, ps *store.PaycycleStore, ss *store.SeedStore, pots *store.PotStore, rs *store.RepaymentStore, categories []budget.Category, logger *slog.Logger) *Service {
	return &Service{
		households: hs,
		paycycles:  ps,
		seeds:      ss,
		pots:       pots,
		repayments: rs,
		categories: categories,
		now:        time.Now,
		logger:     logger,
	}
}

// SetClock overrides the service's notion of today. Test hook.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Load fetches the bundle for one cycle, with live category totals computed
// from its seeds.
func (s *Service) Load(paycycleID int64) (*Bundle, error) {
	cycle, err := s.paycycles.GetByID(paycycleID)
	if err != nil {
		return nil, err
	}
	if cycle == nil {
		return nil, fmt.Errorf("paycycle not found")
	}

	household, err := s.households.GetByID(cycle.HouseholdID)
	if err != nil {
		return nil, err
	}

	seeds, err := s.seeds.ListByPaycycle(paycycleID)
	if err != nil {
		return nil, err
	}

	pots, err := s.pots.List(cycle.HouseholdID)
	if err != nil {
		return nil, err
	}

	repayments, err := s.repayments.List(cycle.HouseholdID)
	if err != nil {
		return nil, err
	}

	return &Bundle{
		Household:      household,
		PayCycle:       cycle,
		Seeds:          seeds,
		Pots:           pots,
		Repayments:     repayments,
		CategoryTotals: budget.CategoryTotals(seeds, s.categories),
	}, nil
}

// allocationsStale reports whether the cycle's stored total disagrees with
// the sum derived from its seeds. An empty seed list never counts as stale:
// there is nothing to repair from.
func allocationsStale(cycle *model.PayCycle, seeds []model.Seed) bool {
	if cycle == nil || len(seeds) == 0 {
		return false
	}
	if cycle.TotalAllocated == nil {
		return true
	}
	stored := *cycle.TotalAllocated
	if stored == 0 {
		return true
	}
	return math.Abs(stored-budget.SumAmounts(seeds)) > staleTolerance
}

// EnsureFreshAllocations repairs stored aggregate drift: when the bundle's
// stored total disagrees with its seeds, the cycle's aggregates are recomputed
// server-side and the bundle refetched. Repair failures degrade to returning
// the original bundle; the read path never fails on account of the repair.
func (s *Service) EnsureFreshAllocations(b *Bundle) *Bundle {
	if b == nil || !allocationsStale(b.PayCycle, b.Seeds) {
		return b
	}

	if err := s.paycycles.RecomputeAllocations(b.PayCycle.ID); err != nil {
		s.logger.Warn("allocation repair failed, serving stored aggregates",
			"paycycle_id", b.PayCycle.ID, "error", err)
		return b
	}

	fresh, err := s.Load(b.PayCycle.ID)
	if err != nil {
		s.logger.Warn("refetch after allocation repair failed",
			"paycycle_id", b.PayCycle.ID, "error", err)
		return b
	}
	fresh.OverdueSettled = b.OverdueSettled
	return fresh
}

// SweepOverdue settles seeds whose due date has passed, recomputes the
// cycle's aggregates, and returns the refetched bundle with the settled
// count. Returns nil when nothing was overdue or anything went wrong; the
// sweep is opportunistic and never surfaces an error to the caller.
func (s *Service) SweepOverdue(paycycleID int64) *Bundle {
	today := s.now().Format(budget.DateLayout)

	count, err := s.seeds.MarkOverduePaid(paycycleID, today)
	if err != nil {
		s.logger.Warn("overdue sweep failed", "paycycle_id", paycycleID, "error", err)
		return nil
	}
	if count == 0 {
		return nil
	}

	if err := s.paycycles.RecomputeAllocations(paycycleID); err != nil {
		s.logger.Warn("recompute after overdue sweep failed", "paycycle_id", paycycleID, "error", err)
	}

	fresh, err := s.Load(paycycleID)
	if err != nil {
		s.logger.Warn("refetch after overdue sweep failed", "paycycle_id", paycycleID, "error", err)
		return nil
	}
	fresh.OverdueSettled = count
	return fresh
}

// LoadActive loads the household's active cycle with the full reconciliation
// pass: overdue sweep first, then stale-allocation repair. Returns a bundle
// with a nil PayCycle when no cycle is active yet.
func (s *Service) LoadActive() (*Bundle, error) {
	household, err := s.households.Get()
	if err != nil {
		return nil, err
	}
	if household == nil {
		return nil, fmt.Errorf("household not set up")
	}

	active, err := s.paycycles.GetActive(household.ID)
	if err != nil {
		return nil, err
	}
	if active == nil {
		return &Bundle{Household: household, CategoryTotals: budget.CategoryTotals(nil, s.categories)}, nil
	}

	bundle := s.SweepOverdue(active.ID)
	if bundle == nil {
		bundle, err = s.Load(active.ID)
		if err != nil {
			return nil, err
		}
	}

	return s.EnsureFreshAllocations(bundle), nil
}

// CreateNextCycle creates the cycle that follows the source one, cloning its
// recurring seeds. status defaults to draft.
func (s *Service) CreateNextCycle(sourceID int64, status model.PayCycleStatus) (*model.PayCycle, error) {
	if sourceID <= 0 {
		return nil, fmt.Errorf("source paycycle id is required")
	}
	if status == "" {
		status = model.CycleDraft
	}
	return s.paycycles.CreateNextCycle(sourceID, status)
}

// ResyncDraft re-derives a draft cycle's recurring seeds from the active one.
func (s *Service) ResyncDraft(draftID, activeID int64) error {
	if draftID <= 0 {
		return fmt.Errorf("draft paycycle id is required")
	}
	if activeID <= 0 {
		return fmt.Errorf("active paycycle id is required")
	}
	return s.paycycles.ResyncDraftFromActive(draftID, activeID)
}
