package store

import (
	"database/sql"
	"fmt"

	"github.com/plothq/plot/internal/budget"
	"github.com/plothq/plot/internal/model"
)

// PaycycleStore owns cycle rows and their stored allocation aggregates. The
// category layout is injected so the aggregate columns are driven by the same
// configuration the pure calculators use.
type PaycycleStore struct {
	db         *sql.DB
	categories []budget.Category
}

func NewPaycycleStore(db *sql.DB, categories []budget.Category) *PaycycleStore {
	return &PaycycleStore{db: db, categories: categories}
}

const paycycleCols = `id, household_id, name, status, start_date, end_date, ritual_closed_at,
	total_allocated, alloc_needs, alloc_wants, alloc_savings, alloc_repay,
	rem_needs, rem_wants, rem_savings, rem_repay, created_at, updated_at`

func scanPaycycle(scanner interface{ Scan(...any) error }) (*model.PayCycle, error) {
	var c model.PayCycle
	var ritualClosedAt sql.NullTime
	var totalAllocated sql.NullFloat64

	err := scanner.Scan(
		&c.ID, &c.HouseholdID, &c.Name, &c.Status, &c.StartDate, &c.EndDate, &ritualClosedAt,
		&totalAllocated, &c.AllocNeeds, &c.AllocWants, &c.AllocSavings, &c.AllocRepay,
		&c.RemNeeds, &c.RemWants, &c.RemSavings, &c.RemRepay, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if ritualClosedAt.Valid {
		c.RitualClosedAt = &ritualClosedAt.Time
	}
	if totalAllocated.Valid {
		c.TotalAllocated = &totalAllocated.Float64
	}
	return &c, nil
}

func getPaycycle(q querier, id int64) (*model.PayCycle, error) {
	row := q.QueryRow(`SELECT `+paycycleCols+` FROM paycycles WHERE id = ?`, id)
	c, err := scanPaycycle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get paycycle: %w", err)
	}
	return c, nil
}

func (s *PaycycleStore) GetByID(id int64) (*model.PayCycle, error) {
	return getPaycycle(s.db, id)
}

// GetActive returns the household's active cycle, or nil when none is active.
func (s *PaycycleStore) GetActive(householdID int64) (*model.PayCycle, error) {
	row := s.db.QueryRow(
		`SELECT `+paycycleCols+` FROM paycycles WHERE household_id = ? AND status = 'active' ORDER BY start_date DESC LIMIT 1`,
		householdID,
	)
	c, err := scanPaycycle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active paycycle: %w", err)
	}
	return c, nil
}

// GetDraft returns the household's draft cycle, or nil when none exists.
func (s *PaycycleStore) GetDraft(householdID int64) (*model.PayCycle, error) {
	row := s.db.QueryRow(
		`SELECT `+paycycleCols+` FROM paycycles WHERE household_id = ? AND status = 'draft' ORDER BY start_date DESC LIMIT 1`,
		householdID,
	)
	c, err := scanPaycycle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get draft paycycle: %w", err)
	}
	return c, nil
}

func (s *PaycycleStore) List(householdID int64) ([]model.PayCycle, error) {
	rows, err := s.db.Query(
		`SELECT `+paycycleCols+` FROM paycycles WHERE household_id = ? ORDER BY start_date DESC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list paycycles: %w", err)
	}
	defer rows.Close()

	var cycles []model.PayCycle
	for rows.Next() {
		c, err := scanPaycycle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan paycycle: %w", err)
		}
		cycles = append(cycles, *c)
	}
	return cycles, rows.Err()
}

func (s *PaycycleStore) Create(householdID int64, name string, status model.PayCycleStatus, startDate, endDate string) (*model.PayCycle, error) {
	result, err := s.db.Exec(
		`INSERT INTO paycycles (household_id, name, status, start_date, end_date) VALUES (?, ?, ?, ?, ?)`,
		householdID, name, status, startDate, endDate,
	)
	if err != nil {
		return nil, fmt.Errorf("insert paycycle: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

// recomputeAllocations rewrites a cycle's stored aggregates from its current
// seeds. Idempotent; two concurrent recomputes converge on the same sums.
func recomputeAllocations(q querier, paycycleID int64, categories []budget.Category) error {
	seeds, err := listSeeds(q, `SELECT `+seedCols+` FROM seeds WHERE paycycle_id = ?`, paycycleID)
	if err != nil {
		return fmt.Errorf("list seeds for recompute: %w", err)
	}

	totals := budget.CategoryTotals(seeds, categories)

	// Column names come from the process-constant category config, never
	// from request input.
	set := `total_allocated = ?`
	args := []any{budget.SumAmounts(seeds)}
	for _, cat := range categories {
		t := totals[cat.Key]
		set += `, ` + cat.AllocColumn + ` = ?, ` + cat.RemainingColumn + ` = ?`
		args = append(args, t.Allocated, t.Remaining)
	}
	args = append(args, paycycleID)

	_, err = q.Exec(`UPDATE paycycles SET `+set+`, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update allocations: %w", err)
	}
	return nil
}

// RecomputeAllocations re-derives the stored aggregate columns from the
// cycle's seeds. This is the server-side repair operation the blueprint
// service invokes when it detects drift.
func (s *PaycycleStore) RecomputeAllocations(paycycleID int64) error {
	return recomputeAllocations(s.db, paycycleID, s.categories)
}

// CloseRitual stamps the cycle's budget as locked for the period.
func (s *PaycycleStore) CloseRitual(id int64) error {
	result, err := s.db.Exec(
		`UPDATE paycycles SET ritual_closed_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("close ritual: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("paycycle not found")
	}
	return nil
}

// Activate promotes a draft cycle to active, closing the household's current
// active cycle in the same transaction so at most one cycle is ever active.
func (s *PaycycleStore) Activate(id int64) (*model.PayCycle, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	cycle, err := getPaycycle(tx, id)
	if err != nil {
		return nil, err
	}
	if cycle == nil {
		return nil, fmt.Errorf("paycycle not found")
	}
	if cycle.Status != model.CycleDraft {
		return nil, fmt.Errorf("only draft cycles can be activated")
	}

	_, err = tx.Exec(
		`UPDATE paycycles SET status = 'closed', updated_at = CURRENT_TIMESTAMP WHERE household_id = ? AND status = 'active'`,
		cycle.HouseholdID,
	)
	if err != nil {
		return nil, fmt.Errorf("close active cycle: %w", err)
	}

	_, err = tx.Exec(
		`UPDATE paycycles SET status = 'active', updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("activate cycle: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

// CreateNextCycle creates the cycle following the source one, cloning the
// source's recurring seeds with due dates rolled into the new range and paid
// flags reset, then deriving the new cycle's aggregates. All in one
// transaction; the caller sees either the full next cycle or an error.
func (s *PaycycleStore) CreateNextCycle(sourceID int64, status model.PayCycleStatus) (*model.PayCycle, error) {
	if status != model.CycleDraft && status != model.CycleActive {
		return nil, fmt.Errorf("next cycle status must be draft or active")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	source, err := getPaycycle(tx, sourceID)
	if err != nil {
		return nil, err
	}
	if source == nil {
		return nil, fmt.Errorf("paycycle not found")
	}

	row := tx.QueryRow(`SELECT `+householdCols+` FROM households WHERE id = ?`, source.HouseholdID)
	household, err := scanHousehold(row)
	if err != nil {
		return nil, fmt.Errorf("get household: %w", err)
	}

	startDate, endDate, err := budget.NextCycleDates(source.EndDate, household.PayCycleType, household.PayDay)
	if err != nil {
		return nil, err
	}

	result, err := tx.Exec(
		`INSERT INTO paycycles (household_id, name, status, start_date, end_date) VALUES (?, ?, ?, ?, ?)`,
		source.HouseholdID, "Paycycle "+startDate, status, startDate, endDate,
	)
	if err != nil {
		return nil, fmt.Errorf("insert next paycycle: %w", err)
	}
	newID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	recurring, err := listSeeds(tx,
		`SELECT `+seedCols+` FROM seeds WHERE paycycle_id = ? AND is_recurring = 1`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("list recurring seeds: %w", err)
	}

	for _, seed := range recurring {
		due := budget.RollDueDateToCycle(seed.DueDate, startDate, endDate)
		if err := insertSeedClone(tx, seed, newID, due); err != nil {
			return nil, err
		}
	}

	if len(recurring) > 0 {
		if err := recomputeAllocations(tx, newID, s.categories); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(newID)
}

func insertSeedClone(q querier, seed model.Seed, paycycleID int64, dueDate *string) error {
	var ratio sql.NullFloat64
	if seed.SplitRatio != nil {
		ratio = sql.NullFloat64{Float64: *seed.SplitRatio, Valid: true}
	}
	var due sql.NullString
	if dueDate != nil {
		due = sql.NullString{String: *dueDate, Valid: true}
	}
	var potID, repaymentID sql.NullInt64
	if seed.LinkedPotID != nil {
		potID = sql.NullInt64{Int64: *seed.LinkedPotID, Valid: true}
	}
	if seed.LinkedRepaymentID != nil {
		repaymentID = sql.NullInt64{Int64: *seed.LinkedRepaymentID, Valid: true}
	}

	_, err := q.Exec(
		`INSERT INTO seeds (household_id, paycycle_id, name, type, amount, payment_source,
			split_ratio, is_recurring, due_date, amount_me, amount_partner, linked_pot_id, linked_repayment_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?, ?, ?, ?, ?)`,
		seed.HouseholdID, paycycleID, seed.Name, seed.Type, seed.Amount, seed.PaymentSource,
		ratio, due, seed.AmountMe, seed.AmountPartner, potID, repaymentID,
	)
	if err != nil {
		return fmt.Errorf("clone recurring seed: %w", err)
	}
	return nil
}

// ResyncDraftFromActive re-derives the draft cycle's recurring seeds from the
// active cycle: matching seeds (by name and type) are updated in place, new
// recurring seeds are added, due dates are rolled into the draft's range, and
// the draft's aggregates are recomputed. Transactional; never partially
// commits.
func (s *PaycycleStore) ResyncDraftFromActive(draftID, activeID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	draft, err := getPaycycle(tx, draftID)
	if err != nil {
		return err
	}
	if draft == nil || draft.Status != model.CycleDraft {
		return fmt.Errorf("draft paycycle not found or not a draft")
	}

	row := tx.QueryRow(`SELECT `+householdCols+` FROM households WHERE id = ?`, draft.HouseholdID)
	household, err := scanHousehold(row)
	if err != nil {
		return fmt.Errorf("get household: %w", err)
	}

	recurring, err := listSeeds(tx,
		`SELECT `+seedCols+` FROM seeds WHERE paycycle_id = ? AND is_recurring = 1`, activeID)
	if err != nil {
		return fmt.Errorf("list active recurring seeds: %w", err)
	}

	draftSeeds, err := listSeeds(tx,
		`SELECT `+seedCols+` FROM seeds WHERE paycycle_id = ?`, draftID)
	if err != nil {
		return fmt.Errorf("list draft seeds: %w", err)
	}

	draftByKey := make(map[string]model.Seed, len(draftSeeds))
	for _, d := range draftSeeds {
		draftByKey[d.Name+"::"+string(d.Type)] = d
	}

	for _, seed := range recurring {
		amountMe, amountPartner := budget.SeedSplit(seed.Amount, seed.PaymentSource, seed.SplitRatio, household.JointRatio)
		due := budget.RollDueDateToCycle(seed.DueDate, draft.StartDate, draft.EndDate)

		existing, ok := draftByKey[seed.Name+"::"+string(seed.Type)]
		if !ok {
			clone := seed
			clone.PaycycleID = draftID
			clone.AmountMe = amountMe
			clone.AmountPartner = amountPartner
			if err := insertSeedClone(tx, clone, draftID, due); err != nil {
				return err
			}
			continue
		}

		var ratio sql.NullFloat64
		if seed.SplitRatio != nil {
			ratio = sql.NullFloat64{Float64: *seed.SplitRatio, Valid: true}
		}
		var dueVal sql.NullString
		if due != nil {
			dueVal = sql.NullString{String: *due, Valid: true}
		}
		var potID, repaymentID sql.NullInt64
		if seed.LinkedPotID != nil {
			potID = sql.NullInt64{Int64: *seed.LinkedPotID, Valid: true}
		}
		if seed.LinkedRepaymentID != nil {
			repaymentID = sql.NullInt64{Int64: *seed.LinkedRepaymentID, Valid: true}
		}

		_, err = tx.Exec(
			`UPDATE seeds SET amount = ?, payment_source = ?, split_ratio = ?, amount_me = ?, amount_partner = ?,
				due_date = ?, linked_pot_id = ?, linked_repayment_id = ?, updated_at = CURRENT_TIMESTAMP
			 WHERE id = ?`,
			seed.Amount, seed.PaymentSource, ratio, amountMe, amountPartner,
			dueVal, potID, repaymentID, existing.ID,
		)
		if err != nil {
			return fmt.Errorf("resync draft seed: %w", err)
		}
	}

	if err := recomputeAllocations(tx, draftID, s.categories); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
