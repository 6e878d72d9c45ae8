package store

import (
	"database/sql"
	"fmt"

	"github.com/plothq/plot/internal/model"
)

type SeedStore struct {
	db *sql.DB
}

func NewSeedStore(db *sql.DB) *SeedStore {
	return &SeedStore{db: db}
}

// Payer identifies which side of the household is settling a seed.
type Payer string

const (
	PayerMe      Payer = "me"
	PayerPartner Payer = "partner"
	PayerBoth    Payer = "both"
)

const seedCols = `id, household_id, paycycle_id, name, type, amount, payment_source,
	split_ratio, is_recurring, due_date, is_paid, amount_me, amount_partner,
	is_paid_me, is_paid_partner, linked_pot_id, linked_repayment_id, created_at, updated_at`

func scanSeed(scanner interface{ Scan(...any) error }) (*model.Seed, error) {
	var s model.Seed
	var splitRatio sql.NullFloat64
	var dueDate sql.NullString
	var potID, repaymentID sql.NullInt64

	err := scanner.Scan(
		&s.ID, &s.HouseholdID, &s.PaycycleID, &s.Name, &s.Type, &s.Amount, &s.PaymentSource,
		&splitRatio, &s.IsRecurring, &dueDate, &s.IsPaid, &s.AmountMe, &s.AmountPartner,
		&s.IsPaidMe, &s.IsPaidPartner, &potID, &repaymentID, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if splitRatio.Valid {
		s.SplitRatio = &splitRatio.Float64
	}
	if dueDate.Valid {
		s.DueDate = &dueDate.String
	}
	if potID.Valid {
		s.LinkedPotID = &potID.Int64
	}
	if repaymentID.Valid {
		s.LinkedRepaymentID = &repaymentID.Int64
	}
	return &s, nil
}

func listSeeds(q querier, query string, args ...any) ([]model.Seed, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var seeds []model.Seed
	for rows.Next() {
		s, err := scanSeed(rows)
		if err != nil {
			return nil, fmt.Errorf("scan seed: %w", err)
		}
		seeds = append(seeds, *s)
	}
	return seeds, rows.Err()
}

func (s *SeedStore) GetByID(id int64) (*model.Seed, error) {
	row := s.db.QueryRow(`SELECT `+seedCols+` FROM seeds WHERE id = ?`, id)
	seed, err := scanSeed(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get seed: %w", err)
	}
	return seed, nil
}

func (s *SeedStore) ListByPaycycle(paycycleID int64) ([]model.Seed, error) {
	seeds, err := listSeeds(s.db,
		`SELECT `+seedCols+` FROM seeds WHERE paycycle_id = ? ORDER BY due_date IS NULL, due_date ASC, name ASC`,
		paycycleID,
	)
	if err != nil {
		return nil, fmt.Errorf("list seeds: %w", err)
	}
	return seeds, nil
}

func (s *SeedStore) Create(seed model.Seed) (*model.Seed, error) {
	var splitRatio sql.NullFloat64
	if seed.SplitRatio != nil {
		splitRatio = sql.NullFloat64{Float64: *seed.SplitRatio, Valid: true}
	}
	var dueDate sql.NullString
	if seed.DueDate != nil {
		dueDate = sql.NullString{String: *seed.DueDate, Valid: true}
	}
	var potID, repaymentID sql.NullInt64
	if seed.LinkedPotID != nil {
		potID = sql.NullInt64{Int64: *seed.LinkedPotID, Valid: true}
	}
	if seed.LinkedRepaymentID != nil {
		repaymentID = sql.NullInt64{Int64: *seed.LinkedRepaymentID, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO seeds (household_id, paycycle_id, name, type, amount, payment_source,
			split_ratio, is_recurring, due_date, amount_me, amount_partner, linked_pot_id, linked_repayment_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		seed.HouseholdID, seed.PaycycleID, seed.Name, seed.Type, seed.Amount, seed.PaymentSource,
		splitRatio, seed.IsRecurring, dueDate, seed.AmountMe, seed.AmountPartner, potID, repaymentID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert seed: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

// Update rewrites a seed's editable fields. Paid flags are managed solely by
// MarkPaid/UnmarkPaid and the overdue sweep.
func (s *SeedStore) Update(id int64, name string, amount float64, paymentSource model.PaymentSource, splitRatio *float64, isRecurring bool, dueDate *string, amountMe, amountPartner float64) (*model.Seed, error) {
	var ratio sql.NullFloat64
	if splitRatio != nil {
		ratio = sql.NullFloat64{Float64: *splitRatio, Valid: true}
	}
	var due sql.NullString
	if dueDate != nil {
		due = sql.NullString{String: *dueDate, Valid: true}
	}

	_, err := s.db.Exec(
		`UPDATE seeds SET name = ?, amount = ?, payment_source = ?, split_ratio = ?, is_recurring = ?,
			due_date = ?, amount_me = ?, amount_partner = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		name, amount, paymentSource, ratio, isRecurring, due, amountMe, amountPartner, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update seed: %w", err)
	}
	return s.GetByID(id)
}

func (s *SeedStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM seeds WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete seed: %w", err)
	}
	return nil
}

// MarkPaid settles a seed (or one side of a joint seed) and applies the paid
// amount to any linked pot or repayment, in one transaction. Already-paid
// sides are skipped, so repeated calls are no-ops.
func (s *SeedStore) MarkPaid(id int64, payer Payer) (*model.Seed, error) {
	return s.setPaid(id, payer, true)
}

// UnmarkPaid reverses MarkPaid, including the linked pot or repayment change.
func (s *SeedStore) UnmarkPaid(id int64, payer Payer) (*model.Seed, error) {
	return s.setPaid(id, payer, false)
}

func (s *SeedStore) setPaid(id int64, payer Payer, paid bool) (*model.Seed, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRow(`SELECT `+seedCols+` FROM seeds WHERE id = ?`, id)
	seed, err := scanSeed(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("seed not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get seed: %w", err)
	}

	changed := settlementAmount(seed, payer, paid)
	applyPayer(seed, payer, paid)

	if changed > 0 {
		if err := adjustLinked(tx, seed, changed, paid); err != nil {
			return nil, err
		}
	}

	_, err = tx.Exec(
		`UPDATE seeds SET is_paid = ?, is_paid_me = ?, is_paid_partner = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		seed.IsPaid, seed.IsPaidMe, seed.IsPaidPartner, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update paid flags: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

// settlementAmount is the money that actually changes hands for this
// mark/unmark: only sides transitioning between unpaid and paid count.
func settlementAmount(seed *model.Seed, payer Payer, paid bool) float64 {
	if seed.PaymentSource != model.SourceJoint {
		if seed.IsPaid == paid {
			return 0
		}
		return seed.Amount
	}

	var amount float64
	if (payer == PayerMe || payer == PayerBoth) && seed.IsPaidMe != paid {
		amount += seed.AmountMe
	}
	if (payer == PayerPartner || payer == PayerBoth) && seed.IsPaidPartner != paid {
		amount += seed.AmountPartner
	}
	return amount
}

func applyPayer(seed *model.Seed, payer Payer, paid bool) {
	if seed.PaymentSource != model.SourceJoint {
		seed.IsPaid = paid
		seed.IsPaidMe = paid && seed.PaymentSource == model.SourceMe
		seed.IsPaidPartner = paid && seed.PaymentSource == model.SourcePartner
		return
	}

	if payer == PayerMe || payer == PayerBoth {
		seed.IsPaidMe = paid
	}
	if payer == PayerPartner || payer == PayerBoth {
		seed.IsPaidPartner = paid
	}
	seed.IsPaid = seed.IsPaidMe && seed.IsPaidPartner
}

// adjustLinked credits a linked pot (or debits a linked repayment) when a
// savings/repay seed is settled, and reverses the movement on unmark.
// Balances never go below zero.
func adjustLinked(q querier, seed *model.Seed, amount float64, markingPaid bool) error {
	if seed.Type == model.SeedSavings && seed.LinkedPotID != nil {
		delta := amount
		if !markingPaid {
			delta = -amount
		}
		_, err := q.Exec(
			`UPDATE pots SET current_amount = MAX(0, current_amount + ?), updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			delta, *seed.LinkedPotID,
		)
		if err != nil {
			return fmt.Errorf("adjust linked pot: %w", err)
		}
	}

	if seed.Type == model.SeedRepay && seed.LinkedRepaymentID != nil {
		delta := -amount
		if !markingPaid {
			delta = amount
		}
		_, err := q.Exec(
			`UPDATE repayments SET current_balance = MAX(0, current_balance + ?), updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			delta, *seed.LinkedRepaymentID,
		)
		if err != nil {
			return fmt.Errorf("adjust linked repayment: %w", err)
		}
	}

	return nil
}

// MarkOverduePaid settles every seed in the cycle whose due date has passed
// and is not yet fully paid, including linked pot/repayment movements.
// Returns the number of seeds settled. Dateless seeds are never touched.
func (s *SeedStore) MarkOverduePaid(paycycleID int64, today string) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	overdue, err := listSeeds(tx,
		`SELECT `+seedCols+` FROM seeds
		 WHERE paycycle_id = ? AND due_date IS NOT NULL AND due_date < ? AND is_paid = 0`,
		paycycleID, today,
	)
	if err != nil {
		return 0, fmt.Errorf("list overdue seeds: %w", err)
	}
	if len(overdue) == 0 {
		return 0, nil
	}

	for i := range overdue {
		seed := &overdue[i]

		changed := settlementAmount(seed, PayerBoth, true)
		applyPayer(seed, PayerBoth, true)

		if changed > 0 {
			if err := adjustLinked(tx, seed, changed, true); err != nil {
				return 0, err
			}
		}

		_, err = tx.Exec(
			`UPDATE seeds SET is_paid = 1, is_paid_me = ?, is_paid_partner = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			seed.IsPaidMe, seed.IsPaidPartner, seed.ID,
		)
		if err != nil {
			return 0, fmt.Errorf("settle overdue seed: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(overdue), nil
}
