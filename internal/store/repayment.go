package store

import (
	"database/sql"
	"fmt"

	"github.com/plothq/plot/internal/model"
)

type RepaymentStore struct {
	db *sql.DB
}

func NewRepaymentStore(db *sql.DB) *RepaymentStore {
	return &RepaymentStore{db: db}
}

const repaymentCols = `id, household_id, name, starting_balance, current_balance, target_date, interest_rate, status, created_at, updated_at`

func scanRepayment(scanner interface{ Scan(...any) error }) (*model.Repayment, error) {
	var r model.Repayment
	var targetDate sql.NullString
	var interestRate sql.NullFloat64

	err := scanner.Scan(
		&r.ID, &r.HouseholdID, &r.Name, &r.StartingBalance, &r.CurrentBalance,
		&targetDate, &interestRate, &r.Status, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if targetDate.Valid {
		r.TargetDate = &targetDate.String
	}
	if interestRate.Valid {
		r.InterestRate = &interestRate.Float64
	}
	return &r, nil
}

func (s *RepaymentStore) List(householdID int64) ([]model.Repayment, error) {
	rows, err := s.db.Query(
		`SELECT `+repaymentCols+` FROM repayments WHERE household_id = ? ORDER BY status ASC, name ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list repayments: %w", err)
	}
	defer rows.Close()

	var repayments []model.Repayment
	for rows.Next() {
		r, err := scanRepayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan repayment: %w", err)
		}
		repayments = append(repayments, *r)
	}
	return repayments, rows.Err()
}

func (s *RepaymentStore) GetByID(id int64) (*model.Repayment, error) {
	row := s.db.QueryRow(`SELECT `+repaymentCols+` FROM repayments WHERE id = ?`, id)
	r, err := scanRepayment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get repayment: %w", err)
	}
	return r, nil
}

func (s *RepaymentStore) Create(householdID int64, name string, startingBalance, currentBalance float64, targetDate *string, interestRate *float64) (*model.Repayment, error) {
	var due sql.NullString
	if targetDate != nil {
		due = sql.NullString{String: *targetDate, Valid: true}
	}
	var rate sql.NullFloat64
	if interestRate != nil {
		rate = sql.NullFloat64{Float64: *interestRate, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO repayments (household_id, name, starting_balance, current_balance, target_date, interest_rate)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		householdID, name, startingBalance, currentBalance, due, rate,
	)
	if err != nil {
		return nil, fmt.Errorf("insert repayment: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *RepaymentStore) Update(id int64, name string, currentBalance float64, targetDate *string, interestRate *float64, status model.RepaymentStatus) (*model.Repayment, error) {
	var due sql.NullString
	if targetDate != nil {
		due = sql.NullString{String: *targetDate, Valid: true}
	}
	var rate sql.NullFloat64
	if interestRate != nil {
		rate = sql.NullFloat64{Float64: *interestRate, Valid: true}
	}

	_, err := s.db.Exec(
		`UPDATE repayments SET name = ?, current_balance = ?, target_date = ?, interest_rate = ?, status = ?,
			updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		name, currentBalance, due, rate, status, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update repayment: %w", err)
	}
	return s.GetByID(id)
}
