package store

import (
	"database/sql"
	"fmt"

	"github.com/plothq/plot/internal/model"
)

type PotStore struct {
	db *sql.DB
}

func NewPotStore(db *sql.DB) *PotStore {
	return &PotStore{db: db}
}

const potCols = `id, household_id, name, current_amount, target_amount, target_date, status, created_at, updated_at`

func scanPot(scanner interface{ Scan(...any) error }) (*model.Pot, error) {
	var p model.Pot
	var targetDate sql.NullString

	err := scanner.Scan(
		&p.ID, &p.HouseholdID, &p.Name, &p.CurrentAmount, &p.TargetAmount,
		&targetDate, &p.Status, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if targetDate.Valid {
		p.TargetDate = &targetDate.String
	}
	return &p, nil
}

func (s *PotStore) List(householdID int64) ([]model.Pot, error) {
	rows, err := s.db.Query(
		`SELECT `+potCols+` FROM pots WHERE household_id = ? ORDER BY status ASC, name ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list pots: %w", err)
	}
	defer rows.Close()

	var pots []model.Pot
	for rows.Next() {
		p, err := scanPot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pot: %w", err)
		}
		pots = append(pots, *p)
	}
	return pots, rows.Err()
}

func (s *PotStore) GetByID(id int64) (*model.Pot, error) {
	row := s.db.QueryRow(`SELECT `+potCols+` FROM pots WHERE id = ?`, id)
	p, err := scanPot(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get pot: %w", err)
	}
	return p, nil
}

func (s *PotStore) Create(householdID int64, name string, currentAmount, targetAmount float64, targetDate *string) (*model.Pot, error) {
	var due sql.NullString
	if targetDate != nil {
		due = sql.NullString{String: *targetDate, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO pots (household_id, name, current_amount, target_amount, target_date) VALUES (?, ?, ?, ?, ?)`,
		householdID, name, currentAmount, targetAmount, due,
	)
	if err != nil {
		return nil, fmt.Errorf("insert pot: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *PotStore) Update(id int64, name string, targetAmount float64, targetDate *string) (*model.Pot, error) {
	var due sql.NullString
	if targetDate != nil {
		due = sql.NullString{String: *targetDate, Valid: true}
	}

	_, err := s.db.Exec(
		`UPDATE pots SET name = ?, target_amount = ?, target_date = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		name, targetAmount, due, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update pot: %w", err)
	}
	return s.GetByID(id)
}

// SetStatus marks a pot complete or reopens it.
func (s *PotStore) SetStatus(id int64, status model.PotStatus) (*model.Pot, error) {
	_, err := s.db.Exec(
		`UPDATE pots SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, id,
	)
	if err != nil {
		return nil, fmt.Errorf("set pot status: %w", err)
	}
	return s.GetByID(id)
}
