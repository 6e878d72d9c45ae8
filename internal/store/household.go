package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/plothq/plot/internal/model"
)

type HouseholdStore struct {
	db *sql.DB
}

func NewHouseholdStore(db *sql.DB) *HouseholdStore {
	return &HouseholdStore{db: db}
}

const householdCols = `id, name, owner_name, partner_name, currency,
	needs_percent, wants_percent, savings_percent, repay_percent,
	joint_ratio, pay_cycle_type, pay_day, anchor_date, created_at, updated_at`

func scanHousehold(scanner interface{ Scan(...any) error }) (*model.Household, error) {
	var h model.Household
	var partnerName, anchorDate sql.NullString
	var payDay sql.NullInt64

	err := scanner.Scan(
		&h.ID, &h.Name, &h.OwnerName, &partnerName, &h.Currency,
		&h.NeedsPercent, &h.WantsPercent, &h.SavingsPercent, &h.RepayPercent,
		&h.JointRatio, &h.PayCycleType, &payDay, &anchorDate,
		&h.CreatedAt, &h.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if partnerName.Valid {
		h.PartnerName = &partnerName.String
	}
	if payDay.Valid {
		d := int(payDay.Int64)
		h.PayDay = &d
	}
	if anchorDate.Valid {
		h.AnchorDate = &anchorDate.String
	}
	return &h, nil
}

// Get returns the household this instance serves, or nil before onboarding.
func (s *HouseholdStore) Get() (*model.Household, error) {
	row := s.db.QueryRow(`SELECT ` + householdCols + ` FROM households ORDER BY id LIMIT 1`)
	h, err := scanHousehold(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get household: %w", err)
	}
	return h, nil
}

func (s *HouseholdStore) GetByID(id int64) (*model.Household, error) {
	row := s.db.QueryRow(`SELECT `+householdCols+` FROM households WHERE id = ?`, id)
	h, err := scanHousehold(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get household: %w", err)
	}
	return h, nil
}

func (s *HouseholdStore) Create(name, ownerName, currency string) (*model.Household, error) {
	if currency == "" {
		currency = "GBP"
	}
	result, err := s.db.Exec(
		`INSERT INTO households (name, owner_name, currency) VALUES (?, ?, ?)`,
		name, ownerName, currency,
	)
	if err != nil {
		return nil, fmt.Errorf("insert household: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

// UpdateSettings replaces the household's budget split, joint ratio, currency,
// and pay-cycle configuration. Percentage validation happens in the handler.
func (s *HouseholdStore) UpdateSettings(id int64, needs, wants, savings, repay int, jointRatio float64, currency string, cycleType model.PayCycleType, payDay *int, anchorDate *string) (*model.Household, error) {
	var pd sql.NullInt64
	if payDay != nil {
		pd = sql.NullInt64{Int64: int64(*payDay), Valid: true}
	}
	var anchor sql.NullString
	if anchorDate != nil {
		anchor = sql.NullString{String: *anchorDate, Valid: true}
	}

	_, err := s.db.Exec(
		`UPDATE households SET needs_percent = ?, wants_percent = ?, savings_percent = ?, repay_percent = ?,
			joint_ratio = ?, currency = ?, pay_cycle_type = ?, pay_day = ?, anchor_date = ?,
			updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		needs, wants, savings, repay, jointRatio, currency, cycleType, pd, anchor, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update household: %w", err)
	}
	return s.GetByID(id)
}

// CreatePartnerInvite issues a fresh invite code for the partner to join with.
// Only the bcrypt hash is stored; the plaintext code is returned exactly once.
func (s *HouseholdStore) CreatePartnerInvite(id int64) (string, error) {
	code := uuid.NewString()
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash invite code: %w", err)
	}

	result, err := s.db.Exec(
		`UPDATE households SET partner_invite_hash = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		string(hash), id,
	)
	if err != nil {
		return "", fmt.Errorf("store invite hash: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return "", fmt.Errorf("household not found")
	}
	return code, nil
}

// AcceptPartnerInvite verifies the invite code and records the partner. The
// invite hash is cleared on success so a code cannot be reused.
func (s *HouseholdStore) AcceptPartnerInvite(id int64, code, partnerName string) error {
	var hash sql.NullString
	err := s.db.QueryRow(`SELECT partner_invite_hash FROM households WHERE id = ?`, id).Scan(&hash)
	if err == sql.ErrNoRows {
		return fmt.Errorf("household not found")
	}
	if err != nil {
		return fmt.Errorf("get invite hash: %w", err)
	}
	if !hash.Valid || hash.String == "" {
		return fmt.Errorf("no pending invite")
	}
	if bcrypt.CompareHashAndPassword([]byte(hash.String), []byte(code)) != nil {
		return fmt.Errorf("invalid invite code")
	}

	_, err = s.db.Exec(
		`UPDATE households SET partner_name = ?, partner_invite_hash = NULL, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		partnerName, id,
	)
	if err != nil {
		return fmt.Errorf("accept invite: %w", err)
	}
	return nil
}
