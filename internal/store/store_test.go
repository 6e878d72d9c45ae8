package store

import (
	"database/sql"
	"testing"

	"github.com/plothq/plot/internal/budget"
	"github.com/plothq/plot/internal/database"
	"github.com/plothq/plot/internal/model"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestHousehold(t *testing.T, db *sql.DB) *model.Household {
	t.Helper()
	hs := NewHouseholdStore(db)
	h, err := hs.Create("Test Household", "Alex", "GBP")
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	return h
}

func createTestCycle(t *testing.T, db *sql.DB, householdID int64, status model.PayCycleStatus, start, end string) *model.PayCycle {
	t.Helper()
	ps := NewPaycycleStore(db, budget.DefaultCategories())
	c, err := ps.Create(householdID, "Paycycle "+start, status, start, end)
	if err != nil {
		t.Fatalf("create paycycle: %v", err)
	}
	return c
}

func strp(s string) *string { return &s }

func intp(i int) *int { return &i }

func floatp(f float64) *float64 { return &f }
