package budget

import (
	"testing"
	"time"

	"github.com/plothq/plot/internal/model"
)

func intp(i int) *int { return &i }

func TestCycleStartDateSpecificDateWeekendAdjusted(t *testing.T) {
	// 1 June 2024 is a Saturday; pay moves back to Friday 31 May.
	today := time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC)
	got := CycleStartDate(model.PayCycleSpecificDate, intp(1), nil, today)
	if got != "2024-05-31" {
		t.Errorf("start = %q, want 2024-05-31", got)
	}
}

func TestCycleStartDateSpecificDateNotYetPaid(t *testing.T) {
	// Pay day 25 has not arrived; the running cycle started last month.
	today := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	got := CycleStartDate(model.PayCycleSpecificDate, intp(25), nil, today)
	if got != "2024-02-23" {
		// 25 Feb 2024 is a Sunday, so pay landed on Friday the 23rd.
		t.Errorf("start = %q, want 2024-02-23", got)
	}
}

func TestCycleStartDateLastWorkingDay(t *testing.T) {
	today := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	got := CycleStartDate(model.PayCycleLastWorkingDay, nil, nil, today)
	if got != "2024-03-01" {
		t.Errorf("start = %q, want 2024-03-01", got)
	}
}

func TestCycleStartDateAnchor(t *testing.T) {
	today := time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)
	anchor := "2024-05-10"
	got := CycleStartDate(model.PayCycleEvery4Weeks, nil, &anchor, today)
	if got != "2024-05-10" {
		t.Errorf("start = %q, want 2024-05-10", got)
	}
}

func TestCycleEndDateLastWorkingDay(t *testing.T) {
	// 31 March 2024 is a Sunday; last working day is Friday the 29th.
	got, err := CycleEndDate(model.PayCycleLastWorkingDay, "2024-03-01", nil)
	if err != nil {
		t.Fatalf("cycle end: %v", err)
	}
	if got != "2024-03-29" {
		t.Errorf("end = %q, want 2024-03-29", got)
	}
}

func TestCycleEndDateLastWorkingDaySpansNextMonth(t *testing.T) {
	// Start after the month's LWD: the cycle runs into the next month.
	got, err := CycleEndDate(model.PayCycleLastWorkingDay, "2024-03-30", nil)
	if err != nil {
		t.Fatalf("cycle end: %v", err)
	}
	if got != "2024-04-30" {
		t.Errorf("end = %q, want 2024-04-30", got)
	}
}

func TestNextCycleDatesEvery4Weeks(t *testing.T) {
	start, end, err := NextCycleDates("2024-02-29", model.PayCycleEvery4Weeks, nil)
	if err != nil {
		t.Fatalf("next cycle: %v", err)
	}
	if start != "2024-03-01" {
		t.Errorf("start = %q, want 2024-03-01", start)
	}
	if end != "2024-03-28" {
		t.Errorf("end = %q, want 2024-03-28", end)
	}
}

func TestNextCycleDatesSpecificDate(t *testing.T) {
	start, end, err := NextCycleDates("2024-03-24", model.PayCycleSpecificDate, intp(25))
	if err != nil {
		t.Fatalf("next cycle: %v", err)
	}
	if start != "2024-03-25" {
		t.Errorf("start = %q, want 2024-03-25", start)
	}
	// Next pay is Thursday 25 April; the cycle ends the working day before.
	if end != "2024-04-24" {
		t.Errorf("end = %q, want 2024-04-24", end)
	}
}

func TestNextCycleDatesInvalidPrevEnd(t *testing.T) {
	if _, _, err := NextCycleDates("not-a-date", model.PayCycleEvery4Weeks, nil); err == nil {
		t.Error("expected error for unparseable previous end date")
	}
}
