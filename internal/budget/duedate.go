package budget

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format for all budget dates.
const DateLayout = "2006-01-02"

func daysInMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// RollDueDateToCycle shifts a recurring seed's due date into the target
// cycle's date range, keeping the day-of-month where possible. Day 31 rolling
// into a shorter month clamps to that month's last day, and the candidate is
// clamped into [cycleStart, cycleEnd] inclusive. A nil, blank, or unparseable
// old date returns nil: the seed becomes dateless in the new cycle.
func RollDueDateToCycle(oldDue *string, cycleStart, cycleEnd string) *string {
	if oldDue == nil || strings.TrimSpace(*oldDue) == "" {
		return nil
	}
	old, err := time.Parse(DateLayout, strings.TrimSpace(*oldDue))
	if err != nil {
		return nil
	}
	start, err := time.Parse(DateLayout, cycleStart)
	if err != nil {
		return nil
	}
	end, err := time.Parse(DateLayout, cycleEnd)
	if err != nil {
		return nil
	}

	day := old.Day()
	if last := daysInMonth(start.Year(), start.Month()); day > last {
		day = last
	}
	candidate := time.Date(start.Year(), start.Month(), day, 0, 0, 0, 0, time.UTC)

	if candidate.Before(start) {
		candidate = start
	}
	if candidate.After(end) {
		candidate = end
	}

	s := candidate.Format(DateLayout)
	return &s
}

// ValidateDueDateInCycle rejects a due date outside the cycle's bounds.
// Used when a seed is created or updated directly; rollover clamps instead.
func ValidateDueDateInCycle(dueDate, cycleStart, cycleEnd string) error {
	due, err := time.Parse(DateLayout, dueDate)
	if err != nil {
		return fmt.Errorf("due date must be YYYY-MM-DD")
	}
	start, err := time.Parse(DateLayout, cycleStart)
	if err != nil {
		return fmt.Errorf("invalid cycle start date")
	}
	end, err := time.Parse(DateLayout, cycleEnd)
	if err != nil {
		return fmt.Errorf("invalid cycle end date")
	}
	if due.Before(start) || due.After(end) {
		return fmt.Errorf("due date %s is outside the cycle (%s to %s)", dueDate, cycleStart, cycleEnd)
	}
	return nil
}
