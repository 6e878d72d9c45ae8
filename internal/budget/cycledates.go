package budget

import (
	"fmt"
	"time"

	"github.com/plothq/plot/internal/model"
)

// Pay dates always land on working days: a pay day falling on Saturday moves
// to Friday, Sunday moves back to Friday.

func toWorkingDay(d time.Time) time.Time {
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDate(0, 0, -1)
	case time.Sunday:
		return d.AddDate(0, 0, -2)
	}
	return d
}

func lastWorkingDay(year int, month time.Month) time.Time {
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
	return toWorkingDay(last)
}

// CycleStartDate derives the current cycle's start date for a household.
//   - specific_date: this month's pay day if it has passed, else last month's
//   - last_working_day: the day after the previous month's last working day
//   - every_4_weeks: the anchor date
func CycleStartDate(t model.PayCycleType, payDay *int, anchorDate *string, today time.Time) string {
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)

	switch {
	case t == model.PayCycleEvery4Weeks && anchorDate != nil && *anchorDate != "":
		return *anchorDate
	case t == model.PayCycleSpecificDate && payDay != nil:
		thisMonth := toWorkingDay(time.Date(today.Year(), today.Month(), *payDay, 0, 0, 0, 0, time.UTC))
		if thisMonth.After(today) {
			lastMonth := toWorkingDay(time.Date(today.Year(), today.Month()-1, *payDay, 0, 0, 0, 0, time.UTC))
			return lastMonth.Format(DateLayout)
		}
		return thisMonth.Format(DateLayout)
	case t == model.PayCycleLastWorkingDay:
		prevLWD := lastWorkingDay(today.Year(), today.Month()-1)
		return prevLWD.AddDate(0, 0, 1).Format(DateLayout)
	}
	return today.Format(DateLayout)
}

// CycleEndDate derives the end date for a cycle beginning at startDate.
//   - specific_date: the working day before next month's pay day
//   - last_working_day: the last working day of the month containing the
//     start, or of the following month when the start falls after it
//   - every_4_weeks: 28 days from the start
func CycleEndDate(t model.PayCycleType, startDate string, payDay *int) (string, error) {
	start, err := time.Parse(DateLayout, startDate)
	if err != nil {
		return "", fmt.Errorf("invalid cycle start date %q", startDate)
	}

	switch {
	case t == model.PayCycleEvery4Weeks:
		return start.AddDate(0, 0, 27).Format(DateLayout), nil
	case t == model.PayCycleLastWorkingDay:
		sameMonth := lastWorkingDay(start.Year(), start.Month())
		if !sameMonth.Before(start) {
			return sameMonth.Format(DateLayout), nil
		}
		return lastWorkingDay(start.Year(), start.Month()+1).Format(DateLayout), nil
	case t == model.PayCycleSpecificDate && payDay != nil:
		nextPay := toWorkingDay(time.Date(start.Year(), start.Month()+1, *payDay, 0, 0, 0, 0, time.UTC))
		end := toWorkingDay(nextPay.AddDate(0, 0, -1))
		return end.Format(DateLayout), nil
	}

	// Fallback: day before the same day next month.
	return start.AddDate(0, 1, 0).AddDate(0, 0, -1).Format(DateLayout), nil
}

// NextCycleDates computes the start and end of the cycle that follows one
// ending on prevEndDate. The next cycle always starts the day after the
// previous one ends.
func NextCycleDates(prevEndDate string, t model.PayCycleType, payDay *int) (string, string, error) {
	prevEnd, err := time.Parse(DateLayout, prevEndDate)
	if err != nil {
		return "", "", fmt.Errorf("invalid previous cycle end date %q", prevEndDate)
	}
	startStr := prevEnd.AddDate(0, 0, 1).Format(DateLayout)
	endStr, err := CycleEndDate(t, startStr, payDay)
	if err != nil {
		return "", "", err
	}
	return startStr, endStr, nil
}
