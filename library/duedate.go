package library

import (
	"fmt"
	"time"
)

// DefaultLoanDays is the loan period used when none is configured.
const DefaultLoanDays = 14

// DueDate returns the date a loan starting on borrowed is due back.
func DueDate(borrowed time.Time, loanDays int) time.Time {
	return civilDate(borrowed).AddDate(0, 0, loanDays)
}

// DaysRemaining describes how long is left until due, as seen on today.
// An empty due date yields "N/A"; a due date that is not yyyy-MM-dd is
// returned unchanged.
func DaysRemaining(due string, today time.Time) string {
	if due == "" {
		return "N/A"
	}
	dueDate, err := time.Parse(DateLayout, due)
	if err != nil {
		return due
	}

	diff := daysBetween(civilDate(today), dueDate)
	switch {
	case diff < 0:
		return fmt.Sprintf("OVERDUE (%d days)", -diff)
	case diff == 0:
		return "DUE TODAY"
	default:
		return fmt.Sprintf("%d days left", diff)
	}
}

// civilDate drops the time of day and location, keeping the calendar date.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween counts whole days from a to b. Both must be UTC midnights.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
