package analytics

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"fintrack/internal/core"
)

// RecurringDue is a recurring transaction whose monthly occurrence has
// come due in the current month without being recorded yet.
type RecurringDue struct {
	Last    core.Transaction `json:"last"`
	DueDate core.Date        `json:"dueDate"`
}

type recurringSeries struct {
	first time.Time
	last  core.Transaction
}

// DueRecurring treats every transaction flagged recurring as monthly. A
// series is identified by type, description, category and account; it
// repeats on the day of month of its first occurrence, clamped to the
// length of shorter months. A series already recorded in now's month is
// not due.
func DueRecurring(txs []core.Transaction, now time.Time) []RecurringDue {
	series := make(map[string]*recurringSeries)
	for _, tx := range txs {
		if !tx.IsRecurring {
			continue
		}
		key := strings.Join([]string{
			string(tx.Type),
			strings.ToLower(strings.TrimSpace(tx.Description)),
			tx.CategoryID,
			tx.AccountID,
		}, "\x00")
		s, ok := series[key]
		if !ok {
			series[key] = &recurringSeries{first: tx.Date.Time, last: tx}
			continue
		}
		if tx.Date.Before(s.first) {
			s.first = tx.Date.Time
		}
		if tx.Date.After(s.last.Date.Time) {
			s.last = tx
		}
	}

	var out []RecurringDue
	for _, s := range series {
		last := s.last.Date
		if last.Year() == now.Year() && last.Month() == now.Month() {
			continue
		}
		if last.After(now) {
			continue
		}
		day := min(s.first.Day(), daysIn(now.Year(), now.Month()))
		if now.Day() < day {
			continue
		}
		out = append(out, RecurringDue{
			Last:    s.last,
			DueDate: core.NewDate(now.Year(), int(now.Month()), day),
		})
	}
	slices.SortFunc(out, func(a, b RecurringDue) int {
		if c := a.DueDate.Compare(b.DueDate.Time); c != 0 {
			return c
		}
		return cmp.Compare(a.Last.Description, b.Last.Description)
	})
	return out
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
