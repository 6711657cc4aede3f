package analytics

import (
	"fmt"
	"slices"
	"time"

	"fintrack/internal/core"
)

// Locale supplies the short month names used in series labels.
type Locale struct {
	Months [12]string
}

var (
	// PortugueseBR renders labels like "dez/23".
	PortugueseBR = Locale{Months: [12]string{"jan", "fev", "mar", "abr", "mai", "jun", "jul", "ago", "set", "out", "nov", "dez"}}
	English      = Locale{Months: [12]string{"jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec"}}
)

// LocaleByName resolves a locale tag, falling back to PortugueseBR.
func LocaleByName(name string) Locale {
	switch name {
	case "en", "en-US", "en-GB":
		return English
	default:
		return PortugueseBR
	}
}

// Label formats a month as "mmm/yy".
func (l Locale) Label(t time.Time) string {
	return fmt.Sprintf("%s/%02d", l.Months[t.Month()-1], t.Year()%100)
}

// Monthly is a chart series with one entry per calendar month. The three
// slices are aligned.
type Monthly struct {
	Labels        []string     `json:"labels"`
	ExpenseTotals []core.Money `json:"expenseTotals"`
	IncomeTotals  []core.Money `json:"incomeTotals"`
}

type monthGroup struct {
	label    string
	earliest time.Time
	expense  int64
	income   int64
}

// MonthlySeries groups transactions by calendar month and year. Groups are
// ordered by the earliest timestamp seen in each, never by label text.
func MonthlySeries(txs []core.Transaction, loc Locale) Monthly {
	groups := make(map[int]*monthGroup)
	for _, tx := range txs {
		ts := tx.Date.UTC()
		key := ts.Year()*12 + int(ts.Month()) - 1
		g, ok := groups[key]
		if !ok {
			g = &monthGroup{label: loc.Label(ts), earliest: ts}
			groups[key] = g
		} else if ts.Before(g.earliest) {
			g.earliest = ts
		}
		switch tx.Type {
		case core.Expense:
			g.expense += tx.Amount.Cents
		case core.Income:
			g.income += tx.Amount.Cents
		}
	}

	ordered := make([]*monthGroup, 0, len(groups))
	for _, g := range groups {
		ordered = append(ordered, g)
	}
	slices.SortFunc(ordered, func(a, b *monthGroup) int {
		return a.earliest.Compare(b.earliest)
	})

	out := Monthly{
		Labels:        make([]string, len(ordered)),
		ExpenseTotals: make([]core.Money, len(ordered)),
		IncomeTotals:  make([]core.Money, len(ordered)),
	}
	for i, g := range ordered {
		out.Labels[i] = g.label
		out.ExpenseTotals[i] = core.Money{Cents: g.expense}
		out.IncomeTotals[i] = core.Money{Cents: g.income}
	}
	return out
}

// Len returns the number of months in the series.
func (m Monthly) Len() int {
	return len(m.Labels)
}
