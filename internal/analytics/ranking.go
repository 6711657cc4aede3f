// Package analytics produces chart-ready series from a cached transaction
// set. Everything here is pure: no network, no shared state.
//
// Amounts are summed as integer minor units. Expense and income are kept in
// separate series and never netted.
package analytics

import (
	"slices"

	"fintrack/internal/core"
)

// DefaultTopN is the ranking length used when callers pass n <= 0.
const DefaultTopN = 5

// Ranked is one entry of a top-N ranking.
type Ranked struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Total core.Money `json:"total"`
}

// TopCategoriesByTotal sums the amounts of transactions of type t per
// category, drops zero totals, sorts descending and keeps n entries. Ties
// keep the order of categories.
func TopCategoriesByTotal(txs []core.Transaction, categories []core.Category, t core.TransactionType, n int) []Ranked {
	refs := make([]Ranked, len(categories))
	for i, c := range categories {
		refs[i] = Ranked{ID: c.ID, Name: c.Name}
	}
	return rank(txs, refs, t, n, func(tx core.Transaction) string { return tx.CategoryID })
}

// TopAccountsByTotal is TopCategoriesByTotal grouped by account.
func TopAccountsByTotal(txs []core.Transaction, accounts []core.Account, t core.TransactionType, n int) []Ranked {
	refs := make([]Ranked, len(accounts))
	for i, a := range accounts {
		refs[i] = Ranked{ID: a.ID, Name: a.Name}
	}
	return rank(txs, refs, t, n, func(tx core.Transaction) string { return tx.AccountID })
}

func rank(txs []core.Transaction, refs []Ranked, t core.TransactionType, n int, key func(core.Transaction) string) []Ranked {
	if n <= 0 {
		n = DefaultTopN
	}
	if len(txs) == 0 || len(refs) == 0 {
		return []Ranked{}
	}

	sums := make(map[string]int64, len(refs))
	for _, tx := range txs {
		if tx.Type != t {
			continue
		}
		sums[key(tx)] += tx.Amount.Cents
	}

	out := make([]Ranked, 0, len(refs))
	for _, r := range refs {
		total := sums[r.ID]
		if total == 0 {
			continue
		}
		r.Total = core.Money{Cents: total}
		out = append(out, r)
	}

	slices.SortStableFunc(out, func(a, b Ranked) int {
		switch {
		case a.Total.Cents > b.Total.Cents:
			return -1
		case a.Total.Cents < b.Total.Cents:
			return 1
		default:
			return 0
		}
	})

	if len(out) > n {
		out = out[:n]
	}
	return out
}

// Summary holds the expense and income totals of a transaction set.
type Summary struct {
	Expense core.Money `json:"expense"`
	Income  core.Money `json:"income"`
	Count   int        `json:"count"`
}

// Totals sums expense and income separately.
func Totals(txs []core.Transaction) Summary {
	var s Summary
	for _, tx := range txs {
		switch tx.Type {
		case core.Expense:
			s.Expense = s.Expense.Add(tx.Amount)
		case core.Income:
			s.Income = s.Income.Add(tx.Amount)
		default:
			continue
		}
		s.Count++
	}
	return s
}
