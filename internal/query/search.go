// Package query derives the visible transaction slice from the cached window.
//
// Structural filters (dates, category, account, type, tag sets) are applied
// by the server through request parameters. Only free-text search runs here,
// on top of the already-loaded page.
package query

import (
	"strings"

	"fintrack/internal/core"
)

// NormalizeQuery lower-cases and trims a search string.
func NormalizeQuery(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}

// MatchesSearch reports whether the transaction matches the query on its
// description, its category name, its account name or its amount. An empty
// query matches everything. A nil category or account is a non-matching
// dimension, never a failure.
func MatchesSearch(tx core.Transaction, query string, category *core.Category, account *core.Account) bool {
	q := NormalizeQuery(query)
	if q == "" {
		return true
	}
	return matches(tx, q, category, account)
}

func matches(tx core.Transaction, q string, category *core.Category, account *core.Account) bool {
	if strings.Contains(strings.ToLower(tx.Description), q) {
		return true
	}
	if category != nil && strings.Contains(strings.ToLower(category.Name), q) {
		return true
	}
	if account != nil && strings.Contains(strings.ToLower(account.Name), q) {
		return true
	}
	return strings.Contains(tx.Amount.Plain(), q)
}

// FilterBySearch keeps the transactions matching query, preserving order.
// An empty query returns the input unchanged.
func FilterBySearch(txs []core.Transaction, query string, idx Index) []core.Transaction {
	q := NormalizeQuery(query)
	if q == "" {
		return txs
	}
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if matches(tx, q, idx.Category(tx.CategoryID), idx.Account(tx.AccountID)) {
			out = append(out, tx)
		}
	}
	return out
}
