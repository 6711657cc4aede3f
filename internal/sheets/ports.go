package sheets

import (
	"context"

	"fintrack/internal/analytics"
)

// Ports for outbound adapters.
type (
	// AnalyticsWriter exports derived analytics to a spreadsheet-like
	// target. Each call replaces what a previous call with the same
	// target wrote.
	AnalyticsWriter interface {
		// WriteMonthly writes one row per month: label, expense, income.
		WriteMonthly(ctx context.Context, m analytics.Monthly) error
		// WriteRanking writes a top-N table under the given title.
		WriteRanking(ctx context.Context, title string, ranked []analytics.Ranked) error
	}
)

// Header rows shared by every adapter.
var (
	MonthlyHeader = []string{"Month", "Expense", "Income"}
	RankingHeader = []string{"Name", "Total"}
)
