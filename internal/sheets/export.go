package sheets

import (
	"context"
	"fmt"

	"fintrack/internal/analytics"
	"fintrack/internal/core"
)

// Titles of the ranking tables written by Export.
const (
	TopExpenseCategories = "Top expense categories"
	TopIncomeCategories  = "Top income categories"
	TopExpenseAccounts   = "Top expense accounts"
)

// Dataset is the state an export is computed from.
type Dataset struct {
	Transactions []core.Transaction
	Categories   []core.Category
	Accounts     []core.Account
}

// Export writes the monthly series and the top-N tables. It stops at the
// first failed write.
func Export(ctx context.Context, w AnalyticsWriter, ds Dataset, loc analytics.Locale, topN int) error {
	if err := w.WriteMonthly(ctx, analytics.MonthlySeries(ds.Transactions, loc)); err != nil {
		return fmt.Errorf("write monthly series: %w", err)
	}

	rankings := []struct {
		title  string
		ranked []analytics.Ranked
	}{
		{TopExpenseCategories, analytics.TopCategoriesByTotal(ds.Transactions, ds.Categories, core.Expense, topN)},
		{TopIncomeCategories, analytics.TopCategoriesByTotal(ds.Transactions, ds.Categories, core.Income, topN)},
		{TopExpenseAccounts, analytics.TopAccountsByTotal(ds.Transactions, ds.Accounts, core.Expense, topN)},
	}
	for _, r := range rankings {
		if err := w.WriteRanking(ctx, r.title, r.ranked); err != nil {
			return fmt.Errorf("write %s: %w", r.title, err)
		}
	}
	return nil
}
