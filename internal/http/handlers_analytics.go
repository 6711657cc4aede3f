package http

import (
	"fmt"
	"net/http"

	"fintrack/internal/analytics"
	"fintrack/internal/finance"
)

type monthlyBody struct {
	analytics.Monthly
	Projection analytics.Projection `json:"projection"`
}

// memo caches a derived view for the current cache version. Any mutation
// bumps the version, so stale entries are simply never hit again.
func (s *Server) memo(key string, compute func(finance.Snapshot) any) any {
	snap := s.fc.Snapshot()
	v, _ := s.analyticsCache.GetOrCompute(fmt.Sprintf("%s@%d", key, snap.Version), func() (any, error) {
		return compute(snap), nil
	})
	return v
}

func (s *Server) handleTopCategories(w http.ResponseWriter, r *http.Request) {
	t, err := parseTransactionType(r)
	if err != nil {
		BadRequest(r, err.Error()).Write(w)
		return
	}
	n, err := parseTopN(r)
	if err != nil {
		BadRequest(r, err.Error()).Write(w)
		return
	}
	out := s.memo(fmt.Sprintf("top-categories:%s:%d", t, n), func(snap finance.Snapshot) any {
		return analytics.TopCategoriesByTotal(snap.Transactions, snap.Categories, t, n)
	})
	NewJSONResponse().Body(out).Write(w)
}

func (s *Server) handleTopAccounts(w http.ResponseWriter, r *http.Request) {
	t, err := parseTransactionType(r)
	if err != nil {
		BadRequest(r, err.Error()).Write(w)
		return
	}
	n, err := parseTopN(r)
	if err != nil {
		BadRequest(r, err.Error()).Write(w)
		return
	}
	out := s.memo(fmt.Sprintf("top-accounts:%s:%d", t, n), func(snap finance.Snapshot) any {
		return analytics.TopAccountsByTotal(snap.Transactions, snap.Accounts, t, n)
	})
	NewJSONResponse().Body(out).Write(w)
}

func (s *Server) handleMonthly(w http.ResponseWriter, r *http.Request) {
	locale := s.locale
	if name := r.URL.Query().Get("locale"); name != "" {
		locale = analytics.LocaleByName(name)
	}
	out := s.memo("monthly:"+locale.Months[1], func(snap finance.Snapshot) any {
		m := analytics.MonthlySeries(snap.Transactions, locale)
		return monthlyBody{Monthly: m, Projection: analytics.Project(m)}
	})
	NewJSONResponse().Body(out).Write(w)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	out := s.memo("summary", func(snap finance.Snapshot) any {
		return analytics.Totals(snap.Transactions)
	})
	NewJSONResponse().Body(out).Write(w)
}

func (s *Server) handleRecurringDue(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	out := s.memo("recurring-due:"+now.Format("2006-01-02"), func(snap finance.Snapshot) any {
		return nonNilDue(analytics.DueRecurring(snap.Transactions, now))
	})
	NewJSONResponse().Body(out).Write(w)
}

func nonNilDue(d []analytics.RecurringDue) []analytics.RecurringDue {
	if d == nil {
		return []analytics.RecurringDue{}
	}
	return d
}
