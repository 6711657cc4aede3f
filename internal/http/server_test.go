package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"fintrack/internal/analytics"
	"fintrack/internal/core"
	"fintrack/internal/finance"
)

type fakeGateway struct {
	mu         sync.Mutex
	accounts   []core.Account
	categories []core.Category
	tags       []core.Tag
	txs        []core.Transaction
	deleteErr  error
	listErr    error
	lastParams url.Values
	next       int
}

func (f *fakeGateway) newID(prefix string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	return fmt.Sprintf("%s%d", prefix, f.next)
}

func (f *fakeGateway) ListAccounts(context.Context) ([]core.Account, error) { return f.accounts, nil }
func (f *fakeGateway) CreateAccount(_ context.Context, in core.AccountInput) (core.Account, error) {
	return core.Account{ID: f.newID("a"), Name: in.Name, Type: in.Type}, nil
}
func (f *fakeGateway) UpdateAccount(_ context.Context, id string, in core.AccountInput) (core.Account, error) {
	return core.Account{ID: id, Name: in.Name, Type: in.Type}, nil
}
func (f *fakeGateway) DeleteAccount(context.Context, string) error { return f.deleteErr }
func (f *fakeGateway) ListCategories(context.Context) ([]core.Category, error) {
	return f.categories, nil
}
func (f *fakeGateway) CreateCategory(_ context.Context, in core.CategoryInput) (core.Category, error) {
	return core.Category{ID: f.newID("c"), Name: in.Name, Type: in.Type}, nil
}
func (f *fakeGateway) UpdateCategory(_ context.Context, id string, in core.CategoryInput) (core.Category, error) {
	return core.Category{ID: id, Name: in.Name, Type: in.Type}, nil
}
func (f *fakeGateway) DeleteCategory(context.Context, string) error { return f.deleteErr }
func (f *fakeGateway) ListTransactions(_ context.Context, params url.Values) ([]core.Transaction, error) {
	f.mu.Lock()
	f.lastParams = params
	f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	if params.Get("page") != "1" {
		return []core.Transaction{}, nil
	}
	return f.txs, nil
}
func (f *fakeGateway) CreateTransaction(_ context.Context, in core.TransactionInput) (core.Transaction, error) {
	tags := make([]core.Tag, 0, len(in.TagIDs))
	for _, id := range in.TagIDs {
		tags = append(tags, core.Tag{ID: id})
	}
	return core.Transaction{ID: f.newID("t"), Type: in.Type, Amount: in.Amount, Description: in.Description,
		Date: in.Date, CategoryID: in.CategoryID, AccountID: in.AccountID, Tags: tags}, nil
}
func (f *fakeGateway) UpdateTransaction(_ context.Context, id string, in core.TransactionInput) (core.Transaction, error) {
	return core.Transaction{ID: id, Type: in.Type, Amount: in.Amount, Description: in.Description,
		CategoryID: in.CategoryID, AccountID: in.AccountID}, nil
}
func (f *fakeGateway) DeleteTransaction(context.Context, string) error { return f.deleteErr }
func (f *fakeGateway) ListTags(context.Context) ([]core.Tag, error)    { return f.tags, nil }
func (f *fakeGateway) CreateTag(_ context.Context, name string) (core.Tag, error) {
	return core.Tag{ID: f.newID("g"), Name: name}, nil
}
func (f *fakeGateway) TransactionsByTag(_ context.Context, id string) ([]core.Transaction, error) {
	return []core.Transaction{{ID: "tagged-" + id}}, nil
}

func seededGateway() *fakeGateway {
	return &fakeGateway{
		accounts:   []core.Account{{ID: "a1", Name: "Wallet", Type: core.Cash}, {ID: "a2", Name: "Bank", Type: core.Saving}},
		categories: []core.Category{{ID: "c1", Name: "Food", Type: core.Expense}, {ID: "c2", Name: "Salary", Type: core.Income}},
		tags:       []core.Tag{{ID: "g1", Name: "Trip"}},
		txs: []core.Transaction{
			{ID: "t1", Type: core.Expense, Amount: core.Money{Cents: 2000}, Description: "Market", CategoryID: "c1", AccountID: "a1", Date: core.NewDate(2023, 12, 20)},
			{ID: "t2", Type: core.Income, Amount: core.Money{Cents: 500000}, Description: "Pay", CategoryID: "c2", AccountID: "a2", Date: core.NewDate(2024, 1, 5)},
			{ID: "t3", Type: core.Expense, Amount: core.Money{Cents: 1250}, Description: "Bus", CategoryID: "c1", AccountID: "a2", Date: core.NewDate(2024, 1, 7)},
		},
	}
}

func newTestServer(t *testing.T, gw *fakeGateway) *Server {
	t.Helper()
	fc := finance.New(gw)
	if err := fc.LoadInitial(context.Background()); err != nil {
		t.Fatalf("LoadInitial() error = %v", err)
	}
	srv := NewServer(":0", fc, Options{RequestsPerMinute: 1000})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr *bytes.Reader
	if body != "" {
		rdr = bytes.NewReader([]byte(body))
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.RemoteAddr = "192.0.2.1:1234"
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, seededGateway())
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := do(t, srv, http.MethodGet, path, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}

	notReady := NewServer(":0", finance.New(seededGateway()), Options{Ready: func() bool { return false }})
	defer notReady.Shutdown(context.Background())
	if rr := do(t, notReady, http.MethodGet, "/readyz", ""); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz status=%d, want 503", rr.Code)
	}
}

func TestSecurityHeadersAndRequestID(t *testing.T) {
	srv := newTestServer(t, seededGateway())
	rr := do(t, srv, http.MethodGet, "/api/state", "")
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing nosniff header")
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("missing request id")
	}
	snap := decode[finance.Snapshot](t, rr)
	if len(snap.Transactions) != 3 || len(snap.Accounts) != 2 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestListTransactionsSearch(t *testing.T) {
	srv := newTestServer(t, seededGateway())

	tests := []struct {
		query string
		want  int
	}{
		{"", 3},
		{"food", 2},
		{"BANK", 2},
		{"20", 1},
		{"nothing", 0},
	}
	for _, tt := range tests {
		rr := do(t, srv, http.MethodGet, "/api/transactions?q="+url.QueryEscape(tt.query), "")
		body := decode[transactionsBody](t, rr)
		if len(body.Transactions) != tt.want {
			t.Errorf("q=%q: got %d transactions, want %d", tt.query, len(body.Transactions), tt.want)
		}
	}
}

func TestCreateTransaction(t *testing.T) {
	srv := newTestServer(t, seededGateway())

	rr := do(t, srv, http.MethodPost, "/api/transactions",
		`{"type":"EXPENSE","amount":"12,50","description":"Lunch","date":"2024-02-01","categoryId":"c1","accountId":"a1","tagNames":[" trip","Work"]}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	tx := decode[core.Transaction](t, rr)
	if tx.Amount.Cents != 1250 {
		t.Errorf("amount = %d cents, want 1250", tx.Amount.Cents)
	}
	if len(tx.Tags) != 2 || tx.Tags[0].ID != "g1" {
		t.Errorf("tags = %+v, want existing g1 reused plus one new", tx.Tags)
	}

	state := decode[finance.Snapshot](t, do(t, srv, http.MethodGet, "/api/state", ""))
	if state.Transactions[0].ID != tx.ID {
		t.Errorf("new transaction not prepended")
	}
}

func TestCreateTransactionErrors(t *testing.T) {
	srv := newTestServer(t, seededGateway())

	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed", `{"type":`, http.StatusBadRequest},
		{"unknown field", `{"bogus":1}`, http.StatusBadRequest},
		{"missing amount", `{"type":"EXPENSE","categoryId":"c1","accountId":"a1"}`, http.StatusUnprocessableEntity},
		{"category mismatch", `{"type":"EXPENSE","amount":5,"categoryId":"c2","accountId":"a1"}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv, http.MethodPost, "/api/transactions", tt.body)
			if rr.Code != tt.want {
				t.Fatalf("status=%d want %d body=%s", rr.Code, tt.want, rr.Body.String())
			}
		})
	}
}

func TestDeleteReferencedCategory(t *testing.T) {
	gw := seededGateway()
	gw.deleteErr = fmt.Errorf("status 409: %w", core.ErrReferentialIntegrity)
	srv := newTestServer(t, gw)

	rr := do(t, srv, http.MethodDelete, "/api/categories/c1", "")
	if rr.Code != http.StatusConflict {
		t.Fatalf("status=%d want 409", rr.Code)
	}
	body := decode[errorBody](t, rr)
	if !strings.Contains(body.Error, "in use") {
		t.Errorf("error message = %q", body.Error)
	}
}

func TestFiltersResetWindow(t *testing.T) {
	gw := seededGateway()
	srv := newTestServer(t, gw)

	rr := do(t, srv, http.MethodPut, "/api/filters", `{"type":"INCOME","startDate":"2024-01-01"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	if gw.lastParams.Get("type") != "INCOME" || gw.lastParams.Get("startDate") != "2024-01-01" || gw.lastParams.Get("page") != "1" {
		t.Errorf("unexpected params: %v", gw.lastParams)
	}

	rr = do(t, srv, http.MethodDelete, "/api/filters", "")
	body := decode[transactionsBody](t, rr)
	if !body.Filters.IsEmpty() {
		t.Errorf("filters not cleared: %+v", body.Filters)
	}

	if rr := do(t, srv, http.MethodPut, "/api/filters", `{"type":"TRANSFER"}`); rr.Code != http.StatusBadRequest {
		t.Errorf("invalid type status=%d", rr.Code)
	}
}

func TestLoadMoreTransientFailure(t *testing.T) {
	gw := seededGateway()
	srv := newTestServer(t, gw)
	gw.listErr = fmt.Errorf("dial: %w", core.ErrTransientNetwork)

	rr := do(t, srv, http.MethodPost, "/api/transactions/reload", "")
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status=%d want 502", rr.Code)
	}
}

func TestAnalyticsEndpoints(t *testing.T) {
	srv := newTestServer(t, seededGateway())

	top := decode[[]analytics.Ranked](t, do(t, srv, http.MethodGet, "/api/analytics/top-accounts?type=expense", ""))
	if len(top) != 2 || top[0].ID != "a1" {
		t.Errorf("top accounts = %+v", top)
	}

	monthly := decode[monthlyBody](t, do(t, srv, http.MethodGet, "/api/analytics/monthly", ""))
	if len(monthly.Labels) != 2 || monthly.Labels[0] != "dez/23" || monthly.Labels[1] != "jan/24" {
		t.Errorf("labels = %v", monthly.Labels)
	}

	summary := decode[analytics.Summary](t, do(t, srv, http.MethodGet, "/api/analytics/summary", ""))
	if summary.Expense.Cents != 3250 || summary.Income.Cents != 500000 {
		t.Errorf("summary = %+v", summary)
	}

	if rr := do(t, srv, http.MethodGet, "/api/analytics/top-categories?n=abc", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("bad n status=%d", rr.Code)
	}
}

func TestAnalyticsMemoisedPerVersion(t *testing.T) {
	srv := newTestServer(t, seededGateway())

	do(t, srv, http.MethodGet, "/api/analytics/summary", "")
	do(t, srv, http.MethodGet, "/api/analytics/summary", "")
	if hits := srv.analyticsCache.Stats().Hits; hits != 1 {
		t.Fatalf("hits = %d, want 1", hits)
	}

	do(t, srv, http.MethodPost, "/api/transactions",
		`{"type":"EXPENSE","amount":1,"categoryId":"c1","accountId":"a1"}`)
	summary := decode[analytics.Summary](t, do(t, srv, http.MethodGet, "/api/analytics/summary", ""))
	if summary.Count != 4 {
		t.Errorf("summary after mutation = %+v, want fresh count 4", summary)
	}
}

func TestRateLimitOnMutations(t *testing.T) {
	fc := finance.New(seededGateway())
	srv := NewServer(":0", fc, Options{RequestsPerMinute: 2})
	defer srv.Shutdown(context.Background())

	for i := 0; i < 2; i++ {
		do(t, srv, http.MethodPost, "/api/tags", `{"name":"x"}`)
	}
	rr := do(t, srv, http.MethodPost, "/api/tags", `{"name":"x"}`)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("status=%d want 429", rr.Code)
	}
	if rr := do(t, srv, http.MethodGet, "/api/tags", ""); rr.Code != http.StatusOK {
		t.Fatalf("reads must not be limited, status=%d", rr.Code)
	}
}

func TestTransactionsByTag(t *testing.T) {
	srv := newTestServer(t, seededGateway())
	txs := decode[[]core.Transaction](t, do(t, srv, http.MethodGet, "/api/tags/g1/transactions", ""))
	if len(txs) != 1 || txs[0].ID != "tagged-g1" {
		t.Errorf("txs = %+v", txs)
	}
}

func TestRecurringDue(t *testing.T) {
	gw := seededGateway()
	gw.txs[1].IsRecurring = true
	srv := newTestServer(t, gw)
	srv.now = func() time.Time { return time.Date(2024, 2, 6, 10, 0, 0, 0, time.UTC) }

	due := decode[[]analytics.RecurringDue](t, do(t, srv, http.MethodGet, "/api/analytics/recurring-due", ""))
	if len(due) != 1 || due[0].Last.ID != "t2" || due[0].DueDate.ISODate() != "2024-02-05" {
		t.Fatalf("due = %+v", due)
	}

	srv.now = func() time.Time { return time.Date(2024, 2, 4, 10, 0, 0, 0, time.UTC) }
	due = decode[[]analytics.RecurringDue](t, do(t, srv, http.MethodGet, "/api/analytics/recurring-due", ""))
	if len(due) != 0 {
		t.Fatalf("expected nothing due before the 5th, got %+v", due)
	}
}
