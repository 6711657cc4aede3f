package finance

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"sync"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
)

// fakeGateway serves canned collections. Transaction pages are produced by
// pageFn so tests can shape the pagination sequence.
type fakeGateway struct {
	mu sync.Mutex

	accounts   []core.Account
	categories []core.Category
	tags       []core.Tag

	pageFn     func(params url.Values) ([]core.Transaction, error)
	pageCalls  []url.Values
	tagCreates int
	nextID     int

	errs map[string]error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{errs: map[string]error{}}
}

func (f *fakeGateway) err(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errs[op]
}

func (f *fakeGateway) id(prefix string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	return prefix + strconv.Itoa(f.nextID)
}

func (f *fakeGateway) ListAccounts(ctx context.Context) ([]core.Account, error) {
	if err := f.err("ListAccounts"); err != nil {
		return nil, err
	}
	return f.accounts, nil
}

func (f *fakeGateway) CreateAccount(ctx context.Context, in core.AccountInput) (core.Account, error) {
	if err := f.err("CreateAccount"); err != nil {
		return core.Account{}, err
	}
	return core.Account{ID: f.id("a"), Name: in.Name, Type: in.Type, Balance: in.Balance}, nil
}

func (f *fakeGateway) UpdateAccount(ctx context.Context, id string, in core.AccountInput) (core.Account, error) {
	if err := f.err("UpdateAccount"); err != nil {
		return core.Account{}, err
	}
	return core.Account{ID: id, Name: in.Name, Type: in.Type, Balance: in.Balance}, nil
}

func (f *fakeGateway) DeleteAccount(ctx context.Context, id string) error {
	return f.err("DeleteAccount")
}

func (f *fakeGateway) ListCategories(ctx context.Context) ([]core.Category, error) {
	if err := f.err("ListCategories"); err != nil {
		return nil, err
	}
	return f.categories, nil
}

func (f *fakeGateway) CreateCategory(ctx context.Context, in core.CategoryInput) (core.Category, error) {
	if err := f.err("CreateCategory"); err != nil {
		return core.Category{}, err
	}
	return core.Category{ID: f.id("c"), Name: in.Name, Type: in.Type}, nil
}

func (f *fakeGateway) UpdateCategory(ctx context.Context, id string, in core.CategoryInput) (core.Category, error) {
	if err := f.err("UpdateCategory"); err != nil {
		return core.Category{}, err
	}
	return core.Category{ID: id, Name: in.Name, Type: in.Type}, nil
}

func (f *fakeGateway) DeleteCategory(ctx context.Context, id string) error {
	return f.err("DeleteCategory")
}

func (f *fakeGateway) ListTransactions(ctx context.Context, params url.Values) ([]core.Transaction, error) {
	f.mu.Lock()
	f.pageCalls = append(f.pageCalls, params)
	fn := f.pageFn
	f.mu.Unlock()
	if err := f.err("ListTransactions"); err != nil {
		return nil, err
	}
	if fn == nil {
		return []core.Transaction{}, nil
	}
	return fn(params)
}

func (f *fakeGateway) CreateTransaction(ctx context.Context, in core.TransactionInput) (core.Transaction, error) {
	if err := f.err("CreateTransaction"); err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		ID: f.id("t"), Type: in.Type, Amount: in.Amount, Description: in.Description,
		Date: in.Date, CategoryID: in.CategoryID, AccountID: in.AccountID,
	}, nil
}

func (f *fakeGateway) UpdateTransaction(ctx context.Context, id string, in core.TransactionInput) (core.Transaction, error) {
	if err := f.err("UpdateTransaction"); err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{ID: id, Type: in.Type, Amount: in.Amount, Description: in.Description,
		CategoryID: in.CategoryID, AccountID: in.AccountID}, nil
}

func (f *fakeGateway) DeleteTransaction(ctx context.Context, id string) error {
	return f.err("DeleteTransaction")
}

func (f *fakeGateway) ListTags(ctx context.Context) ([]core.Tag, error) {
	if err := f.err("ListTags"); err != nil {
		return nil, err
	}
	return f.tags, nil
}

func (f *fakeGateway) CreateTag(ctx context.Context, name string) (core.Tag, error) {
	if err := f.err("CreateTag"); err != nil {
		return core.Tag{}, err
	}
	f.mu.Lock()
	f.tagCreates++
	f.mu.Unlock()
	return core.Tag{ID: f.id("tag"), Name: name}, nil
}

func (f *fakeGateway) TransactionsByTag(ctx context.Context, id string) ([]core.Transaction, error) {
	if err := f.err("TransactionsByTag"); err != nil {
		return nil, err
	}
	return []core.Transaction{{ID: "t-" + id}}, nil
}

func (f *fakeGateway) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pageCalls)
}

// sizedPages returns pages of the given sizes in order, then empty pages.
func sizedPages(sizes ...int) func(url.Values) ([]core.Transaction, error) {
	return func(params url.Values) ([]core.Transaction, error) {
		page, _ := strconv.Atoi(params.Get("page"))
		if page < 1 || page > len(sizes) {
			return []core.Transaction{}, nil
		}
		out := make([]core.Transaction, sizes[page-1])
		for i := range out {
			out[i] = core.Transaction{ID: fmt.Sprintf("p%d-%d", page, i), Type: core.Expense, Amount: core.Money{Cents: 100}}
		}
		return out, nil
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []amqp.Event
	err    error
}

func (p *recordingPublisher) PublishEvent(ctx context.Context, e amqp.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) kinds() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Kind
	}
	return out
}
