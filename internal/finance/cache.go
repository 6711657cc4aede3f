// Package finance holds the client-side cache of the signed-in user's
// accounts, categories, tags and the paginated transaction window.
//
// FinanceCache is the single point of mutation for that state. Every write
// goes through the backend first and is applied locally only after the
// backend confirms it. Appended, prepended and replaced items are
// provisional: no sort order is maintained until the next full reload.
package finance

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/query"
)

// Snapshot is an immutable copy of the cache state.
type Snapshot struct {
	Accounts     []core.Account       `json:"accounts"`
	Categories   []core.Category      `json:"categories"`
	Tags         []core.Tag           `json:"tags"`
	Transactions []core.Transaction   `json:"transactions"`
	Filters      core.FilterSet       `json:"filters"`
	Pagination   core.PaginationState `json:"pagination"`
	Loading      bool                 `json:"loading"`
	Version      uint64               `json:"version"`
}

// Index builds the id lookup over the snapshot's reference collections.
func (s Snapshot) Index() query.Index {
	return query.NewIndex(s.Categories, s.Accounts, s.Tags)
}

// Visible narrows this snapshot's window by the free-text search.
func (s Snapshot) Visible(q string) []core.Transaction {
	return query.FilterBySearch(s.Transactions, q, s.Index())
}

// Option configures a FinanceCache
type Option func(*FinanceCache)

// WithLogger sets the logger
func WithLogger(logger *log.Logger) Option {
	return func(c *FinanceCache) {
		c.logger = logger.WithComponent(log.ComponentFinance)
	}
}

// WithPageSize sets the transaction page size
func WithPageSize(size int) Option {
	return func(c *FinanceCache) {
		c.pagination = core.NewPagination(size)
	}
}

// WithPublisher publishes every confirmed mutation
func WithPublisher(p EventPublisher) Option {
	return func(c *FinanceCache) {
		c.publisher = p
	}
}

// WithOnUnauthorized registers a hook run whenever the backend rejects the
// session.
func WithOnUnauthorized(fn func(context.Context)) Option {
	return func(c *FinanceCache) {
		c.onUnauthorized = fn
	}
}

type FinanceCache struct {
	gw             Gateway
	logger         *log.Logger
	publisher      EventPublisher
	onUnauthorized func(context.Context)

	mu           sync.RWMutex
	accounts     []core.Account
	categories   []core.Category
	tags         []core.Tag
	transactions []core.Transaction
	filters      core.FilterSet
	pagination   core.PaginationState
	inFlight     int
	fetching     int
	fetchGen     uint64
	idle         chan struct{}
	version      uint64

	// Serialises EnsureTag so two concurrent calls for the same name
	// cannot both create it.
	tagMu sync.Mutex
}

// New creates an empty cache over the gateway.
func New(gw Gateway, opts ...Option) *FinanceCache {
	c := &FinanceCache{
		gw:         gw,
		logger:     log.NewSilent(),
		pagination: core.NewPagination(core.DefaultPageSize),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns a copy of the current state.
func (c *FinanceCache) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{
		Accounts:     slices.Clone(c.accounts),
		Categories:   slices.Clone(c.categories),
		Tags:         slices.Clone(c.tags),
		Transactions: slices.Clone(c.transactions),
		Filters:      c.filters.Clone(),
		Pagination:   c.pagination,
		Loading:      c.inFlight > 0,
		Version:      c.version,
	}
}

// Version increases on every state change.
func (c *FinanceCache) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// Loading reports whether any network-bound operation is in flight.
func (c *FinanceCache) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.inFlight > 0
}

// Filters returns the active filter set.
func (c *FinanceCache) Filters() core.FilterSet {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.filters.Clone()
}

// Visible applies the free-text search over the cached window.
func (c *FinanceCache) Visible(q string) []core.Transaction {
	return c.Snapshot().Visible(q)
}

// begin marks a network-bound operation; the returned func ends it.
func (c *FinanceCache) begin() func() {
	c.mu.Lock()
	c.inFlight++
	c.version++
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		c.inFlight--
		c.version++
		c.mu.Unlock()
	}
}

// mutate applies fn under the write lock and bumps the version.
func (c *FinanceCache) mutate(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn()
	c.version++
}

// fail runs the unauthorized hook when needed and returns err unchanged.
func (c *FinanceCache) fail(ctx context.Context, op, entity string, err error) error {
	if errors.Is(err, core.ErrAuthentication) && c.onUnauthorized != nil {
		c.onUnauthorized(ctx)
	}
	level := c.logger.WarnContext
	if errors.Is(err, core.ErrValidation) {
		level = c.logger.DebugContext
	}
	level(ctx, "Finance operation failed",
		log.NewFields().WithOperation(op).WithEntity(entity, "").WithError(err).ToSlice()...)
	return err
}

func (c *FinanceCache) publish(ctx context.Context, kind, id string) {
	if c.publisher == nil {
		return
	}
	if err := c.publisher.PublishEvent(ctx, amqp.NewEvent(kind, id)); err != nil {
		c.logger.WarnContext(ctx, "Failed to publish event", "kind", kind, log.FieldEntityID, id, log.FieldError, err)
	}
}

func sameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
