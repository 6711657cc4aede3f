package finance

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/query"
)

// LoadInitial populates every collection. Accounts and categories load
// concurrently and both run to completion even if one fails; tags and the
// first transaction page follow. A failure leaves the affected collection
// as it was; all failures are returned joined.
func (c *FinanceCache) LoadInitial(ctx context.Context) error {
	done := c.begin()
	defer done()

	var (
		g       errgroup.Group
		accErr  error
		catErr  error
		tagErr  error
		pageErr error
	)
	g.Go(func() error {
		accErr = c.LoadAccounts(ctx)
		return nil
	})
	g.Go(func() error {
		catErr = c.LoadCategories(ctx)
		return nil
	})
	_ = g.Wait()

	tagErr = c.LoadTags(ctx)
	pageErr = c.LoadTransactions(ctx, true)

	err := errors.Join(accErr, catErr, tagErr, pageErr)
	if err != nil {
		c.logger.WarnContext(ctx, "Initial load incomplete", log.FieldOperation, log.OpLoad, log.FieldError, err)
		return err
	}
	c.logger.InfoContext(ctx, "Initial load complete", log.FieldOperation, log.OpLoad)
	return nil
}

// LoadAccounts replaces the account list.
func (c *FinanceCache) LoadAccounts(ctx context.Context) error {
	done := c.begin()
	defer done()

	accounts, err := c.gw.ListAccounts(ctx)
	if err != nil {
		return c.fail(ctx, log.OpList, "account", fmt.Errorf("load accounts: %w", err))
	}
	c.mutate(func() { c.accounts = nonNil(accounts) })
	return nil
}

// LoadCategories replaces the category list.
func (c *FinanceCache) LoadCategories(ctx context.Context) error {
	done := c.begin()
	defer done()

	categories, err := c.gw.ListCategories(ctx)
	if err != nil {
		return c.fail(ctx, log.OpList, "category", fmt.Errorf("load categories: %w", err))
	}
	c.mutate(func() { c.categories = nonNil(categories) })
	return nil
}

// LoadTags replaces the tag list.
func (c *FinanceCache) LoadTags(ctx context.Context) error {
	done := c.begin()
	defer done()

	tags, err := c.gw.ListTags(ctx)
	if err != nil {
		return c.fail(ctx, log.OpList, "tag", fmt.Errorf("load tags: %w", err))
	}
	c.mutate(func() { c.tags = nonNil(tags) })
	return nil
}

// LoadTransactions fetches the next page of the window, or page 1 when
// reset is set. Once a short page has been seen, a non-reset call returns
// immediately without touching the network.
//
// Every fetch takes a generation token. A reset supersedes whatever is in
// flight: a response whose token is no longer current is dropped and the
// call returns nil. A non-reset call made while another fetch is pending
// is a no-op, so "load more" never appends the same page twice.
func (c *FinanceCache) LoadTransactions(ctx context.Context, reset bool) error {
	_, err := c.fetchPage(ctx, reset)
	return err
}

// fetchPage does the work of LoadTransactions. When the call is skipped
// because another fetch is pending, it returns a channel closed once no
// fetch is in flight.
func (c *FinanceCache) fetchPage(ctx context.Context, reset bool) (<-chan struct{}, error) {
	c.mu.Lock()
	state, fetch := query.Begin(c.pagination, reset)
	var pending <-chan struct{}
	if fetch && !reset && c.fetching > 0 {
		fetch = false
		pending = c.idle
	}
	if !fetch {
		c.mu.Unlock()
		c.logger.DebugContext(ctx, "Transaction fetch skipped",
			log.FieldPage, state.Page, log.FieldHasMore, state.HasMore)
		return pending, nil
	}
	c.fetchGen++
	gen := c.fetchGen
	if c.fetching == 0 {
		c.idle = make(chan struct{})
	}
	c.fetching++
	prev := c.pagination
	c.pagination = state
	params := c.filters.Params(state.Page, state.PageSize)
	c.inFlight++
	c.version++
	c.mu.Unlock()

	page, err := c.gw.ListTransactions(ctx, params)

	c.mu.Lock()
	c.fetching--
	if c.fetching == 0 {
		close(c.idle)
		c.idle = nil
	}
	c.inFlight--
	c.version++
	if err != nil {
		// The window was not touched, so the cursor goes back to match it.
		if gen == c.fetchGen {
			c.pagination = prev
		}
		c.mu.Unlock()
		return nil, c.fail(ctx, log.OpList, "transaction", fmt.Errorf("load transactions page %d: %w", state.Page, err))
	}
	if gen != c.fetchGen {
		c.mu.Unlock()
		c.logger.DebugContext(ctx, "Dropped superseded transaction page", log.FieldPage, state.Page)
		return nil, nil
	}
	c.transactions = query.Merge(c.transactions, page, reset)
	c.pagination = query.Advance(state, reset, len(page))
	next := c.pagination
	c.mu.Unlock()

	c.logger.DebugContext(ctx, "Loaded transaction page",
		log.NewFields().WithOperation(log.OpList).WithPage(state.Page, state.PageSize, len(page), next.HasMore, reset).ToSlice()...)
	return nil, nil
}

// LoadAll reloads from page 1 and keeps fetching until the backend runs
// out of pages. maxPages bounds the walk; zero means no bound. While
// another fetch is pending the walk waits for it instead of retrying.
func (c *FinanceCache) LoadAll(ctx context.Context, maxPages int) error {
	if err := c.LoadTransactions(ctx, true); err != nil {
		return err
	}
	for fetched := 1; maxPages <= 0 || fetched < maxPages; {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.mu.RLock()
		more := c.pagination.HasMore
		c.mu.RUnlock()
		if !more {
			return nil
		}
		pending, err := c.fetchPage(ctx, false)
		if err != nil {
			return err
		}
		if pending != nil {
			select {
			case <-pending:
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}
		fetched++
	}
	return nil
}

// UpdateFilters merges the patch into the active filters and always
// reloads from page 1, even if nothing changed.
func (c *FinanceCache) UpdateFilters(ctx context.Context, patch core.FilterPatch) error {
	c.mutate(func() { c.filters = c.filters.Merge(patch) })
	c.logger.DebugContext(ctx, "Filters updated", log.FieldOperation, log.OpFilter)
	return c.LoadTransactions(ctx, true)
}

// ClearFilters drops every filter and reloads from page 1.
func (c *FinanceCache) ClearFilters(ctx context.Context) error {
	c.mutate(func() { c.filters = core.FilterSet{} })
	return c.LoadTransactions(ctx, true)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
