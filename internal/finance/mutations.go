package finance

import (
	"context"
	"fmt"
	"slices"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

// AddAccount creates the account and appends it once confirmed.
func (c *FinanceCache) AddAccount(ctx context.Context, in core.AccountInput) (core.Account, error) {
	if err := in.Validate(); err != nil {
		return core.Account{}, c.fail(ctx, log.OpCreate, "account", err)
	}
	done := c.begin()
	defer done()

	created, err := c.gw.CreateAccount(ctx, in)
	if err != nil {
		return core.Account{}, c.fail(ctx, log.OpCreate, "account", fmt.Errorf("create account: %w", err))
	}
	c.mutate(func() { c.accounts = append(slices.Clip(c.accounts), created) })
	c.publish(ctx, amqp.AccountCreated, created.ID)
	return created, nil
}

// UpdateAccount replaces the account in place once confirmed.
func (c *FinanceCache) UpdateAccount(ctx context.Context, id string, in core.AccountInput) (core.Account, error) {
	if err := in.Validate(); err != nil {
		return core.Account{}, c.fail(ctx, log.OpUpdate, "account", err)
	}
	done := c.begin()
	defer done()

	updated, err := c.gw.UpdateAccount(ctx, id, in)
	if err != nil {
		return core.Account{}, c.fail(ctx, log.OpUpdate, "account", fmt.Errorf("update account %s: %w", id, err))
	}
	c.mutate(func() { c.accounts = replaceByID(c.accounts, id, updated, func(a core.Account) string { return a.ID }) })
	c.publish(ctx, amqp.AccountUpdated, id)
	return updated, nil
}

// DeleteAccount removes the account once confirmed. The backend refuses
// while transactions still reference it.
func (c *FinanceCache) DeleteAccount(ctx context.Context, id string) error {
	done := c.begin()
	defer done()

	if err := c.gw.DeleteAccount(ctx, id); err != nil {
		return c.fail(ctx, log.OpDelete, "account", fmt.Errorf("delete account %s: %w", id, err))
	}
	c.mutate(func() { c.accounts = removeByID(c.accounts, id, func(a core.Account) string { return a.ID }) })
	c.publish(ctx, amqp.AccountDeleted, id)
	return nil
}

// AddCategory creates the category and appends it once confirmed.
func (c *FinanceCache) AddCategory(ctx context.Context, in core.CategoryInput) (core.Category, error) {
	if err := in.Validate(); err != nil {
		return core.Category{}, c.fail(ctx, log.OpCreate, "category", err)
	}
	done := c.begin()
	defer done()

	created, err := c.gw.CreateCategory(ctx, in)
	if err != nil {
		return core.Category{}, c.fail(ctx, log.OpCreate, "category", fmt.Errorf("create category: %w", err))
	}
	c.mutate(func() { c.categories = append(slices.Clip(c.categories), created) })
	c.publish(ctx, amqp.CategoryCreated, created.ID)
	return created, nil
}

// UpdateCategory replaces the category in place once confirmed.
func (c *FinanceCache) UpdateCategory(ctx context.Context, id string, in core.CategoryInput) (core.Category, error) {
	if err := in.Validate(); err != nil {
		return core.Category{}, c.fail(ctx, log.OpUpdate, "category", err)
	}
	done := c.begin()
	defer done()

	updated, err := c.gw.UpdateCategory(ctx, id, in)
	if err != nil {
		return core.Category{}, c.fail(ctx, log.OpUpdate, "category", fmt.Errorf("update category %s: %w", id, err))
	}
	c.mutate(func() { c.categories = replaceByID(c.categories, id, updated, func(x core.Category) string { return x.ID }) })
	c.publish(ctx, amqp.CategoryUpdated, id)
	return updated, nil
}

// DeleteCategory removes the category once confirmed.
func (c *FinanceCache) DeleteCategory(ctx context.Context, id string) error {
	done := c.begin()
	defer done()

	if err := c.gw.DeleteCategory(ctx, id); err != nil {
		return c.fail(ctx, log.OpDelete, "category", fmt.Errorf("delete category %s: %w", id, err))
	}
	c.mutate(func() { c.categories = removeByID(c.categories, id, func(x core.Category) string { return x.ID }) })
	c.publish(ctx, amqp.CategoryDeleted, id)
	return nil
}

// AddTransaction creates the transaction and prepends it to the window.
// When the category is cached its type must match the transaction's.
func (c *FinanceCache) AddTransaction(ctx context.Context, in core.TransactionInput) (core.Transaction, error) {
	if err := c.validateTransaction(in); err != nil {
		return core.Transaction{}, c.fail(ctx, log.OpCreate, "transaction", err)
	}
	done := c.begin()
	defer done()

	created, err := c.gw.CreateTransaction(ctx, in)
	if err != nil {
		return core.Transaction{}, c.fail(ctx, log.OpCreate, "transaction", fmt.Errorf("create transaction: %w", err))
	}
	c.mutate(func() {
		txs := make([]core.Transaction, 0, len(c.transactions)+1)
		c.transactions = append(append(txs, created), c.transactions...)
	})
	c.publish(ctx, amqp.TransactionCreated, created.ID)
	c.logger.DebugContext(ctx, "Transaction created",
		log.FieldEntityID, created.ID, log.FieldAmountCents, created.Amount.Cents, log.FieldTxType, created.Type)
	return created, nil
}

// UpdateTransaction replaces the transaction in place once confirmed.
func (c *FinanceCache) UpdateTransaction(ctx context.Context, id string, in core.TransactionInput) (core.Transaction, error) {
	if err := c.validateTransaction(in); err != nil {
		return core.Transaction{}, c.fail(ctx, log.OpUpdate, "transaction", err)
	}
	done := c.begin()
	defer done()

	updated, err := c.gw.UpdateTransaction(ctx, id, in)
	if err != nil {
		return core.Transaction{}, c.fail(ctx, log.OpUpdate, "transaction", fmt.Errorf("update transaction %s: %w", id, err))
	}
	c.mutate(func() {
		c.transactions = replaceByID(c.transactions, id, updated, func(t core.Transaction) string { return t.ID })
	})
	c.publish(ctx, amqp.TransactionUpdated, id)
	return updated, nil
}

// DeleteTransaction removes the transaction once confirmed.
func (c *FinanceCache) DeleteTransaction(ctx context.Context, id string) error {
	done := c.begin()
	defer done()

	if err := c.gw.DeleteTransaction(ctx, id); err != nil {
		return c.fail(ctx, log.OpDelete, "transaction", fmt.Errorf("delete transaction %s: %w", id, err))
	}
	c.mutate(func() {
		c.transactions = removeByID(c.transactions, id, func(t core.Transaction) string { return t.ID })
	})
	c.publish(ctx, amqp.TransactionDeleted, id)
	return nil
}

func (c *FinanceCache) validateTransaction(in core.TransactionInput) error {
	if err := in.Validate(); err != nil {
		return err
	}
	c.mu.RLock()
	var category *core.Category
	if i := slices.IndexFunc(c.categories, func(x core.Category) bool { return x.ID == in.CategoryID }); i >= 0 {
		cat := c.categories[i]
		category = &cat
	}
	c.mu.RUnlock()
	return in.ValidateCategory(category)
}

// replaceByID returns a new slice with the item carrying id replaced. An
// unknown id leaves the slice as it was.
func replaceByID[T any](items []T, id string, item T, idOf func(T) string) []T {
	i := slices.IndexFunc(items, func(x T) bool { return idOf(x) == id })
	if i < 0 {
		return items
	}
	out := slices.Clone(items)
	out[i] = item
	return out
}

func removeByID[T any](items []T, id string, idOf func(T) string) []T {
	out := make([]T, 0, len(items))
	for _, x := range items {
		if idOf(x) != id {
			out = append(out, x)
		}
	}
	return out
}
