package finance

import (
	"context"
	"net/url"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
)

// Gateway is the slice of the backend client the cache depends on.
type Gateway interface {
	ListAccounts(ctx context.Context) ([]core.Account, error)
	CreateAccount(ctx context.Context, in core.AccountInput) (core.Account, error)
	UpdateAccount(ctx context.Context, id string, in core.AccountInput) (core.Account, error)
	DeleteAccount(ctx context.Context, id string) error

	ListCategories(ctx context.Context) ([]core.Category, error)
	CreateCategory(ctx context.Context, in core.CategoryInput) (core.Category, error)
	UpdateCategory(ctx context.Context, id string, in core.CategoryInput) (core.Category, error)
	DeleteCategory(ctx context.Context, id string) error

	ListTransactions(ctx context.Context, params url.Values) ([]core.Transaction, error)
	CreateTransaction(ctx context.Context, in core.TransactionInput) (core.Transaction, error)
	UpdateTransaction(ctx context.Context, id string, in core.TransactionInput) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error

	ListTags(ctx context.Context) ([]core.Tag, error)
	CreateTag(ctx context.Context, name string) (core.Tag, error)
	TransactionsByTag(ctx context.Context, id string) ([]core.Transaction, error)
}

// EventPublisher receives confirmed mutations.
type EventPublisher interface {
	PublishEvent(ctx context.Context, e amqp.Event) error
}
