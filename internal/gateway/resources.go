package gateway

import (
	"context"
	"net/url"

	"fintrack/internal/core"
)

const (
	pathUsers        = "/api/users"
	pathLogin        = "/api/login"
	pathMe           = "/api/me"
	pathAccounts     = "/api/accounts"
	pathCategories   = "/api/categories"
	pathTransactions = "/api/transactions"
	pathTags         = "/api/tags"
)

// RegisterInput is the sign-up payload.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is the sign-in response.
type LoginResult struct {
	User  core.User `json:"user"`
	Token string    `json:"token"`
}

type transactionPage struct {
	Transactions []core.Transaction `json:"transactions"`
}

type tagInput struct {
	Name string `json:"name"`
}

// Register creates a user.
func (c *Client) Register(ctx context.Context, in RegisterInput) (core.User, error) {
	var u core.User
	err := c.post(ctx, pathUsers, in, &u)
	return u, err
}

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	var res LoginResult
	err := c.post(ctx, pathLogin, map[string]string{"email": email, "password": password}, &res)
	return res, err
}

// Me returns the user the current token belongs to.
func (c *Client) Me(ctx context.Context) (core.User, error) {
	var u core.User
	err := c.get(ctx, pathMe, nil, &u)
	return u, err
}

func (c *Client) ListAccounts(ctx context.Context) ([]core.Account, error) {
	var out []core.Account
	if err := c.get(ctx, pathAccounts, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetAccount(ctx context.Context, id string) (core.Account, error) {
	var a core.Account
	err := c.get(ctx, itemPath(pathAccounts, id), nil, &a)
	return a, err
}

func (c *Client) CreateAccount(ctx context.Context, in core.AccountInput) (core.Account, error) {
	var a core.Account
	err := c.post(ctx, pathAccounts, in, &a)
	return a, err
}

func (c *Client) UpdateAccount(ctx context.Context, id string, in core.AccountInput) (core.Account, error) {
	var a core.Account
	err := c.put(ctx, itemPath(pathAccounts, id), in, &a)
	return a, err
}

func (c *Client) DeleteAccount(ctx context.Context, id string) error {
	return c.delete(ctx, itemPath(pathAccounts, id))
}

func (c *Client) ListCategories(ctx context.Context) ([]core.Category, error) {
	var out []core.Category
	if err := c.get(ctx, pathCategories, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateCategory(ctx context.Context, in core.CategoryInput) (core.Category, error) {
	var cat core.Category
	err := c.post(ctx, pathCategories, in, &cat)
	return cat, err
}

func (c *Client) UpdateCategory(ctx context.Context, id string, in core.CategoryInput) (core.Category, error) {
	var cat core.Category
	err := c.put(ctx, itemPath(pathCategories, id), in, &cat)
	return cat, err
}

func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	return c.delete(ctx, itemPath(pathCategories, id))
}

// ListTransactions fetches one page. params carries page, limit and the
// active filter dimensions.
func (c *Client) ListTransactions(ctx context.Context, params url.Values) ([]core.Transaction, error) {
	var page transactionPage
	if err := c.get(ctx, pathTransactions, params, &page); err != nil {
		return nil, err
	}
	return page.Transactions, nil
}

func (c *Client) CreateTransaction(ctx context.Context, in core.TransactionInput) (core.Transaction, error) {
	var tx core.Transaction
	err := c.post(ctx, pathTransactions, in, &tx)
	return tx, err
}

func (c *Client) UpdateTransaction(ctx context.Context, id string, in core.TransactionInput) (core.Transaction, error) {
	var tx core.Transaction
	err := c.put(ctx, itemPath(pathTransactions, id), in, &tx)
	return tx, err
}

func (c *Client) DeleteTransaction(ctx context.Context, id string) error {
	return c.delete(ctx, itemPath(pathTransactions, id))
}

func (c *Client) ListTags(ctx context.Context) ([]core.Tag, error) {
	var out []core.Tag
	if err := c.get(ctx, pathTags, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetTag(ctx context.Context, id string) (core.Tag, error) {
	var t core.Tag
	err := c.get(ctx, itemPath(pathTags, id), nil, &t)
	return t, err
}

func (c *Client) CreateTag(ctx context.Context, name string) (core.Tag, error) {
	var t core.Tag
	err := c.post(ctx, pathTags, tagInput{Name: name}, &t)
	return t, err
}

func (c *Client) UpdateTag(ctx context.Context, id, name string) (core.Tag, error) {
	var t core.Tag
	err := c.put(ctx, itemPath(pathTags, id), tagInput{Name: name}, &t)
	return t, err
}

func (c *Client) DeleteTag(ctx context.Context, id string) error {
	return c.delete(ctx, itemPath(pathTags, id))
}

// TransactionsByTag lists every transaction carrying the tag.
func (c *Client) TransactionsByTag(ctx context.Context, id string) ([]core.Transaction, error) {
	var out []core.Transaction
	if err := c.get(ctx, itemPath(pathTags, id)+"/transactions", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
