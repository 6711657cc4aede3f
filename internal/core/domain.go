package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	Expense TransactionType = "EXPENSE"
	Income  TransactionType = "INCOME"
)

const (
	Saving       AccountType = "SAVING"
	CreditCard   AccountType = "CREDIT_CARD"
	DebitCard    AccountType = "DEBIT_CARD"
	Cash         AccountType = "CASH"
	Investment   AccountType = "INVESTMENT"
	BusinessCard AccountType = "BUSINESS_CARD"
	OtherAccount AccountType = "OTHER"
)

type (
	TransactionType string

	AccountType string

	// Date is a calendar date carried as an instant. Only the date part is
	// meaningful, but the instant is kept so groups can be ordered by the
	// earliest timestamp observed.
	Date struct {
		time.Time
	}

	Account struct {
		ID      string      `json:"id"`
		Name    string      `json:"name"`
		Type    AccountType `json:"type"`
		Balance Money       `json:"balance"`
	}

	Category struct {
		ID   string          `json:"id"`
		Name string          `json:"name"`
		Type TransactionType `json:"type"`
	}

	Tag struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	Transaction struct {
		ID          string          `json:"id"`
		Type        TransactionType `json:"type"`
		Amount      Money           `json:"amount"`
		Description string          `json:"description"`
		Date        Date            `json:"date"`
		CategoryID  string          `json:"categoryId"`
		AccountID   string          `json:"accountId"`
		Tags        []Tag           `json:"tags,omitempty"`
		IsRecurring bool            `json:"isRecurring"`
		Notes       string          `json:"notes,omitempty"`
	}

	// User is the authenticated profile returned by the backend.
	User struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
)

// Create/update payloads. They carry no id; the server assigns it.
type (
	AccountInput struct {
		Name    string      `json:"name"`
		Type    AccountType `json:"type"`
		Balance Money       `json:"balance"`
	}

	CategoryInput struct {
		Name string          `json:"name"`
		Type TransactionType `json:"type"`
	}

	TransactionInput struct {
		Type        TransactionType `json:"type"`
		Amount      Money           `json:"amount"`
		Description string          `json:"description"`
		Date        Date            `json:"date"`
		CategoryID  string          `json:"categoryId"`
		AccountID   string          `json:"accountId"`
		TagIDs      []string        `json:"tags,omitempty"`
		IsRecurring bool            `json:"isRecurring"`
		Notes       string          `json:"notes,omitempty"`
	}
)

func (t TransactionType) IsValid() bool {
	return t == Expense || t == Income
}

func (t AccountType) IsValid() bool {
	switch t {
	case Saving, CreditCard, DebitCard, Cash, Investment, BusinessCard, OtherAccount:
		return true
	default:
		return false
	}
}

// AccountTypes lists the account types in presentation order.
func AccountTypes() []AccountType {
	return []AccountType{Saving, CreditCard, DebitCard, Cash, Investment, BusinessCard, OtherAccount}
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts either a plain calendar date (2006-01-02) or an RFC 3339
// instant. Instants are kept in UTC.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return Date{Time: t}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Time: t.UTC()}, nil
}

// ISODate renders the calendar part only.
func (d Date) ISODate() string {
	if d.IsZero() {
		return ""
	}
	return d.UTC().Format("2006-01-02")
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.UTC().Format(time.RFC3339Nano))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if string(data) == "null" {
		*d = Date{}
		return nil
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// SignedAmount renders the amount with a sign derived from the type. Display only.
func (t Transaction) SignedAmount() string {
	if t.Type == Income {
		return "+" + t.Amount.String()
	}
	return "-" + t.Amount.String()
}

// HasTag reports whether the transaction carries the tag id.
func (t Transaction) HasTag(id string) bool {
	for _, tag := range t.Tags {
		if tag.ID == id {
			return true
		}
	}
	return false
}

func (a AccountInput) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return validation(ErrEmptyName)
	}
	if !a.Type.IsValid() {
		return validation(ErrInvalidAccountType)
	}
	return nil
}

func (c CategoryInput) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return validation(ErrEmptyName)
	}
	if !c.Type.IsValid() {
		return validation(ErrInvalidType)
	}
	return nil
}

func (t TransactionInput) Validate() error {
	if !t.Type.IsValid() {
		return validation(ErrInvalidType)
	}
	if err := t.Amount.Validate(); err != nil {
		return validation(err)
	}
	if strings.TrimSpace(t.CategoryID) == "" {
		return validation(ErrMissingCategory)
	}
	if strings.TrimSpace(t.AccountID) == "" {
		return validation(ErrMissingAccount)
	}
	return nil
}

// ValidateCategory checks the entry-time invariant that the category type
// matches the transaction type. A nil category is not re-validated.
func (t TransactionInput) ValidateCategory(c *Category) error {
	if c == nil {
		return nil
	}
	if c.Type != t.Type {
		return validation(fmt.Errorf("%w: category %q is %s", ErrCategoryTypeMismatch, c.Name, c.Type))
	}
	return nil
}

// ValidateTagName rejects blank tag names.
func ValidateTagName(name string) error {
	if strings.TrimSpace(name) == "" {
		return validation(ErrEmptyName)
	}
	return nil
}
