package core

import (
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// DefaultPageSize is the number of transactions requested per page.
const DefaultPageSize = 20

// FilterSet is the active structural filter. Zero values mean "unset";
// StartDate and EndDate are an inclusive range, each side optional.
type FilterSet struct {
	StartDate   *Date           `json:"startDate,omitempty"`
	EndDate     *Date           `json:"endDate,omitempty"`
	CategoryID  string          `json:"categoryId,omitempty"`
	AccountID   string          `json:"accountId,omitempty"`
	Type        TransactionType `json:"type,omitempty"`
	Query       string          `json:"query,omitempty"`
	CategoryIDs []string        `json:"categoryIds,omitempty"`
	TagIDs      []string        `json:"tagIds,omitempty"`
}

// FilterPatch is a partial FilterSet. A nil field leaves the current value
// untouched; a pointer to the zero value clears it.
type FilterPatch struct {
	StartDate   *Date            `json:"startDate,omitempty"`
	EndDate     *Date            `json:"endDate,omitempty"`
	CategoryID  *string          `json:"categoryId,omitempty"`
	AccountID   *string          `json:"accountId,omitempty"`
	Type        *TransactionType `json:"type,omitempty"`
	Query       *string          `json:"query,omitempty"`
	CategoryIDs *[]string        `json:"categoryIds,omitempty"`
	TagIDs      *[]string        `json:"tagIds,omitempty"`
}

// Merge returns a new FilterSet with the patch applied on top of f.
func (f FilterSet) Merge(p FilterPatch) FilterSet {
	out := f.Clone()
	if p.StartDate != nil {
		out.StartDate = optionalDate(*p.StartDate)
	}
	if p.EndDate != nil {
		out.EndDate = optionalDate(*p.EndDate)
	}
	if p.CategoryID != nil {
		out.CategoryID = *p.CategoryID
	}
	if p.AccountID != nil {
		out.AccountID = *p.AccountID
	}
	if p.Type != nil {
		out.Type = *p.Type
	}
	if p.Query != nil {
		out.Query = *p.Query
	}
	if p.CategoryIDs != nil {
		out.CategoryIDs = slices.Clone(*p.CategoryIDs)
	}
	if p.TagIDs != nil {
		out.TagIDs = slices.Clone(*p.TagIDs)
	}
	return out
}

// Clone returns a deep copy.
func (f FilterSet) Clone() FilterSet {
	out := f
	if f.StartDate != nil {
		d := *f.StartDate
		out.StartDate = &d
	}
	if f.EndDate != nil {
		d := *f.EndDate
		out.EndDate = &d
	}
	out.CategoryIDs = slices.Clone(f.CategoryIDs)
	out.TagIDs = slices.Clone(f.TagIDs)
	return out
}

// IsEmpty reports whether no dimension is set.
func (f FilterSet) IsEmpty() bool {
	return f.StartDate == nil && f.EndDate == nil && f.CategoryID == "" &&
		f.AccountID == "" && f.Type == "" && f.Query == "" &&
		len(f.CategoryIDs) == 0 && len(f.TagIDs) == 0
}

// Params renders the request parameters for a transaction page fetch.
func (f FilterSet) Params(page, limit int) url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(page))
	v.Set("limit", strconv.Itoa(limit))
	if f.StartDate != nil {
		v.Set("startDate", f.StartDate.ISODate())
	}
	if f.EndDate != nil {
		v.Set("endDate", f.EndDate.ISODate())
	}
	if f.CategoryID != "" {
		v.Set("categoryId", f.CategoryID)
	}
	if f.AccountID != "" {
		v.Set("accountId", f.AccountID)
	}
	if f.Type != "" {
		v.Set("type", string(f.Type))
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		v.Set("search", q)
	}
	if len(f.CategoryIDs) > 0 {
		v.Set("categoryIds", strings.Join(f.CategoryIDs, ","))
	}
	if len(f.TagIDs) > 0 {
		v.Set("tagIds", strings.Join(f.TagIDs, ","))
	}
	return v
}

func optionalDate(d Date) *Date {
	if d.IsZero() {
		return nil
	}
	return &d
}

// PaginationState tracks the transaction window cursor. Page is the next
// page to fetch (1-based).
type PaginationState struct {
	Page     int  `json:"page"`
	PageSize int  `json:"pageSize"`
	HasMore  bool `json:"hasMore"`
}

// NewPagination returns the state before any fetch.
func NewPagination(pageSize int) PaginationState {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return PaginationState{Page: 1, PageSize: pageSize, HasMore: true}
}
