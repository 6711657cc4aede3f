package query

import "fintrack/internal/core"

// Index resolves reference ids to entities in O(1). Build it once per
// query cycle from the current snapshot.
type Index struct {
	categories map[string]*core.Category
	accounts   map[string]*core.Account
	tags       map[string]*core.Tag
}

func NewIndex(categories []core.Category, accounts []core.Account, tags []core.Tag) Index {
	idx := Index{
		categories: make(map[string]*core.Category, len(categories)),
		accounts:   make(map[string]*core.Account, len(accounts)),
		tags:       make(map[string]*core.Tag, len(tags)),
	}
	for i := range categories {
		idx.categories[categories[i].ID] = &categories[i]
	}
	for i := range accounts {
		idx.accounts[accounts[i].ID] = &accounts[i]
	}
	for i := range tags {
		idx.tags[tags[i].ID] = &tags[i]
	}
	return idx
}

// Category returns nil for unknown or stale ids.
func (x Index) Category(id string) *core.Category {
	return x.categories[id]
}

// Account returns nil for unknown or stale ids.
func (x Index) Account(id string) *core.Account {
	return x.accounts[id]
}

// Tag returns nil for unknown or stale ids.
func (x Index) Tag(id string) *core.Tag {
	return x.tags[id]
}
