package query

import "fintrack/internal/core"

// Begin returns the cursor a fetch should use and whether it should hit the
// network at all. A reset always fetches page 1; advancing past the last
// page is a no-op.
func Begin(state core.PaginationState, reset bool) (core.PaginationState, bool) {
	if reset {
		return core.PaginationState{Page: 1, PageSize: state.PageSize, HasMore: true}, true
	}
	if !state.HasMore {
		return state, false
	}
	return state, true
}

// Advance moves the cursor after a successful fetch of returned items
// requested at state.Page.
func Advance(state core.PaginationState, reset bool, returned int) core.PaginationState {
	next := state.Page + 1
	if reset {
		next = 2
	}
	return core.PaginationState{
		Page:     next,
		PageSize: state.PageSize,
		HasMore:  returned == state.PageSize,
	}
}

// Merge applies a fetched page to the cached window: a reset replaces it,
// otherwise the page is appended. The result never aliases current.
func Merge(current, page []core.Transaction, reset bool) []core.Transaction {
	if reset {
		return append([]core.Transaction(nil), page...)
	}
	out := make([]core.Transaction, 0, len(current)+len(page))
	out = append(out, current...)
	return append(out, page...)
}
