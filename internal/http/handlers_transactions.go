package http

import (
	"net/http"
	"slices"

	"fintrack/internal/core"
	"fintrack/internal/finance"
	"fintrack/internal/log"
)

type transactionsBody struct {
	Transactions []core.Transaction   `json:"transactions"`
	Pagination   core.PaginationState `json:"pagination"`
	Filters      core.FilterSet       `json:"filters"`
	Loading      bool                 `json:"loading"`
}

func windowBody(snap finance.Snapshot, visible []core.Transaction) transactionsBody {
	return transactionsBody{
		Transactions: visible,
		Pagination:   snap.Pagination,
		Filters:      snap.Filters,
		Loading:      snap.Loading,
	}
}

// transactionRequest accepts tag names next to tag ids; names are resolved
// (and created when new) before the transaction is saved.
type transactionRequest struct {
	core.TransactionInput
	TagNames []string `json:"tagNames,omitempty"`
}

func (s *Server) resolveInput(r *http.Request, req transactionRequest) (core.TransactionInput, error) {
	in := req.TransactionInput
	in.Description = sanitizeInput(in.Description)
	in.Notes = sanitizeInput(in.Notes)
	if len(req.TagNames) == 0 {
		return in, nil
	}
	tags, err := s.fc.ResolveTags(r.Context(), req.TagNames)
	if err != nil {
		return in, err
	}
	ids := slices.Clone(in.TagIDs)
	for _, t := range tags {
		if !slices.Contains(ids, t.ID) {
			ids = append(ids, t.ID)
		}
	}
	in.TagIDs = ids
	return in, nil
}

// handleListTransactions returns the cached window, narrowed by ?q=.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	snap := s.fc.Snapshot()
	NewJSONResponse().Body(windowBody(snap, snap.Visible(r.URL.Query().Get("q")))).Write(w)
}

func (s *Server) handleLoadMore(w http.ResponseWriter, r *http.Request) {
	if err := s.fc.LoadTransactions(r.Context(), false); err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	snap := s.fc.Snapshot()
	NewJSONResponse().Body(windowBody(snap, snap.Transactions)).Write(w)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.fc.LoadTransactions(r.Context(), true); err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	snap := s.fc.Snapshot()
	NewJSONResponse().Body(windowBody(snap, snap.Transactions)).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequest(r, err.Error()).Write(w)
		return
	}
	in, err := s.resolveInput(r, req)
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	tx, err := s.fc.AddTransaction(r.Context(), in)
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	s.access.LogMutation(r.Context(), log.OpCreate, "transaction", tx.ID)
	NewJSONResponse().Status(http.StatusCreated).Body(tx).Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequest(r, err.Error()).Write(w)
		return
	}
	in, err := s.resolveInput(r, req)
	if err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	tx, err := s.fc.UpdateTransaction(r.Context(), id, in)
	if err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	s.access.LogMutation(r.Context(), log.OpUpdate, "transaction", id)
	NewJSONResponse().Body(tx).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.fc.DeleteTransaction(r.Context(), id); err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	s.access.LogMutation(r.Context(), log.OpDelete, "transaction", id)
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleUpdateFilters(w http.ResponseWriter, r *http.Request) {
	var patch core.FilterPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		BadRequest(r, err.Error()).Write(w)
		return
	}
	if patch.Type != nil && *patch.Type != "" && !patch.Type.IsValid() {
		BadRequest(r, "unknown transaction type").Write(w)
		return
	}
	if err := s.fc.UpdateFilters(r.Context(), patch); err != nil {
		s.fail(w, r, log.OpFilter, err)
		return
	}
	snap := s.fc.Snapshot()
	NewJSONResponse().Body(windowBody(snap, snap.Transactions)).Write(w)
}

func (s *Server) handleClearFilters(w http.ResponseWriter, r *http.Request) {
	if err := s.fc.ClearFilters(r.Context()); err != nil {
		s.fail(w, r, log.OpFilter, err)
		return
	}
	snap := s.fc.Snapshot()
	NewJSONResponse().Body(windowBody(snap, snap.Transactions)).Write(w)
}
