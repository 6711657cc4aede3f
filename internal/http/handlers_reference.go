package http

import (
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(s.fc.Snapshot().Accounts).Write(w)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var in core.AccountInput
	if err := decodeJSON(w, r, &in); err != nil {
		BadRequest(r, err.Error()).Write(w)
		return
	}
	in.Name = sanitizeInput(in.Name)
	acc, err := s.fc.AddAccount(r.Context(), in)
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	s.access.LogMutation(r.Context(), log.OpCreate, "account", acc.ID)
	NewJSONResponse().Status(http.StatusCreated).Body(acc).Write(w)
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var in core.AccountInput
	if err := decodeJSON(w, r, &in); err != nil {
		BadRequest(r, err.Error()).Write(w)
		return
	}
	in.Name = sanitizeInput(in.Name)
	acc, err := s.fc.UpdateAccount(r.Context(), id, in)
	if err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	s.access.LogMutation(r.Context(), log.OpUpdate, "account", id)
	NewJSONResponse().Body(acc).Write(w)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.fc.DeleteAccount(r.Context(), id); err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	s.access.LogMutation(r.Context(), log.OpDelete, "account", id)
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(s.fc.Snapshot().Categories).Write(w)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var in core.CategoryInput
	if err := decodeJSON(w, r, &in); err != nil {
		BadRequest(r, err.Error()).Write(w)
		return
	}
	in.Name = sanitizeInput(in.Name)
	cat, err := s.fc.AddCategory(r.Context(), in)
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	s.access.LogMutation(r.Context(), log.OpCreate, "category", cat.ID)
	NewJSONResponse().Status(http.StatusCreated).Body(cat).Write(w)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var in core.CategoryInput
	if err := decodeJSON(w, r, &in); err != nil {
		BadRequest(r, err.Error()).Write(w)
		return
	}
	in.Name = sanitizeInput(in.Name)
	cat, err := s.fc.UpdateCategory(r.Context(), id, in)
	if err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	s.access.LogMutation(r.Context(), log.OpUpdate, "category", id)
	NewJSONResponse().Body(cat).Write(w)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.fc.DeleteCategory(r.Context(), id); err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	s.access.LogMutation(r.Context(), log.OpDelete, "category", id)
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(s.fc.Snapshot().Tags).Write(w)
}

type tagRequest struct {
	Name string `json:"name"`
}

// handleEnsureTag returns the existing tag for the name when there is one.
func (s *Server) handleEnsureTag(w http.ResponseWriter, r *http.Request) {
	var req tagRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequest(r, err.Error()).Write(w)
		return
	}
	tag, err := s.fc.EnsureTag(r.Context(), sanitizeInput(req.Name))
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	NewJSONResponse().Body(tag).Write(w)
}

func (s *Server) handleTransactionsByTag(w http.ResponseWriter, r *http.Request) {
	txs, err := s.fc.TransactionsByTag(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().Body(txs).Write(w)
}
