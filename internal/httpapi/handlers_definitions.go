package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/agentx/agentx/internal/repository"
	"github.com/agentx/agentx/pkg/types"
)

func (s *Server) handleDefinitionList(w http.ResponseWriter, r *http.Request) {
	defs, err := s.repo.ListDefinitions(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, defs)
}

func (s *Server) handleDefinitionGet(w http.ResponseWriter, r *http.Request) {
	def, err := s.repo.GetDefinition(r.Context(), pathParam(r, "name"))
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "definition not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, def)
}

func (s *Server) handleDefinitionHead(w http.ResponseWriter, r *http.Request) {
	_, err := s.repo.GetDefinition(r.Context(), pathParam(r, "name"))
	if errors.Is(err, repository.ErrNotFound) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleDefinitionPut(w http.ResponseWriter, r *http.Request) {
	var def types.Definition
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid definition body")
		return
	}
	if def.Name == "" {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "name is required")
		return
	}
	if err := s.repo.PutDefinition(r.Context(), def); err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, def)
}

func (s *Server) handleDefinitionDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.DeleteDefinition(r.Context(), pathParam(r, "name")); err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	writeNoContent(w)
}
