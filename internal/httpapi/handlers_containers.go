package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/agentx/agentx/internal/repository"
	"github.com/agentx/agentx/pkg/types"
)

func (s *Server) handleContainerList(w http.ResponseWriter, r *http.Request) {
	containers, err := s.repo.ListContainers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, containers)
}

func (s *Server) handleContainerGet(w http.ResponseWriter, r *http.Request) {
	c, err := s.repo.GetContainer(r.Context(), pathParam(r, "id"))
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "container not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleContainerHead(w http.ResponseWriter, r *http.Request) {
	_, err := s.repo.GetContainer(r.Context(), pathParam(r, "id"))
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

type createContainerRequest struct {
	Config map[string]any `json:"config,omitempty"`
}

func (s *Server) handleContainerCreate(w http.ResponseWriter, r *http.Request) {
	var req createContainerRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	c := types.NewContainer(req.Config, time.Now().UnixMilli())
	if err := s.repo.PutContainer(r.Context(), c); err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleContainerPut(w http.ResponseWriter, r *http.Request) {
	var c types.Container
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil || c.ContainerID == "" {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "containerId is required")
		return
	}
	if err := s.repo.PutContainer(r.Context(), &c); err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, &c)
}

func (s *Server) handleContainerDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.DeleteContainer(r.Context(), pathParam(r, "id")); err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	writeNoContent(w)
}
