package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/agentx/agentx/internal/container"
	"github.com/agentx/agentx/internal/repository"
	"github.com/agentx/agentx/pkg/types"
)

func (s *Server) handleImageList(w http.ResponseWriter, r *http.Request) {
	images, err := s.repo.ListImages(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, images)
}

func (s *Server) handleImageGet(w http.ResponseWriter, r *http.Request) {
	img, err := s.repo.GetImage(r.Context(), pathParam(r, "id"))
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "image not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, img)
}

func (s *Server) handleImageHead(w http.ResponseWriter, r *http.Request) {
	_, err := s.repo.GetImage(r.Context(), pathParam(r, "id"))
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

type createImageRequest struct {
	DefinitionName string         `json:"definitionName"`
	Config         map[string]any `json:"config,omitempty"`
}

func (s *Server) handleImagePut(w http.ResponseWriter, r *http.Request) {
	var req createImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DefinitionName == "" {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "definitionName is required")
		return
	}

	def, err := s.repo.GetDefinition(r.Context(), req.DefinitionName)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "definition not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	img := types.NewMetaImage(def, req.Config, time.Now().UnixMilli())
	if err := s.repo.PutImage(r.Context(), img); err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, img)
}

func (s *Server) handleImageDelete(w http.ResponseWriter, r *http.Request) {
	err := s.repo.DeleteImage(r.Context(), pathParam(r, "id"))
	if errors.Is(err, repository.ErrConflict) {
		writeError(w, http.StatusConflict, ErrCodeConflict, "image has live sessions")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	writeNoContent(w)
}

type runRequest struct {
	ContainerID string `json:"containerId,omitempty"`
}

type agentHandle struct {
	AgentID     string           `json:"agentId"`
	ContainerID string           `json:"containerId"`
	State       types.AgentState `json:"state"`
}

func (s *Server) handleImageRun(w http.ResponseWriter, r *http.Request) {
	img, err := s.repo.GetImage(r.Context(), pathParam(r, "id"))
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "image not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	var req runRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	agent, err := s.container.Run(r.Context(), img, container.RunOptions{ContainerID: req.ContainerID})
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	snap := agent.Snapshot()
	writeJSON(w, http.StatusCreated, agentHandle{AgentID: snap.AgentID, ContainerID: snap.ContainerID, State: snap.State})
}
