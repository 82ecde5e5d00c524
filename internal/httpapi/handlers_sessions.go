package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/agentx/agentx/internal/repository"
)

func (s *Server) handleSessionList(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.repo.ListSessions(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleSessionGet(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.Context(), pathParam(r, "id"))
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "session not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleSessionHead(w http.ResponseWriter, r *http.Request) {
	_, err := s.sessions.Get(r.Context(), pathParam(r, "id"))
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

type createSessionRequest struct {
	ImageID     string `json:"imageId"`
	ContainerID string `json:"containerId"`
}

func (s *Server) handleSessionPut(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ImageID == "" {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "imageId is required")
		return
	}
	sess, err := s.sessions.Create(r.Context(), req.ImageID, req.ContainerID)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "image not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleSessionDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.Context(), pathParam(r, "id")); err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	writeNoContent(w)
}

type resumeSessionRequest struct {
	ContainerID string `json:"containerId,omitempty"`
}

func (s *Server) handleSessionResume(w http.ResponseWriter, r *http.Request) {
	var req resumeSessionRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	agent, err := s.sessions.Resume(r.Context(), pathParam(r, "id"), req.ContainerID)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "session not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	snap := agent.Snapshot()
	writeJSON(w, http.StatusCreated, agentHandle{AgentID: snap.AgentID, ContainerID: snap.ContainerID, State: snap.State})
}

func (s *Server) handleSessionMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.sessions.GetMessages(r.Context(), pathParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}
