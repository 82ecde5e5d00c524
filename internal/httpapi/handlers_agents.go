package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/agentx/agentx/internal/agenterr"
	"github.com/agentx/agentx/pkg/types"
)

func (s *Server) handleAgentList(w http.ResponseWriter, r *http.Request) {
	agents := s.container.List()
	handles := make([]agentHandle, 0, len(agents))
	for _, a := range agents {
		snap := a.Snapshot()
		handles = append(handles, agentHandle{AgentID: snap.AgentID, ContainerID: snap.ContainerID, State: snap.State})
	}
	writeJSON(w, http.StatusOK, handles)
}

func (s *Server) handleAgentGet(w http.ResponseWriter, r *http.Request) {
	agent, ok := s.container.Get(pathParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "agent not found")
		return
	}
	writeJSON(w, http.StatusOK, agent.Snapshot())
}

func (s *Server) handleAgentDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.container.Destroy(pathParam(r, "id")); err != nil {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "agent not found")
		return
	}
	writeNoContent(w)
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleAgentMessages(w http.ResponseWriter, r *http.Request) {
	agent, ok := s.container.Get(pathParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "agent not found")
		return
	}

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "text is required")
		return
	}

	content := types.UserMessage{Content: types.TextContent(req.Text)}
	if err := agent.Receive(r.Context(), content); err != nil {
		var ae *agenterr.Error
		switch {
		case errors.As(err, &ae) && ae.Code == agenterr.CodeAgentDestroyed:
			writeError(w, http.StatusGone, ErrCodeGone, ae.Message)
		case errors.As(err, &ae) && ae.Code == agenterr.CodeAgentBusy:
			writeError(w, http.StatusConflict, ErrCodeConflict, ae.Message)
		default:
			writeError(w, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "processing"})
}

func (s *Server) handleAgentInterrupt(w http.ResponseWriter, r *http.Request) {
	agent, ok := s.container.Get(pathParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "agent not found")
		return
	}
	agent.Interrupt()
	writeJSON(w, http.StatusOK, map[string]bool{"interrupted": true})
}
