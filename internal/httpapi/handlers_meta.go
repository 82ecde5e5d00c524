package httpapi

import (
	"net/http"
	"time"
)

type infoResponse struct {
	Platform   string `json:"platform"`
	Version    string `json:"version"`
	AgentCount int    `json:"agentCount"`
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, infoResponse{
		Platform:   "agentx",
		Version:    Version,
		AgentCount: len(s.container.List()),
	})
}

type healthResponse struct {
	Status     string `json:"status"`
	Timestamp  int64  `json:"timestamp"`
	AgentCount int    `json:"agentCount"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:     "ok",
		Timestamp:  time.Now().UnixMilli(),
		AgentCount: len(s.container.List()),
	})
}
