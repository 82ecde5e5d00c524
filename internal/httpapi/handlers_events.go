package httpapi

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/agentx/agentx/internal/bridge"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleEventChannel upgrades GET /events to the spec.md §6.2 WebSocket
// frame channel and runs a Network Bridge over it until the connection
// closes. Each connection gets its own Bridge and Receptor loop.
func (s *Server) handleEventChannel(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	channel := bridge.NewWSChannel(conn)
	b := bridge.New(channel, s.repo, s.container, s.sessions, s.log)
	b.Serve()
}
