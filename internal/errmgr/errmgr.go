// Package errmgr implements the platform-level ErrorManager of spec.md
// §7: a server-only observer of every agent's error stream that always
// logs and fans out to optional pluggable handlers, isolated from one
// another the same way the Event Bus isolates its own subscribers
// (internal/bus).
package errmgr

import (
	"github.com/rs/zerolog"

	"github.com/agentx/agentx/internal/agenterr"
)

// Handler observes one classified error. A panicking handler must never
// suppress delivery to subsequent handlers.
type Handler func(agentID string, err *agenterr.Error)

// Manager fans an agent's error stream out to every registered handler.
type Manager struct {
	log      zerolog.Logger
	handlers []Handler
}

// New creates an ErrorManager bound to the server-wide logger.
func New(log zerolog.Logger) *Manager {
	return &Manager{log: log}
}

// Register adds a pluggable handler.
func (m *Manager) Register(h Handler) {
	m.handlers = append(m.handlers, h)
}

// Observe logs the error unconditionally, then invokes every registered
// handler, isolating each from the others' panics.
func (m *Manager) Observe(agentID string, err *agenterr.Error) {
	m.log.Error().
		Str("agent_id", agentID).
		Str("category", string(err.Category)).
		Str("code", string(err.Code)).
		Str("severity", string(err.Severity)).
		Bool("recoverable", err.Recoverable).
		Msg(err.Message)

	for _, h := range m.handlers {
		m.invoke(h, agentID, err)
	}
}

func (m *Manager) invoke(h Handler, agentID string, err *agenterr.Error) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error().Interface("panic", r).Msg("error manager handler panicked; isolated")
		}
	}()
	h(agentID, err)
}
