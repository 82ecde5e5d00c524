package bridge

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/agentx/agentx/internal/bus"
	"github.com/agentx/agentx/pkg/types"
)

// Effector subscribes to an agent's Event Bus and forwards every outbound
// event onto a Channel — Stream, State, Message and Turn events plus the
// independent error event (spec.md §4.12). Events produced while the
// Channel is not connected are dropped with a warning; there is no hidden
// buffering, since a reconnecting client is expected to rebuild its view
// from the Image rather than replay a backlog.
type Effector struct {
	channel Channel
	unsub   bus.Unsubscribe
	log     zerolog.Logger
}

// Attach wires an Effector between agentBus and ch, subscribing
// immediately. Call Detach when the Channel or Agent goes away.
func Attach(agentBus *bus.Bus, ch Channel, log zerolog.Logger) *Effector {
	e := &Effector{channel: ch, log: log}
	e.unsub = agentBus.OnAny(e.forward, bus.Options{})
	return e
}

func (e *Effector) forward(ev bus.Event) {
	if e.channel.State() != StateConnected {
		e.log.Warn().Str("event_type", ev.Type).Str("agent_id", ev.AgentID).Msg("bridge effector: channel not connected, dropping event")
		return
	}

	ts := ev.Timestamp
	if ts == 0 {
		ts = time.Now().UnixMilli()
	}
	frame := Frame{
		Type:      ev.Type,
		UUID:      orNewUUID(ev.UUID),
		AgentID:   ev.AgentID,
		Timestamp: ts,
		Data:      ev.Data,
	}
	if err := e.channel.Send(frame); err != nil {
		e.log.Warn().Err(err).Str("event_type", ev.Type).Msg("bridge effector: send failed")
	}
}

func orNewUUID(uuid string) string {
	if uuid != "" {
		return uuid
	}
	return types.NewID(types.PrefixEvent)
}

// Detach removes the bus subscription; the Channel itself is left open.
func (e *Effector) Detach() {
	if e.unsub != nil {
		e.unsub()
	}
}
