// Package turntracker implements the Turn Tracker pure transducer of
// spec.md §4.5: Message and State events in, Turn events out. It has no
// direct analog in the source repository (the teacher has no turn
// concept); it is built fresh in the surrounding pipeline's idiom.
package turntracker

import (
	"github.com/agentx/agentx/internal/agentevent"
	"github.com/agentx/agentx/internal/bus"
	"github.com/agentx/agentx/pkg/types"
)

// Tracker holds the currently-open turn: the triggering user message plus
// every assistant/tool message accumulated until a terminal conversation
// state is reached.
type Tracker struct {
	agentID    string
	open       bool
	transcript []types.Message
	usage      *agentevent.TokenUsage
}

// New creates a fresh Tracker for one agent.
func New(agentID string) *Tracker {
	return &Tracker{agentID: agentID}
}

// SetUsage records token usage the Driver reported for the in-progress
// turn, folded into the eventual turn_response.
func (t *Tracker) SetUsage(usage agentevent.TokenUsage) {
	t.usage = &usage
}

// Process consumes one Message or State event and returns zero or more
// Turn events.
func (t *Tracker) Process(ev bus.Event) []bus.Event {
	switch ev.Type {
	case agentevent.UserMessageEvent:
		data, ok := ev.Data.(agentevent.MessageEvent)
		if !ok {
			return nil
		}
		t.open = true
		t.transcript = []types.Message{data.Message}
		t.usage = nil
		return []bus.Event{{
			Type:    agentevent.TurnRequestEvent,
			AgentID: t.agentID,
			Data:    agentevent.TurnRequest{AgentID: t.agentID, Message: data.Message},
		}}

	case agentevent.AssistantMessageEvent, agentevent.ToolCallMessageEvent, agentevent.ToolResultMessageEvent:
		if !t.open {
			return nil
		}
		data, ok := ev.Data.(agentevent.MessageEvent)
		if !ok {
			return nil
		}
		t.transcript = append(t.transcript, data.Message)
		return nil

	case agentevent.ConversationEnd, agentevent.ConversationInterrupted:
		if !t.open {
			return nil
		}
		resp := agentevent.TurnResponse{
			AgentID:    t.agentID,
			Transcript: t.transcript,
			Usage:      t.usage,
		}
		t.open = false
		t.transcript = nil
		t.usage = nil
		return []bus.Event{{
			Type:    agentevent.TurnResponseEvent,
			AgentID: t.agentID,
			Data:    resp,
		}}
	}
	return nil
}
