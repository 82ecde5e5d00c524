// Package stateproj implements the State Projector pure transducer of
// spec.md §4.4: stream/message events in, State events out, in turn
// driving the Agent state machine. The source repository scatters this
// mapping implicitly through internal/session/loop.go's finish-reason
// switch; here it is the explicit priority table the spec requires.
package stateproj

import (
	"github.com/agentx/agentx/internal/agentevent"
	"github.com/agentx/agentx/internal/bus"
	"github.com/agentx/agentx/internal/streamevent"
	"github.com/agentx/agentx/pkg/types"
)

// Projector holds the minimal per-agent state needed to recognize "the
// first message_start of a turn": a turn may span several assistant steps
// (e.g. a tool-call round-trip), and only the first step's message_start
// fires conversation_start.
type Projector struct {
	agentID     string
	turnStarted bool
}

// New creates a fresh Projector for one agent.
func New(agentID string) *Projector {
	return &Projector{agentID: agentID}
}

// Process maps one input event to zero or more State events, per the
// priority table in spec.md §4.4. The input may be a stream event or the
// user_message message event; anything else yields no output.
func (p *Projector) Process(ev bus.Event) []bus.Event {
	switch streamevent.Type(ev.Type) {
	case streamevent.MessageStart:
		if p.turnStarted {
			return nil
		}
		p.turnStarted = true
		return p.state(types.StateThinking, agentevent.ConversationStart)

	case streamevent.TextDelta:
		return p.state(types.StateResponding, agentevent.ConversationResponding)

	case streamevent.ToolUseContentBlockStart:
		return p.state(types.StatePlanningTool, agentevent.ToolPlanned)

	case streamevent.ToolUseContentBlockStop:
		return p.state(types.StateAwaitingToolResult, agentevent.ToolExecuting)

	case streamevent.ToolResult:
		data, _ := ev.Data.(streamevent.ToolResultData)
		if data.IsError {
			return p.state(types.StateResponding, agentevent.ToolFailed)
		}
		return append(
			p.state(types.StateResponding, agentevent.ToolCompleted),
			p.state(types.StateResponding, agentevent.ConversationThinking)...,
		)

	case streamevent.MessageStop:
		data, _ := ev.Data.(streamevent.MessageStopData)
		switch data.StopReason {
		case streamevent.StopNormal, streamevent.StopLength, streamevent.StopMaxTokens:
			p.turnStarted = false
			return p.state(types.StateIdle, agentevent.ConversationEnd)
		case streamevent.StopError:
			p.turnStarted = false
			return p.state(types.StateIdle, agentevent.ErrorOccurred)
		}
		// stop-reason "tool-calls": no direct transition; state remains
		// whatever the preceding tool_use_content_block_stop set.
		return nil

	case streamevent.Interrupted:
		p.turnStarted = false
		return p.state(types.StateIdle, agentevent.ConversationInterrupted)
	}

	if ev.Type == agentevent.UserMessageEvent {
		return p.state(types.StateQueued, agentevent.ConversationQueued)
	}

	return nil
}

// ProcessDriverError models the "Driver throws" row of the table: not a
// stream event, but an exception the Agent Instance classifies and hands
// back in to the projector to keep the state machine mapping in one place.
func (p *Projector) ProcessDriverError() []bus.Event {
	p.turnStarted = false
	return p.state(types.StateIdle, agentevent.ErrorOccurred)
}

func (p *Projector) state(target types.AgentState, eventType string) []bus.Event {
	return []bus.Event{{
		Type:    eventType,
		AgentID: p.agentID,
		Data:    agentevent.StateEvent{AgentID: p.agentID, TargetState: target},
	}}
}
