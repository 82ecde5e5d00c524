// Package engine implements the Engine composer of spec.md §4.6: it wires
// the Message Assembler, State Projector and Turn Tracker together for one
// agent, re-injecting every transducer's output back through the pipeline.
// Recursion is bounded because Message/Turn-tier events are never fed back
// into the assembler or the projector — only the turn tracker consumes
// them, and it never emits anything that flows further.
package engine

import (
	"time"

	"github.com/agentx/agentx/internal/agentevent"
	"github.com/agentx/agentx/internal/assembler"
	"github.com/agentx/agentx/internal/bus"
	"github.com/agentx/agentx/internal/stateproj"
	"github.com/agentx/agentx/internal/streamevent"
	"github.com/agentx/agentx/internal/turntracker"
	"github.com/agentx/agentx/pkg/types"
)

// Engine holds one agent's three processor states and composes them.
type Engine struct {
	agentID   string
	assembler *assembler.Assembler
	projector *stateproj.Projector
	tracker   *turntracker.Tracker
}

// New creates an Engine scoped to one agent.
func New(agentID string) *Engine {
	return &Engine{
		agentID:   agentID,
		assembler: assembler.New(),
		projector: stateproj.New(agentID),
		tracker:   turntracker.New(agentID),
	}
}

// SetUsage forwards Driver-reported token usage to the turn tracker so it
// is included in the next turn_response.
func (e *Engine) SetUsage(usage agentevent.TokenUsage) {
	e.tracker.SetUsage(usage)
}

// Process runs one Driver-sourced stream event through the full pipeline:
// pass the raw event through as itself, run the assembler and projector
// against it, then re-inject every output through the turn tracker. The
// returned slice is in strict emission order (spec.md §5).
func (e *Engine) Process(ev streamevent.Event) []bus.Event {
	raw := wrapStream(e.agentID, ev)
	outputs := []bus.Event{raw}
	queue := []bus.Event{raw}

	for _, out := range e.assembler.Process(ev) {
		be := wrapMessage(e.agentID, out.Type, out.Message)
		outputs = append(outputs, be)
		queue = append(queue, be)
	}

	for _, out := range e.projector.Process(raw) {
		outputs = append(outputs, out)
		queue = append(queue, out)
	}

	outputs = append(outputs, e.drainTurnTracker(queue)...)
	return outputs
}

// ProcessUserMessage runs the one input that never originates from the
// Driver: the user message the Agent Instance emits before calling
// Driver.receive. It feeds the state projector ("user message received")
// and the turn tracker (opens a new turn) exactly like any other input.
func (e *Engine) ProcessUserMessage(msg types.Message) []bus.Event {
	raw := wrapMessage(e.agentID, agentevent.UserMessageEvent, msg)
	outputs := []bus.Event{raw}

	outputs = append(outputs, e.projector.Process(raw)...)
	outputs = append(outputs, e.tracker.Process(raw)...)
	return outputs
}

// ProcessDriverError runs the "Driver throws" row of the state table: it
// does not go through the assembler (there is no stream event to
// assemble), only the projector.
func (e *Engine) ProcessDriverError() []bus.Event {
	return e.projector.ProcessDriverError()
}

// drainTurnTracker feeds every queued message/state event through the
// turn tracker. Turn-tier outputs are terminal and never re-enter the
// queue, which is what bounds the recursion.
func (e *Engine) drainTurnTracker(queue []bus.Event) []bus.Event {
	var outputs []bus.Event
	for len(queue) > 0 {
		ev := queue[0]
		queue = queue[1:]
		outputs = append(outputs, e.tracker.Process(ev)...)
	}
	return outputs
}

// ClearState frees this agent's processor memory on destroy.
func (e *Engine) ClearState() {
	e.assembler = assembler.New()
	e.projector = stateproj.New(e.agentID)
	e.tracker = turntracker.New(e.agentID)
}

func wrapStream(agentID string, ev streamevent.Event) bus.Event {
	uuid := ev.UUID
	if uuid == "" {
		uuid = types.NewID(types.PrefixEvent)
	}
	ts := ev.Timestamp
	if ts == 0 {
		ts = time.Now().UnixMilli()
	}
	return bus.Event{
		Type:      string(ev.Type),
		UUID:      uuid,
		AgentID:   agentID,
		Timestamp: ts,
		Data:      ev,
	}
}

func wrapMessage(agentID, eventType string, msg types.Message) bus.Event {
	return bus.Event{
		Type:      eventType,
		UUID:      types.NewID(types.PrefixEvent),
		AgentID:   agentID,
		Timestamp: time.Now().UnixMilli(),
		Data:      agentevent.MessageEvent{AgentID: agentID, Message: msg},
	}
}
