// Package driver defines the Driver contract of spec.md §4.1: the
// adapter between an Agent Instance and an underlying LLM/tool-execution
// engine. An Agent Instance never talks to a model or a tool directly —
// it only ever drives a Driver and reads the stream of events it yields.
package driver

import (
	"context"

	"github.com/agentx/agentx/internal/streamevent"
	"github.com/agentx/agentx/pkg/types"
)

// Driver turns one user turn into a sequence of streamevent.Events. A
// Driver implementation owns the call into the LLM provider and the
// execution of any tool calls the model requests; the Agent Instance only
// ever sees the resulting stream.
type Driver interface {
	// Receive starts processing msg against the given message history and
	// opaque resume state, returning a channel of stream events. The
	// channel is closed once message_stop or interrupted has been sent.
	// The returned error is non-nil only if the turn could not be started
	// at all (e.g. a malformed request); mid-stream failures are instead
	// delivered as a final message_stop event whose stop reason is error
	// and whose Error field carries the failure text.
	Receive(ctx context.Context, history []types.Message, msg types.Message, state map[string]any) (<-chan streamevent.Event, error)

	// Interrupt cancels the Driver's in-flight turn, if any. It returns
	// immediately; the stream channel delivers a final interrupted event.
	Interrupt()

	// State returns the Driver's opaque resume cursor as of the last
	// completed turn, to be persisted onto the owning Image.
	State() map[string]any
}
