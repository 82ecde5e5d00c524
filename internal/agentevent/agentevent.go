// Package agentevent defines the State, Message and Turn event tiers
// produced by the Engine (spec.md §4.2, §4.4, §4.5) that sit above the raw
// streamevent.Event alphabet. Every value here is carried as the Data
// payload of a bus.Event whose Type is one of the string constants below.
package agentevent

import "github.com/agentx/agentx/pkg/types"

// State event types (spec.md §4.4).
const (
	ConversationQueued      = "conversation_queued"
	ConversationStart       = "conversation_start"
	ConversationResponding  = "conversation_responding"
	ToolPlanned             = "tool_planned"
	ToolExecuting           = "tool_executing"
	ToolCompleted           = "tool_completed"
	ToolFailed              = "tool_failed"
	ConversationThinking    = "conversation_thinking"
	ConversationEnd         = "conversation_end"
	ConversationInterrupted = "conversation_interrupted"
	ErrorOccurred           = "error_occurred"
)

// StateEvent is the payload of every state event: the target state the
// Agent's state machine should transition to.
type StateEvent struct {
	AgentID    string           `json:"agentId"`
	TargetState types.AgentState `json:"targetState"`
}

// Message event types (spec.md §4.2).
const (
	UserMessageEvent       = "user_message"
	AssistantMessageEvent  = "assistant_message"
	ToolCallMessageEvent   = "tool_call_message"
	ToolResultMessageEvent = "tool_result_message"
)

// MessageEvent is the payload of every message event: the full assembled
// Message.
type MessageEvent struct {
	AgentID string        `json:"agentId"`
	Message types.Message `json:"message"`
}

// Turn event types (spec.md §4.5).
const (
	TurnRequestEvent  = "turn_request"
	TurnResponseEvent = "turn_response"
)

// TurnRequest opens a turn: the user message that started it.
type TurnRequest struct {
	AgentID string        `json:"agentId"`
	Message types.Message `json:"message"`
}

// TokenUsage mirrors what a Driver may report for a completed turn.
type TokenUsage struct {
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`
}

// TurnResponse closes a turn: the full grouped transcript from the
// triggering user message through the terminal assistant output,
// including any intermediate tool-call/tool-result messages.
type TurnResponse struct {
	AgentID    string          `json:"agentId"`
	Transcript []types.Message `json:"transcript"`
	Usage      *TokenUsage     `json:"usage,omitempty"`
}

// Independent error event (spec.md §7) — not part of the state/message/turn
// hierarchy, but dispatched on the same bus.
const ErrorEvent = "error"

// Other bus event types referenced by the Agent Instance/Network Bridge.
const (
	InterruptAgentEvent = "interrupt_agent"
)
