// Package streamevent defines the finest-grained event alphabet emitted by
// a Driver (spec.md §4.1). The shape is a tag field plus variant structs —
// the same idiom the source provider package used for its own stream
// events, generalized to the full canonical alphabet.
package streamevent

// Type discriminates a stream Event.
type Type string

const (
	MessageStart             Type = "message_start"
	TextContentBlockStart    Type = "text_content_block_start"
	TextDelta                Type = "text_delta"
	TextContentBlockStop     Type = "text_content_block_stop"
	ToolUseContentBlockStart Type = "tool_use_content_block_start"
	InputJSONDelta           Type = "input_json_delta"
	ToolUseContentBlockStop  Type = "tool_use_content_block_stop"
	ToolCall                 Type = "tool_call"
	ToolResult               Type = "tool_result"
	MessageStop              Type = "message_stop"
	Interrupted              Type = "interrupted"
)

// StopReason enumerates the terminal reasons carried by a message_stop event.
type StopReason string

const (
	StopNormal      StopReason = "stop"
	StopToolCalls   StopReason = "tool-calls"
	StopMaxTokens   StopReason = "max-tokens"
	StopLength      StopReason = "length"
	StopError       StopReason = "error"
	StopInterrupted StopReason = "interrupted"
)

// Event is one item in the lazy sequence a Driver yields. All variants
// carry Type, UUID, AgentID and Timestamp; Data holds the variant payload.
type Event struct {
	Type      Type   `json:"type"`
	UUID      string `json:"uuid"`
	AgentID   string `json:"agentId"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
}

// MessageStartData is the payload of a message_start event.
type MessageStartData struct {
	MessageID string `json:"messageId"`
	Model     string `json:"model"`
}

// TextDeltaData is the payload of a text_delta event.
type TextDeltaData struct {
	Text string `json:"text"`
}

// ToolUseContentBlockStartData is the payload of a
// tool_use_content_block_start event.
type ToolUseContentBlockStartData struct {
	ToolCallID string `json:"toolCallId"`
	ToolName   string `json:"toolName"`
}

// InputJSONDeltaData is the payload of an input_json_delta event.
type InputJSONDeltaData struct {
	PartialJSON string `json:"partialJson"`
}

// ToolUseContentBlockStopData is the payload of a
// tool_use_content_block_stop event: the tool call is fully received.
type ToolUseContentBlockStopData struct {
	ToolCallID string         `json:"toolCallId"`
	ToolName   string         `json:"toolName"`
	Input      map[string]any `json:"input"`
}

// ToolCallData is the payload of a provider-confirmed tool_call event.
type ToolCallData struct {
	ToolCallID string         `json:"toolCallId"`
	ToolName   string         `json:"toolName"`
	Input      map[string]any `json:"input"`
}

// ToolResultData is the payload of a tool_result event: a tool finished
// executing, with its raw (unclassified) result.
type ToolResultData struct {
	ToolCallID string `json:"toolCallId"`
	Result     any    `json:"result"`
	IsError    bool   `json:"isError"`
}

// MessageStopData is the payload of a message_stop event. Error carries the
// classifiable upstream error text when StopReason is StopError; the Agent
// Instance reads it to build the error_occurred/error event pair (spec.md
// §7) since the channel-based Driver contract has no separate error path.
type MessageStopData struct {
	StopReason StopReason `json:"stopReason"`
	Error      string     `json:"error,omitempty"`
}

// InterruptedData is the payload of an interrupted event.
type InterruptedData struct {
	Reason string `json:"reason,omitempty"`
}
