package types

// MessageType is the discriminant of the Message tagged union. The split
// variant — separate tool-call and tool-result messages rather than a single
// merged tool-use message — is a deliberate choice: it is the only shape
// under which a message sequence can strictly alternate user/assistant
// (see the alternation invariant below) and it is what the assembler and
// turn tracker are built against.
type MessageType string

const (
	MessageUser       MessageType = "user"
	MessageAssistant  MessageType = "assistant"
	MessageToolCall   MessageType = "tool-call"
	MessageToolResult MessageType = "tool-result"
	MessageSystem     MessageType = "system"
)

// Message is the tagged variant over {user, assistant, tool-call,
// tool-result, system}. Every variant carries ID, Role, Subtype and
// Timestamp; exactly one of the payload fields below is populated,
// matching the message Type.
type Message struct {
	ID        string      `json:"id"`
	Type      MessageType `json:"type"`
	Role      string      `json:"role"`
	Subtype   string      `json:"subtype,omitempty"`
	Timestamp int64       `json:"timestamp"`

	User       *UserMessage       `json:"user,omitempty"`
	Assistant  *AssistantMessage  `json:"assistant,omitempty"`
	ToolCall   *ToolCallMessage   `json:"toolCall,omitempty"`
	ToolResult *ToolResultMessage `json:"toolResult,omitempty"`
	System     *SystemMessage     `json:"system,omitempty"`
}

// IsAssistantEquivalent reports whether this message counts as the
// "assistant" side of the strict user/assistant alternation (P3): only
// assistant messages do; tool-result messages count as user-equivalent.
func (m Message) IsAssistantEquivalent() bool {
	return m.Type == MessageAssistant
}

// IsUserEquivalent reports the other side of the alternation: user and
// tool-result messages are grouped together, per spec.md §3.
func (m Message) IsUserEquivalent() bool {
	return m.Type == MessageUser || m.Type == MessageToolResult
}

// Content is the shared shape for user/assistant/system message bodies:
// either plain text, or an ordered list of parts. Exactly one is set.
type Content struct {
	Text  *string       `json:"text,omitempty"`
	Parts []ContentPart `json:"parts,omitempty"`
}

// TextContent builds a plain-text Content value.
func TextContent(text string) Content {
	return Content{Text: &text}
}

// PartsContent builds an ordered-parts Content value.
func PartsContent(parts ...ContentPart) Content {
	return Content{Parts: parts}
}

// ContentPartType discriminates ContentPart.
type ContentPartType string

const (
	PartText     ContentPartType = "text"
	PartImage    ContentPartType = "image"
	PartFile     ContentPartType = "file"
	PartThinking ContentPartType = "thinking"
	PartToolCall ContentPartType = "tool-call"
)

// ContentPart is one element of an ordered content list. Order is
// significant and must be preserved on round-trip (spec.md §3).
type ContentPart struct {
	Type ContentPartType `json:"type"`

	Text     *TextPart     `json:"text,omitempty"`
	Image    *ImagePart    `json:"image,omitempty"`
	File     *FilePart     `json:"file,omitempty"`
	Thinking *ThinkingPart `json:"thinking,omitempty"`
	ToolCall *ToolCallPart `json:"toolCall,omitempty"`
}

type TextPart struct {
	Text string `json:"text"`
}

type ImagePart struct {
	Data      string `json:"data"`
	MediaType string `json:"mediaType"`
	Name      string `json:"name,omitempty"`
}

type FilePart struct {
	Data      string `json:"data"`
	MediaType string `json:"mediaType"`
	Filename  string `json:"filename,omitempty"`
}

type ThinkingPart struct {
	Reasoning string `json:"reasoning"`
}

// ToolCallPart is the structured payload of a tool invocation: both the
// tool-call part embedded in an assistant message's content and the sole
// payload of a standalone tool-call message use this shape.
type ToolCallPart struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Input map[string]any `json:"input"`
}

// UserMessage carries text or an ordered list of {text|image|file} parts.
type UserMessage struct {
	Content Content `json:"content"`
}

// AssistantMessage carries text or an ordered list of
// {text|thinking|tool-call|image|file} parts.
type AssistantMessage struct {
	Content    Content `json:"content"`
	StopReason string  `json:"stopReason,omitempty"`
}

// SystemMessage carries operator-supplied context, shaped like UserMessage.
type SystemMessage struct {
	Content Content `json:"content"`
}

// ToolCallMessage is a standalone message wrapping exactly one tool call.
type ToolCallMessage struct {
	Call ToolCallPart `json:"call"`
}

// ToolResultMessage pairs a tool-call ID with its classified output.
type ToolResultMessage struct {
	ToolCallID string           `json:"toolCallId"`
	Output     ToolResultOutput `json:"output"`
}

// ToolResultOutputType discriminates ToolResultOutput (spec.md §4.3).
type ToolResultOutputType string

const (
	OutputText           ToolResultOutputType = "text"
	OutputJSON           ToolResultOutputType = "json"
	OutputErrorText      ToolResultOutputType = "error-text"
	OutputErrorJSON      ToolResultOutputType = "error-json"
	OutputExecutionDenied ToolResultOutputType = "execution-denied"
)

// ToolResultOutput is the tagged variant classifying how a tool's raw
// (result, isError) pair is represented.
type ToolResultOutput struct {
	Type ToolResultOutputType `json:"type"`

	// Value holds the result payload for text/json/error-text/error-json.
	Value any `json:"value,omitempty"`
	// Reason holds the denial explanation for execution-denied.
	Reason string `json:"reason,omitempty"`
}

// ClassifyToolResult implements the classification table in spec.md §4.3.
func ClassifyToolResult(result any, isError bool) ToolResultOutput {
	if s, ok := result.(string); ok {
		if isError {
			return ToolResultOutput{Type: OutputErrorText, Value: s}
		}
		return ToolResultOutput{Type: OutputText, Value: s}
	}
	if isError {
		return ToolResultOutput{Type: OutputErrorJSON, Value: result}
	}
	return ToolResultOutput{Type: OutputJSON, Value: result}
}

// ExecutionDenied builds the sentinel classification for a tool invocation
// blocked by the permission gate rather than executed.
func ExecutionDenied(reason string) ToolResultOutput {
	return ToolResultOutput{Type: OutputExecutionDenied, Reason: reason}
}
