// Package assembler implements the Message Assembler pure transducer of
// spec.md §4.2: stream events in, assembled Messages out. It owns the
// partial-message state machine the source repository's stream processor
// built ad hoc inline (internal/session/stream.go's open/accumulate/close
// pattern for text and tool-use blocks), made explicit and reusable.
package assembler

import (
	"encoding/json"

	"github.com/agentx/agentx/internal/agentevent"
	"github.com/agentx/agentx/internal/streamevent"
	"github.com/agentx/agentx/pkg/types"
)

// blockKind tracks which content block is currently open.
type blockKind int

const (
	blockNone blockKind = iota
	blockText
	blockToolUse
)

// Output is one message event emitted by the assembler.
type Output struct {
	Type    string
	Message types.Message
}

// pendingToolCall accumulates a tool call's streamed input.
type pendingToolCall struct {
	id          string
	name        string
	inputBuf    string
	finalized   bool
	finalInput  map[string]any
}

// Assembler holds the currently-building assistant message for exactly one
// agent. It is not safe for concurrent use, matching the single-logical-
// thread-per-agent guarantee spec.md §5 already requires of its caller.
type Assembler struct {
	messageID string
	open      bool
	parts     []types.ContentPart

	block        blockKind
	textBuf      string
	currentTool  *pendingToolCall
	toolsByID    map[string]*pendingToolCall
}

// New creates a fresh, empty Assembler.
func New() *Assembler {
	return &Assembler{toolsByID: make(map[string]*pendingToolCall)}
}

// Process consumes one stream event and returns zero or more message
// events. Determinism (P5): identical input sequences against a fresh
// Assembler always yield byte-identical output.
func (a *Assembler) Process(ev streamevent.Event) []Output {
	switch ev.Type {
	case streamevent.MessageStart:
		data, _ := ev.Data.(streamevent.MessageStartData)
		a.begin(data.MessageID)
		return nil

	case streamevent.TextContentBlockStart:
		a.openText()
		return nil

	case streamevent.TextDelta:
		data, _ := ev.Data.(streamevent.TextDeltaData)
		a.appendText(data.Text)
		return nil

	case streamevent.TextContentBlockStop:
		a.closeText()
		return nil

	case streamevent.ToolUseContentBlockStart:
		data, _ := ev.Data.(streamevent.ToolUseContentBlockStartData)
		a.openToolCall(data.ToolCallID, data.ToolName)
		return nil

	case streamevent.InputJSONDelta:
		data, _ := ev.Data.(streamevent.InputJSONDeltaData)
		a.appendToolInput(data.PartialJSON)
		return nil

	case streamevent.ToolUseContentBlockStop:
		data, _ := ev.Data.(streamevent.ToolUseContentBlockStopData)
		a.finalizeToolCall(data.ToolCallID, data.ToolName, data.Input)
		return nil

	case streamevent.ToolCall:
		// Idempotent confirmation: no-op if already finalized by ..._stop.
		return nil

	case streamevent.MessageStop:
		data, _ := ev.Data.(streamevent.MessageStopData)
		msg := a.seal(string(data.StopReason))
		return []Output{{Type: agentevent.AssistantMessageEvent, Message: msg}}

	case streamevent.ToolResult:
		data, _ := ev.Data.(streamevent.ToolResultData)
		output := types.ClassifyToolResult(data.Result, data.IsError)
		msg := types.Message{
			ID:      types.NewID(types.PrefixMessage),
			Type:    types.MessageToolResult,
			Role:    "tool",
			ToolResult: &types.ToolResultMessage{
				ToolCallID: data.ToolCallID,
				Output:     output,
			},
			Timestamp: ev.Timestamp,
		}
		return []Output{{Type: agentevent.ToolResultMessageEvent, Message: msg}}

	case streamevent.Interrupted:
		if a.open {
			msg := a.seal(string(streamevent.StopInterrupted))
			return []Output{{Type: agentevent.AssistantMessageEvent, Message: msg}}
		}
		return nil
	}
	return nil
}

func (a *Assembler) begin(messageID string) {
	a.messageID = messageID
	a.open = true
	a.parts = nil
	a.block = blockNone
	a.textBuf = ""
	a.currentTool = nil
	a.toolsByID = make(map[string]*pendingToolCall)
}

func (a *Assembler) openText() {
	if a.block == blockText {
		return
	}
	a.flushCurrentToolIfOpen()
	a.block = blockText
	a.textBuf = ""
}

// appendText appends to the open text part, implicitly opening one if
// none is open (spec.md §4.2).
func (a *Assembler) appendText(text string) {
	if a.block != blockText {
		a.openText()
	}
	a.textBuf += text
}

func (a *Assembler) closeText() {
	if a.block != blockText {
		return
	}
	a.parts = append(a.parts, types.ContentPart{
		Type: types.PartText,
		Text: &types.TextPart{Text: a.textBuf},
	})
	a.textBuf = ""
	a.block = blockNone
}

func (a *Assembler) openToolCall(id, name string) {
	a.flushCurrentToolIfOpen()
	a.block = blockToolUse
	a.currentTool = &pendingToolCall{id: id, name: name}
	a.toolsByID[id] = a.currentTool
}

func (a *Assembler) appendToolInput(partialJSON string) {
	if a.currentTool == nil {
		return
	}
	a.currentTool.inputBuf += partialJSON
}

// finalizeToolCall closes a tool-use block with its structured input. A
// JSON parse failure yields an empty object rather than dropping the tool
// call; the failure itself is not recorded anywhere.
func (a *Assembler) finalizeToolCall(id, name string, input map[string]any) {
	tc, ok := a.toolsByID[id]
	if !ok {
		tc = &pendingToolCall{id: id, name: name}
		a.toolsByID[id] = tc
	}
	if tc.finalized {
		return
	}
	if input == nil {
		input = parseAccumulatedInput(tc.inputBuf)
	}
	tc.finalInput = input
	tc.finalized = true
	a.parts = append(a.parts, types.ContentPart{
		Type:     types.PartToolCall,
		ToolCall: &types.ToolCallPart{ID: id, Name: tc.name, Input: input},
	})
	if a.currentTool == tc {
		a.currentTool = nil
		a.block = blockNone
	}
}

func parseAccumulatedInput(buf string) map[string]any {
	if buf == "" {
		return map[string]any{}
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(buf), &out); err != nil {
		return map[string]any{}
	}
	return out
}

// flushCurrentToolIfOpen finalizes a tool-use block whose ..._stop never
// arrived (e.g. the stream ended mid-call), using whatever was
// accumulated so far.
func (a *Assembler) flushCurrentToolIfOpen() {
	if a.block == blockToolUse && a.currentTool != nil && !a.currentTool.finalized {
		a.finalizeToolCall(a.currentTool.id, a.currentTool.name, nil)
	}
}

// seal closes any still-open block and emits the accumulated assistant
// message, then resets the builder for the next turn.
func (a *Assembler) seal(stopReason string) types.Message {
	if a.block == blockText {
		a.closeText()
	}
	a.flushCurrentToolIfOpen()

	msg := types.Message{
		ID:   a.messageID,
		Type: types.MessageAssistant,
		Role: "assistant",
		Assistant: &types.AssistantMessage{
			Content:    types.PartsContent(a.parts...),
			StopReason: stopReason,
		},
	}

	a.open = false
	a.parts = nil
	a.block = blockNone
	a.textBuf = ""
	a.currentTool = nil
	a.toolsByID = make(map[string]*pendingToolCall)

	return msg
}
