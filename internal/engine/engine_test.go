package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentx/agentx/internal/agentevent"
	"github.com/agentx/agentx/internal/streamevent"
	"github.com/agentx/agentx/pkg/types"
)

func TestEngineTextTurnOrdering(t *testing.T) {
	e := New("agent_1")
	var all []string

	userOut := e.ProcessUserMessage(types.Message{ID: "msg_0", Type: types.MessageUser, User: &types.UserMessage{Content: types.TextContent("Hello")}})
	for _, ev := range userOut {
		all = append(all, ev.Type)
	}

	steps := []streamevent.Event{
		{Type: streamevent.MessageStart, Data: streamevent.MessageStartData{MessageID: "msg_1"}},
		{Type: streamevent.TextContentBlockStart},
		{Type: streamevent.TextDelta, Data: streamevent.TextDeltaData{Text: "Hi "}},
		{Type: streamevent.TextDelta, Data: streamevent.TextDeltaData{Text: "there"}},
		{Type: streamevent.TextContentBlockStop},
		{Type: streamevent.MessageStop, Data: streamevent.MessageStopData{StopReason: streamevent.StopNormal}},
	}
	for _, s := range steps {
		for _, ev := range e.Process(s) {
			all = append(all, ev.Type)
		}
	}

	// S1 ordering: user_message, conversation_queued, then per-step raw
	// pass-throughs with conversation_start/responding interleaved, ending
	// in assistant_message, conversation_end, turn_response.
	require.Equal(t, agentevent.UserMessageEvent, all[0])
	require.Equal(t, agentevent.ConversationQueued, all[1])
	assert.Contains(t, all, agentevent.ConversationStart)
	assert.Contains(t, all, agentevent.ConversationResponding)
	assert.Contains(t, all, agentevent.AssistantMessageEvent)
	assert.Contains(t, all, agentevent.ConversationEnd)
	assert.Equal(t, agentevent.TurnResponseEvent, all[len(all)-1])
}

func TestEngineMessageStopPrecedesToolResult(t *testing.T) {
	e := New("agent_1")
	e.ProcessUserMessage(types.Message{ID: "msg_0", Type: types.MessageUser})

	steps := []streamevent.Event{
		{Type: streamevent.MessageStart, Data: streamevent.MessageStartData{MessageID: "msg_1"}},
		{Type: streamevent.ToolUseContentBlockStart, Data: streamevent.ToolUseContentBlockStartData{ToolCallID: "call_1", ToolName: "bash"}},
		{Type: streamevent.ToolUseContentBlockStop, Data: streamevent.ToolUseContentBlockStopData{ToolCallID: "call_1", ToolName: "bash", Input: map[string]any{}}},
		{Type: streamevent.MessageStop, Data: streamevent.MessageStopData{StopReason: streamevent.StopToolCalls}},
	}
	var stopIdx, resultIdx int = -1, -1
	idx := 0
	for _, s := range steps {
		for _, ev := range e.Process(s) {
			if ev.Type == agentevent.AssistantMessageEvent && stopIdx == -1 {
				stopIdx = idx
			}
			idx++
		}
	}
	for _, ev := range e.Process(streamevent.Event{Type: streamevent.ToolResult, Data: streamevent.ToolResultData{ToolCallID: "call_1", Result: "ok", IsError: false}}) {
		if ev.Type == agentevent.ToolResultMessageEvent {
			resultIdx = idx
		}
		idx++
	}

	require.NotEqual(t, -1, stopIdx)
	require.NotEqual(t, -1, resultIdx)
	assert.Less(t, stopIdx, resultIdx, "P4: message_stop must precede tool_result")
}
