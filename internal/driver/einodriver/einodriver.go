// Package einodriver implements the Driver contract (spec.md §4.1) on top
// of the Eino ChatModel abstraction (internal/provider) the same way the
// source repository's own internal/session package drove a streaming
// completion loop against eino's schema.StreamReader — generalized here to
// emit the canonical stream-event alphabet instead of building a Message
// directly, and to retry transient failures with
// github.com/cenkalti/backoff/v4 the way the source's internal/session/loop.go
// retried a finish-reason-driven completion loop.
package einodriver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/agentx/agentx/internal/agenterr"
	"github.com/agentx/agentx/internal/permission"
	"github.com/agentx/agentx/internal/provider"
	"github.com/agentx/agentx/internal/streamevent"
	"github.com/agentx/agentx/internal/tool"
	"github.com/agentx/agentx/pkg/types"
)

// Option configures a Driver at construction time.
type Option func(*Driver)

// WithMaxTokens overrides the completion request's max-tokens field.
func WithMaxTokens(n int) Option { return func(d *Driver) { d.maxTokens = n } }

// WithTemperature overrides the completion request's temperature.
func WithTemperature(t float64) Option { return func(d *Driver) { d.temperature = t } }

// WithMaxRounds bounds how many tool-call round-trips one receive() may
// take before the Driver forces a stop, guarding against a model that
// never stops requesting tools.
func WithMaxRounds(n int) Option { return func(d *Driver) { d.maxRounds = n } }

// Driver adapts one provider.Provider plus a tool.Registry into the
// spec.md §4.1 Driver contract. Permission enforcement is not this type's
// concern: tools that need it (bash) carry their own permission.Checker
// and return a *permission.RejectedError, which executeTool classifies.
type Driver struct {
	provider provider.Provider
	tools    *tool.Registry
	log      zerolog.Logger
	agentID  string

	maxTokens   int
	temperature float64
	maxRounds   int

	mu     sync.Mutex
	cancel context.CancelFunc
	state  map[string]any
}

// New builds a Driver for one agent.
func New(agentID string, p provider.Provider, tools *tool.Registry, log zerolog.Logger, opts ...Option) *Driver {
	d := &Driver{
		provider:    p,
		tools:       tools,
		log:         log,
		agentID:     agentID,
		maxTokens:   4096,
		temperature: 0.7,
		maxRounds:   25,
		state:       map[string]any{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Receive starts a streaming completion, looping through tool-call rounds
// until the model terminates the step, and returns a channel of stream
// events (spec.md §4.1).
func (d *Driver) Receive(ctx context.Context, history []types.Message, msg types.Message, state map[string]any) (<-chan streamevent.Event, error) {
	if d.provider == nil {
		return nil, errors.New("einodriver: no provider configured")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.mu.Lock()
	d.cancel = cancel
	d.mu.Unlock()

	out := make(chan streamevent.Event, 64)
	conversation := append(append([]types.Message{}, history...), msg)

	go d.run(runCtx, conversation, out)
	return out, nil
}

// Interrupt cancels the in-flight turn; run() observes ctx.Done() at the
// next safe point and emits the terminal interrupted event itself.
func (d *Driver) Interrupt() {
	d.mu.Lock()
	cancel := d.cancel
	d.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// State returns the Driver's resume cursor. Eino's chat-completion
// providers are stateless per call, so the only cursor worth persisting is
// how many messages of the image's history this driver has already seen —
// enough for a future resumed Driver to skip re-validating them.
func (d *Driver) State() map[string]any {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[string]any, len(d.state))
	for k, v := range d.state {
		out[k] = v
	}
	return out
}

func (d *Driver) run(ctx context.Context, conversation []types.Message, out chan<- streamevent.Event) {
	defer close(out)

	for round := 0; round < d.maxRounds; round++ {
		select {
		case <-ctx.Done():
			d.emit(out, streamevent.Interrupted, streamevent.InterruptedData{Reason: "interrupted before round"})
			return
		default:
		}

		assistantMsg, toolCalls, stopReason, err := d.runOneRound(ctx, conversation, out)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				d.emit(out, streamevent.Interrupted, streamevent.InterruptedData{})
				return
			}
			classified := agenterr.ClassifyDriverError(err)
			d.emit(out, streamevent.MessageStop, streamevent.MessageStopData{StopReason: streamevent.StopError, Error: classified.Error()})
			return
		}

		conversation = append(conversation, assistantMsg)

		if stopReason != streamevent.StopToolCalls {
			d.mu.Lock()
			d.state["lastMessageCount"] = len(conversation)
			d.mu.Unlock()
			return
		}

		for _, call := range toolCalls {
			select {
			case <-ctx.Done():
				d.emit(out, streamevent.Interrupted, streamevent.InterruptedData{})
				return
			default:
			}

			resultMsg := d.executeTool(ctx, call, out)
			conversation = append(conversation, resultMsg)
		}
	}

	d.emit(out, streamevent.MessageStop, streamevent.MessageStopData{StopReason: streamevent.StopMaxTokens, Error: "max tool-call rounds exceeded"})
}

// runOneRound drives one streaming completion call to its end, emitting
// message_start/text/tool-use events as they resolve, and returns the
// finalized assistant Message plus any tool calls the model requested.
// Transient provider failures are retried with exponential backoff the way
// the source repository retried its own completion loop.
func (d *Driver) runOneRound(ctx context.Context, conversation []types.Message, out chan<- streamevent.Event) (types.Message, []types.ToolCallPart, streamevent.StopReason, error) {
	toolInfos, err := d.tools.ToolInfos()
	if err != nil {
		return types.Message{}, nil, "", err
	}

	req := &provider.CompletionRequest{
		Messages:    provider.ConvertToEinoMessages(conversation),
		Tools:       toolInfos,
		MaxTokens:   d.maxTokens,
		Temperature: d.temperature,
	}

	var stream *provider.CompletionStream
	retry := backoff.WithContext(backoff.NewExponentialBackOff(), ctx)
	err = backoff.Retry(func() error {
		s, e := d.provider.CreateCompletion(ctx, req)
		if e != nil {
			classified := agenterr.ClassifyDriverError(e)
			if !classified.Recoverable {
				return backoff.Permanent(e)
			}
			return e
		}
		stream = s
		return nil
	}, retry)
	if err != nil {
		return types.Message{}, nil, "", err
	}
	defer stream.Close()

	messageID := types.NewID(types.PrefixEvent)
	d.emit(out, streamevent.MessageStart, streamevent.MessageStartData{MessageID: messageID})

	var (
		textFull    string
		textOpen    bool
		toolOrder   []int
		toolBuilder = map[int]*toolCallAccum{}
		fallbackIdx = -1000000
		stopReason  = streamevent.StopNormal
	)

	for {
		chunk, recvErr := stream.Recv()
		if recvErr == io.EOF {
			break
		}
		if recvErr != nil {
			return types.Message{}, nil, "", recvErr
		}

		if delta := accumulateText(&textFull, chunk.Content); delta != "" {
			if !textOpen {
				d.emit(out, streamevent.TextContentBlockStart, nil)
				textOpen = true
			}
			d.emit(out, streamevent.TextDelta, streamevent.TextDeltaData{Text: delta})
		}

		for i, tc := range chunk.ToolCalls {
			idx := fallbackIdx
			if tc.Index != nil {
				idx = *tc.Index
			} else {
				idx = fallbackIdx + i
			}
			b, ok := toolBuilder[idx]
			if !ok {
				b = &toolCallAccum{id: tc.ID, name: tc.Function.Name}
				toolBuilder[idx] = b
				toolOrder = append(toolOrder, idx)
				d.emit(out, streamevent.ToolUseContentBlockStart, streamevent.ToolUseContentBlockStartData{ToolCallID: b.id, ToolName: b.name})
			}
			if tc.ID != "" {
				b.id = tc.ID
			}
			if tc.Function.Name != "" {
				b.name = tc.Function.Name
			}
			if tc.Function.Arguments != "" {
				b.args.WriteString(tc.Function.Arguments)
				d.emit(out, streamevent.InputJSONDelta, streamevent.InputJSONDeltaData{PartialJSON: tc.Function.Arguments})
			}
		}

		if chunk.ResponseMeta != nil && chunk.ResponseMeta.FinishReason != "" {
			stopReason = mapFinishReason(chunk.ResponseMeta.FinishReason)
		}
	}

	if textOpen {
		d.emit(out, streamevent.TextContentBlockStop, nil)
	}

	var parts []types.ContentPart
	if textFull != "" {
		parts = append(parts, types.ContentPart{Type: types.PartText, Text: &types.TextPart{Text: textFull}})
	}

	var calls []types.ToolCallPart
	for _, idx := range toolOrder {
		b := toolBuilder[idx]
		input := map[string]any{}
		if b.args.Len() > 0 {
			if jsonErr := json.Unmarshal(b.args.Bytes(), &input); jsonErr != nil {
				input = map[string]any{}
			}
		}
		call := types.ToolCallPart{ID: b.id, Name: b.name, Input: input}
		calls = append(calls, call)
		parts = append(parts, types.ContentPart{Type: types.PartToolCall, ToolCall: &call})
		d.emit(out, streamevent.ToolUseContentBlockStop, streamevent.ToolUseContentBlockStopData{ToolCallID: call.ID, ToolName: call.Name, Input: input})
	}

	if len(calls) > 0 {
		stopReason = streamevent.StopToolCalls
	}

	// Ordering contract (spec.md §4.1): message_stop(tool-calls) must
	// precede the first tool_result of this step.
	d.emit(out, streamevent.MessageStop, streamevent.MessageStopData{StopReason: stopReason})

	for _, call := range calls {
		d.emit(out, streamevent.ToolCall, streamevent.ToolCallData{ToolCallID: call.ID, ToolName: call.Name, Input: call.Input})
	}

	now := time.Now().UnixMilli()
	assistantMsg := types.Message{
		ID:        types.NewID(types.PrefixMessage),
		Type:      types.MessageAssistant,
		Role:      "assistant",
		Timestamp: now,
		Assistant: &types.AssistantMessage{Content: types.PartsContent(parts...), StopReason: string(stopReason)},
	}

	return assistantMsg, calls, stopReason, nil
}

// executeTool runs one requested tool call through the shared registry,
// classifying its outcome into a tool_result stream event and a durable
// ToolResultMessage (spec.md §4.3). Permission is enforced inside the tool
// itself (internal/tool/bash.go); a RejectedError is classified as
// execution-denied.
func (d *Driver) executeTool(ctx context.Context, call types.ToolCallPart, out chan<- streamevent.Event) types.Message {
	now := time.Now().UnixMilli()

	t, ok := d.tools.Get(call.Name)
	if !ok {
		output := types.ClassifyToolResult("tool not found: "+call.Name, true)
		d.emit(out, streamevent.ToolResult, streamevent.ToolResultData{ToolCallID: call.ID, Result: output.Value, IsError: true})
		return toolResultMessage(call.ID, output, now)
	}

	input, _ := json.Marshal(call.Input)
	toolCtx := &tool.Context{AgentID: d.agentID, CallID: call.ID}
	result, err := t.Execute(ctx, input, toolCtx)

	var output types.ToolResultOutput
	switch {
	case err != nil && permission.IsRejectedError(err):
		rej := err.(*permission.RejectedError)
		output = types.ExecutionDenied(rej.Message)
		d.emit(out, streamevent.ToolResult, streamevent.ToolResultData{ToolCallID: call.ID, Result: rej.Message, IsError: true})
	case err != nil:
		output = types.ClassifyToolResult(err.Error(), true)
		d.emit(out, streamevent.ToolResult, streamevent.ToolResultData{ToolCallID: call.ID, Result: err.Error(), IsError: true})
	default:
		output = types.ClassifyToolResult(result.Output, false)
		d.emit(out, streamevent.ToolResult, streamevent.ToolResultData{ToolCallID: call.ID, Result: result.Output, IsError: false})
	}

	return toolResultMessage(call.ID, output, now)
}

func toolResultMessage(callID string, output types.ToolResultOutput, ts int64) types.Message {
	return types.Message{
		ID:         types.NewID(types.PrefixMessage),
		Type:       types.MessageToolResult,
		Role:       "tool",
		Timestamp:  ts,
		ToolResult: &types.ToolResultMessage{ToolCallID: callID, Output: output},
	}
}

func (d *Driver) emit(out chan<- streamevent.Event, typ streamevent.Type, data any) {
	out <- streamevent.Event{
		Type:      typ,
		UUID:      types.NewID(types.PrefixEvent),
		AgentID:   d.agentID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

type toolCallAccum struct {
	id   string
	name string
	args strings.Builder
}

// accumulateText detects whether a provider's streaming chunk carries an
// incremental delta or the full accumulated text so far — providers differ
// (the source repository's internal/session/stream.go applied the same
// prefix heuristic against its own eino chunk stream) — and returns only
// the newly-seen fragment, updating full in place.
func accumulateText(full *string, chunkContent string) string {
	if chunkContent == "" {
		return ""
	}
	if strings.HasPrefix(chunkContent, *full) {
		delta := chunkContent[len(*full):]
		*full = chunkContent
		return delta
	}
	*full += chunkContent
	return chunkContent
}

func mapFinishReason(reason string) streamevent.StopReason {
	switch strings.ToLower(reason) {
	case "tool_use", "tool-calls", "tool_calls":
		return streamevent.StopToolCalls
	case "length", "max_tokens":
		return streamevent.StopLength
	case "stop", "end_turn", "":
		return streamevent.StopNormal
	default:
		return streamevent.StopNormal
	}
}
