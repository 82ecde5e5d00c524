// Package provider provides LLM provider abstraction using Eino framework.
package provider

import (
	"context"
	"encoding/json"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/agentx/agentx/pkg/types"
)

// Provider represents an LLM provider with Eino ChatModel.
type Provider interface {
	// ID returns the provider identifier.
	ID() string

	// Name returns the human-readable provider name.
	Name() string

	// Models returns the list of available models.
	Models() []types.Model

	// ChatModel returns the Eino ChatModel for this provider.
	ChatModel() model.ToolCallingChatModel

	// CreateCompletion creates a streaming completion.
	CreateCompletion(ctx context.Context, req *CompletionRequest) (*CompletionStream, error)
}

// CompletionRequest represents a request to generate a completion.
type CompletionRequest struct {
	Model       string            `json:"model"`
	Messages    []*schema.Message `json:"messages"`
	Tools       []*schema.ToolInfo `json:"tools,omitempty"`
	MaxTokens   int               `json:"maxTokens,omitempty"`
	Temperature float64           `json:"temperature,omitempty"`
	TopP        float64           `json:"topP,omitempty"`
	StopWords   []string          `json:"stopWords,omitempty"`
}

// CompletionStream wraps an Eino stream reader.
type CompletionStream struct {
	reader *schema.StreamReader[*schema.Message]
}

// NewCompletionStream creates a new completion stream.
func NewCompletionStream(reader *schema.StreamReader[*schema.Message]) *CompletionStream {
	return &CompletionStream{reader: reader}
}

// Recv receives the next message chunk from the stream.
func (s *CompletionStream) Recv() (*schema.Message, error) {
	return s.reader.Recv()
}

// Close closes the stream.
func (s *CompletionStream) Close() {
	s.reader.Close()
}

// ToolInfo represents a tool definition for the LLM.
type ToolInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"` // JSON Schema
}

// ConvertToEinoTools converts internal tool definitions to Eino format.
func ConvertToEinoTools(tools []ToolInfo) []*schema.ToolInfo {
	result := make([]*schema.ToolInfo, len(tools))
	for i, t := range tools {
		// Parse parameters from JSON schema
		var params map[string]*schema.ParameterInfo
		if len(t.Parameters) > 0 {
			params = parseJSONSchemaToParams(t.Parameters)
		}

		result[i] = &schema.ToolInfo{
			Name: t.Name,
			Desc: t.Description,
			ParamsOneOf: schema.NewParamsOneOfByParams(params),
		}
	}
	return result
}

// parseJSONSchemaToParams converts JSON Schema to Eino ParameterInfo.
func parseJSONSchemaToParams(schemaJSON json.RawMessage) map[string]*schema.ParameterInfo {
	var jsonSchema struct {
		Properties map[string]struct {
			Type        string `json:"type"`
			Description string `json:"description"`
		} `json:"properties"`
		Required []string `json:"required"`
	}

	if err := json.Unmarshal(schemaJSON, &jsonSchema); err != nil {
		return nil
	}

	requiredSet := make(map[string]bool)
	for _, r := range jsonSchema.Required {
		requiredSet[r] = true
	}

	params := make(map[string]*schema.ParameterInfo)
	for name, prop := range jsonSchema.Properties {
		paramType := schema.String
		switch prop.Type {
		case "integer":
			paramType = schema.Integer
		case "number":
			paramType = schema.Number
		case "boolean":
			paramType = schema.Boolean
		case "array":
			paramType = schema.Array
		case "object":
			paramType = schema.Object
		}

		params[name] = &schema.ParameterInfo{
			Type:     paramType,
			Desc:     prop.Description,
			Required: requiredSet[name],
		}
	}

	return params
}

// ConvertFromEinoMessage converts an Eino message chunk into a bare
// AgentX Message shell carrying only role and type; callers fill content
// via the Message Assembler instead of from a single non-streaming chunk.
func ConvertFromEinoMessage(msg *schema.Message) *types.Message {
	switch msg.Role {
	case schema.User:
		return &types.Message{Type: types.MessageUser, Role: "user"}
	case schema.System:
		return &types.Message{Type: types.MessageSystem, Role: "system"}
	case schema.Tool:
		return &types.Message{Type: types.MessageToolResult, Role: "tool"}
	default:
		return &types.Message{Type: types.MessageAssistant, Role: "assistant"}
	}
}

// ConvertToEinoMessages renders an AgentX Image's message history into the
// flat schema.Message sequence Eino's ChatModel expects, splitting each
// ContentPart kind into the corresponding Eino field.
func ConvertToEinoMessages(messages []types.Message) []*schema.Message {
	result := make([]*schema.Message, 0, len(messages))

	for _, msg := range messages {
		switch msg.Type {
		case types.MessageUser:
			result = append(result, &schema.Message{Role: schema.User, Content: contentText(msg.User.Content)})
		case types.MessageSystem:
			result = append(result, &schema.Message{Role: schema.System, Content: contentText(msg.System.Content)})
		case types.MessageAssistant:
			result = append(result, &schema.Message{Role: schema.Assistant, Content: contentText(msg.Assistant.Content)})
		case types.MessageToolCall:
			inputJSON, _ := json.Marshal(msg.ToolCall.Call.Input)
			result = append(result, &schema.Message{
				Role: schema.Assistant,
				ToolCalls: []schema.ToolCall{{
					ID:       msg.ToolCall.Call.ID,
					Function: schema.FunctionCall{Name: msg.ToolCall.Call.Name, Arguments: string(inputJSON)},
				}},
			})
		case types.MessageToolResult:
			content := ""
			switch msg.ToolResult.Output.Type {
			case types.OutputText, types.OutputErrorText:
				if s, ok := msg.ToolResult.Output.Value.(string); ok {
					content = s
				}
			case types.OutputJSON, types.OutputErrorJSON:
				b, _ := json.Marshal(msg.ToolResult.Output.Value)
				content = string(b)
			case types.OutputExecutionDenied:
				content = "execution denied: " + msg.ToolResult.Output.Reason
			}
			result = append(result, &schema.Message{
				Role:       schema.Tool,
				Content:    content,
				ToolCallID: msg.ToolResult.ToolCallID,
			})
		}
	}

	return result
}

// contentText flattens a Content into plain text for providers that only
// consume a flat string; multi-part (image/file) content degrades to its
// text parts only.
func contentText(c types.Content) string {
	if c.Text != nil {
		return *c.Text
	}
	var out string
	for _, p := range c.Parts {
		if p.Type == types.PartText && p.Text != nil {
			out += p.Text.Text
		}
	}
	return out
}
