package domain

import (
	"context"
	"encoding/json"

	"github.com/kailas-cloud/grantix/internal/domain/tier"
)

// ChatRole identifies the author of a chat message.
type ChatRole string

// Chat role constants (OpenAI-compatible wire values).
const (
	RoleSystem    ChatRole = "system"
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
	RoleTool      ChatRole = "tool"
)

// ChatModel is the language model contract consumed by the orchestrator.
type ChatModel interface {
	Generate(ctx context.Context, req ChatRequest) (ChatResponse, error)
}

// ChatMessage is one entry of the model context.
type ChatMessage struct {
	Role    ChatRole
	Content string
	// ToolCalls are set on assistant messages that requested tool execution.
	ToolCalls []ToolCall
	// ToolCallID links a tool-role message to the call it answers.
	ToolCallID string
}

// ToolCall is a structured request from the model to execute a named operation.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ToolSchema describes one callable tool exposed to the model.
type ToolSchema struct {
	Name        string
	Description string
	// Parameters is a JSON Schema object describing the arguments.
	Parameters json.RawMessage
}

// ChatRequest is one model invocation: tier, assembled context, and bound tools.
type ChatRequest struct {
	Tier     tier.Tier
	Messages []ChatMessage
	Tools    []ToolSchema
}

// ChatUsage carries token usage for one model invocation.
type ChatUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// ChatResponse is the model's reply: text, tool-call requests, or both.
type ChatResponse struct {
	Text      string
	ToolCalls []ToolCall
	Usage     ChatUsage
}
