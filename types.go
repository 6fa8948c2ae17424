package grantix

import (
	"context"
	"encoding/json"
	"time"
)

// Embedder converts query text to a vector embedding.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token counts.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Tier selects the model class for a turn.
type Tier string

// Tier constants.
const (
	TierStandard Tier = "standard"
	TierAdvanced Tier = "advanced"
)

// Role identifies the author of a chat message.
type Role string

// Role constants (OpenAI-compatible wire values).
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry of the model context.
type Message struct {
	Role    Role
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

// ModelRequest is one model invocation: tier, assembled context, and bound tools.
type ModelRequest struct {
	Tier     Tier
	Messages []Message
	Tools    []ToolSchema
}

// TokenUsage carries token counts for one model invocation.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// ModelResponse is the model's reply: text, tool-call requests, or both.
type ModelResponse struct {
	Text      string
	ToolCalls []ToolCall
	Usage     TokenUsage
}

// ChatModel is a language model that powers Ask turns. Implementations must
// honor the request tier and may return tool calls instead of (or alongside)
// text.
type ChatModel interface {
	Generate(ctx context.Context, req ModelRequest) (ModelResponse, error)
}

// Filters narrows retrieval by catalog facets. Nil pointer fields are unset.
// Date bounds use the YYYY-MM-DD form.
type Filters struct {
	Regions       []string
	Sectors       []string
	Beneficiaries []string
	Open          *bool
	MinAmount     *float64
	MaxAmount     *float64
	OpenAfter     string
	OpenBefore    string
}

// AskRequest is one conversational turn.
type AskRequest struct {
	// Message is the user utterance. Required.
	Message string
	// SessionID continues an existing conversation. Empty starts a new one.
	SessionID string
	// Filters constrain what the turn retrieves.
	Filters *Filters
}

// Answer is the engine's reply to one turn.
type Answer struct {
	SessionID      string
	Text           string
	CitedRecordIDs []string
	ModelTier      Tier
	Intent         string
	Confidence     float64
	FollowUps      []string
}

// SearchRequest is a direct hybrid retrieval request, bypassing the model.
type SearchRequest struct {
	Query   string
	Filters *Filters
	// Limit is the page size. Zero uses the engine default.
	Limit int
	// Cursor continues a previous page.
	Cursor string
}

// Match is a single retrieval hit.
type Match struct {
	ID           string
	Title        string
	Organization string
	Similarity   float64
	FusedScore   float64
	FilterMatch  bool
	Boosts       []string
}

// Announcement is a grant announcement from the catalog.
type Announcement struct {
	ID            string
	Title         string
	Organization  string
	Summary       string
	PublishedAt   time.Time
	Regions       []string
	Sectors       []string
	Beneficiaries []string
	AmountMin     *float64
	AmountMax     *float64
	WindowFrom    *time.Time
	WindowTo      *time.Time
	Open          bool
}
