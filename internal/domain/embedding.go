package domain

import (
	"context"
	"fmt"
)

// EmbedMode distinguishes indexing text from query text. Some providers
// encode the two differently, so the mode is a required parameter.
type EmbedMode string

// Embedding mode constants.
const (
	// ModeIndex embeds catalog text for storage.
	ModeIndex EmbedMode = "index"
	// ModeQuery embeds user query text for retrieval.
	ModeQuery EmbedMode = "query"
)

// IsValid checks if the mode is one of the supported values.
func (m EmbedMode) IsValid() bool {
	return m == ModeIndex || m == ModeQuery
}

// Embedder is the shared text vectorization contract between layers.
type Embedder interface {
	Embed(ctx context.Context, text string, mode EmbedMode) (EmbeddingResult, error)
}

// HealthChecker verifies external provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token usage through the decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// InstructionEmbedder is a domain decorator that prepends a per-mode
// instruction before embedding.
type InstructionEmbedder struct {
	inner            Embedder
	indexInstruction string
	queryInstruction string
}

// NewInstructionEmbedder creates a decorator with per-mode instruction prefixes.
// Empty instructions pass text through unchanged.
func NewInstructionEmbedder(inner Embedder, indexInstruction, queryInstruction string) *InstructionEmbedder {
	return &InstructionEmbedder{
		inner:            inner,
		indexInstruction: indexInstruction,
		queryInstruction: queryInstruction,
	}
}

// Embed prepends the instruction for the given mode and delegates to the inner embedder.
func (e *InstructionEmbedder) Embed(ctx context.Context, text string, mode EmbedMode) (EmbeddingResult, error) {
	if !mode.IsValid() {
		return EmbeddingResult{}, NewValidationError("mode", fmt.Sprintf("invalid embed mode %q", mode))
	}

	instruction := e.indexInstruction
	if mode == ModeQuery {
		instruction = e.queryInstruction
	}

	result, err := e.inner.Embed(ctx, instruction+text, mode)
	if err != nil {
		return EmbeddingResult{}, fmt.Errorf("instruction embed: %w", err)
	}
	return result, nil
}
