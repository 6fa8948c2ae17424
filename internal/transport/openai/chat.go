package openai

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/grantix/internal/domain"
	"github.com/kailas-cloud/grantix/internal/domain/tier"
	"github.com/kailas-cloud/grantix/internal/metrics"
)

// Chat is a language model adapter over OpenAI-compatible chat completions.
// The tier on each request picks the wire model name.
type Chat struct {
	client     *openai.Client
	models     map[tier.Tier]string
	provider   string
	maxRetries int
	logger     *zap.Logger
}

// ChatConfig holds the chat provider settings.
type ChatConfig struct {
	APIKey        string
	BaseURL       string
	StandardModel string
	AdvancedModel string
	Provider      string
	MaxRetries    int
	Logger        *zap.Logger
}

// NewChat creates an OpenAI-compatible chat provider.
func NewChat(cfg *ChatConfig) *Chat {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Chat{
		client: openai.NewClientWithConfig(clientCfg),
		models: map[tier.Tier]string{
			tier.Standard: cfg.StandardModel,
			tier.Advanced: cfg.AdvancedModel,
		},
		provider:   cfg.Provider,
		maxRetries: cfg.MaxRetries,
		logger:     cfg.Logger,
	}
}

// Generate implements domain.ChatModel. Transient failures are retried with
// bounded exponential backoff before the error escalates to the caller.
func (c *Chat) Generate(ctx context.Context, req domain.ChatRequest) (domain.ChatResponse, error) {
	model, ok := c.models[req.Tier]
	if !ok || model == "" {
		model = c.models[tier.Standard]
	}

	var result domain.ChatResponse
	err := withRetry(ctx, c.maxRetries, "chat", c.logger, func() error {
		var attemptErr error
		result, attemptErr = c.generateOnce(ctx, model, req)
		return attemptErr
	})
	if err != nil {
		return domain.ChatResponse{}, err
	}
	return result, nil
}

// generateOnce performs a single API call with transport-level metrics.
func (c *Chat) generateOnce(ctx context.Context, model string, req domain.ChatRequest) (domain.ChatResponse, error) {
	wireReq := openai.ChatCompletionRequest{
		Model:    model,
		Messages: toWireMessages(req.Messages),
		Tools:    toWireTools(req.Tools),
	}

	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, wireReq)

	duration := time.Since(start)

	tierLabel := string(req.Tier)
	if err != nil {
		metrics.ChatRequestsTotal.WithLabelValues(c.provider, tierLabel, "error").Inc()
		return domain.ChatResponse{}, classifyError(c.provider, "chat", err)
	}

	if len(resp.Choices) == 0 {
		metrics.ChatRequestsTotal.WithLabelValues(c.provider, tierLabel, "error").Inc()
		return domain.ChatResponse{}, fmt.Errorf("empty chat response: %w", domain.ErrProvider)
	}

	metrics.ChatRequestsTotal.WithLabelValues(c.provider, tierLabel, "success").Inc()
	if resp.Usage.TotalTokens > 0 {
		metrics.ChatTokensTotal.WithLabelValues(c.provider, tierLabel, "prompt").Add(float64(resp.Usage.PromptTokens))
		metrics.ChatTokensTotal.WithLabelValues(c.provider, tierLabel, "completion").Add(float64(resp.Usage.CompletionTokens))
		metrics.ChatTokensTotal.WithLabelValues(c.provider, tierLabel, "total").Add(float64(resp.Usage.TotalTokens))
	}

	choice := resp.Choices[0].Message
	c.logger.Debug("Chat completion finished",
		zap.String("model", model),
		zap.String("tier", tierLabel),
		zap.Duration("duration", duration),
		zap.Int("tool_calls", len(choice.ToolCalls)),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
	)

	return domain.ChatResponse{
		Text:      choice.Content,
		ToolCalls: fromWireToolCalls(choice.ToolCalls),
		Usage: domain.ChatUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (c *Chat) HealthCheck(ctx context.Context) error {
	if _, err := c.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func toWireMessages(msgs []domain.ChatMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		wire := openai.ChatCompletionMessage{
			Role:       string(m.Role),
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			wire.ToolCalls = append(wire.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		out = append(out, wire)
	}
	return out
}

func toWireTools(tools []domain.ToolSchema) []openai.Tool {
	if len(tools) == 0 {
		return nil
	}
	out := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return out
}

func fromWireToolCalls(calls []openai.ToolCall) []domain.ToolCall {
	if len(calls) == 0 {
		return nil
	}
	out := make([]domain.ToolCall, 0, len(calls))
	for _, c := range calls {
		out = append(out, domain.ToolCall{
			ID:        c.ID,
			Name:      c.Function.Name,
			Arguments: c.Function.Arguments,
		})
	}
	return out
}
