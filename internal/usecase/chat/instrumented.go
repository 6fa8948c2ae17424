package chat

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/grantix/internal/domain"
	"github.com/kailas-cloud/grantix/internal/metrics"
)

// BudgetChecker gates model calls on the chat token budget.
type BudgetChecker interface {
	Check(ctx context.Context) error
	Record(tokens int64)
	RemainingDaily() int64
	RemainingMonthly() int64
}

// InstrumentedModel wraps ChatModel with budget enforcement.
// Transport metrics (requests, duration, tokens) are recorded in
// transport/openai; this layer owns budget tracking only.
type InstrumentedModel struct {
	inner    domain.ChatModel
	provider string
	budget   BudgetChecker
	logger   *zap.Logger
}

// NewInstrumentedModel wraps a chat model with budget enforcement.
// A nil budget disables the gate.
func NewInstrumentedModel(
	inner domain.ChatModel, provider string,
	budget BudgetChecker, logger *zap.Logger,
) *InstrumentedModel {
	return &InstrumentedModel{
		inner:    inner,
		provider: provider,
		budget:   budget,
		logger:   logger,
	}
}

// Generate checks the budget, delegates to the inner model, and records usage.
func (p *InstrumentedModel) Generate(ctx context.Context, req domain.ChatRequest) (domain.ChatResponse, error) {
	if p.budget != nil {
		if err := p.budget.Check(ctx); err != nil {
			p.logger.Error("Chat budget exceeded",
				zap.String("provider", p.provider),
				zap.String("tier", string(req.Tier)),
				zap.Error(err),
			)
			return domain.ChatResponse{}, fmt.Errorf("budget check: %w", err)
		}
	}

	resp, err := p.inner.Generate(ctx, req)
	if err != nil {
		return domain.ChatResponse{}, err
	}

	if p.budget != nil && resp.Usage.TotalTokens > 0 {
		p.budget.Record(int64(resp.Usage.TotalTokens))
		remaining := metrics.ChatBudgetTokensRemaining
		remaining.WithLabelValues(p.provider, "daily").Set(float64(p.budget.RemainingDaily()))
		remaining.WithLabelValues(p.provider, "monthly").Set(float64(p.budget.RemainingMonthly()))
	}

	return resp, nil
}
