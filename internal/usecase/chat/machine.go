package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/grantix/internal/domain"
	"github.com/kailas-cloud/grantix/internal/domain/tier"
	"github.com/kailas-cloud/grantix/internal/metrics"
)

// state is the phase of one tool-calling turn.
type state int

const (
	stateAwaitingModel state = iota
	stateExecutingTools
	stateDone
	stateFailed
)

func (s state) String() string {
	switch s {
	case stateAwaitingModel:
		return "awaiting_model"
	case stateExecutingTools:
		return "executing_tools"
	case stateDone:
		return "done"
	case stateFailed:
		return "failed"
	}
	return "unknown"
}

// machine drives the model/tool loop for a single turn. The zero value of
// state is awaiting_model, so a struct literal starts ready to run.
type machine struct {
	model    domain.ChatModel
	registry *Registry
	logger   *zap.Logger

	tier          tier.Tier
	messages      []domain.ChatMessage
	tools         []domain.ToolSchema
	maxIterations int

	state  state
	answer string
	cited  []string
	usage  domain.ChatUsage
}

// run loops until the model produces a final answer. Each model call costs
// one iteration; a turn that still wants tools past the budget fails.
func (m *machine) run(ctx context.Context) error {
	iterations := 0
	for m.state == stateAwaitingModel {
		if iterations >= m.maxIterations {
			m.state = stateFailed
			return domain.ErrIterationBudgetExceeded
		}
		iterations++

		if err := m.step(ctx); err != nil {
			m.state = stateFailed
			return err
		}
	}

	m.logger.Debug("Turn loop finished",
		zap.String("state", m.state.String()),
		zap.Int("iterations", iterations),
		zap.Int("total_tokens", m.usage.TotalTokens),
	)
	return nil
}

// step performs one model call and, when tools are requested, executes every
// requested call before handing control back to the model.
func (m *machine) step(ctx context.Context) error {
	resp, err := m.model.Generate(ctx, domain.ChatRequest{
		Tier:     m.tier,
		Messages: m.messages,
		Tools:    m.tools,
	})
	if err != nil {
		return err
	}
	m.usage.PromptTokens += resp.Usage.PromptTokens
	m.usage.CompletionTokens += resp.Usage.CompletionTokens
	m.usage.TotalTokens += resp.Usage.TotalTokens

	if len(resp.ToolCalls) == 0 {
		m.answer = resp.Text
		m.state = stateDone
		return nil
	}

	m.state = stateExecutingTools
	m.messages = append(m.messages, domain.ChatMessage{
		Role:      domain.RoleAssistant,
		Content:   resp.Text,
		ToolCalls: resp.ToolCalls,
	})

	// Every call in the response gets a tool message, in request order.
	for _, call := range resp.ToolCalls {
		payload, err := m.executeCall(ctx, call)
		if err != nil {
			return err
		}
		m.messages = append(m.messages, domain.ChatMessage{
			Role:       domain.RoleTool,
			Content:    payload,
			ToolCallID: call.ID,
		})
	}

	m.state = stateAwaitingModel
	return nil
}

// executeCall runs one tool call. Infrastructure failures escalate and fail
// the turn. Domain-level failures (unknown tool, malformed arguments) come
// back to the model as an error payload so it can correct course.
func (m *machine) executeCall(ctx context.Context, call domain.ToolCall) (string, error) {
	outcome, err := m.registry.Execute(ctx, call.Name, json.RawMessage(call.Arguments))
	if err != nil {
		if infrastructureFailure(err) {
			metrics.ToolExecutionsTotal.WithLabelValues(call.Name, "error").Inc()
			return "", fmt.Errorf("tool %s: %w", call.Name, err)
		}

		m.logger.Warn("Tool call rejected",
			zap.String("tool", call.Name),
			zap.Error(err),
		)
		metrics.ToolExecutionsTotal.WithLabelValues(call.Name, "rejected").Inc()
		body, _ := json.Marshal(map[string]string{"error": err.Error()})
		return string(body), nil
	}

	metrics.ToolExecutionsTotal.WithLabelValues(call.Name, "success").Inc()
	m.cited = appendNewIDs(m.cited, outcome.RecordIDs)
	return outcome.Payload, nil
}

func infrastructureFailure(err error) bool {
	return errors.Is(err, domain.ErrProvider) ||
		errors.Is(err, domain.ErrTransient) ||
		errors.Is(err, domain.ErrRateLimited) ||
		errors.Is(err, domain.ErrQuotaExceeded) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// appendNewIDs appends ids not yet present, preserving first-appearance order.
func appendNewIDs(dst []string, ids []string) []string {
	for _, id := range ids {
		present := false
		for _, have := range dst {
			if have == id {
				present = true
				break
			}
		}
		if !present {
			dst = append(dst, id)
		}
	}
	return dst
}
