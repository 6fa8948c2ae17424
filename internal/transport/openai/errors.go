package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/grantix/internal/domain"
)

// retryBaseDelay is the first backoff step; each retry doubles it.
var retryBaseDelay = 500 * time.Millisecond

// classifyError converts a raw go-openai failure into the domain taxonomy.
// Auth and quota failures become domain.ErrProvider (never retried);
// timeouts, network failures, 429 and 5xx become domain.ErrTransient.
func classifyError(provider, op string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Type == "insufficient_quota" {
			return domain.NewProviderError(provider, apiErr.HTTPStatusCode, apiErr.Message)
		}
		if isTransientStatus(apiErr.HTTPStatusCode) {
			return fmt.Errorf("%s API error %d: %s: %w", op, apiErr.HTTPStatusCode, apiErr.Message, domain.ErrTransient)
		}
		return domain.NewProviderError(provider, apiErr.HTTPStatusCode, apiErr.Message)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		msg := extractDetail(reqErr.Body)
		if msg == "" {
			msg = string(reqErr.Body)
		}
		if isTransientStatus(reqErr.HTTPStatusCode) {
			return fmt.Errorf("%s API error %d: %s: %w", op, reqErr.HTTPStatusCode, msg, domain.ErrTransient)
		}
		return domain.NewProviderError(provider, reqErr.HTTPStatusCode, msg)
	}

	// No structured API error: timeout or network failure.
	return fmt.Errorf("%s request failed: %v: %w", op, err, domain.ErrTransient)
}

// isTransientStatus reports whether an HTTP status is worth retrying.
func isTransientStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// extractDetail extracts the "detail" field from a JSON error body
// (OpenAI-compatible gateways use it for plain-text diagnostics).
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}

// withRetry runs fn, retrying transient failures with exponential backoff
// up to maxRetries extra attempts. Provider errors escalate immediately.
func withRetry(ctx context.Context, maxRetries int, op string, logger *zap.Logger, fn func() error) error {
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil || !errors.Is(err, domain.ErrTransient) || attempt >= maxRetries {
			return err
		}

		delay := retryBaseDelay << attempt
		logger.Warn("Transient provider failure, backing off",
			zap.String("op", op),
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%s retry wait: %w", op, ctx.Err())
		case <-timer.C:
		}
	}
}
