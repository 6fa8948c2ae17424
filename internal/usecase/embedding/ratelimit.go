package embedding

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/grantix/internal/domain"
	"github.com/kailas-cloud/grantix/internal/metrics"
)

// RateLimitedEmbedder enforces a requests-per-minute ceiling on the inner
// embedder. Callers over the ceiling block in a bounded wait queue until a
// window slot frees or their context is done. A full queue fails fast with
// domain.ErrRateLimited instead of letting waiters pile up unboundedly.
//
// All state is internally synchronized; callers never lock.
type RateLimitedEmbedder struct {
	inner  domain.Embedder
	rpm    int
	window time.Duration
	queue  chan struct{}
	logger *zap.Logger

	mu   sync.Mutex
	sent []time.Time
}

// NewRateLimitedEmbedder creates a sliding-window limiter in front of inner.
// rpm <= 0 disables limiting. queueSize bounds how many callers may wait.
func NewRateLimitedEmbedder(inner domain.Embedder, rpm, queueSize int, logger *zap.Logger) *RateLimitedEmbedder {
	if queueSize <= 0 {
		queueSize = 1
	}
	return &RateLimitedEmbedder{
		inner:  inner,
		rpm:    rpm,
		window: time.Minute,
		queue:  make(chan struct{}, queueSize),
		logger: logger,
	}
}

// Embed waits for a rate slot, then delegates to the inner embedder.
func (r *RateLimitedEmbedder) Embed(
	ctx context.Context, text string, mode domain.EmbedMode,
) (domain.EmbeddingResult, error) {
	if r.rpm <= 0 {
		return r.inner.Embed(ctx, text, mode)
	}

	select {
	case r.queue <- struct{}{}:
	default:
		r.logger.Warn("Embedding wait queue full, rejecting request",
			zap.Int("queue_size", cap(r.queue)),
		)
		return domain.EmbeddingResult{}, fmt.Errorf("embedding wait queue full: %w", domain.ErrRateLimited)
	}

	start := time.Now()
	err := r.waitForSlot(ctx)
	<-r.queue
	metrics.EmbeddingQueueWait.Observe(time.Since(start).Seconds())

	if err != nil {
		return domain.EmbeddingResult{}, err
	}

	return r.inner.Embed(ctx, text, mode)
}

// waitForSlot blocks until the sliding window admits one more request.
func (r *RateLimitedEmbedder) waitForSlot(ctx context.Context) error {
	for {
		r.mu.Lock()
		now := time.Now()
		cutoff := now.Add(-r.window)

		// Drop timestamps that slid out of the window.
		i := 0
		for i < len(r.sent) && !r.sent[i].After(cutoff) {
			i++
		}
		r.sent = r.sent[i:]

		if len(r.sent) < r.rpm {
			r.sent = append(r.sent, now)
			r.mu.Unlock()
			return nil
		}

		wait := r.sent[0].Add(r.window).Sub(now)
		r.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("rate limiter wait: %w", ctx.Err())
		case <-timer.C:
		}
	}
}
