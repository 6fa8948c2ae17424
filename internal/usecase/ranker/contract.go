package ranker

import (
	"context"

	"github.com/kailas-cloud/grantix/internal/domain"
	"github.com/kailas-cloud/grantix/internal/domain/record"
	"github.com/kailas-cloud/grantix/internal/domain/search/predicate"
	"github.com/kailas-cloud/grantix/internal/domain/search/result"
)

// RecordSearcher is the read-only catalog contract for ranking.
type RecordSearcher interface {
	SimilaritySearch(ctx context.Context, vector []float32, topN int) ([]result.Match, error)
	FilterSearch(ctx context.Context, preds predicate.Set, topN int) ([]result.Match, error)
	FetchMany(ctx context.Context, ids []string) (map[string]record.Record, error)
	Recent(ctx context.Context, limit, offset int) ([]record.Record, error)
}

// Embedder vectorizes query text.
type Embedder interface {
	Embed(ctx context.Context, text string, mode domain.EmbedMode) (domain.EmbeddingResult, error)
}
