package chi

import (
	"context"

	"github.com/kailas-cloud/grantix/internal/domain/record"
	"github.com/kailas-cloud/grantix/internal/domain/search/query"
	domusage "github.com/kailas-cloud/grantix/internal/domain/usage"
	"github.com/kailas-cloud/grantix/internal/usecase/chat"
	"github.com/kailas-cloud/grantix/internal/usecase/health"
	"github.com/kailas-cloud/grantix/internal/usecase/ranker"
)

// Asker runs one conversation turn.
type Asker interface {
	Ask(ctx context.Context, req chat.Request) (chat.Response, error)
}

// Searcher runs hybrid retrieval over the catalog.
type Searcher interface {
	Rank(ctx context.Context, q query.Query) ([]ranker.Hit, error)
}

// RecordReader serves announcement detail and the recent listing.
type RecordReader interface {
	GetByID(ctx context.Context, id string) (record.Record, error)
	Recent(ctx context.Context, limit, offset int) ([]record.Record, error)
}

// UsageReporter builds per-provider usage reports.
type UsageReporter interface {
	GetReport(ctx context.Context, provider string, period domusage.Period) (domusage.Report, error)
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) health.Report
}
