package chat

import (
	"context"

	domconv "github.com/kailas-cloud/grantix/internal/domain/conversation"
	domintent "github.com/kailas-cloud/grantix/internal/domain/intent"
	"github.com/kailas-cloud/grantix/internal/domain/record"
	"github.com/kailas-cloud/grantix/internal/domain/search/query"
	"github.com/kailas-cloud/grantix/internal/domain/tier"
	"github.com/kailas-cloud/grantix/internal/usecase/ranker"
)

// Classifier assigns the conversational intent for an utterance.
type Classifier interface {
	Classify(utterance string, hasActiveSession bool) domintent.Intent
}

// TierSelector picks the model tier for a classified turn.
type TierSelector interface {
	Select(it domintent.Intent, resultCount int) tier.Tier
}

// Conversations manages bounded per-session history.
type Conversations interface {
	EnsureSession(id string) (domconv.Session, error)
	Append(sessionID string, turn domconv.Turn) (domconv.Session, error)
	Context(sessionID string) []domconv.Turn
	HasHistory(sessionID string) bool
}

// Ranker runs hybrid retrieval for pre-seeded context and the search tool.
type Ranker interface {
	Rank(ctx context.Context, q query.Query) ([]ranker.Hit, error)
}

// RecordGetter reads single announcements and the recent listing.
type RecordGetter interface {
	GetByID(ctx context.Context, id string) (record.Record, error)
	Recent(ctx context.Context, limit, offset int) ([]record.Record, error)
}
