package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/kailas-cloud/grantix/internal/domain"
	"github.com/kailas-cloud/grantix/internal/domain/record"
	"github.com/kailas-cloud/grantix/internal/domain/search/predicate"
	"github.com/kailas-cloud/grantix/internal/domain/search/result"
)

// Repo reads the announcement catalog. The engine never writes it; the
// ingestion pipeline owns the table.
type Repo struct {
	db *sqlx.DB
}

// New creates an announcement repository.
func New(db *sqlx.DB) *Repo {
	return &Repo{db: db}
}

// Ping checks catalog connectivity.
func (r *Repo) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping catalog: %w", err)
	}
	return nil
}

// SimilaritySearch returns the topN nearest announcements by cosine
// similarity, best first. Scores are in [0, 1].
func (r *Repo) SimilaritySearch(ctx context.Context, vector []float32, topN int) ([]result.Match, error) {
	const query = `
		SELECT id, 1 - (embedding <=> $1) AS score
		FROM announcements
		ORDER BY embedding <=> $1, id ASC
		LIMIT $2
	`
	var rows []scoredRow
	if err := r.db.SelectContext(ctx, &rows, query, pgvector.NewVector(vector), topN); err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}

	matches := make([]result.Match, 0, len(rows))
	for _, row := range rows {
		matches = append(matches, result.NewMatch(row.ID, row.Score, time.Time{}))
	}
	return matches, nil
}

// FilterSearch returns up to topN announcements matching every predicate,
// most recent first.
func (r *Repo) FilterSearch(ctx context.Context, preds predicate.Set, topN int) ([]result.Match, error) {
	clauses, args, err := buildWhere(preds)
	if err != nil {
		return nil, err
	}

	query := `SELECT id, published_at FROM announcements`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY published_at DESC, id ASC LIMIT $%d", len(args)+1)
	args = append(args, topN)

	var rows []matchRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("filter search: %w", err)
	}

	matches := make([]result.Match, 0, len(rows))
	for _, row := range rows {
		matches = append(matches, result.NewMatch(row.ID, 0, row.PublishedAt))
	}
	return matches, nil
}

// GetByID returns one announcement by its identifier.
func (r *Repo) GetByID(ctx context.Context, id string) (record.Record, error) {
	query := `SELECT ` + announcementColumns + ` FROM announcements WHERE id = $1`

	var row announcementRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return record.Record{}, fmt.Errorf("announcement %s: %w", id, domain.ErrNotFound)
		}
		return record.Record{}, fmt.Errorf("get announcement %s: %w", id, err)
	}
	return toRecord(row), nil
}

// FetchMany returns the announcements for the given ids, keyed by id.
// Unknown ids are silently absent from the result.
func (r *Repo) FetchMany(ctx context.Context, ids []string) (map[string]record.Record, error) {
	if len(ids) == 0 {
		return map[string]record.Record{}, nil
	}

	query := `SELECT ` + announcementColumns + ` FROM announcements WHERE id = ANY($1)`

	var rows []announcementRow
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("fetch announcements: %w", err)
	}

	out := make(map[string]record.Record, len(rows))
	for _, row := range rows {
		out[row.ID] = toRecord(row)
	}
	return out, nil
}

// Recent returns announcements ordered by publication date, newest first.
// The ordering is stable: ties break by id ascending.
func (r *Repo) Recent(ctx context.Context, limit, offset int) ([]record.Record, error) {
	query := `SELECT ` + announcementColumns + ` FROM announcements
		ORDER BY published_at DESC, id ASC LIMIT $1 OFFSET $2`

	var rows []announcementRow
	if err := r.db.SelectContext(ctx, &rows, query, limit, offset); err != nil {
		return nil, fmt.Errorf("recent announcements: %w", err)
	}

	out := make([]record.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, toRecord(row))
	}
	return out, nil
}
