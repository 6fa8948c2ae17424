// Package ranker fuses vector similarity and structured filter retrieval
// into a single deterministic ranking over the grant catalog.
package ranker

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/grantix/internal/domain"
	"github.com/kailas-cloud/grantix/internal/domain/record"
	"github.com/kailas-cloud/grantix/internal/domain/search/query"
	"github.com/kailas-cloud/grantix/internal/domain/search/result"
)

// Ranking defaults applied by New for unset config fields.
const (
	DefaultRRFK                = 60
	DefaultCandidateMultiplier = 4
)

// Config holds the ranking knobs. Zero values take the package defaults;
// boost factors at or below zero are treated as 1 (no boost).
type Config struct {
	// RRFK is the rank-fusion smoothing constant k in 1/(k+rank+1).
	RRFK int
	// CandidateMultiplier sizes each source's candidate pool as a multiple
	// of the requested page (limit plus offset).
	CandidateMultiplier int
	// MinSimilarity drops similarity candidates scoring below it before
	// fusion. Zero disables the floor.
	MinSimilarity float64
	// TitleExactBoost multiplies the fused score on an exact title match.
	TitleExactBoost float64
	// TitlePartialBoost multiplies the fused score on a title substring match.
	TitlePartialBoost float64
	// OrganizationBoost multiplies the fused score on an organization match.
	OrganizationBoost float64
}

// Hit pairs a fused result with its hydrated catalog record.
type Hit struct {
	Result result.Result
	Record record.Record
}

// Service executes hybrid retrieval: embed the query text, run the
// similarity and filter sources, fuse, boost, gate, and page.
type Service struct {
	repo     RecordSearcher
	embedder Embedder
	cfg      Config
}

// New creates a ranking service with normalized config.
func New(repo RecordSearcher, embedder Embedder, cfg Config) *Service {
	if cfg.RRFK <= 0 {
		cfg.RRFK = DefaultRRFK
	}
	if cfg.CandidateMultiplier <= 0 {
		cfg.CandidateMultiplier = DefaultCandidateMultiplier
	}
	if cfg.TitleExactBoost <= 0 {
		cfg.TitleExactBoost = 1
	}
	if cfg.TitlePartialBoost <= 0 {
		cfg.TitlePartialBoost = 1
	}
	if cfg.OrganizationBoost <= 0 {
		cfg.OrganizationBoost = 1
	}
	return &Service{repo: repo, embedder: embedder, cfg: cfg}
}

// Rank retrieves and ranks catalog records for the query.
//
// With free text present the similarity source runs; with predicates present
// the filter source runs; both present fuses the two. Results always satisfy
// every predicate, carry no duplicate ids, and number at most the query
// limit. An empty query lists the most recently published announcements.
func (s *Service) Rank(ctx context.Context, q query.Query) ([]Hit, error) {
	hasText := q.HasText()
	hasFilters := !q.Predicates().IsEmpty()

	if !hasText && !hasFilters {
		return s.recent(ctx, q)
	}

	pool := (q.Limit() + q.Offset()) * s.cfg.CandidateMultiplier

	var simMatches []result.Match
	if hasText {
		emb, err := s.embedder.Embed(ctx, q.Text(), domain.ModeQuery)
		if err != nil {
			return nil, fmt.Errorf("embed query: %w", err)
		}
		matches, err := s.repo.SimilaritySearch(ctx, emb.Embedding, pool)
		if err != nil {
			return nil, fmt.Errorf("similarity search: %w", err)
		}
		simMatches = dropBelowFloor(matches, s.cfg.MinSimilarity)
	}

	var filterMatches []result.Match
	if hasFilters {
		matches, err := s.repo.FilterSearch(ctx, q.Predicates(), pool)
		if err != nil {
			return nil, fmt.Errorf("filter search: %w", err)
		}
		filterMatches = matches
	}

	entries := fuseRRF(simMatches, filterMatches, s.cfg.RRFK)
	if len(entries) == 0 {
		return []Hit{}, nil
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.id)
	}
	recordsByID, err := s.repo.FetchMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("hydrate results: %w", err)
	}

	// The predicate set is a hard gate: whatever source surfaced a record,
	// it only ships if every predicate holds. Unhydrated ids drop too.
	kept := entries[:0]
	for _, e := range entries {
		rec, ok := recordsByID[e.id]
		if !ok {
			continue
		}
		if hasFilters && !q.Predicates().MatchesAll(rec) {
			continue
		}
		kept = append(kept, e)
	}
	entries = kept

	if hasText {
		applyBoosts(entries, q.Text(), recordsByID,
			s.cfg.TitleExactBoost, s.cfg.TitlePartialBoost, s.cfg.OrganizationBoost)
		sortFused(entries)
	}

	entries = page(entries, q.Offset(), q.Limit())

	hits := make([]Hit, 0, len(entries))
	for _, e := range entries {
		hits = append(hits, Hit{
			Result: result.New(e.id, e.similarity, e.fromFilter, e.score, e.boosts),
			Record: recordsByID[e.id],
		})
	}
	return hits, nil
}

// recent serves the empty query: newest announcements first, no fusion.
func (s *Service) recent(ctx context.Context, q query.Query) ([]Hit, error) {
	recs, err := s.repo.Recent(ctx, q.Limit(), q.Offset())
	if err != nil {
		return nil, fmt.Errorf("recent announcements: %w", err)
	}
	hits := make([]Hit, 0, len(recs))
	for _, rec := range recs {
		hits = append(hits, Hit{
			Result: result.New(rec.ID(), 0, false, 0, nil),
			Record: rec,
		})
	}
	return hits, nil
}

// dropBelowFloor removes similarity matches scoring under the floor.
func dropBelowFloor(matches []result.Match, floor float64) []result.Match {
	if floor <= 0 {
		return matches
	}
	kept := matches[:0]
	for _, m := range matches {
		if m.Score() >= floor {
			kept = append(kept, m)
		}
	}
	return kept
}

// page slices entries to the requested offset and limit.
func page(entries []*fused, offset, limit int) []*fused {
	if offset >= len(entries) {
		return nil
	}
	entries = entries[offset:]
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}
