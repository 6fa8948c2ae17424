package grantix

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/kailas-cloud/grantix/internal/db"
	dbRedis "github.com/kailas-cloud/grantix/internal/db/redis"
	"github.com/kailas-cloud/grantix/internal/domain"
	"github.com/kailas-cloud/grantix/internal/domain/record"
	"github.com/kailas-cloud/grantix/internal/domain/search/query"
	domusage "github.com/kailas-cloud/grantix/internal/domain/usage"
	"github.com/kailas-cloud/grantix/internal/metrics"
	budgetrepo "github.com/kailas-cloud/grantix/internal/repository/budget"
	"github.com/kailas-cloud/grantix/internal/repository/embcache"
	recordsrepo "github.com/kailas-cloud/grantix/internal/repository/records"
	sessionrepo "github.com/kailas-cloud/grantix/internal/repository/session"
	openaiT "github.com/kailas-cloud/grantix/internal/transport/openai"
	chatuc "github.com/kailas-cloud/grantix/internal/usecase/chat"
	conversationuc "github.com/kailas-cloud/grantix/internal/usecase/conversation"
	embeddinguc "github.com/kailas-cloud/grantix/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/grantix/internal/usecase/health"
	intentuc "github.com/kailas-cloud/grantix/internal/usecase/intent"
	rankeruc "github.com/kailas-cloud/grantix/internal/usecase/ranker"
	"github.com/kailas-cloud/grantix/internal/usecase/routing"
	usageuc "github.com/kailas-cloud/grantix/internal/usecase/usage"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultSessionTTL       = 30 * time.Minute
	defaultMaxSessions      = 4096
	budgetKeyPrefix         = "grantix:"
)

// Internal use-case interfaces kept narrow for test substitution.
type askUseCase interface {
	Ask(ctx context.Context, req chatuc.Request) (chatuc.Response, error)
}

type searchUseCase interface {
	Rank(ctx context.Context, q query.Query) ([]rankeruc.Hit, error)
}

type recordReader interface {
	GetByID(ctx context.Context, id string) (record.Record, error)
	Recent(ctx context.Context, limit, offset int) ([]record.Record, error)
}

type usageUseCase interface {
	GetReport(ctx context.Context, provider string, period domusage.Period) (domusage.Report, error)
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// Client runs the grant search engine in-process.
type Client struct {
	catalog *sqlx.DB
	cache   db.Store

	ask     askUseCase
	search  searchUseCase
	records recordReader
	usage   usageUseCase
	health  healthUseCase
	obs     *observer

	defaultLimit int
}

// New creates a Client and connects to the announcement catalog.
// The provided context bounds the initial readiness checks.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.postgresDSN == "" {
		return nil, errors.New("grantix: catalog DSN required (use WithPostgres)")
	}
	if cfg.embedder == nil && cfg.openAI == nil {
		return nil, errors.New("grantix: embedder required (use WithOpenAI or WithEmbedder)")
	}
	if cfg.model == nil && cfg.openAI == nil {
		return nil, errors.New("grantix: chat model required (use WithOpenAI or WithChatModel)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	catalog, err := sqlx.Open("postgres", cfg.postgresDSN)
	if err != nil {
		return nil, fmt.Errorf("grantix: open catalog: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, defaultReadinessTimeout)
	err = catalog.PingContext(pingCtx)
	cancel()
	if err != nil {
		_ = catalog.Close()
		return nil, fmt.Errorf("grantix: catalog not ready: %w", err)
	}

	var cache db.Store
	if len(cfg.redisAddrs) > 0 {
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.redisAddrs,
			Password: cfg.redisPassword,
		})
		if err != nil {
			_ = catalog.Close()
			return nil, fmt.Errorf("grantix: create cache store: %w", err)
		}
		if err := s.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			s.Close()
			_ = catalog.Close()
			return nil, fmt.Errorf("grantix: cache not ready: %w", err)
		}
		cache = s
	}

	return wireClient(ctx, catalog, cache, cfg, obs)
}

func wireClient(ctx context.Context, catalog *sqlx.DB, cache db.Store, cfg *clientConfig, obs *observer) (*Client, error) {
	t := cfg.tuning
	// Engine internals log through the observer at the operation boundary,
	// not per component.
	nop := zap.NewNop()

	embBudget := newClientBudget(ctx, domusage.ProviderEmbedding, t, cache, nop)
	chatBudget := newClientBudget(ctx, domusage.ProviderChat, t, cache, nop)

	// Embedder chain: provider -> Cached (if Redis) -> Instrumented.
	var embedder domain.Embedder
	var embHealth healthuc.ProviderChecker
	embModel := "custom"
	if cfg.embedder != nil {
		embedder = &embedderAdapter{inner: cfg.embedder}
		if hc, ok := cfg.embedder.(interface {
			HealthCheck(ctx context.Context) error
		}); ok {
			embHealth = hc
		}
	} else {
		base := openaiT.NewEmbedder(&openaiT.Config{
			APIKey:     cfg.openAI.APIKey,
			BaseURL:    cfg.openAI.BaseURL,
			Model:      cfg.openAI.embeddingModel(),
			Dimensions: cfg.openAI.EmbeddingDimensions,
			Provider:   "openai",
			MaxRetries: cfg.openAI.MaxRetries,
			Logger:     nop,
		})
		embedder = base
		embHealth = base
		embModel = cfg.openAI.embeddingModel()
	}
	if cache != nil {
		embedder = embcache.New(
			embedder, cache, budgetKeyPrefix, t.EmbeddingCacheTTL,
			metrics.EmbeddingCacheTotal, nop,
		)
	}
	embedder = embeddinguc.NewInstrumentedEmbedder(
		embedder, domusage.ProviderEmbedding, embModel, embBudget, nop,
	)

	// Chat model with budget gate.
	var model domain.ChatModel
	var chatHealth healthuc.ProviderChecker
	if cfg.model != nil {
		model = &modelAdapter{inner: cfg.model}
		if hc, ok := cfg.model.(interface {
			HealthCheck(ctx context.Context) error
		}); ok {
			chatHealth = hc
		}
	} else {
		base := openaiT.NewChat(&openaiT.ChatConfig{
			APIKey:        cfg.openAI.APIKey,
			BaseURL:       cfg.openAI.BaseURL,
			StandardModel: cfg.openAI.standardModel(),
			AdvancedModel: cfg.openAI.advancedModel(),
			Provider:      "openai",
			MaxRetries:    cfg.openAI.MaxRetries,
			Logger:        nop,
		})
		model = base
		chatHealth = base
	}
	model = chatuc.NewInstrumentedModel(model, domusage.ProviderChat, chatBudget, nop)

	records := recordsrepo.New(catalog)
	ranker := rankeruc.New(records, embedder, rankeruc.Config{
		MinSimilarity: t.MinSimilarity,
	})

	sessionTTL := t.SessionTTL
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
	}
	sessions := sessionrepo.New(defaultMaxSessions, sessionTTL)
	convCfg := conversationuc.Config{}
	if t.ContextTurns > 0 {
		convCfg.ContextBound = t.ContextTurns
		convCfg.StorageBound = 2 * t.ContextTurns
	}
	conversations, err := conversationuc.New(sessions, convCfg)
	if err != nil {
		return nil, fmt.Errorf("grantix: conversation manager: %w", err)
	}

	registry := chatuc.NewRegistry()
	if err := chatuc.RegisterBuiltinTools(registry, ranker, records); err != nil {
		return nil, fmt.Errorf("grantix: register tools: %w", err)
	}

	askSvc := chatuc.New(
		intentuc.NewClassifier(0),
		routing.NewSelector(0),
		conversations,
		ranker,
		records,
		model,
		registry,
		chatuc.Config{
			MaxIterations:     t.MaxToolIterations,
			TurnTimeout:       t.TurnTimeout,
			PreRetrievalLimit: t.DefaultLimit,
		},
		nop,
	)

	var cachePinger healthuc.Pinger
	if cache != nil {
		cachePinger = cache
	}

	return &Client{
		catalog:      catalog,
		cache:        cache,
		ask:          askSvc,
		search:       ranker,
		records:      records,
		usage:        usageuc.New(embBudget, chatBudget),
		health:       healthuc.New(records, cachePinger, embHealth, chatHealth),
		obs:          obs,
		defaultLimit: t.DefaultLimit,
	}, nil
}

// newClientBudget builds a per-provider tracker. Counters persist across
// restarts only when a cache store is attached.
func newClientBudget(
	ctx context.Context, provider string, t Tuning, cache db.Store, logger *zap.Logger,
) *embeddinguc.BudgetTracker {
	action := embeddinguc.BudgetActionWarn
	if t.RejectOverBudget {
		action = embeddinguc.BudgetActionReject
	}
	tracker := embeddinguc.NewBudgetTracker(
		provider, budgetKeyPrefix, t.DailyTokenBudget, t.MonthlyTokenBudget, action, logger,
	)
	if cache != nil {
		tracker.WithStore(ctx, budgetrepo.New(cache, 48*time.Hour, 62*24*time.Hour))
	}
	return tracker
}

// Close releases the catalog and cache connections.
func (c *Client) Close() error {
	if c.cache != nil {
		c.cache.Close()
	}
	if c.catalog != nil {
		return c.catalog.Close()
	}
	return nil
}

// Ping checks catalog and cache connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.catalog.PingContext(ctx); err != nil {
		return fmt.Errorf("ping catalog: %w", err)
	}
	if c.cache != nil {
		if err = c.cache.Ping(ctx); err != nil {
			return fmt.Errorf("ping cache: %w", err)
		}
	}
	return nil
}

// Ask runs one conversational turn: classify, retrieve, and answer with
// citations. The returned session ID continues the conversation.
func (c *Client) Ask(ctx context.Context, req AskRequest) (a Answer, err error) {
	start := time.Now()
	defer func() { c.obs.observe("ask", start, err) }()

	resp, err := c.ask.Ask(ctx, chatuc.Request{
		Message:   req.Message,
		SessionID: req.SessionID,
		Filters:   req.Filters.toSpec(),
	})
	if err != nil {
		return Answer{}, fmt.Errorf("ask: %w", err)
	}
	return answerFromResponse(resp), nil
}

// Search runs hybrid retrieval directly, bypassing the model.
// A non-empty next cursor means more results may follow.
func (c *Client) Search(ctx context.Context, req SearchRequest) (matches []Match, nextCursor string, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err) }()

	preds, err := req.Filters.toSpec().ToPredicates()
	if err != nil {
		return nil, "", fmt.Errorf("search: %w", err)
	}
	limit := req.Limit
	if limit <= 0 {
		limit = c.defaultLimit
	}
	q, err := query.New(req.Query, preds, limit, req.Cursor)
	if err != nil {
		return nil, "", fmt.Errorf("search: %w", err)
	}

	hits, err := c.search.Rank(ctx, q)
	if err != nil {
		return nil, "", fmt.Errorf("search: %w", err)
	}

	matches = make([]Match, 0, len(hits))
	for _, h := range hits {
		matches = append(matches, matchFromHit(h))
	}
	if len(hits) == q.Limit() {
		nextCursor = query.EncodeCursor(q.Offset() + q.Limit())
	}
	return matches, nextCursor, nil
}

// Announcement fetches one announcement by its catalog identifier.
func (c *Client) Announcement(ctx context.Context, id string) (a Announcement, err error) {
	start := time.Now()
	defer func() { c.obs.observe("announcement", start, err) }()

	rec, err := c.records.GetByID(ctx, id)
	if err != nil {
		return Announcement{}, fmt.Errorf("announcement %q: %w", id, err)
	}
	return announcementFromRecord(rec), nil
}

// RecentAnnouncements lists announcements by publication date, newest first.
// A non-empty next cursor means more results may follow.
func (c *Client) RecentAnnouncements(ctx context.Context, limit int, cursor string) (items []Announcement, nextCursor string, err error) {
	start := time.Now()
	defer func() { c.obs.observe("recent", start, err) }()

	if limit <= 0 {
		limit = c.defaultLimit
	}
	if limit <= 0 {
		limit = query.DefaultLimit
	}
	if limit > query.MaxLimit {
		limit = query.MaxLimit
	}
	offset, err := query.DecodeCursor(cursor)
	if err != nil {
		return nil, "", fmt.Errorf("recent: %w", err)
	}

	recs, err := c.records.Recent(ctx, limit, offset)
	if err != nil {
		return nil, "", fmt.Errorf("recent: %w", err)
	}

	items = make([]Announcement, 0, len(recs))
	for _, rec := range recs {
		items = append(items, announcementFromRecord(rec))
	}
	if len(recs) == limit {
		nextCursor = query.EncodeCursor(offset + limit)
	}
	return items, nextCursor, nil
}

func (o *OpenAIConfig) embeddingModel() string {
	if o.EmbeddingModel != "" {
		return o.EmbeddingModel
	}
	return "text-embedding-3-small"
}

func (o *OpenAIConfig) standardModel() string {
	if o.StandardModel != "" {
		return o.StandardModel
	}
	return "gpt-4o-mini"
}

func (o *OpenAIConfig) advancedModel() string {
	if o.AdvancedModel != "" {
		return o.AdvancedModel
	}
	return "gpt-4o"
}
