package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/kailas-cloud/grantix/internal/config"
	dbRedis "github.com/kailas-cloud/grantix/internal/db/redis"
	"github.com/kailas-cloud/grantix/internal/domain"
	domusage "github.com/kailas-cloud/grantix/internal/domain/usage"
	logpkg "github.com/kailas-cloud/grantix/internal/logger"
	"github.com/kailas-cloud/grantix/internal/metrics"
	budgetrepo "github.com/kailas-cloud/grantix/internal/repository/budget"
	"github.com/kailas-cloud/grantix/internal/repository/embcache"
	recordsrepo "github.com/kailas-cloud/grantix/internal/repository/records"
	sessionrepo "github.com/kailas-cloud/grantix/internal/repository/session"
	chiTransport "github.com/kailas-cloud/grantix/internal/transport/chi"
	openaiT "github.com/kailas-cloud/grantix/internal/transport/openai"
	chatuc "github.com/kailas-cloud/grantix/internal/usecase/chat"
	conversationuc "github.com/kailas-cloud/grantix/internal/usecase/conversation"
	embeddinguc "github.com/kailas-cloud/grantix/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/grantix/internal/usecase/health"
	intentuc "github.com/kailas-cloud/grantix/internal/usecase/intent"
	rankeruc "github.com/kailas-cloud/grantix/internal/usecase/ranker"
	"github.com/kailas-cloud/grantix/internal/usecase/routing"
	usageuc "github.com/kailas-cloud/grantix/internal/usecase/usage"
	"github.com/kailas-cloud/grantix/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting grantix API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("built", version.Date),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("cache_addrs", cfg.Cache.Addrs),
	)

	ctx := context.Background()

	// Postgres announcement catalog
	catalog, err := sqlx.Open("postgres", cfg.Database.DSN)
	if err != nil {
		logger.Fatal("Failed to open catalog", zap.Error(err))
	}
	defer func() { _ = catalog.Close() }()
	catalog.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	catalog.SetMaxIdleConns(cfg.Database.MaxIdleConns)

	if err := waitForCatalog(ctx, catalog, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Catalog not ready", zap.Error(err))
	}
	logger.Info("Connected to catalog")

	// Redis cache (embeddings, budget counters)
	cache, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Cache.Addrs,
		Username: cfg.Cache.Username,
		Password: cfg.Cache.Password,
		DB:       cfg.Cache.DB,
	})
	if err != nil {
		logger.Fatal("Failed to create cache store", zap.Error(err))
	}
	defer cache.Close()

	if err := cache.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Cache not ready", zap.Error(err))
	}
	logger.Info("Connected to cache")

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterChatMetrics()
	metrics.RegisterHTTPMetrics()

	// One budget tracker per provider API. Zero limits disable the gate but
	// the counters still feed the usage endpoint.
	budgetStore := budgetrepo.New(cache, 48*time.Hour, 62*24*time.Hour)
	embBudget := newBudgetTracker(ctx, domusage.ProviderEmbedding, cfg.Embedding.Budget, cfg.Cache.KeyPrefix, budgetStore, logger)
	chatBudget := newBudgetTracker(ctx, domusage.ProviderChat, cfg.Chat.Budget, cfg.Cache.KeyPrefix, budgetStore, logger)

	// Embedder chain: OpenAI -> RateLimited -> Cached -> Instrumented -> Instruction.
	// The cache sits outside the rate limiter so hits skip the queue, and
	// inside the budget layer so hits never count as spend.
	baseEmbedder := openaiT.NewEmbedder(&openaiT.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   "openai",
		MaxRetries: cfg.Embedding.MaxRetries,
		Logger:     logger,
	})
	var embedder domain.Embedder = embeddinguc.NewRateLimitedEmbedder(
		baseEmbedder, cfg.Embedding.RPMLimit, cfg.Embedding.QueueSize, logger,
	)
	embedder = embcache.New(
		embedder, cache, cfg.Cache.KeyPrefix,
		time.Duration(cfg.Cache.EmbeddingTTLSec)*time.Second,
		metrics.EmbeddingCacheTotal, logger,
	)
	embedder = embeddinguc.NewInstrumentedEmbedder(
		embedder, domusage.ProviderEmbedding, cfg.Embedding.Model, embBudget, logger,
	)
	// Instruction prefix outermost so the cache key includes the instruction.
	if cfg.Embedding.DocumentInstruction != "" || cfg.Embedding.QueryInstruction != "" {
		embedder = domain.NewInstructionEmbedder(
			embedder, cfg.Embedding.DocumentInstruction, cfg.Embedding.QueryInstruction,
		)
	}
	logger.Info("Embedder created",
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	// Catalog repository and hybrid ranker
	records := recordsrepo.New(catalog)
	ranker := rankeruc.New(records, embedder, rankeruc.Config{
		RRFK:                cfg.Ranker.RRFK,
		CandidateMultiplier: cfg.Ranker.CandidateMultiplier,
		MinSimilarity:       cfg.Ranker.MinSimilarity,
		TitleExactBoost:     cfg.Ranker.TitleExactBoost,
		TitlePartialBoost:   cfg.Ranker.TitlePartialBoost,
		OrganizationBoost:   cfg.Ranker.OrganizationBoost,
	})

	// Turn pipeline: intent, tier routing, bounded conversation state
	classifier := intentuc.NewClassifier(cfg.Engine.MinInformativeTokens)
	selector := routing.NewSelector(cfg.Engine.ExplainComplexityGate)
	sessions := sessionrepo.New(
		cfg.Conversation.MaxSessions,
		time.Duration(cfg.Conversation.SessionTTLSec)*time.Second,
	)
	conversations, err := conversationuc.New(sessions, conversationuc.Config{
		StorageBound: cfg.Conversation.StorageTurns,
		ContextBound: cfg.Conversation.ContextTurns,
		MaxTurnChars: cfg.Conversation.MaxTurnChars,
	})
	if err != nil {
		logger.Fatal("Failed to create conversation manager", zap.Error(err))
	}

	// Chat model with budget gate
	baseChat := openaiT.NewChat(&openaiT.ChatConfig{
		APIKey:        cfg.Chat.APIKey,
		BaseURL:       cfg.Chat.BaseURL,
		StandardModel: cfg.Chat.StandardModel,
		AdvancedModel: cfg.Chat.AdvancedModel,
		Provider:      "openai",
		MaxRetries:    cfg.Chat.MaxRetries,
		Logger:        logger,
	})
	model := chatuc.NewInstrumentedModel(baseChat, domusage.ProviderChat, chatBudget, logger)

	registry := chatuc.NewRegistry()
	if err := chatuc.RegisterBuiltinTools(registry, ranker, records); err != nil {
		logger.Fatal("Failed to register tools", zap.Error(err))
	}

	chatSvc := chatuc.New(
		classifier, selector, conversations, ranker, records, model, registry,
		chatuc.Config{
			MaxIterations:     cfg.Engine.MaxToolIterations,
			TurnTimeout:       time.Duration(cfg.Engine.TurnTimeoutSec) * time.Second,
			PreRetrievalLimit: cfg.Engine.DefaultLimit,
		},
		logger,
	)

	usageSvc := usageuc.New(embBudget, chatBudget)
	healthSvc := healthuc.New(records, cache, baseEmbedder, baseChat)

	// Create chi server
	server := chiTransport.NewServer(chatSvc, ranker, records, usageSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	r.Mount("/", server.Routes())

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// newBudgetTracker builds a per-provider tracker and loads persisted counters.
func newBudgetTracker(
	ctx context.Context, provider string, cfg config.BudgetConfig,
	keyPrefix string, store *budgetrepo.Store, logger *zap.Logger,
) *embeddinguc.BudgetTracker {
	action := embeddinguc.BudgetActionWarn
	if cfg.Action == "reject" {
		action = embeddinguc.BudgetActionReject
	}
	return embeddinguc.NewBudgetTracker(
		provider, keyPrefix, cfg.DailyTokenLimit, cfg.MonthlyTokenLimit, action, logger,
	).WithStore(ctx, store)
}

// waitForCatalog polls the catalog until it responds or the timeout passes.
func waitForCatalog(ctx context.Context, db *sqlx.DB, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		lastErr = db.PingContext(pingCtx)
		cancel()
		if lastErr == nil {
			return nil
		}
		time.Sleep(time.Second)
	}
	return fmt.Errorf("catalog not ready after %s: %w", timeout, lastErr)
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
