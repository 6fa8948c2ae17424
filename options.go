package grantix

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	postgresDSN string

	redisAddrs    []string
	redisPassword string

	embedder Embedder
	model    ChatModel
	openAI   *OpenAIConfig

	tuning Tuning

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// OpenAIConfig configures the built-in OpenAI-compatible providers.
// Zero fields fall back to text-embedding-3-small, gpt-4o-mini and gpt-4o.
type OpenAIConfig struct {
	APIKey              string
	BaseURL             string
	EmbeddingModel      string
	EmbeddingDimensions int
	StandardModel       string
	AdvancedModel       string
	MaxRetries          int
}

// Tuning adjusts engine behavior for embedded use. Zero values keep the
// engine defaults.
type Tuning struct {
	// DefaultLimit is the page size when a search does not set one.
	DefaultLimit int
	// MinSimilarity drops similarity candidates scoring below it.
	MinSimilarity float64
	// MaxToolIterations bounds model calls per turn.
	MaxToolIterations int
	// TurnTimeout is the end-to-end deadline for one Ask turn.
	TurnTimeout time.Duration
	// ContextTurns is how many history turns the model context includes.
	ContextTurns int
	// SessionTTL evicts idle sessions.
	SessionTTL time.Duration
	// EmbeddingCacheTTL expires cached query embeddings. Zero caches forever.
	EmbeddingCacheTTL time.Duration
	// DailyTokenBudget and MonthlyTokenBudget cap provider spend. Zero means
	// unlimited.
	DailyTokenBudget   int64
	MonthlyTokenBudget int64
	// RejectOverBudget fails requests once a budget is exhausted instead of
	// logging a warning.
	RejectOverBudget bool
}

// WithPostgres points the client at the announcement catalog. Required.
func WithPostgres(dsn string) Option {
	return optionFunc(func(c *clientConfig) {
		c.postgresDSN = dsn
	})
}

// WithRedis enables the embedding cache and budget persistence. Optional;
// without it embeddings are recomputed per query and budget counters reset
// on restart.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.redisAddrs = []string{addr}
		c.redisPassword = password
	})
}

// WithEmbedder sets a custom query embedding provider. Overrides the
// embedder configured by WithOpenAI.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithChatModel sets a custom language model. Overrides the chat provider
// configured by WithOpenAI.
func WithChatModel(m ChatModel) Option {
	return optionFunc(func(c *clientConfig) {
		c.model = m
	})
}

// WithOpenAI configures the built-in OpenAI-compatible embedding and chat
// providers. Either this or both WithEmbedder and WithChatModel are required.
func WithOpenAI(cfg OpenAIConfig) Option {
	return optionFunc(func(c *clientConfig) {
		c.openAI = &cfg
	})
}

// WithConfigTuning overrides engine defaults.
func WithConfigTuning(t Tuning) Option {
	return optionFunc(func(c *clientConfig) {
		c.tuning = t
	})
}

// WithLogger enables structured logging for client operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
