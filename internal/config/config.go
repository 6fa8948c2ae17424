package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the grantix API configuration.
type Config struct {
	HTTP         HTTPConfig         `yaml:"http"`
	Database     DatabaseConfig     `yaml:"database"`
	Cache        CacheConfig        `yaml:"cache"`
	Embedding    EmbeddingConfig    `yaml:"embedding"`
	Chat         ChatConfig         `yaml:"chat"`
	Ranker       RankerConfig       `yaml:"ranker"`
	Engine       EngineConfig       `yaml:"engine"`
	Conversation ConversationConfig `yaml:"conversation"`
	Auth         AuthConfig         `yaml:"auth"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds Postgres catalog connection settings.
type DatabaseConfig struct {
	DSN              string `yaml:"dsn"`
	MaxOpenConns     int    `yaml:"max_open_conns"`
	MaxIdleConns     int    `yaml:"max_idle_conns"`
	ReadinessTimeout int    `yaml:"readiness_timeout_sec"`
}

// CacheConfig holds Redis cache connection settings.
type CacheConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	KeyPrefix        string   `yaml:"key_prefix"`
	EmbeddingTTLSec  int      `yaml:"embedding_ttl_sec"` // 0 = no expiry
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// BudgetConfig holds token budget settings.
type BudgetConfig struct {
	DailyTokenLimit   int64  `yaml:"daily_token_limit"`   // 0 = unlimited
	MonthlyTokenLimit int64  `yaml:"monthly_token_limit"` // 0 = unlimited
	Action            string `yaml:"action"`              // "reject" | "warn" (default)
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	APIKey              string       `yaml:"api_key"`
	BaseURL             string       `yaml:"base_url"`
	Model               string       `yaml:"model"`
	Dimensions          int          `yaml:"dimensions"`
	DocumentInstruction string       `yaml:"document_instruction"`
	QueryInstruction    string       `yaml:"query_instruction"`
	RPMLimit            int          `yaml:"rpm_limit"`
	QueueSize           int          `yaml:"queue_size"`
	MaxRetries          int          `yaml:"max_retries"`
	Budget              BudgetConfig `yaml:"budget"`
}

// ChatConfig holds chat completion provider settings.
type ChatConfig struct {
	APIKey        string       `yaml:"api_key"`
	BaseURL       string       `yaml:"base_url"`
	StandardModel string       `yaml:"standard_model"`
	AdvancedModel string       `yaml:"advanced_model"`
	MaxRetries    int          `yaml:"max_retries"`
	Budget        BudgetConfig `yaml:"budget"`
}

// RankerConfig holds hybrid fusion settings.
type RankerConfig struct {
	RRFK                int     `yaml:"rrf_k"`
	CandidateMultiplier int     `yaml:"candidate_multiplier"`
	MinSimilarity       float64 `yaml:"min_similarity"`
	TitleExactBoost     float64 `yaml:"title_exact_boost"`
	TitlePartialBoost   float64 `yaml:"title_partial_boost"`
	OrganizationBoost   float64 `yaml:"organization_boost"`
}

// EngineConfig holds orchestration settings.
type EngineConfig struct {
	DefaultLimit          int `yaml:"default_limit"`
	MaxLimit              int `yaml:"max_limit"`
	TurnTimeoutSec        int `yaml:"turn_timeout_sec"`
	MaxToolIterations     int `yaml:"max_tool_iterations"`
	MinInformativeTokens  int `yaml:"min_informative_tokens"`
	ExplainComplexityGate int `yaml:"explain_complexity_gate"`
}

// ConversationConfig holds session history settings.
type ConversationConfig struct {
	StorageTurns  int `yaml:"storage_turns"`
	ContextTurns  int `yaml:"context_turns"`
	MaxTurnChars  int `yaml:"max_turn_chars"`
	SessionTTLSec int `yaml:"session_ttl_sec"`
	MaxSessions   int `yaml:"max_sessions"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// Turn handling can sit on a slow model response, so the write
		// timeout must exceed the turn timeout.
		c.HTTP.WriteTimeoutSec = 90
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.MaxOpenConns <= 0 {
		c.Database.MaxOpenConns = 10
	}
	if c.Database.MaxIdleConns <= 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Cache.KeyPrefix == "" {
		c.Cache.KeyPrefix = "grantix:"
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.RPMLimit <= 0 {
		c.Embedding.RPMLimit = 60
	}
	if c.Embedding.QueueSize <= 0 {
		c.Embedding.QueueSize = 32
	}
	if c.Embedding.MaxRetries <= 0 {
		c.Embedding.MaxRetries = 3
	}
	if c.Chat.StandardModel == "" {
		c.Chat.StandardModel = "gpt-4o-mini"
	}
	if c.Chat.AdvancedModel == "" {
		c.Chat.AdvancedModel = "gpt-4o"
	}
	if c.Chat.MaxRetries <= 0 {
		c.Chat.MaxRetries = 3
	}
	if c.Ranker.RRFK <= 0 {
		c.Ranker.RRFK = 60
	}
	if c.Ranker.CandidateMultiplier <= 0 {
		c.Ranker.CandidateMultiplier = 4
	}
	if c.Ranker.MinSimilarity <= 0 {
		c.Ranker.MinSimilarity = 0.35
	}
	if c.Ranker.TitleExactBoost <= 0 {
		c.Ranker.TitleExactBoost = 1.5
	}
	if c.Ranker.TitlePartialBoost <= 0 {
		c.Ranker.TitlePartialBoost = 1.2
	}
	if c.Ranker.OrganizationBoost <= 0 {
		c.Ranker.OrganizationBoost = 1.1
	}
	if c.Engine.DefaultLimit <= 0 {
		c.Engine.DefaultLimit = 10
	}
	if c.Engine.MaxLimit <= 0 {
		c.Engine.MaxLimit = 50
	}
	if c.Engine.TurnTimeoutSec <= 0 {
		c.Engine.TurnTimeoutSec = 60
	}
	if c.Engine.MaxToolIterations <= 0 {
		c.Engine.MaxToolIterations = 5
	}
	if c.Engine.MinInformativeTokens <= 0 {
		c.Engine.MinInformativeTokens = 2
	}
	if c.Engine.ExplainComplexityGate <= 0 {
		c.Engine.ExplainComplexityGate = 5
	}
	if c.Conversation.StorageTurns <= 0 {
		c.Conversation.StorageTurns = 40
	}
	if c.Conversation.ContextTurns <= 0 {
		c.Conversation.ContextTurns = 12
	}
	if c.Conversation.MaxTurnChars <= 0 {
		c.Conversation.MaxTurnChars = 2000
	}
	if c.Conversation.SessionTTLSec <= 0 {
		c.Conversation.SessionTTLSec = 1800
	}
	if c.Conversation.MaxSessions <= 0 {
		c.Conversation.MaxSessions = 4096
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if len(c.Cache.Addrs) == 0 {
		return fmt.Errorf("cache.addrs is required")
	}
	if c.Ranker.MinSimilarity >= 1 {
		return fmt.Errorf("ranker.min_similarity must be below 1, got %g", c.Ranker.MinSimilarity)
	}
	if c.Engine.MaxLimit < c.Engine.DefaultLimit {
		return fmt.Errorf(
			"engine.max_limit (%d) must be at least engine.default_limit (%d)",
			c.Engine.MaxLimit, c.Engine.DefaultLimit,
		)
	}
	if c.Conversation.StorageTurns < c.Conversation.ContextTurns {
		return fmt.Errorf(
			"conversation.storage_turns (%d) must be at least conversation.context_turns (%d)",
			c.Conversation.StorageTurns, c.Conversation.ContextTurns,
		)
	}
	for name, b := range map[string]BudgetConfig{"embedding": c.Embedding.Budget, "chat": c.Chat.Budget} {
		switch b.Action {
		case "", "warn", "reject":
			// ok
		default:
			return fmt.Errorf(
				"%s.budget.action must be \"warn\" or \"reject\", got %q",
				name, b.Action,
			)
		}
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
