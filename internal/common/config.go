package common

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"

	"github.com/ternarybob/counsel/internal/interfaces"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Storage     StorageConfig   `toml:"storage"`
	Logging     LoggingConfig   `toml:"logging"`
	Gemini      GeminiConfig    `toml:"gemini"`
	Claude      ClaudeConfig    `toml:"claude"`
	LLM         LLMConfig       `toml:"llm"`
	Analysts    AnalystsConfig  `toml:"analysts"`
	Debate      DebateConfig    `toml:"debate"`
	Markets     MarketsConfig   `toml:"markets"`
	Reports     ReportsConfig   `toml:"reports"`
	Watchlist   WatchlistConfig `toml:"watchlist"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Format     string   `toml:"format"`      // "json" or "text"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05.000")
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`     // Google Gemini API key
	Model       string  `toml:"model"`       // Model for analyst/debater operations (default: "gemini-3-flash-preview")
	Timeout     string  `toml:"timeout"`     // Per-call timeout as duration string (default: "2m")
	RateLimit   string  `toml:"rate_limit"`  // Minimum interval between calls (default: "4s" for 15 RPM)
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.7)
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key
	Model       string  `toml:"model"`       // Model for analyst/debater operations (default: "claude-haiku-3-5-20241022")
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response (default: 8192)
	Timeout     string  `toml:"timeout"`     // Per-call timeout as duration string (default: "2m")
	RateLimit   string  `toml:"rate_limit"`  // Minimum interval between calls (default: "1s")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.7)
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
)

// LLMConfig contains unified configuration for all AI providers
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider"` // Default provider: "gemini" or "claude" (default: "gemini")
}

// AnalystMember configures one member of the analyst counsel. Name gives
// the member a stable identity across sessions; Model selects the backing
// provider via the model-string prefix convention.
type AnalystMember struct {
	Name  string `toml:"name" validate:"required"`
	Model string `toml:"model"` // empty uses llm.default_provider's default model
}

// AnalystsConfig configures the counsel of independent analysts.
// Three members is the canonical configuration; the pipeline requires at
// least one successful assessment to proceed.
type AnalystsConfig struct {
	Members     []AnalystMember `toml:"members" validate:"min=1,dive"`
	CallTimeout string          `toml:"call_timeout"` // Per-assessment timeout (default: "3m")
}

// DebateConfig configures the multi-round debate orchestrator.
type DebateConfig struct {
	Rounds      int    `toml:"rounds" validate:"gte=2"` // Total rounds incl. opening and final (default: 3)
	CallTimeout string `toml:"call_timeout"`            // Per-participant-call timeout (default: "2m")
}

// MarketsConfig configures ticker parsing behaviour.
type MarketsConfig struct {
	DefaultExchange string `toml:"default_exchange"` // Exchange assumed for bare ticker codes (default: "NASDAQ")
}

// ReportsConfig configures consensus report output.
type ReportsConfig struct {
	Dir string `toml:"dir"` // Directory for generated PDF reports (default: "./reports")
}

// WatchlistConfig configures scheduled re-research of a ticker list.
type WatchlistConfig struct {
	Enabled  bool     `toml:"enabled"`  // Disabled by default - user must explicitly opt-in
	Schedule string   `toml:"schedule"` // Cron schedule (default: "0 0 */12 * * *")
	Tickers  []string `toml:"tickers"`  // Exchange-qualified tickers to re-research
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability.
// Only user-facing settings should be exposed in counsel.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
		Gemini: GeminiConfig{
			APIKey:      "", // User must provide API key (no fallback)
			Model:       "gemini-3-flash-preview",
			Timeout:     "2m",
			RateLimit:   "4s", // Default to 4s (15 RPM) for free tier
			Temperature: 0.7,
		},
		Claude: ClaudeConfig{
			APIKey:      "", // User must provide API key (ANTHROPIC_API_KEY or config)
			Model:       "claude-haiku-3-5-20241022",
			MaxTokens:   8192,
			Timeout:     "2m",
			RateLimit:   "1s",
			Temperature: 0.7,
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderGemini,
		},
		Analysts: AnalystsConfig{
			// The canonical counsel: three independent assessments per ticker
			Members: []AnalystMember{
				{Name: "socrates"},
				{Name: "pythagoras", Model: "claude/"},
				{Name: "diogenes"},
			},
			CallTimeout: "3m",
		},
		Debate: DebateConfig{
			Rounds:      3,
			CallTimeout: "2m",
		},
		Markets: MarketsConfig{
			DefaultExchange: "NASDAQ",
		},
		Reports: ReportsConfig{
			Dir: "./reports",
		},
		Watchlist: WatchlistConfig{
			Enabled:  false,
			Schedule: "0 0 */12 * * *", // Every 12 hours (cron format with seconds)
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env -> CLI
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env. Later files override earlier
// files; environment variables override all files.
func LoadFromFiles(paths ...string) (*Config, error) {
	// Start with defaults
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier files)
	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	// Apply environment variables (overrides all file configs)
	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks structural constraints on the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	for _, field := range []struct {
		name  string
		value string
	}{
		{"analysts.call_timeout", c.Analysts.CallTimeout},
		{"debate.call_timeout", c.Debate.CallTimeout},
		{"gemini.timeout", c.Gemini.Timeout},
		{"claude.timeout", c.Claude.Timeout},
	} {
		if field.value == "" {
			continue
		}
		if _, err := time.ParseDuration(field.value); err != nil {
			return fmt.Errorf("invalid duration for %s: %w", field.name, err)
		}
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	// Environment configuration (highest priority: COUNSEL_ENV, fallback: GO_ENV)
	if env := os.Getenv("COUNSEL_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Storage configuration
	if path := os.Getenv("COUNSEL_BADGER_PATH"); path != "" {
		config.Storage.Badger.Path = path
	}
	if reset := os.Getenv("COUNSEL_BADGER_RESET"); reset != "" {
		if r, err := strconv.ParseBool(reset); err == nil {
			config.Storage.Badger.ResetOnStartup = r
		}
	}

	// Logging configuration
	if level := os.Getenv("COUNSEL_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("COUNSEL_LOG_OUTPUT"); output != "" {
		config.Logging.Output = strings.Split(output, ",")
	}

	// Provider configuration
	if key := os.Getenv("COUNSEL_GEMINI_API_KEY"); key != "" {
		config.Gemini.APIKey = key
	}
	if model := os.Getenv("COUNSEL_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}
	if key := os.Getenv("COUNSEL_CLAUDE_API_KEY"); key != "" {
		config.Claude.APIKey = key
	}
	if model := os.Getenv("COUNSEL_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}
	if provider := os.Getenv("COUNSEL_LLM_DEFAULT_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(provider)
	}

	// Debate configuration
	if rounds := os.Getenv("COUNSEL_DEBATE_ROUNDS"); rounds != "" {
		if r, err := strconv.Atoi(rounds); err == nil {
			config.Debate.Rounds = r
		}
	}

	// Markets configuration
	if exchange := os.Getenv("COUNSEL_DEFAULT_EXCHANGE"); exchange != "" {
		config.Markets.DefaultExchange = exchange
	}

	// Reports configuration
	if dir := os.Getenv("COUNSEL_REPORTS_DIR"); dir != "" {
		config.Reports.Dir = dir
	}
}

// ResolveAPIKey resolves an API key by name with environment variable priority.
// Resolution order: environment variables -> KV store -> config fallback -> error.
// This ensures COUNSEL_* environment variables always take precedence.
func ResolveAPIKey(ctx context.Context, kvStorage interfaces.KeyValueStorage, name string, configFallback string) (string, error) {
	// Environment variables have highest priority
	keyToEnvMapping := map[string][]string{
		"gemini_api_key":    {"COUNSEL_GEMINI_API_KEY", "GEMINI_API_KEY"},
		"anthropic_api_key": {"COUNSEL_CLAUDE_API_KEY", "ANTHROPIC_API_KEY"},
	}

	if envVarNames, hasMappedEnv := keyToEnvMapping[name]; hasMappedEnv {
		for _, envVarName := range envVarNames {
			if envValue := os.Getenv(envVarName); envValue != "" {
				return envValue, nil
			}
		}
	}

	// Try to resolve from KV store (medium priority - file-based variables)
	if kvStorage != nil {
		apiKey, err := kvStorage.Get(ctx, name)
		if err == nil && apiKey != "" {
			return apiKey, nil
		}
	}

	// Fallback to config value (lowest priority)
	if configFallback != "" {
		return configFallback, nil
	}

	return "", fmt.Errorf("API key '%s' not found in environment, KV store, or config", name)
}
