package common

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string        `toml:"environment"` // "development" or "production"
	Server      ServerConfig  `toml:"server"`
	Logging     LoggingConfig `toml:"logging"`
	Gemini      GeminiConfig  `toml:"gemini"`
	Claude      ClaudeConfig  `toml:"claude"`
	LLM         LLMConfig     `toml:"llm"`
	Review      ReviewConfig  `toml:"review"`
	Rules       RulesConfig   `toml:"rules"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05")
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`     // Google Gemini API key (env/.env take precedence)
	Model       string  `toml:"model"`       // Model for review operations (default: "gemini-2.0-flash")
	Timeout     string  `toml:"timeout"`     // Per-call timeout as duration string (default: "2m")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.3)
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key (env/.env take precedence)
	Model       string  `toml:"model"`       // Model for review operations (default: "claude-haiku-3-5-20241022")
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response (default: 4096)
	Timeout     string  `toml:"timeout"`     // Per-call timeout as duration string (default: "2m")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.3)
}

// LLMConfig contains provider-independent LLM settings
type LLMConfig struct {
	DefaultProvider string `toml:"default_provider"` // "gemini" or "claude" (default: "gemini")
}

// ReviewConfig controls the rule evaluation fan-out
type ReviewConfig struct {
	Concurrency int    `toml:"concurrency"` // Max in-flight rule evaluations (default: 4, 1 = sequential)
	RateLimit   string `toml:"rate_limit"`  // Minimum spacing between outbound LLM calls, e.g. "250ms" ("" = unpaced)
}

// RulesConfig controls the session rule context
type RulesConfig struct {
	File string `toml:"file"` // Optional YAML file with seed rules loaded at startup
}

// NewDefaultConfig returns a Config populated with defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8085,
			Host: "localhost",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout"},
			TimeFormat: "15:04:05",
		},
		Gemini: GeminiConfig{
			Model:       "gemini-2.0-flash",
			Timeout:     "2m",
			Temperature: 0.3,
		},
		Claude: ClaudeConfig{
			Model:       "claude-haiku-3-5-20241022",
			MaxTokens:   4096,
			Timeout:     "2m",
			Temperature: 0.3,
		},
		LLM: LLMConfig{
			DefaultProvider: "gemini",
		},
		Review: ReviewConfig{
			Concurrency: 4,
			RateLimit:   "",
		},
	}
}

// LoadFromFiles loads configuration with priority: defaults -> file1 -> file2 -> ... -> env -> CLI.
// Later files override earlier files; ApplyFlagOverrides is called separately by main.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		// Unmarshal into config (merges with existing values, later values override)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("CUSTOS_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("CUSTOS_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("CUSTOS_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	if level := os.Getenv("CUSTOS_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if model := os.Getenv("CUSTOS_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}
	if model := os.Getenv("CUSTOS_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}
	if provider := os.Getenv("CUSTOS_LLM_DEFAULT_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = provider
	}

	if concurrency := os.Getenv("CUSTOS_REVIEW_CONCURRENCY"); concurrency != "" {
		if c, err := strconv.Atoi(concurrency); err == nil && c > 0 {
			config.Review.Concurrency = c
		}
	}
	if rateLimit := os.Getenv("CUSTOS_REVIEW_RATE_LIMIT"); rateLimit != "" {
		config.Review.RateLimit = rateLimit
	}

	if rulesFile := os.Getenv("CUSTOS_RULES_FILE"); rulesFile != "" {
		config.Rules.File = rulesFile
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	// Command-line flags have highest priority
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}
