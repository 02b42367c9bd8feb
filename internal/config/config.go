// ABOUTME: Centralized configuration for the review rescue services
// ABOUTME: Loads from environment variables with validation and defaults
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the review rescue system
type Config struct {
	// Charm settings
	CharmHost        string
	LocalDBName      string
	ReplicatedDBName string

	// Google OAuth and reviews API settings
	GoogleClientID     string
	GoogleClientSecret string
	ReviewsAPIBase     string
	HTTPTimeout        time.Duration
	MaxRetries         int
	RetryDelay         time.Duration

	// Insight provider settings
	OpenAIKey    string
	AnthropicKey string
	OpenAIModel  string
	ClaudeModel  string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		// Defaults
		CharmHost:          getEnv("CHARM_HOST", "cloud.charm.sh"),
		LocalDBName:        getEnv("REVIEWRESCUE_LOCAL_DB", "reviewrescue-local"),
		ReplicatedDBName:   getEnv("REVIEWRESCUE_DB", "reviewrescue"),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		ReviewsAPIBase:     getEnv("REVIEWS_API_BASE", "https://mybusiness.googleapis.com"),
		HTTPTimeout:        getEnvDuration("REVIEWRESCUE_HTTP_TIMEOUT", 30*time.Second),
		MaxRetries:         getEnvInt("REVIEWRESCUE_MAX_RETRIES", 3),
		RetryDelay:         getEnvDuration("REVIEWRESCUE_RETRY_DELAY", 2*time.Second),
		OpenAIKey:          os.Getenv("OPENAI_API_KEY"),
		AnthropicKey:       os.Getenv("ANTHROPIC_API_KEY"),
		OpenAIModel:        getEnv("REVIEWRESCUE_OPENAI_MODEL", "gpt-4o-mini"),
		ClaudeModel:        getEnv("REVIEWRESCUE_CLAUDE_MODEL", "claude-3-5-haiku-latest"),
	}

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("REVIEWRESCUE_MAX_RETRIES must be 0-10, got %d", c.MaxRetries)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("REVIEWRESCUE_HTTP_TIMEOUT must be positive, got %s", c.HTTPTimeout)
	}
	if c.LocalDBName == c.ReplicatedDBName {
		return fmt.Errorf("local and replicated databases must differ, both are %q", c.LocalDBName)
	}
	return nil
}

// HasInsightProvider reports whether at least one LLM key is configured
func (c *Config) HasInsightProvider() bool {
	return c.OpenAIKey != "" || c.AnthropicKey != ""
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
