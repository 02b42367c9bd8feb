// ABOUTME: Tests for centralized configuration system
// ABOUTME: Verifies environment variable parsing and validation
package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	// Clear environment to test defaults
	os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	// Verify defaults
	if cfg.CharmHost != "cloud.charm.sh" {
		t.Errorf("CharmHost = %s, want cloud.charm.sh", cfg.CharmHost)
	}
	if cfg.LocalDBName != "reviewrescue-local" {
		t.Errorf("LocalDBName = %s, want reviewrescue-local", cfg.LocalDBName)
	}
	if cfg.ReplicatedDBName != "reviewrescue" {
		t.Errorf("ReplicatedDBName = %s, want reviewrescue", cfg.ReplicatedDBName)
	}
	if cfg.ReviewsAPIBase != "https://mybusiness.googleapis.com" {
		t.Errorf("ReviewsAPIBase = %s", cfg.ReviewsAPIBase)
	}
	if cfg.HTTPTimeout != 30*time.Second {
		t.Errorf("HTTPTimeout = %v, want 30s", cfg.HTTPTimeout)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.MaxRetries)
	}
	if cfg.RetryDelay != 2*time.Second {
		t.Errorf("RetryDelay = %v, want 2s", cfg.RetryDelay)
	}
	if cfg.OpenAIModel != "gpt-4o-mini" {
		t.Errorf("OpenAIModel = %s, want gpt-4o-mini", cfg.OpenAIModel)
	}
	if cfg.ClaudeModel != "claude-3-5-haiku-latest" {
		t.Errorf("ClaudeModel = %s, want claude-3-5-haiku-latest", cfg.ClaudeModel)
	}
	if cfg.HasInsightProvider() {
		t.Error("HasInsightProvider() = true with no keys set")
	}
}

func TestLoad_CustomValues(t *testing.T) {
	// Set custom environment variables
	os.Clearenv()
	os.Setenv("CHARM_HOST", "custom.charm.sh")
	os.Setenv("REVIEWRESCUE_LOCAL_DB", "test-local")
	os.Setenv("REVIEWRESCUE_DB", "test-replicated")
	os.Setenv("GOOGLE_CLIENT_ID", "client-1")
	os.Setenv("GOOGLE_CLIENT_SECRET", "secret-1")
	os.Setenv("REVIEWS_API_BASE", "http://localhost:8080")
	os.Setenv("REVIEWRESCUE_HTTP_TIMEOUT", "60s")
	os.Setenv("REVIEWRESCUE_MAX_RETRIES", "5")
	os.Setenv("REVIEWRESCUE_RETRY_DELAY", "3s")
	os.Setenv("ANTHROPIC_API_KEY", "ak-test")
	os.Setenv("REVIEWRESCUE_CLAUDE_MODEL", "claude-sonnet-4-0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	// Verify custom values
	if cfg.CharmHost != "custom.charm.sh" {
		t.Errorf("CharmHost = %s, want custom.charm.sh", cfg.CharmHost)
	}
	if cfg.LocalDBName != "test-local" || cfg.ReplicatedDBName != "test-replicated" {
		t.Errorf("DB names = %s/%s", cfg.LocalDBName, cfg.ReplicatedDBName)
	}
	if cfg.GoogleClientID != "client-1" || cfg.GoogleClientSecret != "secret-1" {
		t.Error("Google credentials not read from environment")
	}
	if cfg.ReviewsAPIBase != "http://localhost:8080" {
		t.Errorf("ReviewsAPIBase = %s", cfg.ReviewsAPIBase)
	}
	if cfg.HTTPTimeout != 60*time.Second {
		t.Errorf("HTTPTimeout = %v, want 60s", cfg.HTTPTimeout)
	}
	if cfg.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d, want 5", cfg.MaxRetries)
	}
	if cfg.RetryDelay != 3*time.Second {
		t.Errorf("RetryDelay = %v, want 3s", cfg.RetryDelay)
	}
	if cfg.ClaudeModel != "claude-sonnet-4-0" {
		t.Errorf("ClaudeModel = %s", cfg.ClaudeModel)
	}
	if !cfg.HasInsightProvider() {
		t.Error("HasInsightProvider() = false with ANTHROPIC_API_KEY set")
	}
}

func TestValidate_InvalidMaxRetries(t *testing.T) {
	cfg := &Config{
		HTTPTimeout:      time.Second,
		LocalDBName:      "a",
		ReplicatedDBName: "b",
		MaxRetries:       15,
	}

	err := cfg.Validate()
	if err == nil {
		t.Error("Validate() should fail for MaxRetries > 10")
	}

	cfg.MaxRetries = -1
	err = cfg.Validate()
	if err == nil {
		t.Error("Validate() should fail for MaxRetries < 0")
	}
}

func TestValidate_InvalidTimeout(t *testing.T) {
	cfg := &Config{
		LocalDBName:      "a",
		ReplicatedDBName: "b",
		MaxRetries:       3,
	}

	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should fail for zero timeout")
	}
}

func TestValidate_CollidingDatabases(t *testing.T) {
	cfg := &Config{
		HTTPTimeout:      time.Second,
		LocalDBName:      "same",
		ReplicatedDBName: "same",
		MaxRetries:       3,
	}

	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should reject identical database names")
	}
}

func TestGetEnvDuration_Invalid(t *testing.T) {
	os.Clearenv()
	os.Setenv("TEST_DURATION", "not-a-duration")
	if got := getEnvDuration("TEST_DURATION", 5*time.Second); got != 5*time.Second {
		t.Errorf("getEnvDuration() = %v, want fallback 5s", got)
	}
}
