package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	settings, err := Load(Flags{Retries: -1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.Listen != ":8080" {
		t.Fatalf("unexpected default listen %q", settings.Listen)
	}
	if settings.RankedTTL != 3*time.Minute || settings.DecimalsTTL != time.Hour {
		t.Fatalf("unexpected default TTLs: %+v", settings)
	}
	if settings.OKXBaseURL == "" || settings.OKXSwapBaseURL == "" {
		t.Fatal("OKX base URLs should have defaults")
	}
}

func TestLoadFileConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
listen: ":9090"
log_level: DEBUG
timeout: 5s
retries: 4
cache:
  ranked_ttl: 90s
  decimals_ttl: 30m
market:
  top_tokens: 25
  candle_limit: 200
rpc:
  "1": "http://localhost:8545"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	settings, err := Load(Flags{ConfigPath: path, Retries: -1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.Listen != ":9090" || settings.LogLevel != "debug" {
		t.Fatalf("file values not applied: %+v", settings)
	}
	if settings.Timeout != 5*time.Second || settings.Retries != 4 {
		t.Fatalf("file values not applied: %+v", settings)
	}
	if settings.RankedTTL != 90*time.Second || settings.DecimalsTTL != 30*time.Minute {
		t.Fatalf("cache TTLs not applied: %+v", settings)
	}
	if settings.TopTokens != 25 || settings.CandleLimit != 200 {
		t.Fatalf("market limits not applied: %+v", settings)
	}
	if settings.RPCOverrides[1] != "http://localhost:8545" {
		t.Fatalf("rpc override not applied: %+v", settings.RPCOverrides)
	}
}

func TestLoadFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("listen: \":9090\"\nretries: 4\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	settings, err := Load(Flags{ConfigPath: path, Listen: ":7070", Retries: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.Listen != ":7070" {
		t.Fatalf("flag should override file, got %q", settings.Listen)
	}
	if settings.Retries != 1 {
		t.Fatalf("flag should override file, got %d retries", settings.Retries)
	}
}

func TestLoadMissingFileIsIgnored(t *testing.T) {
	settings, err := Load(Flags{ConfigPath: filepath.Join(t.TempDir(), "absent.yaml"), Retries: -1})
	if err != nil {
		t.Fatalf("absent config file should be ignored, got %v", err)
	}
	if settings.Listen != ":8080" {
		t.Fatalf("defaults should hold, got %q", settings.Listen)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("listen: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(Flags{ConfigPath: path, Retries: -1}); err == nil {
		t.Fatal("malformed yaml must be an error")
	}
}

func TestLoadClampsOutOfRangeValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("market:\n  candle_limit: 5000\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	settings, err := Load(Flags{ConfigPath: path, Retries: -1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.CandleLimit != 100 {
		t.Fatalf("out-of-range candle limit should reset to 100, got %d", settings.CandleLimit)
	}
}

func TestAggregatorConfigured(t *testing.T) {
	t.Setenv("OKX_API_KEY", "key")
	t.Setenv("OKX_SECRET_KEY", "secret")
	t.Setenv("OKX_PASSPHRASE", "phrase")

	settings, err := Load(Flags{Retries: -1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !settings.AggregatorConfigured() {
		t.Fatal("credentials in env should enable the aggregator")
	}

	settings.OKXSecretKey = ""
	if settings.AggregatorConfigured() {
		t.Fatal("partial credentials must not enable the aggregator")
	}
}
