package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Flags are the serve-command flags merged over file and env settings.
type Flags struct {
	ConfigPath string
	Listen     string
	Timeout    string
	Retries    int
	LogLevel   string
}

// Settings is the fully resolved runtime configuration.
type Settings struct {
	Listen   string
	LogLevel string

	// Upstream gateway
	Timeout time.Duration
	Retries int

	// Cache freshness
	RankedTTL   time.Duration
	DecimalsTTL time.Duration

	// Response shaping
	TopTokens   int
	CandleLimit int
	TradeLimit  int

	// OKX aggregator access; quotes fall back to on-chain probing when the
	// key is absent.
	OKXBaseURL     string
	OKXSwapBaseURL string
	OKXAPIKey      string
	OKXSecretKey   string
	OKXPassphrase  string
	OKXProjectID   string

	// Per-chain RPC endpoint overrides.
	RPCOverrides map[int64]string
}

type fileConfig struct {
	Listen   string `yaml:"listen"`
	LogLevel string `yaml:"log_level"`
	Timeout  string `yaml:"timeout"`
	Retries  *int   `yaml:"retries"`
	Cache    struct {
		RankedTTL   string `yaml:"ranked_ttl"`
		DecimalsTTL string `yaml:"decimals_ttl"`
	} `yaml:"cache"`
	Market struct {
		TopTokens   *int `yaml:"top_tokens"`
		CandleLimit *int `yaml:"candle_limit"`
		TradeLimit  *int `yaml:"trade_limit"`
	} `yaml:"market"`
	OKX struct {
		BaseURL     string `yaml:"base_url"`
		SwapBaseURL string `yaml:"swap_base_url"`
	} `yaml:"okx"`
	RPC map[string]string `yaml:"rpc"`
}

func Load(flags Flags) (Settings, error) {
	settings := defaultSettings()

	if err := applyFileConfig(flags.ConfigPath, &settings); err != nil {
		return Settings{}, err
	}
	applyEnv(&settings)
	applyFlags(flags, &settings)

	if settings.Timeout <= 0 {
		settings.Timeout = 10 * time.Second
	}
	if settings.Retries < 0 {
		settings.Retries = 0
	}
	if settings.TopTokens <= 0 {
		settings.TopTokens = 50
	}
	if settings.CandleLimit <= 0 || settings.CandleLimit > 300 {
		settings.CandleLimit = 100
	}
	return settings, nil
}

func defaultSettings() Settings {
	return Settings{
		Listen:         ":8080",
		LogLevel:       "info",
		Timeout:        10 * time.Second,
		Retries:        2,
		RankedTTL:      3 * time.Minute,
		DecimalsTTL:    time.Hour,
		TopTokens:      50,
		CandleLimit:    100,
		TradeLimit:     50,
		OKXBaseURL:     "https://www.okx.com",
		OKXSwapBaseURL: "https://web3.okx.com",
		RPCOverrides:   map[int64]string{},
	}
}

func applyFileConfig(path string, settings *Settings) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}

	var cfg fileConfig
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return fmt.Errorf("parse config yaml: %w", err)
	}

	if cfg.Listen != "" {
		settings.Listen = cfg.Listen
	}
	if cfg.LogLevel != "" {
		settings.LogLevel = strings.ToLower(cfg.LogLevel)
	}
	if cfg.Timeout != "" {
		d, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return fmt.Errorf("config timeout: %w", err)
		}
		settings.Timeout = d
	}
	if cfg.Retries != nil {
		settings.Retries = *cfg.Retries
	}
	if cfg.Cache.RankedTTL != "" {
		d, err := time.ParseDuration(cfg.Cache.RankedTTL)
		if err != nil {
			return fmt.Errorf("config cache.ranked_ttl: %w", err)
		}
		settings.RankedTTL = d
	}
	if cfg.Cache.DecimalsTTL != "" {
		d, err := time.ParseDuration(cfg.Cache.DecimalsTTL)
		if err != nil {
			return fmt.Errorf("config cache.decimals_ttl: %w", err)
		}
		settings.DecimalsTTL = d
	}
	if cfg.Market.TopTokens != nil {
		settings.TopTokens = *cfg.Market.TopTokens
	}
	if cfg.Market.CandleLimit != nil {
		settings.CandleLimit = *cfg.Market.CandleLimit
	}
	if cfg.Market.TradeLimit != nil {
		settings.TradeLimit = *cfg.Market.TradeLimit
	}
	if cfg.OKX.BaseURL != "" {
		settings.OKXBaseURL = cfg.OKX.BaseURL
	}
	if cfg.OKX.SwapBaseURL != "" {
		settings.OKXSwapBaseURL = cfg.OKX.SwapBaseURL
	}
	for rawID, url := range cfg.RPC {
		id, err := strconv.ParseInt(rawID, 10, 64)
		if err != nil {
			return fmt.Errorf("config rpc: invalid chain id %q", rawID)
		}
		settings.RPCOverrides[id] = url
	}
	return nil
}

// applyEnv reads secrets and a few overrides from the environment. The
// OKX credentials intentionally have no file-config equivalent.
func applyEnv(settings *Settings) {
	if v := os.Getenv("DEXGATE_LISTEN"); v != "" {
		settings.Listen = v
	}
	if v := os.Getenv("DEXGATE_LOG_LEVEL"); v != "" {
		settings.LogLevel = strings.ToLower(v)
	}
	settings.OKXAPIKey = os.Getenv("OKX_API_KEY")
	settings.OKXSecretKey = os.Getenv("OKX_SECRET_KEY")
	settings.OKXPassphrase = os.Getenv("OKX_PASSPHRASE")
	settings.OKXProjectID = os.Getenv("OKX_PROJECT_ID")
}

func applyFlags(flags Flags, settings *Settings) {
	if flags.Listen != "" {
		settings.Listen = flags.Listen
	}
	if flags.LogLevel != "" {
		settings.LogLevel = strings.ToLower(flags.LogLevel)
	}
	if flags.Timeout != "" {
		if d, err := time.ParseDuration(flags.Timeout); err == nil {
			settings.Timeout = d
		}
	}
	if flags.Retries >= 0 {
		settings.Retries = flags.Retries
	}
}

// AggregatorConfigured reports whether OKX credentials are present. Without
// them quote resolution relies entirely on the on-chain prober.
func (s Settings) AggregatorConfigured() bool {
	return s.OKXAPIKey != "" && s.OKXSecretKey != ""
}
