// Package config loads application settings from a YAML file with
// environment overrides. Wallet secrets are accepted from the
// environment only.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Duration decodes YAML values like "45s" via time.ParseDuration.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the standard library representation.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config holds all application configuration.
type Config struct {
	Trade struct {
		Strategy            string  `yaml:"strategy"` // SINGLE_FIXED, MULTI_FIXED, MULTI_PROPORTIONAL
		AmountSOL           float64 `yaml:"amount_sol"`
		LegCount            int     `yaml:"leg_count"`
		SlippageBps         int     `yaml:"slippage_bps"`
		PriorityFeeLamports int64   `yaml:"priority_fee_lamports"`
		SmartSplit          bool    `yaml:"smart_split"`
		JitterPct           float64 `yaml:"jitter_pct"`
		MaxLegSOL           float64 `yaml:"max_leg_sol"`
		MaxTradesPerAccount int     `yaml:"max_trades_per_account"`
	} `yaml:"trade"`

	Validation struct {
		MinLiquiditySOL   float64  `yaml:"min_liquidity_sol"`
		MaxPriceImpactPct float64  `yaml:"max_price_impact_pct"`
		MaxBuyTaxPct      float64  `yaml:"max_buy_tax_pct"`
		MaxSellTaxPct     float64  `yaml:"max_sell_tax_pct"`
		MinHolders        int      `yaml:"min_holders"`
		CheckHoneypot     bool     `yaml:"check_honeypot"`
		Timeout           Duration `yaml:"timeout"`
		Blacklist         []string `yaml:"blacklist"`
	} `yaml:"validation"`

	Wallet struct {
		// Secrets is populated from TRADE_WALLETS only, never YAML.
		Secrets       []string `yaml:"-"`
		FeeReserveSOL float64  `yaml:"fee_reserve_sol"`
		MinBalanceSOL float64  `yaml:"min_balance_sol"`
		RefreshCron   string   `yaml:"refresh_cron"`
	} `yaml:"wallet"`

	Execution struct {
		MaxInFlight     int      `yaml:"max_in_flight"`
		MaxAttempts     int      `yaml:"max_attempts"`
		RetryDelay      Duration `yaml:"retry_delay"`
		RetryMaxDelay   Duration `yaml:"retry_max_delay"`
		RequoteOnRetry  *bool    `yaml:"requote_on_retry"`
		ConfirmInterval Duration `yaml:"confirm_interval"`
		ConfirmTimeout  Duration `yaml:"confirm_timeout"`
		SkipPreflight   *bool    `yaml:"skip_preflight"`
	} `yaml:"execution"`

	Solana struct {
		RPCEndpoint string `yaml:"rpc_endpoint"`
		WSEndpoint  string `yaml:"ws_endpoint"`
	} `yaml:"solana"`

	Aggregator struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
	} `yaml:"aggregator"`

	Monitors struct {
		Telegram struct {
			Enabled      bool    `yaml:"enabled"`
			BotToken     string  `yaml:"bot_token"`
			AllowedChats []int64 `yaml:"allowed_chats"`
		} `yaml:"telegram"`
		Twitter struct {
			Enabled     bool     `yaml:"enabled"`
			BearerToken string   `yaml:"bearer_token"`
			Accounts    []string `yaml:"accounts"`
			Interval    Duration `yaml:"interval"`
		} `yaml:"twitter"`
		Websites []struct {
			URL      string   `yaml:"url"`
			Interval Duration `yaml:"interval"`
		} `yaml:"websites"`
		ChainLogs struct {
			Enabled  bool     `yaml:"enabled"`
			Mentions []string `yaml:"mentions"`
		} `yaml:"chain_logs"`
		DedupeWindow Duration `yaml:"dedupe_window"`
	} `yaml:"monitors"`

	Journal struct {
		PostgresDSN string `yaml:"postgres_dsn"`
	} `yaml:"journal"`

	Metrics struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"metrics"`

	LogLevel string `yaml:"log_level"`
}

// Load reads config from a YAML file, then applies environment
// variable overrides. A .env file next to the process is loaded first
// when present.
func Load(path string) (*Config, error) {
	// Missing .env is fine; explicit env always wins over the file.
	_ = godotenv.Load()

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	applyDefaults(cfg)

	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TRADE_WALLETS"); v != "" {
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				cfg.Wallet.Secrets = append(cfg.Wallet.Secrets, s)
			}
		}
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Monitors.Telegram.BotToken = v
	}
	if v := os.Getenv("TWITTER_BEARER_TOKEN"); v != "" {
		cfg.Monitors.Twitter.BearerToken = v
	}
	if v := os.Getenv("SOLANA_RPC_ENDPOINT"); v != "" {
		cfg.Solana.RPCEndpoint = v
	}
	if v := os.Getenv("SOLANA_WS_ENDPOINT"); v != "" {
		cfg.Solana.WSEndpoint = v
	}
	if v := os.Getenv("AGGREGATOR_API_KEY"); v != "" {
		cfg.Aggregator.APIKey = v
	}
	if v := os.Getenv("JOURNAL_POSTGRES_DSN"); v != "" {
		cfg.Journal.PostgresDSN = v
	}
	if v := os.Getenv("TRADE_AMOUNT_SOL"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Trade.AmountSOL = f
		}
	}
	if v := os.Getenv("TRADE_STRATEGY"); v != "" {
		cfg.Trade.Strategy = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Trade.Strategy == "" {
		cfg.Trade.Strategy = "SINGLE_FIXED"
	}
	if cfg.Trade.AmountSOL == 0 {
		cfg.Trade.AmountSOL = 0.1
	}
	if cfg.Trade.LegCount == 0 {
		cfg.Trade.LegCount = 1
	}
	if cfg.Trade.SlippageBps == 0 {
		cfg.Trade.SlippageBps = 100
	}
	if cfg.Validation.Timeout == 0 {
		cfg.Validation.Timeout = Duration(8 * time.Second)
	}
	if cfg.Wallet.FeeReserveSOL == 0 {
		cfg.Wallet.FeeReserveSOL = 0.01
	}
	if cfg.Wallet.RefreshCron == "" {
		cfg.Wallet.RefreshCron = "@every 30s"
	}
	if cfg.Execution.MaxInFlight == 0 {
		cfg.Execution.MaxInFlight = 8
	}
	if cfg.Execution.MaxAttempts == 0 {
		cfg.Execution.MaxAttempts = 3
	}
	if cfg.Execution.RetryDelay == 0 {
		cfg.Execution.RetryDelay = Duration(500 * time.Millisecond)
	}
	if cfg.Execution.RetryMaxDelay == 0 {
		cfg.Execution.RetryMaxDelay = Duration(5 * time.Second)
	}
	if cfg.Execution.ConfirmInterval == 0 {
		cfg.Execution.ConfirmInterval = Duration(time.Second)
	}
	if cfg.Execution.ConfirmTimeout == 0 {
		cfg.Execution.ConfirmTimeout = Duration(45 * time.Second)
	}
	if cfg.Solana.RPCEndpoint == "" {
		cfg.Solana.RPCEndpoint = "https://api.mainnet-beta.solana.com"
	}
	if cfg.Metrics.ListenAddr == "" {
		cfg.Metrics.ListenAddr = ":9091"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}

// RequoteOnRetry returns the configured value, defaulting to true.
func (c *Config) RequoteOnRetry() bool {
	if c.Execution.RequoteOnRetry == nil {
		return true
	}
	return *c.Execution.RequoteOnRetry
}

// SkipPreflight returns the configured value, defaulting to true.
func (c *Config) SkipPreflight() bool {
	if c.Execution.SkipPreflight == nil {
		return true
	}
	return *c.Execution.SkipPreflight
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	switch c.Trade.Strategy {
	case "SINGLE_FIXED", "MULTI_FIXED", "MULTI_PROPORTIONAL":
	default:
		return fmt.Errorf("trade.strategy %q is not a known strategy", c.Trade.Strategy)
	}
	if c.Trade.AmountSOL <= 0 {
		return fmt.Errorf("trade.amount_sol must be positive")
	}
	if c.Trade.LegCount <= 0 {
		return fmt.Errorf("trade.leg_count must be positive")
	}
	if len(c.Wallet.Secrets) == 0 {
		return fmt.Errorf("TRADE_WALLETS must list at least one wallet secret")
	}
	if c.Solana.RPCEndpoint == "" {
		return fmt.Errorf("solana.rpc_endpoint is required")
	}
	if c.Monitors.Telegram.Enabled && c.Monitors.Telegram.BotToken == "" {
		return fmt.Errorf("monitors.telegram.bot_token is required when telegram is enabled")
	}
	if c.Monitors.Twitter.Enabled {
		if c.Monitors.Twitter.BearerToken == "" {
			return fmt.Errorf("monitors.twitter.bearer_token is required when twitter is enabled")
		}
		if len(c.Monitors.Twitter.Accounts) == 0 {
			return fmt.Errorf("monitors.twitter.accounts must list at least one handle")
		}
	}
	if c.Monitors.ChainLogs.Enabled && c.Solana.WSEndpoint == "" {
		return fmt.Errorf("solana.ws_endpoint is required when chain logs are enabled")
	}
	return nil
}
