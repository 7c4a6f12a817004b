package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Trade.Strategy != "SINGLE_FIXED" {
		t.Errorf("strategy = %s", cfg.Trade.Strategy)
	}
	if cfg.Trade.AmountSOL != 0.1 || cfg.Trade.LegCount != 1 || cfg.Trade.SlippageBps != 100 {
		t.Errorf("trade defaults = %+v", cfg.Trade)
	}
	if cfg.Validation.Timeout.Std() != 8*time.Second {
		t.Errorf("validation timeout = %s", cfg.Validation.Timeout.Std())
	}
	if cfg.Execution.ConfirmTimeout.Std() != 45*time.Second {
		t.Errorf("confirm timeout = %s", cfg.Execution.ConfirmTimeout.Std())
	}
	if !cfg.RequoteOnRetry() || !cfg.SkipPreflight() {
		t.Error("requote and skip preflight must default to true")
	}
	if cfg.Metrics.ListenAddr != ":9091" {
		t.Errorf("metrics addr = %s", cfg.Metrics.ListenAddr)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, `
trade:
  strategy: MULTI_FIXED
  amount_sol: 0.25
  leg_count: 3
  smart_split: true
  jitter_pct: 10
validation:
  min_liquidity_sol: 5
  timeout: 3s
execution:
  max_attempts: 5
  retry_delay: 250ms
  requote_on_retry: false
monitors:
  telegram:
    enabled: true
    bot_token: from-yaml
    allowed_chats: [100, 200]
  twitter:
    enabled: true
    bearer_token: from-yaml
    accounts: [alpha_caller, beta_caller]
    interval: 20s
  websites:
    - url: https://example.com/calls
      interval: 45s
  dedupe_window: 10m
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Trade.Strategy != "MULTI_FIXED" || cfg.Trade.AmountSOL != 0.25 || cfg.Trade.LegCount != 3 {
		t.Errorf("trade = %+v", cfg.Trade)
	}
	if !cfg.Trade.SmartSplit || cfg.Trade.JitterPct != 10 {
		t.Errorf("trade extras = %+v", cfg.Trade)
	}
	if cfg.Validation.MinLiquiditySOL != 5 || cfg.Validation.Timeout.Std() != 3*time.Second {
		t.Errorf("validation = %+v", cfg.Validation)
	}
	if cfg.Execution.MaxAttempts != 5 || cfg.Execution.RetryDelay.Std() != 250*time.Millisecond {
		t.Errorf("execution = %+v", cfg.Execution)
	}
	if cfg.RequoteOnRetry() {
		t.Error("requote_on_retry=false must stick")
	}
	if len(cfg.Monitors.Telegram.AllowedChats) != 2 {
		t.Errorf("allowed chats = %v", cfg.Monitors.Telegram.AllowedChats)
	}
	if len(cfg.Monitors.Twitter.Accounts) != 2 || cfg.Monitors.Twitter.Interval.Std() != 20*time.Second {
		t.Errorf("twitter = %+v", cfg.Monitors.Twitter)
	}
	if len(cfg.Monitors.Websites) != 1 || cfg.Monitors.Websites[0].Interval.Std() != 45*time.Second {
		t.Errorf("websites = %+v", cfg.Monitors.Websites)
	}
	if cfg.Monitors.DedupeWindow.Std() != 10*time.Minute {
		t.Errorf("dedupe window = %s", cfg.Monitors.DedupeWindow.Std())
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
solana:
  rpc_endpoint: https://from-yaml.example
`)

	t.Setenv("TRADE_WALLETS", "secretA, secretB,")
	t.Setenv("SOLANA_RPC_ENDPOINT", "https://from-env.example")
	t.Setenv("TRADE_AMOUNT_SOL", "0.5")
	t.Setenv("TRADE_STRATEGY", "MULTI_PROPORTIONAL")
	t.Setenv("TWITTER_BEARER_TOKEN", "env-bearer")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(cfg.Wallet.Secrets) != 2 || cfg.Wallet.Secrets[0] != "secretA" || cfg.Wallet.Secrets[1] != "secretB" {
		t.Errorf("wallet secrets = %v", cfg.Wallet.Secrets)
	}
	if cfg.Solana.RPCEndpoint != "https://from-env.example" {
		t.Errorf("rpc endpoint = %s", cfg.Solana.RPCEndpoint)
	}
	if cfg.Trade.AmountSOL != 0.5 || cfg.Trade.Strategy != "MULTI_PROPORTIONAL" {
		t.Errorf("trade overrides = %+v", cfg.Trade)
	}
	if cfg.Monitors.Twitter.BearerToken != "env-bearer" {
		t.Errorf("twitter bearer = %s", cfg.Monitors.Twitter.BearerToken)
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	path := writeConfig(t, "validation:\n  timeout: not-a-duration\n")

	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error for bad duration")
	}
}

func TestValidate(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}

	if err := cfg.Validate(); err == nil {
		t.Error("expected error without wallet secrets")
	}

	cfg.Wallet.Secrets = []string{"secret"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}

	cfg.Trade.Strategy = "NOPE"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown strategy")
	}

	cfg.Trade.Strategy = "SINGLE_FIXED"
	cfg.Monitors.Telegram.Enabled = true
	cfg.Monitors.Telegram.BotToken = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for enabled telegram without token")
	}

	cfg.Monitors.Telegram.Enabled = false
	cfg.Monitors.Twitter.Enabled = true
	cfg.Monitors.Twitter.BearerToken = "tok"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for enabled twitter without accounts")
	}
	cfg.Monitors.Twitter.Accounts = []string{"alpha_caller"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate with twitter: %v", err)
	}
}
