// Command quickbuy executes a single purchase for a pasted signal and
// exits. It runs the same extract-validate-execute path as the daemon
// but skips monitors, scheduling, and the metrics endpoint.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"solana-sniper/internal/config"
	"solana-sniper/internal/distributor"
	"solana-sniper/internal/domain"
	"solana-sniper/internal/engine"
	"solana-sniper/internal/extractor"
	"solana-sniper/internal/journal/memory"
	"solana-sniper/internal/marketdata"
	"solana-sniper/internal/monitor"
	"solana-sniper/internal/solana"
	"solana-sniper/internal/swap"
	"solana-sniper/internal/validator"
	"solana-sniper/internal/wallet"
)

func main() {
	configPath := flag.String("config", defaultConfigPath(), "path to YAML config")
	amount := flag.Float64("amount", 0, "override trade amount in SOL")
	skipChecks := flag.Bool("yolo", false, "skip safety validation")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: quickbuy [flags] <mint, link, or pasted text>")
		flag.PrintDefaults()
		os.Exit(2)
	}
	text := strings.Join(flag.Args(), " ")

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal("load config: %v", err)
	}
	if *amount > 0 {
		cfg.Trade.AmountSOL = *amount
	}
	if err := cfg.Validate(); err != nil {
		fatal("invalid config: %v", err)
	}
	log := newLogger(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	keystore, err := wallet.NewKeystore(cfg.Wallet.Secrets)
	if err != nil {
		fatal("load wallet secrets: %v", err)
	}
	rpc := solana.NewHTTPClient(cfg.Solana.RPCEndpoint)
	pool, err := wallet.NewPool(keystore.Pubkeys(), wallet.Config{
		FeeReserveSOL: cfg.Wallet.FeeReserveSOL,
		MinBalanceSOL: cfg.Wallet.MinBalanceSOL,
	}, rpc, log)
	if err != nil {
		fatal("build funding pool: %v", err)
	}
	pool.RefreshBalances(ctx)

	var swapOpts []swap.ClientOption
	if cfg.Aggregator.BaseURL != "" {
		swapOpts = append(swapOpts, swap.WithBaseURL(cfg.Aggregator.BaseURL))
	}
	if cfg.Aggregator.APIKey != "" {
		swapOpts = append(swapOpts, swap.WithAPIKey(cfg.Aggregator.APIKey))
	}
	swapClient := swap.NewClient(swapOpts...)

	thresholds := validator.Thresholds{
		MinLiquiditySOL:   cfg.Validation.MinLiquiditySOL,
		MaxPriceImpactPct: cfg.Validation.MaxPriceImpactPct,
		MaxBuyTaxPct:      cfg.Validation.MaxBuyTaxPct,
		MaxSellTaxPct:     cfg.Validation.MaxSellTaxPct,
		MinHolders:        cfg.Validation.MinHolders,
		CheckHoneypot:     cfg.Validation.CheckHoneypot,
		TradeSizeSOL:      cfg.Trade.AmountSOL,
		Timeout:           cfg.Validation.Timeout.Std(),
		Blacklist:         cfg.Validation.Blacklist,
	}
	if *skipChecks {
		// Keep only the blacklist; everything else passes.
		thresholds = validator.Thresholds{
			Timeout:   cfg.Validation.Timeout.Std(),
			Blacklist: cfg.Validation.Blacklist,
		}
	}
	market := marketdata.NewSource(swapClient, rpc, marketdata.Config{
		ProbeSizeSOL: cfg.Trade.AmountSOL,
		SlippageBps:  cfg.Trade.SlippageBps,
	}, log)
	val := validator.New(market, thresholds, log)

	dist := distributor.NewDistributor(swapClient, swapClient, keystore, rpc, pool, distributor.Config{
		MaxInFlight:         int64(cfg.Execution.MaxInFlight),
		SlippageBps:         cfg.Trade.SlippageBps,
		PriorityFeeLamports: uint64(cfg.Trade.PriorityFeeLamports),
		MaxAttempts:         cfg.Execution.MaxAttempts,
		RequoteOnRetry:      cfg.RequoteOnRetry(),
		RetryInitialDelay:   cfg.Execution.RetryDelay.Std(),
		RetryMaxDelay:       cfg.Execution.RetryMaxDelay.Std(),
		ConfirmInterval:     cfg.Execution.ConfirmInterval.Std(),
		ConfirmTimeout:      cfg.Execution.ConfirmTimeout.Std(),
		SkipPreflight:       cfg.SkipPreflight(),
	}, log)

	eng := engine.New(extractor.New(), val, pool, dist, memory.NewJournal(), engine.Config{
		Strategy: domain.Strategy{
			Kind:                domain.StrategyKind(cfg.Trade.Strategy),
			AmountSOL:           cfg.Trade.AmountSOL,
			LegCount:            cfg.Trade.LegCount,
			MaxTradesPerAccount: cfg.Trade.MaxTradesPerAccount,
			SmartSplit:          cfg.Trade.SmartSplit,
			JitterPct:           cfg.Trade.JitterPct,
			MaxLegSOL:           cfg.Trade.MaxLegSOL,
		},
	}, log)

	summaries := eng.HandleSignal(ctx, monitor.TextEvent{
		Platform: domain.PlatformManual,
		Source:   "quickbuy",
		Text:     text,
		SeenAt:   time.Now(),
	})
	if len(summaries) == 0 {
		fmt.Fprintln(os.Stderr, "no purchase executed (no mint found, rejected, or no eligible account)")
		os.Exit(1)
	}
	for _, s := range summaries {
		printSummary(s)
	}
	for _, s := range summaries {
		if s.Succeeded == 0 {
			os.Exit(1)
		}
	}
}

func printSummary(s *domain.ExecutionSummary) {
	fmt.Printf("plan      %s\n", s.PlanID)
	fmt.Printf("mint      %s\n", s.Mint)
	fmt.Printf("strategy  %s\n", s.Strategy)
	fmt.Printf("legs      %d confirmed, %d failed\n", s.Succeeded, s.Failed)
	fmt.Printf("spent     %.6f SOL\n", s.TotalSpentSOL)
	fmt.Printf("bought    %.0f tokens\n", s.TokensBought)
	fmt.Printf("elapsed   %s\n", s.Elapsed.Round(time.Millisecond))
	for _, sig := range s.Signatures {
		fmt.Printf("sig       %s\n", sig)
	}
}

func defaultConfigPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "configs/config.yaml"
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
