// Command sniper runs the signal-to-trade engine: it watches the
// configured monitor sources, validates extracted mints, and executes
// purchase plans until interrupted.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"solana-sniper/internal/config"
	"solana-sniper/internal/distributor"
	"solana-sniper/internal/domain"
	"solana-sniper/internal/engine"
	"solana-sniper/internal/extractor"
	"solana-sniper/internal/journal"
	"solana-sniper/internal/journal/memory"
	"solana-sniper/internal/journal/migrations"
	jpostgres "solana-sniper/internal/journal/postgres"
	"solana-sniper/internal/marketdata"
	"solana-sniper/internal/monitor"
	"solana-sniper/internal/observability"
	"solana-sniper/internal/solana"
	"solana-sniper/internal/swap"
	"solana-sniper/internal/validator"
	"solana-sniper/internal/wallet"
)

func main() {
	configPath := flag.String("config", defaultConfigPath(), "path to YAML config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("load config")
	}
	log := newLogger(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	keystore, err := wallet.NewKeystore(cfg.Wallet.Secrets)
	if err != nil {
		log.Fatal().Err(err).Msg("load wallet secrets")
	}

	rpc := solana.NewHTTPClient(cfg.Solana.RPCEndpoint)

	pool, err := wallet.NewPool(keystore.Pubkeys(), wallet.Config{
		FeeReserveSOL: cfg.Wallet.FeeReserveSOL,
		MinBalanceSOL: cfg.Wallet.MinBalanceSOL,
	}, rpc, log)
	if err != nil {
		log.Fatal().Err(err).Msg("build funding pool")
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

	market := marketdata.NewSource(swapClient, rpc, marketdata.Config{
		ProbeSizeSOL: cfg.Trade.AmountSOL,
		SlippageBps:  cfg.Trade.SlippageBps,
	}, log)

	val := validator.New(market, validator.Thresholds{
		MinLiquiditySOL:   cfg.Validation.MinLiquiditySOL,
		MaxPriceImpactPct: cfg.Validation.MaxPriceImpactPct,
		MaxBuyTaxPct:      cfg.Validation.MaxBuyTaxPct,
		MaxSellTaxPct:     cfg.Validation.MaxSellTaxPct,
		MinHolders:        cfg.Validation.MinHolders,
		CheckHoneypot:     cfg.Validation.CheckHoneypot,
		TradeSizeSOL:      cfg.Trade.AmountSOL,
		Timeout:           cfg.Validation.Timeout.Std(),
		Blacklist:         cfg.Validation.Blacklist,
	}, log)

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

	jrnl, closeJournal, err := openJournal(ctx, cfg.Journal.PostgresDSN, log)
	if err != nil {
		log.Fatal().Err(err).Msg("open journal")
	}
	defer closeJournal()

	sources, err := buildSources(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("build monitor sources")
	}
	if len(sources) == 0 {
		log.Fatal().Msg("no monitor sources enabled")
	}

	eng := engine.New(extractor.New(), val, pool, dist, jrnl, engine.Config{
		Strategy: domain.Strategy{
			Kind:                domain.StrategyKind(cfg.Trade.Strategy),
			AmountSOL:           cfg.Trade.AmountSOL,
			LegCount:            cfg.Trade.LegCount,
			MaxTradesPerAccount: cfg.Trade.MaxTradesPerAccount,
			SmartSplit:          cfg.Trade.SmartSplit,
			JitterPct:           cfg.Trade.JitterPct,
			MaxLegSOL:           cfg.Trade.MaxLegSOL,
		},
		DedupeWindow: cfg.Monitors.DedupeWindow.Std(),
	}, log)

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Wallet.RefreshCron, func() {
		pool.RefreshBalances(ctx)
		publishPoolGauges(pool)
	}); err != nil {
		log.Fatal().Err(err).Str("cron", cfg.Wallet.RefreshCron).Msg("schedule balance refresh")
	}
	if _, err := scheduler.AddFunc("@every 5m", eng.LogStats); err != nil {
		log.Fatal().Err(err).Msg("schedule stats reporting")
	}
	scheduler.Start()
	defer scheduler.Stop()

	metricsSrv := startMetricsServer(cfg.Metrics.ListenAddr, log)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}()

	log.Info().
		Str("strategy", cfg.Trade.Strategy).
		Float64("amount_sol", cfg.Trade.AmountSOL).
		Int("accounts", len(keystore.Pubkeys())).
		Int("sources", len(sources)).
		Msg("sniper started")

	if err := eng.Run(ctx, sources); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("engine stopped")
	}
	eng.LogStats()
	log.Info().Msg("sniper stopped")
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

// openJournal wires the persistent journal when a DSN is configured
// and falls back to in-memory stores otherwise.
func openJournal(ctx context.Context, dsn string, log zerolog.Logger) (*journal.Journal, func(), error) {
	if dsn == "" {
		log.Info().Msg("journal: using in-memory stores")
		return memory.NewJournal(), func() {}, nil
	}
	dbPool, err := jpostgres.NewPool(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}
	if err := migrations.RunPostgresMigrations(ctx, dbPool); err != nil {
		dbPool.Close()
		return nil, nil, err
	}
	log.Info().Msg("journal: postgres ready")
	return &journal.Journal{
		Validations: jpostgres.NewValidationStore(dbPool),
		Plans:       jpostgres.NewPlanStore(dbPool),
		Summaries:   jpostgres.NewSummaryStore(dbPool),
	}, dbPool.Close, nil
}

func buildSources(cfg *config.Config, log zerolog.Logger) ([]monitor.Source, error) {
	var sources []monitor.Source
	if cfg.Monitors.Telegram.Enabled {
		tg, err := monitor.NewTelegramSource(cfg.Monitors.Telegram.BotToken, cfg.Monitors.Telegram.AllowedChats, log)
		if err != nil {
			return nil, err
		}
		sources = append(sources, tg)
	}
	if cfg.Monitors.Twitter.Enabled {
		sources = append(sources, monitor.NewTwitterSource(
			cfg.Monitors.Twitter.BearerToken, cfg.Monitors.Twitter.Accounts,
			cfg.Monitors.Twitter.Interval.Std(), log))
	}
	for _, site := range cfg.Monitors.Websites {
		sources = append(sources, monitor.NewWebsiteSource(site.URL, site.Interval.Std(), log))
	}
	if cfg.Monitors.ChainLogs.Enabled {
		sources = append(sources, monitor.NewChainLogSource(cfg.Solana.WSEndpoint, cfg.Monitors.ChainLogs.Mentions, nil, log))
	}
	return sources, nil
}

func publishPoolGauges(pool *wallet.Pool) {
	var eligible, reserved int
	for _, acct := range pool.Snapshot() {
		if acct.Reserved {
			reserved++
			continue
		}
		if acct.Spendable() > 0 {
			eligible++
		}
	}
	observability.UpdatePoolGauges(eligible, pool.TotalSpendable(), reserved)
}

func startMetricsServer(addr string, log zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("addr", addr).Msg("metrics server failed")
		}
	}()
	log.Info().Str("addr", addr).Msg("metrics listening")
	return srv
}
