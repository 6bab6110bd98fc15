package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Wanyuxiang-code/Financial-NewsFeed/db"
	"github.com/Wanyuxiang-code/Financial-NewsFeed/internal/analysis"
	"github.com/Wanyuxiang-code/Financial-NewsFeed/internal/collector"
	"github.com/Wanyuxiang-code/Financial-NewsFeed/internal/config"
	"github.com/Wanyuxiang-code/Financial-NewsFeed/internal/dedup"
	"github.com/Wanyuxiang-code/Financial-NewsFeed/internal/model"
	"github.com/Wanyuxiang-code/Financial-NewsFeed/internal/output"
	"github.com/Wanyuxiang-code/Financial-NewsFeed/internal/pipeline"
	"github.com/Wanyuxiang-code/Financial-NewsFeed/internal/repository"
	"github.com/Wanyuxiang-code/Financial-NewsFeed/pkg/throttle"
)

var (
	flagHours   int
	flagTickers []string
	flagLimit   int
	flagDryRun  bool
	flagDigests string
)

var rootCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Fetch, dedup and analyze watchlist news",
	Long: `Runs one ingestion cycle: fetches news and filings for the
watchlist, deduplicates them against this run and recent history,
sends the survivors through the AI analysis gate and writes the
daily digest.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().IntVar(&flagHours, "hours", 24, "lookback window in hours")
	rootCmd.Flags().StringSliceVar(&flagTickers, "tickers", nil, "tickers to run (default: whole watchlist)")
	rootCmd.Flags().IntVar(&flagLimit, "limit", 5, "max items analyzed per ticker, 0 = unlimited")
	rootCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "collect and dedup only, skip analysis")
	rootCmd.Flags().StringVar(&flagDigests, "digest-dir", "data/digests", "directory for digest output")
}

func run(cmd *cobra.Command, args []string) error {
	godotenv.Load()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	watchlist, err := config.LoadWatchlist(cfg.WatchlistPath)
	if err != nil {
		return err
	}

	limiter := throttle.NewLimiter(nil)
	exec := throttle.NewExecutor(limiter)

	var collectors []collector.Collector
	if cfg.FinnhubAPIKey != "" {
		collectors = append(collectors, collector.NewFinnhubCollector(cfg.FinnhubAPIKey))
	} else {
		slog.Warn("FINNHUB_API_KEY not set, news source disabled")
	}
	collectors = append(collectors, collector.NewEdgarCollector(cfg.SECUserAgent))

	var history dedup.HistoryStore
	if cfg.RedisURL != "" {
		if err := db.ConnectRedis(cfg.RedisURL); err != nil {
			return err
		}
		defer db.CloseRedis()
		history = dedup.NewRedisHistory(db.Redis, cfg.HistoryWindow)
	} else {
		slog.Warn("REDIS_URL not set, dedup history will not survive this process")
		history = dedup.NewMemoryHistory(cfg.HistoryWindow)
	}

	newEngine := func() *dedup.Engine {
		return dedup.NewEngine(dedup.Config{
			Threshold: cfg.SimilarityThreshold,
			Window:    cfg.HistoryWindow,
		}, history)
	}

	provider, err := analysis.NewProvider(cfg.AIProvider, cfg.OpenAIAPIKey, cfg.AnthropicAPIKey)
	if err != nil {
		return err
	}
	gate := analysis.NewGate(provider, exec)

	orchestrator := collector.NewOrchestrator(collectors, exec, cfg.FetchWorkers)
	coordinator := pipeline.NewCoordinator(watchlist, orchestrator, newEngine, gate, cfg.AnalysisWorkers)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	record, err := coordinator.Run(ctx, model.RunParams{
		LookbackHours: flagHours,
		Tickers:       flagTickers,
		PerTickerCap:  flagLimit,
		DryRun:        flagDryRun,
	})
	if err != nil {
		return err
	}

	path, err := output.NewMarkdownWriter(flagDigests).Write(record)
	if err != nil {
		slog.Error("error writing digest", "error", err)
	} else {
		slog.Info("digest written", "path", path)
	}

	if cfg.DatabaseURL != "" {
		if err := db.Connect(cfg.DatabaseURL); err != nil {
			slog.Error("error connecting to DB, run not persisted", "error", err)
			return nil
		}
		defer db.Close()

		if err := repository.NewRunRepository(db.DB).SaveRun(&record); err != nil {
			slog.Error("error persisting run", "error", err, "run_id", record.RunID)
			return nil
		}
		slog.Info("run persisted", "run_id", record.RunID)
	} else {
		slog.Warn("DATABASE_URL not set, run not persisted")
	}

	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
