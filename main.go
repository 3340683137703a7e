package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"milos55/reklamiworker/config"
	"milos55/reklamiworker/internal/ad"
	"milos55/reklamiworker/internal/crawler"
	"milos55/reklamiworker/internal/fetch"
	"milos55/reklamiworker/internal/normalize"
	"milos55/reklamiworker/logger"
	"milos55/reklamiworker/metrics"
	"milos55/reklamiworker/services/cache"
	"milos55/reklamiworker/services/pruner"
	"milos55/reklamiworker/services/publisher"
	"milos55/reklamiworker/services/store"
	"milos55/reklamiworker/services/worker"

	"github.com/joho/godotenv"
)

const usage = "usage: reklamiworker [scrape|prune]"

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	command := "scrape"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}
	if command != "scrape" && command != "prune" {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("command", command).
		Strs("sources", cfg.Sources).
		Int("start_page", cfg.StartPage).
		Int("end_page", cfg.EndPage).
		Int("batch_size", cfg.BatchSize).
		Dur("crawl_interval", cfg.CrawlInterval).
		Msg("Starting application")

	// Cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.Init(cfg.Environment, strings.Join(cfg.Sources, ","))
	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr)
	}

	// Initialize services
	services, err := initializeServices(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer services.Cleanup()

	switch command {
	case "prune":
		err = runPrune(ctx, cfg, services)
	default:
		err = runScrape(ctx, cfg, services)
	}

	if err != nil && ctx.Err() == nil {
		log.Error().Err(err).Str("command", command).Msg("Worker exited with error")
		services.Cleanup()
		os.Exit(1)
	}
	log.Info().Msg("Shutting down gracefully...")
}

// Services holds all the initialized services
type Services struct {
	Cache     cache.CacheService
	Fetcher   *fetch.Engine
	Store     store.Store
	Publisher publisher.Publisher
	Conflict  store.ConflictPolicy
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Publisher != nil {
		s.Publisher.Close()
		s.Publisher = nil
	}
	if s.Store != nil {
		s.Store.Close()
		s.Store = nil
	}
	if s.Fetcher != nil {
		s.Fetcher.Close()
	}
}

// initializeServices initializes all required services
func initializeServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	services := &Services{}

	conflict, err := store.ParseConflictPolicy(cfg.ConflictPolicy)
	if err != nil {
		return nil, err
	}
	services.Conflict = conflict

	// Memcache is optional; without it hosts are never blocked and links never remembered
	if cfg.MemcacheAddr != "" {
		mc := cache.NewMemcacheService(cfg.MemcacheAddr)
		if err := mc.Ping(); err != nil {
			logger.ForCache().Warn().Err(err).Str("addr", cfg.MemcacheAddr).Msg("memcache unreachable, continuing without cache")
		} else {
			services.Cache = mc
			logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)
		}
	}

	services.Fetcher = fetch.NewEngine(fetch.Options{
		Retries:    cfg.FetchRetries,
		RetryDelay: cfg.FetchRetryDelay,
		Timeout:    cfg.FetchTimeout,
		BlockTime:  cfg.HostBlockTime,
		Profile:    fetch.CrawlerProfile,
	}, services.Cache)

	if cfg.DatabaseURL != "" {
		pg, err := store.NewPostgresStore(ctx, cfg.DatabaseURL, cfg.DBMaxConns, conflict)
		if err != nil {
			services.Cleanup()
			return nil, err
		}
		services.Store = pg
		logger.Info("Connected to Postgres (max conns: %d, on conflict: %s)", cfg.DBMaxConns, conflict)
	} else {
		services.Store = store.NewMemoryStore(conflict)
		logger.Warn("DATABASE_URL not set, ads are kept in memory only")
	}

	if cfg.RedisAddr != "" {
		redisPublisher := publisher.NewRedisPublisher(
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStream,
			cfg.RedisStreamCount,
			cfg.RedisStreamMaxLength,
		)
		if err := redisPublisher.Ping(ctx); err != nil {
			redisPublisher.Close()
			services.Cleanup()
			return nil, err
		}
		services.Publisher = redisPublisher
		logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
			cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
	}

	return services, nil
}

// newWorker builds one processor per configured source
func newWorker(cfg *config.Config, services *Services) (*worker.Worker, error) {
	sources, err := crawler.CreateSources(cfg)
	if err != nil {
		return nil, err
	}
	onMissing, err := ad.ParseMissingAction(cfg.MissingFieldPolicy)
	if err != nil {
		return nil, err
	}

	opts := crawler.ProcessorOptions{
		OnMissing:   onMissing,
		Placeholder: cfg.Placeholder,
		Phones:      normalize.NewPhoneSet(cfg.PhoneBlocklist),
	}
	// Under the update policy stored ads must be refetched to be refreshed
	if services.Cache != nil && services.Conflict == store.DoNothing {
		opts.Seen = services.Cache
	}

	processors := make([]worker.PageProcessor, 0, len(sources))
	for _, src := range sources {
		processors = append(processors, crawler.NewProcessor(src, services.Fetcher, opts))
	}

	return worker.NewWorker(
		processors,
		services.Fetcher,
		services.Store,
		services.Publisher,
		worker.RunConfig{
			StartPage: cfg.StartPage,
			EndPage:   cfg.EndPage,
			BatchSize: cfg.BatchSize,
			Pacing:    cfg.BatchPacing,
		},
		cfg.CrawlInterval,
	), nil
}

func runScrape(ctx context.Context, cfg *config.Config, services *Services) error {
	w, err := newWorker(cfg, services)
	if err != nil {
		return err
	}
	logger.Info("Starting classifieds worker with %d sources", len(cfg.Sources))
	return w.Start(ctx)
}

func runPrune(ctx context.Context, cfg *config.Config, services *Services) error {
	_, err := pruner.NewPruner(services.Store, services.Fetcher, cfg.PruneBatchSize).Run(ctx)
	return err
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	logger.Info("Serving metrics on %s", addr)
	if err := server.ListenAndServe(); err != nil {
		logger.LogError("metrics", err, "metrics server stopped")
	}
}
