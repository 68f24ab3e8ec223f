package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/movie-catalog-service/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/movie-catalog-service/internal/catalog"
	"github.com/Adithya-Monish-Kumar-K/movie-catalog-service/internal/chatbot/cache"
	"github.com/Adithya-Monish-Kumar-K/movie-catalog-service/internal/chatbot/handler"
	"github.com/Adithya-Monish-Kumar-K/movie-catalog-service/internal/chatbot/matcher"
	"github.com/Adithya-Monish-Kumar-K/movie-catalog-service/internal/chatbot/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/movie-catalog-service/internal/lexicon"
	"github.com/Adithya-Monish-Kumar-K/movie-catalog-service/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/movie-catalog-service/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/movie-catalog-service/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/movie-catalog-service/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/movie-catalog-service/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/movie-catalog-service/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/movie-catalog-service/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/movie-catalog-service/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/movie-catalog-service/pkg/resilience"
)

const kafkaProbeTimeout = 3 * time.Second

var connectRetry = resilience.RetryConfig{
	MaxAttempts:  5,
	InitialDelay: 500 * time.Millisecond,
	MaxDelay:     5 * time.Second,
}

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting movie catalog service",
		"port", cfg.Server.Port,
		"catalog_source", cfg.Catalog.Source,
		"lexicon_format", cfg.Lexicon.Format,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(nil)
	}

	var db *postgres.Client
	if cfg.Catalog.Source == config.SourcePostgres || cfg.Analytics.SnapshotInterval > 0 {
		err = resilience.Retry(ctx, "postgres", connectRetry, func(ctx context.Context) error {
			var err error
			db, err = postgres.New(ctx, cfg.Postgres)
			return err
		})
		if err != nil {
			if cfg.Catalog.Source == config.SourcePostgres {
				slog.Error("failed to connect to postgres", "error", err)
				os.Exit(1)
			}
			slog.Warn("postgres unavailable, analytics snapshots disabled", "error", err)
		} else {
			defer db.Close()
		}
	}

	store, err := loadCatalog(ctx, cfg, db)
	if err != nil {
		slog.Error("failed to load catalog", "error", err)
		os.Exit(1)
	}
	if store.Len() == 0 {
		slog.Warn("catalog is empty, /movies will answer 500")
	}
	slog.Info("catalog ready", "movies", store.Len(), "fingerprint", store.Fingerprint())

	lex, err := lexicon.Open(cfg.Lexicon)
	if err != nil {
		slog.Error("failed to load lexicon", "error", err)
		os.Exit(1)
	}
	resolver := lexicon.NewResolver(lex)
	chatMatcher := matcher.New(tokenizer.Tokenize, resolver, matcher.Options{
		DropPunctuation: cfg.Chatbot.DropPunctuation,
	})
	if m != nil {
		m.CatalogMovies.Set(float64(store.Len()))
		m.TrackSynonymMemo(resolver.Stats)
	}

	var responseCache *cache.ResponseCache
	var redisClient *pkgredis.Client
	if cfg.Chatbot.CacheEnabled {
		redisClient, err = pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, chatbot caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			breaker := resilience.NewCircuitBreaker("redis", resilience.BreakerConfig{})
			responseCache = cache.New(cache.NewGuardedStore(redisClient, breaker), cfg.Redis.CacheTTL, store.Fingerprint())
			slog.Info("chatbot cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	var (
		aggregator *analytics.Aggregator
		tracker    handler.Tracker
		kafkaUp    bool
	)
	if cfg.Analytics.Enabled {
		// Analytics outlive the signal: events tracked while the server
		// drains must still be published.
		analyticsCtx, stopAnalytics := context.WithCancel(context.Background())
		defer stopAnalytics()

		aggregator = analytics.NewAggregator()
		var publisher analytics.Publisher = aggregator

		probeCtx, cancel := context.WithTimeout(ctx, kafkaProbeTimeout)
		err := kafka.Ping(probeCtx, cfg.Kafka.Brokers)
		cancel()
		if err != nil {
			slog.Warn("kafka unavailable, analytics aggregated in process", "error", err)
		} else {
			kafkaUp = true
			topic := cfg.Kafka.Topics.QueryEvents
			producer := kafka.NewProducer(cfg.Kafka, topic)
			defer producer.Close()
			publisher = producer

			consumer := kafka.NewConsumer(cfg.Kafka, topic, aggregator.HandleMessage)
			go func() {
				if err := consumer.Run(analyticsCtx); err != nil {
					slog.Error("analytics consumer error", "error", err)
				}
			}()
			slog.Info("analytics routed through kafka", "topic", topic, "group", cfg.Kafka.ConsumerGroup)
		}

		collector := analytics.NewCollector(publisher, cfg.Analytics.BufferSize, cfg.Analytics.BatchSize, cfg.Analytics.FlushInterval)
		collector.Start(analyticsCtx)
		tracker = collector

		waitSnapshots := func() {}
		if db != nil && cfg.Analytics.SnapshotInterval > 0 {
			waitSnapshots = startSnapshots(analyticsCtx, db, aggregator, cfg.Analytics.SnapshotInterval)
		}
		defer func() {
			collector.Close()
			stopAnalytics()
			waitSnapshots()
		}()
	}

	checker := health.NewChecker()
	checker.Register("catalog", func(ctx context.Context) health.ComponentHealth {
		if store.Len() == 0 {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "catalog is empty"}
		}
		return health.ComponentHealth{Status: health.StatusUp, Message: fmt.Sprintf("%d movies", store.Len())}
	})
	checker.Register("lexicon", func(ctx context.Context) health.ComponentHealth {
		if cfg.Lexicon.Format == config.LexiconNone {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "no lexicon configured"}
		}
		return health.ComponentHealth{Status: health.StatusUp, Message: cfg.Lexicon.Format}
	})
	if cfg.Chatbot.CacheEnabled {
		var p health.Pinger
		if redisClient != nil {
			p = redisClient
		}
		checker.Register("redis", health.PingCheck(p, true))
	}
	if kafkaUp {
		checker.Register("kafka", health.PingCheck(kafka.Pinger(cfg.Kafka.Brokers), true))
	}
	if db != nil {
		checker.Register("postgres", health.PingCheck(db, cfg.Catalog.Source != config.SourcePostgres))
	}

	mux := http.NewServeMux()
	handler.New(store, chatMatcher, responseCache, tracker, m).Register(mux)
	mux.HandleFunc("GET /api/v1/analytics", analytics.NewHandler(aggregator).Stats)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	if m != nil {
		chain = middleware.Metrics(m)(chain)
	}
	chain = middleware.RequestID(chain)

	if m != nil {
		shutdownMetrics, err := metrics.StartServer(cfg.Metrics.Port, metrics.Handler())
		if err != nil {
			slog.Error("failed to start metrics server", "error", err)
			os.Exit(1)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := shutdownMetrics(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown error", "error", err)
			}
		}()
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("movie catalog service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	<-drained

	slog.Info("movie catalog service stopped")
}

func loadCatalog(ctx context.Context, cfg *config.Config, db *postgres.Client) (*catalog.Store, error) {
	switch cfg.Catalog.Source {
	case config.SourcePostgres:
		return catalog.LoadPostgres(ctx, db, cfg.Catalog.Table)
	default:
		return catalog.LoadCSV(cfg.Catalog.Path)
	}
}

// startSnapshots restores the last persisted stats and keeps saving new ones
// until ctx ends. Failures only disable persistence. The returned func blocks
// until the final snapshot is written.
func startSnapshots(ctx context.Context, db *postgres.Client, agg *analytics.Aggregator, interval time.Duration) (wait func()) {
	snapshots := analytics.NewSnapshotStore(db)
	if err := snapshots.EnsureSchema(ctx); err != nil {
		slog.Warn("analytics snapshots disabled", "error", err)
		return func() {}
	}
	latest, err := snapshots.LatestSnapshot(ctx)
	if err != nil {
		slog.Warn("could not restore analytics snapshot", "error", err)
	} else if latest != nil {
		agg.Restore(*latest)
		slog.Info("analytics restored from snapshot", "total_queries", latest.TotalQueries)
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		snapshots.Run(ctx, agg, interval)
	}()
	slog.Info("analytics snapshots enabled", "interval", interval)
	return func() { <-done }
}
