// cmd/api/main.go

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	"trendscope/internal/adapter/storage"
	"trendscope/internal/aggregate"
	"trendscope/internal/analysis"
	"trendscope/internal/cache"
	"trendscope/internal/config"
	"trendscope/internal/logging"
	"trendscope/internal/server"
	"trendscope/internal/source"
)

func main() {
	// Load .env if present; real env vars take precedence
	_ = godotenv.Load()

	logger := logging.NewWithService("trendscope-api")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Initialize dependencies
	db, err := initDatabase(ctx, cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// NATS powers live dashboard updates; the service degrades to
	// polling without it.
	natsConn, err := initNATS(cfg.NATS, logger)
	if err != nil {
		logger.Warnf("NATS unavailable, live updates disabled: %v", err)
	} else {
		defer natsConn.Close()
	}

	// Initialize storage adapters
	analysisStore := storage.NewAnalysisStore(db)
	historyStore := storage.NewHistoryStore(db)
	snapshotStore, err := initSnapshotStore(ctx, cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize snapshot store: %v", err)
	}

	now := time.Now

	// Initialize source adapters; registration order is the merge
	// tie-break order.
	retry := source.RetryConfig{
		MaxRetries:     cfg.Sources.MaxRetries,
		BaseDelay:      cfg.Sources.RetryBaseDelay,
		AttemptTimeout: cfg.Sources.AdapterTimeout,
	}

	searchAdapter := source.NewSearchAdapter(source.SearchConfig{
		BaseURL:    cfg.Sources.SearchBaseURL,
		Region:     cfg.Sources.SearchRegion,
		Categories: cfg.Sources.SearchCategories,
		Retry:      retry,
	}, now, logger)

	redditAdapter := source.NewRedditAdapter(source.RedditConfig{
		BaseURL:    cfg.Sources.RedditBaseURL,
		UserAgent:  cfg.Sources.RedditUserAgent,
		Subreddits: cfg.Sources.RedditSubreddits,
		PostLimit:  cfg.Sources.RedditPostLimit,
		TimeRange:  cfg.Sources.RedditTimeRange,
		Retry:      retry,
	}, now, logger)

	manualStore := source.NewManualStore(cfg.Storage.ManualPath, now, logger)

	// Initialize aggregator
	var events aggregate.EventPublisher
	if natsConn != nil {
		events = natsConn
	}
	aggregator := aggregate.New(
		[]source.Adapter{searchAdapter, redditAdapter, manualStore},
		historyStore,
		events,
		aggregate.Config{
			AdapterTimeout: cfg.Sources.AdapterTimeout,
			SnapshotTopic:  cfg.NATS.SnapshotTopic,
		},
		now,
		logger,
	)

	// Initialize the two cache tiers
	trendCache := cache.NewTrendCache(aggregator, snapshotStore, cfg.Cache.TrendTTL, now, logger)

	engine := analysis.NewOpenAIEngine(analysis.Config{
		APIKey:      cfg.Analysis.OpenAIKey,
		Model:       cfg.Analysis.Model,
		CallTimeout: cfg.Analysis.CallTimeout,
	})
	analysisCache := cache.NewAnalysisCache(analysisStore, engine, cfg.Cache.AnalysisTTL, now, logger)

	// Initialize HTTP server
	httpServer := server.NewServer(cfg.Server, server.Dependencies{
		Trends:   trendCache,
		Analyses: analysisCache,
		History:  historyStore,
		Manual:   manualStore,
		NATS:     natsConn,
		Topic:    cfg.NATS.SnapshotTopic,
		Clock:    now,
		Logger:   logger,
	})

	// Start HTTP server
	go func() {
		logger.Infof("Starting HTTP server on %s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("HTTP server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-shutdown
	logger.Info("Shutdown signal received")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// Graceful shutdown
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("HTTP server shutdown error: %v", err)
	}

	logger.Info("Shutdown complete")
}

// Initialize database connection
func initDatabase(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.MaxLifetime

	db, err := pgxpool.ConnectConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	// Test connection
	if err := db.Ping(ctx); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return db, nil
}

// Initialize NATS connection
func initNATS(cfg config.NATSConfig, logger logging.Logger) (*nats.Conn, error) {
	options := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.ConnectTimeout),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warnf("NATS disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Infof("NATS reconnected to %s", nc.ConnectedUrl())
		}),
	}

	nc, err := nats.Connect(cfg.URL, options...)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to NATS: %w", err)
	}

	return nc, nil
}

// Initialize the durable snapshot store for the trend cache
func initSnapshotStore(ctx context.Context, cfg config.Config) (cache.SnapshotStore, error) {
	switch cfg.Storage.SnapshotBackend {
	case "redis":
		opt, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return nil, fmt.Errorf("unable to parse redis URL: %w", err)
		}
		client := redis.NewClient(opt)
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("unable to ping redis: %w", err)
		}
		return storage.NewRedisSnapshotStore(client, cfg.Redis.Key), nil
	default:
		return storage.NewFileSnapshotStore(cfg.Storage.SnapshotPath), nil
	}
}
