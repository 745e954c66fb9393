// Murmur-API serves the social feed: users publish short posts, follow each
// other and read a merged, newest-first feed.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/oklog/run"
	"github.com/sethvargo/go-envconfig"
	"github.com/sethvargo/go-retry"
	_ "modernc.org/sqlite"

	"github.com/jdholdren/murmur/internal/api"
	"github.com/jdholdren/murmur/internal/ingest"
	"github.com/jdholdren/murmur/internal/memstore"
	"github.com/jdholdren/murmur/internal/metrics"
	"github.com/jdholdren/murmur/internal/migrations"
	"github.com/jdholdren/murmur/internal/murmur"
	"github.com/jdholdren/murmur/internal/sqlite"
	"github.com/jdholdren/murmur/logger"
)

const (
	storeSQLite = "sqlite"
	storeMemory = "memory"
)

type config struct {
	Port       int    `env:"PORT, default=4444"`
	Store      string `env:"STORE, default=sqlite"`
	Database   string `env:"DATABASE, default=murmur.db"`
	CorsOrigin string `env:"CORS_ORIGIN, default=*"`

	// Which format to use for logging: either text or json
	LoggerFormat string `env:"LOGGER_FORMAT, default=text"`
	LogLevel     string `env:"LOG_LEVEL, default=info"`

	FeedDefaultLimit int `env:"FEED_DEFAULT_LIMIT, default=20"`
	FeedMaxLimit     int `env:"FEED_MAX_LIMIT, default=100"`
	PostMaxLength    int `env:"POST_MAX_LENGTH, default=280"`
	PostCacheSize    int `env:"POST_CACHE_SIZE, default=1024"`
}

func loadConfig(ctx context.Context, lookuper envconfig.Lookuper) (config, error) {
	var cfg config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return config{}, fmt.Errorf("error parsing config: %s", err)
	}

	if cfg.Store != storeSQLite && cfg.Store != storeMemory {
		return config{}, fmt.Errorf("unknown store %q: must be %s or %s", cfg.Store, storeSQLite, storeMemory)
	}
	if cfg.FeedDefaultLimit <= 0 || cfg.FeedMaxLimit < cfg.FeedDefaultLimit {
		return config{}, fmt.Errorf("feed limits must satisfy 0 < default (%d) <= max (%d)", cfg.FeedDefaultLimit, cfg.FeedMaxLimit)
	}
	if cfg.PostMaxLength <= 0 {
		return config{}, fmt.Errorf("post max length must be positive, got %d", cfg.PostMaxLength)
	}

	return cfg, nil
}

func main() {
	ctx := context.Background()

	cfg, err := loadConfig(ctx, envconfig.OsLookuper())
	if err != nil {
		log.Fatal(err)
	}

	l, err := logger.New(os.Stderr, cfg.LoggerFormat, cfg.LogLevel)
	if err != nil {
		log.Fatalf("error creating logger: %s", err)
	}
	slog.SetDefault(l)

	// Start the application
	if err := runServer(ctx, cfg); err != nil {
		slog.Error("error running", "error", err)
		os.Exit(1)
	}
}

func runServer(ctx context.Context, cfg config) error {
	slog.Info("running", "config", cfg)

	repo, closeRepo, err := openRepo(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRepo()

	core, err := api.NewCore(repo, api.CoreConfig{
		PostCacheSize: cfg.PostCacheSize,
		MaxPostLength: cfg.PostMaxLength,
		Clock:         ingest.SystemClock,
	})
	if err != nil {
		return err
	}

	limits := api.Limits{Default: cfg.FeedDefaultLimit, Max: cfg.FeedMaxLimit}
	srvr := api.NewServer(api.ServerConfig{
		Port:           cfg.Port,
		CorsOrigin:     cfg.CorsOrigin,
		FeedLimits:     limits,
		TimelineLimits: limits,
	}, core, metrics.New())

	var g run.Group
	g.Add(run.SignalHandler(ctx, os.Interrupt, syscall.SIGTERM))
	g.Add(func() error {
		slog.Info("starting server", "port", cfg.Port)
		if err := srvr.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("error serving: %s", err)
		}
		return nil
	}, func(error) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srvr.Shutdown(ctx); err != nil {
			slog.Error("error shutting down server", "error", err)
		}
	})

	var sigErr run.SignalError
	if err := g.Run(); err != nil && !errors.As(err, &sigErr) {
		return err
	}
	slog.Info("shut down")

	return nil
}

// openRepo builds the store the core runs on. The returned func releases it.
func openRepo(ctx context.Context, cfg config) (murmur.Repository, func(), error) {
	if cfg.Store == storeMemory {
		slog.Warn("using the in-memory store: nothing survives a restart")
		return memstore.New(), func() {}, nil
	}

	dsn := fmt.Sprintf("%s?_txlock=immediate&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", cfg.Database)
	dbx, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("error opening database: %s", err)
	}
	repo := sqlite.New(dbx)

	// Retry until the database answers
	backoff := retry.WithMaxRetries(10, retry.NewFibonacci(100*time.Millisecond))
	if err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := repo.Ping(); err != nil {
			slog.WarnContext(ctx, "database not ready", "error", err)
			return retry.RetryableError(err)
		}
		return nil
	}); err != nil {
		dbx.Close()
		return nil, nil, fmt.Errorf("error pinging database: %s", err)
	}

	// Migrate, always
	if err := migrations.Run(dbx); err != nil {
		dbx.Close()
		return nil, nil, fmt.Errorf("error migrating: %s", err)
	}

	return repo, func() { dbx.Close() }, nil
}
