package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/moodpulse/internal/adapter/assets"
	"github.com/pscheid92/moodpulse/internal/adapter/filestore"
	"github.com/pscheid92/moodpulse/internal/adapter/httpserver"
	"github.com/pscheid92/moodpulse/internal/adapter/oracle"
	"github.com/pscheid92/moodpulse/internal/adapter/postgres"
	"github.com/pscheid92/moodpulse/internal/adapter/redis"
	"github.com/pscheid92/moodpulse/internal/adapter/telegram"
	"github.com/pscheid92/moodpulse/internal/app"
	"github.com/pscheid92/moodpulse/internal/domain"
	"github.com/pscheid92/moodpulse/internal/platform/config"
	"github.com/pscheid92/moodpulse/internal/platform/logging"
	"github.com/pscheid92/moodpulse/internal/platform/version"
	goredis "github.com/redis/go-redis/v9"
)

const (
	shutdownTimeout    = 10 * time.Second
	startupTimeout     = 30 * time.Second
	limiterPrunePeriod = time.Minute
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

type storeResult struct {
	store  domain.SnapshotStore
	pool   *pgxpool.Pool
	checks []httpserver.HealthCheck
}

// setupStore picks Postgres when DATABASE_URL is set and the JSON file otherwise.
func setupStore(cfg *config.Config) storeResult {
	if cfg.DatabaseURL == "" {
		store := filestore.New(cfg.DataFile)
		slog.Info("Using file snapshot store", "path", store.Path())
		return storeResult{store: store}
	}

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := postgres.RunMigrationsWithLock(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	slog.Info("Using Postgres snapshot store")
	store := postgres.NewSnapshotStore(pool)
	return storeResult{
		store:  store,
		pool:   pool,
		checks: []httpserver.HealthCheck{{Name: "postgres", Check: store.Ping}},
	}
}

type limiterResult struct {
	limiter domain.RateLimiter
	client  *goredis.Client
	stop    func()
}

// setupLimiter shares cooldowns through Redis when REDIS_URL is set, otherwise
// keeps them in process memory.
func setupLimiter(cfg *config.Config, clock clockwork.Clock) limiterResult {
	if cfg.RedisURL == "" {
		limiter := app.NewMemoryRateLimiter(cfg.RateLimitCooldown)
		stop := limiter.StartPruneTimer(clock, limiterPrunePeriod)
		return limiterResult{limiter: limiter, stop: stop}
	}

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	client, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return limiterResult{
		limiter: redis.NewRateLimiter(client, cfg.RateLimitCooldown),
		client:  client,
		stop:    func() {},
	}
}

func healthChecks(store storeResult, redisClient *goredis.Client) []httpserver.HealthCheck {
	checks := store.checks
	if redisClient != nil {
		checks = append(checks, httpserver.HealthCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		})
	}
	return checks
}

func runOpsServer(srv *httpserver.Server) {
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Ops server error", "error", err)
		}
	}()
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", append([]any{"env", cfg.AppEnv}, version.Get().LogAttrs()...)...)

	store := setupStore(cfg)
	if store.pool != nil {
		defer store.pool.Close()
	}

	state := app.NewState()
	persistence := app.NewPersistence(store.store, state, clock)
	persistence.Load(context.Background())

	limiter := setupLimiter(cfg, clock)
	defer limiter.stop()
	if limiter.client != nil {
		defer func() { _ = limiter.client.Close() }()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bot, err := telegram.Connect(ctx, cfg.TelegramToken)
	if err != nil {
		slog.Error("Failed to start bot", "error", err)
		os.Exit(1)
	}

	classifier := oracle.NewClient(cfg.OracleURL, cfg.OracleTimeout, oracle.WithClock(clock))
	media := assets.NewResolver(cfg.AssetsDir)
	transport := telegram.NewTransport(bot)
	conversation := app.NewConversation(state, persistence, limiter.limiter, classifier, transport, media, clock, cfg.RateLimitCooldown)

	srv := httpserver.NewServer(cfg, state.Ledger, state.Counters, healthChecks(store, limiter.client), clock)
	runOpsServer(srv)

	poller := telegram.NewPoller(bot, conversation, transport, cfg.UpdateTimeout)
	poller.Run(ctx)

	slog.Info("Shutdown signal received, cleaning up...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Ops server shutdown error", "error", err)
	}
	if err := persistence.Save(shutdownCtx); err != nil {
		slog.Error("Final snapshot save failed", "error", err)
	}

	slog.Info("Shutdown complete")
}
