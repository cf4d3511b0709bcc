package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/JonMunkholm/SensorDesk/internal/api"
	"github.com/JonMunkholm/SensorDesk/internal/config"
	"github.com/JonMunkholm/SensorDesk/internal/core"
	"github.com/JonMunkholm/SensorDesk/internal/logging"
	"github.com/JonMunkholm/SensorDesk/internal/store"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.LoadDataService()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.DataService.Port,
		"backend", cfg.DataService.Backend,
		"embed_station_names", cfg.DataService.EmbedStationNames,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"redis", cfg.Redis.Enabled(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	limiter := core.NewImportLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime)
	opts := store.Options{
		DefaultPageSize:         cfg.DataService.DefaultPageSize,
		EmbedStationNames:       cfg.DataService.EmbedStationNames,
		SampleStations:          cfg.Sample.Stations,
		SampleSensorsPerStation: cfg.Sample.SensorsPerStation,
		Limiter:                 limiter,
	}

	svc, closeBackend, err := openBackend(ctx, cfg, opts)
	if err != nil {
		slog.Error("failed to open backend", "backend", cfg.DataService.Backend, "error", err)
		os.Exit(1)
	}
	defer closeBackend()

	if cfg.Redis.Enabled() {
		rdb, err := store.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer rdb.Close()
		svc = store.NewCached(svc, rdb, cfg.Redis.TTL)
		slog.Info("station name cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.TTL)
	}

	rate := 0
	if cfg.Rate.Enabled {
		rate = cfg.Rate.RequestsPerMinute
	}
	server := api.NewServer(svc, api.Options{
		MaxPageSize:    cfg.DataService.MaxPageSize,
		MaxUploadSize:  cfg.Upload.MaxFileSize,
		RequestTimeout: cfg.Server.RequestTimeout,
		ImportTimeout:  cfg.Upload.Timeout,
		TrustedProxies: cfg.Security.TrustedProxies,
		RateLimit:      rate,
		ReadTimeout:    cfg.Server.ReadTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
	})

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancel()

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.DataService.ShutdownTimeout)
		defer cancelShutdown()

		// Wait for active imports to complete (with timeout)
		if status := limiter.Status(); status.Active > 0 {
			slog.Info("waiting for imports to complete", "active", status.Active)
			if err := limiter.WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("imports did not complete in time", "error", err)
			} else {
				slog.Info("all imports completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(ctx, cfg.DataService.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// openBackend builds the configured store. The returned func releases it.
func openBackend(ctx context.Context, cfg *config.Config, opts store.Options) (core.DataService, func(), error) {
	if cfg.DataService.Backend == config.BackendMemory {
		slog.Warn("using in-memory backend, data is lost on restart")
		return store.NewMemory(opts), func() {}, nil
	}

	// Parse and configure connection pool
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}

	// Log which database we connected to
	if u, err := url.Parse(cfg.Database.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}

	pg := store.NewPostgres(pool, opts)
	if err := pg.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return pg, pool.Close, nil
}
