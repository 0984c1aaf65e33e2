package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	mem "levelkit/adapters/memory"
	redisAdapter "levelkit/adapters/redis"
	sqliteAdapter "levelkit/adapters/sqlite"
	"levelkit/api/httpapi"
	"levelkit/config"
	"levelkit/core"
	"levelkit/engine"
	"levelkit/leveling"
	"levelkit/realtime"
)

// App aggregates the assembled server components.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Hub     *realtime.Hub
	Engine  *engine.Engine
	Handler http.Handler
	Server  *http.Server
}

func provideConfig(ctx context.Context) (*config.Config, error) {
	if path := os.Getenv("LEVELKIT_CONFIG_FILE"); path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

func provideLogger(cfg *config.Config) *slog.Logger {
	return setupLogging(cfg)
}

func provideHub() *realtime.Hub {
	return realtime.NewHub()
}

func provideStore(ctx context.Context, cfg *config.Config) (engine.RecordStore, error) {
	return setupStorage(ctx, cfg)
}

func provideEngine(cfg *config.Config, store engine.RecordStore, hub *realtime.Hub, logger *slog.Logger) (*engine.Engine, error) {
	return leveling.New(
		leveling.WithStore(store),
		leveling.WithCooldown(cfg.Leveling.Rate, cfg.Leveling.Per),
		leveling.WithStackAwards(cfg.Leveling.StackAwards),
		leveling.WithAnnounceLevelUp(cfg.Leveling.AnnounceLevelUp),
		leveling.WithNoXPRoles(cfg.Leveling.NoXPRoles...),
		leveling.WithNoXPChannels(cfg.Leveling.NoXPChannels...),
		leveling.WithDispatchMode(engine.DispatchAsync),
		leveling.WithRealtime(hub),
		leveling.WithLogger(logger),
	)
}

func provideHandler(e *engine.Engine, hub *realtime.Hub, cfg *config.Config) http.Handler {
	return httpapi.NewMux(e, hub, httpapi.Options{
		PathPrefix:      cfg.Server.PathPrefix,
		AllowCORSOrigin: cfg.Server.CORSOrigin,
		APIKeys:         cfg.Server.APIKeys,
	})
}

func provideServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           handler,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
}

// setupLogging configures the logger based on configuration.
func setupLogging(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Logging.Level),
	}

	var handler slog.Handler
	switch cfg.Logging.Format {
	case "text":
		handler = slog.NewTextHandler(os.Stdout, opts)
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, opts)
	default:
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// setupStorage creates the record store named by the configuration.
func setupStorage(ctx context.Context, cfg *config.Config) (engine.RecordStore, error) {
	switch cfg.Storage.Adapter {
	case "memory":
		return mem.New(), nil
	case "sqlite":
		store, err := sqliteAdapter.Open(cfg.Storage.SQLite.Path)
		if errors.Is(err, core.ErrStoreFileNotFound) {
			return sqliteAdapter.Create(cfg.Storage.SQLite.Path)
		}
		return store, err
	case "redis":
		return redisAdapter.New(cfg.Storage.Redis.Adapter())
	default:
		return nil, fmt.Errorf("unknown storage adapter: %s", cfg.Storage.Adapter)
	}
}
