package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	"scr-dashboard/internal/auth"
	"scr-dashboard/internal/config"
	"scr-dashboard/internal/middleware"
	"scr-dashboard/internal/observability"
	"scr-dashboard/internal/realtime"
	"scr-dashboard/internal/server"
	"scr-dashboard/internal/services"
	"scr-dashboard/internal/store"
)

func reportOptions(cfg *config.Config) services.ReportOptions {
	return services.ReportOptions{
		Statuses: services.StatusSets{
			Delivered: cfg.Report.DeliveredStatuses,
			Revenue:   cfg.Report.RevenueStatuses,
			Pending:   cfg.Report.PendingStatuses,
		},
		Location:           cfg.Location(),
		AlertLimit:         cfg.Report.AlertLimit,
		RecentCustomerDays: cfg.Report.RecentCustomerDays,
	}
}

// openSource returns the configured data source and, for postgres, the
// underlying pool so the trigger installer can share it.
func openSource(ctx context.Context, cfg *config.Config) (store.Source, *sql.DB, error) {
	switch cfg.Data.Driver {
	case config.DataDriverPostgres:
		db, err := store.OpenPostgres(ctx, cfg.Data.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return store.NewPostgresSource(db), db, nil
	default:
		return store.NewCSVSource(cfg.Data.CSVDir), nil, nil
	}
}

func openFeed(ctx context.Context, cfg *config.Config, db *sql.DB, logger *slog.Logger) (realtime.Feed, error) {
	switch cfg.Realtime.Driver {
	case config.RealtimeDriverPostgres:
		if cfg.Data.InstallTriggers && db != nil {
			if err := realtime.InstallNotifyTriggers(ctx, db, store.Tables); err != nil {
				return nil, fmt.Errorf("install notify triggers: %w", err)
			}
			logger.Info("notify triggers installed", "tables", store.Tables)
		}
		return realtime.NewPostgresFeed(cfg.Data.DatabaseURL, logger)

	case config.RealtimeDriverRedis:
		return realtime.NewRedisFeed(ctx, &redis.Options{
			Addr:     cfg.Realtime.RedisAddr,
			Password: cfg.Realtime.RedisPassword,
			DB:       cfg.Realtime.RedisDB,
		}, realtime.WithChannelPrefix(cfg.Realtime.ChannelPrefix), realtime.WithRedisLogger(logger))

	default:
		return realtime.NewMemoryFeed(), nil
	}
}

func newHandler(cfg *config.Config, srv http.Handler, logger *slog.Logger) http.Handler {
	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(otel.Tracer("scr-dashboard/http")),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
	)

	return middlewareChain(srv)
}

func newServer(cfg *config.Config, analytics *services.Analytics, updates *realtime.Refresher, logger *slog.Logger) *server.Server {
	var opts []server.Option
	if cfg.Auth.Enabled {
		opts = append(opts, server.WithAdminGuard(auth.RequireAdmin(auth.NewVerifier(cfg.Auth), logger)))
	}
	return server.NewServer(analytics, updates, logger, opts...)
}

func run(cfg *config.Config, logger *slog.Logger) error {
	appCtx, stop := context.WithCancel(context.Background())
	defer stop()

	shutdownTracing, err := observability.InitTracing(cfg.Tracing)
	if err != nil {
		return err
	}

	source, db, err := openSource(appCtx, cfg)
	if err != nil {
		return fmt.Errorf("open data source: %w", err)
	}

	feed, err := openFeed(appCtx, cfg, db, logger)
	if err != nil {
		if db != nil {
			db.Close()
		}
		return fmt.Errorf("open change feed: %w", err)
	}

	analytics := services.NewAnalytics(
		services.WithReportOptions(reportOptions(cfg)),
		services.WithLogger(logger),
	)

	refresher := realtime.NewRefresher(source, analytics, feed, realtime.RefresherConfig{
		MinInterval:  cfg.Realtime.RefreshInterval,
		FetchTimeout: cfg.Data.FetchTimeout,
		PollInterval: cfg.Realtime.PollInterval,
	}, logger)

	refresherDone := make(chan struct{})
	go func() {
		defer close(refresherDone)
		if err := refresher.Run(appCtx); err != nil {
			logger.Error("refresher stopped", "error", err)
		}
	}()

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      newHandler(cfg, newServer(cfg, analytics, refresher, logger), logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		// Live SSE streams end when appCtx is cancelled during shutdown.
		BaseContext: func(net.Listener) context.Context { return appCtx },
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)

	gracefulServer.RegisterShutdownHook("refresher", func(ctx context.Context) error {
		logger.Info("stopping refresher and live streams")
		stop()
		select {
		case <-refresherDone:
		case <-ctx.Done():
			return ctx.Err()
		}
		var errs []error
		if err := feed.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close change feed: %w", err))
		}
		if db != nil {
			if err := db.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close database: %w", err))
			}
		}
		return errors.Join(errs...)
	})
	gracefulServer.RegisterShutdownHook("tracing", func(ctx context.Context) error {
		return shutdownTracing(ctx)
	})

	logger.Info("starting graceful server")
	return gracefulServer.ListenAndServe(appCtx)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", "1.0.0",
		"data_driver", cfg.Data.Driver,
		"realtime_driver", cfg.Realtime.Driver,
		"auth_enabled", cfg.Auth.Enabled,
		"timezone", cfg.Report.Timezone,
	)

	if err := run(cfg, logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
