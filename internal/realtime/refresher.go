package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"scr-dashboard/internal/services"
	"scr-dashboard/internal/store"
)

const TableSnapshot = "snapshot"

// Refresher owns the refresh loop: it listens for backend changes,
// re-fetches a full snapshot and hands it to Analytics. The reports
// themselves stay pure functions of whatever snapshot Analytics holds.
type Refresher struct {
	source       store.Source
	analytics    *services.Analytics
	feed         Feed
	limiter      *rate.Limiter
	fetchTimeout time.Duration
	pollInterval time.Duration
	now          func() time.Time
	logger       *slog.Logger
	tracer       trace.Tracer
	updates      *fanout
}

type RefresherConfig struct {
	// MinInterval spaces consecutive refreshes; bursts of changes inside
	// it collapse into one refresh.
	MinInterval  time.Duration
	FetchTimeout time.Duration
	// PollInterval forces a refresh even without changes. Zero disables it.
	PollInterval time.Duration
}

func NewRefresher(source store.Source, analytics *services.Analytics, feed Feed, cfg RefresherConfig, logger *slog.Logger) *Refresher {
	limit := rate.Inf
	if cfg.MinInterval > 0 {
		limit = rate.Every(cfg.MinInterval)
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}

	return &Refresher{
		source:       source,
		analytics:    analytics,
		feed:         feed,
		limiter:      rate.NewLimiter(limit, 1),
		fetchTimeout: cfg.FetchTimeout,
		pollInterval: cfg.PollInterval,
		now:          time.Now,
		logger:       logger,
		tracer:       otel.Tracer("scr-dashboard/realtime"),
		updates:      newFanout(),
	}
}

// Updates delivers one Change{Table: "snapshot"} per successful refresh.
func (r *Refresher) Updates(ctx context.Context) (<-chan Change, error) {
	return r.updates.add(ctx, nil)
}

// Refresh loads a new snapshot and publishes it. On failure the previous
// snapshot stays in place.
func (r *Refresher) Refresh(ctx context.Context) error {
	ctx, span := r.tracer.Start(ctx, "snapshot.refresh")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, r.fetchTimeout)
	defer cancel()

	start := time.Now()
	snap, err := store.LoadSnapshot(ctx, r.source, r.now())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("load snapshot: %w", err)
	}

	version := r.analytics.SetSnapshot(snap)

	span.SetAttributes(
		attribute.Int("snapshot.orders", len(snap.Orders)),
		attribute.Int("snapshot.products", len(snap.Products)),
		attribute.Int64("snapshot.version", version),
	)
	r.logger.Info("snapshot refreshed",
		"version", version,
		"orders", len(snap.Orders),
		"products", len(snap.Products),
		"duration", time.Since(start),
	)

	r.updates.publish(Change{Table: TableSnapshot, Op: "REFRESH", At: snap.TakenAt})
	return nil
}

func (r *Refresher) refreshLogged(ctx context.Context, reason string) {
	if err := r.Refresh(ctx); err != nil {
		r.logger.Error("snapshot refresh failed", "reason", reason, "error", err)
	}
}

// Run loads the first snapshot and keeps it current until ctx ends.
func (r *Refresher) Run(ctx context.Context) error {
	defer r.updates.close()

	changes, err := r.feed.Subscribe(ctx, store.Tables...)
	if err != nil {
		return fmt.Errorf("subscribe to changes: %w", err)
	}

	r.refreshLogged(ctx, "initial")

	var tick <-chan time.Time
	if r.pollInterval > 0 {
		ticker := time.NewTicker(r.pollInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case c, ok := <-changes:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				if tick == nil {
					return ErrFeedClosed
				}
				r.logger.Warn("change feed closed, falling back to polling", "interval", r.pollInterval)
				changes = nil
				continue
			}

			r.logger.Debug("change received", "table", c.Table, "op", c.Op)
			if err := r.limiter.Wait(ctx); err != nil {
				return nil
			}
			drain(changes)
			r.refreshLogged(ctx, "change:"+c.Table)

		case <-tick:
			r.refreshLogged(ctx, "poll")
		}
	}
}

func drain(ch <-chan Change) {
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		default:
			return
		}
	}
}
