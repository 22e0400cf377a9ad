package services

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"scr-dashboard/internal/models"
)

var ErrNoSnapshot = errors.New("no snapshot loaded yet")

// PrecomputedData holds the figures that depend only on the snapshot. Time
// anchored figures (buckets, today's sales) are derived per request.
type PrecomputedData struct {
	Stats       models.OrderStats   `json:"stats"`
	StockLevels []models.StockLevel `json:"stock_levels"`
	LowStock    []models.StockAlert `json:"low_stock"`
	Alerts      models.AlertFeed    `json:"alerts"`
	LastUpdated time.Time           `json:"last_updated"`
	Version     int64               `json:"version"`
}

// Analytics keeps the latest snapshot and its derived figures. It is the
// cache the refresh loop replaces wholesale; readers always see one
// consistent snapshot.
type Analytics struct {
	mu          sync.RWMutex
	snapshot    *models.Snapshot
	precomputed *PrecomputedData
	opts        ReportOptions
	now         func() time.Time
	version     atomic.Int64
	logger      *slog.Logger
}

type Option func(*Analytics)

func WithReportOptions(opts ReportOptions) Option {
	return func(a *Analytics) { a.opts = opts }
}

func WithClock(now func() time.Time) Option {
	return func(a *Analytics) { a.now = now }
}

func WithLogger(logger *slog.Logger) Option {
	return func(a *Analytics) { a.logger = logger }
}

func NewAnalytics(opts ...Option) *Analytics {
	a := &Analytics{
		precomputed: &PrecomputedData{},
		opts:        DefaultReportOptions(),
		now:         time.Now,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SetSnapshot replaces the held snapshot, recomputes derived data and
// returns the version assigned to snap. Versions follow install order.
func (a *Analytics) SetSnapshot(snap models.Snapshot) int64 {
	if snap.TakenAt.IsZero() {
		snap.TakenAt = a.now()
	}

	levels := ResolveStock(snap.Products, snap.StockMovements)
	lowStock := LowStockAlerts(levels)
	precomputed := &PrecomputedData{
		Stats:       Summarize(snap.Orders, a.opts.Statuses),
		StockLevels: levels,
		LowStock:    lowStock,
		Alerts:      BuildAlertFeed(lowStock, PendingOrderAlerts(snap.Orders, a.opts.Statuses.Pending), snap.TakenAt),
		LastUpdated: snap.TakenAt,
	}

	a.mu.Lock()
	a.snapshot = &snap
	a.precomputed = precomputed
	v := a.version.Add(1)
	precomputed.Version = v
	a.mu.Unlock()

	a.logger.Debug("snapshot updated",
		"version", v,
		"orders", len(snap.Orders),
		"products", len(snap.Products),
		"stock_movements", len(snap.StockMovements),
	)
	return v
}

func (a *Analytics) current() (*models.Snapshot, *PrecomputedData) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snapshot, a.precomputed
}

func (a *Analytics) Version() int64 {
	return a.version.Load()
}

func (a *Analytics) Location() *time.Location {
	return a.opts.location()
}

func (a *Analytics) SalesReport(p Policy) (models.SalesReport, error) {
	snap, _ := a.current()
	if snap == nil {
		return models.SalesReport{}, ErrNoSnapshot
	}
	return BuildSalesReport(snap, p, a.opts, a.now()), nil
}

func (a *Analytics) Overview() (models.Overview, error) {
	snap, _ := a.current()
	if snap == nil {
		return models.Overview{}, ErrNoSnapshot
	}
	return BuildOverview(snap, a.opts, a.now()), nil
}

func (a *Analytics) Summary() models.OrderStats {
	_, pre := a.current()
	if pre.Stats.StatusCounts == nil {
		return Summarize(nil, a.opts.Statuses)
	}
	return pre.Stats
}

func (a *Analytics) LowStock() []models.StockAlert {
	_, pre := a.current()
	if pre.LowStock == nil {
		return []models.StockAlert{}
	}
	return pre.LowStock
}

func (a *Analytics) Alerts() models.AlertFeed {
	_, pre := a.current()
	if pre.Alerts.Alerts == nil {
		return models.AlertFeed{Alerts: []models.Alert{}}
	}
	return pre.Alerts
}

// Utility method for monitoring
func (a *Analytics) Stats() map[string]any {
	snap, pre := a.current()

	stats := map[string]any{
		"version":      pre.Version,
		"loaded":       snap != nil,
		"last_updated": pre.LastUpdated,
	}
	if snap != nil {
		stats["orders"] = len(snap.Orders)
		stats["products"] = len(snap.Products)
		stats["stock_movements"] = len(snap.StockMovements)
		stats["profiles"] = len(snap.Profiles)
		stats["low_stock"] = len(pre.LowStock)
	}
	return stats
}
