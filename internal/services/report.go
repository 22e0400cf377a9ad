package services

import (
	"time"

	"scr-dashboard/internal/models"
)

const (
	DefaultAlertLimit         = 6
	DefaultRecentCustomerDays = 7
)

// ReportOptions are the knobs shared by every derived report.
type ReportOptions struct {
	Statuses           StatusSets
	Location           *time.Location
	AlertLimit         int
	RecentCustomerDays int
}

func DefaultReportOptions() ReportOptions {
	return ReportOptions{
		Statuses:           DefaultStatusSets(),
		Location:           time.UTC,
		AlertLimit:         DefaultAlertLimit,
		RecentCustomerDays: DefaultRecentCustomerDays,
	}
}

func (o ReportOptions) location() *time.Location {
	if o.Location == nil {
		return time.UTC
	}
	return o.Location
}

// BuildSalesReport derives the analytics screen for one policy from snap.
func BuildSalesReport(snap *models.Snapshot, p Policy, opts ReportOptions, now time.Time) models.SalesReport {
	loc := opts.location()
	now = now.In(loc)
	stats := Summarize(snap.Orders, opts.Statuses)
	return models.SalesReport{
		Series:       SalesSeries(snap.Orders, p, now),
		Stats:        stats,
		QuickStats:   BuildQuickStats(stats),
		RecentOrders: RecentOrders(snap, DefaultRecentOrders),
		PeakHour:     PeakHour(snap.Orders, loc),
		Generated:    now,
	}
}

// BuildOverview derives the admin home figures from snap.
func BuildOverview(snap *models.Snapshot, opts ReportOptions, now time.Time) models.Overview {
	now = now.In(opts.location())
	alerts := LowStockAlerts(ResolveStock(snap.Products, snap.StockMovements))

	days := opts.RecentCustomerDays
	if days <= 0 {
		days = DefaultRecentCustomerDays
	}

	overview := models.Overview{
		PendingOrders:   CountByStatus(snap.Orders, opts.Statuses.Pending),
		LowStockCount:   len(alerts),
		SalesToday:      SalesSince(snap.Orders, opts.Statuses.Revenue, StartOfDay(now)),
		RecentCustomers: CountProfilesSince(snap.Profiles, now.AddDate(0, 0, -days)),
		Alerts:          alerts,
	}
	if opts.AlertLimit > 0 && len(overview.Alerts) > opts.AlertLimit {
		overview.Alerts = overview.Alerts[:opts.AlertLimit]
	}
	return overview
}
