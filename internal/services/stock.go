package services

import (
	"fmt"
	"slices"
	"time"

	"scr-dashboard/internal/models"
)

// ResolveStock folds the movement feed into the latest quantity per product
// and joins it onto the product list. Movements are not assumed to arrive
// in any order; on equal timestamps the later record in the feed wins.
// Output keeps the product order.
func ResolveStock(products []models.Product, movements []models.StockMovement) []models.StockLevel {
	latest := make(map[string]models.StockMovement, len(movements))
	for _, m := range movements {
		cur, ok := latest[m.ProductID]
		if !ok || !m.CreatedAt.Before(cur.CreatedAt) {
			latest[m.ProductID] = m
		}
	}

	levels := make([]models.StockLevel, 0, len(products))
	for _, p := range products {
		level := models.StockLevel{
			ProductID:     p.ID,
			Title:         p.Title,
			ActualStock:   p.StockQuantity,
			MinStockLevel: p.MinLevel(),
		}
		if m, ok := latest[p.ID]; ok {
			level.ActualStock = m.NewQuantity
			level.FromMovement = true
		}
		levels = append(levels, level)
	}
	return levels
}

// LowStockAlerts flags every level at or below its minimum.
func LowStockAlerts(levels []models.StockLevel) []models.StockAlert {
	alerts := make([]models.StockAlert, 0)
	for _, l := range levels {
		if !l.Low() {
			continue
		}
		alert := models.StockAlert{
			ProductID: l.ProductID,
			Title:     l.Title,
			Severity:  models.SeverityWarning,
			Message:   fmt.Sprintf("Stock is %d (min %d)", l.ActualStock, l.MinStockLevel),
		}
		if l.ActualStock == 0 {
			alert.Severity = models.SeverityCritical
			alert.Message = "Out of stock"
		}
		alerts = append(alerts, alert)
	}
	return alerts
}

// PendingOrderAlerts turns every order in the pending set into an info alert.
func PendingOrderAlerts(orders []models.Order, pendingStatuses []string) []models.Alert {
	alerts := make([]models.Alert, 0)
	for _, o := range orders {
		if !slices.Contains(pendingStatuses, o.Status) {
			continue
		}
		alerts = append(alerts, models.Alert{
			ID:          o.ID,
			Kind:        models.AlertPendingOrder,
			Title:       fmt.Sprintf("Order #%s Pending", o.ID),
			Description: "Total: ₹" + o.Total.String(),
			Severity:    models.SeverityInfo,
			Timestamp:   o.CreatedAt,
		})
	}
	return alerts
}

// BuildAlertFeed merges stock and pending-order alerts, newest first. Stock
// alerts carry the snapshot time since they describe current state.
func BuildAlertFeed(stock []models.StockAlert, pending []models.Alert, at time.Time) models.AlertFeed {
	feed := models.AlertFeed{Alerts: make([]models.Alert, 0, len(stock)+len(pending))}

	for _, s := range stock {
		feed.Alerts = append(feed.Alerts, models.Alert{
			ID:          s.ProductID,
			Kind:        models.AlertLowStock,
			Title:       s.Title,
			Description: s.Message,
			Severity:    s.Severity,
			Timestamp:   at,
		})
	}
	feed.Alerts = append(feed.Alerts, pending...)

	slices.SortStableFunc(feed.Alerts, func(a, b models.Alert) int {
		return b.Timestamp.Compare(a.Timestamp)
	})

	for _, a := range feed.Alerts {
		switch {
		case a.Severity == models.SeverityCritical:
			feed.Critical++
		case a.Severity == models.SeverityWarning:
			feed.Warnings++
		}
		if a.Kind == models.AlertPendingOrder {
			feed.Pending++
		}
	}
	return feed
}
