package services

import (
	"cmp"
	"slices"

	"scr-dashboard/internal/models"
)

const (
	DefaultRecentOrders = 5
	UnknownCustomer     = "Unknown Customer"

	orderLabelLength = 8
)

// Statuses shown as their own quick stat tiles.
const (
	StatusCompleted = "completed"
	StatusPending   = "pending"
	StatusCancelled = "cancelled"
)

// BuildQuickStats reads the per-status tiles off already summarised stats.
func BuildQuickStats(stats models.OrderStats) models.QuickStats {
	return models.QuickStats{
		Completed: stats.StatusCounts[StatusCompleted],
		Pending:   stats.StatusCounts[StatusPending],
		Cancelled: stats.StatusCounts[StatusCancelled],
		Delivered: stats.DeliveredOrdersCount,
	}
}

// RecentOrders returns the n newest orders of snap. Orders without a
// timestamp sort last, keeping feed order among equals. The customer is
// the profile name for the order's user, then the name stored on the
// order, then UnknownCustomer.
func RecentOrders(snap *models.Snapshot, n int) []models.RecentOrder {
	if snap == nil || n <= 0 {
		return []models.RecentOrder{}
	}

	names := make(map[string]string, len(snap.Profiles))
	for _, p := range snap.Profiles {
		if p.Name != "" {
			names[p.ID] = p.Name
		}
	}

	orders := slices.Clone(snap.Orders)
	slices.SortStableFunc(orders, func(a, b models.Order) int {
		switch {
		case a.HasTimestamp() && !b.HasTimestamp():
			return -1
		case !a.HasTimestamp() && b.HasTimestamp():
			return 1
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	recent := make([]models.RecentOrder, 0, min(n, len(orders)))
	for _, o := range orders[:min(n, len(orders))] {
		recent = append(recent, models.RecentOrder{
			ID:        o.ID,
			Label:     orderLabel(o),
			Customer:  cmp.Or(names[o.UserID], o.CustomerName, UnknownCustomer),
			CreatedAt: o.CreatedAt,
			Total:     o.Total,
			Status:    o.Status,
		})
	}
	return recent
}

func orderLabel(o models.Order) string {
	if o.OrderNumber != "" {
		return o.OrderNumber
	}
	if len(o.ID) > orderLabelLength {
		return o.ID[:orderLabelLength]
	}
	return o.ID
}
