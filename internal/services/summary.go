package services

import (
	"slices"

	"github.com/shopspring/decimal"

	"scr-dashboard/internal/models"
)

// StatusSets groups the order statuses each derived figure looks at. The
// delivered and revenue sets overlap but are not the same and are
// configured separately.
type StatusSets struct {
	Delivered []string
	Revenue   []string
	Pending   []string
}

func DefaultStatusSets() StatusSets {
	return StatusSets{
		Delivered: []string{"completed", "delivered"},
		Revenue:   []string{"paid", "shipped", "delivered"},
		Pending:   []string{"pending", "pending_payment", "processing"},
	}
}

// Summarize computes order statistics over the full, unwindowed order list.
func Summarize(orders []models.Order, sets StatusSets) models.OrderStats {
	stats := models.OrderStats{
		TotalRevenue:      decimal.Zero,
		AverageOrderValue: decimal.Zero,
		StatusCounts:      make(map[string]int),
	}

	for _, o := range orders {
		stats.TotalOrders++
		stats.TotalRevenue = stats.TotalRevenue.Add(o.Total)
		stats.StatusCounts[o.Status]++

		if slices.Contains(sets.Delivered, o.Status) && !o.Cancelled() {
			stats.DeliveredOrdersCount++
		}
	}

	if stats.TotalOrders > 0 {
		stats.AverageOrderValue = stats.TotalRevenue.Div(decimal.NewFromInt(int64(stats.TotalOrders)))
	}

	return stats
}
