package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"scr-dashboard/internal/models"
)

func TestSummarize_Scenario(t *testing.T) {
	orders := []models.Order{
		order("100", day(2024, time.January, 15), "completed"),
		order("200", day(2024, time.February, 10), "pending"),
		order("", time.Time{}, "cancelled"),
	}

	stats := Summarize(orders, DefaultStatusSets())

	assert.Equal(t, 3, stats.TotalOrders)
	assert.Equal(t, "300", stats.TotalRevenue.String())
	assert.Equal(t, "100", stats.AverageOrderValue.String())
	assert.Equal(t, map[string]int{"completed": 1, "pending": 1, "cancelled": 1}, stats.StatusCounts)
	assert.Equal(t, 1, stats.DeliveredOrdersCount)
}

func TestSummarize_Empty(t *testing.T) {
	stats := Summarize(nil, DefaultStatusSets())

	assert.Equal(t, 0, stats.TotalOrders)
	assert.True(t, stats.TotalRevenue.IsZero())
	assert.True(t, stats.AverageOrderValue.IsZero())
	assert.NotNil(t, stats.StatusCounts)
	assert.Empty(t, stats.StatusCounts)
	assert.Equal(t, 0, stats.DeliveredOrdersCount)
}

func TestSummarize_AverageIsRevenueOverCount(t *testing.T) {
	orders := []models.Order{
		order("10", day(2024, time.January, 1), "paid"),
		order("20", day(2024, time.January, 2), "paid"),
		order("40.5", time.Time{}, "shipped"),
		order("", day(2024, time.January, 3), "unknown-status"),
	}

	stats := Summarize(orders, DefaultStatusSets())

	assert.Equal(t, 4, stats.TotalOrders)
	assert.Equal(t, "70.5", stats.TotalRevenue.String())
	assert.Equal(t, "17.625", stats.AverageOrderValue.String())
	assert.Equal(t, 1, stats.StatusCounts["unknown-status"])
}

func TestSummarize_DeliveredExcludesCancelled(t *testing.T) {
	cancelled := day(2024, time.March, 1)
	orders := []models.Order{
		order("1", day(2024, time.January, 1), "delivered"),
		order("1", day(2024, time.January, 1), "completed"),
		{Status: "delivered", CancelledAt: &cancelled},
		order("1", day(2024, time.January, 1), "shipped"),
	}

	stats := Summarize(orders, DefaultStatusSets())
	assert.Equal(t, 2, stats.DeliveredOrdersCount)

	custom := DefaultStatusSets()
	custom.Delivered = []string{"shipped"}
	assert.Equal(t, 1, Summarize(orders, custom).DeliveredOrdersCount)
}
