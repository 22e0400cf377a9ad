package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scr-dashboard/internal/models"
)

func intPtr(v int) *int { return &v }

func TestResolveStock_FallbackAndMovement(t *testing.T) {
	product := models.Product{ID: "p1", Title: "Organic Turmeric", StockQuantity: 5, MinStockLevel: intPtr(10)}

	levels := ResolveStock([]models.Product{product}, nil)
	require.Len(t, levels, 1)
	assert.Equal(t, 5, levels[0].ActualStock)
	assert.False(t, levels[0].FromMovement)

	alerts := LowStockAlerts(levels)
	require.Len(t, alerts, 1)
	assert.Equal(t, models.SeverityWarning, alerts[0].Severity)
	assert.Equal(t, "Stock is 5 (min 10)", alerts[0].Message)

	movements := []models.StockMovement{
		{ProductID: "p1", NewQuantity: 0, CreatedAt: day(2024, time.March, 2)},
	}
	levels = ResolveStock([]models.Product{product}, movements)
	assert.Equal(t, 0, levels[0].ActualStock)
	assert.True(t, levels[0].FromMovement)

	alerts = LowStockAlerts(levels)
	require.Len(t, alerts, 1)
	assert.Equal(t, models.SeverityCritical, alerts[0].Severity)
	assert.Equal(t, "Out of stock", alerts[0].Message)
	assert.Equal(t, "p1", alerts[0].ProductID)
	assert.Equal(t, "Organic Turmeric", alerts[0].Title)
}

func TestResolveStock_LatestMovementWinsRegardlessOfOrder(t *testing.T) {
	products := []models.Product{{ID: "p1"}, {ID: "p2"}}
	movements := []models.StockMovement{
		{ProductID: "p1", NewQuantity: 40, CreatedAt: day(2024, time.March, 5)},
		{ProductID: "p1", NewQuantity: 3, CreatedAt: day(2024, time.March, 1)},
		{ProductID: "p2", NewQuantity: 1, CreatedAt: day(2024, time.January, 1)},
		{ProductID: "p2", NewQuantity: 25, CreatedAt: day(2024, time.February, 1)},
		{ProductID: "ghost", NewQuantity: 0, CreatedAt: day(2024, time.February, 1)},
	}

	levels := ResolveStock(products, movements)

	require.Len(t, levels, 2)
	assert.Equal(t, 40, levels[0].ActualStock)
	assert.Equal(t, 25, levels[1].ActualStock)
}

func TestResolveStock_EqualTimestampsLastInFeedWins(t *testing.T) {
	at := day(2024, time.March, 5)
	movements := []models.StockMovement{
		{ProductID: "p1", NewQuantity: 12, CreatedAt: at},
		{ProductID: "p1", NewQuantity: 7, CreatedAt: at},
	}

	levels := ResolveStock([]models.Product{{ID: "p1"}}, movements)
	assert.Equal(t, 7, levels[0].ActualStock)
}

func TestLowStockAlerts_Thresholds(t *testing.T) {
	products := []models.Product{
		{ID: "default-min-at", StockQuantity: 10},
		{ID: "default-min-above", StockQuantity: 11},
		{ID: "explicit-zero-min", StockQuantity: 0, MinStockLevel: intPtr(0)},
		{ID: "explicit-zero-min-stocked", StockQuantity: 1, MinStockLevel: intPtr(0)},
		{ID: "negative", StockQuantity: -2},
	}

	alerts := LowStockAlerts(ResolveStock(products, nil))

	ids := make([]string, len(alerts))
	for i, a := range alerts {
		ids[i] = a.ProductID
	}
	assert.Equal(t, []string{"default-min-at", "explicit-zero-min", "negative"}, ids)
	assert.Equal(t, models.SeverityWarning, alerts[0].Severity)
	assert.Equal(t, models.SeverityCritical, alerts[1].Severity)
	assert.Equal(t, "Stock is -2 (min 10)", alerts[2].Message)
}

func TestLowStockAlerts_Empty(t *testing.T) {
	alerts := LowStockAlerts(nil)
	assert.NotNil(t, alerts)
	assert.Empty(t, alerts)
}

func TestBuildAlertFeed(t *testing.T) {
	at := day(2024, time.March, 10)
	orders := []models.Order{
		order("120", day(2024, time.March, 9), "pending"),
		order("80", day(2024, time.March, 11), "processing"),
		order("50", day(2024, time.March, 1), "paid"),
	}
	orders[0].ID = "o1"
	orders[1].ID = "o2"

	stock := []models.StockAlert{
		{ProductID: "p1", Title: "Millet", Message: "Out of stock", Severity: models.SeverityCritical},
		{ProductID: "p2", Title: "Jaggery", Message: "Stock is 2 (min 10)", Severity: models.SeverityWarning},
	}

	feed := BuildAlertFeed(stock, PendingOrderAlerts(orders, DefaultStatusSets().Pending), at)

	require.Len(t, feed.Alerts, 4)
	assert.Equal(t, "o2", feed.Alerts[0].ID)
	assert.Equal(t, "p1", feed.Alerts[1].ID)
	assert.Equal(t, "p2", feed.Alerts[2].ID)
	assert.Equal(t, "o1", feed.Alerts[3].ID)
	assert.Equal(t, "Order #o1 Pending", feed.Alerts[3].Title)
	assert.Equal(t, "Total: ₹120", feed.Alerts[3].Description)
	assert.Equal(t, models.SeverityInfo, feed.Alerts[3].Severity)

	assert.Equal(t, 1, feed.Critical)
	assert.Equal(t, 1, feed.Warnings)
	assert.Equal(t, 2, feed.Pending)
}
