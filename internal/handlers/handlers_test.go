package handlers

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"scr-dashboard/internal/models"
	"scr-dashboard/internal/realtime"
	"scr-dashboard/internal/services"
)

var testNow = time.Date(2024, time.February, 20, 18, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func emptyAnalytics() *services.Analytics {
	return services.NewAnalytics(
		services.WithClock(func() time.Time { return testNow }),
		services.WithLogger(testLogger()),
	)
}

func createTestAnalytics() *services.Analytics {
	a := emptyAnalytics()
	a.SetSnapshot(models.Snapshot{
		Orders: []models.Order{
			{ID: "o1", OrderNumber: "1001", Status: "delivered", Total: decimal.NewFromInt(100),
				CreatedAt: time.Date(2024, time.January, 15, 10, 0, 0, 0, time.UTC)},
			{ID: "o2", OrderNumber: "1002", UserID: "u1", Status: "paid", Total: decimal.NewFromInt(200),
				CreatedAt: time.Date(2024, time.February, 20, 9, 0, 0, 0, time.UTC)},
			{ID: "o3", OrderNumber: "1003", Status: "pending", Total: decimal.RequireFromString("49.50"),
				CreatedAt: time.Date(2024, time.February, 19, 9, 0, 0, 0, time.UTC)},
		},
		Products: []models.Product{
			{ID: "p1", Title: "Cold Pressed Groundnut Oil", StockQuantity: 40},
			{ID: "p2", Title: "Organic Jaggery", StockQuantity: 25},
		},
		StockMovements: []models.StockMovement{
			{ProductID: "p2", NewQuantity: 0, CreatedAt: time.Date(2024, time.February, 18, 0, 0, 0, 0, time.UTC)},
		},
		Profiles: []models.Profile{
			{ID: "u1", Name: "Ravi Kumar", CreatedAt: time.Date(2024, time.February, 17, 0, 0, 0, 0, time.UTC)},
		},
		TakenAt: testNow,
	})
	return a
}

type fakeUpdates struct {
	ch  chan realtime.Change
	err error
}

func newFakeUpdates() *fakeUpdates {
	return &fakeUpdates{ch: make(chan realtime.Change, 4)}
}

func (f *fakeUpdates) Updates(context.Context) (<-chan realtime.Change, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.ch, nil
}
