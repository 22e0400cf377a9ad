package store

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"scr-dashboard/internal/models"
)

// Table names of the backend feeds.
const (
	TableOrders         = "orders"
	TableProducts       = "products"
	TableStockMovements = "stock_movements"
	TableProfiles       = "profiles"
)

var Tables = []string{TableOrders, TableProducts, TableStockMovements, TableProfiles}

// OrderFilter narrows FetchOrders. Zero values mean no filtering.
type OrderFilter struct {
	Statuses []string
	Since    time.Time
}

// Source is the read side of the backend the dashboard sits on.
type Source interface {
	FetchOrders(ctx context.Context, filter OrderFilter) ([]models.Order, error)
	FetchProducts(ctx context.Context) ([]models.Product, error)
	// FetchStockMovements returns movements newest first.
	FetchStockMovements(ctx context.Context) ([]models.StockMovement, error)
	FetchProfiles(ctx context.Context, since time.Time) ([]models.Profile, error)
}

// LoadSnapshot fetches every feed concurrently and returns them as one
// snapshot. Any failed fetch fails the whole load so callers never mix
// feeds from different attempts.
func LoadSnapshot(ctx context.Context, src Source, now time.Time) (models.Snapshot, error) {
	var (
		orders    []models.Order
		products  []models.Product
		movements []models.StockMovement
		profiles  []models.Profile
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		if orders, err = src.FetchOrders(ctx, OrderFilter{}); err != nil {
			return fmt.Errorf("fetch %s: %w", TableOrders, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if products, err = src.FetchProducts(ctx); err != nil {
			return fmt.Errorf("fetch %s: %w", TableProducts, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if movements, err = src.FetchStockMovements(ctx); err != nil {
			return fmt.Errorf("fetch %s: %w", TableStockMovements, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if profiles, err = src.FetchProfiles(ctx, time.Time{}); err != nil {
			return fmt.Errorf("fetch %s: %w", TableProfiles, err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return models.Snapshot{}, err
	}

	return models.Snapshot{
		Orders:         orders,
		Products:       products,
		StockMovements: movements,
		Profiles:       profiles,
		TakenAt:        now,
	}, nil
}
