package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"scr-dashboard/internal/models"
)

// CSVSource serves the feeds from a directory of exported tables, one
// <table>.csv per feed with a header row. A missing file is an empty feed.
type CSVSource struct {
	dir string
}

func NewCSVSource(dir string) *CSVSource {
	return &CSVSource{dir: dir}
}

func (s *CSVSource) Dir() string {
	return s.dir
}

type csvRow struct {
	fields []string
	index  map[string]int
}

func (r csvRow) get(column string) string {
	i, ok := r.index[column]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[i])
}

func (r csvRow) int(column string) (int, bool) {
	v, err := strconv.Atoi(r.get(column))
	return v, err == nil
}

func (r csvRow) timestamp(column string) time.Time {
	t, _ := models.ParseTimestamp(r.get(column))
	return t
}

func (s *CSVSource) readTable(ctx context.Context, table string, fn func(csvRow) error) error {
	f, err := os.Open(filepath.Join(s.dir, table+".csv"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open %s: %w", table, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s header: %w", table, err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}

	for line := 2; ; line++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		record, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read %s line %d: %w", table, line, err)
		}
		if err := fn(csvRow{fields: record, index: index}); err != nil {
			return fmt.Errorf("%s line %d: %w", table, line, err)
		}
	}
}

func (s *CSVSource) FetchOrders(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	orders := make([]models.Order, 0)
	err := s.readTable(ctx, TableOrders, func(r csvRow) error {
		o := models.Order{
			ID:           r.get("id"),
			OrderNumber:  r.get("order_number"),
			UserID:       r.get("user_id"),
			CustomerName: r.get("customer_name"),
			CreatedAt:    r.timestamp("created_at"),
			Status:       r.get("status"),
		}
		if total, err := decimal.NewFromString(r.get("total")); err == nil {
			o.Total = total
		}
		if t := r.timestamp("cancelled_at"); !t.IsZero() {
			o.CancelledAt = &t
		}

		if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, o.Status) {
			return nil
		}
		if !filter.Since.IsZero() && (o.CreatedAt.IsZero() || o.CreatedAt.Before(filter.Since)) {
			return nil
		}
		orders = append(orders, o)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *CSVSource) FetchProducts(ctx context.Context) ([]models.Product, error) {
	products := make([]models.Product, 0)
	err := s.readTable(ctx, TableProducts, func(r csvRow) error {
		p := models.Product{
			ID:        r.get("id"),
			Title:     r.get("title"),
			CreatedAt: r.timestamp("created_at"),
		}
		p.StockQuantity, _ = r.int("stock_quantity")
		if v, ok := r.int("min_stock_level"); ok {
			p.MinStockLevel = &v
		}
		products = append(products, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (s *CSVSource) FetchStockMovements(ctx context.Context) ([]models.StockMovement, error) {
	movements := make([]models.StockMovement, 0)
	err := s.readTable(ctx, TableStockMovements, func(r csvRow) error {
		m := models.StockMovement{
			ProductID: r.get("product_id"),
			CreatedAt: r.timestamp("created_at"),
		}
		m.NewQuantity, _ = r.int("new_quantity")
		movements = append(movements, m)
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(movements, func(a, b models.StockMovement) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return movements, nil
}

func (s *CSVSource) FetchProfiles(ctx context.Context, since time.Time) ([]models.Profile, error) {
	profiles := make([]models.Profile, 0)
	err := s.readTable(ctx, TableProfiles, func(r csvRow) error {
		p := models.Profile{
			ID:        r.get("id"),
			Name:      r.get("name"),
			Email:     r.get("email"),
			CreatedAt: r.timestamp("created_at"),
		}
		if !since.IsZero() && p.CreatedAt.Before(since) {
			return nil
		}
		profiles = append(profiles, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return profiles, nil
}
