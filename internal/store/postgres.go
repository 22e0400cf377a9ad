package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"scr-dashboard/internal/models"
)

// PostgresSource reads the backend tables directly over database/sql.
type PostgresSource struct {
	db *sql.DB
}

func NewPostgresSource(db *sql.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

// OpenPostgres opens and pings a lib/pq connection pool.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

func (s *PostgresSource) FetchOrders(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	query := `SELECT id, order_number, user_id, created_at, status, total, cancelled_at FROM orders`

	var (
		where []string
		args  []any
	)
	if len(filter.Statuses) > 0 {
		args = append(args, pq.Array(filter.Statuses))
		where = append(where, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if !filter.Since.IsZero() {
		args = append(args, filter.Since)
		where = append(where, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]models.Order, 0)
	for rows.Next() {
		var (
			o           models.Order
			orderNumber sql.NullString
			userID      sql.NullString
			createdAt   sql.NullString
			status      sql.NullString
			total       decimal.NullDecimal
			cancelledAt sql.NullString
		)
		if err := rows.Scan(&o.ID, &orderNumber, &userID, &createdAt, &status, &total, &cancelledAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o.OrderNumber = orderNumber.String
		o.UserID = userID.String
		o.CreatedAt, _ = models.ParseTimestamp(createdAt.String)
		o.Status = status.String
		if total.Valid {
			o.Total = total.Decimal
		}
		if t, ok := models.ParseTimestamp(cancelledAt.String); ok {
			o.CancelledAt = &t
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return orders, nil
}

func (s *PostgresSource) FetchProducts(ctx context.Context) ([]models.Product, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, stock_quantity, min_stock_level, created_at FROM products ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := make([]models.Product, 0)
	for rows.Next() {
		var (
			p         models.Product
			title     sql.NullString
			stock     sql.NullInt64
			minLevel  sql.NullInt64
			createdAt sql.NullString
		)
		if err := rows.Scan(&p.ID, &title, &stock, &minLevel, &createdAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		p.Title = title.String
		p.StockQuantity = int(stock.Int64)
		if minLevel.Valid {
			v := int(minLevel.Int64)
			p.MinStockLevel = &v
		}
		p.CreatedAt, _ = models.ParseTimestamp(createdAt.String)
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

func (s *PostgresSource) FetchStockMovements(ctx context.Context) ([]models.StockMovement, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT product_id, new_quantity, created_at FROM stock_movements ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query stock movements: %w", err)
	}
	defer rows.Close()

	movements := make([]models.StockMovement, 0)
	for rows.Next() {
		var (
			m         models.StockMovement
			quantity  sql.NullInt64
			createdAt sql.NullString
		)
		if err := rows.Scan(&m.ProductID, &quantity, &createdAt); err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		m.NewQuantity = int(quantity.Int64)
		m.CreatedAt, _ = models.ParseTimestamp(createdAt.String)
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stock movements: %w", err)
	}
	return movements, nil
}

func (s *PostgresSource) FetchProfiles(ctx context.Context, since time.Time) ([]models.Profile, error) {
	query := `SELECT id, name, email, created_at FROM profiles`
	var args []any
	if !since.IsZero() {
		query += ` WHERE created_at >= $1`
		args = append(args, since)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	profiles := make([]models.Profile, 0)
	for rows.Next() {
		var (
			p         models.Profile
			name      sql.NullString
			email     sql.NullString
			createdAt sql.NullString
		)
		if err := rows.Scan(&p.ID, &name, &email, &createdAt); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		p.Name = name.String
		p.Email = email.String
		p.CreatedAt, _ = models.ParseTimestamp(createdAt.String)
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}
	return profiles, nil
}
