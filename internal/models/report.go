package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Snapshot is a point-in-time materialisation of every feed the reports
// read. It is never mutated after construction.
type Snapshot struct {
	Orders         []Order         `json:"orders"`
	Products       []Product       `json:"products"`
	StockMovements []StockMovement `json:"stock_movements"`
	Profiles       []Profile       `json:"profiles"`
	TakenAt        time.Time       `json:"taken_at"`
}

type TimeBucket struct {
	Label string          `json:"label"`
	Value decimal.Decimal `json:"value"`
}

type SalesSeries struct {
	Policy  string       `json:"policy"`
	Title   string       `json:"title"`
	Buckets []TimeBucket `json:"buckets"`
	Peak    string       `json:"peak"`
}

type OrderStats struct {
	TotalOrders          int             `json:"total_orders"`
	TotalRevenue         decimal.Decimal `json:"total_revenue"`
	AverageOrderValue    decimal.Decimal `json:"average_order_value"`
	StatusCounts         map[string]int  `json:"status_counts"`
	DeliveredOrdersCount int             `json:"delivered_orders_count"`
}

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

type StockAlert struct {
	ProductID string   `json:"product_id"`
	Title     string   `json:"title"`
	Message   string   `json:"message"`
	Severity  Severity `json:"severity"`
}

type AlertKind string

const (
	AlertLowStock     AlertKind = "low_stock"
	AlertPendingOrder AlertKind = "pending_order"
)

// Alert is an entry of the combined alerts page.
type Alert struct {
	ID          string    `json:"id"`
	Kind        AlertKind `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Severity    Severity  `json:"severity"`
	Timestamp   time.Time `json:"timestamp"`
}

type AlertFeed struct {
	Alerts   []Alert `json:"alerts"`
	Critical int     `json:"critical"`
	Warnings int     `json:"warnings"`
	Pending  int     `json:"pending"`
}

// Overview backs the admin home screen.
type Overview struct {
	PendingOrders   int             `json:"pending_orders"`
	LowStockCount   int             `json:"low_stock_count"`
	SalesToday      decimal.Decimal `json:"sales_today"`
	RecentCustomers int             `json:"recent_customers"`
	Alerts          []StockAlert    `json:"alerts"`
}

// QuickStats are the per-status tiles on the analytics screen.
type QuickStats struct {
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
	Cancelled int `json:"cancelled"`
	Delivered int `json:"delivered"`
}

// RecentOrder is one row of the recent orders panel.
type RecentOrder struct {
	ID        string          `json:"id"`
	Label     string          `json:"label"`
	Customer  string          `json:"customer"`
	CreatedAt time.Time       `json:"created_at"`
	Total     decimal.Decimal `json:"total"`
	Status    string          `json:"status"`
}

// SalesReport is everything the analytics screen renders for one policy.
type SalesReport struct {
	Series       SalesSeries   `json:"series"`
	Stats        OrderStats    `json:"stats"`
	QuickStats   QuickStats    `json:"quick_stats"`
	RecentOrders []RecentOrder `json:"recent_orders"`
	PeakHour     int           `json:"peak_hour"`
	Generated    time.Time     `json:"generated_at"`
}
