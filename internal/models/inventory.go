package models

import "time"

const DefaultMinStockLevel = 10

// Product is the inventory row for one product. StockQuantity is the stored
// fallback used when the product has no stock movements.
type Product struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	StockQuantity int       `json:"stock_quantity"`
	MinStockLevel *int      `json:"min_stock_level,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func (p Product) MinLevel() int {
	if p.MinStockLevel == nil {
		return DefaultMinStockLevel
	}
	return *p.MinStockLevel
}

type StockMovement struct {
	ProductID   string    `json:"product_id"`
	NewQuantity int       `json:"new_quantity"`
	CreatedAt   time.Time `json:"created_at"`
}

// StockLevel is a product with its resolved quantity.
type StockLevel struct {
	ProductID     string `json:"product_id"`
	Title         string `json:"title"`
	ActualStock   int    `json:"actual_stock"`
	MinStockLevel int    `json:"min_stock_level"`
	FromMovement  bool   `json:"from_movement"`
}

func (l StockLevel) Low() bool {
	return l.ActualStock <= l.MinStockLevel
}
