package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Order is one customer purchase as read from the orders feed. A zero
// CreatedAt means the timestamp was missing or could not be parsed.
type Order struct {
	ID           string          `json:"id"`
	OrderNumber  string          `json:"order_number,omitempty"`
	UserID       string          `json:"user_id,omitempty"`
	CustomerName string          `json:"customer_name,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	Status       string          `json:"status"`
	Total        decimal.Decimal `json:"total"`
	CancelledAt  *time.Time      `json:"cancelled_at,omitempty"`
}

func (o Order) HasTimestamp() bool {
	return !o.CreatedAt.IsZero()
}

func (o Order) Cancelled() bool {
	return o.CancelledAt != nil && !o.CancelledAt.IsZero()
}

// Profile is a customer account row. Orders reference it by UserID.
type Profile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z07",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp accepts the timestamp shapes the backend emits (RFC 3339,
// Postgres text output, bare dates). Date-only and zone-less values are
// read as UTC.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
