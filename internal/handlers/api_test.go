package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return env
}

func TestNewAPIHandlers(t *testing.T) {
	analytics := createTestAnalytics()
	logger := testLogger()
	handlers := NewAPIHandlers(analytics, logger)

	if handlers == nil {
		t.Fatal("NewAPIHandlers() returned nil")
	}
	if handlers.analytics != analytics {
		t.Error("NewAPIHandlers() should set analytics field")
	}
}

func TestAPIHandlers_HandleOverview(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger())

	w := httptest.NewRecorder()
	handlers.HandleOverview(w, httptest.NewRequest(http.MethodGet, "/api/overview", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if cc := w.Header().Get("Cache-Control"); cc != cacheControl {
		t.Errorf("expected cache-control %q, got %q", cacheControl, cc)
	}

	env := decodeEnvelope(t, w)
	var overview struct {
		PendingOrders   int    `json:"pending_orders"`
		LowStockCount   int    `json:"low_stock_count"`
		SalesToday      string `json:"sales_today"`
		RecentCustomers int    `json:"recent_customers"`
	}
	if err := json.Unmarshal(env.Data, &overview); err != nil {
		t.Fatalf("failed to decode overview: %v", err)
	}

	if overview.PendingOrders != 1 {
		t.Errorf("expected 1 pending order, got %d", overview.PendingOrders)
	}
	if overview.LowStockCount != 1 {
		t.Errorf("expected 1 low stock product, got %d", overview.LowStockCount)
	}
	if overview.SalesToday != "200" {
		t.Errorf("expected sales today 200, got %s", overview.SalesToday)
	}
	if overview.RecentCustomers != 1 {
		t.Errorf("expected 1 recent customer, got %d", overview.RecentCustomers)
	}
}

func TestAPIHandlers_HandleSales(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger())

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantLabels []string
	}{
		{"default monthly", "", http.StatusOK, []string{"Nov", "Dec", "Jan", "Feb"}},
		{"quarterly", "?policy=quarterly", http.StatusOK, []string{"Q1", "Q2", "Q3", "Q4"}},
		{"yearly", "?policy=yearly", http.StatusOK, []string{"2022", "2023", "2024"}},
		{"unknown", "?policy=weekly", http.StatusBadRequest, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handlers.HandleSales(w, httptest.NewRequest(http.MethodGet, "/api/sales"+tt.query, nil))

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			env := decodeEnvelope(t, w)
			if tt.wantStatus != http.StatusOK {
				if env.Error == nil || env.Error.Code != "BAD_REQUEST" {
					t.Errorf("expected BAD_REQUEST error, got %+v", env.Error)
				}
				return
			}

			var report struct {
				Series struct {
					Buckets []struct {
						Label string `json:"label"`
					} `json:"buckets"`
				} `json:"series"`
			}
			if err := json.Unmarshal(env.Data, &report); err != nil {
				t.Fatalf("failed to decode report: %v", err)
			}
			if len(report.Series.Buckets) != len(tt.wantLabels) {
				t.Fatalf("expected %d buckets, got %d", len(tt.wantLabels), len(report.Series.Buckets))
			}
			for i, b := range report.Series.Buckets {
				if b.Label != tt.wantLabels[i] {
					t.Errorf("bucket %d: expected %s, got %s", i, tt.wantLabels[i], b.Label)
				}
			}
		})
	}
}

func TestAPIHandlers_NoSnapshot(t *testing.T) {
	handlers := NewAPIHandlers(emptyAnalytics(), testLogger())

	for _, h := range []http.HandlerFunc{handlers.HandleOverview, handlers.HandleSales} {
		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodGet, "/api/x", nil))
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, w.Code)
		}
		if got := w.Header().Get("Retry-After"); got != "2" {
			t.Errorf("expected Retry-After 2 while loading, got %q", got)
		}
	}

	// the precomputed views degrade to empty values instead
	w := httptest.NewRecorder()
	handlers.HandleLowStock(w, httptest.NewRequest(http.MethodGet, "/api/low-stock", nil))
	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if env := decodeEnvelope(t, w); string(env.Data) != "[]" {
		t.Errorf("expected empty list, got %s", env.Data)
	}
}

func TestAPIHandlers_SummaryAndAlerts(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger())

	w := httptest.NewRecorder()
	handlers.HandleSummary(w, httptest.NewRequest(http.MethodGet, "/api/summary", nil))
	var stats struct {
		TotalOrders          int    `json:"total_orders"`
		TotalRevenue         string `json:"total_revenue"`
		DeliveredOrdersCount int    `json:"delivered_orders_count"`
	}
	if err := json.Unmarshal(decodeEnvelope(t, w).Data, &stats); err != nil {
		t.Fatalf("failed to decode summary: %v", err)
	}
	if stats.TotalOrders != 3 || stats.TotalRevenue != "349.5" || stats.DeliveredOrdersCount != 1 {
		t.Errorf("unexpected summary: %+v", stats)
	}

	w = httptest.NewRecorder()
	handlers.HandleAlerts(w, httptest.NewRequest(http.MethodGet, "/api/alerts", nil))
	var feed struct {
		Alerts []struct {
			Type  string `json:"type"`
			Title string `json:"title"`
		} `json:"alerts"`
		Critical int `json:"critical"`
		Pending  int `json:"pending"`
	}
	if err := json.Unmarshal(decodeEnvelope(t, w).Data, &feed); err != nil {
		t.Fatalf("failed to decode alerts: %v", err)
	}
	if len(feed.Alerts) != 2 || feed.Critical != 1 || feed.Pending != 1 {
		t.Errorf("unexpected alert feed: %+v", feed)
	}
}

func TestAPIHandlers_HandleHealth(t *testing.T) {
	tests := []struct {
		name       string
		handlers   *APIHandlers
		wantStatus string
	}{
		{"loaded", NewAPIHandlers(createTestAnalytics(), testLogger()), "healthy"},
		{"starting", NewAPIHandlers(emptyAnalytics(), testLogger()), "starting"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.handlers.HandleHealth(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			if w.Code != http.StatusOK {
				t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
			}
			var health map[string]any
			if err := json.Unmarshal(decodeEnvelope(t, w).Data, &health); err != nil {
				t.Fatalf("failed to decode health: %v", err)
			}
			if health["status"] != tt.wantStatus {
				t.Errorf("expected status %q, got %v", tt.wantStatus, health["status"])
			}
			if health["version"] != version {
				t.Errorf("expected version %s, got %v", version, health["version"])
			}
		})
	}
}

func TestAPIHandlers_HandleStats(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger())

	w := httptest.NewRecorder()
	handlers.HandleStats(w, httptest.NewRequest(http.MethodGet, "/admin/stats", nil))

	var stats map[string]any
	if err := json.Unmarshal(decodeEnvelope(t, w).Data, &stats); err != nil {
		t.Fatalf("failed to decode stats: %v", err)
	}
	if stats["loaded"] != true {
		t.Errorf("expected loaded=true, got %v", stats["loaded"])
	}
	if stats["orders"] != float64(3) {
		t.Errorf("expected 3 orders, got %v", stats["orders"])
	}
}
