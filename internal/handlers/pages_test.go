package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPageHandlers(t *testing.T) {
	handlers := NewPageHandlers(createTestAnalytics(), testLogger())

	tests := []struct {
		name       string
		handler    http.HandlerFunc
		target     string
		wantStatus int
		wantBody   []string
	}{
		{"home", handlers.HandleHome, "/admin", http.StatusOK, []string{"Dashboard", "Pending orders", "Organic Jaggery"}},
		{"analytics", handlers.HandleAnalytics, "/admin/analytics", http.StatusOK, []string{"Monthly Sales", `value="monthly" selected`}},
		{"analytics yearly", handlers.HandleAnalytics, "/admin/analytics?policy=yearly", http.StatusOK, []string{"Yearly Sales", "2024"}},
		{"analytics bad policy", handlers.HandleAnalytics, "/admin/analytics?policy=daily", http.StatusBadRequest, nil},
		{"alerts", handlers.HandleAlerts, "/admin/alerts", http.StatusOK, []string{"Order #o3 Pending", "Critical"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.handler(w, httptest.NewRequest(http.MethodGet, tt.target, nil))

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			body := w.Body.String()
			for _, want := range tt.wantBody {
				if !strings.Contains(body, want) {
					t.Errorf("expected body to contain %q", want)
				}
			}
		})
	}
}

func TestPageHandlers_Loading(t *testing.T) {
	handlers := NewPageHandlers(emptyAnalytics(), testLogger())

	w := httptest.NewRecorder()
	handlers.HandleHome(w, httptest.NewRequest(http.MethodGet, "/admin", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if !strings.Contains(w.Body.String(), "Loading data") {
		t.Error("expected the loading page before the first snapshot")
	}
}

func TestPageHandlers_HandleRoot(t *testing.T) {
	handlers := NewPageHandlers(createTestAnalytics(), testLogger())

	w := httptest.NewRecorder()
	handlers.HandleRoot(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusFound {
		t.Errorf("expected status %d, got %d", http.StatusFound, w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/admin" {
		t.Errorf("expected redirect to /admin, got %q", loc)
	}
}
