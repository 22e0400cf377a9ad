package errors

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestWriteError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   ErrorCode
	}{
		{"app error", BadRequest("bad policy"), http.StatusBadRequest, CodeBadRequest},
		{"wrapped app error", fmt.Errorf("handler: %w", Forbidden("admins only")), http.StatusForbidden, CodeForbidden},
		{"plain error", fmt.Errorf("boom"), http.StatusInternalServerError, CodeInternal},
		{"unavailable", ServiceUnavailableWrap(nil, "warming up"), http.StatusServiceUnavailable, CodeServiceUnavail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, logger, tt.err, "req-1")

			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}

			var resp struct {
				Success bool `json:"success"`
				Error   struct {
					Code      ErrorCode `json:"code"`
					RequestID string    `json:"request_id"`
				} `json:"error"`
			}
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp.Success {
				t.Error("expected success=false")
			}
			if resp.Error.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, resp.Error.Code)
			}
			if resp.Error.RequestID != "req-1" {
				t.Errorf("expected request id req-1, got %q", resp.Error.RequestID)
			}
		})
	}
}

func TestWriteError_RetryAfter(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	w := httptest.NewRecorder()
	WriteError(w, logger, ServiceUnavailableWrap(nil, "warming up"), "")

	if got := w.Header().Get("Retry-After"); got != "1" {
		t.Errorf("expected Retry-After 1, got %q", got)
	}
}

func TestWriteError_CustomRetryAfter(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	w := httptest.NewRecorder()
	WriteError(w, logger, ServiceUnavailableWrap(nil, "warming up").WithRetryAfter(3*time.Second), "")

	if got := w.Header().Get("Retry-After"); got != "3" {
		t.Errorf("expected Retry-After 3, got %q", got)
	}

	w = httptest.NewRecorder()
	WriteError(w, logger, BadRequest("nope"), "")
	if got := w.Header().Get("Retry-After"); got != "" {
		t.Errorf("client errors should not carry Retry-After, got %q", got)
	}
}

func TestWithDetails(t *testing.T) {
	base := BadRequest("unknown policy")
	detailed := base.WithDetails("weekly")
	if base.Details != "" {
		t.Error("WithDetails must not modify the receiver")
	}
	if detailed.Details != "weekly" || detailed.Code != CodeBadRequest {
		t.Errorf("unexpected copy: %+v", detailed)
	}
}

func TestWriteSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccessWithHeaders(w, map[string]int{"count": 2}, map[string]string{"Cache-Control": "no-store"})

	if w.Header().Get("Cache-Control") != "no-store" {
		t.Error("missing custom header")
	}
	var resp struct {
		Success bool           `json:"success"`
		Data    map[string]int `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || resp.Data["count"] != 2 {
		t.Errorf("unexpected response: %+v", resp)
	}
}
