package handlers

import (
	stderrors "errors"
	"log/slog"
	"net/http"
	"time"

	"scr-dashboard/internal/errors"
	"scr-dashboard/internal/observability"
	"scr-dashboard/internal/services"
)

const (
	version      = "1.0.0"
	cacheControl = "no-cache"

	// Clients retry after this long while the first snapshot loads.
	loadingRetryAfter = 2 * time.Second
)

type APIHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewAPIHandlers(analytics *services.Analytics, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

// reportError maps engine and request errors onto API errors.
func reportError(err error) *errors.AppError {
	var appErr *errors.AppError
	switch {
	case stderrors.As(err, &appErr):
		return appErr
	case stderrors.Is(err, services.ErrNoSnapshot):
		return errors.ServiceUnavailableWrap(err, "Report data is still loading").WithRetryAfter(loadingRetryAfter)
	case stderrors.Is(err, services.ErrUnknownPolicy):
		return errors.BadRequestWrap(err, "Unknown bucketing policy").WithDetails(err.Error())
	default:
		return errors.InternalWrap(err, "Failed to build report")
	}
}

func (h *APIHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	errors.WriteError(w, h.logger, reportError(err), observability.GetRequestID(r.Context()))
}

func (h *APIHandlers) HandleOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.analytics.Overview()
	if err != nil {
		h.fail(w, r, err)
		return
	}

	errors.WriteSuccessWithHeaders(w, overview, map[string]string{"Cache-Control": cacheControl})
}

func (h *APIHandlers) HandleSales(w http.ResponseWriter, r *http.Request) {
	policy, err := services.ParsePolicy(r.URL.Query().Get("policy"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	report, err := h.analytics.SalesReport(policy)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	errors.WriteSuccessWithHeaders(w, report, map[string]string{"Cache-Control": cacheControl})
}

func (h *APIHandlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccessWithHeaders(w, h.analytics.Summary(), map[string]string{"Cache-Control": cacheControl})
}

func (h *APIHandlers) HandleLowStock(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccessWithHeaders(w, h.analytics.LowStock(), map[string]string{"Cache-Control": cacheControl})
}

func (h *APIHandlers) HandleAlerts(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccessWithHeaders(w, h.analytics.Alerts(), map[string]string{"Cache-Control": cacheControl})
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if h.analytics.Version() == 0 {
		status = "starting"
	}

	errors.WriteSuccess(w, map[string]any{
		"status":           status,
		"timestamp":        time.Now().Format(time.RFC3339),
		"version":          version,
		"snapshot_version": h.analytics.Version(),
	})
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.analytics.Stats())
}
