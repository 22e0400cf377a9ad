package handlers

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/starfederation/datastar-go/datastar"

	"scr-dashboard/internal/errors"
	"scr-dashboard/internal/observability"
	"scr-dashboard/internal/realtime"
	"scr-dashboard/internal/services"
	"scr-dashboard/internal/ui/templates"
)

// Views a live stream can keep current.
const (
	viewOverview = "overview"
	viewSales    = "sales"
	viewAlerts   = "alerts"
)

// UpdateSource announces every snapshot refresh.
type UpdateSource interface {
	Updates(ctx context.Context) (<-chan realtime.Change, error)
}

type SSEHandlers struct {
	analytics *services.Analytics
	updates   UpdateSource
	logger    *slog.Logger
}

func NewSSEHandlers(analytics *services.Analytics, updates UpdateSource, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		updates:   updates,
		logger:    logger,
	}
}

type pageSignals struct {
	Policy string `json:"policy"`
}

// policyFromRequest prefers the datastar signal and falls back to the
// policy query parameter.
func policyFromRequest(r *http.Request) (services.Policy, error) {
	var signals pageSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		return "", errors.BadRequestWrap(err, "Malformed signals")
	}
	raw := signals.Policy
	if raw == "" {
		raw = r.URL.Query().Get("policy")
	}
	return services.ParsePolicy(raw)
}

type chartSignals struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
	Peak   string    `json:"peak"`
}

func (h *SSEHandlers) patch(ctx context.Context, sse *datastar.ServerSentEventGenerator, components ...templ.Component) error {
	for _, c := range components {
		html, err := templates.Render(ctx, c)
		if err != nil {
			return fmt.Errorf("render fragment: %w", err)
		}
		if err := sse.PatchElements(html); err != nil {
			return fmt.Errorf("patch elements: %w", err)
		}
	}
	return nil
}

func (h *SSEHandlers) patchSignals(sse *datastar.ServerSentEventGenerator, signals map[string]any) error {
	signals["version"] = h.analytics.Version()
	payload, err := json.Marshal(signals)
	if err != nil {
		return fmt.Errorf("marshal signals: %w", err)
	}
	return sse.PatchSignals(payload)
}

func (h *SSEHandlers) pushOverview(ctx context.Context, sse *datastar.ServerSentEventGenerator) error {
	overview, err := h.analytics.Overview()
	if err != nil {
		return err
	}
	if err := h.patch(ctx, sse, templates.OverviewKPIs(overview), templates.HomeAlerts(overview.Alerts)); err != nil {
		return err
	}
	return h.patchSignals(sse, map[string]any{
		"pendingOrders": overview.PendingOrders,
		"lowStockCount": overview.LowStockCount,
	})
}

func (h *SSEHandlers) pushSales(ctx context.Context, sse *datastar.ServerSentEventGenerator, policy services.Policy) error {
	report, err := h.analytics.SalesReport(policy)
	if err != nil {
		return err
	}
	if err := h.patch(ctx, sse, templates.SalesReport(report, policyOptions(policy))); err != nil {
		return err
	}

	chart := chartSignals{
		Labels: make([]string, len(report.Series.Buckets)),
		Values: make([]float64, len(report.Series.Buckets)),
		Peak:   report.Series.Peak,
	}
	for i, b := range report.Series.Buckets {
		chart.Labels[i] = b.Label
		chart.Values[i] = b.Value.InexactFloat64()
	}
	return h.patchSignals(sse, map[string]any{
		"policy": string(policy),
		"sales":  chart,
	})
}

func (h *SSEHandlers) pushAlerts(ctx context.Context, sse *datastar.ServerSentEventGenerator) error {
	feed := h.analytics.Alerts()
	if err := h.patch(ctx, sse, templates.AlertFeed(feed)); err != nil {
		return err
	}
	return h.patchSignals(sse, map[string]any{
		"criticalCount": feed.Critical,
		"warningCount":  feed.Warnings,
		"pendingCount":  feed.Pending,
	})
}

// precheck fails one-shot streams with a JSON error before any event is
// written, while the response status can still change.
func (h *SSEHandlers) precheck(w http.ResponseWriter, r *http.Request) bool {
	if h.analytics.Version() > 0 {
		return true
	}
	errors.WriteError(w, h.logger, reportError(services.ErrNoSnapshot), observability.GetRequestID(r.Context()))
	return false
}

func (h *SSEHandlers) logPushError(r *http.Request, view string, err error) {
	logger := observability.LoggerFrom(r.Context(), h.logger)
	if stderrors.Is(err, services.ErrNoSnapshot) {
		logger.Debug("skipping push, no snapshot yet", "view", view)
		return
	}
	logger.Error("sse push failed", "view", view, "error", err)
}

func flush(w http.ResponseWriter) {
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *SSEHandlers) HandleOverview(w http.ResponseWriter, r *http.Request) {
	if !h.precheck(w, r) {
		return
	}
	sse := datastar.NewSSE(w, r)
	if err := h.pushOverview(r.Context(), sse); err != nil {
		h.logPushError(r, viewOverview, err)
	}
	flush(w)
}

func (h *SSEHandlers) HandleSales(w http.ResponseWriter, r *http.Request) {
	policy, err := policyFromRequest(r)
	if err != nil {
		errors.WriteError(w, h.logger, reportError(err), observability.GetRequestID(r.Context()))
		return
	}
	if !h.precheck(w, r) {
		return
	}
	sse := datastar.NewSSE(w, r)
	if err := h.pushSales(r.Context(), sse, policy); err != nil {
		h.logPushError(r, viewSales, err)
	}
	flush(w)
}

func (h *SSEHandlers) HandleAlerts(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	if err := h.pushAlerts(r.Context(), sse); err != nil {
		h.logPushError(r, viewAlerts, err)
	}
	flush(w)
}

func (h *SSEHandlers) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	policy, err := policyFromRequest(r)
	if err != nil {
		errors.WriteError(w, h.logger, reportError(err), observability.GetRequestID(r.Context()))
		return
	}
	if !h.precheck(w, r) {
		return
	}
	sse := datastar.NewSSE(w, r)
	h.pushViews(r, sse, nil, policy)
	flush(w)
}

func (h *SSEHandlers) pushViews(r *http.Request, sse *datastar.ServerSentEventGenerator, views []string, policy services.Policy) {
	if len(views) == 0 {
		views = []string{viewOverview, viewSales, viewAlerts}
	}
	for _, view := range views {
		var err error
		switch view {
		case viewOverview:
			err = h.pushOverview(r.Context(), sse)
		case viewSales:
			err = h.pushSales(r.Context(), sse, policy)
		case viewAlerts:
			err = h.pushAlerts(r.Context(), sse)
		}
		if err != nil {
			h.logPushError(r, view, err)
		}
	}
}

// HandleLive keeps the page current: it pushes the requested view now and
// again after every snapshot refresh until the client goes away.
func (h *SSEHandlers) HandleLive(w http.ResponseWriter, r *http.Request) {
	var views []string
	switch view := r.URL.Query().Get("view"); view {
	case "":
	case viewOverview, viewSales, viewAlerts:
		views = []string{view}
	default:
		errors.WriteError(w, h.logger, errors.BadRequest("Unknown view").WithDetails(view), observability.GetRequestID(r.Context()))
		return
	}

	policy, err := policyFromRequest(r)
	if err != nil {
		errors.WriteError(w, h.logger, reportError(err), observability.GetRequestID(r.Context()))
		return
	}

	updates, err := h.updates.Updates(r.Context())
	if err != nil {
		errors.WriteError(w, h.logger, errors.ServiceUnavailableWrap(err, "Live updates unavailable"), observability.GetRequestID(r.Context()))
		return
	}

	logger := observability.LoggerFrom(r.Context(), h.logger)
	logger.Debug("live stream opened", "views", views, "policy", policy)
	start := time.Now()
	defer func() { logger.Debug("live stream closed", "duration", time.Since(start)) }()

	// The stream outlives the server's write timeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	sse := datastar.NewSSE(w, r)
	h.pushViews(r, sse, views, policy)
	flush(w)

	for {
		select {
		case <-r.Context().Done():
			return
		case _, ok := <-updates:
			if !ok {
				return
			}
			h.pushViews(r, sse, views, policy)
			flush(w)
		}
	}
}
