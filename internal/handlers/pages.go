package handlers

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/a-h/templ"

	"scr-dashboard/internal/errors"
	"scr-dashboard/internal/observability"
	"scr-dashboard/internal/services"
	"scr-dashboard/internal/ui/templates"
)

const renderTimeout = 10 * time.Second

type PageHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewPageHandlers(analytics *services.Analytics, logger *slog.Logger) *PageHandlers {
	return &PageHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

func policyOptions(selected services.Policy) []templates.PolicyOption {
	opts := make([]templates.PolicyOption, len(services.Policies))
	for i, p := range services.Policies {
		opts[i] = templates.PolicyOption{Value: string(p), Title: p.Title(), Selected: p == selected}
	}
	return opts
}

func (h *PageHandlers) render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
	defer cancel()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := c.Render(ctx, w); err != nil {
		observability.LoggerFrom(r.Context(), h.logger).Error("render page", "path", r.URL.Path, "error", err)
		http.Error(w, "render error", http.StatusInternalServerError)
	}
}

// renderOrLoading shows the loading page until the first snapshot lands.
func (h *PageHandlers) renderOrLoading(w http.ResponseWriter, r *http.Request, title string, c templ.Component, err error) {
	if stderrors.Is(err, services.ErrNoSnapshot) {
		h.render(w, r, templates.Loading(title))
		return
	}
	if err != nil {
		errors.WriteError(w, h.logger, reportError(err), observability.GetRequestID(r.Context()))
		return
	}
	h.render(w, r, c)
}

func (h *PageHandlers) HandleRoot(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/admin", http.StatusFound)
}

func (h *PageHandlers) HandleHome(w http.ResponseWriter, r *http.Request) {
	overview, err := h.analytics.Overview()
	h.renderOrLoading(w, r, "Dashboard", templates.Home(overview), err)
}

func (h *PageHandlers) HandleAnalytics(w http.ResponseWriter, r *http.Request) {
	policy, err := services.ParsePolicy(r.URL.Query().Get("policy"))
	if err != nil {
		errors.WriteError(w, h.logger, reportError(err), observability.GetRequestID(r.Context()))
		return
	}

	report, err := h.analytics.SalesReport(policy)
	h.renderOrLoading(w, r, "Sales analytics", templates.Analytics(report, policyOptions(policy)), err)
}

func (h *PageHandlers) HandleAlerts(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, templates.Alerts(h.analytics.Alerts()))
}
