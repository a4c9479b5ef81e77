package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"sales-dashboard/internal/services"
	"sales-dashboard/internal/ui/templates"
)

const (
	renderTimeout = 10 * time.Second
	cacheMaxAge   = "public, max-age=300"
)

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

// HandleDashboard renders the full page. Query parameters preselect
// filters the same way the JSON API reads them.
func (h *PageHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
	defer cancel()

	opts, err := h.analytics.Options(ctx)
	if err != nil {
		h.logger.Error("load dashboard options", "error", err)
		http.Error(w, "sales data is not available", http.StatusServiceUnavailable)
		return
	}
	defaults, err := h.analytics.DefaultSelection(ctx)
	if err != nil {
		h.logger.Error("load default selection", "error", err)
		http.Error(w, "sales data is not available", http.StatusServiceUnavailable)
		return
	}

	sel := selectionFromQuery(r.URL.Query(), defaults)
	summary, err := h.analytics.Summary(ctx, sel)
	if err != nil {
		h.logger.Error("compute dashboard summary", "error", err)
		http.Error(w, "sales data is not available", http.StatusServiceUnavailable)
		return
	}

	page := templates.Dashboard(templates.DashboardData{
		Title:     reportTitle,
		Heading:   pageHeading,
		Options:   opts,
		Selection: sel,
		Summary:   summary,
	})

	html, err := templates.Render(ctx, page)
	if err != nil {
		h.logger.Error("render dashboard", "error", err)
		http.Error(w, "render error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", cacheMaxAge)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(html))
}
