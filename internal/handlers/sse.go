package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/starfederation/datastar-go/datastar"

	"sales-dashboard/internal/models"
	"sales-dashboard/internal/services"
	"sales-dashboard/internal/ui/templates"
)

type SSEHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewSSEHandlers(analytics *services.Analytics, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

// dashboardSignals is what the sidebar sends. A nil field was not sent
// and falls back to every observed value.
type dashboardSignals struct {
	City         *[]string `json:"city"`
	CustomerType *[]string `json:"customerType"`
	Gender       *[]string `json:"gender"`
}

func (s dashboardSignals) selection(defaults models.FilterSelection) models.FilterSelection {
	return models.FilterSelection{
		City:         orDefault(s.City, defaults.City),
		CustomerType: orDefault(s.CustomerType, defaults.CustomerType),
		Gender:       orDefault(s.Gender, defaults.Gender),
	}
}

// HandleDashboard recomputes the dashboard for the current signals and
// patches the KPI panel, both charts and the summary signal.
func (h *SSEHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	var signals dashboardSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		h.logger.Warn("read dashboard signals", "error", err)
		http.Error(w, "invalid signals", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	defaults, err := h.analytics.DefaultSelection(ctx)
	if err != nil {
		h.logger.Error("load sales table", "error", err)
		http.Error(w, "sales data is not available", http.StatusServiceUnavailable)
		return
	}

	summary, err := h.analytics.Summary(ctx, signals.selection(defaults))
	if err != nil {
		h.logger.Error("compute summary", "error", err)
		http.Error(w, "sales data is not available", http.StatusServiceUnavailable)
		return
	}

	fragments := make([]string, 0, 3)
	for _, c := range []struct {
		name string
		render func() (string, error)
	}{
		{"kpi panel", func() (string, error) { return templates.Render(ctx, templates.KPIPanel(summary.KPIs)) }},
		{"product chart", func() (string, error) { return templates.Render(ctx, templates.ProductChart(summary.SalesByProduct)) }},
		{"hour chart", func() (string, error) { return templates.Render(ctx, templates.HourChart(summary.SalesByHour)) }},
	} {
		html, err := c.render()
		if err != nil {
			h.logger.Error("render "+c.name, "error", err)
			http.Error(w, "render failed", http.StatusInternalServerError)
			return
		}
		fragments = append(fragments, html)
	}

	summaryJSON, err := json.Marshal(map[string]any{"summary": summary})
	if err != nil {
		h.logger.Error("marshal summary signal", "error", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}

	sse := datastar.NewSSE(w, r)
	for _, html := range fragments {
		if err := sse.PatchElements(html); err != nil {
			h.logger.Warn("patch elements", "error", err)
			return
		}
	}
	if err := sse.PatchSignals(summaryJSON); err != nil {
		h.logger.Warn("patch summary signal", "error", err)
		return
	}

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
