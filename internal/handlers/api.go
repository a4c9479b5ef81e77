package handlers

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/export"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/services"
)

const (
	reportTitle = "Realtime Sales Dashboard"
	pageHeading = "📊 Realtime Dashboard"
)

type APIHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
	version   string
}

func NewAPIHandlers(analytics *services.Analytics, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		analytics: analytics,
		logger:    logger,
		version:   "1.0.0",
	}
}

// selection resolves the request's filter selection against the observed
// dimension values.
func (h *APIHandlers) selection(r *http.Request) (models.FilterSelection, error) {
	defaults, err := h.analytics.DefaultSelection(r.Context())
	if err != nil {
		return models.FilterSelection{}, err
	}
	return selectionFromQuery(r.URL.Query(), defaults), nil
}

func (h *APIHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	errors.Respond(w, r, h.logger, errors.DataUnavailable(err))
}

func (h *APIHandlers) HandleOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := h.analytics.Options(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	headers := map[string]string{
		"Cache-Control": "public, max-age=300",
	}
	errors.WriteSuccessWithHeaders(w, opts, headers)
}

func (h *APIHandlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	sel, err := h.selection(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	summary, err := h.analytics.Summary(r.Context(), sel)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	errors.WriteSuccess(w, map[string]any{
		"selection": sel,
		"summary":   summary,
	})
}

func (h *APIHandlers) HandleRecords(w http.ResponseWriter, r *http.Request) {
	sel, err := h.selection(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	records, err := h.analytics.Records(r.Context(), sel)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	errors.WriteSuccess(w, map[string]any{
		"count":   len(records),
		"records": records,
	})
}

func (h *APIHandlers) HandleExportCSV(w http.ResponseWriter, r *http.Request) {
	sel, err := h.selection(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	records, err := h.analytics.Records(r.Context(), sel)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, records); err != nil {
		errors.Respond(w, r, h.logger, errors.InternalWrap(err, "Failed to build CSV export"))
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", attachment("sales", "csv"))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (h *APIHandlers) HandleReportPDF(w http.ResponseWriter, r *http.Request) {
	sel, err := h.selection(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	summary, err := h.analytics.Summary(r.Context(), sel)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	table, err := h.analytics.Table(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var buf bytes.Buffer
	meta := export.ReportMeta{
		Title:       reportTitle,
		Source:      table.Source,
		GeneratedAt: time.Now().UTC(),
		Selection:   sel,
	}
	if err := export.WritePDF(&buf, summary, meta); err != nil {
		errors.Respond(w, r, h.logger, errors.InternalWrap(err, "Failed to build PDF report"))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", attachment("sales-report", "pdf"))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	healthData := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   h.version,
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.analytics.Stats(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	errors.WriteSuccess(w, stats)
}

func attachment(name, ext string) string {
	return fmt.Sprintf(`attachment; filename="%s-%s.%s"`, name, time.Now().UTC().Format("20060102"), ext)
}
