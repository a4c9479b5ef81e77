package templates

//go:generate templ generate

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"sales-dashboard/internal/format"
	"sales-dashboard/internal/models"
)

// Element ids patched by the SSE endpoint.
const (
	KPIPanelID     = "kpis"
	ProductChartID = "product-chart"
	HourChartID    = "hour-chart"
)

type DashboardData struct {
	Title     string
	Heading   string
	Options   models.DimensionOptions
	Selection models.FilterSelection
	Summary   models.Summary
}

// Render writes a component into a string, for SSE element patches.
func Render(ctx context.Context, c templ.Component) (string, error) {
	var b strings.Builder
	if err := c.Render(ctx, &b); err != nil {
		return "", err
	}
	return b.String(), nil
}

// SelectionSignals is the Datastar signal shape of a filter selection.
type SelectionSignals struct {
	City         []string `json:"city"`
	CustomerType []string `json:"customerType"`
	Gender       []string `json:"gender"`
}

func Signals(sel models.FilterSelection) SelectionSignals {
	return SelectionSignals{
		City:         nonNil(sel.City),
		CustomerType: nonNil(sel.CustomerType),
		Gender:       nonNil(sel.Gender),
	}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func signalsJSON(sel models.FilterSelection) (string, error) {
	b, err := json.Marshal(Signals(sel))
	if err != nil {
		return "", fmt.Errorf("marshal signals: %w", err)
	}
	return string(b), nil
}

// bar is one chart bar. Size and Offset are percentages of the chart's
// extent, formatted for SVG attributes.
type bar struct {
	Label  string
	Amount string
	Size   string
	Offset string
}

// productBars reverses the ascending series so the largest line is first.
func productBars(series []models.ProductSales) []bar {
	peak := 0.0
	for _, p := range series {
		peak = max(peak, p.Total)
	}

	bars := make([]bar, 0, len(series))
	for i := len(series) - 1; i >= 0; i-- {
		bars = append(bars, newBar(series[i].ProductLine, series[i].Total, peak))
	}
	return bars
}

func hourBars(series []models.HourlySales) []bar {
	peak := 0.0
	for _, h := range series {
		peak = max(peak, h.Total)
	}

	bars := make([]bar, 0, len(series))
	for _, h := range series {
		bars = append(bars, newBar(strconv.Itoa(h.Hour), h.Total, peak))
	}
	return bars
}

func newBar(label string, total, peak float64) bar {
	size := 0.0
	if peak > 0 {
		size = total / peak * 100
	}
	return bar{
		Label:  label,
		Amount: format.Amount(total),
		Size:   strconv.FormatFloat(size, 'f', 1, 64),
		Offset: strconv.FormatFloat(100-size, 'f', 1, 64),
	}
}
