// Package console renders the dashboard summary for a terminal.
package console

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/pterm/pterm"

	"sales-dashboard/internal/format"
	"sales-dashboard/internal/models"
)

const (
	barWidth = 40
	noData   = "No sales match the current filters."
)

var (
	BrightCyan  = color.New(color.FgCyan, color.Bold).SprintFunc()
	BrightGreen = color.New(color.FgGreen, color.Bold).SprintFunc()
	BrightBlue  = color.New(color.FgBlue, color.Bold).SprintFunc()
)

// Banner is the one-line header printed before a report.
func Banner(version string) string {
	return BrightBlue(fmt.Sprintf("Sales Dashboard report (v%s)", version))
}

// Selection lists the active filter values, one dimension per line.
func Selection(sel models.FilterSelection) string {
	var b strings.Builder
	for _, d := range []struct {
		label  string
		values []string
	}{
		{"City", sel.City},
		{"Customer Type", sel.CustomerType},
		{"Gender", sel.Gender},
	} {
		values := "(none)"
		if len(d.values) > 0 {
			values = strings.Join(d.values, ", ")
		}
		fmt.Fprintf(&b, "%s %s\n", BrightCyan(d.label+":"), values)
	}
	return b.String()
}

// renderTable is swapped in tests to exercise render failures.
var renderTable = func(t *pterm.TablePrinter) (string, error) {
	return t.Srender()
}

// RenderSummary draws the KPI table and both series as boxed bar tables.
func RenderSummary(s models.Summary) (string, error) {
	kpis, err := kpiTable(s.KPIs)
	if err != nil {
		return "", fmt.Errorf("render KPI table: %w", err)
	}
	products, err := productBars(s.SalesByProduct)
	if err != nil {
		return "", fmt.Errorf("render product bars: %w", err)
	}
	hours, err := hourBars(s.SalesByHour)
	if err != nil {
		return "", fmt.Errorf("render hour bars: %w", err)
	}
	return strings.Join([]string{kpis, products, hours}, "\n"), nil
}

func kpiTable(k models.KPISet) (string, error) {
	data := pterm.TableData{
		{"Total Sales", "Average Rating", "Average Sale Per Transaction", "Transactions"},
		{format.TotalSales(k.TotalSales), format.Rating(k), format.AverageTransaction(k), fmt.Sprintf("%d", k.Transactions)},
	}

	return renderTable(pterm.DefaultTable.
		WithHasHeader().
		WithBoxed().
		WithHeaderStyle(pterm.NewStyle(pterm.FgLightCyan)).
		WithData(data))
}

// productBars lists the largest product line first.
func productBars(series []models.ProductSales) (string, error) {
	labels := make([]string, len(series))
	totals := make([]float64, len(series))
	for i, p := range series {
		j := len(series) - 1 - i
		labels[j] = p.ProductLine
		totals[j] = p.Total
	}
	return barPanel("Sales by Product Line", "Product line", labels, totals)
}

func hourBars(series []models.HourlySales) (string, error) {
	labels := make([]string, len(series))
	totals := make([]float64, len(series))
	for i, h := range series {
		labels[i] = fmt.Sprintf("%02d:00", h.Hour)
		totals[i] = h.Total
	}
	return barPanel("Sales by Hour", "Hour", labels, totals)
}

func barPanel(title, column string, labels []string, totals []float64) (string, error) {
	box := pterm.DefaultBox.WithTitle(title).WithBoxStyle(pterm.NewStyle(pterm.FgCyan))
	if len(totals) == 0 {
		return box.Sprint(noData), nil
	}

	peak := 0.0
	for _, t := range totals {
		peak = max(peak, t)
	}

	data := pterm.TableData{{column, "Sales", ""}}
	for i, t := range totals {
		length := 0
		if peak > 0 {
			length = int(t / peak * barWidth)
		}
		data = append(data, []string{
			labels[i],
			format.Amount(t),
			pterm.FgBlue.Sprint(strings.Repeat("█", length)),
		})
	}

	rendered, err := renderTable(pterm.DefaultTable.WithHasHeader().WithData(data))
	if err != nil {
		return "", err
	}
	return box.Sprint(rendered), nil
}
