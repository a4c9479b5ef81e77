package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"sales-dashboard/internal/format"
	"sales-dashboard/internal/models"
)

const (
	pageMargin  = 15.0
	lineHeight  = 7.0
	labelWidth  = 70.0
	barMaxWidth = 90.0
)

// ReportMeta describes the context printed above the figures.
type ReportMeta struct {
	Title       string
	Source      string
	GeneratedAt time.Time
	Selection   models.FilterSelection
}

// WritePDF renders the KPIs and both chart series as an A4 report.
func WritePDF(w io.Writer, summary models.Summary, meta ReportMeta) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetTitle(meta.Title, true)
	pdf.SetCreator("sales-dashboard", true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, tr(meta.Title), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(90, 90, 90)
	if meta.Source != "" {
		pdf.CellFormat(0, 5, tr("Source: "+meta.Source), "", 1, "L", false, 0, "")
	}
	if !meta.GeneratedAt.IsZero() {
		pdf.CellFormat(0, 5, "Generated: "+meta.GeneratedAt.Format(time.RFC3339), "", 1, "L", false, 0, "")
	}
	writeSelection(pdf, tr, meta.Selection)
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)

	heading(pdf, "Key figures")
	k := summary.KPIs
	keyValue(pdf, tr, "Total Sales", format.TotalSales(k.TotalSales))
	keyValue(pdf, tr, "Average Rating", format.RatingPlain(k))
	keyValue(pdf, tr, "Average Sale Per Transaction", format.AverageTransaction(k))
	keyValue(pdf, tr, "Transactions", fmt.Sprintf("%d", k.Transactions))
	pdf.Ln(4)

	heading(pdf, "Sales by Product Line")
	if len(summary.SalesByProduct) == 0 {
		noData(pdf)
	} else {
		peak := 0.0
		for _, p := range summary.SalesByProduct {
			peak = max(peak, p.Total)
		}
		for i := len(summary.SalesByProduct) - 1; i >= 0; i-- {
			p := summary.SalesByProduct[i]
			bar(pdf, tr(p.ProductLine), p.Total, peak)
		}
	}
	pdf.Ln(4)

	heading(pdf, "Sales by Hour")
	if len(summary.SalesByHour) == 0 {
		noData(pdf)
	} else {
		peak := 0.0
		for _, h := range summary.SalesByHour {
			peak = max(peak, h.Total)
		}
		for _, h := range summary.SalesByHour {
			bar(pdf, fmt.Sprintf("%02d:00", h.Hour), h.Total, peak)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func writeSelection(pdf *gofpdf.Fpdf, tr func(string) string, sel models.FilterSelection) {
	lines := []struct {
		label  string
		values []string
	}{
		{"City", sel.City},
		{"Customer Type", sel.CustomerType},
		{"Gender", sel.Gender},
	}
	for _, l := range lines {
		values := "(none)"
		if len(l.values) > 0 {
			values = strings.Join(l.values, ", ")
		}
		pdf.CellFormat(0, 5, tr(l.label+": "+values), "", 1, "L", false, 0, "")
	}
}

func heading(pdf *gofpdf.Fpdf, text string) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 9, text, "B", 1, "L", false, 0, "")
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "", 10)
}

func keyValue(pdf *gofpdf.Fpdf, tr func(string) string, label, value string) {
	pdf.CellFormat(labelWidth, lineHeight, tr(label+":"), "", 0, "L", false, 0, "")
	pdf.CellFormat(0, lineHeight, tr(value), "", 1, "L", false, 0, "")
}

func bar(pdf *gofpdf.Fpdf, label string, total, peak float64) {
	pdf.CellFormat(labelWidth-20, lineHeight, label, "", 0, "L", false, 0, "")

	width := 0.0
	if peak > 0 {
		width = barMaxWidth * total / peak
	}
	x, y := pdf.GetXY()
	pdf.SetFillColor(0, 131, 184)
	pdf.Rect(x, y+1.5, width, lineHeight-3, "F")
	pdf.SetX(x + barMaxWidth + 2)
	pdf.CellFormat(0, lineHeight, format.Amount(total), "", 1, "R", false, 0, "")
}

func noData(pdf *gofpdf.Fpdf) {
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, lineHeight, "No sales match the current filters.", "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}
