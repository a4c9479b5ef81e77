// Package format renders KPI values for display.
package format

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"sales-dashboard/internal/models"
)

const (
	StarGlyph  = "⭐"
	EmptyValue = "n/a"
)

var printer = message.NewPrinter(language.English)

// TotalSales truncates to whole currency units with digit grouping,
// e.g. "$ 322,966".
func TotalSales(total float64) string {
	return "$ " + printer.Sprintf("%d", int64(total))
}

// Rating renders the average rating followed by its star glyphs.
func Rating(k models.KPISet) string {
	if k.AverageRating == nil {
		return EmptyValue
	}
	if k.StarCount == 0 {
		return fmt.Sprintf("%.1f", *k.AverageRating)
	}
	return fmt.Sprintf("%.1f %s", *k.AverageRating, strings.Repeat(StarGlyph, k.StarCount))
}

func AverageTransaction(k models.KPISet) string {
	if k.AverageTransaction == nil {
		return EmptyValue
	}
	return printer.Sprintf("$ %.2f", *k.AverageTransaction)
}

func Amount(v float64) string {
	return printer.Sprintf("%.2f", v)
}

// RatingPlain is Rating without glyphs, for outputs whose fonts lack them.
func RatingPlain(k models.KPISet) string {
	if k.AverageRating == nil {
		return EmptyValue
	}
	return fmt.Sprintf("%.1f (%d stars)", *k.AverageRating, k.StarCount)
}
