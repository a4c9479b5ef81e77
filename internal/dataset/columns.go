package dataset

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"sales-dashboard/internal/models"
)

const timeLayout = "15:04:05"

const (
	colInvoiceID      = "Invoice ID"
	colBranch         = "Branch"
	colCity           = "City"
	colCustomerType   = "Customer_type"
	colGender         = "Gender"
	colProductLine    = "Product line"
	colUnitPrice      = "Unit price"
	colQuantity       = "Quantity"
	colTax            = "Tax 5%"
	colTotal          = "Total"
	colDate           = "Date"
	colTime           = "Time"
	colPayment        = "Payment"
	colCOGS           = "cogs"
	colGrossMarginPct = "gross margin percentage"
	colGrossIncome    = "gross income"
	colRating         = "Rating"
)

var requiredColumns = []string{
	colCity,
	colCustomerType,
	colGender,
	colProductLine,
	colTime,
	colTotal,
	colRating,
}

// columns maps header names to their index inside the B..R window.
type columns map[string]int

func newColumns(header []string) (columns, error) {
	cols := make(columns, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}

	var missing []string
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return cols, nil
}

func (c columns) text(cells []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[i])
}

func (c columns) float(cells []string, name string) (float64, error) {
	raw := c.text(cells, name)
	if raw == "" {
		if _, ok := c[name]; !ok {
			return 0, nil
		}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &ParseError{Column: name, Value: raw, Err: err}
	}
	return v, nil
}

func (c columns) integer(cells []string, name string) (int, error) {
	v, err := c.float(cells, name)
	if err != nil {
		return 0, err
	}
	return int(v), nil
}

// parse converts one data row. The returned error is a *ParseError without
// its Row set.
func (c columns) parse(cells []string) (models.SalesRecord, error) {
	rec := models.SalesRecord{
		InvoiceID:    c.text(cells, colInvoiceID),
		Branch:       c.text(cells, colBranch),
		City:         c.text(cells, colCity),
		CustomerType: c.text(cells, colCustomerType),
		Gender:       c.text(cells, colGender),
		ProductLine:  c.text(cells, colProductLine),
		Date:         c.text(cells, colDate),
		Time:         c.text(cells, colTime),
		Payment:      c.text(cells, colPayment),
	}

	ts, err := time.Parse(timeLayout, rec.Time)
	if err != nil {
		return rec, &ParseError{Column: colTime, Value: rec.Time, Err: ErrTimeFormat}
	}
	rec.Hour = ts.Hour()

	floats := []struct {
		name string
		dst  *float64
	}{
		{colUnitPrice, &rec.UnitPrice},
		{colTax, &rec.Tax},
		{colTotal, &rec.Total},
		{colCOGS, &rec.COGS},
		{colGrossMarginPct, &rec.GrossMarginPct},
		{colGrossIncome, &rec.GrossIncome},
		{colRating, &rec.Rating},
	}
	for _, f := range floats {
		if *f.dst, err = c.float(cells, f.name); err != nil {
			return rec, err
		}
	}

	if rec.Quantity, err = c.integer(cells, colQuantity); err != nil {
		return rec, err
	}
	return rec, nil
}

func isBlank(cells []string) bool {
	for _, cell := range cells {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
