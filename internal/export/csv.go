// Package export writes the filtered sales rows and the dashboard summary
// to downloadable files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"sales-dashboard/internal/models"
)

// Columns is the CSV header, in workbook order with the derived hour last.
var Columns = []string{
	"Invoice ID", "Branch", "City", "Customer_type", "Gender", "Product line",
	"Unit price", "Quantity", "Tax 5%", "Total", "Date", "Time", "Payment",
	"cogs", "gross margin percentage", "gross income", "Rating", "Hour",
}

// Frame builds a dataframe with one column per record field.
func Frame(records []models.SalesRecord) dataframe.DataFrame {
	n := len(records)
	var (
		invoice, branch, city, customerType = make([]string, n), make([]string, n), make([]string, n), make([]string, n)
		gender, product, date, at, payment  = make([]string, n), make([]string, n), make([]string, n), make([]string, n), make([]string, n)
		unitPrice, tax, total, cogs         = make([]float64, n), make([]float64, n), make([]float64, n), make([]float64, n)
		margin, income, rating              = make([]float64, n), make([]float64, n), make([]float64, n)
		quantity, hour                      = make([]int, n), make([]int, n)
	)

	for i, r := range records {
		invoice[i], branch[i], city[i], customerType[i] = r.InvoiceID, r.Branch, r.City, r.CustomerType
		gender[i], product[i], date[i], at[i], payment[i] = r.Gender, r.ProductLine, r.Date, r.Time, r.Payment
		unitPrice[i], tax[i], total[i], cogs[i] = r.UnitPrice, r.Tax, r.Total, r.COGS
		margin[i], income[i], rating[i] = r.GrossMarginPct, r.GrossIncome, r.Rating
		quantity[i], hour[i] = r.Quantity, r.Hour
	}

	return dataframe.New(
		series.New(invoice, series.String, Columns[0]),
		series.New(branch, series.String, Columns[1]),
		series.New(city, series.String, Columns[2]),
		series.New(customerType, series.String, Columns[3]),
		series.New(gender, series.String, Columns[4]),
		series.New(product, series.String, Columns[5]),
		series.New(unitPrice, series.Float, Columns[6]),
		series.New(quantity, series.Int, Columns[7]),
		series.New(tax, series.Float, Columns[8]),
		series.New(total, series.Float, Columns[9]),
		series.New(date, series.String, Columns[10]),
		series.New(at, series.String, Columns[11]),
		series.New(payment, series.String, Columns[12]),
		series.New(cogs, series.Float, Columns[13]),
		series.New(margin, series.Float, Columns[14]),
		series.New(income, series.Float, Columns[15]),
		series.New(rating, series.Float, Columns[16]),
		series.New(hour, series.Int, Columns[17]),
	)
}

// WriteCSV writes the records with a header row. An empty slice still
// produces the header.
func WriteCSV(w io.Writer, records []models.SalesRecord) error {
	if len(records) == 0 {
		cw := csv.NewWriter(w)
		if err := cw.Write(Columns); err != nil {
			return fmt.Errorf("write csv header: %w", err)
		}
		cw.Flush()
		return cw.Error()
	}

	df := Frame(records)
	if df.Err != nil {
		return fmt.Errorf("build sales frame: %w", df.Err)
	}
	if err := df.WriteCSV(w); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}
