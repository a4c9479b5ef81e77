package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"sales-dashboard/internal/models"
)

func ptr(v float64) *float64 { return &v }

func records() []models.SalesRecord {
	return []models.SalesRecord{
		{InvoiceID: "750-67-8428", Branch: "A", City: "Yangon", CustomerType: "Member", Gender: "Female",
			ProductLine: "Health and beauty", UnitPrice: 74.69, Quantity: 7, Total: 548.9715,
			Date: "1/5/2019", Time: "13:08:00", Payment: "Ewallet", Rating: 9.1, Hour: 13},
		{InvoiceID: "226-31-3081", Branch: "C", City: "Naypyitaw", CustomerType: "Normal", Gender: "Female",
			ProductLine: "Electronic accessories", UnitPrice: 15.28, Quantity: 5, Total: 80.22,
			Date: "3/8/2019", Time: "10:29:00", Payment: "Cash", Rating: 9.6, Hour: 10},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, records()); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header and 2 rows, got %d", len(rows))
	}
	if strings.Join(rows[0], "|") != strings.Join(Columns, "|") {
		t.Errorf("unexpected header %v", rows[0])
	}

	first := rows[1]
	if first[0] != "750-67-8428" || first[2] != "Yangon" || first[11] != "13:08:00" {
		t.Errorf("unexpected first row %v", first)
	}
	if first[7] != "7" || first[17] != "13" {
		t.Errorf("expected quantity 7 and hour 13, got %q and %q", first[7], first[17])
	}
	if !strings.HasPrefix(first[9], "548.97") {
		t.Errorf("expected total 548.97..., got %q", first[9])
	}
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatal(err)
	}
	want := strings.Join(Columns, ",") + "\n"
	if buf.String() != want {
		t.Errorf("expected header only, got %q", buf.String())
	}
}

func TestWritePDF(t *testing.T) {
	tests := []struct {
		name    string
		summary models.Summary
	}{
		{
			name: "with data",
			summary: models.Summary{
				KPIs: models.KPISet{TotalSales: 629.19, AverageRating: ptr(9.4), AverageTransaction: ptr(314.6), StarCount: 9, Transactions: 2},
				SalesByProduct: []models.ProductSales{
					{ProductLine: "Electronic accessories", Total: 80.22},
					{ProductLine: "Health and beauty", Total: 548.9715},
				},
				SalesByHour: []models.HourlySales{{Hour: 10, Total: 80.22}, {Hour: 13, Total: 548.9715}},
			},
		},
		{name: "empty selection"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := WritePDF(&buf, tt.summary, ReportMeta{
				Title:       "Sales Dashboard",
				Source:      "sales_data.xlsx",
				GeneratedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
				Selection:   models.FilterSelection{City: []string{"Yangon"}},
			})
			if err != nil {
				t.Fatalf("WritePDF() error = %v", err)
			}
			if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
				t.Errorf("output does not look like a pdf: %q", buf.Bytes()[:min(16, buf.Len())])
			}
		})
	}
}
