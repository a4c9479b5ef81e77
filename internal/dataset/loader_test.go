package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/xuri/excelize/v2"
)

var header = []any{
	"Invoice ID", "Branch", "City", "Customer_type", "Gender", "Product line",
	"Unit price", "Quantity", "Tax 5%", "Total", "Date", "Time", "Payment",
	"cogs", "gross margin percentage", "gross income", "Rating",
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func row(id, city, customerType, gender, product, at string, total, rating float64) []any {
	return []any{
		id, "A", city, customerType, gender, product,
		total / 2, 2, total * 0.05, total, "1/5/2019", at, "Cash",
		total * 0.95, 4.761904762, total * 0.05, rating,
	}
}

func writeWorkbook(t *testing.T, sheet string, hdr []any, rows [][]any) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(sheet); err != nil {
		t.Fatal(err)
	}
	if err := f.SetCellValue(sheet, "B1", "Supermarket sales"); err != nil {
		t.Fatal(err)
	}
	if err := f.SetSheetRow(sheet, "B4", &hdr); err != nil {
		t.Fatal(err)
	}
	for i := range rows {
		if len(rows[i]) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(FirstColumn, SkipRows+2+i)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			t.Fatal(err)
		}
	}

	path := filepath.Join(t.TempDir(), "sales_data.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoader_Load(t *testing.T) {
	path := writeWorkbook(t, SheetName, header, [][]any{
		row("750-67-8428", "Yangon", "Member", "Female", "Health and beauty", "13:08:00", 548.9715, 9.1),
		row("226-31-3081", "Naypyitaw", "Normal", "Female", "Electronic accessories", "10:29:00", 80.22, 9.6),
		row("631-41-3108", "Yangon", "Normal", "Male", "Home and lifestyle", "09:05:00", 340.5255, 7.4),
	})

	l := NewLoader(path, testLogger())
	table, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if table.Len() != 3 {
		t.Fatalf("expected 3 records, got %d", table.Len())
	}
	if table.Sheet != SheetName {
		t.Errorf("expected sheet %q, got %q", SheetName, table.Sheet)
	}

	first := table.Records[0]
	if first.InvoiceID != "750-67-8428" {
		t.Errorf("expected invoice 750-67-8428, got %q", first.InvoiceID)
	}
	if first.City != "Yangon" || first.CustomerType != "Member" || first.Gender != "Female" {
		t.Errorf("unexpected dimensions: %+v", first)
	}
	if first.ProductLine != "Health and beauty" {
		t.Errorf("expected product line Health and beauty, got %q", first.ProductLine)
	}
	if first.Total != 548.9715 {
		t.Errorf("expected total 548.9715, got %v", first.Total)
	}
	if first.Rating != 9.1 {
		t.Errorf("expected rating 9.1, got %v", first.Rating)
	}
	if first.Quantity != 2 {
		t.Errorf("expected quantity 2, got %d", first.Quantity)
	}

	wantHours := []int{13, 10, 9}
	for i, want := range wantHours {
		if got := table.Records[i].Hour; got != want {
			t.Errorf("record %d: expected hour %d, got %d", i, want, got)
		}
	}
}

func TestLoader_Memoized(t *testing.T) {
	path := writeWorkbook(t, SheetName, header, [][]any{
		row("1", "Yangon", "Member", "Female", "Sports and travel", "18:30:00", 100, 8),
	})

	l := NewLoader(path, testLogger())
	first, err := l.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	second, err := l.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if first != second {
		t.Error("expected the same table on repeated loads")
	}
	if l.Reads() != 1 {
		t.Errorf("expected 1 read, got %d", l.Reads())
	}
	if second.Records[0].Hour != 18 {
		t.Errorf("expected hour 18, got %d", second.Records[0].Hour)
	}

	l.Reset()
	third, err := l.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if third == first {
		t.Error("expected a fresh table after Reset")
	}
	if l.Reads() != 2 {
		t.Errorf("expected 2 reads after Reset, got %d", l.Reads())
	}
	if third.Len() != first.Len() || third.Records[0].Hour != first.Records[0].Hour {
		t.Error("reloaded table differs from the first load")
	}
}

func TestLoader_ConcurrentLoadsReadOnce(t *testing.T) {
	path := writeWorkbook(t, SheetName, header, [][]any{
		row("1", "Mandalay", "Normal", "Male", "Food and beverages", "11:00:00", 42, 5),
	})

	l := NewLoader(path, testLogger())

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.Load(context.Background()); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if l.Reads() != 1 {
		t.Errorf("expected 1 read, got %d", l.Reads())
	}
}

func TestLoader_RowLimitAndBlankRows(t *testing.T) {
	rows := make([][]any, 0, MaxDataRows+5)
	for i := range MaxDataRows + 5 {
		rows = append(rows, row(fmt.Sprintf("inv-%d", i), "Yangon", "Member", "Male", "Fashion accessories", "12:00:00", 1, 5))
	}
	// a blank row inside the range is skipped rather than parsed
	rows[10] = []any{}

	path := writeWorkbook(t, SheetName, header, rows)

	table, err := NewLoader(path, testLogger()).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if table.Len() != MaxDataRows-1 {
		t.Errorf("expected %d records, got %d", MaxDataRows-1, table.Len())
	}
	if got := table.Records[table.Len()-1].InvoiceID; got != fmt.Sprintf("inv-%d", MaxDataRows-1) {
		t.Errorf("expected last record inv-%d, got %q", MaxDataRows-1, got)
	}
}

func TestLoader_ColumnWindow(t *testing.T) {
	// Rating moved to column S, which lies outside B..R
	hdr := append([]any{}, header[:16]...)
	hdr = append(hdr, "Unused", "Rating")

	r := row("1", "Yangon", "Member", "Female", "Electronic accessories", "10:00:00", 10, 7)
	r = append(r[:16], "x", 7)

	path := writeWorkbook(t, SheetName, hdr, [][]any{r})

	_, err := NewLoader(path, testLogger()).Load(context.Background())
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
}

func TestLoader_Errors(t *testing.T) {
	tests := []struct {
		name    string
		path    func(t *testing.T) string
		wantOp  string
		wantErr error
	}{
		{
			name:   "missing file",
			path:   func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.xlsx") },
			wantOp: "open",
		},
		{
			name: "missing sheet",
			path: func(t *testing.T) string {
				return writeWorkbook(t, "Other", header, [][]any{
					row("1", "Yangon", "Member", "Female", "Health and beauty", "10:00:00", 1, 1),
				})
			},
			wantOp:  "read",
			wantErr: ErrMissingSheet,
		},
		{
			name: "header only rows above",
			path: func(t *testing.T) string {
				f := excelize.NewFile()
				defer f.Close()
				if _, err := f.NewSheet(SheetName); err != nil {
					t.Fatal(err)
				}
				f.SetCellValue(SheetName, "B1", "title")
				path := filepath.Join(t.TempDir(), "short.xlsx")
				if err := f.SaveAs(path); err != nil {
					t.Fatal(err)
				}
				return path
			},
			wantOp:  "read",
			wantErr: ErrMissingHeader,
		},
		{
			name: "bad time format",
			path: func(t *testing.T) string {
				return writeWorkbook(t, SheetName, header, [][]any{
					row("1", "Yangon", "Member", "Female", "Health and beauty", "10:00:00", 1, 1),
					row("2", "Yangon", "Member", "Female", "Health and beauty", "10:00", 1, 1),
				})
			},
			wantOp:  "parse",
			wantErr: ErrTimeFormat,
		},
		{
			name: "hour out of range",
			path: func(t *testing.T) string {
				return writeWorkbook(t, SheetName, header, [][]any{
					row("1", "Yangon", "Member", "Female", "Health and beauty", "25:00:00", 1, 1),
				})
			},
			wantOp:  "parse",
			wantErr: ErrTimeFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader(tt.path(t), testLogger()).Load(context.Background())
			if err == nil {
				t.Fatal("expected error")
			}

			var le *LoadError
			if !errors.As(err, &le) {
				t.Fatalf("expected *LoadError, got %T: %v", err, err)
			}
			if le.Op != tt.wantOp {
				t.Errorf("expected op %q, got %q", tt.wantOp, le.Op)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v in chain, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoader_ParseErrorRow(t *testing.T) {
	path := writeWorkbook(t, SheetName, header, [][]any{
		row("1", "Yangon", "Member", "Female", "Health and beauty", "10:00:00", 1, 1),
		row("2", "Yangon", "Member", "Female", "Health and beauty", "noon", 1, 1),
	})

	l := NewLoader(path, testLogger())
	_, err := l.Load(context.Background())

	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if pe.Row != 6 {
		t.Errorf("expected worksheet row 6, got %d", pe.Row)
	}
	if pe.Column != "Time" || pe.Value != "noon" {
		t.Errorf("unexpected parse error: %+v", pe)
	}

	// failures are not cached
	if _, err := l.Load(context.Background()); err == nil {
		t.Error("expected second load to fail again")
	}
	if l.Reads() != 2 {
		t.Errorf("expected 2 reads, got %d", l.Reads())
	}
}
