package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"strings"
	"testing"
	"time"

	"sales-dashboard/internal/export"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/services"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testTable() *models.Table {
	return &models.Table{
		Source: "sales_data.xlsx",
		Sheet:  "Sales",
		Records: []models.SalesRecord{
			{InvoiceID: "1", City: "A", CustomerType: "Member", Gender: "Female", ProductLine: "X", Total: 100, Rating: 8, Time: "10:15:00", Hour: 10},
			{InvoiceID: "2", City: "A", CustomerType: "Member", Gender: "Female", ProductLine: "Y", Total: 50, Rating: 6, Time: "10:45:00", Hour: 10},
			{InvoiceID: "3", City: "B", CustomerType: "Member", Gender: "Female", ProductLine: "X", Total: 200, Rating: 10, Time: "14:00:00", Hour: 14},
		},
	}
}

func createTestAnalytics() *services.Analytics {
	a := services.NewAnalytics(nil)
	a.SetTable(testTable())
	return a
}

type failingSource struct{ err error }

func (f failingSource) Load(context.Context) (*models.Table, error) { return nil, f.err }

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Details string `json:"details"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
	return env
}

func TestSelectionFromQuery(t *testing.T) {
	defaults := models.FilterSelection{
		City:         []string{"A", "B"},
		CustomerType: []string{"Member", "Normal"},
		Gender:       []string{"Female", "Male"},
	}

	tests := []struct {
		name  string
		query string
		want  models.FilterSelection
	}{
		{"absent means all", "", defaults},
		{
			name:  "repeated values",
			query: "city=A&city=B&gender=Male",
			want:  models.FilterSelection{City: []string{"A", "B"}, CustomerType: defaults.CustomerType, Gender: []string{"Male"}},
		},
		{
			name:  "present but empty",
			query: "city=&customer_type=Member",
			want:  models.FilterSelection{City: []string{}, CustomerType: []string{"Member"}, Gender: defaults.Gender},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatal(err)
			}
			got := selectionFromQuery(q, defaults)
			if !slices.Equal(got.City, tt.want.City) || !slices.Equal(got.CustomerType, tt.want.CustomerType) || !slices.Equal(got.Gender, tt.want.Gender) {
				t.Errorf("selectionFromQuery(%q) = %+v, want %+v", tt.query, got, tt.want)
			}
			if tt.want.City != nil && got.City == nil {
				t.Error("expected a non-nil city set")
			}
		})
	}
}

func TestAPIHandlers_HandleSummary(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger())

	tests := []struct {
		name         string
		query        string
		wantTotal    float64
		wantCount    int
		wantRating   *float64
		wantProducts int
		wantHours    int
	}{
		{"all", "", 350, 3, ptr(8.0), 2, 2},
		{"city A", "?city=A", 150, 2, ptr(7.0), 2, 1},
		{"empty city", "?city=", 0, 0, nil, 0, 0},
		{"unknown city", "?city=Z", 0, 0, nil, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/summary"+tt.query, nil)
			w := httptest.NewRecorder()
			handlers.HandleSummary(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected content-type 'application/json', got %q", ct)
			}

			env := decode(t, w)
			if !env.Success {
				t.Fatal("expected success=true in response")
			}

			var data struct {
				Summary models.Summary `json:"summary"`
			}
			if err := json.Unmarshal(env.Data, &data); err != nil {
				t.Fatal(err)
			}
			k := data.Summary.KPIs
			if k.TotalSales != tt.wantTotal || k.Transactions != tt.wantCount {
				t.Errorf("expected total %v over %d rows, got %v over %d", tt.wantTotal, tt.wantCount, k.TotalSales, k.Transactions)
			}
			switch {
			case tt.wantRating == nil && k.AverageRating != nil:
				t.Errorf("expected null rating, got %v", *k.AverageRating)
			case tt.wantRating != nil && (k.AverageRating == nil || *k.AverageRating != *tt.wantRating):
				t.Errorf("expected rating %v, got %v", *tt.wantRating, k.AverageRating)
			}
			if len(data.Summary.SalesByProduct) != tt.wantProducts || len(data.Summary.SalesByHour) != tt.wantHours {
				t.Errorf("unexpected series lengths %d/%d", len(data.Summary.SalesByProduct), len(data.Summary.SalesByHour))
			}
		})
	}
}

func ptr(v float64) *float64 { return &v }

func TestAPIHandlers_HandleOptions(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger())

	w := httptest.NewRecorder()
	handlers.HandleOptions(w, httptest.NewRequest(http.MethodGet, "/api/options", nil))

	if cc := w.Header().Get("Cache-Control"); cc != "public, max-age=300" {
		t.Errorf("expected cache-control 'public, max-age=300', got %q", cc)
	}

	var opts models.DimensionOptions
	if err := json.Unmarshal(decode(t, w).Data, &opts); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(opts.City, []string{"A", "B"}) {
		t.Errorf("expected cities [A B], got %v", opts.City)
	}
	if !slices.Equal(opts.Gender, []string{"Female"}) {
		t.Errorf("expected genders [Female], got %v", opts.Gender)
	}
}

func TestAPIHandlers_HandleRecords(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger())

	w := httptest.NewRecorder()
	handlers.HandleRecords(w, httptest.NewRequest(http.MethodGet, "/api/records?city=B", nil))

	var data struct {
		Count   int                  `json:"count"`
		Records []models.SalesRecord `json:"records"`
	}
	if err := json.Unmarshal(decode(t, w).Data, &data); err != nil {
		t.Fatal(err)
	}
	if data.Count != 1 || len(data.Records) != 1 || data.Records[0].InvoiceID != "3" {
		t.Errorf("expected only invoice 3, got %+v", data)
	}
}

func TestAPIHandlers_HandleExportCSV(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger())

	w := httptest.NewRecorder()
	handlers.HandleExportCSV(w, httptest.NewRequest(http.MethodGet, "/api/export.csv?city=A", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("expected csv content type, got %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, `filename="sales-`) {
		t.Errorf("unexpected content disposition %q", cd)
	}

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %d lines", len(lines))
	}
	if lines[0] != strings.Join(export.Columns, ",") {
		t.Errorf("unexpected header %q", lines[0])
	}
}

func TestAPIHandlers_HandleReportPDF(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger())

	w := httptest.NewRecorder()
	handlers.HandleReportPDF(w, httptest.NewRequest(http.MethodGet, "/api/report.pdf", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("expected application/pdf, got %q", ct)
	}
	if !strings.HasPrefix(w.Body.String(), "%PDF-") {
		t.Error("body is not a pdf document")
	}
}

func TestAPIHandlers_DataUnavailable(t *testing.T) {
	analytics := services.NewAnalytics(failingSource{err: errors.New("open sales_data.xlsx: no such file")})
	handlers := NewAPIHandlers(analytics, testLogger())

	routes := []struct {
		name   string
		handle http.HandlerFunc
	}{
		{"summary", handlers.HandleSummary},
		{"options", handlers.HandleOptions},
		{"records", handlers.HandleRecords},
		{"export", handlers.HandleExportCSV},
		{"report", handlers.HandleReportPDF},
		{"stats", handlers.HandleStats},
	}

	for _, rt := range routes {
		t.Run(rt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			rt.handle(w, httptest.NewRequest(http.MethodGet, "/", nil))

			if w.Code != http.StatusServiceUnavailable {
				t.Fatalf("expected status %d, got %d", http.StatusServiceUnavailable, w.Code)
			}
			env := decode(t, w)
			if env.Success || env.Error == nil {
				t.Fatal("expected an error response")
			}
			if env.Error.Code != "DATA_UNAVAILABLE" {
				t.Errorf("expected DATA_UNAVAILABLE, got %q", env.Error.Code)
			}
			if !strings.Contains(env.Error.Details, "no such file") {
				t.Errorf("expected load error in details, got %q", env.Error.Details)
			}
		})
	}
}

func TestAPIHandlers_HandleHealth(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger())

	w := httptest.NewRecorder()
	handlers.HandleHealth(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var data map[string]string
	if err := json.Unmarshal(decode(t, w).Data, &data); err != nil {
		t.Fatal(err)
	}
	if data["status"] != "healthy" {
		t.Errorf("expected status 'healthy', got %q", data["status"])
	}
	if _, err := time.Parse(time.RFC3339, data["timestamp"]); err != nil {
		t.Errorf("invalid timestamp format: %v", err)
	}
}

func TestAPIHandlers_HandleStats(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger())

	w := httptest.NewRecorder()
	handlers.HandleStats(w, httptest.NewRequest(http.MethodGet, "/admin/stats", nil))

	var stats map[string]any
	if err := json.Unmarshal(decode(t, w).Data, &stats); err != nil {
		t.Fatal(err)
	}
	if stats["record_count"] != float64(3) {
		t.Errorf("expected record_count 3, got %v", stats["record_count"])
	}
	if stats["cities"] != float64(2) || stats["product_lines"] != float64(2) {
		t.Errorf("unexpected stats %v", stats)
	}
}
