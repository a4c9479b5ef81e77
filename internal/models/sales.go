package models

import "time"

type SalesRecord struct {
	InvoiceID      string  `json:"invoice_id"`
	Branch         string  `json:"branch"`
	City           string  `json:"city"`
	CustomerType   string  `json:"customer_type"`
	Gender         string  `json:"gender"`
	ProductLine    string  `json:"product_line"`
	UnitPrice      float64 `json:"unit_price"`
	Quantity       int     `json:"quantity"`
	Tax            float64 `json:"tax"`
	Total          float64 `json:"total"`
	Date           string  `json:"date"`
	Time           string  `json:"time"`
	Payment        string  `json:"payment"`
	COGS           float64 `json:"cogs"`
	GrossMarginPct float64 `json:"gross_margin_pct"`
	GrossIncome    float64 `json:"gross_income"`
	Rating         float64 `json:"rating"`

	// Hour is derived from Time once at load.
	Hour int `json:"hour"`
}

// Table is the loaded dataset. Records keep workbook order and are never
// mutated after load.
type Table struct {
	Records  []SalesRecord
	Source   string
	Sheet    string
	LoadedAt time.Time
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// FilterSelection holds the allowed values per dimension. An empty set
// matches no record.
type FilterSelection struct {
	City         []string `json:"city"`
	CustomerType []string `json:"customer_type"`
	Gender       []string `json:"gender"`
}

type DimensionOptions struct {
	City         []string `json:"city"`
	CustomerType []string `json:"customer_type"`
	Gender       []string `json:"gender"`
}

// KPISet holds the headline figures. AverageRating and AverageTransaction
// are nil when no record matched.
type KPISet struct {
	TotalSales         float64  `json:"total_sales"`
	AverageRating      *float64 `json:"average_rating"`
	AverageTransaction *float64 `json:"average_transaction"`
	StarCount          int      `json:"star_count"`
	Transactions       int      `json:"transactions"`
}

type ProductSales struct {
	ProductLine string  `json:"product_line"`
	Total       float64 `json:"total"`
}

type HourlySales struct {
	Hour  int     `json:"hour"`
	Total float64 `json:"total"`
}

type Summary struct {
	Rows           []SalesRecord  `json:"-"`
	KPIs           KPISet         `json:"kpis"`
	SalesByProduct []ProductSales `json:"sales_by_product"`
	SalesByHour    []HourlySales  `json:"sales_by_hour"`
}
