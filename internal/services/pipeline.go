package services

import (
	"cmp"
	"math"
	"math/big"
	"slices"

	"github.com/shopspring/decimal"

	"sales-dashboard/internal/models"
)

const (
	ratingPlaces      = 1
	transactionPlaces = 2
)

// Aggregate filters the table by selection and computes the KPIs and both
// chart series from the matching rows. It never fails: an empty table or
// selection yields the empty KPI set and empty series.
func Aggregate(table *models.Table, selection models.FilterSelection) models.Summary {
	var records []models.SalesRecord
	if table != nil {
		records = table.Records
	}

	rows := Filter(records, selection)
	return models.Summary{
		Rows:           rows,
		KPIs:           ComputeKPIs(rows),
		SalesByProduct: SalesByProduct(rows),
		SalesByHour:    SalesByHour(rows),
	}
}

// Filter keeps the records whose city, customer type and gender are all
// members of the selection. An empty set for any dimension matches nothing.
func Filter(records []models.SalesRecord, selection models.FilterSelection) []models.SalesRecord {
	cities := toSet(selection.City)
	customerTypes := toSet(selection.CustomerType)
	genders := toSet(selection.Gender)

	rows := make([]models.SalesRecord, 0, len(records))
	if len(cities) == 0 || len(customerTypes) == 0 || len(genders) == 0 {
		return rows
	}

	for _, rec := range records {
		if matches(rec, cities, customerTypes, genders) {
			rows = append(rows, rec)
		}
	}
	return rows
}

// Matches reports whether a single record passes the selection.
func Matches(rec models.SalesRecord, selection models.FilterSelection) bool {
	return matches(rec, toSet(selection.City), toSet(selection.CustomerType), toSet(selection.Gender))
}

func matches(rec models.SalesRecord, cities, customerTypes, genders map[string]struct{}) bool {
	if _, ok := cities[rec.City]; !ok {
		return false
	}
	if _, ok := customerTypes[rec.CustomerType]; !ok {
		return false
	}
	_, ok := genders[rec.Gender]
	return ok
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// ComputeKPIs sums and averages the rows. Means are nil when rows is empty.
func ComputeKPIs(rows []models.SalesRecord) models.KPISet {
	kpis := models.KPISet{Transactions: len(rows)}
	if len(rows) == 0 {
		return kpis
	}

	var total, rating float64
	for _, rec := range rows {
		total += rec.Total
		rating += rec.Rating
	}
	n := float64(len(rows))

	avgRating := roundHalfEven(rating/n, ratingPlaces)
	avgTransaction := roundHalfEven(total/n, transactionPlaces)

	kpis.TotalSales = total
	kpis.AverageRating = &avgRating
	kpis.AverageTransaction = &avgTransaction
	kpis.StarCount = StarCount(kpis.AverageRating)
	return kpis
}

// StarCount is the number of rating glyphs to show: the rating rounded to
// the nearest integer, half to even. Nil or non-finite ratings give 0.
func StarCount(rating *float64) int {
	if rating == nil || math.IsNaN(*rating) || math.IsInf(*rating, 0) || *rating <= 0 {
		return 0
	}
	return int(math.RoundToEven(*rating))
}

// roundHalfEven rounds the exact binary value of v, so 7.35 (stored just
// below 7.35) gives 7.3 and only exactly representable halves go to even.
func roundHalfEven(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return exactDecimal(v).RoundBank(places).InexactFloat64()
}

// exactDecimal expands v digit for digit. A finite float64 is n/2^k, which
// equals n*5^k/10^k.
func exactDecimal(v float64) decimal.Decimal {
	r := new(big.Rat).SetFloat64(v)
	k := r.Denom().BitLen() - 1
	coef := new(big.Int).Exp(big.NewInt(5), big.NewInt(int64(k)), nil)
	coef.Mul(coef, r.Num())
	return decimal.NewFromBigInt(coef, int32(-k))
}

// SalesByProduct sums Total per product line, ordered ascending by the sum.
// Equal sums keep the order in which the product line first appeared.
func SalesByProduct(rows []models.SalesRecord) []models.ProductSales {
	index := make(map[string]int)
	series := make([]models.ProductSales, 0)

	for _, rec := range rows {
		i, ok := index[rec.ProductLine]
		if !ok {
			i = len(series)
			index[rec.ProductLine] = i
			series = append(series, models.ProductSales{ProductLine: rec.ProductLine})
		}
		series[i].Total += rec.Total
	}

	slices.SortStableFunc(series, func(a, b models.ProductSales) int {
		return cmp.Compare(a.Total, b.Total)
	})
	return series
}

// SalesByHour sums Total per derived hour, ordered by hour. Hours without
// rows are absent.
func SalesByHour(rows []models.SalesRecord) []models.HourlySales {
	groups := make(map[int]float64)
	for _, rec := range rows {
		groups[rec.Hour] += rec.Total
	}

	series := make([]models.HourlySales, 0, len(groups))
	for hour, total := range groups {
		series = append(series, models.HourlySales{Hour: hour, Total: total})
	}
	slices.SortFunc(series, func(a, b models.HourlySales) int {
		return cmp.Compare(a.Hour, b.Hour)
	})
	return series
}

// Options lists the distinct values of each filter dimension in the order
// they first appear in the table.
func Options(table *models.Table) models.DimensionOptions {
	opts := models.DimensionOptions{
		City:         []string{},
		CustomerType: []string{},
		Gender:       []string{},
	}
	if table == nil {
		return opts
	}

	seenCity := make(map[string]bool)
	seenType := make(map[string]bool)
	seenGender := make(map[string]bool)

	for _, rec := range table.Records {
		if !seenCity[rec.City] {
			seenCity[rec.City] = true
			opts.City = append(opts.City, rec.City)
		}
		if !seenType[rec.CustomerType] {
			seenType[rec.CustomerType] = true
			opts.CustomerType = append(opts.CustomerType, rec.CustomerType)
		}
		if !seenGender[rec.Gender] {
			seenGender[rec.Gender] = true
			opts.Gender = append(opts.Gender, rec.Gender)
		}
	}
	return opts
}

// DefaultSelection selects every observed value, which is what the
// dashboard starts with.
func DefaultSelection(table *models.Table) models.FilterSelection {
	opts := Options(table)
	return models.FilterSelection{
		City:         opts.City,
		CustomerType: opts.CustomerType,
		Gender:       opts.Gender,
	}
}
