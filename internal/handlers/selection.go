package handlers

import (
	"net/url"

	"sales-dashboard/internal/models"
)

// Query parameter names for the three filter dimensions.
const (
	paramCity         = "city"
	paramCustomerType = "customer_type"
	paramGender       = "gender"
)

// selectionFromQuery resolves a filter selection from repeated query
// parameters. An absent parameter selects every value in defaults; a
// parameter present with only empty values selects nothing.
func selectionFromQuery(q url.Values, defaults models.FilterSelection) models.FilterSelection {
	return models.FilterSelection{
		City:         dimension(q, paramCity, defaults.City),
		CustomerType: dimension(q, paramCustomerType, defaults.CustomerType),
		Gender:       dimension(q, paramGender, defaults.Gender),
	}
}

func dimension(q url.Values, key string, defaults []string) []string {
	raw, ok := q[key]
	if !ok {
		return defaults
	}
	values := make([]string, 0, len(raw))
	for _, v := range raw {
		if v != "" {
			values = append(values, v)
		}
	}
	return values
}

// orDefault resolves a signal value the same way: nil means the signal was
// never sent.
func orDefault(values *[]string, defaults []string) []string {
	if values == nil {
		return defaults
	}
	if *values == nil {
		return []string{}
	}
	return *values
}
