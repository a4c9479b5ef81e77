package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"sales-dashboard/internal/models"
	"sales-dashboard/internal/observability"
)

// TableSource yields the loaded sales table. The dataset loader satisfies
// it and memoizes the read.
type TableSource interface {
	Load(ctx context.Context) (*models.Table, error)
}

type Analytics struct {
	mu     sync.RWMutex
	table  *models.Table
	source TableSource
	logger *slog.Logger
}

func NewAnalytics(source TableSource) *Analytics {
	return &Analytics{
		source: source,
		logger: slog.Default(),
	}
}

// SetTable pins a table, bypassing the source. Used by tests.
func (a *Analytics) SetTable(table *models.Table) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.table = table
}

func (a *Analytics) Table(ctx context.Context) (*models.Table, error) {
	a.mu.RLock()
	table := a.table
	a.mu.RUnlock()
	if table != nil {
		return table, nil
	}

	if a.source == nil {
		return nil, fmt.Errorf("no sales data source configured")
	}
	table, err := a.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load sales table: %w", err)
	}
	return table, nil
}

// Summary runs the filter and aggregation pipeline for one selection.
func (a *Analytics) Summary(ctx context.Context, selection models.FilterSelection) (models.Summary, error) {
	ctx, span := observability.StartSpan(ctx, "analytics.summary")
	defer span.Finish()

	table, err := a.Table(ctx)
	if err != nil {
		span.SetError(err)
		return models.Summary{}, err
	}

	summary := Aggregate(table, selection)

	span.SetTag("rows.total", strconv.Itoa(table.Len()))
	span.SetTag("rows.matched", strconv.Itoa(len(summary.Rows)))
	a.logger.DebugContext(ctx, "summary computed",
		"rows", table.Len(),
		"matched", len(summary.Rows),
		"products", len(summary.SalesByProduct),
		"hours", len(summary.SalesByHour),
	)
	return summary, nil
}

func (a *Analytics) Records(ctx context.Context, selection models.FilterSelection) ([]models.SalesRecord, error) {
	table, err := a.Table(ctx)
	if err != nil {
		return nil, err
	}
	return Filter(table.Records, selection), nil
}

func (a *Analytics) Options(ctx context.Context) (models.DimensionOptions, error) {
	table, err := a.Table(ctx)
	if err != nil {
		return models.DimensionOptions{}, err
	}
	return Options(table), nil
}

func (a *Analytics) DefaultSelection(ctx context.Context) (models.FilterSelection, error) {
	table, err := a.Table(ctx)
	if err != nil {
		return models.FilterSelection{}, err
	}
	return DefaultSelection(table), nil
}

// Stats is a small monitoring snapshot of the loaded table.
func (a *Analytics) Stats(ctx context.Context) (map[string]any, error) {
	table, err := a.Table(ctx)
	if err != nil {
		return nil, err
	}

	opts := Options(table)
	products := make(map[string]struct{})
	for _, rec := range table.Records {
		products[rec.ProductLine] = struct{}{}
	}

	return map[string]any{
		"record_count":   table.Len(),
		"source":         table.Source,
		"sheet":          table.Sheet,
		"loaded_at":      table.LoadedAt,
		"cities":         len(opts.City),
		"customer_types": len(opts.CustomerType),
		"genders":        len(opts.Gender),
		"product_lines":  len(products),
	}, nil
}
