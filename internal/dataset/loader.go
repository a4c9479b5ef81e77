package dataset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"sales-dashboard/internal/models"
)

// Workbook layout. The source file's shape is fixed: sheet "Sales", three
// rows above the header, data in columns B..R, at most 1000 data rows.
const (
	SheetName   = "Sales"
	SkipRows    = 3
	FirstColumn = 2  // B
	LastColumn  = 18 // R
	MaxDataRows = 1000
)

const (
	batchSize  = 250
	maxWorkers = 4
)

type rawRow struct {
	number int
	cells  []string
}

// Loader reads the sales workbook once and hands out the same table on
// every later call until Reset is called.
type Loader struct {
	path   string
	logger *slog.Logger

	mu    sync.RWMutex
	table *models.Table
	group singleflight.Group
	reads atomic.Int64
}

func NewLoader(path string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		path:   path,
		logger: logger,
	}
}

func (l *Loader) Path() string {
	return l.path
}

// Load returns the cached table, reading the workbook on first use.
// Concurrent first calls share a single read. Failures are not cached.
func (l *Loader) Load(ctx context.Context) (*models.Table, error) {
	if t := l.cached(); t != nil {
		return t, nil
	}

	v, err, _ := l.group.Do(l.path, func() (any, error) {
		if t := l.cached(); t != nil {
			return t, nil
		}
		t, err := l.read(ctx)
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		l.table = t
		l.mu.Unlock()
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Table), nil
}

// Reset drops the cached table so the next Load reads the source again.
func (l *Loader) Reset() {
	l.mu.Lock()
	l.table = nil
	l.mu.Unlock()
}

// Reads reports how many times the workbook has actually been read.
func (l *Loader) Reads() int64 {
	return l.reads.Load()
}

func (l *Loader) cached() *models.Table {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.table
}

func (l *Loader) read(ctx context.Context) (*models.Table, error) {
	start := time.Now()
	l.reads.Add(1)
	l.logger.Info("reading sales workbook", "path", l.path, "sheet", SheetName)

	f, err := excelize.OpenFile(l.path)
	if err != nil {
		return nil, &LoadError{Op: "open", Path: l.path, Err: err}
	}
	defer f.Close()

	if idx, err := f.GetSheetIndex(SheetName); err != nil || idx < 0 {
		return nil, &LoadError{Op: "read", Path: l.path, Err: fmt.Errorf("%w: %q", ErrMissingSheet, SheetName)}
	}

	rows, err := f.GetRows(SheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &LoadError{Op: "read", Path: l.path, Err: err}
	}

	if len(rows) <= SkipRows {
		return nil, &LoadError{Op: "read", Path: l.path, Err: ErrMissingHeader}
	}

	cols, err := newColumns(window(rows[SkipRows]))
	if err != nil {
		return nil, &LoadError{Op: "read", Path: l.path, Err: err}
	}

	data := rows[SkipRows+1:]
	if len(data) > MaxDataRows {
		data = data[:MaxDataRows]
	}

	raw := make([]rawRow, 0, len(data))
	for i, row := range data {
		cells := window(row)
		if isBlank(cells) {
			continue
		}
		// worksheet rows are 1-based; header sits at SkipRows+1
		raw = append(raw, rawRow{number: SkipRows + 2 + i, cells: cells})
	}

	records, err := parseRows(ctx, cols, raw)
	if err != nil {
		return nil, &LoadError{Op: "parse", Path: l.path, Err: err}
	}

	duration := time.Since(start)
	l.logger.Info("sales workbook loaded",
		"records", len(records),
		"duration", duration,
	)

	return &models.Table{
		Records:  records,
		Source:   l.path,
		Sheet:    SheetName,
		LoadedAt: time.Now(),
	}, nil
}

func parseRows(ctx context.Context, cols columns, rows []rawRow) ([]models.SalesRecord, error) {
	records := make([]models.SalesRecord, len(rows))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)

	for start := 0; start < len(rows); start += batchSize {
		end := min(start+batchSize, len(rows))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				rec, err := cols.parse(rows[i].cells)
				if err != nil {
					var pe *ParseError
					if errors.As(err, &pe) {
						pe.Row = rows[i].number
					}
					return err
				}
				records[i] = rec
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}

// window cuts a worksheet row down to columns B..R.
func window(row []string) []string {
	lo, hi := FirstColumn-1, LastColumn
	if len(row) <= lo {
		return nil
	}
	if len(row) < hi {
		hi = len(row)
	}
	return row[lo:hi]
}
