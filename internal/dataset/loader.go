package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"supermarket-dashboard/internal/models"
)

const (
	batchSize  = 2000
	maxWorkers = 8
)

// Canonical column names.
const (
	ColumnCity        = "city"
	ColumnPayment     = "payment"
	ColumnProductLine = "product_line"
	ColumnGender      = "gender"
	ColumnDate        = "date"
	ColumnRevenue     = "revenue"
	ColumnRating      = "rating"
)

var requiredColumns = []string{
	ColumnCity, ColumnPayment, ColumnProductLine, ColumnGender,
	ColumnDate, ColumnRevenue, ColumnRating,
}

var (
	ErrMissingColumns = errors.New("missing required columns")
	ErrEmptySource    = errors.New("source has no data rows")
)

var dateLayouts = []string{"1/2/2006", models.DateLayout, "01/02/2006"}

// ColumnMap maps canonical column names to the labels used in the source file.
type ColumnMap map[string]string

// DefaultColumns matches the supermarket sales export.
func DefaultColumns() ColumnMap {
	return ColumnMap{
		ColumnCity:        "City",
		ColumnPayment:     "Payment",
		ColumnProductLine: "Product line",
		ColumnGender:      "Gender",
		ColumnDate:        "Date",
		ColumnRevenue:     "gross income",
		ColumnRating:      "Rating",
	}
}

type Options struct {
	Columns  ColumnMap
	CacheDir string
	Logger   *slog.Logger
}

func (o Options) withDefaults() Options {
	defaults := DefaultColumns()
	cols := make(ColumnMap, len(defaults))
	for k, v := range defaults {
		cols[k] = v
	}
	for k, v := range o.Columns {
		if v != "" {
			cols[k] = v
		}
	}
	o.Columns = cols
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Load reads the CSV at path once and returns the normalized dataset.
func Load(ctx context.Context, path string, opts Options) (*Dataset, error) {
	opts = opts.withDefaults()

	if opts.CacheDir != "" {
		if records, err := loadFromCache(opts.CacheDir, path, opts.Columns); err == nil {
			opts.Logger.Info("dataset loaded from cache", "records", len(records))
			return &Dataset{records: records, cities: citiesByFrequency(records)}, nil
		}
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	start := time.Now()
	records, err := Parse(ctx, file, opts.Columns)
	if err != nil {
		return nil, err
	}

	if opts.CacheDir != "" {
		if err := saveToCache(opts.CacheDir, path, opts.Columns, records); err != nil {
			opts.Logger.Warn("failed to save dataset cache", "error", err)
		}
	}

	opts.Logger.Info("dataset parsed",
		"filename", path,
		"records", len(records),
		"duration", time.Since(start),
	)

	return &Dataset{records: records, cities: citiesByFrequency(records)}, nil
}

// Parse decodes CSV from r, renaming columns through cols.
func Parse(ctx context.Context, r io.Reader, cols ColumnMap) ([]models.SaleRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptySource
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	index, err := resolveColumns(header, cols)
	if err != nil {
		return nil, err
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptySource
	}

	records := make([]models.SaleRecord, len(rows))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)

	for start := 0; start < len(rows); start += batchSize {
		end := min(start+batchSize, len(rows))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				rec, err := parseRecord(rows[i], index)
				if err != nil {
					// header is line 1
					return fmt.Errorf("line %d: %w", i+2, err)
				}
				records[i] = rec
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("parse rows: %w", err)
	}
	return records, nil
}

func resolveColumns(header []string, cols ColumnMap) (map[string]int, error) {
	positions := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		positions[strings.TrimSpace(h)] = i
	}

	index := make(map[string]int, len(requiredColumns))
	var missing []string
	for _, name := range requiredColumns {
		pos, ok := positions[cols[name]]
		if !ok {
			missing = append(missing, fmt.Sprintf("%s (%q)", name, cols[name]))
			continue
		}
		index[name] = pos
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return index, nil
}

func parseRecord(row []string, index map[string]int) (models.SaleRecord, error) {
	field := func(name string) string {
		pos := index[name]
		if pos >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[pos])
	}

	date, err := parseDate(field(ColumnDate))
	if err != nil {
		return models.SaleRecord{}, err
	}

	revenue, err := strconv.ParseFloat(field(ColumnRevenue), 64)
	if err != nil {
		return models.SaleRecord{}, fmt.Errorf("revenue: %w", err)
	}

	rating, err := strconv.ParseFloat(field(ColumnRating), 64)
	if err != nil {
		return models.SaleRecord{}, fmt.Errorf("rating: %w", err)
	}

	return models.SaleRecord{
		City:        field(ColumnCity),
		Payment:     field(ColumnPayment),
		ProductLine: field(ColumnProductLine),
		Gender:      field(ColumnGender),
		Date:        date,
		Revenue:     revenue,
		Rating:      rating,
	}, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("date: cannot parse %q", s)
}
