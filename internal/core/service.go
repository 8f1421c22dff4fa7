package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/JonMunkholm/PharmaDash/internal/analytics"
	"github.com/JonMunkholm/PharmaDash/internal/dataset"
	"github.com/JonMunkholm/PharmaDash/internal/filter"
)

// Row limits for the detailed table view.
const (
	MinRowLimit     = 5
	MaxRowLimit     = 100
	DefaultRowLimit = 20
)

var (
	ErrUnknownView       = errors.New("unknown view")
	ErrUnknownColumn     = errors.New("unknown column")
	ErrUnsupportedFormat = errors.New("unsupported export format")
)

// Export formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// ValidFormat reports whether format is an export format.
func ValidFormat(format string) bool {
	return format == FormatCSV || format == FormatXLSX
}

// Service answers every dashboard question from one immutable table.
// It is safe for concurrent use.
type Service struct {
	table   *dataset.Table
	options filter.Options
	exports *ExportLimiter
}

// Option configures a Service.
type Option func(*Service)

// WithExportLimit bounds concurrent exports. See NewExportLimiter.
func WithExportLimit(maxConcurrent int, maxWait time.Duration) Option {
	return func(s *Service) {
		s.exports = NewExportLimiter(maxConcurrent, maxWait)
	}
}

// NewService creates a Service over t. Options are derived once here.
func NewService(t *dataset.Table, opts ...Option) *Service {
	if t == nil {
		t = &dataset.Table{}
	}
	datasetRecords.Set(float64(t.Len()))

	s := &Service{
		table:   t,
		options: filter.BuildOptions(t),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.exports == nil {
		s.exports = NewExportLimiter(DefaultMaxConcurrentExports, DefaultExportWait)
	}
	return s
}

// Table returns the full unfiltered table.
func (s *Service) Table() *dataset.Table {
	return s.table
}

// Options returns the legal filter selections.
func (s *Service) Options() filter.Options {
	return s.options
}

// Selection is the outcome of applying a constraint set.
type Selection struct {
	Constraints filter.Constraints
	Rows        []dataset.Record
	// Unknown lists constrained values absent from the options, as
	// "param=value". They make the selection empty; they are not errors.
	Unknown []string
}

// Filter applies c to the full table.
func (s *Service) Filter(c filter.Constraints) Selection {
	rows := filter.Apply(s.table.Records, c)
	observeFilter(c, len(rows))
	return Selection{
		Constraints: c,
		Rows:        rows,
		Unknown:     c.Unknown(s.options),
	}
}

// Dashboard bundles every view for one constraint set.
type Dashboard struct {
	Selection        Selection                 `json:"-"`
	Metrics          analytics.Metrics         `json:"metrics"`
	PriceByType      []analytics.BoxStats      `json:"price_by_type"`
	PriceVsBenchmark []analytics.MaterialPrice `json:"price_vs_benchmark"`
	Deviation        []analytics.Point         `json:"deviation"`
	VendorOfferings  []analytics.Offering      `json:"vendor_offerings"`
	VendorPrices     []analytics.VendorPrice   `json:"vendor_prices"`
	VendorGMP        []analytics.Compliance    `json:"vendor_gmp"`
	Material         *analytics.Detail         `json:"material,omitempty"`
	TimeSeries       []analytics.TimePoint     `json:"time_series"`
	PriceByCurrency  []analytics.BoxStats      `json:"price_by_currency"`
	ValidationStatus []analytics.Count         `json:"validation_status"`
	Portals          []analytics.Count         `json:"portals"`
	Warnings         []string                  `json:"warnings,omitempty"`
}

// Dashboard computes every view for c. The material drill-down is only
// computed when material names a specific material; "" and All skip it.
func (s *Service) Dashboard(c filter.Constraints, material string) Dashboard {
	sel := s.Filter(c)
	rows := sel.Rows

	d := Dashboard{
		Selection:        sel,
		Metrics:          analytics.KeyMetrics(rows),
		PriceByType:      analytics.BoxByGroup(rows, dataset.ColMaterialType),
		PriceVsBenchmark: analytics.PriceVsBenchmark(rows),
		Deviation:        analytics.DeviationPoints(rows),
		VendorOfferings:  analytics.VendorOfferings(rows),
		VendorPrices:     analytics.VendorMeanPrice(rows),
		VendorGMP:        analytics.VendorGMPRatio(rows),
		TimeSeries:       analytics.TimeSeries(rows),
		PriceByCurrency:  analytics.BoxByGroup(rows, dataset.ColCurrency),
		ValidationStatus: analytics.ValueCounts(rows, dataset.ColPortalValidationStatus),
		Portals:          analytics.ValueCounts(rows, dataset.ColSupplierPortalName),
		Warnings:         sel.Warnings(),
	}
	if m := strings.TrimSpace(material); m != "" && m != filter.All {
		detail := analytics.MaterialDetail(rows, m)
		d.Material = &detail
	}
	return d
}

// RowsRequest selects the detailed table view.
type RowsRequest struct {
	Constraints filter.Constraints
	Columns     []string // Empty selects every column in export order
	Limit       int      // Clamped to [MinRowLimit, MaxRowLimit]; 0 means DefaultRowLimit
}

// RowsResult is a projected, truncated slice of the selection.
type RowsResult struct {
	Columns  []string   `json:"columns"`
	Rows     [][]string `json:"rows"`
	Total    int        `json:"total"`
	Limit    int        `json:"limit"`
	Warnings []string   `json:"warnings,omitempty"`
}

// Rows returns the first Limit matching records projected onto Columns.
func (s *Service) Rows(req RowsRequest) (RowsResult, error) {
	columns, err := resolveColumns(req.Columns)
	if err != nil {
		return RowsResult{}, err
	}
	limit := ClampLimit(req.Limit)

	sel := s.Filter(req.Constraints)
	n := min(limit, len(sel.Rows))

	out := make([][]string, n)
	for i, r := range sel.Rows[:n] {
		cells := make([]string, len(columns))
		for j, c := range columns {
			cells[j], _ = r.Field(c)
		}
		out[i] = cells
	}

	return RowsResult{
		Columns:  columns,
		Rows:     out,
		Total:    len(sel.Rows),
		Limit:    limit,
		Warnings: sel.Warnings(),
	}, nil
}

// ClampLimit maps a requested row count onto the allowed range.
func ClampLimit(n int) int {
	if n == 0 {
		return DefaultRowLimit
	}
	return max(MinRowLimit, min(n, MaxRowLimit))
}

// Export writes the rows matching c in the given format and returns the
// number of records written. Nothing is written to w when the format is
// unsupported or no export slot frees up before ctx ends.
func (s *Service) Export(ctx context.Context, w io.Writer, c filter.Constraints, format string) (int, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if !ValidFormat(format) {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	if err := s.exports.Acquire(ctx); err != nil {
		return 0, err
	}
	defer s.exports.Release()

	sel := s.Filter(c)
	var err error
	switch format {
	case FormatCSV:
		err = dataset.WriteCSV(w, sel.Rows)
	case FormatXLSX:
		err = dataset.WriteXLSX(w, sel.Rows)
	}
	if err != nil {
		return 0, fmt.Errorf("export %s: %w", format, err)
	}
	exportsTotal.WithLabelValues(format).Inc()
	return len(sel.Rows), nil
}

// ExportStatus reports export slot usage.
func (s *Service) ExportStatus() ExportLimiterStatus {
	return s.exports.Status()
}

// WaitForExports blocks until in-flight exports finish or ctx ends.
func (s *Service) WaitForExports(ctx context.Context) error {
	return s.exports.WaitForDrain(ctx)
}

// ExportFilename is the download name for an export format.
func ExportFilename(format string) string {
	return "filtered_pharma_data." + format
}

func resolveColumns(requested []string) ([]string, error) {
	if len(requested) == 0 {
		return dataset.Columns(), nil
	}

	out := make([]string, 0, len(requested))
	for _, name := range requested {
		spec, ok := dataset.Spec(strings.TrimSpace(name))
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
		}
		out = append(out, spec.Name)
	}
	return out, nil
}

// Warnings describes each unknown filter value for display.
func (sel Selection) Warnings() []string {
	if len(sel.Unknown) == 0 {
		return nil
	}
	out := make([]string, len(sel.Unknown))
	for i, u := range sel.Unknown {
		out[i] = "no records match " + u
	}
	return out
}
