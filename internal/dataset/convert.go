package dataset

// convert.go coerces raw cell text into typed Record fields.
//
// Prices tolerate currency symbols, thousands separators and accounting
// negatives before the non-negative check. Deviations are parsed as a plain
// number first and retried with a trailing '%' removed. Dates that do not
// match DD-MM-YYYY become the missing-date marker.

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)

var currencyStripper = strings.NewReplacer(
	"$", "",
	"€", "", // Euro
	"£", "", // Pound
	"₹", "", // Rupee
	",", "",
)

// ParsePrice converts a price cell into a non-negative decimal.
func ParsePrice(s string) (decimal.Decimal, error) {
	raw := s
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty price", ErrInvalidValue)
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	s = strings.TrimSpace(currencyStripper.Replace(s))
	if negative {
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		return decimal.Zero, fmt.Errorf("%w: price %q", ErrInvalidValue, raw)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: price %q: %v", ErrInvalidValue, raw, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: negative price %q", ErrInvalidValue, raw)
	}
	return d, nil
}

// ParsePercent converts a deviation cell into percentage points.
// "12.5" and "12.5%" both yield 12.5.
func ParsePercent(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty percentage", ErrInvalidValue)
	}
	if v, ok := parseFinite(s); ok {
		return v, nil
	}

	trimmed, ok := strings.CutSuffix(s, "%")
	if ok {
		if v, ok := parseFinite(strings.TrimSpace(trimmed)); ok {
			return v, nil
		}
	}
	return 0, fmt.Errorf("%w: percentage %q", ErrInvalidValue, s)
}

// parseFinite accepts decimal notation only: no NaN, infinities or hex floats.
func parseFinite(s string) (float64, bool) {
	if strings.ContainsAny(s, "xX") {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ParseDate parses a DD-MM-YYYY cell. Anything else yields the missing-date
// marker rather than an error.
func ParseDate(s string) Date {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}
	}
	t, err := time.Parse(dateParseLayout, s)
	if err != nil {
		return Date{}
	}
	return Date{Time: t, Valid: true}
}

// parseRecord builds a Record from one data row.
func parseRecord(row []string, idx HeaderIndex) (Record, error) {
	rec := Record{
		MaterialName:           idx.Cell(row, ColMaterialName),
		MaterialType:           idx.Cell(row, ColMaterialType),
		Specification:          idx.Cell(row, ColSpecification),
		MaterialGrade:          idx.Cell(row, ColMaterialGrade),
		VendorName:             idx.Cell(row, ColVendorName),
		Currency:               idx.Cell(row, ColCurrency),
		PriceTier:              idx.Cell(row, ColPriceTier),
		GMPCompliance:          idx.Cell(row, ColGMPCompliance),
		SupplierPortalName:     idx.Cell(row, ColSupplierPortalName),
		PortalLink:             idx.Cell(row, ColPortalLink),
		PortalValidationStatus: idx.Cell(row, ColPortalValidationStatus),
		PriceSourceTimestamp:   ParseDate(idx.Cell(row, ColPriceSourceTimestamp)),
	}

	var err error
	if rec.UnitPriceLatest, err = ParsePrice(idx.Cell(row, ColUnitPriceLatest)); err != nil {
		return Record{}, &cellError{column: ColUnitPriceLatest, err: err}
	}
	if rec.BenchmarkPrice, err = ParsePrice(idx.Cell(row, ColBenchmarkPrice)); err != nil {
		return Record{}, &cellError{column: ColBenchmarkPrice, err: err}
	}
	if rec.PriceDeviation, err = ParsePercent(idx.Cell(row, ColPriceDeviation)); err != nil {
		return Record{}, &cellError{column: ColPriceDeviation, err: err}
	}
	return rec, nil
}
