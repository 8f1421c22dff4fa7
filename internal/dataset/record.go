// Package dataset loads the material pricing file into an immutable, ordered
// Table of typed Records and serializes Records back out.
package dataset

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GMP compliance flag values.
const (
	GMPYes = "Yes"
	GMPNo  = "No"
)

// DateLayout is the day-month-year pattern used by Price_Source_Timestamp.
// Single-digit days and months are accepted on input.
const DateLayout = "02-01-2006"

const dateParseLayout = "2-1-2006"

// Date is a calendar date with an explicit validity flag.
// The zero value (Valid == false) is the missing-date marker.
type Date struct {
	Time  time.Time
	Valid bool
}

// NewDate returns a valid Date for the given calendar day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC), Valid: true}
}

// String formats the date as DD-MM-YYYY, or "" for the missing marker.
func (d Date) String() string {
	if !d.Valid {
		return ""
	}
	return d.Time.Format(DateLayout)
}

// MarshalJSON encodes a valid date as "YYYY-MM-DD" and the marker as null.
func (d Date) MarshalJSON() ([]byte, error) {
	if !d.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(d.Time.Format(time.DateOnly))
}

// Record is one row of the pricing table.
type Record struct {
	MaterialName           string          `json:"material_name"`
	MaterialType           string          `json:"material_type"`
	Specification          string          `json:"specification"`
	MaterialGrade          string          `json:"material_grade"`
	VendorName             string          `json:"vendor_name"`
	UnitPriceLatest        decimal.Decimal `json:"unit_price_latest"`
	BenchmarkPrice         decimal.Decimal `json:"benchmark_price"`
	PriceDeviation         float64         `json:"price_deviation_percent"`
	Currency               string          `json:"currency"`
	PriceTier              string          `json:"price_tier"`
	GMPCompliance          string          `json:"gmp_compliance"`
	SupplierPortalName     string          `json:"supplier_portal_name"`
	PortalLink             string          `json:"portal_link"`
	PortalValidationStatus string          `json:"portal_validation_status"`
	PriceSourceTimestamp   Date            `json:"price_source_timestamp"`
}

// Field returns the string form of a column by header name.
// Unknown names return "", false.
func (r Record) Field(column string) (string, bool) {
	switch column {
	case ColMaterialName:
		return r.MaterialName, true
	case ColMaterialType:
		return r.MaterialType, true
	case ColSpecification:
		return r.Specification, true
	case ColMaterialGrade:
		return r.MaterialGrade, true
	case ColVendorName:
		return r.VendorName, true
	case ColUnitPriceLatest:
		return r.UnitPriceLatest.String(), true
	case ColBenchmarkPrice:
		return r.BenchmarkPrice.String(), true
	case ColPriceDeviation:
		return strconv.FormatFloat(r.PriceDeviation, 'f', -1, 64), true
	case ColCurrency:
		return r.Currency, true
	case ColPriceTier:
		return r.PriceTier, true
	case ColGMPCompliance:
		return r.GMPCompliance, true
	case ColSupplierPortalName:
		return r.SupplierPortalName, true
	case ColPortalLink:
		return r.PortalLink, true
	case ColPortalValidationStatus:
		return r.PortalValidationStatus, true
	case ColPriceSourceTimestamp:
		return r.PriceSourceTimestamp.String(), true
	}
	return "", false
}

// Values returns every column in export order.
func (r Record) Values() []string {
	out := make([]string, len(FieldSpecs))
	for i, spec := range FieldSpecs {
		out[i], _ = r.Field(spec.Name)
	}
	return out
}

// Table is the ordered collection of Records from one load.
// It is never mutated after Read returns.
type Table struct {
	ID       uuid.UUID
	Source   string
	LoadedAt time.Time
	Bytes    int64 // Size of the cleaned source
	Records  []Record
}

// Len returns the number of records.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// Distinct returns the distinct values of a column in first-appearance order.
func (t *Table) Distinct(column string) []string {
	if t == nil {
		return nil
	}
	return DistinctValues(t.Records, column)
}

// DistinctValues returns the distinct values of a column across rows,
// in first-appearance order.
func DistinctValues(rows []Record, column string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range rows {
		v, ok := r.Field(column)
		if !ok {
			return nil
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
