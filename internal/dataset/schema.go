package dataset

import (
	"fmt"
	"strings"
)

// Source file headers. Names are fixed and matched case-insensitively.
const (
	ColMaterialName           = "Material_Name"
	ColMaterialType           = "Material_Type"
	ColSpecification          = "Specification"
	ColMaterialGrade          = "Material_Grade"
	ColVendorName             = "Vendor_Name"
	ColUnitPriceLatest        = "Unit_Price_Latest"
	ColBenchmarkPrice         = "Benchmark_Price"
	ColPriceDeviation         = "Price_Deviation (%)"
	ColCurrency               = "Currency"
	ColPriceTier              = "Price_Tier"
	ColGMPCompliance          = "GMP_Compliance"
	ColSupplierPortalName     = "Supplier_Portal_Name"
	ColPortalLink             = "Portal_Link"
	ColPortalValidationStatus = "Portal_Validation_Status"
	ColPriceSourceTimestamp   = "Price_Source_Timestamp"
)

// FieldType represents how a column is coerced during load.
type FieldType int

const (
	FieldText FieldType = iota
	FieldEnum
	FieldDate
	FieldPrice
	FieldPercent
)

// FieldSpec describes a single source column.
type FieldSpec struct {
	Name       string    // Header name (matched case-insensitively)
	Type       FieldType // Coercion applied at load
	Required   bool      // Header must be present
	EnumValues []string  // Known values for FieldEnum; informational, not enforced
}

// FieldSpecs lists every column in export order.
var FieldSpecs = []FieldSpec{
	{Name: ColMaterialName, Type: FieldText, Required: true},
	{Name: ColMaterialType, Type: FieldText, Required: true},
	{Name: ColSpecification, Type: FieldText, Required: true},
	{Name: ColMaterialGrade, Type: FieldText, Required: true},
	{Name: ColVendorName, Type: FieldText, Required: true},
	{Name: ColUnitPriceLatest, Type: FieldPrice, Required: true},
	{Name: ColBenchmarkPrice, Type: FieldPrice, Required: true},
	{Name: ColPriceDeviation, Type: FieldPercent, Required: true},
	{Name: ColCurrency, Type: FieldText, Required: true},
	{Name: ColPriceTier, Type: FieldText, Required: true},
	{Name: ColGMPCompliance, Type: FieldEnum, Required: true, EnumValues: []string{GMPYes, GMPNo}},
	{Name: ColSupplierPortalName, Type: FieldText, Required: true},
	{Name: ColPortalLink, Type: FieldText, Required: true},
	{Name: ColPortalValidationStatus, Type: FieldText, Required: true},
	{Name: ColPriceSourceTimestamp, Type: FieldDate, Required: true},
}

// Columns returns the header names in export order.
func Columns() []string {
	cols := make([]string, len(FieldSpecs))
	for i, spec := range FieldSpecs {
		cols[i] = spec.Name
	}
	return cols
}

// Spec returns the field spec for a header name.
func Spec(name string) (FieldSpec, bool) {
	for _, spec := range FieldSpecs {
		if strings.EqualFold(spec.Name, name) {
			return spec, true
		}
	}
	return FieldSpec{}, false
}

// HeaderIndex maps cleaned, lowercased header names to their position in a row.
type HeaderIndex map[string]int

// MakeHeaderIndex builds a HeaderIndex from a header row.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		key := strings.ToLower(CleanHeader(h))
		if _, dup := idx[key]; dup {
			continue
		}
		idx[key] = i
	}
	return idx
}

// Cell returns the whitespace-trimmed value for a column, or "" if the row
// is short. Quotes inside the value are kept.
func (idx HeaderIndex) Cell(row []string, name string) string {
	pos, ok := idx[strings.ToLower(name)]
	if !ok || pos >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[pos])
}

// ValidateHeaders checks that every required column is present.
func ValidateHeaders(header []string, specs []FieldSpec) (HeaderIndex, error) {
	idx := MakeHeaderIndex(header)

	var missing []string
	for _, spec := range specs {
		if !spec.Required {
			continue
		}
		if _, ok := idx[strings.ToLower(spec.Name)]; !ok {
			missing = append(missing, spec.Name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return idx, nil
}

// CleanHeader trims whitespace and strips spreadsheet artifacts such as an
// Excel formula prefix (="...") or surrounding quotes from a header name.
// Data cells never go through it.
func CleanHeader(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) && len(s) >= 3 {
		s = s[2 : len(s)-1]
	}
	return strings.TrimSpace(strings.Trim(s, `"`))
}
