package filter

import (
	"fmt"
	"slices"

	"github.com/JonMunkholm/PharmaDash/internal/dataset"
)

// Options holds the legal selections for each constraint, derived once from
// the full table. Narrowing one filter never narrows the choices of another.
type Options struct {
	MaterialTypes []string `json:"material_types"`
	Vendors       []string `json:"vendors"`
	GMP           []string `json:"gmp"`
	PriceTiers    []string `json:"price_tiers"`
	Currencies    []string `json:"currencies"`
	// Materials backs the material detail selector, not a constraint.
	Materials []string `json:"materials"`
}

// BuildOptions derives Options from the unfiltered table. GMP choices come
// from the column's known values rather than the data.
func BuildOptions(t *dataset.Table) Options {
	gmp := []string{dataset.GMPYes, dataset.GMPNo}
	if spec, ok := dataset.Spec(dataset.ColGMPCompliance); ok && len(spec.EnumValues) > 0 {
		gmp = slices.Clone(spec.EnumValues)
	}

	return Options{
		MaterialTypes: nonNil(t.Distinct(dataset.ColMaterialType)),
		Vendors:       nonNil(t.Distinct(dataset.ColVendorName)),
		GMP:           gmp,
		PriceTiers:    nonNil(t.Distinct(dataset.ColPriceTier)),
		Currencies:    nonNil(t.Distinct(dataset.ColCurrency)),
		Materials:     nonNil(t.Distinct(dataset.ColMaterialName)),
	}
}

// WithAll prefixes choices with All for select widgets.
func WithAll(choices []string) []string {
	out := make([]string, 0, len(choices)+1)
	out = append(out, All)
	return append(out, choices...)
}

// Unknown lists constrained values that are not legal selections, formatted
// as "param=value". Such constraints simply match nothing.
func (c Constraints) Unknown(o Options) []string {
	legal := map[string][]string{
		ParamMaterialType: o.MaterialTypes,
		ParamVendor:       o.Vendors,
		ParamGMP:          o.GMP,
		ParamPriceTier:    o.PriceTiers,
		ParamCurrency:     o.Currencies,
	}

	var unknown []string
	for _, f := range c.fields() {
		if !f.value.IsSet() {
			continue
		}
		if !slices.Contains(legal[f.param], f.value.Literal()) {
			unknown = append(unknown, fmt.Sprintf("%s=%s", f.param, f.value.Literal()))
		}
	}
	return unknown
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
