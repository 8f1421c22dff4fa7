// Package filter narrows a pricing table by up to five categorical equality
// constraints combined with AND.
package filter

import (
	"net/url"
	"strings"

	"github.com/JonMunkholm/PharmaDash/internal/dataset"
)

// All is the selection that leaves a field unconstrained.
const All = "All"

// Query parameter names for each constraint.
const (
	ParamMaterialType = "material_type"
	ParamVendor       = "vendor"
	ParamGMP          = "gmp"
	ParamPriceTier    = "price_tier"
	ParamCurrency     = "currency"
)

// Value is a single optional equality predicate. The zero value matches
// everything.
type Value struct {
	literal string
	set     bool
}

// Eq returns a predicate matching exactly v.
func Eq(v string) Value {
	return Value{literal: v, set: true}
}

// Any returns the unconstrained predicate.
func Any() Value {
	return Value{}
}

// ParseValue maps a user selection to a predicate. "" and All are
// unconstrained.
func ParseValue(s string) Value {
	s = strings.TrimSpace(s)
	if s == "" || s == All {
		return Any()
	}
	return Eq(s)
}

// IsSet reports whether the predicate constrains anything.
func (v Value) IsSet() bool { return v.set }

// Literal returns the value being matched, or "" when unconstrained.
func (v Value) Literal() string { return v.literal }

// Match reports whether s satisfies the predicate.
func (v Value) Match(s string) bool {
	return !v.set || s == v.literal
}

// String returns the selection as shown to users.
func (v Value) String() string {
	if !v.set {
		return All
	}
	return v.literal
}

// Constraints is the set of predicates for one interaction.
type Constraints struct {
	MaterialType Value
	Vendor       Value
	GMP          Value
	PriceTier    Value
	Currency     Value
}

// FromQuery builds Constraints from request parameters.
func FromQuery(q url.Values) Constraints {
	return Constraints{
		MaterialType: ParseValue(q.Get(ParamMaterialType)),
		Vendor:       ParseValue(q.Get(ParamVendor)),
		GMP:          ParseValue(q.Get(ParamGMP)),
		PriceTier:    ParseValue(q.Get(ParamPriceTier)),
		Currency:     ParseValue(q.Get(ParamCurrency)),
	}
}

// Query encodes the constrained fields as request parameters.
func (c Constraints) Query() url.Values {
	q := url.Values{}
	for _, f := range c.fields() {
		if f.value.IsSet() {
			q.Set(f.param, f.value.Literal())
		}
	}
	return q
}

// IsZero reports whether no field is constrained.
func (c Constraints) IsZero() bool {
	for _, f := range c.fields() {
		if f.value.IsSet() {
			return false
		}
	}
	return true
}

// Match reports whether r satisfies every constrained field.
func (c Constraints) Match(r dataset.Record) bool {
	return c.MaterialType.Match(r.MaterialType) &&
		c.Vendor.Match(r.VendorName) &&
		c.GMP.Match(r.GMPCompliance) &&
		c.PriceTier.Match(r.PriceTier) &&
		c.Currency.Match(r.Currency)
}

// Apply returns the records matching c, in input order. The result is a new
// slice even when c is unconstrained; a miss yields an empty, non-nil slice.
func Apply(rows []dataset.Record, c Constraints) []dataset.Record {
	out := make([]dataset.Record, 0, len(rows))
	for _, r := range rows {
		if c.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

type field struct {
	param string
	value Value
}

func (c Constraints) fields() []field {
	return []field{
		{param: ParamMaterialType, value: c.MaterialType},
		{param: ParamVendor, value: c.Vendor},
		{param: ParamGMP, value: c.GMP},
		{param: ParamPriceTier, value: c.PriceTier},
		{param: ParamCurrency, value: c.Currency},
	}
}
