package analytics

import (
	"cmp"
	"slices"

	"github.com/JonMunkholm/PharmaDash/internal/dataset"
)

// BoxStats is the five-number summary of unit prices in one group.
type BoxStats struct {
	Group  string  `json:"group"`
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
}

// Box summarizes values. Quartiles interpolate linearly between the closest
// ranks, matching the default used by most plotting libraries.
func Box(values []float64) BoxStats {
	b := BoxStats{Count: len(values)}
	if len(values) == 0 {
		return b
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	b.Min = sorted[0]
	b.Q1 = quantile(sorted, 0.25)
	b.Median = quantile(sorted, 0.5)
	b.Q3 = quantile(sorted, 0.75)
	b.Max = sorted[len(sorted)-1]
	return b
}

// BoxByGroup summarizes unit price per value of column. Groups keep the order
// in which their values first appear. Unknown columns yield nil.
func BoxByGroup(rows []dataset.Record, column string) []BoxStats {
	order := dataset.DistinctValues(rows, column)
	if order == nil {
		return nil
	}

	byGroup := make(map[string][]float64, len(order))
	for _, r := range rows {
		v, _ := r.Field(column)
		byGroup[v] = append(byGroup[v], r.UnitPriceLatest.InexactFloat64())
	}

	out := make([]BoxStats, 0, len(order))
	for _, g := range order {
		b := Box(byGroup[g])
		b.Group = g
		out = append(out, b)
	}
	return out
}

// SpecGrade aggregates one specification and grade combination of a material.
type SpecGrade struct {
	Specification string  `json:"specification"`
	Grade         string  `json:"grade"`
	AvgPrice      float64 `json:"avg_price"`
	VendorCount   int     `json:"vendor_count"`
}

// Detail is the drill-down for a single material.
type Detail struct {
	Material     string        `json:"material"`
	Box          BoxStats      `json:"box"`
	VendorPrices []VendorPrice `json:"vendor_prices"`
	SpecGrades   []SpecGrade   `json:"spec_grades"`
}

// MaterialDetail breaks down the rows for one material. VendorPrices has one
// entry per row in input order; SpecGrades is ordered by specification then
// grade. VendorCount is the number of vendor rows in the group, so a vendor
// listed twice counts twice.
func MaterialDetail(rows []dataset.Record, material string) Detail {
	d := Detail{
		Material:     material,
		VendorPrices: []VendorPrice{},
		SpecGrades:   []SpecGrade{},
	}

	type key struct{ spec, grade string }
	groups := make(map[key][]dataset.Record)
	var values []float64
	for _, r := range rows {
		if r.MaterialName != material {
			continue
		}
		p := r.UnitPriceLatest.InexactFloat64()
		values = append(values, p)
		d.VendorPrices = append(d.VendorPrices, VendorPrice{Vendor: r.VendorName, Price: p})
		k := key{r.Specification, r.MaterialGrade}
		groups[k] = append(groups[k], r)
	}

	d.Box = Box(values)
	d.Box.Group = material

	for k, g := range groups {
		d.SpecGrades = append(d.SpecGrades, SpecGrade{
			Specification: k.spec,
			Grade:         k.grade,
			AvgPrice:      mean(prices(g)),
			VendorCount:   len(g),
		})
	}
	slices.SortFunc(d.SpecGrades, func(a, b SpecGrade) int {
		return cmp.Or(cmp.Compare(a.Specification, b.Specification), cmp.Compare(a.Grade, b.Grade))
	})
	return d
}

// quantile expects sorted, non-empty input.
func quantile(sorted []float64, p float64) float64 {
	pos := p * float64(len(sorted)-1)
	lo := int(pos)
	if lo+1 >= len(sorted) {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}
