// Package analytics computes the aggregates behind each dashboard view from a
// filtered slice of records. Every function is pure and safe to call
// concurrently on shared input.
//
// Grouped results are ordered by group key (ascending) unless the function
// says otherwise; box plots keep first-appearance order of their categories.
package analytics

import (
	"cmp"
	"slices"
	"time"

	"github.com/JonMunkholm/PharmaDash/internal/dataset"
	"github.com/shopspring/decimal"
)

// Metrics are the headline numbers above the tabs.
type Metrics struct {
	Records      int     `json:"records"`
	Materials    int     `json:"materials"`
	AvgPrice     float64 `json:"avg_price"`
	AvgDeviation float64 `json:"avg_deviation"`
	GMPCompliant int     `json:"gmp_compliant"`
}

// KeyMetrics summarizes rows. Averages are zero for an empty slice.
func KeyMetrics(rows []dataset.Record) Metrics {
	m := Metrics{Records: len(rows)}
	if len(rows) == 0 {
		return m
	}

	materials := make(map[string]struct{})
	unit := make([]decimal.Decimal, 0, len(rows))
	var devSum float64
	for _, r := range rows {
		materials[r.MaterialName] = struct{}{}
		unit = append(unit, r.UnitPriceLatest)
		devSum += r.PriceDeviation
		if r.GMPCompliance == dataset.GMPYes {
			m.GMPCompliant++
		}
	}
	m.Materials = len(materials)
	m.AvgPrice = mean(unit)
	m.AvgDeviation = devSum / float64(len(rows))
	return m
}

// MaterialPrice compares the average latest price of a material to its
// average benchmark.
type MaterialPrice struct {
	Material     string  `json:"material"`
	AvgPrice     float64 `json:"avg_price"`
	AvgBenchmark float64 `json:"avg_benchmark"`
}

// PriceVsBenchmark averages price and benchmark per material.
func PriceVsBenchmark(rows []dataset.Record) []MaterialPrice {
	keys, groups := groupBy(rows, func(r dataset.Record) string { return r.MaterialName })

	out := make([]MaterialPrice, 0, len(keys))
	for _, k := range keys {
		g := groups[k]
		out = append(out, MaterialPrice{
			Material:     k,
			AvgPrice:     mean(prices(g)),
			AvgBenchmark: mean(benchmarks(g)),
		})
	}
	return out
}

// Point is one record on the price/deviation scatter.
type Point struct {
	Price        float64 `json:"price"`
	Deviation    float64 `json:"deviation"`
	MaterialType string  `json:"material_type"`
	Material     string  `json:"material"`
	Vendor       string  `json:"vendor"`
}

// DeviationPoints returns one point per record, in input order.
func DeviationPoints(rows []dataset.Record) []Point {
	out := make([]Point, len(rows))
	for i, r := range rows {
		out[i] = Point{
			Price:        r.UnitPriceLatest.InexactFloat64(),
			Deviation:    r.PriceDeviation,
			MaterialType: r.MaterialType,
			Material:     r.MaterialName,
			Vendor:       r.VendorName,
		}
	}
	return out
}

// Offering counts records per vendor and material type.
type Offering struct {
	Vendor       string `json:"vendor"`
	MaterialType string `json:"material_type"`
	Count        int    `json:"count"`
}

// VendorOfferings counts rows per (vendor, material type), ordered by vendor
// then material type.
func VendorOfferings(rows []dataset.Record) []Offering {
	type pair struct{ vendor, materialType string }
	counts := make(map[pair]int)
	for _, r := range rows {
		counts[pair{r.VendorName, r.MaterialType}]++
	}

	out := make([]Offering, 0, len(counts))
	for p, n := range counts {
		out = append(out, Offering{Vendor: p.vendor, MaterialType: p.materialType, Count: n})
	}
	slices.SortFunc(out, func(a, b Offering) int {
		return cmp.Or(cmp.Compare(a.Vendor, b.Vendor), cmp.Compare(a.MaterialType, b.MaterialType))
	})
	return out
}

// VendorPrice is a vendor's price, either a single record or an average.
type VendorPrice struct {
	Vendor string  `json:"vendor"`
	Price  float64 `json:"price"`
}

// VendorMeanPrice averages price per vendor, highest first. Ties keep vendor
// name order.
func VendorMeanPrice(rows []dataset.Record) []VendorPrice {
	keys, groups := groupBy(rows, func(r dataset.Record) string { return r.VendorName })

	out := make([]VendorPrice, 0, len(keys))
	for _, k := range keys {
		out = append(out, VendorPrice{Vendor: k, Price: mean(prices(groups[k]))})
	}
	slices.SortStableFunc(out, func(a, b VendorPrice) int {
		return cmp.Compare(b.Price, a.Price)
	})
	return out
}

// Compliance is the share of a vendor's records flagged GMP compliant.
type Compliance struct {
	Vendor    string  `json:"vendor"`
	Compliant int     `json:"compliant"`
	Total     int     `json:"total"`
	Percent   float64 `json:"percent"`
}

// VendorGMPRatio computes the GMP compliance percentage per vendor.
func VendorGMPRatio(rows []dataset.Record) []Compliance {
	keys, groups := groupBy(rows, func(r dataset.Record) string { return r.VendorName })

	out := make([]Compliance, 0, len(keys))
	for _, k := range keys {
		c := Compliance{Vendor: k, Total: len(groups[k])}
		for _, r := range groups[k] {
			if r.GMPCompliance == dataset.GMPYes {
				c.Compliant++
			}
		}
		c.Percent = float64(c.Compliant) / float64(c.Total) * 100
		out = append(out, c)
	}
	return out
}

// TimePoint aggregates the records sharing one source date.
type TimePoint struct {
	Date     time.Time `json:"date"`
	AvgPrice float64   `json:"avg_price"`
	Count    int       `json:"count"`
}

// TimeSeries averages price and counts records per valid date, oldest first.
// Records with the missing-date marker are left out; the result is empty when
// no record has a date.
func TimeSeries(rows []dataset.Record) []TimePoint {
	byDate := make(map[time.Time][]decimal.Decimal)
	for _, r := range rows {
		if !r.PriceSourceTimestamp.Valid {
			continue
		}
		d := r.PriceSourceTimestamp.Time
		byDate[d] = append(byDate[d], r.UnitPriceLatest)
	}

	out := make([]TimePoint, 0, len(byDate))
	for d, ps := range byDate {
		out = append(out, TimePoint{Date: d, AvgPrice: mean(ps), Count: len(ps)})
	}
	slices.SortFunc(out, func(a, b TimePoint) int { return a.Date.Compare(b.Date) })
	return out
}

// Count is one bar or pie slice.
type Count struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// ValueCounts counts records per value of column, most frequent first. Ties
// keep first-appearance order. Unknown columns yield nil.
func ValueCounts(rows []dataset.Record, column string) []Count {
	var out []Count
	pos := make(map[string]int)
	for _, r := range rows {
		v, ok := r.Field(column)
		if !ok {
			return nil
		}
		if i, seen := pos[v]; seen {
			out[i].Count++
			continue
		}
		pos[v] = len(out)
		out = append(out, Count{Value: v, Count: 1})
	}
	slices.SortStableFunc(out, func(a, b Count) int { return cmp.Compare(b.Count, a.Count) })
	return out
}

// groupBy partitions rows by key and returns the keys in ascending order.
func groupBy(rows []dataset.Record, key func(dataset.Record) string) ([]string, map[string][]dataset.Record) {
	groups := make(map[string][]dataset.Record)
	for _, r := range rows {
		k := key(r)
		groups[k] = append(groups[k], r)
	}
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys, groups
}

func prices(rows []dataset.Record) []decimal.Decimal {
	out := make([]decimal.Decimal, len(rows))
	for i, r := range rows {
		out[i] = r.UnitPriceLatest
	}
	return out
}

func benchmarks(rows []dataset.Record) []decimal.Decimal {
	out := make([]decimal.Decimal, len(rows))
	for i, r := range rows {
		out[i] = r.BenchmarkPrice
	}
	return out
}

// mean averages exactly in decimal and converts once at the end.
func mean(values []decimal.Decimal) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := decimal.Sum(decimal.Zero, values...)
	return sum.Div(decimal.NewFromInt(int64(len(values)))).InexactFloat64()
}
