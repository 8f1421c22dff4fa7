// Package templates holds the templ components for the dashboard page.
package templates

import (
	"slices"
	"strconv"

	"github.com/JonMunkholm/PharmaDash/internal/analytics"
	"github.com/JonMunkholm/PharmaDash/internal/dataset"
	"github.com/JonMunkholm/PharmaDash/internal/filter"
)

type tab struct {
	ID    string
	Title string
}

var dashboardTabs = []tab{
	{"price", "Price Analysis"},
	{"vendors", "Vendor Comparison"},
	{"materials", "Material Insights"},
	{"trends", "Time Series"},
	{"currency", "Currency & Portals"},
	{"data", "Detailed Data"},
}

func money(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

func percent(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64) + "%"
}

// bar is one labelled <meter> row. Max is never zero, so an all-zero
// series renders empty meters.
type bar struct {
	Label string
	Value string
	Max   string
	Text  string
}

func makeBars(labels []string, values []float64, format func(float64) string) []bar {
	top := 0.0
	if len(values) > 0 {
		top = slices.Max(values)
	}
	out := make([]bar, len(labels))
	for i, l := range labels {
		out[i] = bar{
			Label: l,
			Value: meterValue(values[i]),
			Max:   meterMax(top),
			Text:  format(values[i]),
		}
	}
	return out
}

func meterValue(v float64) string {
	return strconv.FormatFloat(max(v, 0), 'f', -1, 64)
}

func meterMax(top float64) string {
	if top <= 0 {
		return "1"
	}
	return strconv.FormatFloat(top, 'f', -1, 64)
}

func priceBars(prices []analytics.VendorPrice) []bar {
	labels := make([]string, len(prices))
	values := make([]float64, len(prices))
	for i, v := range prices {
		labels[i], values[i] = v.Vendor, v.Price
	}
	return makeBars(labels, values, money)
}

func complianceBars(rates []analytics.Compliance) []bar {
	labels := make([]string, len(rates))
	values := make([]float64, len(rates))
	for i, c := range rates {
		labels[i], values[i] = c.Vendor, c.Percent
	}
	return makeBars(labels, values, percent)
}

func countBars(counts []analytics.Count) []bar {
	labels := make([]string, len(counts))
	values := make([]float64, len(counts))
	for i, c := range counts {
		labels[i], values[i] = c.Value, float64(c.Count)
	}
	return makeBars(labels, values, func(f float64) string { return strconv.Itoa(int(f)) })
}

type trendRow struct {
	Date  string
	Price bar
	Count bar
}

// trendRows scales each date's price and count against the series maxima.
func trendRows(series []analytics.TimePoint) []trendRow {
	maxPrice, maxCount := 0.0, 0.0
	for _, tp := range series {
		maxPrice = max(maxPrice, tp.AvgPrice)
		maxCount = max(maxCount, float64(tp.Count))
	}
	rows := make([]trendRow, len(series))
	for i, tp := range series {
		rows[i] = trendRow{
			Date:  tp.Date.Format(dataset.DateLayout),
			Price: bar{Value: meterValue(tp.AvgPrice), Max: meterMax(maxPrice), Text: money(tp.AvgPrice)},
			Count: bar{Value: meterValue(float64(tp.Count)), Max: meterMax(maxCount), Text: strconv.Itoa(tp.Count)},
		}
	}
	return rows
}

func boxesOf(b analytics.BoxStats) []analytics.BoxStats {
	if b.Count == 0 {
		return nil
	}
	return []analytics.BoxStats{b}
}

func firstPoints(points []analytics.Point, n int) []analytics.Point {
	if len(points) > n {
		return points[:n]
	}
	return points
}

func materialChoice(material string) string {
	if material == "" {
		return filter.All
	}
	return material
}

func exportURL(format string, c filter.Constraints) string {
	u := "/api/export." + format
	if q := c.Query().Encode(); q != "" {
		u += "?" + q
	}
	return u
}

type hiddenField struct {
	Name  string
	Value string
}

// formState selects which parts of the page a form resubmits as hidden
// fields besides its own inputs.
type formState uint8

const (
	keepFilters formState = 1 << iota
	keepMaterial
	keepTable
)

// stateFields returns the query state a form must carry so that submitting
// it leaves the rest of the page unchanged. Filters come out in sorted key
// order; columns only when a subset is selected.
func stateFields(d DashboardPage, keep formState) []hiddenField {
	var fields []hiddenField
	if keep&keepFilters != 0 {
		q := d.Constraints.Query()
		keys := make([]string, 0, len(q))
		for k := range q {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			fields = append(fields, hiddenField{Name: k, Value: q.Get(k)})
		}
	}
	if keep&keepMaterial != 0 && d.Material != "" && d.Material != filter.All {
		fields = append(fields, hiddenField{Name: "material", Value: d.Material})
	}
	if keep&keepTable != 0 {
		if len(d.Rows.Columns) > 0 && len(d.Rows.Columns) < len(dataset.Columns()) {
			for _, col := range d.Rows.Columns {
				fields = append(fields, hiddenField{Name: "column", Value: col})
			}
		}
		if d.Rows.Limit > 0 {
			fields = append(fields, hiddenField{Name: "limit", Value: strconv.Itoa(d.Rows.Limit)})
		}
	}
	return fields
}
