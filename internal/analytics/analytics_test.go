package analytics

import (
	"testing"
	"time"

	"github.com/JonMunkholm/PharmaDash/internal/dataset"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	material, materialType, spec, grade, vendor string
	price, benchmark                            string
	deviation                                   float64
	currency, gmp, portal, status               string
	date                                        dataset.Date
}

func (r row) record() dataset.Record {
	return dataset.Record{
		MaterialName:           r.material,
		MaterialType:           r.materialType,
		Specification:          r.spec,
		MaterialGrade:          r.grade,
		VendorName:             r.vendor,
		UnitPriceLatest:        decimal.RequireFromString(r.price),
		BenchmarkPrice:         decimal.RequireFromString(r.benchmark),
		PriceDeviation:         r.deviation,
		Currency:               r.currency,
		GMPCompliance:          r.gmp,
		SupplierPortalName:     r.portal,
		PortalValidationStatus: r.status,
		PriceSourceTimestamp:   r.date,
	}
}

func fixture() []dataset.Record {
	mar5 := dataset.NewDate(2024, time.March, 5)
	apr1 := dataset.NewDate(2024, time.April, 1)
	rows := []row{
		{"Acetone", "Solvent", "ACS", "Reagent", "ChemCo", "10", "12", 5, "USD", "Yes", "Ariba", "Valid", apr1},
		{"Ethanol", "Solvent", "USP", "Pharma", "Solvix", "20", "18", -5, "EUR", "No", "Coupa", "Invalid", mar5},
		{"Acetone", "Solvent", "ACS", "Reagent", "Solvix", "30", "28", 10, "USD", "Yes", "Coupa", "Valid", mar5},
		{"Citric Acid", "Acid", "BP", "Food", "ChemCo", "40", "40", 0, "INR", "Yes", "Ariba", "Valid", dataset.Date{}},
		{"Acetone", "Solvent", "USP", "Pharma", "ChemCo", "50", "44", 15, "USD", "No", "Ariba", "Pending", apr1},
	}
	out := make([]dataset.Record, len(rows))
	for i, r := range rows {
		out[i] = r.record()
	}
	return out
}

func TestKeyMetrics(t *testing.T) {
	m := KeyMetrics(fixture())

	assert.Equal(t, 5, m.Records)
	assert.Equal(t, 3, m.Materials)
	assert.InDelta(t, 30, m.AvgPrice, 1e-9)
	assert.InDelta(t, 5, m.AvgDeviation, 1e-9)
	assert.Equal(t, 3, m.GMPCompliant)
}

func TestKeyMetrics_Empty(t *testing.T) {
	assert.Equal(t, Metrics{}, KeyMetrics(nil))
}

func TestPriceVsBenchmark(t *testing.T) {
	got := PriceVsBenchmark(fixture())

	require.Len(t, got, 3)
	assert.Equal(t, "Acetone", got[0].Material)
	assert.InDelta(t, 30, got[0].AvgPrice, 1e-9)
	assert.InDelta(t, 28, got[0].AvgBenchmark, 1e-9)
	assert.Equal(t, "Citric Acid", got[1].Material)
	assert.Equal(t, "Ethanol", got[2].Material)
}

func TestDeviationPoints(t *testing.T) {
	got := DeviationPoints(fixture())

	require.Len(t, got, 5)
	assert.Equal(t, Point{Price: 20, Deviation: -5, MaterialType: "Solvent", Material: "Ethanol", Vendor: "Solvix"}, got[1])
}

func TestVendorOfferings(t *testing.T) {
	got := VendorOfferings(fixture())

	assert.Equal(t, []Offering{
		{Vendor: "ChemCo", MaterialType: "Acid", Count: 1},
		{Vendor: "ChemCo", MaterialType: "Solvent", Count: 2},
		{Vendor: "Solvix", MaterialType: "Solvent", Count: 2},
	}, got)
}

func TestVendorMeanPrice_Descending(t *testing.T) {
	got := VendorMeanPrice(fixture())

	require.Len(t, got, 2)
	assert.Equal(t, "ChemCo", got[0].Vendor)
	assert.InDelta(t, 100.0/3, got[0].Price, 1e-9)
	assert.Equal(t, "Solvix", got[1].Vendor)
	assert.InDelta(t, 25, got[1].Price, 1e-9)
}

func TestVendorGMPRatio(t *testing.T) {
	got := VendorGMPRatio(fixture())

	require.Len(t, got, 2)
	assert.Equal(t, "ChemCo", got[0].Vendor)
	assert.Equal(t, 2, got[0].Compliant)
	assert.Equal(t, 3, got[0].Total)
	assert.InDelta(t, 66.666, got[0].Percent, 0.01)
	assert.InDelta(t, 50, got[1].Percent, 1e-9)
}

func TestTimeSeries_SkipsMissingDates(t *testing.T) {
	got := TimeSeries(fixture())

	require.Len(t, got, 2)
	assert.Equal(t, time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC), got[0].Date)
	assert.Equal(t, 2, got[0].Count)
	assert.InDelta(t, 25, got[0].AvgPrice, 1e-9)
	assert.Equal(t, time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC), got[1].Date)
	assert.Equal(t, 2, got[1].Count)
	assert.InDelta(t, 30, got[1].AvgPrice, 1e-9)
}

func TestTimeSeries_AllMissing(t *testing.T) {
	rows := fixture()
	for i := range rows {
		rows[i].PriceSourceTimestamp = dataset.Date{}
	}
	got := TimeSeries(rows)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestValueCounts(t *testing.T) {
	got := ValueCounts(fixture(), dataset.ColPortalValidationStatus)
	assert.Equal(t, []Count{
		{Value: "Valid", Count: 3},
		{Value: "Invalid", Count: 1},
		{Value: "Pending", Count: 1},
	}, got)

	portals := ValueCounts(fixture(), dataset.ColSupplierPortalName)
	assert.Equal(t, []Count{{Value: "Ariba", Count: 3}, {Value: "Coupa", Count: 2}}, portals)

	assert.Nil(t, ValueCounts(fixture(), "Nope"))
}

func TestBox(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   BoxStats
	}{
		{
			name:   "odd count",
			values: []float64{50, 10, 30, 20, 40},
			want:   BoxStats{Count: 5, Min: 10, Q1: 20, Median: 30, Q3: 40, Max: 50},
		},
		{
			name:   "even count interpolates",
			values: []float64{4, 1, 3, 2},
			want:   BoxStats{Count: 4, Min: 1, Q1: 1.75, Median: 2.5, Q3: 3.25, Max: 4},
		},
		{
			name:   "single value",
			values: []float64{7},
			want:   BoxStats{Count: 1, Min: 7, Q1: 7, Median: 7, Q3: 7, Max: 7},
		},
		{
			name: "empty",
			want: BoxStats{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Box(tt.values))
		})
	}
}

func TestBox_DoesNotReorderInput(t *testing.T) {
	in := []float64{3, 1, 2}
	Box(in)
	assert.Equal(t, []float64{3, 1, 2}, in)
}

func TestBoxByGroup_FirstAppearanceOrder(t *testing.T) {
	got := BoxByGroup(fixture(), dataset.ColCurrency)

	require.Len(t, got, 3)
	assert.Equal(t, "USD", got[0].Group)
	assert.Equal(t, 3, got[0].Count)
	assert.Equal(t, 10.0, got[0].Min)
	assert.Equal(t, 30.0, got[0].Median)
	assert.Equal(t, 50.0, got[0].Max)
	assert.Equal(t, "EUR", got[1].Group)
	assert.Equal(t, "INR", got[2].Group)

	assert.Nil(t, BoxByGroup(fixture(), "Nope"))
}

func TestMaterialDetail(t *testing.T) {
	d := MaterialDetail(fixture(), "Acetone")

	assert.Equal(t, "Acetone", d.Material)
	assert.Equal(t, 3, d.Box.Count)
	assert.Equal(t, 30.0, d.Box.Median)
	assert.Equal(t, []VendorPrice{
		{Vendor: "ChemCo", Price: 10},
		{Vendor: "Solvix", Price: 30},
		{Vendor: "ChemCo", Price: 50},
	}, d.VendorPrices)

	require.Len(t, d.SpecGrades, 2)
	assert.Equal(t, "ACS", d.SpecGrades[0].Specification)
	assert.Equal(t, "Reagent", d.SpecGrades[0].Grade)
	assert.InDelta(t, 20, d.SpecGrades[0].AvgPrice, 1e-9)
	assert.Equal(t, 2, d.SpecGrades[0].VendorCount)
	assert.Equal(t, "USP", d.SpecGrades[1].Specification)
	assert.Equal(t, 1, d.SpecGrades[1].VendorCount)
}

func TestMaterialDetail_VendorCountCountsRows(t *testing.T) {
	dup := row{"Acetone", "Solvent", "ACS", "Reagent", "ChemCo", "10", "12", 5, "USD", "Yes", "Ariba", "Valid", dataset.Date{}}
	again := dup
	again.price = "20"
	rows := []dataset.Record{dup.record(), again.record()}

	d := MaterialDetail(rows, "Acetone")
	require.Len(t, d.SpecGrades, 1)
	assert.Equal(t, 2, d.SpecGrades[0].VendorCount)
	assert.InDelta(t, 15, d.SpecGrades[0].AvgPrice, 1e-9)
}

func TestMaterialDetail_UnknownMaterial(t *testing.T) {
	d := MaterialDetail(fixture(), "Unobtainium")

	assert.Equal(t, 0, d.Box.Count)
	assert.NotNil(t, d.VendorPrices)
	assert.Empty(t, d.VendorPrices)
	assert.Empty(t, d.SpecGrades)
}
