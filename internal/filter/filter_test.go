package filter

import (
	"net/url"
	"testing"

	"github.com/JonMunkholm/PharmaDash/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(material, materialType, vendor, gmp, tier, currency string) dataset.Record {
	return dataset.Record{
		MaterialName:  material,
		MaterialType:  materialType,
		VendorName:    vendor,
		GMPCompliance: gmp,
		PriceTier:     tier,
		Currency:      currency,
	}
}

func fixture() []dataset.Record {
	return []dataset.Record{
		rec("Acetone", "Solvent", "A", "Yes", "Mid", "USD"),
		rec("Ethanol", "Solvent", "B", "No", "High", "EUR"),
		rec("Citric Acid", "Acid", "A", "Yes", "Low", "USD"),
		rec("Methanol", "Solvent", "C", "Yes", "Low", "INR"),
		rec("Boric Acid", "Acid", "B", "No", "Mid", "EUR"),
	}
}

func names(rows []dataset.Record) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.MaterialName
	}
	return out
}

func TestApply_SingleConstraint(t *testing.T) {
	rows := []dataset.Record{
		rec("one", "Solvent", "A", "Yes", "Mid", "USD"),
		rec("two", "Solvent", "B", "Yes", "Mid", "USD"),
		rec("three", "Acid", "A", "Yes", "Mid", "USD"),
	}

	got := Apply(rows, Constraints{MaterialType: Eq("Solvent")})
	assert.Equal(t, []string{"one", "two"}, names(got))
}

func TestApply_UnknownValueIsEmptyNotNil(t *testing.T) {
	got := Apply(fixture(), Constraints{Vendor: Eq("Z")})
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestApply_Unconstrained(t *testing.T) {
	rows := fixture()
	got := Apply(rows, Constraints{})

	assert.Equal(t, rows, got)
	got[0].MaterialName = "changed"
	assert.Equal(t, "Acetone", rows[0].MaterialName, "result must not alias the input")
}

func TestApply_Properties(t *testing.T) {
	cases := []Constraints{
		{},
		{MaterialType: Eq("Solvent")},
		{Vendor: Eq("A"), GMP: Eq("Yes")},
		{PriceTier: Eq("Mid"), Currency: Eq("EUR")},
		{MaterialType: Eq("Acid"), Vendor: Eq("B"), GMP: Eq("No"), PriceTier: Eq("Mid"), Currency: Eq("EUR")},
		{Currency: Eq("GBP")},
	}

	rows := fixture()
	for _, c := range cases {
		once := Apply(rows, c)
		twice := Apply(once, c)
		assert.Equal(t, once, twice, "idempotent for %+v", c)

		// Subsequence of the input, order preserved, every row matches.
		j := 0
		for _, r := range once {
			assert.True(t, c.Match(r))
			for j < len(rows) && rows[j].MaterialName != r.MaterialName {
				j++
			}
			require.Less(t, j, len(rows), "row %q out of order", r.MaterialName)
			j++
		}
	}
}

func TestApply_AndAcrossFields(t *testing.T) {
	got := Apply(fixture(), Constraints{Vendor: Eq("A"), PriceTier: Eq("Low")})
	assert.Equal(t, []string{"Citric Acid"}, names(got))
}

func TestParseValue(t *testing.T) {
	assert.False(t, ParseValue("").IsSet())
	assert.False(t, ParseValue("All").IsSet())
	assert.False(t, ParseValue("  ").IsSet())
	assert.Equal(t, Eq("Solvent"), ParseValue(" Solvent "))
	assert.Equal(t, "All", Any().String())
	assert.Equal(t, "USD", Eq("USD").String())
}

func TestFromQuery_RoundTrip(t *testing.T) {
	q := url.Values{}
	q.Set(ParamMaterialType, "Solvent")
	q.Set(ParamVendor, "All")
	q.Set(ParamGMP, "Yes")
	q.Set("unrelated", "x")

	c := FromQuery(q)
	assert.Equal(t, Eq("Solvent"), c.MaterialType)
	assert.False(t, c.Vendor.IsSet())
	assert.Equal(t, Eq("Yes"), c.GMP)
	assert.False(t, c.IsZero())

	encoded := c.Query()
	assert.Equal(t, "Solvent", encoded.Get(ParamMaterialType))
	assert.Empty(t, encoded.Get(ParamVendor))
	assert.Equal(t, c, FromQuery(encoded))

	assert.True(t, FromQuery(url.Values{}).IsZero())
}

func TestBuildOptions_FromFullTable(t *testing.T) {
	tbl := &dataset.Table{Records: fixture()}
	opts := BuildOptions(tbl)

	assert.Equal(t, []string{"Solvent", "Acid"}, opts.MaterialTypes)
	assert.Equal(t, []string{"A", "B", "C"}, opts.Vendors)
	assert.Equal(t, []string{"Yes", "No"}, opts.GMP)
	assert.Equal(t, []string{"Mid", "High", "Low"}, opts.PriceTiers)
	assert.Equal(t, []string{"USD", "EUR", "INR"}, opts.Currencies)
	assert.Len(t, opts.Materials, 5)

	// Options stay the same whatever subset is being viewed.
	_ = Apply(tbl.Records, Constraints{Vendor: Eq("C")})
	assert.Equal(t, opts, BuildOptions(tbl))
}

func TestBuildOptions_EmptyTable(t *testing.T) {
	opts := BuildOptions(&dataset.Table{})
	assert.NotNil(t, opts.Vendors)
	assert.Empty(t, opts.Vendors)
	assert.Equal(t, []string{"Yes", "No"}, opts.GMP)
}

func TestWithAll(t *testing.T) {
	assert.Equal(t, []string{"All", "USD", "EUR"}, WithAll([]string{"USD", "EUR"}))
	assert.Equal(t, []string{"All"}, WithAll(nil))
}

func TestUnknown(t *testing.T) {
	opts := BuildOptions(&dataset.Table{Records: fixture()})

	assert.Empty(t, Constraints{Vendor: Eq("A")}.Unknown(opts))
	assert.Equal(t,
		[]string{"vendor=Z", "currency=GBP"},
		Constraints{Vendor: Eq("Z"), GMP: Eq("Yes"), Currency: Eq("GBP")}.Unknown(opts),
	)
}
