package templates

import (
	"bytes"
	"context"
	"testing"

	"github.com/JonMunkholm/PharmaDash/internal/core"
	"github.com/JonMunkholm/PharmaDash/internal/dataset"
	"github.com/JonMunkholm/PharmaDash/internal/filter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPage() DashboardPage {
	return DashboardPage{
		Constraints: filter.Constraints{
			Vendor:       filter.ParseValue("ChemCo"),
			MaterialType: filter.ParseValue("Solvent"),
		},
		Material: "Acetone",
		Rows: core.RowsResult{
			Columns: []string{dataset.ColMaterialName, dataset.ColVendorName},
			Limit:   25,
		},
	}
}

func TestStateFields(t *testing.T) {
	d := testPage()

	tests := []struct {
		name string
		keep formState
		want []hiddenField
	}{
		{
			name: "filters sorted by key",
			keep: keepFilters,
			want: []hiddenField{
				{Name: filter.ParamMaterialType, Value: "Solvent"},
				{Name: filter.ParamVendor, Value: "ChemCo"},
			},
		},
		{
			name: "material",
			keep: keepMaterial,
			want: []hiddenField{{Name: "material", Value: "Acetone"}},
		},
		{
			name: "table",
			keep: keepTable,
			want: []hiddenField{
				{Name: "column", Value: dataset.ColMaterialName},
				{Name: "column", Value: dataset.ColVendorName},
				{Name: "limit", Value: "25"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stateFields(d, tt.keep))
		})
	}
}

func TestStateFields_SkipsDefaults(t *testing.T) {
	d := DashboardPage{
		Material: filter.All,
		Rows:     core.RowsResult{Columns: dataset.Columns()},
	}

	assert.Empty(t, stateFields(d, keepFilters|keepMaterial|keepTable))
}

func TestHiddenFields_Render(t *testing.T) {
	var buf bytes.Buffer
	err := hiddenFields([]hiddenField{{Name: "material", Value: `Tube 5"`}}).Render(context.Background(), &buf)
	require.NoError(t, err)

	assert.Equal(t, `<input type="hidden" name="material" value="Tube 5&#34;">`, buf.String())
}

func TestBarChart_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, barChart(nil).Render(context.Background(), &buf))

	assert.Contains(t, buf.String(), "No records match the current filters.")
}
