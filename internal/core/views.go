package core

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/PharmaDash/internal/analytics"
	"github.com/JonMunkholm/PharmaDash/internal/dataset"
	"github.com/JonMunkholm/PharmaDash/internal/filter"
)

// View names accepted by Service.View, in dashboard tab order.
const (
	ViewPriceByType      = "price-by-type"
	ViewPriceVsBenchmark = "price-vs-benchmark"
	ViewDeviation        = "deviation"
	ViewVendorOfferings  = "vendor-offerings"
	ViewVendorPrices     = "vendor-prices"
	ViewVendorGMP        = "vendor-gmp"
	ViewMaterial         = "material"
	ViewTimeSeries       = "time-series"
	ViewPriceByCurrency  = "price-by-currency"
	ViewValidationStatus = "validation-status"
	ViewPortals          = "portals"
)

type viewFunc func(rows []dataset.Record, material string) any

var views = map[string]viewFunc{
	ViewPriceByType: func(rows []dataset.Record, _ string) any {
		return analytics.BoxByGroup(rows, dataset.ColMaterialType)
	},
	ViewPriceVsBenchmark: func(rows []dataset.Record, _ string) any {
		return analytics.PriceVsBenchmark(rows)
	},
	ViewDeviation: func(rows []dataset.Record, _ string) any {
		return analytics.DeviationPoints(rows)
	},
	ViewVendorOfferings: func(rows []dataset.Record, _ string) any {
		return analytics.VendorOfferings(rows)
	},
	ViewVendorPrices: func(rows []dataset.Record, _ string) any {
		return analytics.VendorMeanPrice(rows)
	},
	ViewVendorGMP: func(rows []dataset.Record, _ string) any {
		return analytics.VendorGMPRatio(rows)
	},
	ViewMaterial: func(rows []dataset.Record, material string) any {
		return analytics.MaterialDetail(rows, material)
	},
	ViewTimeSeries: func(rows []dataset.Record, _ string) any {
		return analytics.TimeSeries(rows)
	},
	ViewPriceByCurrency: func(rows []dataset.Record, _ string) any {
		return analytics.BoxByGroup(rows, dataset.ColCurrency)
	},
	ViewValidationStatus: func(rows []dataset.Record, _ string) any {
		return analytics.ValueCounts(rows, dataset.ColPortalValidationStatus)
	},
	ViewPortals: func(rows []dataset.Record, _ string) any {
		return analytics.ValueCounts(rows, dataset.ColSupplierPortalName)
	},
}

// ViewNames lists the views in tab order.
func ViewNames() []string {
	return []string{
		ViewPriceByType,
		ViewPriceVsBenchmark,
		ViewDeviation,
		ViewVendorOfferings,
		ViewVendorPrices,
		ViewVendorGMP,
		ViewMaterial,
		ViewTimeSeries,
		ViewPriceByCurrency,
		ViewValidationStatus,
		ViewPortals,
	}
}

// ViewResult is one view's data plus any filter warnings.
type ViewResult struct {
	View     string   `json:"view"`
	Data     any      `json:"data"`
	Total    int      `json:"total"`
	Warnings []string `json:"warnings,omitempty"`
}

// View computes a single named view for c. material is only used by the
// material view.
func (s *Service) View(name string, c filter.Constraints, material string) (ViewResult, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	fn, ok := views[name]
	if !ok {
		return ViewResult{}, fmt.Errorf("%w: %q", ErrUnknownView, name)
	}

	sel := s.Filter(c)
	return ViewResult{
		View:     name,
		Data:     fn(sel.Rows, material),
		Total:    len(sel.Rows),
		Warnings: sel.Warnings(),
	}, nil
}
