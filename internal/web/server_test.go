package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/PharmaDash/internal/config"
	"github.com/JonMunkholm/PharmaDash/internal/core"
	"github.com/JonMunkholm/PharmaDash/internal/dataset"
	"github.com/JonMunkholm/PharmaDash/internal/filter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const testCSV = "Material_Name,Material_Type,Specification,Material_Grade,Vendor_Name,Unit_Price_Latest,Benchmark_Price,Price_Deviation (%),Currency,Price_Tier,GMP_Compliance,Supplier_Portal_Name,Portal_Link,Portal_Validation_Status,Price_Source_Timestamp\n" +
	"Acetone,Solvent,ACS,Reagent,ChemCo,10,12,5%,USD,Low,Yes,Ariba,https://a.example,Valid,01-04-2024\n" +
	"Ethanol,Solvent,USP,Pharma,Solvix,20,18,-5%,EUR,Mid,No,Coupa,https://c.example,Invalid,05-03-2024\n" +
	"Acetone,Solvent,ACS,Reagent,Solvix,30,28,10%,USD,Mid,Yes,Coupa,https://c.example,Valid,05-03-2024\n" +
	"Citric Acid,Acid,BP,Food,ChemCo,40,40,0,INR,High,Yes,Ariba,https://a.example,Valid,\n"

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.RequestTimeout = 5 * time.Second
	cfg.Security.EnableCSP = true
	cfg.Metrics.Enabled = true
	cfg.Table.DefaultRows = core.DefaultRowLimit
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	tbl, err := dataset.Read(strings.NewReader(testCSV), "test.csv")
	require.NoError(t, err)

	s := NewServer(core.NewService(tbl), cfg)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s
}

func get(t *testing.T, s *Server, target string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestDashboardPage(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := get(t, s, "/?material_type=Solvent&material=Acetone")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	body := rec.Body.String()
	assert.Contains(t, body, pageTitle)
	assert.Contains(t, body, "Detailed Data View")
	assert.Contains(t, body, "Showing 3 of 3 records.")
	assert.Contains(t, body, `href="/api/export.csv?material_type=Solvent"`)
	assert.NotContains(t, body, "Citric Acid</td>")
}

func TestDashboardPage_FormsKeepEachOthersState(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := get(t, s, "/?material_type=Solvent&material=Acetone&column=Material_Name&limit=10")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	material := `<input type="hidden" name="material" value="Acetone">`
	column := `<input type="hidden" name="column" value="Material_Name">`
	limit := `<input type="hidden" name="limit" value="10">`
	filters := `<input type="hidden" name="material_type" value="Solvent">`

	// filter form and data form both resubmit the material
	assert.Equal(t, 2, strings.Count(body, material))
	// filter form and material form both resubmit the table settings
	assert.Equal(t, 2, strings.Count(body, column))
	assert.Equal(t, 2, strings.Count(body, limit))
	// material form and data form both resubmit the filters
	assert.Equal(t, 2, strings.Count(body, filters))
}

func TestDashboardPage_UnknownFilterWarns(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := get(t, s, "/?vendor=Nobody")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "no records match vendor=Nobody")
	assert.Contains(t, rec.Body.String(), "Showing 0 of 0 records.")
}

func TestDashboardPage_UnknownColumnRendersError(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := get(t, s, "/?column=Nope")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "TBL001")
}

func TestOptions(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := get(t, s, "/api/options")
	require.Equal(t, http.StatusOK, rec.Code)

	opts := decode[map[string][]string](t, rec)
	assert.Equal(t, []string{"Solvent", "Acid"}, opts["material_types"])
	assert.Equal(t, []string{"Yes", "No"}, opts["gmp"])
	assert.Equal(t, []string{"USD", "EUR", "INR"}, opts["currencies"])
}

func TestSummary(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := get(t, s, "/api/metrics?currency=USD")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[summaryResponse](t, rec)
	assert.Equal(t, 2, got.Records)
	assert.Equal(t, 1, got.Materials)
	assert.InDelta(t, 20, got.AvgPrice, 1e-9)
	assert.Empty(t, got.Warnings)

	rec = get(t, s, "/api/metrics?currency=GBP")
	require.Equal(t, http.StatusOK, rec.Code)
	got = decode[summaryResponse](t, rec)
	assert.Equal(t, 0, got.Records)
	assert.Equal(t, []string{"no records match currency=GBP"}, got.Warnings)
}

func TestViews(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := get(t, s, "/api/views")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, core.ViewNames(), decode[map[string][]string](t, rec)["views"])

	for _, name := range core.ViewNames() {
		t.Run(name, func(t *testing.T) {
			rec := get(t, s, "/api/views/"+name+"?material=Acetone")
			require.Equal(t, http.StatusOK, rec.Code)
			res := decode[map[string]any](t, rec)
			assert.Equal(t, name, res["view"])
			assert.EqualValues(t, 4, res["total"])
		})
	}
}

func TestView_Unknown(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := get(t, s, "/api/views/pie-chart")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	assert.Equal(t, "VIEW001", decode[ErrorResponse](t, rec).Code)
}

func TestRows(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := get(t, s, "/api/rows?vendor=ChemCo&column=Material_Name,Unit_Price_Latest&limit=1")
	require.Equal(t, http.StatusOK, rec.Code)

	res := decode[core.RowsResult](t, rec)
	assert.Equal(t, []string{dataset.ColMaterialName, dataset.ColUnitPriceLatest}, res.Columns)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, core.MinRowLimit, res.Limit)
	assert.Equal(t, [][]string{{"Acetone", "10"}, {"Citric Acid", "40"}}, res.Rows)
}

func TestRows_DefaultLimitFromConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Table.DefaultRows = 50
	s := newTestServer(t, cfg)

	rec := get(t, s, "/api/rows")
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[core.RowsResult](t, rec)
	assert.Equal(t, 50, res.Limit)
	assert.Len(t, res.Rows, 4)
	assert.Equal(t, dataset.Columns(), res.Columns)
}

func TestRows_UnknownColumn(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := get(t, s, "/api/rows?column=Color")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "TBL001", decode[ErrorResponse](t, rec).Code)
}

func TestExportCSV(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := get(t, s, "/api/export.csv?gmp=No")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="filtered_pharma_data.csv"`, rec.Header().Get("Content-Disposition"))

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "Material_Name,"))
	assert.True(t, strings.HasPrefix(lines[1], "Ethanol,"))
}

func TestExportXLSX(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := get(t, s, "/api/export.xlsx?material_type=Acid")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="filtered_pharma_data.xlsx"`, rec.Header().Get("Content-Disposition"))

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(dataset.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Citric Acid", rows[1][0])
}

func TestExport_Busy(t *testing.T) {
	tbl, err := dataset.Read(strings.NewReader(testCSV), "test.csv")
	require.NoError(t, err)
	svc := core.NewService(tbl, core.WithExportLimit(1, 10*time.Millisecond))
	s := NewServer(svc, testConfig())

	// Hold the only slot with an export blocked on an unread pipe.
	pr, pw := io.Pipe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = svc.Export(context.Background(), pw, filter.Constraints{}, core.FormatCSV)
		pw.Close()
	}()
	require.Eventually(t, func() bool { return svc.ExportStatus().Active == 1 }, time.Second, 5*time.Millisecond)

	rec := get(t, s, "/api/export.csv")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Empty(t, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "EXP002", decode[ErrorResponse](t, rec).Code)

	_, _ = io.Copy(io.Discard, pr)
	<-done
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := get(t, s, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[map[string]any](t, rec)
	assert.Equal(t, "ok", res["status"])
	assert.EqualValues(t, 4, res["records"])
	assert.Equal(t, s.service.Table().ID.String(), res["table_id"])
}

func TestWriteJSON_EncodeFailure(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/metrics", nil)
	rec := httptest.NewRecorder()
	rec.Header().Set("ETag", `W/"x"`)

	writeJSON(rec, req, map[string]float64{"avg_deviation": math.NaN()})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, rec.Header().Get("ETag"))
	assert.Equal(t, "ERR000", decode[ErrorResponse](t, rec).Code)
}

func TestETag(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := get(t, s, "/api/options")
	require.Equal(t, http.StatusOK, rec.Code)
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)
	assert.True(t, strings.HasPrefix(etag, `W/"`))

	rec = get(t, s, "/api/options", "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.Bytes())

	rec = get(t, s, "/api/options", "If-None-Match", `W/"stale"`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSecurityHeaders(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := get(t, s, "/healthz")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "script-src 'none'")

	cfg := testConfig()
	cfg.Security.EnableCSP = false
	rec = get(t, newTestServer(t, cfg), "/healthz")
	assert.Empty(t, rec.Header().Get("Content-Security-Policy"))
}

func TestStaticAssets(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := get(t, s, "/static/dashboard.css")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/css")
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, testConfig())
	get(t, s, "/api/options")

	rec := get(t, s, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pharmadash_dataset_records")

	cfg := testConfig()
	cfg.Metrics.Enabled = false
	rec = get(t, newTestServer(t, cfg), "/metrics")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateLimiter_Allow(t *testing.T) {
	rl := newRateLimiter(2, time.Minute)
	defer rl.stop()

	assert.True(t, rl.allow("10.0.0.1"))
	assert.True(t, rl.allow("10.0.0.1"))
	assert.False(t, rl.allow("10.0.0.1"))
	assert.True(t, rl.allow("10.0.0.2"), "limits are per client")
}

func TestRateLimiter_WindowResets(t *testing.T) {
	rl := newRateLimiter(1, 20*time.Millisecond)
	defer rl.stop()

	assert.True(t, rl.allow("10.0.0.1"))
	assert.False(t, rl.allow("10.0.0.1"))
	time.Sleep(30 * time.Millisecond)
	assert.True(t, rl.allow("10.0.0.1"))
}

func TestRateLimiter_ExportBudget(t *testing.T) {
	cfg := testConfig()
	cfg.Rate.Enabled = true
	cfg.Rate.RequestsPerMinute = 100
	cfg.Rate.ExportLimit = 1
	s := newTestServer(t, cfg)

	assert.Equal(t, http.StatusOK, get(t, s, "/api/export.csv").Code)

	rec := get(t, s, "/api/export.csv")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, "RATE001", decode[ErrorResponse](t, rec).Code)

	// Other routes draw on the general budget.
	assert.Equal(t, http.StatusOK, get(t, s, "/api/options").Code)
}
