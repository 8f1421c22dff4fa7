package dataset

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const header = "Material_Name,Material_Type,Specification,Material_Grade,Vendor_Name,Unit_Price_Latest,Benchmark_Price,Price_Deviation (%),Currency,Price_Tier,GMP_Compliance,Supplier_Portal_Name,Portal_Link,Portal_Validation_Status,Price_Source_Timestamp\n"

const sample = header +
	"Acetone,Solvent,ACS,Reagent,ChemCo,120.50,110,9.5%,USD,Mid,Yes,SAP Ariba,https://ariba.example/a,Valid,05-03-2024\n" +
	"Ethanol,Solvent,USP,Pharma,Solvix,\"1,050.00\",1000,5,EUR,High,No,Coupa,https://coupa.example/e,Invalid,not-a-date\n" +
	"Citric Acid,Acid,BP,Food,ChemCo,$45,50,-10%,USD,Low,Yes,SAP Ariba,https://ariba.example/c,Valid,1-4-2024\n"

func mustRead(t *testing.T, src string) *Table {
	t.Helper()
	tbl, err := Read(strings.NewReader(src), "test.csv")
	require.NoError(t, err)
	return tbl
}

func TestRead_PreservesOrderAndTypes(t *testing.T) {
	tbl := mustRead(t, sample)

	require.Equal(t, 3, tbl.Len())
	assert.Equal(t, "Acetone", tbl.Records[0].MaterialName)
	assert.Equal(t, "Ethanol", tbl.Records[1].MaterialName)
	assert.Equal(t, "Citric Acid", tbl.Records[2].MaterialName)

	assert.True(t, tbl.Records[1].UnitPriceLatest.Equal(decimal.RequireFromString("1050")))
	assert.True(t, tbl.Records[2].UnitPriceLatest.Equal(decimal.NewFromInt(45)))
	assert.Equal(t, 9.5, tbl.Records[0].PriceDeviation)
	assert.Equal(t, 5.0, tbl.Records[1].PriceDeviation)
	assert.Equal(t, -10.0, tbl.Records[2].PriceDeviation)

	assert.Equal(t, NewDate(2024, time.March, 5), tbl.Records[0].PriceSourceTimestamp)
	assert.False(t, tbl.Records[1].PriceSourceTimestamp.Valid)
	assert.Equal(t, NewDate(2024, time.April, 1), tbl.Records[2].PriceSourceTimestamp)

	assert.NotEqual(t, [16]byte{}, [16]byte(tbl.ID))
	assert.Equal(t, "test.csv", tbl.Source)
}

func TestParsePercent(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    float64
		wantErr bool
	}{
		{name: "percent suffix", input: "12.5%", want: 12.5},
		{name: "plain number", input: "12.5", want: 12.5},
		{name: "integer", input: "7", want: 7},
		{name: "negative with suffix", input: "-3.25%", want: -3.25},
		{name: "space before suffix", input: "4.0 %", want: 4},
		{name: "surrounding whitespace", input: "  8%  ", want: 8},
		{name: "empty", input: "", wantErr: true},
		{name: "text", input: "high", wantErr: true},
		{name: "double percent", input: "5%%", wantErr: true},
		{name: "percent only", input: "%", wantErr: true},
		{name: "nan", input: "NaN", wantErr: true},
		{name: "nan with suffix", input: "nan%", wantErr: true},
		{name: "infinity", input: "Inf", wantErr: true},
		{name: "negative infinity", input: "-infinity%", wantErr: true},
		{name: "overflow", input: "1e400", wantErr: true},
		{name: "hex float", input: "0x1p-2", wantErr: true},
		{name: "exponent", input: "1.5e1", want: 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePercent(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidValue)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "decimal", input: "123.45", want: "123.45"},
		{name: "integer", input: "10", want: "10"},
		{name: "dollar and thousands", input: "$1,234.56", want: "1234.56"},
		{name: "euro", input: "€99.90", want: "99.9"},
		{name: "leading decimal point", input: ".5", want: "0.5"},
		{name: "zero", input: "0", want: "0"},
		{name: "accounting negative rejected", input: "(12.00)", wantErr: true},
		{name: "negative rejected", input: "-1", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "text", input: "n/a", wantErr: true},
		{name: "scientific notation", input: "1e3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePrice(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidValue)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s, want %s", got, tt.want)
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		input string
		want  Date
	}{
		{input: "05-03-2024", want: NewDate(2024, time.March, 5)},
		{input: "5-3-2024", want: NewDate(2024, time.March, 5)},
		{input: " 31-12-2023 ", want: NewDate(2023, time.December, 31)},
		{input: "not-a-date", want: Date{}},
		{input: "2024-03-05", want: Date{}},
		{input: "31-02-2024", want: Date{}},
		{input: "03/05/2024", want: Date{}},
		{input: "", want: Date{}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseDate(tt.input))
		})
	}
}

func TestRead_Errors(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantIs     error
		wantLine   int
		wantColumn string
	}{
		{
			name:   "empty file",
			input:  "",
			wantIs: ErrEmptyFile,
		},
		{
			name:     "missing header",
			input:    "Material_Name,Vendor_Name\nAcetone,ChemCo\n",
			wantIs:   ErrMissingColumns,
			wantLine: 1,
		},
		{
			name:       "unparseable deviation",
			input:      header + "Acetone,Solvent,ACS,Reagent,ChemCo,1,1,lots,USD,Mid,Yes,P,L,Valid,05-03-2024\n",
			wantIs:     ErrInvalidValue,
			wantLine:   2,
			wantColumn: ColPriceDeviation,
		},
		{
			name:       "nan deviation",
			input:      header + "Acetone,Solvent,ACS,Reagent,ChemCo,1,1,NaN,USD,Mid,Yes,P,L,Valid,05-03-2024\n",
			wantIs:     ErrInvalidValue,
			wantLine:   2,
			wantColumn: ColPriceDeviation,
		},
		{
			name: "bad price on third line",
			input: header +
				"Acetone,Solvent,ACS,Reagent,ChemCo,1,1,1%,USD,Mid,Yes,P,L,Valid,05-03-2024\n" +
				"Ethanol,Solvent,USP,Pharma,Solvix,abc,1,1%,USD,Mid,Yes,P,L,Valid,05-03-2024\n",
			wantIs:     ErrInvalidValue,
			wantLine:   3,
			wantColumn: ColUnitPriceLatest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, err := Read(strings.NewReader(tt.input), "bad.csv")
			require.Error(t, err)
			assert.Nil(t, tbl)

			var loadErr *DataLoadError
			require.True(t, errors.As(err, &loadErr), "want *DataLoadError, got %T", err)
			assert.ErrorIs(t, err, tt.wantIs)
			assert.Equal(t, "bad.csv", loadErr.Path)
			assert.Equal(t, tt.wantLine, loadErr.Line)
			assert.Equal(t, tt.wantColumn, loadErr.Column)
		})
	}
}

func TestRead_HeaderCaseAndBOM(t *testing.T) {
	src := "\xEF\xBB\xBF" + strings.ToUpper(header) +
		"Acetone,Solvent,ACS,Reagent,ChemCo,1,1,1%,USD,Mid,Yes,P,L,Valid,05-03-2024\n"

	tbl := mustRead(t, src)
	require.Equal(t, 1, tbl.Len())
	assert.Equal(t, "Acetone", tbl.Records[0].MaterialName)
}

func TestRead_ReorderedColumns(t *testing.T) {
	cols := strings.Split(strings.TrimSpace(header), ",")
	values := strings.Split("Acetone,Solvent,ACS,Reagent,ChemCo,1,1,1%,USD,Mid,Yes,P,L,Valid,05-03-2024", ",")
	// Reverse both rows; lookup is by name, not position.
	for i, j := 0, len(cols)-1; i < j; i, j = i+1, j-1 {
		cols[i], cols[j] = cols[j], cols[i]
		values[i], values[j] = values[j], values[i]
	}

	tbl := mustRead(t, strings.Join(cols, ",")+"\n"+strings.Join(values, ",")+"\n")
	require.Equal(t, 1, tbl.Len())
	assert.Equal(t, "ChemCo", tbl.Records[0].VendorName)
	assert.Equal(t, NewDate(2024, time.March, 5), tbl.Records[0].PriceSourceTimestamp)
}

func TestLoader_CachesByPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "materials.csv")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	opens := 0
	l := NewLoader()
	l.open = func(p string) (io.ReadCloser, error) {
		opens++
		return os.Open(p)
	}

	first, err := l.Load(path)
	require.NoError(t, err)
	assert.True(t, l.Cached(path))

	second, err := l.Load(filepath.Join(dir, ".", "materials.csv"))
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, opens)
}

func TestLoader_MissingFile(t *testing.T) {
	l := NewLoader()
	_, err := l.Load(filepath.Join(t.TempDir(), "nope.csv"))

	var loadErr *DataLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.False(t, l.Cached(loadErr.Path))
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	tbl := mustRead(t, sample)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, tbl.Records))

	firstLine, _, _ := strings.Cut(buf.String(), "\n")
	assert.Equal(t, strings.TrimSpace(header), firstLine)

	again := mustRead(t, buf.String())
	require.Equal(t, tbl.Len(), again.Len())
	for i := range tbl.Records {
		want, got := tbl.Records[i], again.Records[i]
		assert.Equal(t, want.Values(), got.Values(), "row %d", i)
		assert.True(t, want.UnitPriceLatest.Equal(got.UnitPriceLatest))
		assert.Equal(t, want.PriceDeviation, got.PriceDeviation)
		assert.Equal(t, want.PriceSourceTimestamp, got.PriceSourceTimestamp)
	}
}

func TestWriteCSV_RoundTripKeepsQuotes(t *testing.T) {
	src := header +
		`"Tube 5""",Solvent,"""USP""","=""A""",ChemCo,1,1,1%,USD,Mid,Yes,"""Ariba",L,Valid,05-03-2024` + "\n"

	tbl := mustRead(t, src)
	require.Equal(t, 1, tbl.Len())
	rec := tbl.Records[0]
	assert.Equal(t, `Tube 5"`, rec.MaterialName)
	assert.Equal(t, `"USP"`, rec.Specification)
	assert.Equal(t, `="A"`, rec.MaterialGrade)
	assert.Equal(t, `"Ariba`, rec.SupplierPortalName)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, tbl.Records))

	again := mustRead(t, buf.String())
	require.Equal(t, 1, again.Len())
	assert.Equal(t, rec.Values(), again.Records[0].Values())
}

func TestRead_CleansHeaderArtifacts(t *testing.T) {
	cols := strings.Split(strings.TrimSpace(header), ",")
	cols[0] = `"=""Material_Name"""`
	src := strings.Join(cols, ",") + "\n" +
		"Acetone,Solvent,ACS,Reagent,ChemCo,1,1,1%,USD,Mid,Yes,P,L,Valid,05-03-2024\n"

	tbl := mustRead(t, src)
	require.Equal(t, 1, tbl.Len())
	assert.Equal(t, "Acetone", tbl.Records[0].MaterialName)
}

func TestWriteXLSX(t *testing.T) {
	tbl := mustRead(t, sample)

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, tbl.Records))

	xl, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer xl.Close()

	rows, err := xl.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, Columns(), rows[0])
	assert.Equal(t, "Acetone", rows[1][0])
	assert.Equal(t, "05-03-2024", rows[1][len(rows[1])-1])
}

func TestDistinct_FirstAppearanceOrder(t *testing.T) {
	tbl := mustRead(t, sample)

	assert.Equal(t, []string{"Solvent", "Acid"}, tbl.Distinct(ColMaterialType))
	assert.Equal(t, []string{"ChemCo", "Solvix"}, tbl.Distinct(ColVendorName))
	assert.Nil(t, tbl.Distinct("Nope"))
}

func TestDataLoadError_Message(t *testing.T) {
	err := &DataLoadError{Path: "x.csv", Line: 4, Column: ColCurrency, Err: ErrInvalidValue}
	assert.Equal(t, `load x.csv: line 4: column "Currency": invalid value`, err.Error())
}

func TestRead_InvalidUTF8(t *testing.T) {
	src := header + "Acet\xffone,Solvent,ACS,Reagent,Chem\xc3Co,1,1,1%,USD,Mid,Yes,P,L,Valid,05-03-2024\n"

	tbl := mustRead(t, src)
	require.Equal(t, 1, tbl.Len())
	assert.Equal(t, "Acet?one", tbl.Records[0].MaterialName)
	assert.Equal(t, "Chem?Co", tbl.Records[0].VendorName)
	assert.Equal(t, int64(len(src)), tbl.Bytes)
}

func TestRead_LeadingBlankLines(t *testing.T) {
	tbl := mustRead(t, "\n,,,\n"+header+"Acetone,Solvent,ACS,Reagent,ChemCo,1,1,1%,USD,Mid,Yes,P,L,Valid,05-03-2024\n")
	require.Equal(t, 1, tbl.Len())
}

// oneByteReader returns at most one byte per Read, splitting every rune.
type oneByteReader struct{ r io.Reader }

func (o oneByteReader) Read(p []byte) (int, error) {
	if len(p) > 1 {
		p = p[:1]
	}
	return o.r.Read(p)
}

func TestSourceReader_SplitRunes(t *testing.T) {
	in := "\xEF\xBB\xBFcafé \xff naïve"

	out, err := io.ReadAll(newSourceReader(oneByteReader{strings.NewReader(in)}))
	require.NoError(t, err)
	assert.Equal(t, "café ? naïve", string(out))
}

func TestSourceReader_ShortInput(t *testing.T) {
	for _, in := range []string{"", "a", "ab", "\xEF\xBB\xBF"} {
		out, err := io.ReadAll(newSourceReader(strings.NewReader(in)))
		require.NoError(t, err)
		assert.Equal(t, strings.TrimPrefix(in, "\xEF\xBB\xBF"), string(out), "input %q", in)
	}
}
