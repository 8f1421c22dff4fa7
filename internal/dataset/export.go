package dataset

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet used by WriteXLSX.
const SheetName = "Materials"

// WriteCSV writes rows with the source header row. Normalized columns are
// written in normalized form, so Read(WriteCSV(rows)) reproduces rows.
func WriteCSV(w io.Writer, rows []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	// Flush periodically so large exports stream to the client.
	const flushInterval = 1000
	for i, r := range rows {
		if err := cw.Write(r.Values()); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
		if (i+1)%flushInterval == 0 {
			cw.Flush()
			if err := cw.Error(); err != nil {
				return fmt.Errorf("flush: %w", err)
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes rows as a single-sheet workbook. Prices and deviations are
// numeric cells; everything else is text.
func WriteXLSX(w io.Writer, rows []Record) error {
	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	if err := xl.SetSheetName(xl.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := Columns()
	if err := xl.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, r := range rows {
		cells := make([]any, len(FieldSpecs))
		for j, spec := range FieldSpecs {
			switch spec.Name {
			case ColUnitPriceLatest:
				cells[j] = r.UnitPriceLatest.InexactFloat64()
			case ColBenchmarkPrice:
				cells[j] = r.BenchmarkPrice.InexactFloat64()
			case ColPriceDeviation:
				cells[j] = r.PriceDeviation
			default:
				cells[j], _ = r.Field(spec.Name)
			}
		}

		cellRef, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("cell reference for row %d: %w", i+1, err)
		}
		if err := xl.SetSheetRow(SheetName, cellRef, &cells); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if _, err := xl.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
