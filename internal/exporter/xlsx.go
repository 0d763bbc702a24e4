package exporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"salespulse/pkg/contracts/domain"
)

// SheetName is the worksheet holding exported records
const SheetName = "sales"

// WriteXLSX writes the dataset as a single-sheet workbook. Numeric columns
// are stored as numbers and missing values as empty cells.
func WriteXLSX(w io.Writer, ds *domain.Dataset) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("failed to open stream writer: %w", err)
	}

	header := make([]interface{}, len(ds.Columns))
	for i, name := range ds.ColumnNames() {
		header[i] = name
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	row := make([]interface{}, len(ds.Columns))
	for i := range ds.Records {
		for c, col := range ds.Columns {
			v := cellValue(&ds.Records[i], col)
			if v == nil {
				v = ""
			}
			row[c] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}
	return f.Write(w)
}

// Write dispatches to the writer for format
func Write(w io.Writer, ds *domain.Dataset, format string) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, ds, WriteOptions{BOMPrefix: true})
	case FormatXLSX:
		return WriteXLSX(w, ds)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}
