package core

import (
	"bytes"
	"encoding/base64"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/JonMunkholm/cleanlytics/internal/metrics"
	"github.com/xuri/excelize/v2"
)

// ExportBaseName is the download name of exported tables, without extension.
const ExportBaseName = "cleaned_data"

// ExportFormat is a serialization of the working table.
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatXLSX ExportFormat = "xlsx"
)

// ParseExportFormat validates a format name; empty selects CSV.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch ExportFormat(s) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// FileName returns the download file name for the format.
func (f ExportFormat) FileName() string {
	return ExportBaseName + "." + string(f)
}

// ContentType returns the MIME type of the format.
func (f ExportFormat) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Export writes t to w in the given format.
func Export(w io.Writer, t *Table, format ExportFormat) error {
	start := time.Now()
	var err error
	switch format {
	case FormatXLSX:
		err = WriteXLSX(w, t)
	case FormatCSV:
		err = WriteCSV(w, t)
	default:
		err = fmt.Errorf("unsupported export format %q", format)
	}
	metrics.RecordStep("export", err, time.Since(start))
	return err
}

// WriteCSV writes the header and every row of t. Missing cells are written
// as empty fields. A row made of a single empty field is written as "" so
// readers do not skip it as a blank line.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Names()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := 0; i < t.NumRows(); i++ {
		rec := t.Record(i)
		if len(rec) == 1 && rec[0] == "" {
			cw.Flush()
			if err := cw.Error(); err != nil {
				return fmt.Errorf("write row %d: %w", i+1, err)
			}
			if _, err := io.WriteString(w, "\"\"\n"); err != nil {
				return fmt.Errorf("write row %d: %w", i+1, err)
			}
			continue
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// CSVDataURI returns t as a base64 data URI suitable for a download link.
func CSVDataURI(t *Table) (string, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, t); err != nil {
		return "", err
	}
	return "data:text/csv;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// WriteXLSX writes t as a workbook with a single sheet named cleaned_data.
// Numeric cells are stored as numbers and missing cells are left blank.
func WriteXLSX(w io.Writer, t *Table) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := ExportBaseName
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	for j, c := range t.Columns {
		cell, err := excelize.CoordinatesToCellName(j+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, c.Name); err != nil {
			return fmt.Errorf("write header %q: %w", c.Name, err)
		}

		for i, v := range c.Values {
			if !v.Valid {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return err
			}
			var val any = v.Str
			if c.Kind == KindNumeric {
				val = v.Num
			}
			if err := f.SetCellValue(sheet, cell, val); err != nil {
				return fmt.Errorf("write %s: %w", cell, err)
			}
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
