package core

// ingest.go parses an uploaded file into a Table.
//
// CSV and XLSX uploads share the same table builder:
//   - The first record is the header. Blank names become "Unnamed: N" and
//     repeated names get ".1", ".2" suffixes so names stay unique
//   - Short rows are padded with missing cells
//   - Rows wider than the header are rejected
//   - Column kinds are inferred from the values (see inferColumn)

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding"
)

var (
	// ErrEmptyFile is returned when the upload has no header row.
	ErrEmptyFile = errors.New("empty file: no columns found")

	// ErrFileTooLarge is returned when the upload exceeds the size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrUnsupportedFile is returned for extensions other than csv/txt/xlsx.
	ErrUnsupportedFile = errors.New("unsupported file type")
)

// IngestOptions control parsing of an upload.
type IngestOptions struct {
	// MaxBytes caps the upload size; 0 means unlimited.
	MaxBytes int64
	// Fallback decodes uploads that are not valid UTF-8. Nil replaces
	// invalid bytes with U+FFFD.
	Fallback encoding.Encoding
	// Sheet selects the XLSX worksheet; empty means the first sheet.
	Sheet string
}

// Ingest reads an upload and builds a table, choosing the parser from the
// file name's extension.
func Ingest(r io.Reader, filename string, opts IngestOptions) (*Table, error) {
	data, err := readLimited(r, opts.MaxBytes)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt", "":
		return ParseCSV(data, opts)
	case ".xlsx", ".xlsm":
		return ParseXLSX(data, opts)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, filepath.Ext(filename))
	}
}

func readLimited(r io.Reader, max int64) ([]byte, error) {
	if max <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > max {
		return nil, fmt.Errorf("%w: exceeds %d bytes", ErrFileTooLarge, max)
	}
	return data, nil
}

// ParseCSV parses comma-separated text into a table.
func ParseCSV(data []byte, opts IngestOptions) (*Table, error) {
	text, err := decodeText(data, opts.Fallback)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(bytes.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var records [][]string
	var lines []int
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid csv: %w", err)
		}
		line, _ := reader.FieldPos(0)
		records = append(records, rec)
		lines = append(lines, line)
	}

	return buildTable(records, lines)
}

// ParseXLSX reads the first (or configured) worksheet of a workbook.
func ParseXLSX(data []byte, opts IngestOptions) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("invalid xlsx: %w", err)
	}
	defer f.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrEmptyFile
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("invalid xlsx: read sheet %q: %w", sheet, err)
	}

	// Worksheets carry blank rows that a CSV reader would skip.
	var records [][]string
	var lines []int
	for i, row := range rows {
		if isEmptyRow(row) {
			continue
		}
		records = append(records, row)
		lines = append(lines, i+1)
	}
	return buildTable(records, lines)
}

// buildTable turns header + data records into typed columns. lines holds the
// source line of each record for error messages.
func buildTable(records [][]string, lines []int) (*Table, error) {
	if len(records) == 0 || isEmptyRow(records[0]) {
		return nil, ErrEmptyFile
	}

	header := uniqueHeader(records[0])
	width := len(header)
	data := records[1:]

	cells := make([][]string, width)
	for j := range cells {
		cells[j] = make([]string, len(data))
	}

	for i, row := range data {
		if len(row) > width {
			return nil, fmt.Errorf("invalid csv: line %d has %d fields, expected %d",
				lines[i+1], len(row), width)
		}
		for j, cell := range row {
			cells[j][i] = cell
		}
	}

	t := &Table{Columns: make([]*Column, width)}
	for j, name := range header {
		t.Columns[j] = inferColumn(name, cells[j])
	}
	return t, nil
}

// uniqueHeader normalises header names and makes them unique.
func uniqueHeader(raw []string) []string {
	names := make([]string, len(raw))
	used := make(map[string]bool, len(raw))
	next := make(map[string]int, len(raw))

	for i, h := range raw {
		name := NormalizeName(h)
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		if used[name] {
			base := name
			n := next[base]
			for {
				n++
				name = base + "." + strconv.Itoa(n)
				if !used[name] {
					break
				}
			}
			next[base] = n
		}
		used[name] = true
		names[i] = name
	}
	return names
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
