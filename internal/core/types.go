package core

import (
	"fmt"
	"slices"
)

// ColumnKind is the inferred type category of a column.
type ColumnKind int

const (
	KindCategorical ColumnKind = iota
	KindNumeric
)

// String returns the lowercase kind name used in JSON and templates.
func (k ColumnKind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	default:
		return "categorical"
	}
}

// MarshalText encodes the kind as its name.
func (k ColumnKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name written by MarshalText.
func (k *ColumnKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "numeric":
		*k = KindNumeric
	case "categorical":
		*k = KindCategorical
	default:
		return fmt.Errorf("unknown column kind %q", b)
	}
	return nil
}

// Value is a single cell. A cell is either missing, a number (numeric
// columns) or a string (categorical columns).
type Value struct {
	Num   float64
	Str   string
	Valid bool // false means the cell is missing
}

// Missing returns a missing cell.
func Missing() Value { return Value{} }

// Number returns a numeric cell.
func Number(f float64) Value { return Value{Num: f, Valid: true} }

// Text returns a categorical cell.
func Text(s string) Value { return Value{Str: s, Valid: true} }

// Column is a named, typed sequence of cells.
type Column struct {
	Name   string
	Kind   ColumnKind
	Values []Value
}

// Clone returns a deep copy of the column.
func (c *Column) Clone() *Column {
	return &Column{
		Name:   c.Name,
		Kind:   c.Kind,
		Values: slices.Clone(c.Values),
	}
}

// Format renders cell i the way it is exported: empty for missing cells,
// shortest round-trip form for numbers.
func (c *Column) Format(i int) string {
	v := c.Values[i]
	if !v.Valid {
		return ""
	}
	if c.Kind == KindNumeric {
		return FormatNumber(v.Num)
	}
	return v.Str
}

// Table is an ordered set of equal-length columns.
type Table struct {
	Columns []*Column
}

// NumRows returns the row count.
func (t *Table) NumRows() int {
	if t == nil || len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0].Values)
}

// NumCols returns the column count.
func (t *Table) NumCols() int {
	if t == nil {
		return 0
	}
	return len(t.Columns)
}

// Names returns the column names in table order.
func (t *Table) Names() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Index returns the position of the named column, or -1.
func (t *Table) Index(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Column returns the named column.
func (t *Table) Column(name string) (*Column, bool) {
	if i := t.Index(name); i >= 0 {
		return t.Columns[i], true
	}
	return nil, false
}

// ColumnsOfKind returns the names of columns with the given kind.
func (t *Table) ColumnsOfKind(kind ColumnKind) []string {
	var names []string
	for _, c := range t.Columns {
		if c.Kind == kind {
			names = append(names, c.Name)
		}
	}
	return names
}

// Clone returns a deep copy; the copy never aliases t's cell slices.
func (t *Table) Clone() *Table {
	out := &Table{Columns: make([]*Column, len(t.Columns))}
	for i, c := range t.Columns {
		out.Columns[i] = c.Clone()
	}
	return out
}

// Record returns row i formatted as strings, in column order.
func (t *Table) Record(i int) []string {
	rec := make([]string, len(t.Columns))
	for j, c := range t.Columns {
		rec[j] = c.Format(i)
	}
	return rec
}

// Head returns up to n formatted rows.
func (t *Table) Head(n int) [][]string {
	rows := t.NumRows()
	if n < 0 || n > rows {
		n = rows
	}
	out := make([][]string, n)
	for i := 0; i < n; i++ {
		out[i] = t.Record(i)
	}
	return out
}

// filterRows returns a new table holding only the rows whose keep flag is set.
func (t *Table) filterRows(keep []bool) *Table {
	n := 0
	for _, k := range keep {
		if k {
			n++
		}
	}
	out := &Table{Columns: make([]*Column, len(t.Columns))}
	for j, c := range t.Columns {
		vals := make([]Value, 0, n)
		for i, v := range c.Values {
			if keep[i] {
				vals = append(vals, v)
			}
		}
		out.Columns[j] = &Column{Name: c.Name, Kind: c.Kind, Values: vals}
	}
	return out
}

// ColumnInfo summarises a column for listings.
type ColumnInfo struct {
	Name     string     `json:"name"`
	Kind     ColumnKind `json:"kind"`
	Missing  int        `json:"missing"`
	Distinct int        `json:"distinct"`
}

// Describe summarises every column of t.
func (t *Table) Describe() []ColumnInfo {
	infos := make([]ColumnInfo, len(t.Columns))
	for i, c := range t.Columns {
		info := ColumnInfo{Name: c.Name, Kind: c.Kind}
		seen := make(map[Value]struct{})
		for _, v := range c.Values {
			if !v.Valid {
				info.Missing++
				continue
			}
			seen[v] = struct{}{}
		}
		info.Distinct = len(seen)
		infos[i] = info
	}
	return infos
}
