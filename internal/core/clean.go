package core

import (
	"encoding/binary"
	"math"

	"github.com/zeebo/xxh3"
)

// CleanFlags selects the row filters of the cleaning stage.
type CleanFlags struct {
	RemoveDuplicates bool `json:"remove_duplicates" yaml:"remove_duplicates"`
	RemoveIncomplete bool `json:"remove_incomplete_rows" yaml:"remove_incomplete_rows"`
}

// CleanStats reports what the cleaning stage removed.
type CleanStats struct {
	RowsIn            int `json:"rows_in"`
	DuplicatesDropped int `json:"duplicates_dropped"`
	IncompleteDropped int `json:"incomplete_dropped"`
	RowsOut           int `json:"rows_out"`
}

// Clean applies the enabled filters to t and returns a new table; t is not
// modified. Duplicates are removed before incomplete rows.
func Clean(t *Table, flags CleanFlags) (*Table, CleanStats) {
	stats := CleanStats{RowsIn: t.NumRows()}
	out := t

	if flags.RemoveDuplicates {
		before := out.NumRows()
		out = RemoveDuplicates(out)
		stats.DuplicatesDropped = before - out.NumRows()
	}
	if flags.RemoveIncomplete {
		before := out.NumRows()
		out = RemoveIncomplete(out)
		stats.IncompleteDropped = before - out.NumRows()
	}
	if out == t {
		out = t.Clone()
	}

	stats.RowsOut = out.NumRows()
	return out, stats
}

// RemoveDuplicates drops every row equal, cell by cell, to an earlier row.
// Missing cells compare equal to each other. The first occurrence is kept and
// the relative order of kept rows is preserved.
func RemoveDuplicates(t *Table) *Table {
	rows := t.NumRows()
	keep := make([]bool, rows)
	buckets := make(map[uint64][]int, rows)

	var buf []byte
	for i := 0; i < rows; i++ {
		buf = appendRowKey(buf[:0], t, i)
		h := xxh3.Hash(buf)

		dup := false
		for _, prev := range buckets[h] {
			if rowsEqual(t, prev, i) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		buckets[h] = append(buckets[h], i)
		keep[i] = true
	}
	return t.filterRows(keep)
}

// RemoveIncomplete drops every row holding at least one missing cell.
func RemoveIncomplete(t *Table) *Table {
	rows := t.NumRows()
	keep := make([]bool, rows)
	for i := range keep {
		keep[i] = true
	}
	for _, c := range t.Columns {
		for i, v := range c.Values {
			if !v.Valid {
				keep[i] = false
			}
		}
	}
	return t.filterRows(keep)
}

// appendRowKey encodes row i so equal rows produce equal bytes.
func appendRowKey(buf []byte, t *Table, i int) []byte {
	for _, c := range t.Columns {
		v := c.Values[i]
		switch {
		case !v.Valid:
			buf = append(buf, 0)
		case c.Kind == KindNumeric:
			f := v.Num
			if f == 0 {
				f = 0 // fold -0 into +0
			}
			buf = append(buf, 1)
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(f))
		default:
			buf = append(buf, 2)
			buf = binary.LittleEndian.AppendUint32(buf, uint32(len(v.Str)))
			buf = append(buf, v.Str...)
		}
	}
	return buf
}

func rowsEqual(t *Table, a, b int) bool {
	for _, c := range t.Columns {
		if c.Values[a] != c.Values[b] {
			return false
		}
	}
	return true
}
