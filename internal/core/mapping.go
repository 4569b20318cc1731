package core

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
)

var (
	// ErrNotCategorical is returned when a mapping targets a column that is
	// not categorical, including one that was already mapped.
	ErrNotCategorical = errors.New("mapping not applicable: column is not categorical")

	// ErrInvalidCode is returned for codes that are NaN or infinite.
	ErrInvalidCode = errors.New("invalid mapping code")
)

// Mapping is a partial function from categorical value to numeric code.
type Mapping map[string]float64

// Validate rejects NaN and infinite codes.
func (m Mapping) Validate() error {
	for _, v := range slices.Sorted(maps.Keys(m)) {
		if c := m[v]; math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("%w %v for %q: codes must be finite", ErrInvalidCode, c, v)
		}
	}
	return nil
}

// MappingStats reports the outcome of applying a mapping.
type MappingStats struct {
	Column   string `json:"column"`
	Mapped   int    `json:"mapped"`
	Unmapped int    `json:"unmapped"` // non-missing cells outside the mapping's domain
	// EmptyDomain is set when the column had no non-missing values; the
	// table is left as it was.
	EmptyDomain bool `json:"empty_domain"`
}

// DistinctValues returns the non-missing distinct values of a categorical
// column in first-seen order.
func DistinctValues(t *Table, column string) ([]string, error) {
	col, ok := t.Column(column)
	if !ok {
		return nil, fmt.Errorf("%q: %w", column, ErrUnknownColumn)
	}
	if col.Kind != KindCategorical {
		return nil, fmt.Errorf("%q: %w", column, ErrNotCategorical)
	}

	var values []string
	seen := make(map[string]struct{})
	for _, v := range col.Values {
		if !v.Valid {
			continue
		}
		if _, ok := seen[v.Str]; ok {
			continue
		}
		seen[v.Str] = struct{}{}
		values = append(values, v.Str)
	}
	return values, nil
}

// ApplyMapping replaces every cell of a categorical column with its code and
// returns a new table in which the column is numeric. Cells whose value is
// not in m become missing. A column with no values is left as it was.
func ApplyMapping(t *Table, column string, m Mapping) (*Table, MappingStats, error) {
	idx := t.Index(column)
	if idx < 0 {
		return t, MappingStats{}, fmt.Errorf("%q: %w", column, ErrUnknownColumn)
	}
	out, stats, err := mapColumn(t, idx, m)
	if err != nil || stats.EmptyDomain {
		return t, stats, err
	}
	return out, stats, nil
}

// mapColumn converts column idx unconditionally, so replaying a journaled
// mapping over fewer rows still yields a numeric column.
func mapColumn(t *Table, idx int, m Mapping) (*Table, MappingStats, error) {
	col := t.Columns[idx]
	stats := MappingStats{Column: col.Name}

	if col.Kind != KindCategorical {
		return t, stats, fmt.Errorf("%q: %w", col.Name, ErrNotCategorical)
	}
	if err := m.Validate(); err != nil {
		return t, stats, err
	}

	values := make([]Value, len(col.Values))
	for i, v := range col.Values {
		if !v.Valid {
			continue
		}
		code, ok := m[v.Str]
		if !ok {
			stats.Unmapped++
			continue
		}
		values[i] = Number(code)
		stats.Mapped++
	}
	stats.EmptyDomain = stats.Mapped+stats.Unmapped == 0

	out := &Table{Columns: make([]*Column, len(t.Columns))}
	copy(out.Columns, t.Columns)
	out.Columns[idx] = &Column{Name: col.Name, Kind: KindNumeric, Values: values}
	return out, stats, nil
}
