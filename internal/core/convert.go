package core

// convert.go turns raw cell text into typed values.
//
// Cells are trimmed, checked against the NA tokens, and numbers are accepted
// only in plain decimal or scientific notation. Currency symbols, thousands
// separators and words such as "inf" keep a column categorical.

import (
	"regexp"
	"strconv"
	"strings"
)

// numericRegex validates that a string is a plain number.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// naTokens are cell contents read as missing values.
var naTokens = map[string]struct{}{
	"":         {},
	"#N/A":     {},
	"#N/A N/A": {},
	"#NA":      {},
	"-1.#IND":  {},
	"-1.#QNAN": {},
	"-NaN":     {},
	"-nan":     {},
	"1.#IND":   {},
	"1.#QNAN":  {},
	"<NA>":     {},
	"N/A":      {},
	"NA":       {},
	"NULL":     {},
	"NaN":      {},
	"None":     {},
	"n/a":      {},
	"nan":      {},
	"null":     {},
}

// IsMissing reports whether raw cell text denotes a missing value.
func IsMissing(s string) bool {
	_, ok := naTokens[strings.TrimSpace(s)]
	return ok
}

// ParseNumber parses a plain decimal number. Returns false for anything the
// numeric regex rejects.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if !numericRegex.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// out of range
		return 0, false
	}
	return f, true
}

// FormatNumber renders f in its shortest round-trip form ("30", "1.5").
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// inferColumn builds a typed column from raw cells. The column is numeric
// when every non-missing cell parses as a number.
func inferColumn(name string, cells []string) *Column {
	numeric := true
	for _, s := range cells {
		if IsMissing(s) {
			continue
		}
		if _, ok := ParseNumber(s); !ok {
			numeric = false
			break
		}
	}

	col := &Column{Name: name, Values: make([]Value, len(cells))}
	if numeric {
		col.Kind = KindNumeric
	} else {
		col.Kind = KindCategorical
	}

	for i, s := range cells {
		if IsMissing(s) {
			continue
		}
		if numeric {
			f, _ := ParseNumber(s)
			col.Values[i] = Number(f)
		} else {
			col.Values[i] = Text(strings.TrimSpace(s))
		}
	}
	return col
}
