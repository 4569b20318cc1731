package core

import (
	"math"
	"testing"
)

// ----------------------------------------------------------------------------
// ParseNumber Tests
// ----------------------------------------------------------------------------

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		wantOK bool
		want   float64
	}{
		{name: "positive integer", input: "123", wantOK: true, want: 123},
		{name: "zero", input: "0", wantOK: true, want: 0},
		{name: "negative integer", input: "-456", wantOK: true, want: -456},
		{name: "explicit plus", input: "+7", wantOK: true, want: 7},
		{name: "decimal", input: "123.45", wantOK: true, want: 123.45},
		{name: "leading decimal point", input: ".99", wantOK: true, want: 0.99},
		{name: "trailing decimal point", input: "99.", wantOK: true, want: 99},
		{name: "scientific", input: "1.5e3", wantOK: true, want: 1500},
		{name: "negative exponent", input: "25E-1", wantOK: true, want: 2.5},
		{name: "surrounding whitespace", input: "  42  ", wantOK: true, want: 42},

		{name: "empty", input: "", wantOK: false},
		{name: "currency symbol", input: "$1234.56", wantOK: false},
		{name: "thousands separator", input: "1,234", wantOK: false},
		{name: "word", input: "Alice", wantOK: false},
		{name: "infinity", input: "inf", wantOK: false},
		{name: "hex", input: "0x1F", wantOK: false},
		{name: "two dots", input: "1.2.3", wantOK: false},
		{name: "out of range", input: "1e400", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseNumber(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseNumber(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ParseNumber(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// IsMissing Tests
// ----------------------------------------------------------------------------

func TestIsMissing(t *testing.T) {
	missing := []string{"", "   ", "NA", "N/A", "n/a", "NaN", "nan", "-nan", "NULL", "null",
		"None", "<NA>", "#N/A", "#N/A N/A", "#NA", "-1.#IND", "1.#QNAN", " NA "}
	for _, s := range missing {
		if !IsMissing(s) {
			t.Errorf("IsMissing(%q) = false, want true", s)
		}
	}

	present := []string{"0", "none", "Null", "na", "n.a.", "-", "missing"}
	for _, s := range present {
		if IsMissing(s) {
			t.Errorf("IsMissing(%q) = true, want false", s)
		}
	}
}

// ----------------------------------------------------------------------------
// FormatNumber Tests
// ----------------------------------------------------------------------------

func TestFormatNumber(t *testing.T) {
	a, b := 0.1, 0.2
	tests := []struct {
		in   float64
		want string
	}{
		{30, "30"},
		{1.5, "1.5"},
		{-0.25, "-0.25"},
		{a + b, "0.30000000000000004"},
		{1e21, "1000000000000000000000"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatNumber_RoundTrips(t *testing.T) {
	for _, f := range []float64{0.1, 1.0 / 3, math.Pi, 123456.789, -2.5e-8} {
		got, ok := ParseNumber(FormatNumber(f))
		if !ok || got != f {
			t.Errorf("round trip of %v gave %v (ok=%v)", f, got, ok)
		}
	}
}

// ----------------------------------------------------------------------------
// inferColumn Tests
// ----------------------------------------------------------------------------

func TestInferColumn(t *testing.T) {
	tests := []struct {
		name     string
		cells    []string
		wantKind ColumnKind
		want     []Value
	}{
		{
			name:     "all numbers",
			cells:    []string{"1", "2.5", "-3"},
			wantKind: KindNumeric,
			want:     []Value{Number(1), Number(2.5), Number(-3)},
		},
		{
			name:     "numbers with missing",
			cells:    []string{"30", "", "NA"},
			wantKind: KindNumeric,
			want:     []Value{Number(30), Missing(), Missing()},
		},
		{
			name:     "one word makes the column categorical",
			cells:    []string{"1", "two", "3"},
			wantKind: KindCategorical,
			want:     []Value{Text("1"), Text("two"), Text("3")},
		},
		{
			name:     "categorical values are trimmed",
			cells:    []string{" red ", "blue", "null"},
			wantKind: KindCategorical,
			want:     []Value{Text("red"), Text("blue"), Missing()},
		},
		{
			name:     "all missing is numeric",
			cells:    []string{"", "NA", "  "},
			wantKind: KindNumeric,
			want:     []Value{Missing(), Missing(), Missing()},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			col := inferColumn("c", tt.cells)
			if col.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", col.Kind, tt.wantKind)
			}
			if len(col.Values) != len(tt.want) {
				t.Fatalf("len(Values) = %d, want %d", len(col.Values), len(tt.want))
			}
			for i := range tt.want {
				if col.Values[i] != tt.want[i] {
					t.Errorf("Values[%d] = %+v, want %+v", i, col.Values[i], tt.want[i])
				}
			}
		})
	}
}
