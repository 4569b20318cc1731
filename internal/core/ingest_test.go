package core

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"golang.org/x/text/encoding/charmap"
)

// mustParse parses CSV text or fails the test.
func mustParse(t *testing.T, text string) *Table {
	t.Helper()
	tbl, err := ParseCSV([]byte(text), IngestOptions{})
	if err != nil {
		t.Fatalf("ParseCSV() error = %v", err)
	}
	return tbl
}

// cells returns the formatted cells of a column, "" for missing.
func cells(t *testing.T, tbl *Table, name string) []string {
	t.Helper()
	col, ok := tbl.Column(name)
	if !ok {
		t.Fatalf("column %q not found in %v", name, tbl.Names())
	}
	out := make([]string, len(col.Values))
	for i := range col.Values {
		out[i] = col.Format(i)
	}
	return out
}

func TestParseCSV_Basic(t *testing.T) {
	tbl := mustParse(t, "name,age\nAlice,30\nBob,\nAlice,30\n")

	if got := tbl.Names(); !reflect.DeepEqual(got, []string{"name", "age"}) {
		t.Errorf("Names() = %v", got)
	}
	if tbl.NumRows() != 3 {
		t.Fatalf("NumRows() = %d, want 3", tbl.NumRows())
	}

	name, _ := tbl.Column("name")
	age, _ := tbl.Column("age")
	if name.Kind != KindCategorical || age.Kind != KindNumeric {
		t.Errorf("kinds = %v/%v, want categorical/numeric", name.Kind, age.Kind)
	}
	if age.Values[1].Valid {
		t.Errorf("age[1] = %+v, want missing", age.Values[1])
	}
	if got := cells(t, tbl, "age"); !reflect.DeepEqual(got, []string{"30", "", "30"}) {
		t.Errorf("age = %v", got)
	}
}

func TestParseCSV_NATokensAreMissing(t *testing.T) {
	tbl := mustParse(t, "x,y\n1,NA\nN/A,b\nnull,#N/A\n4,None\n")

	x, _ := tbl.Column("x")
	if x.Kind != KindNumeric {
		t.Errorf("x kind = %v, want numeric", x.Kind)
	}
	if got := cells(t, tbl, "x"); !reflect.DeepEqual(got, []string{"1", "", "", "4"}) {
		t.Errorf("x = %v", got)
	}
	if got := cells(t, tbl, "y"); !reflect.DeepEqual(got, []string{"", "b", "", ""}) {
		t.Errorf("y = %v", got)
	}
}

func TestParseCSV_Header(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"duplicates get suffixes", "a,a,a\n1,2,3\n", []string{"a", "a.1", "a.2"}},
		{"suffix avoids existing name", "a,a.1,a\n1,2,3\n", []string{"a", "a.1", "a.2"}},
		{"blank header", "a,,c\n1,2,3\n", []string{"a", "Unnamed: 1", "c"}},
		{"names are trimmed", " a , b \n1,2\n", []string{"a", "b"}},
		{"decomposed accent is composed", "cafe\u0301\n1\n", []string{"caf\u00e9"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := mustParse(t, tt.input)
			if got := tbl.Names(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Names() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseCSV_RaggedRows(t *testing.T) {
	t.Run("short rows are padded", func(t *testing.T) {
		tbl := mustParse(t, "a,b,c\n1,2\n4,5,6\n")
		if got := cells(t, tbl, "c"); !reflect.DeepEqual(got, []string{"", "6"}) {
			t.Errorf("c = %v", got)
		}
	})

	t.Run("long rows are rejected", func(t *testing.T) {
		_, err := ParseCSV([]byte("a,b\n1,2\n3,4,5\n"), IngestOptions{})
		if err == nil {
			t.Fatal("expected error for row wider than header")
		}
		if !strings.Contains(err.Error(), "line 3") {
			t.Errorf("error %q should name line 3", err)
		}
		if got := MapError(err).Code; got != "FILE002" {
			t.Errorf("code = %q, want FILE002", got)
		}
	})
}

func TestParseCSV_Empty(t *testing.T) {
	for _, input := range []string{"", "\n\n", " , \n"} {
		_, err := ParseCSV([]byte(input), IngestOptions{})
		if !errors.Is(err, ErrEmptyFile) {
			t.Errorf("ParseCSV(%q) error = %v, want ErrEmptyFile", input, err)
		}
	}
}

func TestParseCSV_HeaderOnly(t *testing.T) {
	tbl := mustParse(t, "a,b\n")
	if tbl.NumCols() != 2 || tbl.NumRows() != 0 {
		t.Errorf("got %d cols x %d rows, want 2 x 0", tbl.NumCols(), tbl.NumRows())
	}
}

func TestParseCSV_Encoding(t *testing.T) {
	t.Run("utf-8 BOM is stripped", func(t *testing.T) {
		tbl := mustParse(t, "\ufeffname,age\nAlice,30\n")
		if got := tbl.Names()[0]; got != "name" {
			t.Errorf("first header = %q, want %q", got, "name")
		}
	})

	t.Run("windows-1252 fallback", func(t *testing.T) {
		data, err := charmap.Windows1252.NewEncoder().Bytes([]byte("city\nMünchen\nSão Paulo\n"))
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		tbl, err := ParseCSV(data, IngestOptions{Fallback: charmap.Windows1252})
		if err != nil {
			t.Fatalf("ParseCSV() error = %v", err)
		}
		if got := cells(t, tbl, "city"); !reflect.DeepEqual(got, []string{"München", "São Paulo"}) {
			t.Errorf("city = %q", got)
		}
	})

	t.Run("invalid bytes replaced without fallback", func(t *testing.T) {
		tbl, err := ParseCSV([]byte("c\nab\xffc\n"), IngestOptions{})
		if err != nil {
			t.Fatalf("ParseCSV() error = %v", err)
		}
		if got := cells(t, tbl, "c")[0]; got != "ab\ufffdc" {
			t.Errorf("cell = %q, want replacement character", got)
		}
	})
}

func TestLookupEncoding(t *testing.T) {
	tests := []struct {
		name    string
		wantNil bool
		wantErr bool
	}{
		{"", true, false},
		{"none", true, false},
		{"Windows-1252", false, false},
		{"latin1", false, false},
		{"ebcdic", true, true},
	}
	for _, tt := range tests {
		enc, err := LookupEncoding(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("LookupEncoding(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
		if (enc == nil) != tt.wantNil {
			t.Errorf("LookupEncoding(%q) = %v, wantNil %v", tt.name, enc, tt.wantNil)
		}
	}
}

func TestIngest_Dispatch(t *testing.T) {
	t.Run("unsupported extension", func(t *testing.T) {
		_, err := Ingest(strings.NewReader("a\n1\n"), "report.pdf", IngestOptions{})
		if !errors.Is(err, ErrUnsupportedFile) {
			t.Errorf("error = %v, want ErrUnsupportedFile", err)
		}
	})

	t.Run("size limit", func(t *testing.T) {
		_, err := Ingest(strings.NewReader("a,b\n1,2\n"), "x.csv", IngestOptions{MaxBytes: 4})
		if !errors.Is(err, ErrFileTooLarge) {
			t.Errorf("error = %v, want ErrFileTooLarge", err)
		}
	})

	t.Run("extension is case-insensitive", func(t *testing.T) {
		tbl, err := Ingest(strings.NewReader("a\n1\n"), "DATA.CSV", IngestOptions{})
		if err != nil || tbl.NumRows() != 1 {
			t.Errorf("Ingest() = %v, %v", tbl, err)
		}
	})
}

func TestIngest_XLSX(t *testing.T) {
	src := mustParse(t, "name,score\nAlice,1.5\nBob,\n,7\n")

	var buf bytes.Buffer
	if err := WriteXLSX(&buf, src); err != nil {
		t.Fatalf("WriteXLSX() error = %v", err)
	}

	tbl, err := Ingest(&buf, "upload.xlsx", IngestOptions{})
	if err != nil {
		t.Fatalf("Ingest(xlsx) error = %v", err)
	}
	if got := tbl.Names(); !reflect.DeepEqual(got, []string{"name", "score"}) {
		t.Errorf("Names() = %v", got)
	}
	if got := cells(t, tbl, "score"); !reflect.DeepEqual(got, []string{"1.5", "", "7"}) {
		t.Errorf("score = %v", got)
	}
	if got := cells(t, tbl, "name"); !reflect.DeepEqual(got, []string{"Alice", "Bob", ""}) {
		t.Errorf("name = %v", got)
	}
}

func TestIngest_InvalidXLSX(t *testing.T) {
	_, err := Ingest(strings.NewReader("not a zip"), "x.xlsx", IngestOptions{})
	if got := MapError(err).Code; got != "FILE002" {
		t.Errorf("code = %q (err %v), want FILE002", got, err)
	}
}
