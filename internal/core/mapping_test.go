package core

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestApplyMapping_Scenario(t *testing.T) {
	tbl := mustParse(t, "id,color\n1,red\n2,blue\n3,red\n4,green\n")

	out, stats, err := ApplyMapping(tbl, "color", Mapping{"red": 1, "blue": 2, "green": 3})
	if err != nil {
		t.Fatalf("ApplyMapping() error = %v", err)
	}

	col, _ := out.Column("color")
	if col.Kind != KindNumeric {
		t.Errorf("Kind = %v, want numeric", col.Kind)
	}
	want := []Value{Number(1), Number(2), Number(1), Number(3)}
	if !reflect.DeepEqual(col.Values, want) {
		t.Errorf("Values = %+v, want %+v", col.Values, want)
	}
	if stats != (MappingStats{Column: "color", Mapped: 4}) {
		t.Errorf("stats = %+v", stats)
	}

	// input untouched, other columns shared
	orig, _ := tbl.Column("color")
	if orig.Kind != KindCategorical {
		t.Error("input column kind changed")
	}
	if out.Columns[0] != tbl.Columns[0] {
		t.Error("untouched column should be shared")
	}
}

func TestApplyMapping_PartialDomain(t *testing.T) {
	tbl := mustParse(t, "c\nred\nblue\nNA\npurple\n")

	out, stats, err := ApplyMapping(tbl, "c", Mapping{"red": 10})
	if err != nil {
		t.Fatalf("ApplyMapping() error = %v", err)
	}
	if got := cells(t, out, "c"); !reflect.DeepEqual(got, []string{"10", "", "", ""}) {
		t.Errorf("c = %v", got)
	}
	if stats.Mapped != 1 || stats.Unmapped != 2 {
		t.Errorf("stats = %+v, want 1 mapped, 2 unmapped", stats)
	}
}

func TestApplyMapping_Rejections(t *testing.T) {
	tbl := mustParse(t, "n,c\n1,a\n2,b\n")

	t.Run("numeric column", func(t *testing.T) {
		out, _, err := ApplyMapping(tbl, "n", Mapping{"1": 5})
		if !errors.Is(err, ErrNotCategorical) {
			t.Errorf("error = %v, want ErrNotCategorical", err)
		}
		if out != tbl {
			t.Error("table changed on rejection")
		}
	})

	t.Run("second application", func(t *testing.T) {
		once, _, err := ApplyMapping(tbl, "c", Mapping{"a": 1, "b": 2})
		if err != nil {
			t.Fatalf("first ApplyMapping() error = %v", err)
		}
		twice, _, err := ApplyMapping(once, "c", Mapping{"a": 1, "b": 2})
		if !errors.Is(err, ErrNotCategorical) {
			t.Errorf("error = %v, want ErrNotCategorical", err)
		}
		if got := cells(t, twice, "c"); !reflect.DeepEqual(got, []string{"1", "2"}) {
			t.Errorf("c = %v after rejected second apply", got)
		}
	})

	t.Run("non-finite codes", func(t *testing.T) {
		for _, code := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
			out, _, err := ApplyMapping(tbl, "c", Mapping{"a": 1, "b": code})
			if !errors.Is(err, ErrInvalidCode) {
				t.Errorf("code %v: error = %v, want ErrInvalidCode", code, err)
			}
			if out != tbl {
				t.Errorf("code %v: table changed on rejection", code)
			}
		}
	})

	t.Run("unknown column", func(t *testing.T) {
		_, _, err := ApplyMapping(tbl, "nope", Mapping{})
		if !errors.Is(err, ErrUnknownColumn) {
			t.Errorf("error = %v, want ErrUnknownColumn", err)
		}
	})
}

func TestApplyMapping_EmptyDomain(t *testing.T) {
	// "x" forces the column categorical; it is then dropped, leaving no values.
	raw := mustParse(t, "k,c\n1,x\n2,\n")
	tbl := raw.filterRows([]bool{false, true})

	out, stats, err := ApplyMapping(tbl, "c", Mapping{"x": 1})
	if err != nil {
		t.Fatalf("ApplyMapping() error = %v", err)
	}
	if !stats.EmptyDomain {
		t.Error("EmptyDomain = false, want true")
	}
	if out != tbl {
		t.Error("empty domain must leave the table unchanged")
	}
}

func TestDistinctValues(t *testing.T) {
	tbl := mustParse(t, "c,n\nred,1\nblue,2\n,3\nred,4\ngreen,5\nblue,6\n")

	got, err := DistinctValues(tbl, "c")
	if err != nil {
		t.Fatalf("DistinctValues() error = %v", err)
	}
	if want := []string{"red", "blue", "green"}; !reflect.DeepEqual(got, want) {
		t.Errorf("DistinctValues() = %v, want %v", got, want)
	}

	if _, err := DistinctValues(tbl, "n"); !errors.Is(err, ErrNotCategorical) {
		t.Errorf("numeric column error = %v, want ErrNotCategorical", err)
	}
}
