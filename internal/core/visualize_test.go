package core

import (
	"errors"
	"reflect"
	"testing"
)

func TestNumericPanel_Histogram(t *testing.T) {
	tbl := mustParse(t, "score\n5\n5\n7\n3\n")

	p, err := NumericPanel(tbl, "score", ChartHistogram)
	if err != nil {
		t.Fatalf("NumericPanel() error = %v", err)
	}
	want := []Point{{"5", 2}, {"7", 1}, {"3", 1}}
	if !reflect.DeepEqual(p.Points, want) {
		t.Errorf("Points = %v, want %v", p.Points, want)
	}
	if p.Empty {
		t.Error("Empty = true, want false")
	}
}

func TestNumericPanel_RawSeries(t *testing.T) {
	tbl := mustParse(t, "v\n4\nNA\n6\n")

	for _, kind := range []ChartKind{ChartLine, ChartBar} {
		p, err := NumericPanel(tbl, "", kind)
		if err != nil {
			t.Fatalf("%s: error = %v", kind, err)
		}
		if p.Column != "v" || p.Chart != kind {
			t.Errorf("%s: column/chart = %q/%q", kind, p.Column, p.Chart)
		}
		want := []Point{{"0", 4}, {"2", 6}}
		if !reflect.DeepEqual(p.Points, want) {
			t.Errorf("%s: Points = %v, want %v", kind, p.Points, want)
		}
	}
}

func TestNumericPanel_NothingToShow(t *testing.T) {
	t.Run("no numeric columns", func(t *testing.T) {
		tbl := mustParse(t, "name\nAlice\n")
		p, err := NumericPanel(tbl, "", ChartHistogram)
		if err != nil {
			t.Fatalf("error = %v, want nil", err)
		}
		if !p.Empty || p.Message == "" {
			t.Errorf("panel = %+v, want empty with message", p)
		}
	})

	t.Run("zero rows", func(t *testing.T) {
		tbl := mustParse(t, "n,c\n")
		p, err := NumericPanel(tbl, "", ChartLine)
		if err != nil {
			t.Fatalf("error = %v", err)
		}
		if !p.Empty || p.Column != "n" {
			t.Errorf("panel = %+v, want empty panel for n", p)
		}
	})
}

func TestCategoricalPanel(t *testing.T) {
	tbl := mustParse(t, "color,n\nred,1\nblue,2\nred,3\ngreen,4\nblue,5\n")

	p, err := CategoricalPanel(tbl, "")
	if err != nil {
		t.Fatalf("CategoricalPanel() error = %v", err)
	}
	want := []Point{{"red", 2}, {"blue", 2}, {"green", 1}}
	if !reflect.DeepEqual(p.Points, want) {
		t.Errorf("Points = %v, want %v", p.Points, want)
	}
	if !reflect.DeepEqual(p.Eligible, []string{"color"}) {
		t.Errorf("Eligible = %v", p.Eligible)
	}
}

func TestPanels_AreIndependent(t *testing.T) {
	tbl := mustParse(t, "a,b\n1,2\n3,4\n")

	cat, err := CategoricalPanel(tbl, "")
	if err != nil || !cat.Empty {
		t.Errorf("categorical = %+v, %v; want empty", cat, err)
	}
	num, err := NumericPanel(tbl, "", ChartHistogram)
	if err != nil || num.Empty {
		t.Errorf("numeric = %+v, %v; want populated", num, err)
	}
}

func TestPanels_WrongColumn(t *testing.T) {
	tbl := mustParse(t, "n,c\n1,x\n")

	if _, err := NumericPanel(tbl, "c", ChartHistogram); !errors.Is(err, ErrWrongKind) {
		t.Errorf("numeric panel on categorical column: error = %v", err)
	}
	if _, err := CategoricalPanel(tbl, "n"); !errors.Is(err, ErrWrongKind) {
		t.Errorf("categorical panel on numeric column: error = %v", err)
	}
	if _, err := CategoricalPanel(tbl, "zzz"); !errors.Is(err, ErrUnknownColumn) {
		t.Errorf("unknown column: error = %v", err)
	}
}

func TestParseChartKind(t *testing.T) {
	tests := []struct {
		in      string
		want    ChartKind
		wantErr bool
	}{
		{"", ChartHistogram, false},
		{"line", ChartLine, false},
		{"bar", ChartBar, false},
		{"histogram", ChartHistogram, false},
		{"pie", "", true},
	}
	for _, tt := range tests {
		got, err := ParseChartKind(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseChartKind(%q) = %q, %v", tt.in, got, err)
		}
	}
}
