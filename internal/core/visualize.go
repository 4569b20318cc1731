package core

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
)

// ErrWrongKind is returned when a panel is asked to chart a column of the
// other kind.
var ErrWrongKind = errors.New("column kind not eligible for this panel")

// ChartKind selects how a numeric column is summarised.
type ChartKind string

const (
	ChartHistogram ChartKind = "histogram"
	ChartLine      ChartKind = "line"
	ChartBar       ChartKind = "bar"
)

// ChartKinds lists the numeric chart kinds in display order.
var ChartKinds = []ChartKind{ChartHistogram, ChartLine, ChartBar}

// ParseChartKind validates a chart kind; empty selects the histogram.
func ParseChartKind(s string) (ChartKind, error) {
	switch ChartKind(s) {
	case "":
		return ChartHistogram, nil
	case ChartHistogram, ChartLine, ChartBar:
		return ChartKind(s), nil
	default:
		return "", fmt.Errorf("unknown chart kind %q", s)
	}
}

// PanelKind identifies one of the two dashboard panels.
type PanelKind string

const (
	PanelNumeric     PanelKind = "numeric"
	PanelCategorical PanelKind = "categorical"
)

// Point is one labelled magnitude of a series.
type Point struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Panel is the display series for one dashboard panel. When Empty is set the
// panel has nothing to show and Message says why.
type Panel struct {
	Kind     PanelKind `json:"panel"`
	Chart    ChartKind `json:"chart"`
	Column   string    `json:"column,omitempty"`
	Eligible []string  `json:"eligible"`
	Points   []Point   `json:"points,omitempty"`
	Empty    bool      `json:"empty"`
	Message  string    `json:"message,omitempty"`
}

// NumericPanel derives the numeric panel. An empty column selects the first
// numeric column; an ineligible one is an error.
func NumericPanel(t *Table, column string, kind ChartKind) (Panel, error) {
	p := Panel{Kind: PanelNumeric, Chart: kind, Eligible: t.ColumnsOfKind(KindNumeric)}
	if len(p.Eligible) == 0 {
		p.Empty, p.Message = true, "No numeric columns to visualize."
		return p, nil
	}

	col, err := pickColumn(t, column, p.Eligible, KindNumeric)
	if err != nil {
		return p, err
	}
	p.Column = col.Name

	switch kind {
	case ChartLine, ChartBar:
		p.Points = rawSeries(col)
	default:
		p.Chart = ChartHistogram
		p.Points = ValueCounts(col)
	}

	if len(p.Points) == 0 {
		p.Empty, p.Message = true, fmt.Sprintf("Column %q has no values to visualize.", col.Name)
	}
	return p, nil
}

// CategoricalPanel derives the frequency panel of a categorical column.
func CategoricalPanel(t *Table, column string) (Panel, error) {
	p := Panel{Kind: PanelCategorical, Chart: ChartBar, Eligible: t.ColumnsOfKind(KindCategorical)}
	if len(p.Eligible) == 0 {
		p.Empty, p.Message = true, "No categorical columns to visualize."
		return p, nil
	}

	col, err := pickColumn(t, column, p.Eligible, KindCategorical)
	if err != nil {
		return p, err
	}
	p.Column = col.Name
	p.Points = ValueCounts(col)

	if len(p.Points) == 0 {
		p.Empty, p.Message = true, fmt.Sprintf("Column %q has no values to visualize.", col.Name)
	}
	return p, nil
}

func pickColumn(t *Table, name string, eligible []string, kind ColumnKind) (*Column, error) {
	if name == "" {
		name = eligible[0]
	}
	col, ok := t.Column(name)
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownColumn)
	}
	if col.Kind != kind {
		return nil, fmt.Errorf("%q is %s: %w", name, col.Kind, ErrWrongKind)
	}
	return col, nil
}

// rawSeries returns the column's values in row order, labelled by row
// position. Missing cells are skipped.
func rawSeries(col *Column) []Point {
	points := make([]Point, 0, len(col.Values))
	for i, v := range col.Values {
		if !v.Valid {
			continue
		}
		points = append(points, Point{Label: strconv.Itoa(i), Value: v.Num})
	}
	return points
}

// ValueCounts counts each distinct non-missing value, most frequent first;
// ties keep first-seen order.
func ValueCounts(col *Column) []Point {
	index := make(map[Value]int)
	var points []Point
	for i := range col.Values {
		v := col.Values[i]
		if !v.Valid {
			continue
		}
		if j, ok := index[v]; ok {
			points[j].Value++
			continue
		}
		index[v] = len(points)
		points = append(points, Point{Label: col.Format(i), Value: 1})
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Value > points[j].Value
	})
	return points
}
