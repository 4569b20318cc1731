package templates

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/JonMunkholm/cleanlytics/internal/core"
)

func render(t *testing.T, d PageData) string {
	t.Helper()
	var buf bytes.Buffer
	if err := Page(d).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return buf.String()
}

func TestPage_Empty(t *testing.T) {
	html := render(t, PageData{MaxUploadMB: 50})

	if !strings.Contains(html, `action="/upload"`) {
		t.Error("missing upload form")
	}
	if !strings.Contains(html, "Upload a CSV or XLSX file to begin.") {
		t.Error("missing empty-state prompt")
	}
	if strings.Contains(html, "Dashboard") {
		t.Error("dashboard rendered without data")
	}
}

func TestPage_EscapesValues(t *testing.T) {
	d := PageData{
		Loaded:   true,
		FileName: "<script>.csv",
		Raw: Preview{
			Columns: []core.ColumnInfo{{Name: "a<b", Kind: core.KindCategorical}},
			Rows:    [][]string{{`"><img src=x>`}},
			Total:   1,
		},
		Mappable: []string{"a<b"},
		Mappings: []MappingForm{{Column: "a<b", Values: []string{"x&y"}, Pending: core.Mapping{"x&y": 1.5}}},
	}
	d.Working = d.Raw

	html := render(t, d)
	for _, raw := range []string{"<script>", `"><img src=x>`, "a<b"} {
		if strings.Contains(html, raw) {
			t.Errorf("unescaped %q in output", raw)
		}
	}
	if !strings.Contains(html, `action="/mapping/a%3Cb"`) {
		t.Error("mapping form action should path-escape the column")
	}
	if !strings.Contains(html, `value="1.5"`) {
		t.Error("pending code not prefilled")
	}
}

func TestAlert(t *testing.T) {
	var buf bytes.Buffer
	err := ErrorAlert("Column not found", "Check the name", "COL001").Render(context.Background(), &buf)
	if err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "alert-error") || !strings.Contains(out, "COL001") {
		t.Errorf("unexpected alert: %s", out)
	}

	buf.Reset()
	if err := Alert(nil).Render(context.Background(), &buf); err != nil || buf.Len() != 0 {
		t.Errorf("nil alert rendered %q, %v", buf.String(), err)
	}
}
