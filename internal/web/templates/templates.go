// Package templates holds the templ components of the Cleanlytics UI.
package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/JonMunkholm/cleanlytics/internal/core"
	"github.com/a-h/templ"
)

// Flash is a one-shot message shown at the top of the page.
type Flash struct {
	Kind    string // "error", "notice" or "success"
	Message string
	Action  string
	Code    string
}

// FlashFromMessage turns a mapped error into an error flash.
func FlashFromMessage(m core.UserMessage) *Flash {
	return &Flash{Kind: "error", Message: m.Message, Action: m.Action, Code: m.Code}
}

// Preview is a table rendered as a header plus the first rows.
type Preview struct {
	Columns []core.ColumnInfo
	Rows    [][]string
	Total   int
}

// PanelView is a dashboard panel with the URL of its chart image.
type PanelView struct {
	core.Panel
	ImageURL string
}

// MappingForm is the code entry form of one categorical column.
type MappingForm struct {
	Column  string
	Values  []string
	Pending core.Mapping
}

// PageData is everything the main page renders.
type PageData struct {
	Loaded      bool
	FileName    string
	Flash       *Flash
	Flags       core.CleanFlags
	Stats       core.CleanStats
	Raw         Preview
	Working     Preview
	Numeric     PanelView
	Categorical PanelView
	ChartKinds  []core.ChartKind

	// Mappable lists the columns a mapping can be declared for.
	Mappable []string
	Mappings []MappingForm
	Applied  []string

	DownloadURI   string
	LoaderEnabled bool
	MaxUploadMB   int64
}

// writer accumulates the first write error so components can emit markup
// without checking every call.
type writer struct {
	w   io.Writer
	err error
}

func (w *writer) raw(s string) {
	if w.err == nil {
		_, w.err = io.WriteString(w.w, s)
	}
}

func (w *writer) rawf(format string, args ...any) {
	if w.err == nil {
		_, w.err = fmt.Fprintf(w.w, format, args...)
	}
}

// text writes s HTML-escaped.
func (w *writer) text(s string) {
	w.raw(templ.EscapeString(s))
}

func (w *writer) component(ctx context.Context, c templ.Component) {
	if w.err == nil {
		w.err = c.Render(ctx, w.w)
	}
}

func checked(b bool) string {
	if b {
		return " checked"
	}
	return ""
}

func selected(b bool) string {
	if b {
		return " selected"
	}
	return ""
}
