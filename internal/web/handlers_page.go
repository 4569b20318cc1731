package web

// handlers_page.go builds the main page. Form posts re-render the page
// directly with a flash message, so selections carried in the form (mapped
// columns, chart choices) survive the round trip.

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"

	"github.com/JonMunkholm/cleanlytics/internal/core"
	"github.com/JonMunkholm/cleanlytics/internal/logging"
	"github.com/JonMunkholm/cleanlytics/internal/web/templates"
	"golang.org/x/sync/errgroup"
)

// dataURIMaxRows caps the table size for which an inline download link is
// embedded in the page.
const dataURIMaxRows = 5000

// handlePage renders the workflow page for the cookie's session.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	sess, err := s.cookieSession(r)
	if err != nil {
		var flash *templates.Flash
		if _, cerr := r.Cookie(sessionCookie); cerr == nil {
			// The cookie outlived its session.
			clearSessionCookie(w)
			msg := core.MapError(err)
			flash = &templates.Flash{Kind: "notice", Message: msg.Message, Action: msg.Action, Code: msg.Code}
		}
		s.renderPage(w, r, nil, flash, http.StatusOK)
		return
	}
	s.renderPage(w, r, sess, nil, http.StatusOK)
}

// renderPage writes the page for sess (nil renders the empty state).
func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, sess *core.Session, flash *templates.Flash, status int) {
	data, err := s.pageData(r.Context(), sess, pageQuery(r))
	if err != nil {
		logging.FromContext(r.Context()).Error("build page", "error", err)
		data.Flash = templates.FlashFromMessage(core.MapError(err))
	}
	if flash != nil {
		data.Flash = flash
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := templates.Page(data).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render page", "error", err)
	}
}

// renderPageError re-renders the page with err as an error flash.
func (s *Server) renderPageError(w http.ResponseWriter, r *http.Request, sess *core.Session, err error) {
	status := statusFor(err)
	msg := core.MapError(err)
	logError(r, err, status, msg)

	flash := templates.FlashFromMessage(msg)
	var collision *core.CollisionError
	if errors.As(err, &collision) {
		flash.Action = msg.Action + ". " + collision.Error()
	}
	s.renderPage(w, r, sess, flash, status)
}

// pageQuery returns the page selections. Form posts carry them in the body;
// handlers have already reported a body that does not parse.
func pageQuery(r *http.Request) url.Values {
	if r.Method == http.MethodGet {
		return r.URL.Query()
	}
	if r.Form == nil {
		r.ParseForm()
	}
	return r.Form
}

// pageData assembles the view model. The two dashboard panels and the
// download link are derived concurrently from one immutable snapshot.
func (s *Server) pageData(ctx context.Context, sess *core.Session, q url.Values) (templates.PageData, error) {
	d := templates.PageData{
		ChartKinds:    core.ChartKinds,
		LoaderEnabled: s.loader.Configured(),
		MaxUploadMB:   s.cfg.Upload.MaxFileSize >> 20,
	}
	if sess == nil {
		return d, nil
	}
	v := sess.Snapshot()
	if !v.Loaded() {
		return d, nil
	}

	d.Loaded = true
	d.FileName = v.FileName
	d.Flags = v.Flags
	d.Stats = v.CleanStats
	d.Applied = v.Applied
	d.Raw = s.preview(v.Raw)
	d.Working = s.preview(v.Working)
	d.Mappable = v.Working.ColumnsOfKind(core.KindCategorical)

	for _, col := range uniqueValues(q["map"]) {
		values, err := core.DistinctValues(v.Working, col)
		if err != nil {
			// Mapped or renamed since it was selected.
			continue
		}
		d.Mappings = append(d.Mappings, templates.MappingForm{Column: col, Values: values, Pending: v.Pending[col]})
	}

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		d.Numeric = s.panelView(v.Working, core.PanelNumeric, q.Get("num"), q.Get("kind"))
		return nil
	})
	g.Go(func() error {
		d.Categorical = s.panelView(v.Working, core.PanelCategorical, q.Get("cat"), "")
		return nil
	})
	if v.Working.NumRows() <= dataURIMaxRows {
		g.Go(func() error {
			uri, err := core.CSVDataURI(v.Working)
			if err != nil {
				return fmt.Errorf("build download link: %w", err)
			}
			d.DownloadURI = uri
			return nil
		})
	}
	return d, g.Wait()
}

// panelView derives a panel and the URL of its chart. A stale selection
// (a column renamed or mapped since) falls back to the default column.
func (s *Server) panelView(t *core.Table, panel core.PanelKind, column, kind string) templates.PanelView {
	p, err := buildPanel(t, string(panel), column, kind)
	if err != nil {
		p, _ = buildPanel(t, string(panel), "", "")
	}

	q := url.Values{}
	q.Set("column", p.Column)
	if panel == core.PanelNumeric {
		q.Set("kind", string(p.Chart))
	}
	return templates.PanelView{
		Panel:    p,
		ImageURL: "/chart/" + string(panel) + ".svg?" + q.Encode(),
	}
}

// preview summarises t for display.
func (s *Server) preview(t *core.Table) templates.Preview {
	return templates.Preview{
		Columns: t.Describe(),
		Rows:    t.Head(s.cfg.Chart.PreviewRows),
		Total:   t.NumRows(),
	}
}

// uniqueValues drops blank and repeated entries, keeping order.
func uniqueValues(in []string) []string {
	var out []string
	for _, v := range in {
		if v != "" && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}
