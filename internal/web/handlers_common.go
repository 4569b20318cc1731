package web

// handlers_common.go holds helpers shared by the page handlers and the JSON
// API: session lookup, upload parsing, panel selection and file responses.

import (
	"bytes"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/cleanlytics/internal/chart"
	"github.com/JonMunkholm/cleanlytics/internal/core"
	"github.com/go-chi/chi/v5"
)

// sessionCookie carries the session ID of browser users.
const sessionCookie = "cleanlytics_session"

// multipartOverhead is allowed on top of the file size limit for the
// multipart envelope.
const multipartOverhead = 1 << 20

// parseIntParam parses a positive integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// cookieSession resolves the browser's session.
func (s *Server) cookieSession(r *http.Request) (*core.Session, error) {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return nil, core.ErrSessionNotFound
	}
	return s.service.Get(c.Value)
}

func (s *Server) setSessionCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.Session.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// formFile reads one file field of a multipart request. The caller closes
// the returned file.
func (s *Server) formFile(w http.ResponseWriter, r *http.Request, field string) (multipart.File, *multipart.FileHeader, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize+multipartOverhead)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return nil, nil, fmt.Errorf("%w: exceeds %d bytes", core.ErrFileTooLarge, s.cfg.Upload.MaxFileSize)
		}
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			return nil, nil, errNoFile
		}
		return nil, nil, fmt.Errorf("read upload: %w", err)
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, nil, errNoFile
	}
	return file, header, nil
}

// columnParam returns a column name from the route, undoing path escaping.
func columnParam(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return v
	}
	if unescaped, err := url.PathUnescape(v); err == nil {
		return unescaped
	}
	return v
}

// parseForm reads a urlencoded form body, reporting a malformed one as a
// bad request.
func parseForm(r *http.Request) error {
	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("%w: %v", errBadBody, err)
	}
	return nil
}

// parseMappingForm pairs value/code fields. Blank codes leave the value
// unmapped.
func parseMappingForm(values, codes []string) (core.Mapping, error) {
	if len(values) != len(codes) {
		return nil, fmt.Errorf("%w: %d values but %d codes", core.ErrInvalidCode, len(values), len(codes))
	}
	m := make(core.Mapping, len(values))
	for i, v := range values {
		c := strings.TrimSpace(codes[i])
		if c == "" {
			continue
		}
		f, err := strconv.ParseFloat(c, 64)
		if err != nil {
			return nil, fmt.Errorf("%w %q for %q", core.ErrInvalidCode, c, v)
		}
		m[v] = f
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// buildPanel derives the named dashboard panel from the working table.
func buildPanel(t *core.Table, panel, column, kind string) (core.Panel, error) {
	switch core.PanelKind(panel) {
	case core.PanelNumeric:
		k, err := core.ParseChartKind(kind)
		if err != nil {
			return core.Panel{}, err
		}
		return core.NumericPanel(t, column, k)
	case core.PanelCategorical:
		return core.CategoricalPanel(t, column)
	default:
		return core.Panel{}, fmt.Errorf("%w %q", errUnknownPanel, panel)
	}
}

// writeChart renders a panel of sess as an image.
func (s *Server) writeChart(w http.ResponseWriter, r *http.Request, sess *core.Session) {
	format, err := chart.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	t, err := sess.Working()
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	q := r.URL.Query()
	p, err := buildPanel(t, chi.URLParam(r, "panel"), q.Get("column"), q.Get("kind"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := chart.Render(&buf, p, format, s.chartOptions()); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}

// writeExport sends the working table of sess as a download.
func (s *Server) writeExport(w http.ResponseWriter, r *http.Request, sess *core.Session) {
	format, err := core.ParseExportFormat(chi.URLParam(r, "format"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	t, err := sess.Working()
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := core.Export(&buf, t, format); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, format.FileName()))
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}

// SessionSummary is the JSON form of a session.
type SessionSummary struct {
	core.View
	CreatedAt  time.Time         `json:"created_at"`
	RawRows    int               `json:"raw_rows"`
	Rows       int               `json:"rows"`
	Columns    []core.ColumnInfo `json:"columns"`
	RawColumns []core.ColumnInfo `json:"raw_columns"`
}

func summarize(sess *core.Session) SessionSummary {
	v := sess.Snapshot()
	sum := SessionSummary{View: v, CreatedAt: sess.CreatedAt}
	if v.Loaded() {
		sum.RawRows = v.Raw.NumRows()
		sum.Rows = v.Working.NumRows()
		sum.Columns = v.Working.Describe()
		sum.RawColumns = v.Raw.Describe()
	}
	return sum
}
