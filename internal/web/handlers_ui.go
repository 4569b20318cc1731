package web

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/JonMunkholm/cleanlytics/internal/core"
	"github.com/JonMunkholm/cleanlytics/internal/recipe"
	"github.com/JonMunkholm/cleanlytics/internal/warehouse"
	"github.com/JonMunkholm/cleanlytics/internal/web/templates"
)

// maxRecipeSize bounds recipe uploads and request bodies.
const maxRecipeSize = 1 << 20

func success(format string, args ...any) *templates.Flash {
	return &templates.Flash{Kind: "success", Message: fmt.Sprintf(format, args...)}
}

// currentSession returns the cookie's session, or nil when there is none.
func (s *Server) currentSession(r *http.Request) *core.Session {
	sess, err := s.cookieSession(r)
	if err != nil {
		return nil
	}
	return sess
}

// handleUploadForm replaces the session's dataset with an uploaded file,
// starting a session if the browser has none.
func (s *Server) handleUploadForm(w http.ResponseWriter, r *http.Request) {
	current := s.currentSession(r)

	file, header, err := s.formFile(w, r, "file")
	if err != nil {
		s.renderPageError(w, r, current, err)
		return
	}
	defer file.Close()

	id := ""
	if current != nil {
		id = current.ID
	}
	sess, err := s.service.Upload(WithRequestMetadata(r.Context(), r), id, file, header.Filename)
	if err != nil {
		s.renderPageError(w, r, current, err)
		return
	}
	s.setSessionCookie(w, sess.ID)

	t, _ := sess.Working()
	s.renderPage(w, withSessionID(r, sess.ID), sess,
		success("Loaded %s: %d rows, %d columns.", header.Filename, t.NumRows(), t.NumCols()),
		http.StatusOK)
}

// handleCleanForm applies the cleaning checkboxes.
func (s *Server) handleCleanForm(w http.ResponseWriter, r *http.Request) {
	sess, err := s.cookieSession(r)
	if err != nil {
		s.renderPageError(w, r, nil, err)
		return
	}
	if err := parseForm(r); err != nil {
		s.renderPageError(w, r, sess, err)
		return
	}

	stats, err := sess.SetFlags(core.CleanFlags{
		RemoveDuplicates: r.PostForm.Get("remove_duplicates") == "true",
		RemoveIncomplete: r.PostForm.Get("remove_incomplete_rows") == "true",
	})
	if err != nil {
		s.renderPageError(w, r, sess, err)
		return
	}
	s.renderPage(w, r, sess,
		success("Cleaning applied: %d of %d rows kept.", stats.RowsOut, stats.RowsIn),
		http.StatusOK)
}

// handleRenameForm commits the rename table. Blank entries keep the name.
func (s *Server) handleRenameForm(w http.ResponseWriter, r *http.Request) {
	sess, err := s.cookieSession(r)
	if err != nil {
		s.renderPageError(w, r, nil, err)
		return
	}
	if err := parseForm(r); err != nil {
		s.renderPageError(w, r, sess, err)
		return
	}

	from, to := r.PostForm["from"], r.PostForm["to"]
	targets := make(map[string]string, len(from))
	for i, name := range from {
		if i < len(to) && to[i] != "" {
			targets[name] = to[i]
		}
	}

	if err := sess.Rename(targets); err != nil {
		s.renderPageError(w, r, sess, err)
		return
	}
	s.renderPage(w, r, sess, success("Column names updated."), http.StatusOK)
}

// handleMappingForm saves, discards or applies the codes of one column.
func (s *Server) handleMappingForm(w http.ResponseWriter, r *http.Request) {
	sess, err := s.cookieSession(r)
	if err != nil {
		s.renderPageError(w, r, nil, err)
		return
	}
	if err := parseForm(r); err != nil {
		s.renderPageError(w, r, sess, err)
		return
	}
	column := columnParam(r, "column")

	if r.PostForm.Get("action") == "discard" {
		if err := sess.DiscardMapping(column); err != nil {
			s.renderPageError(w, r, sess, err)
			return
		}
		s.renderPage(w, r, sess, &templates.Flash{Kind: "notice", Message: "Discarded the pending mapping of " + column + "."}, http.StatusOK)
		return
	}

	codes, err := parseMappingForm(r.PostForm["value"], r.PostForm["code"])
	if err != nil {
		s.renderPageError(w, r, sess, err)
		return
	}

	if r.PostForm.Get("action") == "save" {
		if err := sess.DeclareMapping(column, codes); err != nil {
			s.renderPageError(w, r, sess, err)
			return
		}
		s.renderPage(w, r, sess, success("Saved %d codes for %s.", len(codes), column), http.StatusOK)
		return
	}

	stats, err := sess.ApplyMapping(column, codes)
	if err != nil {
		s.renderPageError(w, r, sess, err)
		return
	}
	if stats.EmptyDomain {
		n := core.NoticeEmptyDomain
		s.renderPage(w, r, sess, &templates.Flash{Kind: "notice", Message: n.Message, Action: n.Action, Code: n.Code}, http.StatusOK)
		return
	}
	s.renderPage(w, r, sess,
		success("Mapped %s: %d values coded, %d without a code became missing.", column, stats.Mapped, stats.Unmapped),
		http.StatusOK)
}

// handleRecipeForm replays an uploaded recipe on the session.
func (s *Server) handleRecipeForm(w http.ResponseWriter, r *http.Request) {
	sess, err := s.cookieSession(r)
	if err != nil {
		s.renderPageError(w, r, nil, err)
		return
	}

	file, _, err := s.formFile(w, r, "recipe")
	if err != nil {
		s.renderPageError(w, r, sess, err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxRecipeSize))
	if err != nil {
		s.renderPageError(w, r, sess, err)
		return
	}
	rec, err := recipe.Parse(data)
	if err != nil {
		s.renderPageError(w, r, sess, err)
		return
	}
	if _, err := rec.Apply(sess); err != nil {
		s.renderPageError(w, r, sess, err)
		return
	}
	s.renderPage(w, r, sess, success("Recipe applied."), http.StatusOK)
}

// handleRecipeDownload sends the session's transformations as a recipe.
func (s *Server) handleRecipeDownload(w http.ResponseWriter, r *http.Request) {
	sess, err := s.cookieSession(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writeRecipe(w, r, sess)
}

func (s *Server) writeRecipe(w http.ResponseWriter, r *http.Request, sess *core.Session) {
	v := sess.Snapshot()
	if !v.Loaded() {
		s.respondError(w, r, core.ErrNoDataset)
		return
	}
	data, err := recipe.FromView(v).Marshal()
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.Header().Set("Content-Disposition", `attachment; filename="recipe.yaml"`)
	w.Write(data)
}

// handleLoadForm copies the working table into the configured database.
func (s *Server) handleLoadForm(w http.ResponseWriter, r *http.Request) {
	sess, err := s.cookieSession(r)
	if err != nil {
		s.renderPageError(w, r, nil, err)
		return
	}
	if err := parseForm(r); err != nil {
		s.renderPageError(w, r, sess, err)
		return
	}

	res, err := s.load(r.Context(), sess, r.PostForm.Get("table"), r.PostForm.Get("mode"))
	if err != nil {
		s.renderPageError(w, r, sess, err)
		return
	}
	s.renderPage(w, r, sess, success("Loaded %d rows into %s (%s).", res.Rows, res.Table, res.Mode), http.StatusOK)
}

func (s *Server) load(ctx context.Context, sess *core.Session, table, mode string) (warehouse.Result, error) {
	if !s.loader.Configured() {
		return warehouse.Result{}, warehouse.ErrNotConfigured
	}
	m, err := warehouse.ParseMode(mode)
	if err != nil {
		return warehouse.Result{}, err
	}
	t, err := sess.Working()
	if err != nil {
		return warehouse.Result{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Database.LoadTimeout)
	defer cancel()
	return s.loader.Load(ctx, t, table, m)
}

// handleExportDownload sends the working table as CSV or XLSX.
func (s *Server) handleExportDownload(w http.ResponseWriter, r *http.Request) {
	sess, err := s.cookieSession(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writeExport(w, r, sess)
}

// handleChartImage renders a dashboard panel for the <img> tags of the page.
func (s *Server) handleChartImage(w http.ResponseWriter, r *http.Request) {
	sess, err := s.cookieSession(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writeChart(w, r, sess)
}
