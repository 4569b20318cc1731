package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/JonMunkholm/cleanlytics/internal/core"
	"github.com/JonMunkholm/cleanlytics/internal/recipe"
	"github.com/go-chi/chi/v5"
)

type ctxKey int

const ctxKeySession ctxKey = iota

// withAPISession resolves {id} and stores the session in the context.
func (s *Server) withAPISession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.service.Get(chi.URLParam(r, "id"))
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		r = withSessionID(r, sess.ID)
		ctx := context.WithValue(r.Context(), ctxKeySession, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func apiSession(r *http.Request) *core.Session {
	return r.Context().Value(ctxKeySession).(*core.Session)
}

// decodeJSON reads a JSON body into v. An empty body leaves v untouched when
// allowEmpty is set.
func decodeJSON(r *http.Request, v any, allowEmpty bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRecipeSize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: %v", errBadBody, err)
	}
	return nil
}

// apiCreateSession starts a session from a multipart upload.
func (s *Server) apiCreateSession(w http.ResponseWriter, r *http.Request) {
	file, header, err := s.formFile(w, r, "file")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer file.Close()

	sess, err := s.service.Upload(WithRequestMetadata(r.Context(), r), "", file, header.Filename)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/sessions/"+sess.ID)
	writeJSON(w, r, http.StatusCreated, summarize(sess))
}

// apiReplaceFile loads a new file into an existing session.
func (s *Server) apiReplaceFile(w http.ResponseWriter, r *http.Request) {
	sess := apiSession(r)
	file, header, err := s.formFile(w, r, "file")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer file.Close()

	if _, err := s.service.Upload(WithRequestMetadata(r.Context(), r), sess.ID, file, header.Filename); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, summarize(sess))
}

func (s *Server) apiGetSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, summarize(apiSession(r)))
}

func (s *Server) apiDeleteSession(w http.ResponseWriter, r *http.Request) {
	s.service.Delete(apiSession(r).ID)
	w.WriteHeader(http.StatusNoContent)
}

// RowsResponse is a page of formatted rows.
type RowsResponse struct {
	Table   string     `json:"table"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Offset  int        `json:"offset"`
	Total   int        `json:"total"`
}

// apiRows pages through the working table, or the raw one with ?table=raw.
func (s *Server) apiRows(w http.ResponseWriter, r *http.Request) {
	v := apiSession(r).Snapshot()
	if !v.Loaded() {
		s.respondError(w, r, core.ErrNoDataset)
		return
	}

	t, which := v.Working, "working"
	if r.URL.Query().Get("table") == "raw" {
		t, which = v.Raw, "raw"
	}
	limit := parseIntParam(r, "limit", s.cfg.Chart.PreviewRows)
	offset := parseIntParam(r, "offset", 0)

	resp := RowsResponse{Table: which, Columns: t.Names(), Offset: offset, Total: t.NumRows(), Rows: [][]string{}}
	for i := offset; i < t.NumRows() && i < offset+limit; i++ {
		resp.Rows = append(resp.Rows, t.Record(i))
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) apiColumns(w http.ResponseWriter, r *http.Request) {
	sum := summarize(apiSession(r))
	if !sum.Loaded() {
		s.respondError(w, r, core.ErrNoDataset)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"raw":     sum.RawColumns,
		"working": sum.Columns,
	})
}

func (s *Server) apiClean(w http.ResponseWriter, r *http.Request) {
	sess := apiSession(r)
	var flags core.CleanFlags
	if err := decodeJSON(r, &flags, false); err != nil {
		s.respondError(w, r, err)
		return
	}
	if _, err := sess.SetFlags(flags); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, summarize(sess))
}

// RenameRequest maps current column names to new ones.
type RenameRequest struct {
	Targets map[string]string `json:"targets"`
}

func (s *Server) apiRename(w http.ResponseWriter, r *http.Request) {
	sess := apiSession(r)
	var req RenameRequest
	if err := decodeJSON(r, &req, false); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := sess.Rename(req.Targets); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, summarize(sess))
}

func (s *Server) apiDistinctValues(w http.ResponseWriter, r *http.Request) {
	column := columnParam(r, "column")
	values, err := apiSession(r).DistinctValues(column)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if values == nil {
		values = []string{}
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"column": column, "values": values})
}

// MappingRequest carries the codes of a categorical column.
type MappingRequest struct {
	Codes core.Mapping `json:"codes"`
}

func (s *Server) apiDeclareMapping(w http.ResponseWriter, r *http.Request) {
	sess := apiSession(r)
	var req MappingRequest
	if err := decodeJSON(r, &req, false); err != nil {
		s.respondError(w, r, err)
		return
	}
	if req.Codes == nil {
		req.Codes = core.Mapping{}
	}
	if err := sess.DeclareMapping(columnParam(r, "column"), req.Codes); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, summarize(sess))
}

func (s *Server) apiDiscardMapping(w http.ResponseWriter, r *http.Request) {
	if err := apiSession(r).DiscardMapping(columnParam(r, "column")); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ApplyMappingResponse reports the outcome of applying a mapping.
type ApplyMappingResponse struct {
	Stats  core.MappingStats `json:"stats"`
	Notice *core.UserMessage `json:"notice,omitempty"`
}

// apiApplyMapping applies the codes in the body, or the pending mapping when
// the body is empty.
func (s *Server) apiApplyMapping(w http.ResponseWriter, r *http.Request) {
	sess := apiSession(r)
	var req MappingRequest
	if err := decodeJSON(r, &req, true); err != nil {
		s.respondError(w, r, err)
		return
	}

	stats, err := sess.ApplyMapping(columnParam(r, "column"), req.Codes)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	resp := ApplyMappingResponse{Stats: stats}
	if stats.EmptyDomain {
		notice := core.NoticeEmptyDomain
		resp.Notice = &notice
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) apiPanel(w http.ResponseWriter, r *http.Request) {
	t, err := apiSession(r).Working()
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
	if p.Eligible == nil {
		p.Eligible = []string{}
	}
	writeJSON(w, r, http.StatusOK, p)
}

func (s *Server) apiChartImage(w http.ResponseWriter, r *http.Request) {
	s.writeChart(w, r, apiSession(r))
}

func (s *Server) apiExport(w http.ResponseWriter, r *http.Request) {
	s.writeExport(w, r, apiSession(r))
}

func (s *Server) apiGetRecipe(w http.ResponseWriter, r *http.Request) {
	s.writeRecipe(w, r, apiSession(r))
}

// apiApplyRecipe replays a YAML recipe sent as the request body.
func (s *Server) apiApplyRecipe(w http.ResponseWriter, r *http.Request) {
	sess := apiSession(r)
	data, err := io.ReadAll(io.LimitReader(r.Body, maxRecipeSize))
	if err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %v", errBadBody, err))
		return
	}
	rec, err := recipe.Parse(data)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	stats, err := rec.Apply(sess)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"mappings": stats,
		"session":  summarize(sess),
	})
}

// LoadRequest names the target of a database load.
type LoadRequest struct {
	Table string `json:"table"`
	Mode  string `json:"mode"`
}

func (s *Server) apiLoad(w http.ResponseWriter, r *http.Request) {
	var req LoadRequest
	if err := decodeJSON(r, &req, false); err != nil {
		s.respondError(w, r, err)
		return
	}
	res, err := s.load(r.Context(), apiSession(r), req.Table, req.Mode)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}
