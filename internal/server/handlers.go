package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/KaramelBytes/bizdata-cli/internal/advisor"
	"github.com/KaramelBytes/bizdata-cli/internal/ai"
	"github.com/KaramelBytes/bizdata-cli/internal/analysis"
	"github.com/KaramelBytes/bizdata-cli/internal/dataset"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

type datasetView struct {
	ID           string                `json:"id"`
	Name         string                `json:"name"`
	Uploaded     time.Time             `json:"uploaded"`
	Headers      []string              `json:"headers"`
	RowCount     int                   `json:"rowCount"`
	Cleaned      bool                  `json:"cleaned"`
	Capabilities analysis.Capabilities `json:"capabilities"`
	Columns      analysis.Columns      `json:"columns"`
	Stats        analysis.Snapshot     `json:"stats"`
}

func viewOf(e *entry) datasetView {
	res := e.Session.Result()
	return datasetView{
		ID:           e.ID,
		Name:         res.Name(),
		Uploaded:     e.Uploaded,
		Headers:      res.Dataset.Headers,
		RowCount:     res.RecordCount(),
		Cleaned:      res.Cleaned,
		Capabilities: res.Capabilities,
		Columns:      res.Columns,
		Stats:        res.Stats,
	}
}

func (s *Server) entryFor(w http.ResponseWriter, r *http.Request) (*entry, bool) {
	e, ok := s.store.get(chi.URLParam(r, "id"))
	if !ok {
		s.notFound(w, r)
	}
	return e, ok
}

func (s *Server) analyze(ds *dataset.Dataset) *analysis.Result {
	start := time.Now()
	res := analysis.Analyze(ds, s.cfg.Analysis)
	s.metrics.analysisDuration.Observe(time.Since(start).Seconds())
	return res
}

// handleUpload handles POST /api/datasets with a multipart "file" field.
// The optional "sheet" form value selects an XLSX worksheet.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.metrics.uploads.WithLabelValues("too_large").Inc()
			s.fail(w, r, http.StatusRequestEntityTooLarge, typeTooLarge, "upload exceeds the size limit")
			return
		}
		s.metrics.uploads.WithLabelValues("invalid").Inc()
		s.fail(w, r, http.StatusBadRequest, typeValidation, "expected a multipart form with a file field")
		return
	}
	file, hdr, err := r.FormFile("file")
	if err != nil {
		s.metrics.uploads.WithLabelValues("invalid").Inc()
		s.fail(w, r, http.StatusBadRequest, typeValidation, "file is required")
		return
	}
	defer file.Close()

	opt := s.cfg.Load
	if sheet := r.FormValue("sheet"); sheet != "" {
		opt.SheetName = sheet
	}
	ds, err := dataset.Read(file, hdr.Filename, opt)
	switch {
	case errors.Is(err, dataset.ErrEmptyInput):
		s.metrics.uploads.WithLabelValues("empty").Inc()
		s.fail(w, r, http.StatusUnprocessableEntity, typeEmptyInput, "The file appears to be empty.")
		return
	case errors.Is(err, dataset.ErrUnsupportedFormat):
		s.metrics.uploads.WithLabelValues("unsupported").Inc()
		s.fail(w, r, http.StatusUnsupportedMediaType, typeUnsupported, err.Error())
		return
	case err != nil:
		s.metrics.uploads.WithLabelValues("invalid").Inc()
		s.fail(w, r, http.StatusBadRequest, typeValidation, err.Error())
		return
	}

	e := s.newEntry(s.analyze(ds))
	s.store.put(e)
	s.metrics.uploads.WithLabelValues("ok").Inc()
	s.metrics.datasets.Set(float64(s.store.len()))
	res := e.Session.Result()
	s.logger.InfoContext(r.Context(), "dataset loaded",
		"id", e.ID,
		"name", hdr.Filename,
		"rows", res.RecordCount(),
		"financial", res.Capabilities.HasFinancialData,
		"time", res.Capabilities.HasTimeData,
	)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, viewOf(e))
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	type item struct {
		ID       string    `json:"id"`
		Name     string    `json:"name"`
		RowCount int       `json:"rowCount"`
		Uploaded time.Time `json:"uploaded"`
	}
	out := []item{}
	for _, e := range s.store.list() {
		res := e.Session.Result()
		out = append(out, item{ID: e.ID, Name: res.Name(), RowCount: res.RecordCount(), Uploaded: e.Uploaded})
	}
	render.JSON(w, r, out)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	if e, ok := s.entryFor(w, r); ok {
		render.JSON(w, r, viewOf(e))
	}
}

// handleDelete discards the dataset and its conversation.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if !s.store.delete(chi.URLParam(r, "id")) {
		s.notFound(w, r)
		return
	}
	s.metrics.datasets.Set(float64(s.store.len()))
	w.WriteHeader(http.StatusNoContent)
}

// handleRows pages through the current rows with offset/limit query params.
func (s *Server) handleRows(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entryFor(w, r)
	if !ok {
		return
	}
	offset, err1 := queryInt(r, "offset", 0)
	limit, err2 := queryInt(r, "limit", defaultPageSize)
	if err1 != nil || err2 != nil || offset < 0 || limit < 1 {
		s.fail(w, r, http.StatusBadRequest, typeValidation, "offset must be >= 0 and limit >= 1")
		return
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	ds := e.Session.Result().Dataset
	offset = min(offset, ds.Len())
	end := offset + min(limit, ds.Len()-offset)
	render.JSON(w, r, map[string]any{
		"total":   ds.Len(),
		"offset":  offset,
		"limit":   limit,
		"headers": ds.Headers,
		"rows":    ds.Rows[offset:end],
	})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if e, ok := s.entryFor(w, r); ok {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = w.Write([]byte(e.Session.Result().Markdown()))
	}
}

// handleClean replaces the dataset and snapshot with their cleaned versions.
func (s *Server) handleClean(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entryFor(w, r)
	if !ok {
		return
	}
	start := time.Now()
	cleaned := analysis.Clean(e.Session.Result(), s.cfg.Analysis)
	s.metrics.analysisDuration.Observe(time.Since(start).Seconds())
	e.Session.SetResult(cleaned)
	s.metrics.cleans.Inc()
	s.logger.InfoContext(r.Context(), "dataset cleaned", "id", e.ID, "rows", cleaned.RecordCount())
	render.JSON(w, r, viewOf(e))
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	if e, ok := s.entryFor(w, r); ok {
		render.JSON(w, r, map[string]any{"messages": e.Session.Messages()})
	}
}

type chatRequest struct {
	Question string `json:"question" validate:"required,max=2000"`
}

type chatResponse struct {
	Reply    string       `json:"reply"`
	Messages []ai.Message `json:"messages"`
	Error    string       `json:"error,omitempty"`
}

// handleChat answers one question. Advisor failures still return 200 with the
// apology as reply so the conversation log stays the single source of truth.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entryFor(w, r)
	if !ok {
		return
	}
	var req chatRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		s.fail(w, r, http.StatusBadRequest, typeValidation, "body must be JSON like {\"question\": \"...\"}")
		return
	}
	req.Question = strings.TrimSpace(req.Question)
	if err := s.validate.Struct(req); err != nil {
		s.metrics.chats.WithLabelValues("invalid").Inc()
		s.failValidation(w, r, err)
		return
	}
	if !e.Limiter.Allow() {
		s.metrics.chats.WithLabelValues("rate_limited").Inc()
		w.Header().Set("Retry-After", "1")
		s.fail(w, r, http.StatusTooManyRequests, typeRateLimit, "too many questions, slow down")
		return
	}

	reply, err := e.Session.Ask(r.Context(), req.Question)
	switch {
	case errors.Is(err, advisor.ErrBusy):
		s.metrics.chats.WithLabelValues("busy").Inc()
		s.fail(w, r, http.StatusConflict, typeConflict, err.Error())
		return
	case errors.Is(err, advisor.ErrEmptyQuestion):
		s.metrics.chats.WithLabelValues("invalid").Inc()
		s.fail(w, r, http.StatusBadRequest, typeValidation, "question is required")
		return
	}
	resp := chatResponse{Reply: reply, Messages: e.Session.Messages()}
	if err != nil {
		s.metrics.chats.WithLabelValues("failed").Inc()
		s.logger.WarnContext(r.Context(), "advisor unavailable", "id", e.ID, "error", err)
		resp.Error = err.Error()
	} else {
		s.metrics.chats.WithLabelValues("ok").Inc()
	}
	render.JSON(w, r, resp)
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
