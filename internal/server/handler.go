// Package server exposes the session workflow over HTTP.
package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/KaramelBytes/tabloom-cli/internal/analysis"
	"github.com/KaramelBytes/tabloom-cli/internal/chart"
	"github.com/KaramelBytes/tabloom-cli/internal/estimator"
	"github.com/KaramelBytes/tabloom-cli/internal/parser"
	"github.com/KaramelBytes/tabloom-cli/internal/prep"
	"github.com/KaramelBytes/tabloom-cli/internal/session"
	"github.com/KaramelBytes/tabloom-cli/internal/workflow"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionHandler serves the upload, EDA and training pages of stored sessions.
type SessionHandler struct {
	store     *session.Store
	wf        *workflow.Workflow
	charts    *chart.Renderer
	log       *zap.Logger
	maxUpload int64
}

// NewSessionHandler wires a handler to its collaborators.
func NewSessionHandler(store *session.Store, wf *workflow.Workflow, log *zap.Logger) *SessionHandler {
	cfg := wf.Config()
	if log == nil {
		log = zap.NewNop()
	}
	return &SessionHandler{
		store:     store,
		wf:        wf,
		charts:    chart.New(cfg.ChartWidth, cfg.ChartHeight),
		log:       log,
		maxUpload: int64(cfg.MaxUploadMB) << 20,
	}
}

// RegisterRoutes registers the session routes on r.
func (h *SessionHandler) RegisterRoutes(r chi.Router) {
	r.Post("/sessions", h.CreateSession)
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Delete("/", h.DeleteSession)
		r.Post("/upload", h.withSession(h.Upload))
		r.Get("/preview", h.withSession(h.Preview))
		r.Post("/eda", h.withSession(h.EDA))
		r.Post("/train", h.withSession(h.Train))
		r.Get("/charts/histogram.png", h.withSession(h.HistogramPNG))
		r.Get("/charts/heatmap.png", h.withSession(h.HeatmapPNG))
		r.Get("/charts/predictions.png", h.withSession(h.PredictionsPNG))
	})
}

type sessionFunc func(w http.ResponseWriter, r *http.Request, s *session.Session)

// withSession resolves {id} and holds the session lock for the whole interaction.
func (h *SessionHandler) withSession(fn sessionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid session id")
			return
		}
		s, ok := h.store.Get(id)
		if !ok {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		s.Lock()
		defer s.Unlock()
		fn(w, r, s)
	}
}

// CreateSession starts an empty session.
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	s := h.store.Create()
	h.log.Info("session created", zap.String("session", s.ID.String()))
	writeJSON(w, http.StatusCreated, map[string]string{"id": s.ID.String()})
}

// DeleteSession drops a session and its dataset.
func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}
	if !h.store.Delete(id) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Upload replaces the session dataset with the multipart "file" field.
func (h *SessionHandler) Upload(w http.ResponseWriter, r *http.Request, s *session.Session) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid upload: "+err.Error())
		return
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing form file \"file\"")
		return
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read upload: "+err.Error())
		return
	}
	opt := parser.Options{SheetName: r.FormValue("sheet_name")}
	if v := r.FormValue("sheet_index"); v != "" {
		if opt.SheetIndex, err = strconv.Atoi(v); err != nil {
			writeError(w, http.StatusBadRequest, "sheet_index must be an integer")
			return
		}
	}
	if d := []rune(r.FormValue("delimiter")); len(d) == 1 {
		opt.Delimiter = d[0]
	}
	ds, err := s.Load(hdr.Filename, content, opt)
	if err != nil {
		h.fail(w, s, err)
		return
	}
	h.log.Info("dataset uploaded",
		zap.String("session", s.ID.String()),
		zap.String("file", hdr.Filename),
		zap.Int("rows", ds.Nrow()),
		zap.Int("columns", ds.Ncol()))
	h.Preview(w, r, s)
}

// Preview returns the head rows and schema.
func (h *SessionHandler) Preview(w http.ResponseWriter, r *http.Request, s *session.Session) {
	p, err := h.wf.Preview(s)
	if err != nil {
		h.fail(w, s, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type edaRequest struct {
	Missing string `json:"missing"`
	Dedup   bool   `json:"dedup"`
	Column  string `json:"column"`
	Bins    int    `json:"bins"`
}

type edaResponse struct {
	*workflow.EDAResult
	Markdown string `json:"markdown"`
}

// EDA cleans the dataset as requested and returns the exploration results.
func (h *SessionHandler) EDA(w http.ResponseWriter, r *http.Request, s *session.Session) {
	var req edaRequest
	if !decodeBody(w, r, &req) {
		return
	}
	strategy, err := prep.ParseStrategy(req.Missing)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.wf.Explore(s, workflow.EDAOptions{Missing: strategy, Dedup: req.Dedup, Column: req.Column, Bins: req.Bins})
	if err != nil {
		h.fail(w, s, err)
		return
	}
	writeJSON(w, http.StatusOK, edaResponse{EDAResult: res, Markdown: res.Report.Markdown()})
}

type trainRequest struct {
	Target string `json:"target"`
	Scale  bool   `json:"scale"`
	Task   string `json:"task"`
	Model  string `json:"model"`
}

type trainResponse struct {
	*workflow.TrainResult
	ReportText string `json:"report_text,omitempty"`
}

// Train fits the selected model and returns holdout metrics.
func (h *SessionHandler) Train(w http.ResponseWriter, r *http.Request, s *session.Session) {
	var req trainRequest
	if !decodeBody(w, r, &req) {
		return
	}
	opt := workflow.TrainOptions{Target: req.Target, Scale: req.Scale}
	var err error
	if req.Task != "" {
		if opt.Task, err = estimator.ParseTask(req.Task); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if req.Model != "" {
		if opt.Family, err = estimator.ParseFamily(req.Model); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	res, err := h.wf.Train(s, opt)
	if err != nil {
		h.fail(w, s, err)
		return
	}
	out := trainResponse{TrainResult: res}
	if res.Report != nil {
		out.ReportText = res.Report.String()
	}
	writeJSON(w, http.StatusOK, out)
}

// HistogramPNG renders the distribution of ?column= (optional ?bins=).
func (h *SessionHandler) HistogramPNG(w http.ResponseWriter, r *http.Request, s *session.Session) {
	ds, ok := s.Dataset()
	if !ok {
		h.fail(w, s, workflow.ErrNoDataset)
		return
	}
	column := r.URL.Query().Get("column")
	if column == "" {
		writeError(w, http.StatusBadRequest, "column query parameter is required")
		return
	}
	bins, _ := strconv.Atoi(r.URL.Query().Get("bins"))
	if bins <= 0 {
		bins = h.wf.Config().HistBins
	}
	hist, err := analysis.NewHistogram(ds, column, bins)
	if err != nil {
		h.fail(w, s, err)
		return
	}
	h.png(w, s, func(buf io.Writer) error { return h.charts.Histogram(buf, hist) })
}

// HeatmapPNG renders the correlation matrix of the numeric columns.
func (h *SessionHandler) HeatmapPNG(w http.ResponseWriter, r *http.Request, s *session.Session) {
	ds, ok := s.Dataset()
	if !ok {
		h.fail(w, s, workflow.ErrNoDataset)
		return
	}
	corr, err := analysis.Correlations(ds)
	if err != nil {
		h.fail(w, s, err)
		return
	}
	if corr == nil {
		writeSkip(w, "correlation heatmap needs at least two numeric columns")
		return
	}
	h.png(w, s, func(buf io.Writer) error { return h.charts.Heatmap(buf, corr) })
}

// PredictionsPNG renders actual vs predicted values of the last regression run.
func (h *SessionHandler) PredictionsPNG(w http.ResponseWriter, r *http.Request, s *session.Session) {
	p, ok := s.Predictions()
	if !ok {
		writeSkip(w, "no regression run in this session")
		return
	}
	title := "Actual vs Predicted (" + p.Model + ")"
	h.png(w, s, func(buf io.Writer) error { return h.charts.Scatter(buf, title, p.Actual, p.Predicted) })
}

// png renders into a buffer first so a failed render still gets a JSON error.
func (h *SessionHandler) png(w http.ResponseWriter, s *session.Session, render func(io.Writer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		h.fail(w, s, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// fail maps workflow errors onto HTTP statuses. Missing preconditions are 409 with a
// skip reason, bad input is 4xx, and model or metric failures are 422.
func (h *SessionHandler) fail(w http.ResponseWriter, s *session.Session, err error) {
	switch {
	case errors.Is(err, workflow.ErrNoDataset), errors.Is(err, workflow.ErrNoTarget):
		writeSkip(w, err.Error())
	case errors.Is(err, parser.ErrUnsupported):
		writeError(w, http.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, workflow.ErrUnknownColumn), errors.Is(err, parser.ErrEmpty):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, chart.ErrNoData):
		writeSkip(w, err.Error())
	default:
		h.log.Warn("request failed", zap.String("session", s.ID.String()), zap.Error(err))
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.ContentLength == 0 {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Failed to encode response to JSON", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeSkip(w http.ResponseWriter, reason string) {
	writeJSON(w, http.StatusConflict, map[string]string{"skipped": reason})
}
