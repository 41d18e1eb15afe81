package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"frpengine/internal/frp"
	"frpengine/internal/store"
	"frpengine/internal/types"
)

const maxBodyBytes = 4 << 20

// Handler serves the analysis API over a pipeline and a record store.
type Handler struct {
	pipeline *frp.Pipeline
	store    store.Store
	log      *zap.Logger
	now      func() time.Time
}

func NewHandler(p *frp.Pipeline, st store.Store, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{pipeline: p, store: st, log: log, now: time.Now}
}

// RunRequest is the body of POST /v1/analyses and the first message of the
// stream endpoint. Preset fills the domain context when it has no domain.
type RunRequest struct {
	Config    types.PipelineConfig              `json:"config"`
	InputText string                            `json:"input_text"`
	Question  string                            `json:"question"`
	Preset    string                            `json:"preset,omitempty"`
	Resume    map[types.Level]types.LevelOutput `json:"resume,omitempty"`
}

func (r *RunRequest) applyPreset() error {
	name := strings.TrimSpace(r.Preset)
	if name == "" {
		return nil
	}
	dc, ok := frp.Preset(name)
	if !ok {
		return &frp.ValidationError{Field: "preset", Reason: fmt.Sprintf("unknown preset %q", name)}
	}
	if r.Config.DomainContext.Domain == "" {
		r.Config.DomainContext = dc
	}
	return nil
}

// AnalysisResponse carries a stored record and its rendering in the
// requested output format.
type AnalysisResponse struct {
	store.Record
	Rendered string `json:"rendered,omitempty"`
}

type errorResponse struct {
	Error    string             `json:"error"`
	Kind     string             `json:"kind"`
	Analysis *types.FRPAnalysis `json:"analysis,omitempty"`
}

type composeRequest struct {
	Level         types.Level            `json:"level"`
	InputText     string                 `json:"input_text"`
	Question      string                 `json:"question"`
	DomainContext types.DomainContext    `json:"domain_context"`
	Prior         map[types.Level]string `json:"prior,omitempty"`
}

type composeResponse struct {
	Level  types.Level `json:"level"`
	Prompt string      `json:"prompt"`
}

func (h *Handler) Levels(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, frp.Levels())
}

func (h *Handler) ComposePrompt(w http.ResponseWriter, r *http.Request) {
	var req composeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	prompt, err := frp.Compose(req.Level, req.InputText, req.Question, req.DomainContext, req.Prior)
	if err != nil {
		h.writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, composeResponse{Level: req.Level, Prompt: prompt})
}

func (h *Handler) CreateAnalysis(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.applyPreset(); err != nil {
		h.writeError(w, err, nil)
		return
	}
	analysis, err := h.pipeline.Run(r.Context(), req.Config, req.InputText, req.Question, req.Resume)
	if err != nil {
		h.writeError(w, err, analysis)
		return
	}
	rec := store.NewRecord(analysis, h.now())
	if err := h.store.Put(r.Context(), rec); err != nil {
		h.log.Error("store analysis", zap.String("id", rec.ID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error(), Kind: "store", Analysis: analysis})
		return
	}
	resp, err := respond(rec, req.Config.OutputFormat)
	if err != nil {
		h.writeError(w, err, nil)
		return
	}
	h.log.Info("analysis created", zap.String("id", rec.ID), zap.Int("levels", len(analysis.Levels)))
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) ListAnalyses(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.writeError(w, &frp.ValidationError{Field: "limit", Reason: "must be a non-negative integer"}, nil)
			return
		}
		limit = n
	}
	recs, err := h.store.List(r.Context(), limit)
	if err != nil {
		h.writeError(w, err, nil)
		return
	}
	if recs == nil {
		recs = []store.Record{}
	}
	writeJSON(w, http.StatusOK, recs)
}

// GetAnalysis returns JSON by default. format=narrative answers markdown and
// format=compact plain text.
func (h *Handler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	rec, err := h.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err, nil)
		return
	}
	format := types.OutputFormat(r.URL.Query().Get("format"))
	switch format {
	case types.FormatNarrative, types.FormatCompact:
		text, err := frp.Render(rec.Analysis, format)
		if err != nil {
			h.writeError(w, err, nil)
			return
		}
		ct := "text/plain; charset=utf-8"
		if format == types.FormatNarrative {
			ct = "text/markdown; charset=utf-8"
		}
		w.Header().Set("Content-Type", ct)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(text))
	case "", types.FormatStructured:
		writeJSON(w, http.StatusOK, rec)
	default:
		h.writeError(w, &frp.ValidationError{Field: "format", Reason: fmt.Sprintf("unknown output format %q", format)}, nil)
	}
}

func (h *Handler) DeleteAnalysis(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func respond(rec store.Record, format types.OutputFormat) (AnalysisResponse, error) {
	resp := AnalysisResponse{Record: rec}
	if format == types.FormatNarrative || format == types.FormatCompact {
		text, err := frp.Render(rec.Analysis, format)
		if err != nil {
			return AnalysisResponse{}, err
		}
		resp.Rendered = text
	}
	return resp, nil
}

// errorKind maps an error to a stable label and HTTP status.
func errorKind(err error) (string, int) {
	switch {
	case errors.Is(err, frp.ErrValidation):
		return "validation", http.StatusBadRequest
	case errors.Is(err, frp.ErrConfiguration):
		return "configuration", http.StatusBadRequest
	case errors.Is(err, frp.ErrDependency):
		return "dependency", http.StatusUnprocessableEntity
	case errors.Is(err, frp.ErrGeneration):
		return "generation", http.StatusBadGateway
	case errors.Is(err, store.ErrNotFound):
		return "not_found", http.StatusNotFound
	case errors.Is(err, store.ErrExists):
		return "conflict", http.StatusConflict
	default:
		return "internal", http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error, partial *types.FRPAnalysis) {
	kind, status := errorKind(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed", zap.String("kind", kind), zap.Error(err))
	} else {
		h.log.Debug("request rejected", zap.String("kind", kind), zap.Error(err))
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), Kind: kind, Analysis: partial})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error(), Kind: "validation"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
