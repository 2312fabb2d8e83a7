package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/karne/internal/analysis"
	"github.com/pavelanni/karne/internal/document"
	appI18n "github.com/pavelanni/karne/internal/i18n"
	"github.com/pavelanni/karne/internal/llm"
	"github.com/pavelanni/karne/internal/model"
	"github.com/pavelanni/karne/internal/store"
)

// DefaultMaxUpload bounds a multipart upload when no limit is configured.
const DefaultMaxUpload = 32 << 20

// Analyzer runs document analyses and coach conversations.
type Analyzer interface {
	Analyze(ctx context.Context, p llm.Payload) (model.AnalysisResult, error)
	Chat(ctx context.Context, message string, history []model.ChatMessage, a model.AnalysisResult) (string, error)
}

// History persists analyses and dashboard preferences.
type History interface {
	Save(r model.AnalysisResult) (model.AnalysisResult, error)
	List() ([]model.AnalysisResult, error)
	Get(id string) (model.AnalysisResult, error)
	Delete(id string) error
	Theme() (model.Theme, error)
	SetTheme(t model.Theme) error
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store  History
	llm    Analyzer
	config model.HostConfig
}

// New creates a new Handler.
func New(s History, a Analyzer, cfg model.HostConfig) (*Handler, error) {
	if s == nil || a == nil {
		return nil, errors.New("handler needs a history store and an analyzer")
	}
	if cfg.MaxUpload <= 0 {
		cfg.MaxUpload = DefaultMaxUpload
	}
	return &Handler{store: s, llm: a, config: cfg}, nil
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", h.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/analyses", h.handleAnalyze)
		r.Get("/analyses", h.handleListAnalyses)
		r.Get("/analyses/{id}", h.handleGetAnalysis)
		r.Delete("/analyses/{id}", h.handleDeleteAnalysis)
		r.Get("/dashboard", h.handleDashboard)
		r.Get("/trend", h.handleTrend)
		r.Post("/coach", h.handleCoach)
		r.Get("/preferences/theme", h.handleGetTheme)
		r.Put("/preferences/theme", h.handlePutTheme)
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// errorBody is the JSON shape of every failed request.
type errorBody struct {
	Error string `json:"error"`
}

// writeError renders err as a localized message with a matching status.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msgID := classify(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		slog.Warn("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	msg := appI18n.T(r.Context(), msgID)
	var unsupported *document.UnsupportedError
	if errors.As(err, &unsupported) {
		msg = appI18n.Td(r.Context(), msgID, map[string]any{"Name": unsupported.Name})
	}
	writeJSON(w, status, errorBody{Error: msg})
}

// classify maps an error onto an HTTP status and a message id.
func classify(err error) (int, string) {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge, "ErrUploadTooLarge"
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, "ErrBadRequest"
	case errors.Is(err, errEmptyMessage):
		return http.StatusBadRequest, "ErrEmptyMessage"
	case errors.Is(err, llm.ErrNoInput):
		return http.StatusBadRequest, "ErrNoInput"
	case errors.Is(err, llm.ErrRejected):
		return http.StatusBadRequest, "ErrRejected"
	case errors.Is(err, llm.ErrRateLimited):
		return http.StatusTooManyRequests, "ErrRateLimited"
	case errors.Is(err, llm.ErrMalformedResponse):
		return http.StatusUnprocessableEntity, "ErrMalformedResponse"
	case errors.Is(err, llm.ErrTruncated):
		return http.StatusUnprocessableEntity, "ErrTruncated"
	case errors.Is(err, llm.ErrEmptyResponse):
		return http.StatusBadGateway, "ErrEmptyResponse"
	case errors.Is(err, errCoach):
		return http.StatusBadGateway, "ErrCoachUnavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "ErrTimeout"
	case errors.Is(err, document.ErrUnsupported):
		return http.StatusUnsupportedMediaType, "ErrUnsupportedFile"
	case errors.Is(err, store.ErrNotFound), errors.Is(err, analysis.ErrNotFound):
		return http.StatusNotFound, "ErrNotFound"
	case errors.Is(err, store.ErrInvalidTheme):
		return http.StatusBadRequest, "ErrInvalidTheme"
	default:
		return http.StatusInternalServerError, "ErrUnexpected"
	}
}

var (
	errBadRequest   = errors.New("bad request")
	errEmptyMessage = errors.New("empty coach message")
	errCoach        = errors.New("coach unavailable")
)
