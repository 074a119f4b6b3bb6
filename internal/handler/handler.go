package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/young1lin/learnflow/internal/config"
	"github.com/young1lin/learnflow/internal/generator"
	"github.com/young1lin/learnflow/internal/models"
	"github.com/young1lin/learnflow/internal/session"
	"github.com/young1lin/learnflow/internal/typeset"
	"github.com/young1lin/learnflow/internal/view"
	"github.com/young1lin/learnflow/pkg/logger"
)

const (
	// TypesetPath is where the page loads the math typesetting engine from
	TypesetPath = "/assets/typeset.js"
	// GeneratePath is the generation API route
	GeneratePath = "/api/v1/generate"
)

// maxFormSize bounds form posts from the page
const maxFormSize = 64 * 1024

// Handler serves the LearnFlow page, its form actions and, when a generator
// is configured, the generation API
type Handler struct {
	config   *config.Config
	store    *session.Store
	client   session.Generator
	page     *view.Page
	typeset  *typeset.Loader
	generate *generator.Service
}

// Options wires a Handler. Generator may be nil to disable /api/v1/generate.
type Options struct {
	Config    *config.Config
	Store     *session.Store
	Client    session.Generator
	Page      *view.Page
	Typeset   *typeset.Loader
	Generator *generator.Service
}

// New creates a handler
func New(opts Options) *Handler {
	return &Handler{
		config:   opts.Config,
		store:    opts.Store,
		client:   opts.Client,
		page:     opts.Page,
		typeset:  opts.Typeset,
		generate: opts.Generator,
	}
}

// ServeHTTP handles all HTTP requests
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	traceID := extractTraceID(r)
	if traceID == "" {
		traceID = generateTraceID()
	}

	ctx := logger.ContextWithTraceID(r.Context(), traceID)
	r = r.WithContext(ctx)

	log := logger.WithTraceID(traceID)
	log.Info("request received",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("remote_addr", r.RemoteAddr),
	)

	w.Header().Set("X-Trace-ID", traceID)

	switch r.URL.Path {
	case "/health":
		h.handleHealth(w, r, log)
	case GeneratePath:
		h.handleGenerate(w, r, log)
	case TypesetPath:
		h.handleTypeset(w, r, log)
	case "/":
		h.handleIndex(w, r, log)
	case "/search":
		h.handleSearch(w, r, log)
	case "/quiz/toggle":
		h.handleQuizToggle(w, r, log)
	case "/quiz/answer":
		h.handleQuizAnswer(w, r, log)
	case "/quiz/submit":
		h.handleQuizSubmit(w, r, log)
	default:
		h.handleError(w, r, http.StatusNotFound, "not_found", "Endpoint not found", log)
	}

	log.Info("request completed",
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
}

// handleHealth handles health check requests
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request, log *zap.Logger) {
	resp := models.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Unix(),
	}
	if h.generate != nil {
		resp.Model = h.generate.Model()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// handleTypeset serves the cached math typesetting engine
func (h *Handler) handleTypeset(w http.ResponseWriter, r *http.Request, log *zap.Logger) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		h.handleError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "Only GET method is allowed", log)
		return
	}
	if h.typeset == nil {
		h.handleError(w, r, http.StatusNotFound, "not_found", "Typesetting is disabled", log)
		return
	}

	script, err := h.typeset.Script(r.Context())
	if err != nil {
		h.handleError(w, r, http.StatusBadGateway, "typeset_unavailable", "Typesetting engine unavailable", log)
		return
	}

	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Write(script)
}

// handleError writes a JSON error
func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, status int, errType, message string, log *zap.Logger) {
	log.Error("request error",
		zap.String("error_type", errType),
		zap.String("message", message),
		zap.Int("status", status),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(models.ErrorResponse{
		Error: models.ErrorDetail{
			Type:    errType,
			Code:    strconv.Itoa(status),
			Message: message,
		},
	})
}

// detach keeps the trace ID but drops cancellation, so a search started by a
// request still completes if the browser goes away
func detach(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}

// extractTraceID extracts trace ID from various possible headers
func extractTraceID(r *http.Request) string {
	headers := []string{
		"X-Trace-ID",
		"X-Request-ID",
		"X-Correlation-ID",
	}

	for _, header := range headers {
		if id := r.Header.Get(header); id != "" {
			return id
		}
	}

	return ""
}

// generateTraceID generates a new trace ID
func generateTraceID() string {
	id := uuid.New()
	return id.String()[:16]
}
