package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/young1lin/learnflow/internal/generator"
	"github.com/young1lin/learnflow/internal/models"
)

// maxGenerateBody bounds POST /api/v1/generate request bodies
const maxGenerateBody = 64 * 1024

// handleGenerate handles POST /api/v1/generate
func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request, log *zap.Logger) {
	if h.generate == nil {
		h.handleError(w, r, http.StatusNotFound, "not_found", "Generation service is disabled", log)
		return
	}

	h.setCORSHeaders(w, r)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if r.Method != http.MethodPost {
		h.handleError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "Only POST method is allowed", log)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxGenerateBody+1))
	if err != nil {
		h.handleError(w, r, http.StatusBadRequest, "read_error", "Failed to read request body", log)
		return
	}
	defer r.Body.Close()

	if len(body) > maxGenerateBody {
		h.handleError(w, r, http.StatusRequestEntityTooLarge, "too_large", "Request body too large", log)
		return
	}

	var req models.GenerateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.handleError(w, r, http.StatusBadRequest, "parse_error", "Failed to parse request", log)
		return
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		h.handleError(w, r, http.StatusBadRequest, "invalid_request", "query is required", log)
		return
	}

	log.Info("generating learning package", zap.Int("query_len", len(query)))

	resp, err := h.generate.Generate(r.Context(), query)
	if err != nil {
		status, errType, message := generateErrorStatus(err)
		log.Error("generation failed", zap.Error(err))
		h.handleError(w, r, status, errType, message, log)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

// generateErrorStatus maps generator errors onto HTTP responses
func generateErrorStatus(err error) (int, string, string) {
	switch {
	case errors.Is(err, generator.ErrUpstream):
		return http.StatusBadGateway, "upstream_error", generator.ErrUpstream.Error()
	case errors.Is(err, generator.ErrNoChoices):
		return http.StatusBadGateway, "upstream_error", generator.ErrNoChoices.Error()
	case errors.Is(err, generator.ErrInvalidFormat):
		return http.StatusUnprocessableEntity, "invalid_format", generator.ErrInvalidFormat.Error()
	default:
		return http.StatusInternalServerError, "generation_error", "Content generation failed"
	}
}

// setCORSHeaders allows browser pages on other origins to call the API
func (h *Handler) setCORSHeaders(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}

	allowed := ""
	for _, o := range h.config.Generator.AllowedOrigins {
		if o == "*" {
			allowed = "*"
			break
		}
		if o == origin {
			allowed = origin
			break
		}
	}
	if allowed == "" {
		return
	}

	w.Header().Set("Access-Control-Allow-Origin", allowed)
	if allowed != "*" {
		w.Header().Add("Vary", "Origin")
	}
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Trace-ID")
}
