// Package generator implements the generation service behind
// POST /api/v1/generate by prompting a Chat Completions provider.
package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/young1lin/learnflow/internal/config"
	"github.com/young1lin/learnflow/internal/converter"
	"github.com/young1lin/learnflow/internal/models"
	"github.com/young1lin/learnflow/pkg/logger"
)

// maxUpstreamBody bounds the provider response that is read
const maxUpstreamBody = 10 * 1024 * 1024

var (
	// ErrUpstream means the provider could not be reached or answered non-2xx
	ErrUpstream = errors.New("AI service unavailable")
	// ErrNoChoices means the provider answered without any choice
	ErrNoChoices = errors.New("AI service returned no choices")
	// ErrInvalidFormat means the generated content is not a valid learning package
	ErrInvalidFormat = errors.New("AI returned invalid format")
)

// Service generates learning packages from a Chat Completions provider
type Service struct {
	config    config.GeneratorConfig
	client    *http.Client
	validator *payloadValidator
}

// NewService creates a generation service
func NewService(cfg config.GeneratorConfig) *Service {
	return &Service{
		config: cfg,
		client: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		validator: newPayloadValidator(),
	}
}

// Model returns the configured model name
func (s *Service) Model() string {
	return s.config.Model
}

// Generate prompts the provider for a learning package about query
func (s *Service) Generate(ctx context.Context, query string) (*models.GenerateResponse, error) {
	log := logger.FromContext(ctx).With(zap.String("model", s.config.Model))

	chatResp, err := s.complete(ctx, converter.BuildChatRequest(query, s.config.Model), log)
	if err != nil {
		return nil, err
	}

	content, err := converter.ExtractContent(chatResp)
	if err != nil {
		if errors.Is(err, converter.ErrNoChoices) {
			log.Error("unexpected provider response", zap.String("id", chatResp.ID))
			return nil, ErrNoChoices
		}
		log.Error("invalid AI response", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	out, err := converter.ParseContent(content)
	if err != nil {
		log.Error("invalid AI response", zap.String("content", content), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	if fields, err := s.validator.Validate(out); err != nil {
		log.Error("AI response failed validation", zap.Any("fields", fields))
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	log.Info("learning package generated",
		zap.Int("example_count", len(out.Examples)),
		zap.Int("video_count", len(out.Videos)),
		zap.Int("quiz_count", len(out.Quiz)),
		zap.Int("total_tokens", chatResp.Usage.TotalTokens),
	)

	return out, nil
}

// complete sends one Chat Completions request and decodes the response
func (s *Service) complete(ctx context.Context, chatReq *models.ChatCompletionRequest, log *zap.Logger) (*models.ChatCompletionResponse, error) {
	body, err := json.Marshal(chatReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	targetURL := s.config.BaseURL + s.config.PathSuffix
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, targetURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)
	if s.config.Referer != "" {
		req.Header.Set("HTTP-Referer", s.config.Referer)
	}
	if s.config.Title != "" {
		req.Header.Set("X-Title", s.config.Title)
	}
	if traceID := logger.TraceIDFromContext(ctx); traceID != "" {
		req.Header.Set("X-Trace-ID", traceID)
	}

	log.Info("sending request to provider", zap.String("target_url", targetURL))

	resp, err := s.client.Do(req)
	if err != nil {
		log.Error("failed to reach provider", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBody))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", ErrUpstream, err)
	}

	if resp.StatusCode >= 400 {
		log.Error("provider API error",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(data)),
		)
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var chatResp models.ChatCompletionResponse
	if err := json.Unmarshal(data, &chatResp); err != nil {
		return nil, fmt.Errorf("failed to parse provider response: %w", err)
	}

	return &chatResp, nil
}
