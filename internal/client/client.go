// Package client talks to the generation endpoint on behalf of a session.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/young1lin/learnflow/internal/models"
	"github.com/young1lin/learnflow/pkg/logger"
)

// maxResponseSize bounds how much of a generation response is read
const maxResponseSize = 10 * 1024 * 1024

// HTTPError is returned when the endpoint answers with a non-2xx status
type HTTPError struct {
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("generation endpoint returned status %d", e.StatusCode)
}

// NetworkError is returned when the endpoint cannot be reached or the body cannot be read
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("generation request failed: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// DecodeError is returned when a 2xx body is not a generation payload
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("invalid generation response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Client issues single-attempt generation requests
type Client struct {
	url    string
	client *http.Client
}

// New creates a client posting to url. A zero timeout means no timeout.
func New(url string, timeout time.Duration) *Client {
	return &Client{
		url: url,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// wireResponse mirrors the endpoint body; examples may be a string or an array
type wireResponse struct {
	Explanation string            `json:"explanation"`
	Examples    json.RawMessage   `json:"examples"`
	Videos      []models.Video    `json:"videos"`
	Quiz        []models.QuizItem `json:"quiz"`
}

// Generate sends one query and maps the response into a ResultBundle.
// There is no retry: the first failure is returned to the caller.
func (c *Client) Generate(ctx context.Context, query string) (*models.ResultBundle, error) {
	log := logger.FromContext(ctx)

	body, err := json.Marshal(models.GenerateRequest{Query: query})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if traceID := logger.TraceIDFromContext(ctx); traceID != "" {
		req.Header.Set("X-Trace-ID", traceID)
	}

	log.Debug("sending generation request", zap.String("url", c.url), zap.Int("query_len", len(query)))

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused; the error body is not interpreted
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))
		return nil, &HTTPError{StatusCode: resp.StatusCode}
	}

	data, err := readResponseBody(resp.Body, maxResponseSize)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}

	var wire wireResponse
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, &DecodeError{Err: err}
	}

	examples, err := NormalizeExamples(wire.Examples)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}

	bundle := &models.ResultBundle{
		Explanation: wire.Explanation,
		Examples:    examples,
		Videos:      wire.Videos,
		Quiz:        wire.Quiz,
	}
	if bundle.Videos == nil {
		bundle.Videos = []models.Video{}
	}
	if bundle.Quiz == nil {
		bundle.Quiz = []models.QuizItem{}
	}

	log.Info("generation response received",
		zap.Int("video_count", len(bundle.Videos)),
		zap.Int("quiz_count", len(bundle.Quiz)),
	)

	return bundle, nil
}

// NormalizeExamples accepts the examples field as a string, an array of
// strings, or null, and returns a single markdown string. Array entries are
// separated by a blank line.
func NormalizeExamples(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", fmt.Errorf("examples: %w", err)
		}
		return s, nil
	case '[':
		var parts []string
		if err := json.Unmarshal(trimmed, &parts); err != nil {
			return "", fmt.Errorf("examples: %w", err)
		}
		return strings.Join(parts, "\n\n"), nil
	default:
		return "", fmt.Errorf("examples: expected string or array, got %s", truncate(string(trimmed), 32))
	}
}

func readResponseBody(body io.Reader, maxSize int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(body, maxSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxSize {
		return nil, fmt.Errorf("response body too large, limit is %d bytes", maxSize)
	}
	return data, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
