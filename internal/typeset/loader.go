// Package typeset serves the math typesetting engine script. The script is
// fetched once per process, on first use, and reused for every page after.
package typeset

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/young1lin/learnflow/pkg/logger"
)

const maxScriptSize = 8 * 1024 * 1024

// Loader lazily fetches and caches the typesetting script
type Loader struct {
	url    string
	client *http.Client
	group  singleflight.Group

	mu     sync.RWMutex
	loaded bool
	script []byte
}

// NewLoader creates a loader for the script at url
func NewLoader(url string, timeout time.Duration) *Loader {
	return &Loader{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Loaded reports whether the script has been fetched
func (l *Loader) Loaded() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loaded
}

// Script returns the cached script, fetching it on first use. Concurrent
// callers share a single fetch. A failed fetch is not cached.
func (l *Loader) Script(ctx context.Context) ([]byte, error) {
	l.mu.RLock()
	if l.loaded {
		script := l.script
		l.mu.RUnlock()
		return script, nil
	}
	l.mu.RUnlock()

	v, err, shared := l.group.Do("script", func() (interface{}, error) {
		// Another caller may have finished loading between the check and Do
		l.mu.RLock()
		if l.loaded {
			script := l.script
			l.mu.RUnlock()
			return script, nil
		}
		l.mu.RUnlock()

		// Detached so one caller going away does not fail the shared fetch
		script, err := l.fetch(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}

		l.mu.Lock()
		l.script = script
		l.loaded = true
		l.mu.Unlock()

		logger.Info("typesetting engine loaded",
			zap.String("url", l.url),
			zap.Int("bytes", len(script)),
		)
		return script, nil
	})
	if err != nil {
		logger.FromContext(ctx).Warn("typesetting engine load failed",
			zap.String("url", l.url),
			zap.Bool("shared", shared),
			zap.Error(err),
		)
		return nil, err
	}
	return v.([]byte), nil
}

func (l *Loader) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch script: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("script fetch returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxScriptSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	if len(data) > maxScriptSize {
		return nil, fmt.Errorf("script larger than %d bytes", maxScriptSize)
	}
	return data, nil
}
