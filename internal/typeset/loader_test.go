package typeset

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestLoader(t *testing.T) {
	t.Run("Fetches once", func(t *testing.T) {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			time.Sleep(20 * time.Millisecond)
			w.Write([]byte("window.MathJax = {};"))
		}))
		defer srv.Close()

		l := NewLoader(srv.URL, time.Second)
		if l.Loaded() {
			t.Fatal("Expected loader to start unloaded")
		}

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				script, err := l.Script(context.Background())
				if err != nil {
					t.Errorf("Script failed: %v", err)
					return
				}
				if string(script) != "window.MathJax = {};" {
					t.Errorf("Unexpected script %q", script)
				}
			}()
		}
		wg.Wait()

		// Later calls are served from cache
		if _, err := l.Script(context.Background()); err != nil {
			t.Fatalf("Script failed: %v", err)
		}

		if n := hits.Load(); n != 1 {
			t.Errorf("Expected exactly 1 fetch, got %d", n)
		}
		if !l.Loaded() {
			t.Error("Expected loader to report loaded")
		}
	})

	t.Run("Failure is retried on next use", func(t *testing.T) {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hits.Add(1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.Write([]byte("ok"))
		}))
		defer srv.Close()

		l := NewLoader(srv.URL, time.Second)
		if _, err := l.Script(context.Background()); err == nil {
			t.Fatal("Expected first fetch to fail")
		}
		if l.Loaded() {
			t.Fatal("Expected failed fetch not to mark loaded")
		}

		script, err := l.Script(context.Background())
		if err != nil {
			t.Fatalf("Expected second fetch to succeed: %v", err)
		}
		if string(script) != "ok" {
			t.Errorf("Unexpected script %q", script)
		}
	})

	t.Run("Unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := srv.URL
		srv.Close()

		if _, err := NewLoader(url, time.Second).Script(context.Background()); err == nil {
			t.Error("Expected error for unreachable script host")
		}
	})
}
