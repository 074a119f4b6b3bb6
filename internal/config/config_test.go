package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load(filepath.Join(t.TempDir(), "missing.yaml"))

	if cfg.Server.Port != 8080 {
		t.Errorf("Expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Generation.Path != "/api/v1/generate" {
		t.Errorf("Expected generation path '/api/v1/generate', got '%s'", cfg.Generation.Path)
	}
	if cfg.Generation.Timeout != 0 {
		t.Errorf("Expected no generation timeout, got %d", cfg.Generation.Timeout)
	}
	if cfg.Generator.Model != "deepseek/deepseek-chat-v3-0324:free" {
		t.Errorf("Unexpected default model '%s'", cfg.Generator.Model)
	}
	if len(cfg.Generator.AllowedOrigins) != 1 || cfg.Generator.AllowedOrigins[0] != "*" {
		t.Errorf("Expected allowed origins [*], got %v", cfg.Generator.AllowedOrigins)
	}
	if cfg.Session.IdleTimeout != 3600 {
		t.Errorf("Expected idle timeout 3600, got %d", cfg.Session.IdleTimeout)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Expected log level 'info', got '%s'", cfg.Logging.Level)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
server:
  port: 9000
generation:
  base_url: http://gen.internal:5000/
generator:
  enabled: false
  model: other-model
logging:
  level: debug
  output: [stdout, learnflow.log]
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg := Load(path)

	if cfg.Server.Port != 9000 {
		t.Errorf("Expected port 9000, got %d", cfg.Server.Port)
	}
	if cfg.Generator.Enabled {
		t.Error("Expected generator disabled")
	}
	if cfg.Generator.Model != "other-model" {
		t.Errorf("Expected model 'other-model', got '%s'", cfg.Generator.Model)
	}
	if len(cfg.Logging.Output) != 2 || cfg.Logging.Output[1] != "learnflow.log" {
		t.Errorf("Unexpected log outputs %v", cfg.Logging.Output)
	}
	if got := cfg.GenerationURL(); got != "http://gen.internal:5000/api/v1/generate" {
		t.Errorf("Unexpected generation URL '%s'", got)
	}
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("LEARNFLOW_SERVER_PORT", "9191")
	t.Setenv("LEARNFLOW_GENERATOR_API_KEY", "")
	t.Setenv("OPENROUTER_API_KEY", "sk-or-test")

	cfg := Load(filepath.Join(t.TempDir(), "missing.yaml"))

	if cfg.Server.Port != 9191 {
		t.Errorf("Expected port 9191, got %d", cfg.Server.Port)
	}
	if cfg.Generator.APIKey != "sk-or-test" {
		t.Errorf("Expected API key from OPENROUTER_API_KEY, got '%s'", cfg.Generator.APIKey)
	}
}

func TestGenerationURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "self on loopback",
			cfg:  Config{Server: ServerConfig{Host: "127.0.0.1", Port: 8080}, Generation: GenerationConfig{Path: "/api/v1/generate"}},
			want: "http://127.0.0.1:8080/api/v1/generate",
		},
		{
			name: "wildcard host",
			cfg:  Config{Server: ServerConfig{Host: "0.0.0.0", Port: 80}, Generation: GenerationConfig{Path: "/gen"}},
			want: "http://127.0.0.1:80/gen",
		},
		{
			name: "ipv6 wildcard host",
			cfg:  Config{Server: ServerConfig{Host: "::", Port: 8080}, Generation: GenerationConfig{Path: "/api/v1/generate"}},
			want: "http://[::1]:8080/api/v1/generate",
		},
		{
			name: "ipv6 host",
			cfg:  Config{Server: ServerConfig{Host: "fe80::1", Port: 9000}, Generation: GenerationConfig{Path: "/gen"}},
			want: "http://[fe80::1]:9000/gen",
		},
		{
			name: "external base",
			cfg:  Config{Generation: GenerationConfig{BaseURL: "https://api.example.com", Path: "/api/v1/generate"}},
			want: "https://api.example.com/api/v1/generate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.GenerationURL(); got != tt.want {
				t.Errorf("Expected '%s', got '%s'", tt.want, got)
			}
		})
	}
}

func TestListenAddr(t *testing.T) {
	tests := []struct {
		host string
		want string
	}{
		{"127.0.0.1", "127.0.0.1:8080"},
		{"", ":8080"},
		{"::", "[::]:8080"},
	}

	for _, tt := range tests {
		cfg := Config{Server: ServerConfig{Host: tt.host, Port: 8080}}
		if got := cfg.ListenAddr(); got != tt.want {
			t.Errorf("ListenAddr(%q): expected '%s', got '%s'", tt.host, tt.want, got)
		}
	}
}
