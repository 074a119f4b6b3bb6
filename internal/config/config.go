package config

import (
	"errors"
	"io/fs"
	"net"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Generation GenerationConfig `mapstructure:"generation"`
	Generator  GeneratorConfig  `mapstructure:"generator"`
	Session    SessionConfig    `mapstructure:"session"`
	Typeset    TypesetConfig    `mapstructure:"typeset"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
}

// GenerationConfig points the page at a generation endpoint.
// An empty BaseURL means the server's own address.
type GenerationConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Path    string `mapstructure:"path"`
	Timeout int    `mapstructure:"timeout"` // seconds, 0 = no timeout
}

// GeneratorConfig configures the built-in /api/v1/generate service
type GeneratorConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	BaseURL        string   `mapstructure:"base_url"`
	PathSuffix     string   `mapstructure:"path_suffix"`
	APIKey         string   `mapstructure:"api_key"`
	Model          string   `mapstructure:"model"`
	Timeout        int      `mapstructure:"timeout"`
	Referer        string   `mapstructure:"referer"`
	Title          string   `mapstructure:"title"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type SessionConfig struct {
	IdleTimeout   int `mapstructure:"idle_timeout"`   // seconds
	SweepInterval int `mapstructure:"sweep_interval"` // seconds
}

type TypesetConfig struct {
	ScriptURL string `mapstructure:"script_url"`
	Timeout   int    `mapstructure:"timeout"`
}

type LoggingConfig struct {
	Level  string   `mapstructure:"level"`
	Format string   `mapstructure:"format"`
	Output []string `mapstructure:"output"`
}

// ListenAddr is the host:port the server binds; IPv6 hosts are bracketed
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// GenerationURL returns the full URL the page submits queries to
func (c *Config) GenerationURL() string {
	base := strings.TrimSuffix(c.Generation.BaseURL, "/")
	if base == "" {
		host := c.Server.Host
		switch host {
		case "", "0.0.0.0":
			host = "127.0.0.1"
		case "::":
			host = "::1"
		}
		base = "http://" + net.JoinHostPort(host, strconv.Itoa(c.Server.Port))
	}
	return base + c.Generation.Path
}

func Load(cfgFile string) *Config {
	// Load .env file if exists (ignore error if not found)
	godotenv.Load()
	godotenv.Load(".env.local")

	v := viper.New()

	setDefaults(v)

	// LEARNFLOW_GENERATOR_API_KEY -> generator.api_key
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("LEARNFLOW")
	v.AutomaticEnv()
	v.BindEnv("generator.api_key", "LEARNFLOW_GENERATOR_API_KEY", "OPENROUTER_API_KEY")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("../configs")
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is ok, use defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !isMissingFile(cfgFile, err) {
			panic("Error reading config file: " + err.Error())
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic("Error unmarshaling config: " + err.Error())
	}

	return &cfg
}

// isMissingFile reports whether an explicitly named config file simply does not exist.
// viper only returns ConfigFileNotFoundError when searching config paths.
func isMissingFile(cfgFile string, err error) bool {
	return cfgFile != "" && errors.Is(err, fs.ErrNotExist)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 120)

	v.SetDefault("generation.base_url", "")
	v.SetDefault("generation.path", "/api/v1/generate")
	v.SetDefault("generation.timeout", 0)

	v.SetDefault("generator.enabled", true)
	v.SetDefault("generator.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("generator.path_suffix", "/chat/completions")
	v.SetDefault("generator.model", "deepseek/deepseek-chat-v3-0324:free")
	v.SetDefault("generator.timeout", 30)
	v.SetDefault("generator.referer", "http://localhost:3000")
	v.SetDefault("generator.title", "LearnFlow")
	v.SetDefault("generator.allowed_origins", []string{"*"})

	v.SetDefault("session.idle_timeout", 3600)
	v.SetDefault("session.sweep_interval", 300)

	v.SetDefault("typeset.script_url", "https://cdn.jsdelivr.net/npm/mathjax@3/es5/tex-mml-chtml.js")
	v.SetDefault("typeset.timeout", 15)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", []string{"stderr"})
}
