package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/young1lin/learnflow/internal/client"
	"github.com/young1lin/learnflow/internal/config"
	"github.com/young1lin/learnflow/internal/generator"
	"github.com/young1lin/learnflow/internal/handler"
	"github.com/young1lin/learnflow/internal/render"
	"github.com/young1lin/learnflow/internal/session"
	"github.com/young1lin/learnflow/internal/typeset"
	"github.com/young1lin/learnflow/internal/view"
	"github.com/young1lin/learnflow/pkg/logger"
)

var (
	Version   = "dev"
	BuildDate = "unknown"
)

var (
	cfgFile string
	port    int
	showVer bool
)

var rootCmd = &cobra.Command{
	Use:   "learnflow",
	Short: "LearnFlow study assistant",
	Long: `LearnFlow takes a study topic, asks a generation service for an
explanation, worked examples, videos and a quiz, and serves it all
as a single page.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVer {
			fmt.Printf("learnflow %s (built %s)\n", Version, BuildDate)
			return nil
		}

		cfg := config.Load(cfgFile)

		// Override config with command line flags
		if port > 0 {
			cfg.Server.Port = port
		}

		logger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
		defer logger.Sync()

		logger.Info("starting server",
			zap.String("version", Version),
			zap.String("host", cfg.Server.Host),
			zap.Int("port", cfg.Server.Port),
			zap.String("generation_url", cfg.GenerationURL()),
			zap.Bool("generator_enabled", cfg.Generator.Enabled),
		)

		return startServer(cfg)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().IntVarP(&port, "port", "p", 0, "listen port (overrides config)")
	rootCmd.Flags().BoolVarP(&showVer, "version", "v", false, "show version")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func startServer(cfg *config.Config) error {
	page, err := view.New(render.New(), typesetPath(cfg))
	if err != nil {
		return err
	}

	var gen *generator.Service
	if cfg.Generator.Enabled {
		if cfg.Generator.APIKey == "" {
			logger.Warn("generator enabled without an API key; provider requests will be rejected")
		}
		gen = generator.NewService(cfg.Generator)
	}

	var loader *typeset.Loader
	if cfg.Typeset.ScriptURL != "" {
		loader = typeset.NewLoader(cfg.Typeset.ScriptURL, time.Duration(cfg.Typeset.Timeout)*time.Second)
	}

	store := session.NewStore(time.Duration(cfg.Session.IdleTimeout) * time.Second)

	h := handler.New(handler.Options{
		Config:    cfg,
		Store:     store,
		Client:    client.New(cfg.GenerationURL(), time.Duration(cfg.Generation.Timeout)*time.Second),
		Page:      page,
		Typeset:   loader,
		Generator: gen,
	})

	srv := &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      h,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go store.Run(ctx, time.Duration(cfg.Session.SweepInterval)*time.Second)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	fmt.Printf(`
LearnFlow %s
  Page:       http://%s/
  Health:     http://%s/health
  Generation: %s

`, Version, srv.Addr, srv.Addr, cfg.GenerationURL())

	select {
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
	return nil
}

func typesetPath(cfg *config.Config) string {
	if cfg.Typeset.ScriptURL == "" {
		return ""
	}
	return handler.TypesetPath
}
