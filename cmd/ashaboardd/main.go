// Command ashaboardd is the ashaboard service.
// It serves the leaderboard and registry API, exposes Prometheus metrics and
// optionally applies water readings received from field sensors over MQTT.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ashaboard/ashaboard/internal/api"
	"github.com/ashaboard/ashaboard/internal/leaderboard"
	"github.com/ashaboard/ashaboard/internal/observability"
	"github.com/ashaboard/ashaboard/internal/registry"
	"github.com/ashaboard/ashaboard/internal/seed"
	"github.com/ashaboard/ashaboard/internal/sensors"
	"github.com/ashaboard/ashaboard/pkg/config"
	"github.com/ashaboard/ashaboard/pkg/ranking"
)

var version = "dev"

const (
	seedAttempts    = 5
	seedRetryDelay  = 2 * time.Second
	shutdownTimeout = 15 * time.Second
)

type options struct {
	configPath string
	envFile    string
	logLevel   string
	logFormat  string
}

func main() {
	var opts options

	cmd := &cobra.Command{
		Use:           "ashaboardd",
		Short:         "Serve the village health risk leaderboard",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, opts)
		},
	}
	cmd.Flags().StringVar(&opts.configPath, "config", "", "Config file (default: nearest .ashaboard/config.yaml)")
	cmd.Flags().StringVar(&opts.envFile, "env-file", ".env", "Environment file loaded before reading the config")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	cmd.Flags().StringVar(&opts.logFormat, "log-format", "text", "Log format: text or json")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	logger, err := newLogger(os.Stderr, opts.logLevel, opts.logFormat)
	if err != nil {
		return err
	}

	if err := godotenv.Load(opts.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("could not load env file", "path", opts.envFile, "error", err)
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}

	srv, err := newServer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer srv.Close()

	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(os.Stdout),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting ashaboardd", "addr", cfg.Server.Addr, "version", version)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if cwd, err := os.Getwd(); err == nil {
			path = config.FindConfigFile(cwd)
		}
	}

	cfg := config.DefaultConfig()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg.ApplyEnv(os.Getenv)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	hopts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(format) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, hopts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(w, hopts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q (want text or json)", format)
	}
}

// server holds the wired service components.
type server struct {
	reg        *registry.Registry
	loader     seed.Loader
	subscriber *sensors.Subscriber
	api        *api.Handler
	cfg        *config.Config
}

func newServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*server, error) {
	metrics := observability.NewMetrics()
	reg := registry.New()

	loader, err := openLoader(ctx, cfg.Seed, logger)
	if err != nil {
		return nil, err
	}
	s := &server{reg: reg, loader: loader, cfg: cfg}

	ds, err := loader.Load(ctx)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("load seed data: %w", err)
	}
	if err := reg.Replace(ds); err != nil {
		s.Close()
		return nil, fmt.Errorf("seed registry: %w", err)
	}
	metrics.SetRegistryVersion(reg.Version())
	logger.Info("registry seeded",
		"kind", cfg.Seed.Kind,
		"workers", len(ds.Workers),
		"cases", len(ds.Cases),
		"sources", len(ds.Sources))

	board := leaderboard.NewService(reg,
		ranking.NewEngine(cfg.Ranking.Weights),
		leaderboard.NewBoardCache(cfg.Cache.Size),
		metrics, logger)

	if cfg.Sensors.Broker != "" {
		sub, err := sensors.NewSubscriber(cfg.Sensors, reg, metrics, logger)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("sensor subscriber: %w", err)
		}
		if err := sub.Start(); err != nil {
			s.Close()
			return nil, fmt.Errorf("start sensor subscriber: %w", err)
		}
		s.subscriber = sub
	}

	var reloader seed.Loader
	if cfg.Seed.Kind != config.SeedNone {
		reloader = loader
	}
	s.api = api.NewHandler(reg, board, reloader, metrics, logger)
	return s, nil
}

// openLoader builds the seed loader, retrying while the backing store comes
// up. Containers often start before their database is accepting connections.
func openLoader(ctx context.Context, cfg config.SeedConfig, logger *slog.Logger) (seed.Loader, error) {
	var lastErr error
	for attempt := 1; attempt <= seedAttempts; attempt++ {
		loader, err := seed.New(ctx, cfg)
		if err == nil {
			return loader, nil
		}
		lastErr = err
		logger.Warn("seed source unavailable", "kind", cfg.Kind, "attempt", attempt, "error", err)

		if attempt == seedAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(seedRetryDelay):
		}
	}
	return nil, fmt.Errorf("open seed source after %d attempts: %w", seedAttempts, lastErr)
}

// Handler returns the API wrapped with panic recovery and access logging.
func (s *server) Handler(accessLog io.Writer) http.Handler {
	h := s.api.Routes(s.cfg.Server.APIKey, s.cfg.Server.CORSOrigins)
	h = handlers.CombinedLoggingHandler(accessLog, h)
	return handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(h)
}

// Close stops the subscriber and releases the seed source.
func (s *server) Close() {
	if s.subscriber != nil {
		s.subscriber.Stop()
	}
	if c, ok := s.loader.(io.Closer); ok {
		_ = c.Close()
	}
}
