// Command server runs the ors-proxy gateway: it translates between the
// structured-responses API clients speak and the chat-completions API the
// configured upstream speaks, streaming events through in real time.
//
// Configuration can be provided via:
//   - YAML config file (--config flag)
//   - Environment variables: ADDR, UPSTREAM_URL, OPENAI_API_KEY,
//     DATABASE_URL, RUST_LOG/LOG_LEVEL (override config file values)
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mrorigo/ors-proxy/pkg/api"
	"github.com/mrorigo/ors-proxy/pkg/config"
	"github.com/mrorigo/ors-proxy/pkg/observability"
	"github.com/mrorigo/ors-proxy/pkg/orchestrator"
	"github.com/mrorigo/ors-proxy/pkg/storage"
	"github.com/mrorigo/ors-proxy/pkg/storage/postgres"
	"github.com/mrorigo/ors-proxy/pkg/storage/sqlite"
	"github.com/mrorigo/ors-proxy/pkg/transport"
	transporthttp "github.com/mrorigo/ors-proxy/pkg/transport/http"
	"github.com/mrorigo/ors-proxy/pkg/upstream"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	level, err := parseLogLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	store, err := createStore(cfg)
	if err != nil {
		return fmt.Errorf("creating storage: %w", err)
	}
	defer store.Close()

	client := upstream.NewClient(cfg.UpstreamURL, cfg.UpstreamAPIKey)
	orch := orchestrator.New(store, client, slog.Default())

	adapter := transporthttp.NewAdapter(
		wrapOrchestrator(orch),
		transporthttp.DefaultConfig(),
		transport.Recovery(),
		transport.RequestID(),
		transport.Logging(slog.Default()),
	)

	handler := observability.StreamingMiddleware(adapter.Handler())

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: handler,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", cfg.Addr, "upstream_url", cfg.UpstreamURL, "database_url", cfg.DatabaseURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// wrapOrchestrator adapts *orchestrator.Orchestrator to transport.ResponseCreator.
// orchestrator.CreateResponse takes an orchestrator.EventWriter, a narrower
// interface than transport.ResponseWriter, so the method value itself isn't
// assignable to ResponseCreatorFunc directly; the closure's w argument
// satisfies EventWriter structurally at the call site.
func wrapOrchestrator(orch *orchestrator.Orchestrator) transport.ResponseCreator {
	return transport.ResponseCreatorFunc(func(ctx context.Context, req *api.CreateResponseRequest, w transport.ResponseWriter) error {
		return orch.CreateResponse(ctx, req, w)
	})
}

// createStore selects a storage backend from the database_url scheme:
// postgres:// and postgresql:// use pkg/storage/postgres, everything else
// is treated as a filesystem path for pkg/storage/sqlite.
func createStore(cfg *config.Config) (storage.Store, error) {
	ctx := context.Background()

	if strings.HasPrefix(cfg.DatabaseURL, "postgres://") || strings.HasPrefix(cfg.DatabaseURL, "postgresql://") {
		store, err := postgres.New(ctx, postgres.Config{
			DSN:            cfg.DatabaseURL,
			MigrateOnStart: true,
		})
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		slog.Info("storage backend selected", "type", "postgres")
		return store, nil
	}

	store, err := sqlite.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	slog.Info("storage backend selected", "type", "sqlite", "path", cfg.DatabaseURL)
	return store, nil
}

func parseLogLevel(level string) (slog.Level, error) {
	switch level {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log_level %q", level)
	}
}
