package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/llumina/backend/internal/config"
	"github.com/llumina/backend/internal/db"
	"github.com/llumina/backend/internal/handlers"
	"github.com/llumina/backend/internal/httpserver"
	"github.com/llumina/backend/internal/middleware"
	"github.com/llumina/backend/internal/storage"
)

// Run bootstraps the llumina vault backend.
func Run(ctx context.Context, args []string) error {
	command := "serve"
	if len(args) > 0 {
		command = args[0]
	}

	switch command {
	case "serve":
		return serve(ctx)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: true,
		Level:     parseLogLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	blobs, closeBlobs, err := openBlobStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeBlobs()

	deps, err := buildDependencies(ctx, cfg, blobs, logger)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux, deps)

	handler := middleware.RequestLogger(logger)(mux)

	srv := httpserver.New(cfg.AppPort, handler)

	logger.Info("starting http server", "port", cfg.AppPort, "storage", cfg.StorageBackend)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- srv.Start()
	}()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	case sig := <-signalCh:
		logger.Info("received signal, shutting down", "signal", sig.String())
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), httpserver.ShutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// openBlobStore selects the persistence backend for the library blobs. The
// returned cleanup is safe to call once serving stops.
func openBlobStore(ctx context.Context, cfg config.Config) (storage.BlobStore, func(), error) {
	noop := func() {}

	switch cfg.StorageBackend {
	case config.StorageMemory:
		return storage.NewMemoryBlobStore(), noop, nil
	case config.StorageFile:
		blobs, err := storage.NewFileBlobStore(cfg.DataDir)
		if err != nil {
			return nil, noop, err
		}
		return blobs, noop, nil
	case config.StoragePostgres:
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, noop, err
		}
		blobs := storage.NewPostgresBlobStore(pool)
		if err := blobs.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, noop, err
		}
		return blobs, pool.Close, nil
	case config.StorageS3:
		blobs, err := storage.NewS3BlobStore(ctx, cfg.ObjectStore)
		if err != nil {
			return nil, noop, err
		}
		return blobs, noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
