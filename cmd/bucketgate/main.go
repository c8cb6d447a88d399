// Command bucketgate serves upload, download and create-bucket over HTTP in
// front of an S3-compatible object store.
//
// Run with:
//
//	AWS_ACCESS_KEY_ID=minioadmin AWS_SECRET_ACCESS_KEY=minioadmin \
//	MINIO_ROOT_USER=minioadmin MINIO_ROOT_PASSWORD=minioadmin \
//	S3_ENDPOINT_URL=http://localhost:9000 go run ./cmd/bucketgate
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/koustreak/bucketgate/internal/config"
	"github.com/koustreak/bucketgate/internal/filestore"
	"github.com/koustreak/bucketgate/internal/filestore/minio"
	"github.com/koustreak/bucketgate/internal/filestore/s3"
	"github.com/koustreak/bucketgate/internal/gateway"
	"github.com/koustreak/bucketgate/internal/httpapi"
	"github.com/koustreak/bucketgate/internal/logger"
	"github.com/koustreak/bucketgate/internal/metrics"
)

func main() {
	configPath := flag.String("config", os.Getenv("BUCKETGATE_CONFIG"), "path to YAML config file (optional)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "bucketgate: %v\n", err)
		os.Exit(1)
	}
}

// run serves until SIGINT or SIGTERM. Deferred cleanup always runs; main
// only turns the returned error into an exit code.
func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("startup failed: %w", err)
	}

	log := logger.New(cfg.Logger())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := filestore.NewLazy(openStore(ctx, cfg.FileStore()))
	defer func() {
		if err := store.Close(); err != nil {
			log.ErrorWith("closing store", err, nil)
		}
	}()

	gw := gateway.New(store, log)
	api := httpapi.New(gw, log, metrics.New(), httpapi.Options{
		Prefix:      cfg.Server.Prefix,
		ServiceName: cfg.Server.ServiceName,
		CORSOrigins: cfg.Server.CORSOrigins,
		MaxMemory:   cfg.Server.MaxMemory,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.ErrorWith("graceful shutdown failed", err, nil)
		}
	}()

	log.InfoWith("server starting", map[string]interface{}{
		"addr":     cfg.Server.Addr,
		"provider": string(cfg.Storage.Provider),
		"region":   cfg.Storage.Region,
		"endpoint": cfg.Storage.Endpoint,
	})
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server exited: %w", err)
	}
	<-drained
	log.Info("server stopped")
	return nil
}

// openStore returns the constructor for the configured provider. The client
// is built on the first request, not at startup.
func openStore(ctx context.Context, cfg *filestore.Config) filestore.OpenFunc {
	return func() (filestore.Store, error) {
		if cfg.Provider == filestore.ProviderS3 {
			d, err := s3.New(ctx, cfg)
			if err != nil {
				return nil, err
			}
			return d, nil
		}
		d, err := minio.New(cfg)
		if err != nil {
			return nil, err
		}
		return d, nil
	}
}
