// main is the entry point of the Students API application.
//
// STARTUP SEQUENCE:
//  1. Load configuration (.env, YAML file, environment)
//  2. Initialise the zap logger
//  3. Start the MongoDB cluster connection and ping it
//  4. Build the router
//  5. Start the HTTP server in a separate goroutine
//  6. Block the main goroutine until an OS signal (Ctrl+C / kill) arrives
//  7. Gracefully shut down: finish in-flight requests, then close the
//     cluster connection
//
// RUNNING THE SERVER:
//
//	go run ./cmd/students-api --config=config/local.yaml
//
// or (with the environment variable):
//
//	CONFIG_PATH=config/local.yaml go run ./cmd/students-api
package main

import (
	"context"
	"errors"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aanand-mishra/students-mongo-api/internal/config"
	"github.com/aanand-mishra/students-mongo-api/internal/http/router"
	"github.com/aanand-mishra/students-mongo-api/internal/logger"
	"github.com/aanand-mishra/students-mongo-api/internal/storage/mongodb"
	"go.uber.org/zap"
)

const (
	title       = "students-api"
	description = "CRUD API over the school.students MongoDB collection"
	version     = "1.0.0"
)

func main() {
	// ── 1. Load Config ────────────────────────────────────────────────────
	cfg := config.MustLoad()

	// ── 2. Initialise Logger ──────────────────────────────────────────────
	log, err := logger.New(cfg.Env)
	if err != nil {
		stdlog.Fatalf("cannot build logger: %s", err)
	}
	defer log.Sync()

	log.Info("starting "+title,
		zap.String("description", description),
		zap.String("env", cfg.Env),
		zap.String("version", version),
	)

	// ── 3. Connect to MongoDB ─────────────────────────────────────────────
	// Start pings the admin database; if the cluster is unreachable or the
	// credentials are wrong the process stops here and serves nothing.
	cluster := mongodb.NewCluster(cfg.Mongo.URI(), log)
	if err := cluster.Start(context.Background()); err != nil {
		log.Fatal("failed to initialise storage", zap.Error(err))
	}

	// ── 4. Create the HTTP Server ─────────────────────────────────────────
	// The cluster is handed to the router as a storage.Provider; handlers
	// ask it for the students collection on every request.
	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: router.New(cluster, log),

		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// ── 5. Start Server in a Goroutine ────────────────────────────────────
	go func() {
		log.Info("server started", zap.String("address", cfg.Addr))

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server encountered an error", zap.Error(err))
		}
	}()

	// ── 6. Wait for Shutdown Signal ───────────────────────────────────────
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	<-done

	log.Info("shutdown signal received, stopping server...")

	// ── 7. Graceful Shutdown ──────────────────────────────────────────────
	// The server drains first so no handler is using the client when the
	// cluster disconnects.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("failed to shutdown server gracefully", zap.Error(err))
	}

	if err := cluster.Stop(ctx); err != nil {
		log.Error("failed to close storage", zap.Error(err))
	}

	log.Info("server stopped gracefully")
}
