// main is the entry point of the Students API.
//
// STARTUP SEQUENCE:
//  1. Load configuration (.env, optional YAML, environment)
//  2. Initialise the logger
//  3. Open the storage handle (MongoDB connects in the background)
//  4. Build the router: /students, /healthz, static files
//  5. Start the HTTP server in a separate goroutine
//  6. Block the main goroutine until an OS signal (Ctrl+C / kill) arrives
//  7. Gracefully shut down: finish in-flight requests, close storage, exit
//
// RUNNING THE SERVER:
//
//	MONGO_URI=mongodb://localhost:27017 go run ./cmd/students-api
//
// or with a config file:
//
//	go run ./cmd/students-api --config=config/local.yaml
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/aanand-mishra/students-mongo-api/internal/config"
	"github.com/aanand-mishra/students-mongo-api/internal/http/router"
	"github.com/aanand-mishra/students-mongo-api/internal/logger"
	"github.com/aanand-mishra/students-mongo-api/internal/storage"
	"github.com/aanand-mishra/students-mongo-api/internal/storage/mongodb"
	"github.com/aanand-mishra/students-mongo-api/internal/storage/sqlite"
)

// connectTimeout bounds the background MongoDB ping at startup.
const connectTimeout = 30 * time.Second

func main() {
	cfg := config.MustLoad()

	log := logger.New(cfg.Env)
	log.Info().
		Str("env", cfg.Env).
		Str("storage", cfg.Storage.Driver).
		Msg("starting students-api")

	store, err := openStorage(cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialise storage")
		os.Exit(1)
	}

	server := &http.Server{
		Addr:    cfg.HTTPServer.Addr(),
		Handler: router.New(store, cfg.HTTPServer.StaticDir, log),

		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("address", server.Addr).Msg("server started")

		// ListenAndServe returns http.ErrServerClosed after Shutdown().
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server encountered an error")
			os.Exit(1)
		}
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	<-done

	log.Info().Msg("shutdown signal received, stopping server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("failed to shutdown server gracefully")
	}
	if err := store.Close(ctx); err != nil {
		log.Error().Err(err).Msg("failed to close storage")
	}

	log.Info().Msg("server stopped gracefully")
}

// openStorage builds the backend named by cfg.Storage.Driver.
//
// For MongoDB the connection is verified in the background: a failure is
// logged and the process keeps serving, so requests made before the
// server is reachable fail at the storage call.
func openStorage(cfg *config.Config, log zerolog.Logger) (storage.Storage, error) {
	switch cfg.Storage.Driver {
	case config.DriverMongoDB:
		db, err := mongodb.New(cfg, log)
		if err != nil {
			return nil, err
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
			defer cancel()

			if err := db.Init(ctx); err != nil {
				log.Error().Err(err).Msg("connection fails")
				return
			}
			log.Info().Str("database", cfg.Storage.MongoDatabase).Msg("connected to database")
		}()

		return db, nil

	case config.DriverSQLite:
		db, err := sqlite.New(cfg)
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", cfg.Storage.SQLitePath).Msg("storage initialised")
		return db, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
