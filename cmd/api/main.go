package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/redeban-reporter/internal/api/handlers"
	"github.com/dvloznov/redeban-reporter/internal/api/middleware"
	"github.com/dvloznov/redeban-reporter/internal/app"
	"github.com/dvloznov/redeban-reporter/internal/config"
	"github.com/dvloznov/redeban-reporter/internal/domain"
	"github.com/dvloznov/redeban-reporter/internal/jobs"
	"github.com/dvloznov/redeban-reporter/internal/jobs/inmemory"
	"github.com/dvloznov/redeban-reporter/internal/logger"
	"github.com/dvloznov/redeban-reporter/internal/pipeline"
)

func main() {
	// Parse command-line flags
	var (
		configPath = flag.String("config", "", "Optional YAML config file")
		port       = flag.String("port", "", "HTTP server port (overrides PORT)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		boot := logger.New("info")
		boot.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	log := logger.New(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if *port != "" {
		cfg.Port = *port
	}

	ctx := logger.WithContext(context.Background(), log)

	deps, cleanup := app.Deps(ctx, cfg, log)
	defer cleanup()
	runner := pipeline.NewRunner(deps)

	// Initialize job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(16, jobStore)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	jobHandler := func(ctx context.Context, job *jobs.RunJob) (domain.PipelineResult, error) {
		log.Info().Str("job_id", job.JobID).Str("trigger", job.Trigger).Msg("Processing run")
		return runner.Execute(ctx, job.JobID)
	}

	log.Info().Msg("Starting run worker")
	if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
		log.Fatal().Err(err).Msg("Failed to start run worker")
	}

	// Initialize handlers
	triggerHandler := handlers.NewTriggerHandler(jobQueue, log)
	runsHandler := handlers.NewRunsHandler(jobStore, log)

	mux := http.NewServeMux()
	handlers.Register(mux, triggerHandler, runsHandler)

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.RequestID(
			middleware.Logger(log)(
				middleware.CORS(mux),
			),
		),
	)

	// Trigger requests are held open for the whole run.
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Stop accepting triggers, then let the in-flight run finish.
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping run queue")
	}
	cancelWorker()

	log.Info().Msg("Server exited")
}
