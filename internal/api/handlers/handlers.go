package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/dvloznov/redeban-reporter/internal/api/middleware"
	"github.com/dvloznov/redeban-reporter/internal/domain"
	"github.com/dvloznov/redeban-reporter/internal/jobs"
	"github.com/dvloznov/redeban-reporter/internal/jobs/inmemory"
	"github.com/dvloznov/redeban-reporter/internal/logger"
	"github.com/rs/zerolog"
)

// TriggerHandler starts a run and answers with its result.
type TriggerHandler struct {
	publisher jobs.Publisher
	log       zerolog.Logger
}

// NewTriggerHandler creates a new trigger handler.
func NewTriggerHandler(publisher jobs.Publisher, log zerolog.Logger) *TriggerHandler {
	return &TriggerHandler{
		publisher: publisher,
		log:       log,
	}
}

// Run handles GET|POST /. The request blocks until the queued run finishes.
func (h *TriggerHandler) Run(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	job := jobs.NewRunJob("http")
	if err := h.publisher.PublishRun(ctx, job); err != nil {
		log.Error().Err(err).Msg("Failed to enqueue run")
		middleware.WriteJSON(w, http.StatusInternalServerError, domain.PipelineResult{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	log.Info().Str("job_id", job.JobID).Msg("Run enqueued")

	if err := job.Wait(ctx); err != nil {
		log.Warn().Err(err).Str("job_id", job.JobID).Msg("Stopped waiting for run")
		middleware.WriteJSON(w, http.StatusInternalServerError, domain.PipelineResult{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	if job.Status != jobs.JobStatusCompleted || job.Result == nil {
		middleware.WriteJSON(w, http.StatusInternalServerError, domain.PipelineResult{
			Success: false,
			Error:   job.Error,
		})
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job.Result)
}

// Health handles GET /health.
func Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// RunsHandler exposes the run history kept in the job store.
type RunsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(store jobs.JobStore, log zerolog.Logger) *RunsHandler {
	return &RunsHandler{
		store: store,
		log:   log,
	}
}

// GetRun handles GET /api/runs/{id}
func (h *RunsHandler) GetRun(w http.ResponseWriter, r *http.Request, runID string) {
	ctx := r.Context()

	job, err := h.store.GetJob(ctx, runID)
	if errors.Is(err, inmemory.ErrJobNotFound) {
		middleware.WriteError(w, http.StatusNotFound, "Run not found")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("run_id", runID).Msg("Failed to get run")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get run")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListRuns handles GET /api/runs
func (h *RunsHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Parse query parameters
	query := r.URL.Query()
	filter := jobs.JobFilter{
		Status: jobs.JobStatus(query.Get("status")),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	runs, err := h.store.ListJobs(ctx, filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list runs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list runs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// Register wires every endpoint into mux.
func Register(mux *http.ServeMux, trigger *TriggerHandler, runs *RunsHandler) {
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			middleware.WriteError(w, http.StatusNotFound, "Not found")
			return
		}
		if r.Method == http.MethodGet || r.Method == http.MethodPost {
			trigger.Run(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			Health(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/runs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			runs.ListRuns(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/runs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			// Extract run ID from path
			runID := strings.TrimPrefix(r.URL.Path, "/api/runs/")
			if runID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Run ID is required")
				return
			}
			runs.GetRun(w, r, runID)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})
}
