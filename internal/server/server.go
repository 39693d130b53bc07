// Package server exposes the search engine as an HTTP run service:
// benchmark runs are started, observed, and cancelled over a small JSON
// API, with prometheus instrumentation on the side.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/copyleftdev/LAHC/internal/config"
	"github.com/copyleftdev/LAHC/internal/errors"
	"github.com/copyleftdev/LAHC/internal/optimization"
	"github.com/copyleftdev/LAHC/internal/optimization/problems"
)

// Run statuses. A run is terminal in completed, failed, or cancelled.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// RunState tracks one search run. Access is guarded by the server's run
// mutex; the engine itself is single-threaded and only the reporter
// callback crosses into this struct.
type RunState struct {
	ID          string
	Problem     string
	Status      string
	StartTime   time.Time
	EndTime     *time.Time
	Progress    optimization.Progress
	Summary     *problems.Summary
	Err         string
	CancelFunc  context.CancelFunc
	LastUpdated time.Time
}

// Server implements the HTTP API of the run service.
type Server struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *Metrics

	runs   map[string]*RunState
	runsMu sync.RWMutex
}

// NewServer creates a new server instance with the given config, logger,
// and metrics.
func NewServer(cfg *config.Config, logger *zap.Logger, metrics *Metrics) *Server {
	return &Server{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		runs:    make(map[string]*RunState),
	}
}

func (s *Server) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/problems", s.handleProblems)
		r.Post("/runs", s.handleStartRun)
		r.Get("/runs/{id}", s.handleRunStatus)
		r.Delete("/runs/{id}", s.handleCancelRun)
	})
}

// startRunRequest is the body of POST /api/v1/runs. Search settings are
// optional; anything omitted falls back to the service defaults.
type startRunRequest struct {
	Problem         string   `json:"problem"`
	Seed            int64    `json:"seed"`
	HistoryLength   *int     `json:"historyLength,omitempty"`
	StepsMin        *int     `json:"stepsMin,omitempty"`
	IdleFraction    *float64 `json:"idleFraction,omitempty"`
	UpdatesEvery    *int     `json:"updatesEvery,omitempty"`
	SaveStateOnExit *bool    `json:"saveStateOnExit,omitempty"`
}

func (s *Server) handleStartRun(w http.ResponseWriter, r *http.Request) {
	var req startRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	runFn, ok := problems.Lookup(req.Problem)
	if !ok {
		s.respondError(w, http.StatusBadRequest, "unknown problem: "+req.Problem)
		return
	}

	cfg := s.cfg.SearchConfig()
	if req.HistoryLength != nil {
		cfg.HistoryLength = *req.HistoryLength
	}
	if req.StepsMin != nil {
		cfg.StepsMin = *req.StepsMin
	}
	if req.IdleFraction != nil {
		cfg.IdleFraction = *req.IdleFraction
	}
	if req.UpdatesEvery != nil {
		cfg.UpdatesEvery = *req.UpdatesEvery
	}
	if req.SaveStateOnExit != nil {
		cfg.SaveStateOnExit = *req.SaveStateOnExit
	}
	if err := cfg.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())

	state := &RunState{
		ID:          id,
		Problem:     req.Problem,
		Status:      StatusPending,
		StartTime:   time.Now(),
		CancelFunc:  cancel,
		LastUpdated: time.Now(),
	}

	s.runsMu.Lock()
	s.runs[id] = state
	s.runsMu.Unlock()

	s.metrics.RunsStarted.Inc()
	go s.runSearch(ctx, id, runFn, cfg, req.Seed)

	s.logger.Info("run accepted",
		zap.String("run_id", id),
		zap.String("problem", req.Problem),
		zap.Int("history_length", cfg.HistoryLength),
	)

	s.respondJSON(w, http.StatusAccepted, map[string]string{
		"run_id": id,
		"status": StatusPending,
	})
}

// runSearch executes one search run in its own goroutine.
func (s *Server) runSearch(ctx context.Context, id string, runFn problems.RunFunc, cfg optimization.Config, seed int64) {
	s.setStatus(id, StatusRunning)
	s.metrics.RunningGauge.Inc()
	defer s.metrics.RunningGauge.Dec()

	opts := problems.RunOptions{
		Seed:     seed,
		Reporter: s.progressReporter(id),
	}
	if cfg.SaveStateOnExit {
		opts.SaveFile = filepath.Join(s.cfg.Snapshot.Dir, id+".state.json")
	}

	start := time.Now()
	summary, err := runFn(ctx, cfg, opts)
	elapsed := time.Since(start)
	s.metrics.RunDuration.Observe(elapsed.Seconds())

	s.runsMu.Lock()
	defer s.runsMu.Unlock()

	state, ok := s.runs[id]
	if !ok {
		return
	}

	now := time.Now()
	state.EndTime = &now
	state.LastUpdated = now

	switch {
	case err != nil:
		wrapped := errors.Wrap(err, "search run failed").
			WithComponent("server").WithOperation("run")
		s.logger.Error("run failed",
			zap.String("run_id", id),
			zap.Error(wrapped),
		)
		state.Status = StatusFailed
		state.Err = err.Error()
		s.metrics.RunsFinished.WithLabelValues(StatusFailed).Inc()

	case state.Status == StatusCancelled:
		// A cancelled run still yields a valid best state; record it but
		// keep the terminal status the cancel handler set.
		state.Summary = summary
		s.metrics.RunsFinished.WithLabelValues(StatusCancelled).Inc()

	default:
		state.Status = StatusCompleted
		state.Summary = summary
		s.logger.Info("run completed",
			zap.String("run_id", id),
			zap.Float64("energy", summary.Energy),
			zap.Int("steps", summary.Steps),
			zap.Duration("elapsed", elapsed),
		)
		s.metrics.RunsFinished.WithLabelValues(StatusCompleted).Inc()
	}
}

// progressReporter returns a reporter that folds engine telemetry into the
// run state and the step counter.
func (s *Server) progressReporter(id string) optimization.Reporter {
	lastStep := 0
	return func(p optimization.Progress) {
		s.metrics.StepsTotal.Add(float64(p.Step - lastStep))
		lastStep = p.Step

		s.runsMu.Lock()
		if state, ok := s.runs[id]; ok {
			state.Progress = p
			state.LastUpdated = time.Now()
		}
		s.runsMu.Unlock()
	}
}

func (s *Server) setStatus(id, status string) {
	s.runsMu.Lock()
	defer s.runsMu.Unlock()
	if state, ok := s.runs[id]; ok {
		// Don't resurrect a run that was cancelled before it started.
		if state.Status == StatusPending || status != StatusRunning {
			state.Status = status
		}
		state.LastUpdated = time.Now()
	}
}

// runStatusResponse is the body of GET /api/v1/runs/{id}.
type runStatusResponse struct {
	RunID       string            `json:"run_id"`
	Problem     string            `json:"problem"`
	Status      string            `json:"status"`
	StartTime   string            `json:"start_time"`
	EndTime     string            `json:"end_time,omitempty"`
	LastUpdated string            `json:"last_update"`
	Progress    *progressPayload  `json:"progress,omitempty"`
	Result      *problems.Summary `json:"result,omitempty"`
	Error       string            `json:"error,omitempty"`
}

type progressPayload struct {
	Step            int     `json:"step"`
	IdleSteps       int     `json:"idle_steps"`
	Energy          float64 `json:"energy"`
	HistoryMean     float64 `json:"history_mean"`
	HistoryVariance float64 `json:"history_variance"`
	HistoryCoV      float64 `json:"history_cov"`
}

func (s *Server) handleRunStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.runsMu.RLock()
	state, ok := s.runs[id]
	if !ok {
		s.runsMu.RUnlock()
		s.respondError(w, http.StatusNotFound, "run not found")
		return
	}

	resp := runStatusResponse{
		RunID:       state.ID,
		Problem:     state.Problem,
		Status:      state.Status,
		StartTime:   state.StartTime.Format(time.RFC3339),
		LastUpdated: state.LastUpdated.Format(time.RFC3339),
		Result:      state.Summary,
		Error:       state.Err,
	}
	if state.EndTime != nil {
		resp.EndTime = state.EndTime.Format(time.RFC3339)
	}
	if state.Progress.Step > 0 || state.Status == StatusRunning {
		resp.Progress = &progressPayload{
			Step:            state.Progress.Step,
			IdleSteps:       state.Progress.IdleSteps,
			Energy:          state.Progress.Energy,
			HistoryMean:     state.Progress.HistoryMean,
			HistoryVariance: state.Progress.HistoryVariance,
			HistoryCoV:      state.Progress.CoV(),
		}
	}
	s.runsMu.RUnlock()

	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCancelRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.runsMu.Lock()
	state, ok := s.runs[id]
	if !ok {
		s.runsMu.Unlock()
		s.respondError(w, http.StatusNotFound, "run not found")
		return
	}

	switch state.Status {
	case StatusCompleted, StatusFailed, StatusCancelled:
		status := state.Status
		s.runsMu.Unlock()
		s.respondError(w, http.StatusConflict, "cannot cancel run with status: "+status)
		return
	}

	if state.CancelFunc != nil {
		state.CancelFunc()
	}
	state.Status = StatusCancelled
	now := time.Now()
	state.EndTime = &now
	state.LastUpdated = now
	s.runsMu.Unlock()

	s.logger.Info("run cancelled", zap.String("run_id", id))

	s.respondJSON(w, http.StatusOK, map[string]string{
		"run_id": id,
		"status": StatusCancelled,
	})
}

func (s *Server) handleProblems(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string][]string{
		"problems": problems.Names(),
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.logger.Error("request error",
		zap.Int("status", status),
		zap.String("message", message),
	)
	s.respondJSON(w, status, map[string]string{"error": message})
}

// Close cancels every in-flight run.
func (s *Server) Close() error {
	s.runsMu.Lock()
	defer s.runsMu.Unlock()

	for _, run := range s.runs {
		if run.CancelFunc != nil {
			run.CancelFunc()
		}
	}
	return nil
}
