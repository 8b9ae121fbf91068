// Package api provides the HTTP surface for site feasibility analysis.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dskanth86/ev-charger-analytics/config"
	"github.com/dskanth86/ev-charger-analytics/datasources"
	"github.com/dskanth86/ev-charger-analytics/db/clickhouse"
	"github.com/dskanth86/ev-charger-analytics/decision/analysis"
	"github.com/dskanth86/ev-charger-analytics/decision/feasibility"
	"github.com/dskanth86/ev-charger-analytics/geodata"
	"github.com/dskanth86/ev-charger-analytics/internal/metrics"
	"github.com/dskanth86/ev-charger-analytics/pkg/cserr"
)

// Server is the HTTP API server.
type Server struct {
	httpServer *http.Server
	pipeline   *analysis.Pipeline
	store      *clickhouse.Store // nil disables run history
	config     *Config
	logger     *slog.Logger
}

// Config holds server configuration.
type Config struct {
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxRequestSize int64
	CORSOrigins    []string
}

// DefaultConfig returns default server configuration.
func DefaultConfig() *Config {
	return &Config{
		Port:           8080,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   60 * time.Second,
		MaxRequestSize: 10 * 1024 * 1024, // 10MB
		CORSOrigins:    []string{"*"},
	}
}

// NewServer creates an API server. The store may be nil when run history
// persistence is disabled.
func NewServer(pipeline *analysis.Pipeline, store *clickhouse.Store, cfg *Config, logger *slog.Logger) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	metrics.Init()
	return &Server{
		pipeline: pipeline,
		store:    store,
		config:   cfg,
		logger:   logger,
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/api/v1/analyze", s.handleAnalyze)
	mux.HandleFunc("/api/v1/runs", s.handleListRuns)
	mux.HandleFunc("/api/v1/runs/", s.handleGetRun)
	mux.Handle("/metrics", promhttp.Handler())

	handler := s.corsMiddleware(s.observeMiddleware(mux))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      handler,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("api server starting", "port", s.config.Port)
	return s.httpServer.ListenAndServe()
}

// StartWithGracefulShutdown starts the server and drains it on SIGINT/SIGTERM.
func (s *Server) StartWithGracefulShutdown() error {
	errChan := make(chan error, 1)
	go func() {
		if err := s.Start(); err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case <-quit:
		s.logger.Info("shutting down api server")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(ctx)
	}
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) observeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		metrics.ObserveHTTP(r.URL.Path, fmt.Sprintf("%dxx", rec.status/100), elapsed)
		s.logger.Info("request served",
			"method", r.Method, "path", r.URL.Path,
			"status", rec.status, "duration_ms", elapsed.Milliseconds())
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		allowed := false
		for _, o := range s.config.CORSOrigins {
			if o == "*" || o == origin {
				allowed = true
				break
			}
		}

		if allowed {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "86400")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// HEALTH ENDPOINTS
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "1.0.0",
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		s.jsonError(w, http.StatusServiceUnavailable, "run history store not ready")
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ready"})
}

// =============================================================================
// ANALYZE ENDPOINT
// =============================================================================

// AnalyzeRequest carries one site plus its materialized source payloads.
// An omitted payload marks that source absent; the pipeline degrades to
// neutral defaults and flags the result partial.
type AnalyzeRequest struct {
	Site geodata.RawSite `json:"site"`

	Overpass json.RawMessage `json:"overpass,omitempty"`
	AFDC     json.RawMessage `json:"afdc,omitempty"`
	ACS      json.RawMessage `json:"acs,omitempty"`

	// SnapshotID labels the data pull; generated when empty.
	SnapshotID string `json:"snapshot_id,omitempty"`

	// Scenario overrides the server's scenario for this request only.
	Scenario *config.Scenario `json:"scenario,omitempty"`
}

// AnalyzeResponse wraps the result with the run ID when history is enabled.
type AnalyzeResponse struct {
	RunID  string             `json:"run_id,omitempty"`
	Result feasibility.Result `json:"result"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.jsonError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxRequestSize)

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}

	pipeline := s.pipeline
	if req.Scenario != nil {
		p, err := analysis.NewPipeline(*req.Scenario)
		if err != nil {
			s.jsonError(w, http.StatusBadRequest, fmt.Sprintf("invalid scenario: %v", err))
			return
		}
		pipeline = p.WithLogger(s.logger)
	}

	var poiSrc datasources.POISource
	var compSrc datasources.CompetitorSource
	var demoSrc datasources.DemographicsSource
	if len(req.Overpass) > 0 {
		poiSrc = datasources.OverpassSource{Payload: req.Overpass}
	}
	if len(req.AFDC) > 0 {
		compSrc = datasources.AFDCSource{Payload: req.AFDC}
	}
	if len(req.ACS) > 0 {
		demoSrc = datasources.ACSSource{Payload: req.ACS}
	}

	snap := feasibility.Snapshot{ID: req.SnapshotID, TakenAt: time.Now().UTC()}
	if snap.ID == "" {
		snap.ID = uuid.New().String()
	}

	analysisReq, err := analysis.BuildRequest(req.Site, poiSrc, compSrc, demoSrc, snap)
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, fmt.Sprintf("invalid source payload: %v", err))
		return
	}

	start := time.Now()
	result, err := pipeline.Run(analysisReq)
	if err != nil {
		metrics.ObserveAnalysisError(time.Since(start))
		status := http.StatusInternalServerError
		if errors.Is(err, cserr.ErrConfiguration) {
			status = http.StatusBadRequest
		}
		s.jsonError(w, status, fmt.Sprintf("analysis failed: %v", err))
		return
	}
	metrics.ObserveAnalysis(string(result.Verdict), result.Partial, time.Since(start))

	resp := AnalyzeResponse{Result: result}
	if s.store != nil {
		run, err := clickhouse.NewRun(result)
		if err == nil {
			err = s.store.SaveRun(r.Context(), run)
		}
		if err != nil {
			// History is best effort; the verdict still goes back to the caller.
			metrics.IncRunPersisted(metrics.ResultError)
			s.logger.Error("failed to persist run", "error", err)
		} else {
			metrics.IncRunPersisted(metrics.ResultSuccess)
			resp.RunID = run.ID.String()
		}
	}

	s.jsonResponse(w, http.StatusOK, resp)
}

// =============================================================================
// RUN HISTORY ENDPOINTS
// =============================================================================

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.jsonError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.store == nil {
		s.jsonError(w, http.StatusNotImplemented, "run history is disabled")
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		fmt.Sscanf(raw, "%d", &limit)
	}

	runs, err := s.store.ListRuns(r.Context(), limit)
	if err != nil {
		s.jsonError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list runs: %v", err))
		return
	}
	if runs == nil {
		runs = []clickhouse.Run{}
	}
	s.jsonResponse(w, http.StatusOK, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.jsonError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.store == nil {
		s.jsonError(w, http.StatusNotImplemented, "run history is disabled")
		return
	}

	idRaw := strings.TrimPrefix(r.URL.Path, "/api/v1/runs/")
	id, err := uuid.Parse(idRaw)
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid run id")
		return
	}

	run, err := s.store.GetRun(r.Context(), id)
	if err != nil {
		s.jsonError(w, http.StatusInternalServerError, fmt.Sprintf("failed to get run: %v", err))
		return
	}
	if run == nil {
		s.jsonError(w, http.StatusNotFound, "run not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, run)
}

// =============================================================================
// HELPERS
// =============================================================================

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) jsonError(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}
