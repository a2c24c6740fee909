// Package serve exposes a run's evidence over HTTP for review.
package serve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"

	"github.com/Dicklesworthstone/expense-e2e/internal/evidence"
	"github.com/Dicklesworthstone/expense-e2e/internal/metrics"
	"github.com/Dicklesworthstone/expense-e2e/internal/results"
)

// Config holds server settings.
type Config struct {
	Layout evidence.Layout
	// ResultsPath is an optional test report used by /api/summary.
	ResultsPath   string
	ResultsFormat results.Format
	Logger        *log.Logger
}

// Server serves the evidence directory.
type Server struct {
	cfg    Config
	logger *log.Logger
	router chi.Router
}

// New creates a server and its routes.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.ResultsFormat == "" {
		cfg.ResultsFormat = results.FormatAuto
	}
	s := &Server{cfg: cfg, logger: cfg.Logger}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/manifest", s.handleManifest)
		r.Get("/summary", s.handleSummary)
		r.Get("/steps", s.handleSteps)
		r.Get("/metrics", s.handleMetrics)
	})
	screenshots := http.StripPrefix("/screenshots/", http.FileServer(http.Dir(s.cfg.Layout.Screenshots())))
	r.Get("/screenshots/*", screenshots.ServeHTTP)
	return r
}

// ListenAndServe serves on addr until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("serving evidence", "addr", addr, "root", s.cfg.Layout.Root)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "status", ww.Status(), "elapsed", time.Since(start))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeSuccessResponse(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleManifest(w http.ResponseWriter, r *http.Request) {
	m, err := evidence.BuildManifest(r.Context(), s.cfg.Layout)
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeSuccessResponse(w, http.StatusOK, map[string]any{"manifest": m, "counts": m.Counts()})
}

func (s *Server) loadSummary() (evidence.Summary, int, error) {
	if s.cfg.ResultsPath == "" {
		return evidence.Summary{}, http.StatusNotFound, errors.New("no results file configured")
	}
	res, err := results.Load(s.cfg.ResultsPath, s.cfg.ResultsFormat)
	if err != nil {
		return evidence.Summary{}, http.StatusInternalServerError, err
	}
	return evidence.BuildSummary(res, time.Now()), http.StatusOK, nil
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, code, err := s.loadSummary()
	if err != nil {
		writeErrorResponse(w, code, err.Error())
		return
	}
	writeSuccessResponse(w, http.StatusOK, map[string]any{"summary": summary})
}

func (s *Server) handleSteps(w http.ResponseWriter, r *http.Request) {
	entries, err := evidence.ReadStepLog(filepath.Join(s.cfg.Layout.Reports(), evidence.StepLogFilename))
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entries == nil {
		entries = []evidence.StepEntry{}
	}
	writeSuccessResponse(w, http.StatusOK, map[string]any{"steps": entries})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	summary, _, err := s.loadSummary()
	if err != nil {
		// Counts are still useful without a results file.
		summary = evidence.BuildSummary(nil, time.Now())
	}
	m, err := evidence.BuildManifest(r.Context(), s.cfg.Layout)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	steps, _ := evidence.ReadStepLog(filepath.Join(s.cfg.Layout.Reports(), evidence.StepLogFilename))
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_, _ = w.Write([]byte(metrics.NewReport(summary, m, steps).ExportPrometheus()))
}

func writeSuccessResponse(w http.ResponseWriter, code int, data map[string]any) {
	body := map[string]any{
		"success":   true,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range data {
		body[k] = v
	}
	writeJSON(w, code, body)
}

func writeErrorResponse(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{
		"success":   false,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"error":     msg,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
