// Package server exposes the HTTP control surface: run status, on-demand
// trigger, and dataset download.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"capscout/internal/history"
	"capscout/internal/orchestrator"
)

// Runner triggers one orchestrated run.
type Runner interface {
	Run(ctx context.Context) orchestrator.RunResult
}

// Dataset reports on the dataset file.
type Dataset interface {
	Exists() (bool, time.Time)
	Path() string
}

// History reads the recorded run outcomes.
type History interface {
	Last(ctx context.Context) (history.Entry, bool, error)
	Recent(ctx context.Context, limit int) ([]history.Entry, error)
}

// Server is the HTTP handler set.
type Server struct {
	runner  Runner
	dataset Dataset
	hist    History // optional
	nextRun func() time.Time
	logger  *zap.Logger
}

// New wires the control surface. nextRun reports the next scheduled run;
// hist may be nil when run history is disabled.
func New(runner Runner, ds Dataset, hist History, nextRun func() time.Time, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{runner: runner, dataset: ds, hist: hist, nextRun: nextRun, logger: logger}
}

// Handler returns the route mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("POST /run", s.handleRun)
	mux.HandleFunc("GET /download", s.handleDownload)
	mux.HandleFunc("GET /history", s.handleHistory)
	return mux
}

type statusResponse struct {
	NextRun         *time.Time     `json:"next_run,omitempty"`
	DatasetExists   bool           `json:"dataset_exists"`
	DatasetModified *time.Time     `json:"dataset_modified,omitempty"`
	LastRun         *history.Entry `json:"last_run,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{}

	if next := s.nextRun(); !next.IsZero() {
		resp.NextRun = &next
	}
	if exists, mod := s.dataset.Exists(); exists {
		resp.DatasetExists = true
		resp.DatasetModified = &mod
	}
	if s.hist != nil {
		if last, ok, err := s.hist.Last(r.Context()); err == nil && ok {
			resp.LastRun = &last
		} else if err != nil {
			s.logger.Warn("Failed to read run history", zap.Error(err))
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	result := s.runner.Run(r.Context())

	status := http.StatusOK
	if result.Error == orchestrator.ErrRunInProgress.Error() {
		status = http.StatusConflict
	}
	writeJSON(w, status, result)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	exists, _ := s.dataset.Exists()
	if !exists {
		http.Error(w, "dataset not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="small_cap_stocks.csv"`)
	http.ServeFile(w, r, s.dataset.Path())
}

// historyLimit caps the entries returned by the history endpoint.
const historyLimit = 20

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.hist == nil {
		writeJSON(w, http.StatusOK, []history.Entry{})
		return
	}
	entries, err := s.hist.Recent(r.Context(), historyLimit)
	if err != nil {
		s.logger.Error("Failed to read run history", zap.Error(err))
		http.Error(w, "history unavailable", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
