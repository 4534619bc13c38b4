// Package api exposes the HTTP intake surface: submit a URL, watch the job,
// discover the supported download options.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tunedrop/tunedrop/internal/config"
	"github.com/tunedrop/tunedrop/internal/model"
	"github.com/tunedrop/tunedrop/internal/queue"
	"github.com/tunedrop/tunedrop/internal/runner"
	"github.com/tunedrop/tunedrop/internal/source"
)

// JobStore is the persistence the API needs. Both the postgres repository and
// the in-memory store satisfy it.
type JobStore interface {
	Create(ctx context.Context, job *model.Job) error
	Get(ctx context.Context, id string) (*model.Job, error)
}

// Enqueuer hands accepted jobs to the worker queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, payload queue.DownloadPayload) error
}

// Server exposes HTTP endpoints for job intake and visibility.
type Server struct {
	cfg    *config.Config
	store  JobStore
	queue  Enqueuer
	log    *zap.Logger
	server *http.Server
	once   sync.Once
}

// New constructs a Server.
func New(cfg *config.Config, store JobStore, enqueuer Enqueuer, log *zap.Logger) *Server {
	return &Server{cfg: cfg, store: store, queue: enqueuer, log: log}
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.once.Do(func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/healthz", s.handleHealth)
		mux.HandleFunc("/options", s.handleOptions)
		mux.HandleFunc("/jobs", s.handleJobs)
		mux.HandleFunc("/jobs/", s.handleJobRoute)
		s.server = &http.Server{
			Addr:    s.cfg.Address,
			Handler: corsMiddleware(s.loggingMiddleware(mux)),
		}
	})
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()
	s.log.Info("api listening", zap.String("addr", s.cfg.Address))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.respondJSON(w, http.StatusOK, runner.SupportedOptions())
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleSubmit(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleJobRoute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/jobs/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	job, err := s.store.Get(r.Context(), id)
	if err != nil {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}
	s.respondJSON(w, http.StatusOK, job)
}

type submitRequest struct {
	UserID  string            `json:"userId"`
	URL     string            `json:"url"`
	Options map[string]string `json:"options,omitempty"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req submitRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64*1024)).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		http.Error(w, "userId is required", http.StatusBadRequest)
		return
	}
	if err := source.Check(req.URL); err != nil {
		http.Error(w, "not a valid "+source.Provider+" URL", http.StatusBadRequest)
		return
	}

	job := &model.Job{
		ID:        uuid.NewString(),
		UserID:    req.UserID,
		SourceURL: req.URL,
		ContentID: source.ContentID(req.URL),
		Options:   req.Options,
	}
	if err := s.store.Create(ctx, job); err != nil {
		s.log.Error("store job failed", zap.Error(err))
		http.Error(w, "failed to store job", http.StatusInternalServerError)
		return
	}
	payload := queue.DownloadPayload{
		JobID:   job.ID,
		UserID:  job.UserID,
		URL:     job.SourceURL,
		Options: job.Options,
	}
	if err := s.queue.Enqueue(ctx, payload); err != nil {
		s.log.Error("enqueue job failed", zap.String("job", job.ID), zap.Error(err))
		http.Error(w, "failed to queue job", http.StatusInternalServerError)
		return
	}
	s.respondJSON(w, http.StatusAccepted, map[string]string{
		"id":     job.ID,
		"status": string(job.Status),
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("encode response failed", zap.Error(err))
	}
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("took", time.Since(start)))
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
