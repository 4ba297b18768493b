package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/subgemma/subtrans/internal/jobs"
	"github.com/subgemma/subtrans/internal/service"
)

// Server exposes the job queue over a small status API: list and inspect
// jobs, trigger a scan, and stream job snapshots as server-sent events.
type Server struct {
	queue  *jobs.Queue
	runCfg service.RunConfiguration

	router *chi.Mux
	server *http.Server
}

func NewServer(queue *jobs.Queue, runCfg service.RunConfiguration) *Server {
	s := &Server{
		queue:  queue,
		runCfg: runCfg,
		router: chi.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) routes() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RealIP)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/jobs", s.handleListJobs)
		r.Get("/jobs/stream", s.handleJobStream)
		r.Get("/jobs/{id}", s.handleGetJob)
		r.Post("/scan", s.handleScan)
	})
}
