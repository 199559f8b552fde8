// Package devserver is a local stand-in for the extraction backend. It reads
// JSON questionnaires itself and answers PDF jobs with an error frame, which
// is enough to drive the client end to end without the AI pipeline.
package devserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/survaize/survaize-client/internal/jobstore"
	"github.com/survaize/survaize-client/internal/observability"
)

// Options configures the development backend.
type Options struct {
	Addr             string
	FrameInterval    time.Duration
	GracefulShutdown time.Duration
	Store            jobstore.Store
	Logger           *observability.Logger
}

// Server serves the questionnaire API.
type Server struct {
	opts   Options
	store  jobstore.Store
	logger *observability.Logger
}

// New creates a server. A nil store is replaced by an in-memory one.
func New(opts Options) *Server {
	if opts.Store == nil {
		opts.Store = jobstore.NewMemoryStore(jobstore.DefaultTTL)
	}
	if opts.GracefulShutdown <= 0 {
		opts.GracefulShutdown = 10 * time.Second
	}
	return &Server{
		opts:   opts,
		store:  opts.Store,
		logger: observability.OrNop(opts.Logger).WithOperation("devserver"),
	}
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.health)
		r.Route("/questionnaire", func(r chi.Router) {
			r.Post("/read", s.read)
			r.Get("/read/{jobID}", s.stream)
			r.Post("/save/{format}", s.save)
		})
	})
	return r
}

// Run serves on opts.Addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info().Str("addr", s.opts.Addr).Msg("Development backend listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.GracefulShutdown)
		defer cancel()
		s.logger.Info().Msg("Shutting down development backend")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
