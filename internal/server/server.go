// Package server exposes profiling reports and classifier runs over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/YuminosukeSato/edaml/internal/store"
	"github.com/YuminosukeSato/edaml/mltask"
	"github.com/YuminosukeSato/edaml/pkg/config"
	"github.com/YuminosukeSato/edaml/pkg/errors"
	"github.com/YuminosukeSato/edaml/pkg/log"
	"github.com/YuminosukeSato/edaml/profiler"
)

const shutdownTimeout = 10 * time.Second

// Server is the upload host.
type Server struct {
	cfg    *config.Config
	store  *store.Store
	logger log.Logger
	router chi.Router
}

// New builds a Server backed by st. A nil logger uses the global "server"
// logger.
func New(cfg *config.Config, st *store.Store, logger log.Logger) *Server {
	if logger == nil {
		logger = log.GetLoggerWithName("server")
	}
	s := &Server{cfg: cfg, store: st, logger: logger}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.health)
	r.Route("/datasets", func(r chi.Router) {
		r.Get("/", s.listDatasets)
		r.Post("/", s.upload)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.describe)
			r.Get("/report", s.report)
			r.Post("/ml", s.runModel)
		})
	})
	r.Get("/models", s.models)
	return r
}

// Handler returns the router.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on the configured address until ctx is cancelled,
// then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "server failed")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown failed")
	}
	<-errCh
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) profilerOptions() []profiler.Option {
	return []profiler.Option{
		profiler.WithOptions(profiler.FromConfig(s.cfg.Profiling)),
		profiler.WithLogger(s.logger.With(log.ComponentKey, "profiler")),
	}
}

func (s *Server) mlOptions() []mltask.Option {
	return []mltask.Option{
		mltask.WithOptions(mltask.FromConfig(s.cfg.ML)),
		mltask.WithLogger(s.logger.With(log.ComponentKey, "mltask")),
	}
}

// requestLogger logs one line per request through the server logger.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"request_id", middleware.GetReqID(r.Context()),
				log.DurationMsKey, time.Since(start).Milliseconds(),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}
