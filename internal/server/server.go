// Package server exposes job sheet previews and PDFs over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/joshsymonds/jobsheet/internal/models"
	"github.com/joshsymonds/jobsheet/internal/storage"
	"github.com/joshsymonds/jobsheet/pkg/logger"
)

// maxBodyBytes caps a render request body.
const maxBodyBytes = 8 << 20

// Renderer produces job sheet files.
type Renderer interface {
	Render(ctx context.Context, format string, in models.Input) (string, []byte, error)
	GenerateJobSheetPDF(ctx context.Context, in models.Input, store storage.Store) (string, string, error)
}

// Options configures a Server.
type Options struct {
	// Store receives PDFs posted to the save endpoint. Nil disables it.
	Store          storage.Store
	DefaultHost    string
	RequestTimeout time.Duration
}

// Server routes render requests to a Renderer.
type Server struct {
	renderer Renderer
	logger   logger.Logger
	opts     Options
}

// New creates a Server.
func New(r Renderer, opts Options, log logger.Logger) *Server {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 2 * time.Minute
	}
	return &Server{renderer: r, opts: opts, logger: log}
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api/job-sheets", func(r chi.Router) {
		r.Use(middleware.Timeout(s.opts.RequestTimeout))
		r.Post("/preview", s.handlePreview)
		r.Post("/pdf", s.handlePDF)
		r.Post("/pdf/blob", s.handlePDFBlob)
		if s.opts.Store != nil {
			r.Post("/pdf/save", s.handlePDFSave)
		}
	})

	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Job sheet server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving on %s: %w", addr, err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down job sheet server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("Handled request",
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).Round(time.Millisecond).String())
	})
}
