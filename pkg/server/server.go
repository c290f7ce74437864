// Package server exposes saved dialogues over HTTP.
//
// # Routes
//
//	GET    /dialogues                     list summaries, newest first
//	POST   /dialogues                     create; an empty document gets the START -> TEXT -> END scaffold
//	GET    /dialogues/{id}                full dialogue
//	PUT    /dialogues/{id}                replace name and document
//	DELETE /dialogues/{id}                delete
//	POST   /dialogues/{id}/nodes          add a node of a type
//	DELETE /dialogues/{id}/nodes/{node}   remove a node and its edges
//	POST   /dialogues/{id}/edges          connect an output to an input
//	GET    /dialogues/{id}/{format}       export as dot, svg, pdf, png or json
//
// Documents are validated by rebuilding the dialogue graph before they are
// stored, so a store only ever holds loadable dialogues. Node and edge
// routes apply the same rules as the interactive editor: START cannot be
// removed or duplicated and an occupied input refuses a second edge.
//
// Errors are JSON objects {"error": message, "code": code} with the status
// derived from the pkg/errors code.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/dialoguegraph/pkg/buildinfo"
	"github.com/matzehuels/dialoguegraph/pkg/pipeline"
	"github.com/matzehuels/dialoguegraph/pkg/session"
	"github.com/matzehuels/dialoguegraph/pkg/view"
)

// DefaultAddr is the listen address when none is configured.
const DefaultAddr = ":8080"

// maxBody bounds request bodies.
const maxBody = 4 << 20

// Server serves the dialogue API.
type Server struct {
	store    session.Store
	runner   *pipeline.Runner
	logger   *log.Logger
	fallback view.Point
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithFallback sets the position of nodes added through the API.
func WithFallback(p view.Point) Option {
	return func(s *Server) { s.fallback = p }
}

// New creates a server over store. Exports go through runner; a nil runner
// renders without caching.
func New(store session.Store, runner *pipeline.Runner, opts ...Option) *Server {
	s := &Server{
		store:    store,
		runner:   runner,
		fallback: view.Point{X: 100, Y: 100},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.runner == nil {
		s.runner = pipeline.NewRunner(nil, nil, s.logger)
	}
	return s
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.SetHeader("Server", buildinfo.ServerHeader()))
	r.Use(s.observe)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.Version})
	})

	r.Route("/dialogues", func(r chi.Router) {
		r.Get("/", s.list)
		r.Post("/", s.create)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.get)
			r.Put("/", s.put)
			r.Delete("/", s.remove)
			r.Post("/nodes", s.addNode)
			r.Delete("/nodes/{node}", s.removeNode)
			r.Post("/edges", s.connect)
			r.Get("/{format:dot|svg|pdf|png|json}", s.export)
		})
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
