// Package server exposes maze generation over HTTP.
//
// # Routes
//
//	GET  /healthz                       build info
//	POST /v1/mazes                      generate a level, returns its layout
//	GET  /v1/mazes                      list archived levels, newest first
//	GET  /v1/mazes/{id}                 layout JSON
//	GET  /v1/mazes/{id}/{format}        rendered artifact (svg, dot, txt, json)
//	POST /v1/mazes/{id}/regenerate      grow a larger level in place
//	GET  /v1/stream                     websocket: live generation events
//
// Every generated level is kept in a live session, so it can be regenerated,
// and written to the archive, so it can be fetched after its session has
// been evicted. Sessions are bounded; the oldest is evicted first.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/matzehuels/chunkmaze/pkg/archive"
	"github.com/matzehuels/chunkmaze/pkg/catalog"
	"github.com/matzehuels/chunkmaze/pkg/observability"
	"github.com/matzehuels/chunkmaze/pkg/pipeline"
)

// DefaultMaxSessions bounds the number of live sessions.
const DefaultMaxSessions = 256

// Server serves the HTTP API.
type Server struct {
	runner   *pipeline.Runner
	lib      *catalog.Library
	store    archive.Store
	logger   *log.Logger
	defaults pipeline.Options

	maxSessions int
	mu          sync.Mutex
	sessions    map[string]*liveSession

	upgrader websocket.Upgrader
}

type liveSession struct {
	*pipeline.Session
	created time.Time
}

// Option configures a [Server].
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option { return func(s *Server) { s.logger = l } }

// WithMaxSessions bounds the number of live sessions.
func WithMaxSessions(n int) Option { return func(s *Server) { s.maxSessions = n } }

// WithDefaults sets the options a request body is merged over.
func WithDefaults(o pipeline.Options) Option { return func(s *Server) { s.defaults = o } }

// New creates a server generating from lib. A nil store archives in memory.
func New(runner *pipeline.Runner, lib *catalog.Library, store archive.Store, opts ...Option) *Server {
	s := &Server{
		runner:      runner,
		lib:         lib,
		store:       store,
		maxSessions: DefaultMaxSessions,
		sessions:    make(map[string]*liveSession),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	for _, o := range opts {
		o(s)
	}
	if s.store == nil {
		s.store = archive.NewMemoryStore()
	}
	if s.logger == nil {
		s.logger = runner.Logger
	}
	return s
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/stream", s.handleStream)
		r.Route("/mazes", func(r chi.Router) {
			r.Post("/", s.handleCreate)
			r.Get("/", s.handleList)
			r.Get("/{id}", s.handleGet)
			r.Get("/{id}/{format}", s.handleArtifact)
			r.Post("/{id}/regenerate", s.handleRegenerate)
		})
	})
	return r
}

// observe logs requests and reports them to the HTTP hooks.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		hooks := observability.HTTP()

		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = r.URL.Path
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		hooks.OnRequest(r.Context(), r.Method, route)
		hooks.OnResponse(r.Context(), r.Method, route, status, time.Since(start))
		s.logger.Debug("request",
			"method", r.Method,
			"route", route,
			"status", status,
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) session(id string) (*liveSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ls, ok := s.sessions[id]
	return ls, ok
}

func (s *Server) addSession(id string, ps *pipeline.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.sessions) >= s.maxSessions && len(s.sessions) > 0 {
		var oldest string
		var at time.Time
		for k, v := range s.sessions {
			if oldest == "" || v.created.Before(at) {
				oldest, at = k, v.created
			}
		}
		delete(s.sessions, oldest)
		s.logger.Debug("evicted session", "id", oldest)
	}
	s.sessions[id] = &liveSession{Session: ps, created: time.Now()}
}

// Sessions returns the number of live sessions.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
