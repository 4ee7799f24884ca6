// Package server is the reference homeroom backend. It serves the REST
// collections the controllers synchronise against, backed by a
// [store.Store], and publishes every change to a [live.Hub].
//
// Routes:
//
//	GET  /api/health
//	GET  /api/live                                  websocket change feed
//	GET|POST         /api/{boards|resources|lessons|planners}
//	GET|PUT|DELETE   /api/{boards|resources|lessons|planners}/{id}
//	GET|POST         /api/{boards|planners}/{parent}/items
//	GET|PUT|DELETE   /api/{boards|planners}/{parent}/items/{id}
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/homeroomhq/homeroom/internal/rand"
	"github.com/homeroomhq/homeroom/internal/store"
	"github.com/homeroomhq/homeroom/pkg/live"
	"github.com/homeroomhq/homeroom/pkg/models"
	"github.com/rs/zerolog"
)

const maxBodySize = 1 << 20

type Server struct {
	store  store.Store
	hub    *live.Hub
	logger zerolog.Logger
	now    func() time.Time
	newID  func() models.ID
	router *mux.Router
}

type Option func(*Server)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithClock sets the source of createdAt and updatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// WithIDGenerator replaces the random uuid ids given to new records.
func WithIDGenerator(newID func() models.ID) Option {
	return func(s *Server) {
		s.newID = newID
	}
}

func New(st store.Store, opts ...Option) *Server {
	s := &Server{
		store:  st,
		logger: zerolog.Nop(),
		now:    time.Now,
		newID:  func() models.ID { return models.ID(uuid.NewString()) },
	}
	for _, opt := range opts {
		opt(s)
	}
	s.hub = live.NewHub(s.logger)
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	router := mux.NewRouter()
	router.Use(s.logRequests)
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		s.respondError(w, http.StatusNotFound, "not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		s.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	api := router.PathPrefix(models.APIPrefix).Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	router.Handle(live.Path, s.hub).Methods(http.MethodGet)

	for _, kind := range models.Kinds() {
		c := collection{s: s, kind: kind}
		base := "/" + kind.Segment()
		if kind.Nested() {
			base = "/" + kind.Parent().Segment() + "/{parent}" + base
		}
		api.HandleFunc(base, c.list).Methods(http.MethodGet)
		api.HandleFunc(base, c.create).Methods(http.MethodPost)
		api.HandleFunc(base+"/{id}", c.get).Methods(http.MethodGet)
		api.HandleFunc(base+"/{id}", c.update).Methods(http.MethodPut)
		api.HandleFunc(base+"/{id}", c.delete).Methods(http.MethodDelete)
	}
	return router
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(models.RequestIDHeader)
		if requestID == "" {
			requestID = rand.NewRequestID()
		}
		w.Header().Set(models.RequestIDHeader, requestID)

		m := httpsnoop.CaptureMetrics(next, w, r)
		s.logger.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("url", r.URL.String()).
			Dur("duration", m.Duration).
			Int("status", m.Code).
			Msg("handled")
	})
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Hub is the change feed every write is published to.
func (s *Server) Hub() *live.Hub {
	return s.hub
}

// Close disconnects live subscribers. The store is owned by the caller.
func (s *Server) Close() {
	s.hub.Close()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"subscribers": s.hub.Len(),
		"time":        s.now().UTC().Format(time.RFC3339),
	})
}

// Run serves handler on addr until ctx is cancelled, then shuts down,
// giving in-flight requests up to shutdownTimeout to finish.
func Run(ctx context.Context, addr string, handler http.Handler, shutdownTimeout time.Duration, logger zerolog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("homeroom server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-serverErr:
		return err
	}
}
