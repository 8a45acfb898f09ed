// Package server provides the operational HTTP endpoints of the scheduler:
// health and Prometheus metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	gracefulShutdownTimeout = 10 * time.Second
	healthCheckTimeout      = 3 * time.Second
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server serves /health and /metrics.
type Server struct {
	httpServer *http.Server
	log        *zap.SugaredLogger
}

// New creates an ops server on address. db may be nil, in which case /health
// only reports that the process is up.
func New(address string, db Pinger) *Server {
	log := zap.S().Named("ops_server")
	return &Server{
		httpServer: &http.Server{
			Addr:              address,
			Handler:           NewRouter(db, log),
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: log,
	}
}

// NewRouter builds the ops routes.
func NewRouter(db Pinger, log *zap.SugaredLogger) http.Handler {
	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		requestLogger(log),
		middleware.Recoverer,
	)

	router.Get("/health", healthHandler(db))
	router.Handle("/metrics", promhttp.Handler())
	return router
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listener)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	go func() {
		<-ctx.Done()
		ctxTimeout, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()

		s.httpServer.SetKeepAlivesEnabled(false)
		_ = s.httpServer.Shutdown(ctxTimeout)
		s.log.Info("ops server terminated")
	}()

	s.log.Infof("serving ops endpoints: %s", listener.Addr())
	if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
	Error    string `json:"error,omitempty"`
}

func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db == nil {
			jsonResponse(w, http.StatusOK, healthResponse{Status: "ok"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			jsonResponse(w, http.StatusServiceUnavailable, healthResponse{
				Status:   "unavailable",
				Database: "down",
				Error:    err.Error(),
			})
			return
		}
		jsonResponse(w, http.StatusOK, healthResponse{Status: "ok", Database: "up"})
	}
}

// jsonResponse writes a JSON response
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.S().Named("ops_server").Warnw("failed to encode response", "error", err)
	}
}

// requestLogger logs one line per request with zap.
func requestLogger(log *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			log.Debugw("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"request_id", middleware.GetReqID(r.Context()),
				"elapsed", time.Since(start),
			)
		})
	}
}
