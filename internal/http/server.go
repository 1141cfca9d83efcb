// Package http exposes the stateless analysis API: declarations are
// parsed and analyzed in memory, nothing is persisted.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"irpfscan/internal/analysis"
	"irpfscan/internal/log"
)

// maxBodyBytes bounds an uploaded declaration. Real .DEC files stay well
// under a few megabytes.
const maxBodyBytes = 32 << 20

// Server wraps http.Server with the analysis pipeline and a per-client
// rate limiter.
type Server struct {
	http.Server

	pipeline     *analysis.Pipeline
	logger       *log.Logger
	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

// NewServer configures routes, returning a ready-to-run server.
func NewServer(addr string, pipeline *analysis.Pipeline, logger *log.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:           addr,
			Handler:        mux,
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   30 * time.Second,
			IdleTimeout:    60 * time.Second,
			MaxHeaderBytes: 1 << 16,
		},
		pipeline:    pipeline,
		logger:      logger.WithComponent(log.ComponentHTTP),
		rateLimiter: newRateLimiter(),
	}

	mux.HandleFunc("POST /api/analyze", s.withRateLimit(s.handleAnalyze))
	mux.HandleFunc("GET /healthz", s.handleHealth)

	return s
}

// Shutdown stops the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		err = s.Server.Shutdown(ctx)
	})
	return err
}
