package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/relaydoc/relaydoc/internal/controlplane/auth"
	"github.com/relaydoc/relaydoc/internal/logger"
	"github.com/relaydoc/relaydoc/pkg/docstore"
)

// Server provides the control plane's HTTP server: sync endpoints, the
// websocket/SSE/durable fallback transports, and health probes.
//
// The server supports graceful shutdown with a bounded timeout.
type Server struct {
	server       *http.Server
	store        *docstore.DocumentStore
	jwtService   *auth.JWTService
	config       APIConfig
	shutdownOnce sync.Once
}

// NewServer creates a new control plane HTTP server.
//
// The server is created in a stopped state. Call Start to begin serving
// requests.
//
// If config.JWT.Secret (or the RELAYDOC_JWT_SECRET environment variable)
// is unset, the server runs without authentication — every sync and
// transport route is reachable without a bearer token. This is only
// appropriate for local development.
func NewServer(config APIConfig, store *docstore.DocumentStore) (*Server, error) {
	config.applyDefaults()

	var jwtService *auth.JWTService
	if secret := config.GetJWTSecret(); secret != "" {
		svc, err := auth.NewJWTService(auth.Config{
			Secret:               secret,
			Issuer:               "relaydoc",
			AccessTokenDuration:  config.JWT.AccessTokenDuration,
			RefreshTokenDuration: config.JWT.RefreshTokenDuration,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create JWT service: %w", err)
		}
		jwtService = svc
	} else {
		logger.Warn("control plane running without JWT authentication; set " + EnvJWTSecret + " to enable it")
	}

	router := NewRouter(store, jwtService)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", config.Port),
		Handler:      router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return &Server{
		server:     server,
		store:      store,
		jwtService: jwtService,
		config:     config,
	}, nil
}

// Start starts the HTTP server and blocks until the context is cancelled
// or an error occurs.
//
// When the context is cancelled, Start initiates graceful shutdown and
// returns Stop's result once it completes (nil on a clean shutdown).
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		logger.Info("control plane API listening", "port", s.config.Port)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			select {
			case errChan <- err:
			default:
			}
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("control plane API shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("control plane API failed: %w", err)
	}
}

// Stop initiates graceful shutdown of the server. Stop is safe to call
// multiple times and safe to call concurrently with Start.
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		logger.Debug("control plane API shutdown initiated")
		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("control plane API shutdown error: %w", err)
			logger.Error("control plane API shutdown error", "error", err)
		} else {
			logger.Info("control plane API stopped gracefully")
		}
	})
	return shutdownErr
}

// Port returns the TCP port the server is listening on.
func (s *Server) Port() int {
	return s.config.Port
}
