package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/relaydoc/relaydoc/internal/controlplane/api/handlers"
	apiMiddleware "github.com/relaydoc/relaydoc/internal/controlplane/api/middleware"
	"github.com/relaydoc/relaydoc/internal/controlplane/auth"
	"github.com/relaydoc/relaydoc/internal/logger"
	"github.com/relaydoc/relaydoc/pkg/docstore"
)

// NewRouter creates and configures the chi router with all middleware and
// routes for the control plane.
//
// The router is configured with:
//   - Request ID middleware for request tracking
//   - Real IP extraction for proper client identification
//   - Custom request logging using the internal logger
//   - Panic recovery to prevent server crashes
//   - Request timeout to prevent hung requests
//
// Routes:
//   - GET /health - Liveness probe
//   - GET /health/ready - Readiness probe
//   - POST /api/v1/docs/{docID}/sync-step-1 - State reconciliation
//   - POST /api/v1/docs/{docID}/updates - Single-frame update ingestion
//   - POST /api/v1/docs/{docID}/sync-step-2 - Bulk snapshot+updates push
//   - GET /api/v1/docs/{docID}/inspect - Operator snapshot-lineage inspection
//   - GET /ws/docs/{docID} - Websocket transport
//   - GET /api/v1/docs/{docID}/events - SSE transport, server-to-client
//   - POST /api/v1/docs/{docID}/events/{clientID} - SSE transport, client-to-server
//   - GET /api/v1/stream/{prefix}/{clientID}/out - Durable fallback, long-poll
//   - POST /api/v1/stream/{prefix}/{clientID}/in - Durable fallback, batch ingestion
func NewRouter(store *docstore.DocumentStore, jwtService *auth.JWTService) http.Handler {
	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	healthHandler := handlers.NewHealthHandler(store)
	syncHandler := handlers.NewSyncHandler(store)
	adminHandler := handlers.NewAdminHandler(store)

	hub := handlers.NewHub()
	wsHandler := handlers.NewWebsocketHandler(store, hub)
	sseHandler := handlers.NewSSEHandler(store, hub)
	streamHandler := handlers.NewStreamHandler(store, hub)

	// Health routes - unauthenticated
	r.Route("/health", func(r chi.Router) {
		r.Get("/", healthHandler.Liveness)
		r.Get("/ready", healthHandler.Readiness)
	})

	// Root redirect to health for convenience
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
	})

	// Websocket transport - auth happens on upgrade via the bearer token
	// or connects unauthenticated when no JWT service is configured.
	r.Route("/ws/docs/{docID}", func(r chi.Router) {
		if jwtService != nil {
			r.Use(apiMiddleware.JWTAuth(jwtService))
			r.Use(apiMiddleware.RequireDocScope())
		}
		r.Get("/", wsHandler.Serve)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/docs/{docID}", func(r chi.Router) {
			if jwtService != nil {
				r.Use(apiMiddleware.JWTAuth(jwtService))
				r.Use(apiMiddleware.RequireDocScope())
			}

			r.Post("/sync-step-1", syncHandler.SyncStep1)
			r.Post("/updates", syncHandler.Updates)
			r.Post("/sync-step-2", syncHandler.SyncStep2)
			r.Get("/inspect", adminHandler.Inspect)

			r.Route("/events", func(r chi.Router) {
				r.Get("/", sseHandler.Stream)
				r.Post("/{clientID}", sseHandler.Send)
			})
		})

		r.Route("/stream/{prefix}/{clientID}", func(r chi.Router) {
			if jwtService != nil {
				r.Use(apiMiddleware.JWTAuth(jwtService))
				// The stream prefix is the document id (see handlers/stream.go).
				r.Use(func(next http.Handler) http.Handler {
					return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
						claims := apiMiddleware.GetClaimsFromContext(req.Context())
						if claims == nil || !claims.CanAccessDoc(chi.URLParam(req, "prefix")) {
							http.Error(w, "not authorized for this document", http.StatusForbidden)
							return
						}
						next.ServeHTTP(w, req)
					})
				})
			}
			r.Get("/out", streamHandler.Out)
			r.Post("/in", streamHandler.In)
		})
	})

	return r
}

// isHealthPath returns true if the request path is a healthcheck endpoint.
func isHealthPath(path string) bool {
	return path == "/health" || strings.HasPrefix(path, "/health/")
}

// requestLogger is a custom middleware that logs requests using the
// internal logger.
//
// It logs:
//   - Request start (DEBUG level): method, path, remote addr
//   - Request completion (INFO level): method, path, status, duration
//   - Healthcheck requests are logged at DEBUG level to reduce noise
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		logger.Debug("API request started",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		duration := time.Since(start)

		logArgs := []any{
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", duration.String(),
		}

		if isHealthPath(r.URL.Path) {
			logger.Debug("API request completed", logArgs...)
		} else {
			logger.Info("API request completed", logArgs...)
		}
	})
}
