package proxy

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/klauspost/compress/gzhttp"
)

// MountRoutes registers the global middleware chain and the endpoints.
//
// Ordering rationale:
//  1. Recoverer        - catches panics; outermost so every failure is caught.
//  2. ContextTimeout   - soft deadline ahead of the Lambda hard timeout.
//  3. RequestID        - correlation ID for logs and responses.
//  4. SecurityHeaders  - present on all responses, including errors.
//  5. ClientIP         - resolves the caller IP once for everything below.
//  6. RequestLogger    - structured request logs.
//  7. CORS             - browser preflight and response headers.
//  8. Metrics          - latency and count recording.
//  9. Gzip             - response compression (base64 audio compresses well).
//
// The origin allow-list and rate limiter apply only to /synthesize; the
// health endpoint stays probe-friendly.
func (s *Server) MountRoutes() {
	s.router.Use(s.Recoverer)
	s.router.Use(ContextTimeoutMiddleware(s.Config.Server.RequestTimeout))
	s.router.Use(RequestIDMiddleware)
	s.router.Use(s.SecurityHeadersMiddleware)
	s.router.Use(ClientIPMiddleware)
	s.router.Use(RequestLogger(s.Logger))
	s.router.Use(NewCORSMiddleware(s.Config.Server.AllowedOrigins))
	s.router.Use(s.MetricsMiddleware)
	s.router.Use(func(h http.Handler) http.Handler { return gzhttp.GzipHandler(h) })

	s.router.Group(func(r chi.Router) {
		r.Use(s.OriginCheckMiddleware)
		r.Use(s.RateLimit)
		r.Post("/synthesize", s.HandleSynthesize)
	})

	s.router.Get("/healthz", s.HandleHealthz)
}
