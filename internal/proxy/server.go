// Package proxy implements the edge service that shields the upstream
// speech-synthesis API key from browser callers. It creates a chi router
// compatible with both standard HTTP (for local dev) and AWS Lambda Proxy
// Integration, and enforces cross-cutting concerns (origin allow-list,
// per-IP rate limiting, logging, security headers) before requests reach
// the synthesis handler.
package proxy

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"longwave/internal/config"
	"longwave/internal/tts"
	"longwave/internal/types"
)

// Synthesizer is the upstream synthesis boundary, satisfied by *tts.Client.
type Synthesizer interface {
	Synthesize(ctx context.Context, req tts.SynthesizeRequest) (*tts.SynthesizeResponse, error)
}

// MetricsCollector records request telemetry. Implementations publish to
// CloudWatch or equivalent backends; a nil collector disables recording.
type MetricsCollector interface {
	RecordRequest(method, endpoint, status string, duration time.Duration)
	RecordCacheLookup(hit bool)
}

// UsagePublisher receives fire-and-forget usage events.
type UsagePublisher interface {
	Publish(ctx context.Context, event types.UsageEvent)
}

// Server encapsulates all dependencies for the proxy, allowing for easy
// injection during testing and distinct configuration per environment.
type Server struct {
	Config    *config.Config
	Logger    *slog.Logger
	TTS       Synthesizer
	Limiter   RateLimitStore
	Cache     *AudioCache
	Metrics   MetricsCollector
	Telemetry UsagePublisher

	validate *validator.Validate
	router   *chi.Mux
}

// NewServer initializes the router and validates critical dependencies.
// The caller mounts routes (via MountRoutes) after construction; the
// separation lets tests customize route registration.
func NewServer(cfg *config.Config, logger *slog.Logger, synth Synthesizer) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if synth == nil {
		return nil, fmt.Errorf("synthesizer must not be nil")
	}

	return &Server{
		Config:   cfg,
		Logger:   logger,
		TTS:      synth,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		router:   chi.NewRouter(),
	}, nil
}

// Handler returns the http.Handler for the router. Used by
// http.ListenAndServe locally and the Lambda adapter in production.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Router returns the underlying chi.Mux for route registration and tests.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Shutdown performs a graceful termination of server resources.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Logger.Info("proxy shutdown initiated")

	if closer, ok := s.Limiter.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			s.Logger.Error("error closing rate limit store", "error", err)
			return fmt.Errorf("closing rate limit store: %w", err)
		}
	}

	s.Logger.Info("proxy shutdown complete")
	return nil
}
