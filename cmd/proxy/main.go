// Package main is the entry point for the synthesis proxy.
//
// It loads configuration, builds the proxy server with the middleware
// chain (origin allow-list, per-IP rate limiting, logging, CORS), and
// serves either as a standard HTTP server (local development) or behind
// AWS Lambda with an API Gateway HTTP API (production).
package main

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"longwave/internal/config"
	"longwave/internal/metrics"
	"longwave/internal/proxy"
	"longwave/internal/telemetry"
	"longwave/internal/tts"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so that main() can cleanly exit
// on error.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("synthesis proxy starting",
		"environment", cfg.Environment,
		"port", cfg.Server.Port,
		"rate_limit_per_minute", cfg.RateLimit.PerMinute,
	)

	ttsClient := tts.NewClient(cfg.TTS, logger)

	srv, err := proxy.NewServer(cfg, logger, ttsClient)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	ctx := context.Background()

	switch cfg.RateLimit.Driver {
	case "postgres":
		store, err := proxy.DialPostgresStore(ctx, cfg.RateLimit.DatabaseURL.Unmask())
		if err != nil {
			return fmt.Errorf("connecting rate limit store: %w", err)
		}
		srv.Limiter = store
	default:
		srv.Limiter = proxy.NewMemoryStore()
	}

	if cfg.Cache.MaxEntries > 0 {
		srv.Cache = proxy.NewAudioCache(cfg.Cache.MaxEntries, cfg.Cache.TTL)
	}

	if cfg.Metrics.Enabled || cfg.Telemetry.QueueURL != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Telemetry.AWSRegion))
		if err != nil {
			// Observability is optional; the proxy still serves without it.
			logger.Error("loading AWS config, metrics and telemetry disabled", "error", err)
		} else {
			if cfg.Metrics.Enabled {
				srv.Metrics = metrics.NewCollector(cloudwatch.NewFromConfig(awsCfg), cfg.Metrics.Namespace, logger)
			}
			if cfg.Telemetry.QueueURL != "" {
				srv.Telemetry = telemetry.NewPublisher(sqs.NewFromConfig(awsCfg), cfg.Telemetry.QueueURL, logger)
			}
		}
	}

	srv.MountRoutes()

	if isLambdaEnvironment() {
		return runLambda(srv, logger)
	}

	return runHTTPServer(srv, cfg, logger)
}

// isLambdaEnvironment returns true if the process is running inside AWS
// Lambda. The runtime sets AWS_LAMBDA_RUNTIME_API when executing there.
func isLambdaEnvironment() bool {
	_, hasRuntimeAPI := os.LookupEnv("AWS_LAMBDA_RUNTIME_API")
	return hasRuntimeAPI
}

// runLambda serves API Gateway HTTP API events through the chi router.
func runLambda(srv *proxy.Server, logger *slog.Logger) error {
	logger.Info("serving in Lambda mode")
	lambda.Start(newLambdaHandler(srv.Handler()))
	return nil
}

// newLambdaHandler bridges an API Gateway v2 event to the http.Handler
// and back. Response bodies are always base64-encoded so compressed or
// binary payloads survive the trip.
func newLambdaHandler(h http.Handler) func(context.Context, events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	return func(ctx context.Context, event events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		req, err := lambdaEventToRequest(ctx, event)
		if err != nil {
			return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusBadRequest}, nil
		}

		rec := &lambdaResponseWriter{header: make(http.Header), statusCode: http.StatusOK}
		h.ServeHTTP(rec, req)

		headers := make(map[string]string, len(rec.header))
		for name, values := range rec.header {
			headers[name] = strings.Join(values, ",")
		}

		return events.APIGatewayV2HTTPResponse{
			StatusCode:      rec.statusCode,
			Headers:         headers,
			Body:            base64.StdEncoding.EncodeToString(rec.body),
			IsBase64Encoded: true,
		}, nil
	}
}

// lambdaEventToRequest reconstructs the http.Request an API Gateway v2
// event describes.
func lambdaEventToRequest(ctx context.Context, event events.APIGatewayV2HTTPRequest) (*http.Request, error) {
	body := event.Body
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return nil, fmt.Errorf("decoding event body: %w", err)
		}
		body = string(decoded)
	}

	url := event.RawPath
	if event.RawQueryString != "" {
		url += "?" + event.RawQueryString
	}

	req, err := http.NewRequestWithContext(ctx, event.RequestContext.HTTP.Method, url, strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	for name, value := range event.Headers {
		req.Header.Set(name, value)
	}
	if req.Header.Get("X-Forwarded-For") == "" {
		req.Header.Set("X-Forwarded-For", event.RequestContext.HTTP.SourceIP)
	}
	req.RemoteAddr = event.RequestContext.HTTP.SourceIP

	return req, nil
}

// lambdaResponseWriter buffers a handler's response for conversion back
// into an API Gateway payload.
type lambdaResponseWriter struct {
	header     http.Header
	body       []byte
	statusCode int
	written    bool
}

func (w *lambdaResponseWriter) Header() http.Header {
	return w.header
}

func (w *lambdaResponseWriter) WriteHeader(code int) {
	if !w.written {
		w.statusCode = code
		w.written = true
	}
}

func (w *lambdaResponseWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.statusCode = http.StatusOK
		w.written = true
	}
	w.body = append(w.body, b...)
	return len(b), nil
}

// runHTTPServer starts the proxy in standard HTTP mode with graceful
// shutdown.
func runHTTPServer(srv *proxy.Server, cfg *config.Config, logger *slog.Logger) error {
	addr := ":" + cfg.Server.Port

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)

	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("initiating graceful shutdown")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server resource shutdown error", "error", err)
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("proxy stopped cleanly")
	return nil
}

// newLogger creates a structured slog.Logger for the given log level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	return slog.New(handler)
}
