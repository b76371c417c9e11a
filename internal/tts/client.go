package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"github.com/sony/gobreaker/v2"

	"longwave/internal/config"
	"longwave/internal/types"
)

// maxErrorBodySize bounds how much of an upstream error body is read for
// diagnostics.
const maxErrorBodySize = 8 << 10

// RetryPolicy configures the retry behavior for synthesis calls.
type RetryPolicy struct {
	MaxRetries int
	MinWait    time.Duration
	MaxWait    time.Duration
}

// DefaultRetryPolicy returns sensible defaults for the synthesis upstream.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 3,
		MinWait:    500 * time.Millisecond,
		MaxWait:    10 * time.Second,
	}
}

// Client calls the upstream synthesis API with consistent resilience
// patterns: circuit breaking, retries on 429/5xx respecting Retry-After,
// and AppError mapping with credentials redacted from every message.
type Client struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*http.Response]
	retry      RetryPolicy
	url        string
	apiKey     types.SecretString
	logger     *slog.Logger
	sleepFn    func(time.Duration) // for testability; defaults to time.Sleep
}

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithSleepFunc overrides the sleep function used between retries.
// This is intended for testing to avoid real delays.
func WithSleepFunc(fn func(time.Duration)) Option {
	return func(c *Client) { c.sleepFn = fn }
}

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) { c.retry = p }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a synthesis client for the configured upstream.
func NewClient(cfg config.TTSConfig, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	cb := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        "tts-upstream",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})

	c := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    cb,
		retry:      DefaultRetryPolicy(),
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		logger:     logger,
		sleepFn:    time.Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Synthesize voices the given request and returns the audio payload.
// Failures come back as *types.AppError with upstream codes; the caller
// can pass them straight to the proxy's error writer.
func (c *Client) Synthesize(ctx context.Context, req SynthesizeRequest) (*SynthesizeResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "encoding synthesis request", err)
	}

	resp, err := c.do(ctx, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError(resp)
	}

	var out SynthesizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamSynthesis, "decoding synthesis response", err)
	}
	if out.AudioContent == "" {
		return nil, types.NewAppError(types.ErrCodeUpstreamSynthesis, "upstream returned empty audio", nil)
	}
	return &out, nil
}

// do runs the POST with circuit breaking and retries. The request body is
// replayed on each attempt. Only 429 and 5xx are retried; other statuses
// return immediately for the caller to map.
func (c *Client) do(ctx context.Context, body []byte) (*http.Response, error) {
	var lastResp *http.Response
	var lastErr error

	maxAttempts := 1 + c.retry.MaxRetries
	for attempt := 0; attempt < maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
		if err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "building synthesis request", err)
		}
		req.Header.Set("Content-Type", "application/json")
		// The key travels in a header, never in the URL.
		req.Header.Set("X-Goog-Api-Key", c.apiKey.Unmask())

		resp, err := c.breaker.Execute(func() (*http.Response, error) {
			r, doErr := c.httpClient.Do(req)
			if doErr != nil {
				return nil, doErr
			}
			// 5xx and 429 count as failures for the breaker.
			if r.StatusCode >= 500 || r.StatusCode == http.StatusTooManyRequests {
				return r, fmt.Errorf("upstream returned %d", r.StatusCode)
			}
			return r, nil
		})
		if err == nil {
			return resp, nil
		}

		lastErr = err
		if resp != nil {
			if attempt < maxAttempts-1 {
				resp.Body.Close()
			} else {
				lastResp = resp
			}
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			break
		}
		if ctx.Err() != nil {
			break
		}

		if attempt < maxAttempts-1 {
			wait := c.computeBackoff(attempt, resp)
			c.logger.Debug("retrying synthesis request",
				"attempt", attempt+1,
				"wait", wait.String())
			c.sleepFn(wait)
		}
	}

	if lastResp != nil {
		defer lastResp.Body.Close()
		return nil, c.statusError(lastResp)
	}

	if errors.Is(lastErr, gobreaker.ErrOpenState) || errors.Is(lastErr, gobreaker.ErrTooManyRequests) {
		return nil, types.NewAppError(types.ErrCodeUpstreamSynthesis, "synthesis upstream circuit open", lastErr)
	}
	return nil, types.NewAppError(types.ErrCodeUpstreamSynthesis, "synthesis upstream unreachable", lastErr)
}

// statusError maps a non-200 upstream response to an AppError. The
// upstream message is captured for diagnostics with credential fragments
// redacted first.
func (c *Client) statusError(resp *http.Response) *types.AppError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))

	message := ""
	var envelope upstreamError
	if err := json.Unmarshal(raw, &envelope); err == nil {
		message = envelope.Error.Message
	}
	message = types.RedactCredentials(message)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		appErr := types.NewAppError(types.ErrCodeUpstreamRateLimited, "synthesis upstream rate limit exceeded", nil)
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := strconv.Atoi(retryAfter); err == nil {
				return appErr.WithDetails(map[string]any{"retry_after": seconds})
			}
		}
		return appErr
	case resp.StatusCode >= 500:
		return types.NewAppError(types.ErrCodeUpstreamSynthesis,
			fmt.Sprintf("synthesis upstream returned %d", resp.StatusCode), nil)
	default:
		err := types.NewAppError(types.ErrCodeUpstreamRejected,
			fmt.Sprintf("synthesis upstream rejected the request (%d)", resp.StatusCode), nil)
		if message != "" {
			return err.WithDetails(map[string]any{"upstream_message": message})
		}
		return err
	}
}

// computeBackoff determines the wait before the next retry. Retry-After
// wins when present; otherwise exponential backoff with full jitter
// clamped to [MinWait, MaxWait].
func (c *Client) computeBackoff(attempt int, resp *http.Response) time.Duration {
	if resp != nil {
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
				wait := time.Duration(seconds) * time.Second
				if wait > c.retry.MaxWait {
					wait = c.retry.MaxWait
				}
				return wait
			}
		}
	}

	base := float64(c.retry.MinWait) * math.Pow(2, float64(attempt))
	if max := float64(c.retry.MaxWait); base > max {
		base = max
	}
	min := float64(c.retry.MinWait)
	if base <= min {
		return c.retry.MinWait
	}
	return time.Duration(min + rand.Float64()*(base-min))
}
