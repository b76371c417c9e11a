package proxy

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"longwave/internal/types"
)

// RateLimitStore abstracts the backing store for the per-IP counter.
// Production uses PostgreSQL atomic updates when several proxy instances
// share a limit; single instances use the in-memory store.
type RateLimitStore interface {
	// IncrementAndCheck atomically increments the counter for the given
	// client within the current window and checks it against the limit.
	IncrementAndCheck(ctx context.Context, client string, limit int, window time.Duration) (RateLimitResult, error)
}

// RateLimitResult contains the outcome of a rate limit check.
type RateLimitResult struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// bucketKey derives the TTL-counter key for a client: the client joined
// with the index of the current window, so a fresh bucket starts every
// window without explicit resets.
func bucketKey(client string, now time.Time, window time.Duration) (string, time.Time) {
	idx := now.Unix() / int64(window.Seconds())
	resetAt := time.Unix((idx+1)*int64(window.Seconds()), 0)
	return fmt.Sprintf("%s:%d", client, idx), resetAt
}

// MemoryStore is an in-process RateLimitStore using an expiring counter
// per client-and-window bucket. Expired buckets are swept lazily.
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string]*memoryBucket
	nowFn   func() time.Time
}

type memoryBucket struct {
	count    int
	expireAt time.Time
}

// NewMemoryStore creates an empty in-memory rate limit store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		buckets: make(map[string]*memoryBucket),
		nowFn:   time.Now,
	}
}

// IncrementAndCheck implements RateLimitStore.
func (m *MemoryStore) IncrementAndCheck(_ context.Context, client string, limit int, window time.Duration) (RateLimitResult, error) {
	now := m.nowFn()
	key, resetAt := bucketKey(client, now, window)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.sweep(now)

	b, ok := m.buckets[key]
	if !ok {
		b = &memoryBucket{expireAt: resetAt}
		m.buckets[key] = b
	}
	b.count++

	remaining := limit - b.count
	if remaining < 0 {
		remaining = 0
	}

	return RateLimitResult{
		Allowed:   b.count <= limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}

// sweep drops expired buckets. Called with the lock held.
func (m *MemoryStore) sweep(now time.Time) {
	for key, b := range m.buckets {
		if now.After(b.expireAt) {
			delete(m.buckets, key)
		}
	}
}

// rateLimitWindow is the counter window. The configured limit is expressed
// per minute, so the window is fixed.
const rateLimitWindow = time.Minute

// RateLimit enforces the per-IP request limit. On every response (allowed
// or denied) it sets the standard headers:
//   - X-RateLimit-Limit: maximum requests in the window
//   - X-RateLimit-Remaining: requests remaining
//   - X-RateLimit-Reset: Unix timestamp when the window resets
//
// Denied requests additionally get Retry-After and a 429 body with the
// same value as retryAfter.
//
// On store errors the limiter fails open: the request proceeds and the
// error is logged, so a store outage never takes the proxy down with it.
func (s *Server) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Limiter == nil {
			next.ServeHTTP(w, r)
			return
		}

		clientIP := types.GetClientIP(r.Context())
		limit := s.Config.RateLimit.PerMinute

		result, err := s.Limiter.IncrementAndCheck(r.Context(), clientIP, limit, rateLimitWindow)
		if err != nil {
			s.Logger.Error("rate limit store error",
				slog.String("client_ip", clientIP),
				slog.String("error", err.Error()),
			)
			next.ServeHTTP(w, r)
			return
		}

		setRateLimitHeaders(w, limit, result)

		if !result.Allowed {
			s.Logger.Warn("rate limit exceeded",
				slog.String("client_ip", clientIP),
				slog.String("path", r.URL.Path),
			)

			retryAfter := int(time.Until(result.ResetAt).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}

			if s.Telemetry != nil {
				s.Telemetry.Publish(r.Context(), types.UsageEvent{
					Type:       types.UsageRateLimitTrip,
					ClientIP:   clientIP,
					RequestID:  types.GetRequestID(r.Context()),
					OccurredAt: time.Now().UTC(),
				})
			}

			Error(w, r, types.NewAppError(
				types.ErrCodeRateLimit,
				"rate limit exceeded, retry after the reset time",
				nil,
			).WithDetails(map[string]any{"retry_after": retryAfter}))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// setRateLimitHeaders writes the standard X-RateLimit-* headers.
func setRateLimitHeaders(w http.ResponseWriter, limit int, result RateLimitResult) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}
