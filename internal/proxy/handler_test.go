package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"longwave/internal/config"
	"longwave/internal/tts"
	"longwave/internal/types"
)

const testOrigin = "https://forecast.example.com"

// fakeSynthesizer scripts the upstream boundary.
type fakeSynthesizer struct {
	calls atomic.Int32
	resp  *tts.SynthesizeResponse
	err   error
}

func (f *fakeSynthesizer) Synthesize(_ context.Context, _ tts.SynthesizeRequest) (*tts.SynthesizeResponse, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Environment: "local",
		Service:     "longwave-proxy",
		Server: config.ServerConfig{
			Port:           "8080",
			AllowedOrigins: []string{testOrigin},
			RequestTimeout: 10 * time.Second,
		},
		TTS: config.TTSConfig{
			URL:             "http://upstream.invalid",
			APIKey:          config.SecretString("test-key"),
			VoiceLanguage:   "en-GB",
			VoiceName:       "en-GB-Wavenet-B",
			AudioEncoding:   "MP3",
			SampleRateHertz: 24000,
			Timeout:         5 * time.Second,
		},
		RateLimit: config.RateLimitConfig{PerMinute: 30, Driver: "memory"},
		Cache:     config.CacheConfig{MaxEntries: 16, TTL: time.Minute},
	}
}

func newTestServer(t *testing.T, synth Synthesizer) *Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := NewServer(testConfig(), logger, synth)
	require.NoError(t, err)

	s.Limiter = NewMemoryStore()
	s.Cache = NewAudioCache(16, time.Minute)
	s.MountRoutes()
	return s
}

func synthesizeBody(t *testing.T, ssml string) *bytes.Reader {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"input": map[string]string{"ssml": ssml},
	})
	require.NoError(t, err)
	return bytes.NewReader(body)
}

func doSynthesize(s *Server, body io.Reader, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/synthesize", body)
	req.Header.Set("Content-Type", "application/json")
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	req.RemoteAddr = "203.0.113.7:51234"
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestSynthesizeHappyPath(t *testing.T) {
	synth := &fakeSynthesizer{resp: &tts.SynthesizeResponse{
		AudioContent: "YXVkaW8=",
		AudioConfig:  tts.AudioConfig{AudioEncoding: "MP3"},
	}}
	s := newTestServer(t, synth)

	rec := doSynthesize(s, synthesizeBody(t, "<speak>Dogger. Northwesterly 6.</speak>"), testOrigin)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp synthesizeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "YXVkaW8=", resp.AudioContent)
	assert.Equal(t, "MP3", resp.AudioConfig.AudioEncoding)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	assert.Equal(t, "30", rec.Header().Get("X-RateLimit-Limit"))
}

func TestSynthesizeRejectsDisallowedOrigin(t *testing.T) {
	s := newTestServer(t, &fakeSynthesizer{resp: &tts.SynthesizeResponse{AudioContent: "YQ=="}})

	for name, origin := range map[string]string{
		"unknown origin": "https://evil.example.com",
		"missing origin": "",
	} {
		t.Run(name, func(t *testing.T) {
			rec := doSynthesize(s, synthesizeBody(t, "<speak>Dogger.</speak>"), origin)
			require.Equal(t, http.StatusForbidden, rec.Code)
			assert.Equal(t, string(types.ErrCodeOriginForbidden), decodeError(t, rec).Code)
		})
	}
}

func TestSynthesizeValidation(t *testing.T) {
	s := newTestServer(t, &fakeSynthesizer{resp: &tts.SynthesizeResponse{AudioContent: "YQ=="}})

	tests := []struct {
		name     string
		body     string
		wantCode types.ErrorCode
	}{
		{
			name:     "empty body",
			body:     "",
			wantCode: types.ErrCodeValidationInvalidJSON,
		},
		{
			name:     "malformed json",
			body:     "{not json",
			wantCode: types.ErrCodeValidationInvalidJSON,
		},
		{
			name:     "unknown field",
			body:     `{"input":{"ssml":"<speak>x</speak>"},"extra":true}`,
			wantCode: types.ErrCodeValidationInvalidJSON,
		},
		{
			name:     "missing ssml",
			body:     `{"input":{"ssml":""}}`,
			wantCode: types.ErrCodeValidationMissingSSML,
		},
		{
			name:     "ssml too long",
			body:     `{"input":{"ssml":"<speak>` + strings.Repeat("a", 5001) + `</speak>"}}`,
			wantCode: types.ErrCodeValidationSSMLTooLong,
		},
		{
			name:     "not speak rooted",
			body:     `{"input":{"ssml":"Dogger. Northwesterly 6."}}`,
			wantCode: types.ErrCodeValidationSSMLMalformed,
		},
		{
			name:     "bad audio encoding",
			body:     `{"input":{"ssml":"<speak>x</speak>"},"audioConfig":{"audioEncoding":"WAV"}}`,
			wantCode: types.ErrCodeValidationInvalidAudio,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doSynthesize(s, strings.NewReader(tt.body), testOrigin)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, string(tt.wantCode), decodeError(t, rec).Code)
		})
	}
}

func TestSynthesizeUpstreamErrorSurfaces(t *testing.T) {
	synth := &fakeSynthesizer{
		err: types.NewAppError(types.ErrCodeUpstreamSynthesis, "synthesis upstream returned 503", nil),
	}
	s := newTestServer(t, synth)

	rec := doSynthesize(s, synthesizeBody(t, "<speak>Dogger.</speak>"), testOrigin)

	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, string(types.ErrCodeUpstreamSynthesis), decodeError(t, rec).Code)
}

func TestSynthesizeRateLimitTrips(t *testing.T) {
	synth := &fakeSynthesizer{resp: &tts.SynthesizeResponse{AudioContent: "YQ=="}}
	s := newTestServer(t, synth)
	s.Cache = nil // every request reaches the limiter and the upstream

	// Pin the clock so the test cannot straddle a minute boundary.
	now := time.Date(2026, 3, 1, 12, 0, 5, 0, time.UTC)
	s.Limiter.(*MemoryStore).nowFn = func() time.Time { return now }

	for i := 0; i < 30; i++ {
		rec := doSynthesize(s, synthesizeBody(t, "<speak>Dogger.</speak>"), testOrigin)
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
	}

	rec := doSynthesize(s, synthesizeBody(t, "<speak>Dogger.</speak>"), testOrigin)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	resp := decodeError(t, rec)
	assert.Equal(t, string(types.ErrCodeRateLimit), resp.Code)
	assert.GreaterOrEqual(t, resp.RetryAfter, 1)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
}

func TestSynthesizeServesRepeatFromCache(t *testing.T) {
	synth := &fakeSynthesizer{resp: &tts.SynthesizeResponse{AudioContent: "YXVkaW8="}}
	s := newTestServer(t, synth)

	first := doSynthesize(s, synthesizeBody(t, "<speak>Dogger.</speak>"), testOrigin)
	second := doSynthesize(s, synthesizeBody(t, "<speak>Dogger.</speak>"), testOrigin)

	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, int32(1), synth.calls.Load(), "identical markup must hit the cache")
}

func TestSynthesizeRedactedErrorBody(t *testing.T) {
	synth := &fakeSynthesizer{
		err: types.NewAppError(types.ErrCodeUpstreamRejected,
			"upstream rejected call with key=abc123secret", nil),
	}
	s := newTestServer(t, synth)

	rec := doSynthesize(s, synthesizeBody(t, "<speak>Dogger.</speak>"), testOrigin)

	assert.NotContains(t, rec.Body.String(), "abc123secret")
	assert.Contains(t, rec.Body.String(), "***REDACTED***")
}

func TestHealthzBypassesOriginCheck(t *testing.T) {
	s := newTestServer(t, &fakeSynthesizer{resp: &tts.SynthesizeResponse{AudioContent: "YQ=="}})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestPreflightRequest(t *testing.T) {
	s := newTestServer(t, &fakeSynthesizer{resp: &tts.SynthesizeResponse{AudioContent: "YQ=="}})

	req := httptest.NewRequest(http.MethodOptions, "/synthesize", nil)
	req.Header.Set("Origin", testOrigin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, testOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
}
