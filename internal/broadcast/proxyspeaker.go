package broadcast

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ProxySpeaker reads each message through a synthesis proxy: the markup is
// posted to /synthesize and the returned clip is archived under a local
// directory, numbered in broadcast order. The plain-text reading still goes
// to the output stream so the run stays followable.
type ProxySpeaker struct {
	httpClient *http.Client
	baseURL    string
	origin     string
	dir        string
	out        io.Writer
	pause      time.Duration
	logger     *slog.Logger

	mu  sync.Mutex
	seq int
}

type proxySynthesizeRequest struct {
	Input struct {
		SSML string `json:"ssml"`
	} `json:"input"`
}

type proxySynthesizeResponse struct {
	AudioContent string `json:"audioContent"`
}

type proxyErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// NewProxySpeaker creates a speaker targeting the proxy at baseURL. The
// origin is sent on every request and must be on the proxy's allow-list.
// Clips land in dir, which is created if missing.
func NewProxySpeaker(baseURL, origin, dir string, out io.Writer, pause time.Duration, logger *slog.Logger) (*ProxySpeaker, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("proxy speaker needs a base URL")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating clip directory: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ProxySpeaker{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		origin:     origin,
		dir:        dir,
		out:        out,
		pause:      pause,
		logger:     logger,
	}, nil
}

// Speak synthesizes the markup through the proxy, archives the clip, and
// echoes the plain-text reading before waiting out the pacing dwell.
func (s *ProxySpeaker) Speak(ctx context.Context, text, ssml string) error {
	clip, err := s.synthesize(ctx, ssml)
	if err != nil {
		return err
	}

	path, err := s.archive(clip)
	if err != nil {
		return err
	}
	s.logger.Debug("clip archived", "path", path, "bytes", len(clip))

	if s.out != nil {
		if _, err := fmt.Fprintln(s.out, text); err != nil {
			return err
		}
	}

	if s.pause <= 0 {
		return nil
	}
	timer := time.NewTimer(s.pause)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *ProxySpeaker) synthesize(ctx context.Context, ssml string) ([]byte, error) {
	var body proxySynthesizeRequest
	body.Input.SSML = ssml

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding synthesis request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/synthesize", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building synthesis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", s.origin)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling synthesis proxy: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var envelope proxyErrorResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&envelope); decodeErr != nil || envelope.Error == "" {
			return nil, fmt.Errorf("synthesis proxy returned status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("synthesis proxy rejected request: %s (%s)", envelope.Error, envelope.Code)
	}

	var decoded proxySynthesizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decoding synthesis response: %w", err)
	}

	clip, err := base64.StdEncoding.DecodeString(decoded.AudioContent)
	if err != nil {
		return nil, fmt.Errorf("decoding audio content: %w", err)
	}
	return clip, nil
}

func (s *ProxySpeaker) archive(clip []byte) (string, error) {
	s.mu.Lock()
	s.seq++
	path := filepath.Join(s.dir, fmt.Sprintf("clip-%04d.mp3", s.seq))
	s.mu.Unlock()

	if err := os.WriteFile(path, clip, 0o644); err != nil {
		return "", fmt.Errorf("writing clip: %w", err)
	}
	return path, nil
}
