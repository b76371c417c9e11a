// Package config defines the global configuration for longwave. It is
// loaded once at process initialization and immutable thereafter,
// following 12-Factor principles: strictly separating code from
// configuration. Any missing required value or invalid format fails the
// process immediately on startup.
package config

import (
	"time"

	"longwave/internal/types"
)

// SecretString is an alias for types.SecretString, the redacted secret
// type used throughout configuration to prevent accidental logging of
// sensitive values.
type SecretString = types.SecretString

// Config is the top-level configuration struct. Sub-components receive
// only the specific subsets they require.
type Config struct {
	Environment string `envconfig:"APP_ENV" default:"local" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"longwave"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	Server    ServerConfig
	TTS       TTSConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Broadcast BroadcastConfig
	Metrics   MetricsConfig
	Telemetry TelemetryConfig
}

// ServerConfig holds proxy HTTP server settings.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8080"`
	// AllowedOrigins is the exact-match origin allow-list; requests from
	// anywhere else are rejected before reaching the upstream.
	AllowedOrigins []string      `envconfig:"ALLOWED_ORIGINS" validate:"required,min=1"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"29s"`
}

// TTSConfig holds the upstream synthesis endpoint and credentials.
type TTSConfig struct {
	URL    string       `envconfig:"TTS_URL" validate:"required,url"`
	APIKey SecretString `envconfig:"TTS_API_KEY" validate:"required"`

	VoiceLanguage   string        `envconfig:"TTS_VOICE_LANGUAGE" default:"en-GB"`
	VoiceName       string        `envconfig:"TTS_VOICE_NAME" default:"en-GB-Wavenet-B"`
	AudioEncoding   string        `envconfig:"TTS_AUDIO_ENCODING" default:"MP3" validate:"oneof=MP3 OGG_OPUS LINEAR16"`
	SampleRateHertz int           `envconfig:"TTS_SAMPLE_RATE" default:"24000"`
	Timeout         time.Duration `envconfig:"TTS_TIMEOUT" default:"10s"`
}

// RateLimitConfig tunes the per-IP request counter.
type RateLimitConfig struct {
	PerMinute int `envconfig:"RATE_LIMIT_PER_MINUTE" default:"30" validate:"min=1"`
	// Driver selects the counter backing store: in-process for single
	// instances, postgres when several proxy instances share a limit.
	Driver      string       `envconfig:"RATE_LIMIT_DRIVER" default:"memory" validate:"oneof=memory postgres"`
	DatabaseURL SecretString `envconfig:"RATE_LIMIT_DATABASE_URL"`
}

// CacheConfig tunes the synthesized-audio cache.
type CacheConfig struct {
	MaxEntries int           `envconfig:"CACHE_MAX_ENTRIES" default:"256" validate:"min=0"`
	TTL        time.Duration `envconfig:"CACHE_TTL" default:"15m"`
}

// BroadcastConfig tunes the generation pipeline and the inactivity
// warning machinery.
type BroadcastConfig struct {
	PhantomProbability float64       `envconfig:"PHANTOM_PROBABILITY" default:"0.02" validate:"gte=0,lt=1"`
	BufferMin          int           `envconfig:"BUFFER_MIN" default:"3" validate:"min=1"`
	BufferMax          int           `envconfig:"BUFFER_MAX" default:"5" validate:"min=2"`
	RestoreDebounce    time.Duration `envconfig:"RESTORE_DEBOUNCE" default:"1s"`
	WarningThreshold   time.Duration `envconfig:"WARNING_THRESHOLD" default:"60s"`
	SpeakPause         time.Duration `envconfig:"SPEAK_PAUSE" default:"2s"`

	// ProxyURL, when set, routes each reading through a synthesis proxy
	// and archives the returned audio clips instead of console-only output.
	ProxyURL    string `envconfig:"PROXY_URL" validate:"omitempty,url"`
	ProxyOrigin string `envconfig:"PROXY_ORIGIN" default:"http://localhost:5173"`
	AudioDir    string `envconfig:"AUDIO_DIR" default:"clips"`
}

// MetricsConfig controls CloudWatch metric publication.
type MetricsConfig struct {
	Enabled   bool   `envconfig:"METRICS_ENABLED" default:"false"`
	Namespace string `envconfig:"METRICS_NAMESPACE" default:"Longwave/Proxy"`
}

// TelemetryConfig controls the SQS usage-event publisher. An empty queue
// URL disables publication.
type TelemetryConfig struct {
	QueueURL  string `envconfig:"TELEMETRY_QUEUE_URL"`
	AWSRegion string `envconfig:"AWS_REGION" default:"eu-west-2"`
}
