package types

// AreaKind distinguishes the canonical sea areas from the phantom ones.
type AreaKind string

const (
	AreaStandard AreaKind = "standard"
	AreaPhantom  AreaKind = "phantom"
)

// AudioEncoding identifies the audio container requested from the
// synthesis upstream.
type AudioEncoding string

const (
	EncodingMP3     AudioEncoding = "MP3"
	EncodingOggOpus AudioEncoding = "OGG_OPUS"
	EncodingLinear  AudioEncoding = "LINEAR16"
)

// UsageEventType identifies the kind of telemetry event published by
// the proxy.
type UsageEventType string

const (
	UsageSynthesis     UsageEventType = "synthesis"
	UsageRateLimitTrip UsageEventType = "rate_limit_trip"
)
