package types

import "time"

// Broadcast events carried by the in-process bus. Each event kind has its
// own payload struct so subscribers get a concrete type instead of a
// string-keyed map.

// ReportCompleteEvent fires after the playback layer finishes speaking a
// report. The injector treats the payload as opaque; it only needs the
// boundary signal.
type ReportCompleteEvent struct {
	Report *WeatherReport
}

// FocusLostEvent fires on the immediate Visible -> Hidden transition.
type FocusLostEvent struct {
	At time.Time
}

// FocusRestoredEvent fires once the restore debounce commits.
type FocusRestoredEvent struct {
	UnfocusedDuration time.Duration
	WarningsPlayed    int
}

// WarningReadyEvent requests that the playback layer splice a supplementary
// message into the next slot. Playback must treat it exactly like a normal
// report for sequencing: play to completion, then resume.
type WarningReadyEvent struct {
	MessageID    string
	MessageText  string
	WarningCount int
}

// UsageEvent is the telemetry payload published by the proxy for
// asynchronous analysis.
type UsageEvent struct {
	Type       UsageEventType `json:"type"`
	ClientIP   string         `json:"client_ip"`
	RequestID  string         `json:"request_id"`
	SSMLBytes  int            `json:"ssml_bytes,omitempty"`
	CacheHit   bool           `json:"cache_hit,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}
