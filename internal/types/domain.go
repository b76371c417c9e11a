package types

import (
	"time"
)

// SeaArea is a single entry in the broadcast geography. Standard areas are
// visited once per lap of the cycle; phantom areas are injected rarely and
// never advance the cycle. Instances are immutable reference data owned by
// the vocabulary tables.
type SeaArea struct {
	Name string   `json:"name"`
	Kind AreaKind `json:"kind"`
	// ID is a lowercase slug derived from the name, stable across runs.
	ID string `json:"id"`
}

// IsPhantom reports whether the area belongs to the phantom set.
func (a SeaArea) IsPhantom() bool {
	return a.Kind == AreaPhantom
}

// WindCondition describes the wind clause of a report. Force is the base
// Beaufort force (4-12). When SecondForce is non-zero the clause renders as
// a compound range ("4 to 5") joined by Connector. The optional descriptors
// are empty strings when absent; their presence is decided at generation
// time, never at render time.
type WindCondition struct {
	Direction   string `json:"direction"`
	Behavior    string `json:"behavior,omitempty"`
	Modifier    string `json:"modifier,omitempty"`
	Timing      string `json:"timing,omitempty"`
	Force       int    `json:"force"`
	SecondForce int    `json:"second_force,omitempty"`
	Connector   string `json:"connector,omitempty"`
}

// IsCompound reports whether the condition carries a force range.
func (w WindCondition) IsCompound() bool {
	return w.SecondForce != 0
}

// Precipitation is the mandatory weather clause: one modifier term paired
// with one type term ("occasional rain", "wintry showers").
type Precipitation struct {
	Modifier string `json:"modifier"`
	Type     string `json:"type"`
}

// Icing is the optional icing clause. A nil *Icing on the report means the
// clause is absent.
type Icing struct {
	Severity string `json:"severity"`
}

// WeatherReport is one fully resolved broadcast entry. All randomness is
// resolved at construction; rendering a report is a pure function of its
// fields. RenderedText and RenderedSSML are filled in by the generator
// before the report enters the buffer. OpensLap marks the first standard
// report of each lap; playback fronts it with a continuity announcement.
type WeatherReport struct {
	Area               SeaArea       `json:"area"`
	Wind               WindCondition `json:"wind"`
	Precipitation      Precipitation `json:"precipitation"`
	Icing              *Icing        `json:"icing,omitempty"`
	Visibility         string        `json:"visibility"`
	VisibilityBecoming string        `json:"visibility_becoming,omitempty"`
	Timestamp          time.Time     `json:"timestamp"`
	OpensLap           bool          `json:"opens_lap,omitempty"`
	RenderedText       string        `json:"rendered_text"`
	RenderedSSML       string        `json:"rendered_ssml,omitempty"`
}

// Validate fails fast on structurally incomplete reports. Construction
// bugs surface here rather than as partial broadcast output.
func (r *WeatherReport) Validate() error {
	if r.Area.Name == "" {
		return NewAppError(ErrCodeReportMissingArea, "report has no sea area", nil)
	}
	if r.Wind.Direction == "" {
		return NewAppError(ErrCodeReportMissingWind, "report has no wind direction", nil)
	}
	if r.Wind.Force < 4 || r.Wind.Force > 12 {
		return NewAppError(ErrCodeReportForceRange, "wind force outside 4-12", nil)
	}
	if r.Wind.SecondForce != 0 {
		if r.Wind.SecondForce <= r.Wind.Force || r.Wind.SecondForce > 12 {
			return NewAppError(ErrCodeReportForceRange, "compound second force invalid", nil)
		}
		if r.Wind.Connector == "" {
			return NewAppError(ErrCodeReportMissingWind, "compound force has no connector", nil)
		}
	}
	if r.Precipitation.Modifier == "" || r.Precipitation.Type == "" {
		return NewAppError(ErrCodeReportMissingWeather, "report has no precipitation clause", nil)
	}
	if r.Visibility == "" {
		return NewAppError(ErrCodeReportMissingWeather, "report has no visibility clause", nil)
	}
	return nil
}

// FocusState is a read-only snapshot of the focus monitor. FocusLostAt is
// set exactly once per unbroken loss-of-focus episode and cleared only when
// the restore debounce commits.
type FocusState struct {
	IsVisible     bool
	FocusLostAt   time.Time // zero when visible
	LastWarningAt time.Time // zero until a warning is sent this episode
	WarningCount  int
}

// WarningMessage is one entry of the fixed supplementary-message pool.
type WarningMessage struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}
