// Package injector decides, at each report-completion boundary, whether a
// supplementary warning should be spliced into the next playback slot.
// Injection only ever happens at message boundaries; a playing message is
// never pre-empted.
package injector

import (
	"fmt"
	"log/slog"
	"time"

	"longwave/internal/bus"
	"longwave/internal/forecast"
	"longwave/internal/types"
	"longwave/internal/vocab"
)

// DefaultThreshold is how long the listener must have been away, measured
// from the last warning or the loss of focus, before a warning fires. The
// comparison is strictly greater-than.
const DefaultThreshold = 60 * time.Second

// FocusSource is the injector's read/advance view of the focus monitor.
type FocusSource interface {
	State() types.FocusState
	RecordWarningSent()
}

// PlaybackState is the read-only view of the external playback engine.
type PlaybackState interface {
	IsPlaying() bool
}

// Injector runs the boundary check and emits warning:ready requests.
type Injector struct {
	focus     FocusSource
	playback  PlaybackState
	events    *bus.Bus
	pool      []types.WarningMessage
	rng       forecast.Rand
	now       func() time.Time
	threshold time.Duration
	logger    *slog.Logger
}

// Option customizes an Injector.
type Option func(*Injector)

// WithThreshold overrides the away-time threshold.
func WithThreshold(d time.Duration) Option {
	return func(i *Injector) { i.threshold = d }
}

// WithNowFunc overrides the wall-clock read, for tests.
func WithNowFunc(now func() time.Time) Option {
	return func(i *Injector) { i.now = now }
}

// WithPool overrides the warning message pool.
func WithPool(pool []types.WarningMessage) Option {
	return func(i *Injector) { i.pool = pool }
}

// NewInjector builds an injector over the standard warning pool and
// subscribes it to report-completion boundaries. A nil rng falls back to
// the default source.
func NewInjector(focus FocusSource, playback PlaybackState, events *bus.Bus, rng forecast.Rand, logger *slog.Logger, opts ...Option) (*Injector, error) {
	if focus == nil {
		return nil, fmt.Errorf("injector needs a focus source")
	}
	if playback == nil {
		return nil, fmt.Errorf("injector needs a playback state")
	}
	if events == nil {
		return nil, fmt.Errorf("injector needs an event bus")
	}
	if rng == nil {
		rng = forecast.NewRand()
	}
	if logger == nil {
		logger = slog.Default()
	}

	i := &Injector{
		focus:     focus,
		playback:  playback,
		events:    events,
		pool:      vocab.WarningPool(),
		rng:       rng,
		now:       time.Now,
		threshold: DefaultThreshold,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(i)
	}
	if len(i.pool) == 0 {
		return nil, fmt.Errorf("injector needs a non-empty warning pool")
	}
	events.SubscribeReportComplete(i.OnReportComplete)
	return i, nil
}

// OnReportComplete runs the injection check at a message boundary. All
// conditions must hold: the listener is away, playback is active, and the
// away time measured from the last warning (or, before any warning, from
// the loss of focus) strictly exceeds the threshold.
//
// Downstream playback failures are deliberately not observed here: the
// warning counts as sent the moment it is published, which prevents retry
// storms at the cost of occasionally losing a warning.
func (i *Injector) OnReportComplete(types.ReportCompleteEvent) {
	state := i.focus.State()
	if state.IsVisible {
		return
	}
	if !i.playback.IsPlaying() {
		return
	}

	reference := state.LastWarningAt
	if reference.IsZero() {
		reference = state.FocusLostAt
	}
	if reference.IsZero() {
		return
	}
	if i.now().Sub(reference) <= i.threshold {
		return
	}

	msg := i.pool[i.rng.IntN(len(i.pool))]
	ev := types.WarningReadyEvent{
		MessageID:    msg.ID,
		MessageText:  msg.Text,
		WarningCount: state.WarningCount + 1,
	}

	i.events.PublishWarningReady(ev)
	i.focus.RecordWarningSent()

	i.logger.Debug("warning injected",
		slog.String("message_id", msg.ID),
		slog.Int("warning_count", ev.WarningCount),
	)
}
