// Package focus converts raw visibility-change signals into a debounced,
// timestamped focus state. Losing focus is recorded immediately; regaining
// it only commits after a quiet dwell, so rapid tab flicker neither resets
// the inactivity timer nor spams restore notifications.
package focus

import (
	"log/slog"
	"sync"
	"time"

	"longwave/internal/bus"
	"longwave/internal/types"
)

// DefaultDebounce is the dwell a restore must survive before it commits.
const DefaultDebounce = time.Second

// Monitor is the focus-state machine. Signal methods are driven by the
// host's visibility events; all other components read immutable snapshots
// via State.
type Monitor struct {
	events   *bus.Bus
	clock    Clock
	logger   *slog.Logger
	debounce time.Duration

	// disabled is set when the host has no visibility signal. Every
	// operation then no-ops and the warning feature stays permanently off.
	disabled bool

	mu             sync.Mutex
	visible        bool
	focusLostAt    time.Time
	lastWarningAt  time.Time
	warningCount   int
	pendingRestore Timer
}

// Option customizes a Monitor.
type Option func(*Monitor)

// WithDebounce overrides the restore dwell.
func WithDebounce(d time.Duration) Option {
	return func(m *Monitor) { m.debounce = d }
}

// WithoutVisibilitySignal marks the visibility API as unavailable. The
// monitor degrades to a permanent visible no-op instead of crashing the
// host; the condition is logged once here.
func WithoutVisibilitySignal() Option {
	return func(m *Monitor) { m.disabled = true }
}

// NewMonitor creates a Monitor in the Visible state. A nil clock falls
// back to the wall clock.
func NewMonitor(events *bus.Bus, clock Clock, logger *slog.Logger, opts ...Option) *Monitor {
	if clock == nil {
		clock = RealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	m := &Monitor{
		events:   events,
		clock:    clock,
		logger:   logger,
		debounce: DefaultDebounce,
		visible:  true,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled {
		m.logger.Warn("visibility signal unavailable, inactivity warnings disabled")
	}
	return m
}

// SignalHidden handles the raw "became hidden" signal. The transition
// fires immediately: the loss timestamp is recorded once per unbroken
// episode, and any pending restore is cancelled without touching it.
func (m *Monitor) SignalHidden() {
	if m.disabled {
		return
	}
	m.mu.Lock()

	if m.pendingRestore != nil {
		m.pendingRestore.Stop()
		m.pendingRestore = nil
		// Still within the original episode; timestamps stay put.
		m.mu.Unlock()
		return
	}
	if !m.visible {
		m.mu.Unlock()
		return
	}

	m.visible = false
	m.focusLostAt = m.clock.Now()
	m.lastWarningAt = time.Time{}
	m.warningCount = 0
	at := m.focusLostAt
	m.mu.Unlock()

	if m.events != nil {
		m.events.PublishFocusLost(types.FocusLostEvent{At: at})
	}
}

// SignalVisible handles the raw "became visible" signal by starting the
// restore dwell. If a hidden signal arrives before the dwell elapses the
// restore is forgotten.
func (m *Monitor) SignalVisible() {
	if m.disabled {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.visible || m.pendingRestore != nil {
		return
	}
	m.pendingRestore = m.clock.AfterFunc(m.debounce, m.commitRestore)
}

// commitRestore finalizes the Hidden -> Visible transition after an
// uninterrupted dwell.
func (m *Monitor) commitRestore() {
	m.mu.Lock()
	if m.pendingRestore == nil || m.visible {
		m.mu.Unlock()
		return
	}
	duration := m.clock.Now().Sub(m.focusLostAt)
	played := m.warningCount

	m.visible = true
	m.focusLostAt = time.Time{}
	m.lastWarningAt = time.Time{}
	m.warningCount = 0
	m.pendingRestore = nil
	m.mu.Unlock()

	if m.events != nil {
		m.events.PublishFocusRestored(types.FocusRestoredEvent{
			UnfocusedDuration: duration,
			WarningsPlayed:    played,
		})
	}
}

// State returns a read-only snapshot. A disabled monitor always reads as
// visible, which keeps every injection check failing closed.
func (m *Monitor) State() types.FocusState {
	if m.disabled {
		return types.FocusState{IsVisible: true}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return types.FocusState{
		IsVisible:     m.visible,
		FocusLostAt:   m.focusLostAt,
		LastWarningAt: m.lastWarningAt,
		WarningCount:  m.warningCount,
	}
}

// RecordWarningSent marks that a warning was emitted for the current
// episode. The injector calls this immediately after publishing, keeping
// the 60-second spacing anchored to the most recent warning.
func (m *Monitor) RecordWarningSent() {
	if m.disabled {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastWarningAt = m.clock.Now()
	m.warningCount++
}
