package injector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"longwave/internal/bus"
	"longwave/internal/focus"
	"longwave/internal/types"
)

// --- Test Doubles ---

type fakeFocus struct {
	state    types.FocusState
	now      func() time.Time
	recorded int
}

func (f *fakeFocus) State() types.FocusState { return f.state }

func (f *fakeFocus) RecordWarningSent() {
	f.state.LastWarningAt = f.now()
	f.state.WarningCount++
	f.recorded++
}

type fakePlayback struct {
	playing bool
}

func (p *fakePlayback) IsPlaying() bool { return p.playing }

type fixedRand struct{ n int }

func (r fixedRand) Float64() float64            { return 0 }
func (r fixedRand) IntN(n int) int              { return r.n % n }
func (r fixedRand) Shuffle(int, func(i, j int)) {}

func setup(t *testing.T, state types.FocusState, playing bool, now time.Time) (*Injector, *fakeFocus, *[]types.WarningReadyEvent) {
	t.Helper()
	events := bus.New()
	var emitted []types.WarningReadyEvent
	events.SubscribeWarningReady(func(ev types.WarningReadyEvent) {
		emitted = append(emitted, ev)
	})

	focus := &fakeFocus{state: state, now: func() time.Time { return now }}
	inj, err := NewInjector(focus, &fakePlayback{playing: playing}, events, fixedRand{}, nil,
		WithNowFunc(func() time.Time { return now }))
	require.NoError(t, err)
	return inj, focus, &emitted
}

func TestThresholdBoundary(t *testing.T) {
	now := time.Date(2026, 3, 1, 22, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		ago  time.Duration
		want bool
	}{
		{"59999ms must not trigger", 59_999 * time.Millisecond, false},
		{"exactly 60s must not trigger", 60 * time.Second, false},
		{"60001ms must trigger", 60_001 * time.Millisecond, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := types.FocusState{
				IsVisible:   false,
				FocusLostAt: now.Add(-tt.ago),
			}
			inj, _, emitted := setup(t, state, true, now)
			inj.OnReportComplete(types.ReportCompleteEvent{})

			if tt.want {
				assert.Len(t, *emitted, 1)
			} else {
				assert.Empty(t, *emitted)
			}
		})
	}
}

// Scenario: unfocused well past the threshold, playback active. Exactly
// one warning:ready fires with warningCount 1.
func TestSingleInjection(t *testing.T) {
	now := time.Date(2026, 3, 1, 22, 0, 0, 0, time.UTC)
	state := types.FocusState{
		IsVisible:   false,
		FocusLostAt: now.Add(-60_001 * time.Millisecond),
	}
	inj, focus, emitted := setup(t, state, true, now)

	inj.OnReportComplete(types.ReportCompleteEvent{})

	require.Len(t, *emitted, 1)
	ev := (*emitted)[0]
	assert.Equal(t, 1, ev.WarningCount)
	assert.NotEmpty(t, ev.MessageID)
	assert.NotEmpty(t, ev.MessageText)
	assert.Equal(t, 1, focus.recorded, "state must advance after publishing")
}

// Two immediate checks cannot double-inject: the first sets lastWarningAt,
// so the second fails the spacing requirement.
func TestNoDoubleInjection(t *testing.T) {
	now := time.Date(2026, 3, 1, 22, 0, 0, 0, time.UTC)
	state := types.FocusState{
		IsVisible:   false,
		FocusLostAt: now.Add(-5 * time.Minute),
	}
	inj, focus, emitted := setup(t, state, true, now)

	inj.OnReportComplete(types.ReportCompleteEvent{})
	inj.OnReportComplete(types.ReportCompleteEvent{})

	assert.Len(t, *emitted, 1)
	assert.Equal(t, 1, focus.recorded)
}

func TestWarningSpacingFromLastWarning(t *testing.T) {
	now := time.Date(2026, 3, 1, 22, 0, 0, 0, time.UTC)
	state := types.FocusState{
		IsVisible:     false,
		FocusLostAt:   now.Add(-10 * time.Minute),
		LastWarningAt: now.Add(-61 * time.Second),
		WarningCount:  2,
	}
	inj, _, emitted := setup(t, state, true, now)

	inj.OnReportComplete(types.ReportCompleteEvent{})

	require.Len(t, *emitted, 1)
	assert.Equal(t, 3, (*emitted)[0].WarningCount)
}

func TestConditionsAllRequired(t *testing.T) {
	now := time.Date(2026, 3, 1, 22, 0, 0, 0, time.UTC)
	longGone := types.FocusState{
		IsVisible:   false,
		FocusLostAt: now.Add(-5 * time.Minute),
	}

	t.Run("visible listener never triggers", func(t *testing.T) {
		state := longGone
		state.IsVisible = true
		inj, _, emitted := setup(t, state, true, now)
		inj.OnReportComplete(types.ReportCompleteEvent{})
		assert.Empty(t, *emitted)
	})

	t.Run("idle playback never triggers", func(t *testing.T) {
		inj, _, emitted := setup(t, longGone, false, now)
		inj.OnReportComplete(types.ReportCompleteEvent{})
		assert.Empty(t, *emitted)
	})

	t.Run("zero reference never triggers", func(t *testing.T) {
		inj, _, emitted := setup(t, types.FocusState{IsVisible: false}, true, now)
		inj.OnReportComplete(types.ReportCompleteEvent{})
		assert.Empty(t, *emitted)
	})
}

// stubClock drives a real focus.Monitor without wall-clock waits. Timers
// never fire; restore commits are irrelevant to these scenarios.
type stubClock struct{ now time.Time }

func (c *stubClock) Now() time.Time { return c.now }

func (c *stubClock) AfterFunc(time.Duration, func()) focus.Timer { return stubTimer{} }

type stubTimer struct{}

func (stubTimer) Stop() bool { return true }

// Scenario: the composed pipeline, a real monitor and injector sharing one
// bus. A report-completion published on the bus, not a direct method call,
// must reach the injector and produce a warning for a long-hidden listener.
func TestPublishedBoundaryDrivesInjection(t *testing.T) {
	clock := &stubClock{now: time.Date(2026, 3, 1, 22, 0, 0, 0, time.UTC)}
	events := bus.New()

	monitor := focus.NewMonitor(events, clock, nil)
	monitor.SignalHidden()
	clock.now = clock.now.Add(5 * time.Minute)

	_, err := NewInjector(monitor, &fakePlayback{playing: true}, events, fixedRand{}, nil,
		WithNowFunc(func() time.Time { return clock.now }))
	require.NoError(t, err)

	var emitted []types.WarningReadyEvent
	events.SubscribeWarningReady(func(ev types.WarningReadyEvent) {
		emitted = append(emitted, ev)
	})

	events.PublishReportComplete(types.ReportCompleteEvent{})
	require.Len(t, emitted, 1)
	assert.Equal(t, 1, emitted[0].WarningCount)

	// The next boundary arrives right away; the warning just sent resets
	// the spacing reference, so nothing new fires.
	events.PublishReportComplete(types.ReportCompleteEvent{})
	assert.Len(t, emitted, 1)
}

func TestNewInjectorValidation(t *testing.T) {
	events := bus.New()
	focus := &fakeFocus{now: time.Now}
	playback := &fakePlayback{}

	_, err := NewInjector(nil, playback, events, fixedRand{}, nil)
	assert.Error(t, err)
	_, err = NewInjector(focus, nil, events, fixedRand{}, nil)
	assert.Error(t, err)
	_, err = NewInjector(focus, playback, nil, fixedRand{}, nil)
	assert.Error(t, err)
	_, err = NewInjector(focus, playback, events, fixedRand{}, nil, WithPool(nil))
	assert.Error(t, err)
}
