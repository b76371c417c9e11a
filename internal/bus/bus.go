// Package bus provides the in-process publish/subscribe channel between
// the broadcast components. Topics are concrete methods with typed
// payloads, so a subscriber can never receive the wrong event shape.
//
// Delivery is synchronous and in subscription order, matching the
// single-task model of the broadcast: events fire in the order their
// triggering conditions occur, and no reordering buffer exists.
package bus

import (
	"sync"

	"longwave/internal/types"
)

// Bus fans typed events out to registered handlers.
type Bus struct {
	mu             sync.RWMutex
	reportComplete []func(types.ReportCompleteEvent)
	focusLost      []func(types.FocusLostEvent)
	focusRestored  []func(types.FocusRestoredEvent)
	warningReady   []func(types.WarningReadyEvent)
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{}
}

// SubscribeReportComplete registers a handler for report-completion
// boundaries.
func (b *Bus) SubscribeReportComplete(fn func(types.ReportCompleteEvent)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reportComplete = append(b.reportComplete, fn)
}

// PublishReportComplete fires a report-completion boundary.
func (b *Bus) PublishReportComplete(ev types.ReportCompleteEvent) {
	b.mu.RLock()
	handlers := b.reportComplete
	b.mu.RUnlock()
	for _, fn := range handlers {
		fn(ev)
	}
}

// SubscribeFocusLost registers a handler for the immediate hidden
// transition.
func (b *Bus) SubscribeFocusLost(fn func(types.FocusLostEvent)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.focusLost = append(b.focusLost, fn)
}

// PublishFocusLost fires the hidden transition.
func (b *Bus) PublishFocusLost(ev types.FocusLostEvent) {
	b.mu.RLock()
	handlers := b.focusLost
	b.mu.RUnlock()
	for _, fn := range handlers {
		fn(ev)
	}
}

// SubscribeFocusRestored registers a handler for committed restores.
func (b *Bus) SubscribeFocusRestored(fn func(types.FocusRestoredEvent)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.focusRestored = append(b.focusRestored, fn)
}

// PublishFocusRestored fires a committed restore with its episode summary.
func (b *Bus) PublishFocusRestored(ev types.FocusRestoredEvent) {
	b.mu.RLock()
	handlers := b.focusRestored
	b.mu.RUnlock()
	for _, fn := range handlers {
		fn(ev)
	}
}

// SubscribeWarningReady registers a handler for warning injection
// requests.
func (b *Bus) SubscribeWarningReady(fn func(types.WarningReadyEvent)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.warningReady = append(b.warningReady, fn)
}

// PublishWarningReady fires a warning injection request.
func (b *Bus) PublishWarningReady(ev types.WarningReadyEvent) {
	b.mu.RLock()
	handlers := b.warningReady
	b.mu.RUnlock()
	for _, fn := range handlers {
		fn(ev)
	}
}
