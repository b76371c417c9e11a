package forecast

import (
	"errors"
	"fmt"
	"sync"

	"longwave/internal/types"
)

// ErrBufferFull is returned by Enqueue when the buffer is at capacity.
var ErrBufferFull = errors.New("report buffer full")

// ReportBuffer is the bounded FIFO between generation and playback. The
// filler keeps it at MaxSize; playback drains it. Dequeue transfers
// ownership of the report to the caller.
//
// The buffer lives entirely in memory for the session; nothing persists.
type ReportBuffer struct {
	mu      sync.Mutex
	items   []*types.WeatherReport
	minSize int
	maxSize int
}

// NewReportBuffer creates an empty buffer with the given fill thresholds.
// minSize must be strictly below maxSize.
func NewReportBuffer(minSize, maxSize int) (*ReportBuffer, error) {
	if minSize < 1 || minSize >= maxSize {
		return nil, fmt.Errorf("buffer thresholds invalid: min %d, max %d", minSize, maxSize)
	}
	return &ReportBuffer{
		items:   make([]*types.WeatherReport, 0, maxSize),
		minSize: minSize,
		maxSize: maxSize,
	}, nil
}

// Enqueue appends a report, rejecting it when the buffer is at capacity.
func (b *ReportBuffer) Enqueue(r *types.WeatherReport) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.items) >= b.maxSize {
		return ErrBufferFull
	}
	b.items = append(b.items, r)
	return nil
}

// Dequeue removes and returns the oldest report. The second return is
// false when the buffer is empty.
func (b *ReportBuffer) Dequeue() (*types.WeatherReport, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.items) == 0 {
		return nil, false
	}
	head := b.items[0]
	copy(b.items, b.items[1:])
	b.items = b.items[:len(b.items)-1]
	return head, true
}

// Len returns the current number of buffered reports.
func (b *ReportBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// NeedsFill reports whether the buffer has drained below its low-water
// mark and the filler should top it up.
func (b *ReportBuffer) NeedsFill() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items) < b.minSize
}

// MaxSize returns the buffer capacity.
func (b *ReportBuffer) MaxSize() int {
	return b.maxSize
}
