// Package broadcast runs the endless forecast loop: it keeps the report
// buffer topped up, speaks each report to completion, publishes the
// completion boundary, and splices any pending warning into the next slot.
package broadcast

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"longwave/internal/bus"
	"longwave/internal/forecast"
	"longwave/internal/types"
	"longwave/internal/vocab"
)

// Speaker renders one message audibly and returns when it has finished.
// Implementations must honor context cancellation.
type Speaker interface {
	Speak(ctx context.Context, text, ssml string) error
}

// Session owns the generation-to-playback pipeline for one run of the
// broadcast. It implements the playback-state read the injector needs.
type Session struct {
	generator *forecast.ReportGenerator
	buffer    *forecast.ReportBuffer
	events    *bus.Bus
	speaker   Speaker
	logger    *slog.Logger
	rng       forecast.Rand
	now       func() time.Time

	playing atomic.Bool

	// pendingWarning holds at most one splice request; a boundary consumes
	// it before the next report.
	mu             sync.Mutex
	pendingWarning *types.WarningReadyEvent

	announcements []string
}

// NewSession wires a session and subscribes it to warning requests.
// Constructing a session with a missing collaborator fails fast; a partial
// pipeline must never start speaking.
func NewSession(
	generator *forecast.ReportGenerator,
	buffer *forecast.ReportBuffer,
	events *bus.Bus,
	speaker Speaker,
	rng forecast.Rand,
	logger *slog.Logger,
) (*Session, error) {
	if generator == nil {
		return nil, fmt.Errorf("session needs a report generator")
	}
	if buffer == nil {
		return nil, fmt.Errorf("session needs a report buffer")
	}
	if events == nil {
		return nil, fmt.Errorf("session needs an event bus")
	}
	if speaker == nil {
		return nil, fmt.Errorf("session needs a speaker")
	}
	if rng == nil {
		rng = forecast.NewRand()
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Session{
		generator:     generator,
		buffer:        buffer,
		events:        events,
		speaker:       speaker,
		logger:        logger,
		rng:           rng,
		now:           time.Now,
		announcements: vocab.Announcements(),
	}
	events.SubscribeWarningReady(s.onWarningReady)
	return s, nil
}

// IsPlaying reports whether the broadcast loop is actively speaking.
func (s *Session) IsPlaying() bool {
	return s.playing.Load()
}

// onWarningReady stores the splice request for the next boundary. A second
// request before the slot drains replaces the first; the injector's
// spacing rule makes that effectively impossible in practice.
func (s *Session) onWarningReady(ev types.WarningReadyEvent) {
	s.mu.Lock()
	s.pendingWarning = &ev
	s.mu.Unlock()
}

// takePendingWarning drains the splice slot.
func (s *Session) takePendingWarning() *types.WarningReadyEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	w := s.pendingWarning
	s.pendingWarning = nil
	return w
}

// Run speaks forever until the context is cancelled. Generation errors
// abort the run: they indicate a programming defect, not a transient
// condition. Speaker errors are logged and the loop continues; the
// broadcast's availability outranks any single message.
func (s *Session) Run(ctx context.Context) error {
	s.playing.Store(true)
	defer s.playing.Store(false)

	for {
		if err := s.fill(); err != nil {
			return err
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		if w := s.takePendingWarning(); w != nil {
			s.speak(ctx, w.MessageText, forecast.RenderMessageSSML(w.MessageText))
			s.logger.Info("warning spoken",
				slog.String("message_id", w.MessageID),
				slog.Int("warning_count", w.WarningCount),
			)
			continue
		}

		report, ok := s.buffer.Dequeue()
		if !ok {
			continue
		}

		if report.OpensLap {
			s.speakAnnouncement(ctx)
		}

		s.speak(ctx, report.RenderedText, report.RenderedSSML)

		s.events.PublishReportComplete(types.ReportCompleteEvent{Report: report})
	}
}

// fill tops the buffer up to its capacity.
func (s *Session) fill() error {
	for s.buffer.Len() < s.buffer.MaxSize() {
		report, err := s.generator.Generate()
		if err != nil {
			return fmt.Errorf("generating report: %w", err)
		}
		if err := s.buffer.Enqueue(report); err != nil {
			break
		}
	}
	return nil
}

// speakAnnouncement reads one continuity line with the issue time filled
// in.
func (s *Session) speakAnnouncement(ctx context.Context) {
	line := s.announcements[s.rng.IntN(len(s.announcements))]
	text := fmt.Sprintf(line, s.now().UTC().Format("1504"))
	s.speak(ctx, text, forecast.RenderMessageSSML(text))
}

func (s *Session) speak(ctx context.Context, text, ssml string) {
	if err := s.speaker.Speak(ctx, text, ssml); err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Error("speaker failed, continuing broadcast",
			slog.String("error", err.Error()),
		)
	}
}
