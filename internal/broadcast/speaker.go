package broadcast

import (
	"context"
	"fmt"
	"io"
	"time"
)

// ConsoleSpeaker "reads" messages by writing them to a stream, pausing
// between messages to mimic broadcast pacing. It is the default speaker
// for local runs and tests.
type ConsoleSpeaker struct {
	out   io.Writer
	pause time.Duration
}

// NewConsoleSpeaker creates a speaker writing to out. pause is the dwell
// after each message; zero disables pacing.
func NewConsoleSpeaker(out io.Writer, pause time.Duration) *ConsoleSpeaker {
	return &ConsoleSpeaker{out: out, pause: pause}
}

// Speak writes the plain-text reading and waits out the pacing dwell.
func (s *ConsoleSpeaker) Speak(ctx context.Context, text, ssml string) error {
	if _, err := fmt.Fprintln(s.out, text); err != nil {
		return err
	}
	if s.pause <= 0 {
		return nil
	}
	timer := time.NewTimer(s.pause)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
