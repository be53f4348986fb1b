package scan

import (
	"time"

	"photocull/internal/catalog"
)

// ProgressSink receives progress snapshots during a scan. Emit must never
// block: progress is advisory, not authoritative, and a slow consumer must
// not stall the scan.
type ProgressSink interface {
	Emit(catalog.Progress)
}

// SinkFunc adapts a function to the ProgressSink interface.
type SinkFunc func(catalog.Progress)

func (f SinkFunc) Emit(p catalog.Progress) { f(p) }

// NopSink discards all progress events.
type NopSink struct{}

func (NopSink) Emit(catalog.Progress) {}

// ChannelSink delivers progress over a buffered channel, dropping events
// when the consumer lags behind.
type ChannelSink struct {
	ch chan catalog.Progress
}

// NewChannelSink creates a ChannelSink with the given buffer size.
func NewChannelSink(buffer int) *ChannelSink {
	if buffer < 1 {
		buffer = 64
	}
	return &ChannelSink{ch: make(chan catalog.Progress, buffer)}
}

// Emit sends the snapshot without blocking, discarding it if the buffer is
// full.
func (s *ChannelSink) Emit(p catalog.Progress) {
	select {
	case s.ch <- p:
	default:
	}
}

// Events returns the receive side of the sink.
func (s *ChannelSink) Events() <-chan catalog.Progress {
	return s.ch
}

// Close closes the event channel. Call only after the scan has returned.
func (s *ChannelSink) Close() {
	close(s.ch)
}

// estimateRemaining projects a simple rate estimate over the remaining
// items. It returns nil until at least one second of work has elapsed.
func estimateRemaining(start time.Time, processed, total int) *time.Duration {
	elapsed := time.Since(start)
	if elapsed < time.Second || processed == 0 {
		return nil
	}
	rate := float64(processed) / elapsed.Seconds()
	remaining := time.Duration(float64(total-processed) / rate * float64(time.Second))
	return &remaining
}
