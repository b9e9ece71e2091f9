// Package capture runs the polling decode loop for a live capture source. The
// loop is a cancellable repeating task: it pulls a frame each tick, attempts a
// decode, and stops on the first payload or when its context ends. The source
// is closed on every exit path so the underlying capture resource never leaks.
package capture

import (
	"context"
	"image"
	"time"
)

// FrameSource supplies frames from a live capture device. Frame must not
// block beyond producing the latest available frame.
type FrameSource interface {
	Frame(ctx context.Context) (image.Image, error)
	Close() error
}

// Decoder attempts to extract a QR payload from a single frame. A frame
// without a code is the normal steady state, not an error.
type Decoder interface {
	AttemptDecode(img image.Image) (string, bool)
}

// DefaultInterval approximates a display-frame tick.
const DefaultInterval = 33 * time.Millisecond

// Loop polls a frame source until a payload is found or the context ends.
type Loop struct {
	Source   FrameSource
	Decoder  Decoder
	Interval time.Duration
}

// Run polls until a decode hit, a frame error, or cancellation. The source is
// always closed before Run returns. Cancellation surfaces as ctx.Err().
func (l *Loop) Run(ctx context.Context) (string, error) {
	defer l.Source.Close()

	interval := l.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
			frame, err := l.Source.Frame(ctx)
			if err != nil {
				return "", err
			}
			if payload, ok := l.Decoder.AttemptDecode(frame); ok {
				return payload, nil
			}
		}
	}
}
