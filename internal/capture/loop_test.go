package capture

import (
	"context"
	"errors"
	"image"
	"sync/atomic"
	"testing"
	"time"
)

type fakeSource struct {
	frames int32
	closed atomic.Bool
	err    error
}

func (f *fakeSource) Frame(ctx context.Context) (image.Image, error) {
	if f.err != nil {
		return nil, f.err
	}
	atomic.AddInt32(&f.frames, 1)
	return image.NewRGBA(image.Rect(0, 0, 1, 1)), nil
}

func (f *fakeSource) Close() error {
	f.closed.Store(true)
	return nil
}

// hitAfter decodes successfully once n frames have been seen.
type hitAfter struct {
	n       int32
	seen    int32
	payload string
}

func (h *hitAfter) AttemptDecode(img image.Image) (string, bool) {
	if atomic.AddInt32(&h.seen, 1) >= h.n {
		return h.payload, true
	}
	return "", false
}

func TestRunStopsOnFirstPayload(t *testing.T) {
	src := &fakeSource{}
	loop := &Loop{
		Source:   src,
		Decoder:  &hitAfter{n: 3, payload: "https://example.com"},
		Interval: time.Millisecond,
	}

	payload, err := loop.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if payload != "https://example.com" {
		t.Errorf("payload = %q", payload)
	}
	if !src.closed.Load() {
		t.Error("source not closed after successful decode")
	}
}

func TestRunCancelClosesSource(t *testing.T) {
	src := &fakeSource{}
	loop := &Loop{
		Source:   src,
		Decoder:  &hitAfter{n: 1 << 30},
		Interval: time.Millisecond,
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	if _, err := loop.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if !src.closed.Load() {
		t.Error("source not closed after cancellation")
	}
}

func TestRunFrameErrorClosesSource(t *testing.T) {
	wantErr := errors.New("camera busy")
	src := &fakeSource{err: wantErr}
	loop := &Loop{
		Source:   src,
		Decoder:  &hitAfter{n: 1},
		Interval: time.Millisecond,
	}

	if _, err := loop.Run(context.Background()); !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
	if !src.closed.Load() {
		t.Error("source not closed after frame error")
	}
}
