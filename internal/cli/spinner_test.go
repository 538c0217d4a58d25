package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer guards a bytes.Buffer shared with the spinner goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinnerDrawsMessage(t *testing.T) {
	var buf syncBuffer
	s := newSpinnerTo(context.Background(), &buf, "Building figures...")
	s.interval = 5 * time.Millisecond
	s.Start()
	time.Sleep(50 * time.Millisecond)
	s.Stop()

	if !strings.Contains(buf.String(), "Building figures...") {
		t.Errorf("spinner output = %q", buf.String())
	}
	if !s.Cancelled() {
		t.Error("Cancelled() should be true after Stop")
	}
}

func TestSpinnerParentCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	var buf syncBuffer
	s := newSpinnerTo(ctx, &buf, "waiting")
	s.Start()

	select {
	case <-s.stopped:
	case <-time.After(time.Second):
		t.Fatal("spinner did not stop after its context ended")
	}
	if !s.Cancelled() {
		t.Error("Cancelled() should be true after the parent context ends")
	}
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	s := newSpinnerTo(context.Background(), &syncBuffer{}, "stop")
	s.Start()
	s.Stop()
	s.Stop()
	s.StopWithError("failed")
}
