package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

// quietSpinners sends spinner frames and status lines to buffers.
func quietSpinners(t *testing.T) (out, frames *bytes.Buffer) {
	t.Helper()
	out, frames = &bytes.Buffer{}, &bytes.Buffer{}
	oldOut, oldErr := stdout, stderr
	stdout, stderr = out, frames
	t.Cleanup(func() { stdout, stderr = oldOut, oldErr })
	return out, frames
}

func TestSpinnerBasic(t *testing.T) {
	_, frames := quietSpinners(t)

	s := newSpinner("Testing...")
	s.Start()
	time.Sleep(200 * time.Millisecond)
	s.Stop()

	if s.Cancelled() {
		t.Error("Stop alone should not count as cancellation")
	}
	if !strings.Contains(frames.String(), "Testing...") {
		t.Errorf("frames = %q, want the message", frames.String())
	}
}

func TestSpinnerUpdate(t *testing.T) {
	_, frames := quietSpinners(t)

	s := newSpinner("short")
	s.Start()
	s.Update("a much longer message")
	time.Sleep(200 * time.Millisecond)
	s.Stop()

	if !strings.Contains(frames.String(), "a much longer message") {
		t.Errorf("frames = %q, want the updated message", frames.String())
	}
}

func TestSpinnerWithContext(t *testing.T) {
	quietSpinners(t)
	ctx, cancel := context.WithCancel(context.Background())

	s := newSpinnerWithContext(ctx, "Testing with context...")
	s.Start()
	cancel()
	s.Stop()

	if !s.Cancelled() {
		t.Error("Spinner should be cancelled after context cancellation")
	}
}

func TestSpinnerWithTimeout(t *testing.T) {
	quietSpinners(t)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	s := newSpinnerWithContext(ctx, "Testing with timeout...")
	s.Start()
	time.Sleep(100 * time.Millisecond)

	if !s.Cancelled() {
		t.Error("Spinner should be cancelled after context timeout")
	}
	s.Stop()
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	quietSpinners(t)

	s := newSpinner("Testing idempotent stop...")
	s.Start()
	s.Stop()
	s.Stop()
	s.Stop()
}

func TestSpinnerStopBeforeStart(t *testing.T) {
	quietSpinners(t)

	done := make(chan struct{})
	go func() {
		newSpinner("never started").Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop before Start should not block")
	}
}

func TestSpinnerStopWithMessage(t *testing.T) {
	out, _ := quietSpinners(t)

	s := newSpinner("Working...")
	s.Start()
	s.StopWithSuccess("Done!")

	s = newSpinner("Working...")
	s.Start()
	s.StopWithError("Failed!")

	got := out.String()
	for _, want := range []string{iconSuccess + " Done!", iconError + " Failed!"} {
		if !strings.Contains(got, want) {
			t.Errorf("output %q missing %q", got, want)
		}
	}
}
