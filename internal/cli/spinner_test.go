package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func TestSpinnerStop(t *testing.T) {
	s := newSpinner("Rendering...")
	s.Start()
	s.Stop()
	if !s.Cancelled() {
		t.Error("Stop should cancel the spinner context")
	}
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	s := newSpinner("Pushing...")
	s.Start()
	s.Stop()
	s.Stop()
}

func TestSpinnerStopWithoutStart(t *testing.T) {
	done := make(chan struct{})
	go func() {
		newSpinner("never started").Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked on a spinner that was never started")
	}
}

func TestSpinnerFollowsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := newSpinnerWithContext(ctx, "Waiting...")
	s.Start()
	cancel()

	select {
	case <-s.stopped:
	case <-time.After(time.Second):
		t.Fatal("spinner did not stop after cancellation")
	}
	if !s.Cancelled() {
		t.Error("spinner should report cancellation")
	}
}

func TestSpinnerAnimates(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner("Rendering...")
	s.w, s.animate = &buf, true
	s.Start()
	time.Sleep(3 * s.frames.FPS)
	s.Stop()

	if !strings.Contains(buf.String(), "Rendering...") {
		t.Errorf("spinner output %q missing message", buf.String())
	}
}

func TestSpinnerSilentWhenNotTerminal(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner("Rendering...")
	s.w, s.animate = &buf, false
	s.Start()
	time.Sleep(3 * s.frames.FPS)
	s.Stop()

	if buf.Len() != 0 {
		t.Errorf("non-terminal spinner wrote %q", buf.String())
	}
}

func TestStopWithMessages(t *testing.T) {
	buf := captureOutput(t)

	s := newSpinner("Pulling...")
	s.Start()
	s.StopWithSuccess("Pulled 2 pages")
	s = newSpinner("Pulling...")
	s.Start()
	s.StopWithError("Pull failed")

	got := buf.String()
	if !strings.Contains(got, "Pulled 2 pages") || !strings.Contains(got, "Pull failed") {
		t.Errorf("output = %q", got)
	}
}
