package mcpadapter

import (
	"context"
	"io"
	"testing"
	"time"
)

func TestServeStopsOnContextCancel(t *testing.T) {
	s := NewServer("docscout-test", &questionServiceFake{outcome: sampleOutcome()})

	// A pipe with no writer activity: only cancellation can unblock the server.
	in, _ := io.Pipe()
	defer in.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.serve(ctx, in, io.Discard) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("cancellation must shut down cleanly, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("serve did not stop after context cancellation")
	}
}
