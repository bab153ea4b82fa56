package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type flakyRelay struct {
	failures int32
	calls    atomic.Int32
	running  chan struct{}
}

func (r *flakyRelay) Run(ctx context.Context) error {
	if r.calls.Add(1) <= r.failures {
		return errors.New("connection refused")
	}
	close(r.running)
	<-ctx.Done()
	return nil
}

func TestRelayWorkerResubscribesAfterFailure(t *testing.T) {
	t.Parallel()

	relay := &flakyRelay{failures: 2, running: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())
	stopped := StartRelayWorker(ctx, relay, nil, time.Millisecond)

	select {
	case <-relay.running:
	case <-time.After(2 * time.Second):
		t.Fatal("relay never recovered")
	}
	if got := relay.calls.Load(); got != 3 {
		t.Fatalf("relay ran %d times, want 3", got)
	}

	cancel()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop on cancel")
	}
}

func TestRelayWorkerWithoutRelay(t *testing.T) {
	t.Parallel()

	select {
	case <-StartRelayWorker(context.Background(), nil, nil, 0):
	default:
		t.Fatal("nil relay should report stopped immediately")
	}
}
