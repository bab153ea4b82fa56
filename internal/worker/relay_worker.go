package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const maxRelayBackoff = 30 * time.Second

// Relay is a long-running subscription, typically events.RedisRelay.
type Relay interface {
	Run(ctx context.Context) error
}

// StartRelayWorker runs relay in the background until ctx is cancelled,
// resubscribing with exponential backoff after failures. The returned
// channel is closed once the worker has stopped.
func StartRelayWorker(ctx context.Context, relay Relay, logger *zap.Logger, backoff time.Duration) <-chan struct{} {
	stopped := make(chan struct{})
	if relay == nil {
		close(stopped)
		return stopped
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if backoff <= 0 {
		backoff = time.Second
	}

	go func() {
		defer close(stopped)
		wait := backoff
		for {
			err := relay.Run(ctx)
			if ctx.Err() != nil {
				return
			}
			if err == nil {
				wait = backoff
			} else {
				logger.Warn("event relay stopped; resubscribing", zap.Error(err), zap.Duration("backoff", wait))
			}

			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
			if err != nil {
				wait = min(wait*2, maxRelayBackoff)
			}
		}
	}()
	return stopped
}
