package events

import (
	"context"
	"errors"
)

// Broadcaster publishes a named event to one participant channel. Delivery is
// at-least-once to listeners subscribed at publish time; nothing is queued for
// absent listeners.
type Broadcaster interface {
	Publish(ctx context.Context, channelID string, event EventName, payload any) error
}

// Nop discards every event.
type Nop struct{}

// Publish implements Broadcaster.
func (Nop) Publish(context.Context, string, EventName, any) error { return nil }

type fanout []Broadcaster

// Fanout publishes to every non-nil broadcaster and joins their errors.
func Fanout(targets ...Broadcaster) Broadcaster {
	out := make(fanout, 0, len(targets))
	for _, t := range targets {
		if t != nil {
			out = append(out, t)
		}
	}
	return out
}

func (f fanout) Publish(ctx context.Context, channelID string, event EventName, payload any) error {
	var errs []error
	for _, target := range f {
		if err := target.Publish(ctx, channelID, event, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorder receives one observation per publish attempt.
type Recorder interface {
	RecordEvent(event string, err error)
}

type instrumented struct {
	next     Broadcaster
	recorder Recorder
}

// Instrument reports the outcome of every publish to recorder.
func Instrument(next Broadcaster, recorder Recorder) Broadcaster {
	if recorder == nil {
		return next
	}
	return &instrumented{next: next, recorder: recorder}
}

func (i *instrumented) Publish(ctx context.Context, channelID string, event EventName, payload any) error {
	err := i.next.Publish(ctx, channelID, event, payload)
	i.recorder.RecordEvent(string(event), err)
	return err
}
