package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

func TestHubDeliversOnlyToChannelSubscribers(t *testing.T) {
	t.Parallel()

	hub := NewHub(nil, HubOptions{SubscriberBuffer: 4})
	alice := hub.Subscribe("alice")
	defer alice.Close()
	bob := hub.Subscribe("bob")
	defer bob.Close()

	if err := hub.Publish(context.Background(), "alice", EventMatchDeleted, MatchDeletedPayload{ID: "m-1"}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case env := <-alice.Events():
		if env.Event != EventMatchDeleted || env.Channel != "alice" {
			t.Fatalf("unexpected envelope %+v", env)
		}
		var payload MatchDeletedPayload
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if payload.ID != "m-1" {
			t.Fatalf("payload id = %q", payload.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("alice did not receive event")
	}

	select {
	case env := <-bob.Events():
		t.Fatalf("bob received %+v", env)
	default:
	}
}

func TestHubFansOutToEverySubscriptionOfAChannel(t *testing.T) {
	t.Parallel()

	hub := NewHub(nil, HubOptions{SubscriberBuffer: 1})
	first := hub.Subscribe("u")
	second := hub.Subscribe("u")
	defer first.Close()
	defer second.Close()

	if err := hub.Publish(context.Background(), "u", EventMatchCreated, map[string]string{"id": "m"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	for _, sub := range []*Subscription{first, second} {
		select {
		case <-sub.Events():
		case <-time.After(time.Second):
			t.Fatal("subscription missed event")
		}
	}
}

func TestSubscriptionCloseDetaches(t *testing.T) {
	t.Parallel()

	hub := NewHub(nil, HubOptions{})
	sub := hub.Subscribe("u")
	if got := hub.SubscriberCount("u"); got != 1 {
		t.Fatalf("subscriber count = %d, want 1", got)
	}
	sub.Close()
	sub.Close()
	if got := hub.SubscriberCount("u"); got != 0 {
		t.Fatalf("subscriber count after close = %d, want 0", got)
	}
	select {
	case <-sub.Done():
	default:
		t.Fatal("done channel not closed")
	}
	if err := hub.Publish(context.Background(), "u", EventMatchDeleted, MatchDeletedPayload{ID: "x"}); err != nil {
		t.Fatalf("publish to empty channel: %v", err)
	}
}

func TestHubDropsForFullSubscriberWithoutBlockingOthers(t *testing.T) {
	t.Parallel()

	hub := NewHub(nil, HubOptions{SubscriberBuffer: 1, DeliveryTimeout: 10 * time.Millisecond})
	slow := hub.Subscribe("u")
	defer slow.Close()
	fast := hub.Subscribe("u")
	defer fast.Close()

	ctx := context.Background()
	_ = hub.Publish(ctx, "u", EventMatchDeleted, MatchDeletedPayload{ID: "1"})
	<-fast.Events()

	start := time.Now()
	_ = hub.Publish(ctx, "u", EventMatchDeleted, MatchDeletedPayload{ID: "2"})
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("publish blocked for %s", elapsed)
	}

	select {
	case env := <-fast.Events():
		var payload MatchDeletedPayload
		_ = json.Unmarshal(env.Payload, &payload)
		if payload.ID != "2" {
			t.Fatalf("fast subscriber got %q", payload.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("fast subscriber starved by slow one")
	}

	env := <-slow.Events()
	var payload MatchDeletedPayload
	_ = json.Unmarshal(env.Payload, &payload)
	if payload.ID != "1" {
		t.Fatalf("slow subscriber first event = %q, want 1", payload.ID)
	}
	select {
	case env := <-slow.Events():
		t.Fatalf("slow subscriber should have dropped, got %+v", env)
	default:
	}
}

func TestHubConcurrentPublishAndClose(t *testing.T) {
	t.Parallel()

	hub := NewHub(nil, HubOptions{SubscriberBuffer: 2})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		sub := hub.Subscribe("u")
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = hub.Publish(context.Background(), "u", EventMatchUpdated, map[string]int{"n": j})
			}
		}()
		go func() {
			defer wg.Done()
			sub.Close()
		}()
	}
	wg.Wait()
	if got := hub.SubscriberCount("u"); got != 0 {
		t.Fatalf("subscriber count = %d, want 0", got)
	}
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	calls  []string
	result error
}

func (r *recordingBroadcaster) Publish(_ context.Context, channelID string, event EventName, _ any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, channelID+"/"+string(event))
	return r.result
}

func TestFanoutPublishesToAllAndJoinsErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	ok := &recordingBroadcaster{}
	failing := &recordingBroadcaster{result: boom}
	b := Fanout(ok, nil, failing)

	err := b.Publish(context.Background(), "u", EventMatchCreated, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if len(ok.calls) != 1 || len(failing.calls) != 1 {
		t.Fatalf("calls = %v / %v", ok.calls, failing.calls)
	}
}

type eventTally struct {
	events []string
	errs   int
}

func (e *eventTally) RecordEvent(event string, err error) {
	e.events = append(e.events, event)
	if err != nil {
		e.errs++
	}
}

func TestInstrumentRecordsOutcome(t *testing.T) {
	t.Parallel()

	tally := &eventTally{}
	b := Instrument(&recordingBroadcaster{result: errors.New("down")}, tally)
	_ = b.Publish(context.Background(), "u", EventMatchUpdated, nil)

	if len(tally.events) != 1 || tally.events[0] != string(EventMatchUpdated) || tally.errs != 1 {
		t.Fatalf("unexpected tally %+v", tally)
	}
	if Instrument(Nop{}, nil) != (Nop{}) {
		t.Fatal("nil recorder should return the wrapped broadcaster")
	}
}

type fakeWriter struct {
	messages []kafka.Message
	closed   bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaMirrorKeysByChannel(t *testing.T) {
	t.Parallel()

	writer := &fakeWriter{}
	mirror := NewKafkaMirror(writer)
	if err := mirror.Publish(context.Background(), "startup-1", EventMatchCreated, MatchDeletedPayload{ID: "m"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(writer.messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(writer.messages))
	}
	msg := writer.messages[0]
	if string(msg.Key) != "startup-1" {
		t.Fatalf("key = %q", msg.Key)
	}
	var env Envelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Event != EventMatchCreated || env.Channel != "startup-1" || env.ID == "" {
		t.Fatalf("unexpected envelope %+v", env)
	}
	if err := mirror.Close(); err != nil || !writer.closed {
		t.Fatalf("close: %v closed=%v", err, writer.closed)
	}
}
