package events

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultSubscriberBuffer = 32

// Hub is the in-process registry of per-participant subscriptions.
type Hub struct {
	mu              sync.RWMutex
	subscribers     map[string]map[*Subscription]struct{}
	buffer          int
	deliveryTimeout time.Duration
	logger          *zap.Logger
}

// HubOptions tunes subscriber buffering.
type HubOptions struct {
	SubscriberBuffer int
	// DeliveryTimeout bounds the wait on a subscriber whose buffer is full.
	// Zero drops immediately.
	DeliveryTimeout time.Duration
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger, opts HubOptions) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.SubscriberBuffer <= 0 {
		opts.SubscriberBuffer = defaultSubscriberBuffer
	}
	return &Hub{
		subscribers:     make(map[string]map[*Subscription]struct{}),
		buffer:          opts.SubscriberBuffer,
		deliveryTimeout: opts.DeliveryTimeout,
		logger:          logger,
	}
}

// Subscription receives the envelopes published to one channel.
type Subscription struct {
	hub       *Hub
	channelID string
	ch        chan Envelope
	done      chan struct{}
	once      sync.Once
}

// Events returns the receive side of the subscription. It is never closed;
// select on Done to observe Close.
func (s *Subscription) Events() <-chan Envelope {
	return s.ch
}

// Done is closed once the subscription is closed.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Close detaches the subscription from the hub. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s)
		close(s.done)
	})
}

// Subscribe registers a listener for channelID.
func (h *Hub) Subscribe(channelID string) *Subscription {
	sub := &Subscription{
		hub:       h,
		channelID: channelID,
		ch:        make(chan Envelope, h.buffer),
		done:      make(chan struct{}),
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subscribers[channelID]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subscribers[channelID] = set
	}
	set[sub] = struct{}{}
	return sub
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.subscribers[sub.channelID]
	delete(set, sub)
	if len(set) == 0 {
		delete(h.subscribers, sub.channelID)
	}
}

// SubscriberCount returns the number of live subscriptions on channelID.
func (h *Hub) SubscriberCount(channelID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[channelID])
}

// Publish implements Broadcaster for single-instance deployments.
func (h *Hub) Publish(ctx context.Context, channelID string, event EventName, payload any) error {
	env, err := NewEnvelope(channelID, event, payload)
	if err != nil {
		return err
	}
	h.Deliver(ctx, env)
	return nil
}

// Deliver hands env to every current subscriber of env.Channel.
func (h *Hub) Deliver(ctx context.Context, env Envelope) {
	h.mu.RLock()
	targets := make([]*Subscription, 0, len(h.subscribers[env.Channel]))
	for sub := range h.subscribers[env.Channel] {
		targets = append(targets, sub)
	}
	h.mu.RUnlock()

	for _, sub := range targets {
		if !h.send(ctx, sub, env) {
			h.logger.Warn("dropped event for slow subscriber",
				zap.String("channel", env.Channel),
				zap.String("event", string(env.Event)),
				zap.String("event_id", env.ID))
		}
	}
}

func (h *Hub) send(ctx context.Context, sub *Subscription, env Envelope) bool {
	select {
	case sub.ch <- env:
		return true
	case <-sub.done:
		return true
	default:
	}
	if h.deliveryTimeout <= 0 {
		return false
	}

	timer := time.NewTimer(h.deliveryTimeout)
	defer timer.Stop()
	select {
	case sub.ch <- env:
		return true
	case <-sub.done:
		return true
	case <-ctx.Done():
		return false
	case <-timer.C:
		return false
	}
}
