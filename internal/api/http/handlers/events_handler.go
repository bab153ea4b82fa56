package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/spec-kit/match-service/internal/events"
)

// EventsHandler streams a participant's lifecycle events over SSE.
type EventsHandler struct {
	hub       *events.Hub
	heartbeat time.Duration
	logger    *zap.Logger
	done      chan struct{}
	closeOnce sync.Once
}

// NewEventsHandler constructs handler.
func NewEventsHandler(hub *events.Hub, heartbeat time.Duration, logger *zap.Logger) *EventsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if heartbeat <= 0 {
		heartbeat = 25 * time.Second
	}
	return &EventsHandler{hub: hub, heartbeat: heartbeat, logger: logger, done: make(chan struct{})}
}

// Close ends every open stream so the server can shut down.
func (h *EventsHandler) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// Stream GET /events.
func (h *EventsHandler) Stream(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	// The fiber context is recycled once the handler returns; the writer
	// only uses values captured here.
	sub := h.hub.Subscribe(principal.ID)
	channel := principal.ID
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer sub.Close()
		h.logger.Debug("event stream opened", zap.String("channel", channel))
		if err := streamEvents(w, sub, h.heartbeat, h.done); err != nil {
			h.logger.Debug("event stream closed", zap.String("channel", channel), zap.Error(err))
		}
	}))
	return nil
}

// streamEvents writes envelopes from sub to w until the client goes away,
// the subscription closes or done fires.
func streamEvents(w *bufio.Writer, sub *events.Subscription, heartbeat time.Duration, done <-chan struct{}) error {
	if _, err := w.WriteString(": connected\n\n"); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}

	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return nil
		case <-sub.Done():
			return nil
		case <-ticker.C:
			if _, err := w.WriteString(": ping\n\n"); err != nil {
				return err
			}
		case env := <-sub.Events():
			if err := writeEvent(w, env); err != nil {
				return err
			}
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
}

func writeEvent(w *bufio.Writer, env events.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", env.ID, env.Event, data)
	return err
}
