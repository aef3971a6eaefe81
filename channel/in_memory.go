// Package channel provides client channel implementations. The core only
// depends on core.Channel; this package supplies an in-memory implementation
// suited to tests, examples and ephemeral demo hosts.
package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Notification is one recorded fire-and-forget message.
type Notification struct {
	Method string
	Params any
}

// RequestHandler answers a round-trip request for a scripted method.
type RequestHandler func(ctx context.Context, params any) (any, error)

// InMemory is a volatile core.Channel implementation recording notifications
// in submission order and answering requests via scripted per-method
// handlers. It is safe for concurrent access. Requests for methods without
// a handler fail, which callers treat as a failed round trip.
type InMemory struct {
	mu            sync.Mutex
	notifications []Notification
	handlers      map[string]RequestHandler
}

// NewInMemory constructs an empty in-memory channel.
func NewInMemory() *InMemory {
	return &InMemory{handlers: make(map[string]RequestHandler)}
}

// Handle scripts a handler for round-trip requests to the given method.
func (c *InMemory) Handle(method string, handler RequestHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[method] = handler
}

// Respond scripts a static response for round-trip requests to the given
// method.
func (c *InMemory) Respond(method string, response any) {
	c.Handle(method, func(ctx context.Context, params any) (any, error) {
		return response, nil
	})
}

// Notify records the notification. It never fails.
func (c *InMemory) Notify(ctx context.Context, method string, params any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notifications = append(c.notifications, Notification{Method: method, Params: params})
	return nil
}

// Request answers via the scripted handler for the method, marshalling the
// handler's response to raw JSON. An unscripted method fails the round trip.
func (c *InMemory) Request(ctx context.Context, method string, params any) (json.RawMessage, error) {
	c.mu.Lock()
	handler, ok := c.handlers[method]
	c.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("no handler for method %s", method)
	}

	response, err := handler(ctx, params)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(response)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}

	return raw, nil
}

// Notifications returns a copy of all recorded notifications in submission
// order.
func (c *InMemory) Notifications() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notification, len(c.notifications))
	copy(out, c.notifications)
	return out
}

// NotificationsFor returns the recorded notifications for one method,
// preserving submission order.
func (c *InMemory) NotificationsFor(method string) []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Notification
	for _, n := range c.notifications {
		if n.Method == method {
			out = append(out, n)
		}
	}
	return out
}
