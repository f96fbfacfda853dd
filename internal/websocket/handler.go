// internal/websocket/handler.go
package websocket

import (
	"context"
	"fmt"
	"sort"

	wstypes "squadhub-service/internal/domain/websocket"
)

// MessageHandler answers client requests for one group of event types.
type MessageHandler interface {
	HandleMessage(ctx context.Context, client *Client, msg *wstypes.WSMessage) error
	SupportedEvents() []wstypes.EventType
}

// HandlerRegistry routes client events to their handler. Built-in events
// (ping, subscribe, unsubscribe) are answered by the client itself.
type HandlerRegistry struct {
	handlers map[wstypes.EventType]MessageHandler
}

func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{
		handlers: make(map[wstypes.EventType]MessageHandler),
	}
}

// Register claims every event the handler supports. Claiming an event twice
// is a wiring mistake and panics.
func (r *HandlerRegistry) Register(handler MessageHandler) {
	for _, eventType := range handler.SupportedEvents() {
		if isBuiltin(eventType) {
			panic(fmt.Sprintf("websocket: event %q is handled by the client", eventType))
		}
		if _, taken := r.handlers[eventType]; taken {
			panic(fmt.Sprintf("websocket: duplicate handler for event %q", eventType))
		}
		r.handlers[eventType] = handler
	}
}

func (r *HandlerRegistry) GetHandler(eventType wstypes.EventType) (MessageHandler, bool) {
	handler, exists := r.handlers[eventType]
	return handler, exists
}

// Events lists registered event types in order.
func (r *HandlerRegistry) Events() []wstypes.EventType {
	events := make([]wstypes.EventType, 0, len(r.handlers))
	for e := range r.handlers {
		events = append(events, e)
	}
	sort.Slice(events, func(i, j int) bool { return events[i] < events[j] })
	return events
}

func isBuiltin(e wstypes.EventType) bool {
	switch e {
	case wstypes.EventTypePing, wstypes.EventTypeSubscribe, wstypes.EventTypeUnsubscribe:
		return true
	}
	return false
}
