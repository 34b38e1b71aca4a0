package engine

import (
	"context"
	"encoding/json"
	"sync"

	protoerrors "github.com/mcpwire/mcpwire/pkg/errors"
)

// Handler executes one method call. The returned value is marshaled
// into the response's result field; a returned ProtocolError travels to
// the peer as-is, any other error becomes an internal error.
type Handler func(ctx context.Context, params json.RawMessage) (interface{}, error)

// NotificationHandler consumes one notification. Errors are logged,
// never answered: notifications produce no output by definition.
type NotificationHandler func(ctx context.Context, params json.RawMessage) error

// Dispatcher is the boundary between the engine and the tool layer.
// The engine hands over a decoded method name and parameters and wraps
// whatever comes back into a response; it never interprets the payload.
type Dispatcher interface {
	Dispatch(ctx context.Context, method string, params json.RawMessage) (interface{}, error)
	DispatchNotification(ctx context.Context, method string, params json.RawMessage) error
}

// Registry is a Dispatcher backed by plain method maps. Registration
// usually happens once at startup, but the registry is safe for
// concurrent use so tools may also be added while serving.
type Registry struct {
	mu            sync.RWMutex
	handlers      map[string]Handler
	notifications map[string]NotificationHandler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers:      make(map[string]Handler),
		notifications: make(map[string]NotificationHandler),
	}
}

// Register binds a request handler to a method name. A later
// registration for the same name replaces the earlier one.
func (r *Registry) Register(method string, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[method] = handler
}

// RegisterNotification binds a notification handler to a method name.
func (r *Registry) RegisterNotification(method string, handler NotificationHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications[method] = handler
}

// Methods returns the registered request method names.
func (r *Registry) Methods() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	methods := make([]string, 0, len(r.handlers))
	for m := range r.handlers {
		methods = append(methods, m)
	}
	return methods
}

// Dispatch runs the handler for a method, or fails with method-not-found.
func (r *Registry) Dispatch(ctx context.Context, method string, params json.RawMessage) (interface{}, error) {
	r.mu.RLock()
	handler, ok := r.handlers[method]
	r.mu.RUnlock()

	if !ok {
		return nil, protoerrors.NewMethodNotFoundError(method)
	}
	return handler(ctx, params)
}

// DispatchNotification runs the notification handler for a method, or
// fails with method-not-found.
func (r *Registry) DispatchNotification(ctx context.Context, method string, params json.RawMessage) error {
	r.mu.RLock()
	handler, ok := r.notifications[method]
	r.mu.RUnlock()

	if !ok {
		return protoerrors.NewMethodNotFoundError(method)
	}
	return handler(ctx, params)
}
