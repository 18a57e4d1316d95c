package common

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/andrescamacho/portsim-go/internal/domain/shared"
)

// Request represents a command or query
type Request interface{}

// Response represents the result of handling a request
type Response interface{}

// RequestHandler handles a specific request type
type RequestHandler interface {
	Handle(ctx context.Context, request Request) (Response, error)
}

// HandlerFunc adapts a function to RequestHandler
type HandlerFunc func(ctx context.Context, request Request) (Response, error)

func (f HandlerFunc) Handle(ctx context.Context, request Request) (Response, error) {
	return f(ctx, request)
}

// Behavior wraps every dispatch, outermost first
type Behavior func(next RequestHandler) RequestHandler

// Mediator dispatches requests to their handlers
type Mediator interface {
	Send(ctx context.Context, request Request) (Response, error)
	Register(requestType reflect.Type, handler RequestHandler) error
	Use(behavior Behavior)
}

type mediator struct {
	mu        sync.RWMutex
	handlers  map[reflect.Type]RequestHandler
	behaviors []Behavior
}

// NewMediator creates a new mediator instance
func NewMediator() Mediator {
	return &mediator{
		handlers: make(map[reflect.Type]RequestHandler),
	}
}

// Register registers a handler for a specific request type
func (m *mediator) Register(requestType reflect.Type, handler RequestHandler) error {
	if requestType == nil {
		return fmt.Errorf("request type cannot be nil")
	}
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.handlers[requestType]; exists {
		return fmt.Errorf("handler already registered for type %s", requestType)
	}
	m.handlers[requestType] = handler
	return nil
}

// Use appends a behavior to the dispatch pipeline
func (m *mediator) Use(behavior Behavior) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.behaviors = append(m.behaviors, behavior)
}

// Send dispatches a request to its registered handler through the behaviors
func (m *mediator) Send(ctx context.Context, request Request) (Response, error) {
	if request == nil {
		return nil, fmt.Errorf("request cannot be nil")
	}

	requestType := reflect.TypeOf(request)

	m.mu.RLock()
	handler, ok := m.handlers[requestType]
	behaviors := m.behaviors
	m.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("no handler registered for type %s", requestType)
	}

	for i := len(behaviors) - 1; i >= 0; i-- {
		handler = behaviors[i](handler)
	}
	return handler.Handle(ctx, request)
}

// RegisterHandler registers a handler with type inference
func RegisterHandler[T Request](m Mediator, handler RequestHandler) error {
	var zero T
	return m.Register(reflect.TypeOf(zero), handler)
}

// Send dispatches a request and asserts the response type
func Send[R Response](ctx context.Context, m Mediator, request Request) (R, error) {
	var zero R
	resp, err := m.Send(ctx, request)
	if err != nil {
		return zero, err
	}
	typed, ok := resp.(R)
	if !ok {
		return zero, fmt.Errorf("unexpected response type %T", resp)
	}
	return typed, nil
}

// LoggingBehavior logs each dispatch and its duration through the context logger
func LoggingBehavior(clock shared.Clock) Behavior {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return func(next RequestHandler) RequestHandler {
		return HandlerFunc(func(ctx context.Context, request Request) (Response, error) {
			logger := shared.LoggerFromContext(ctx)
			start := clock.Now()
			name := reflect.TypeOf(request).String()

			resp, err := next.Handle(ctx, request)

			metadata := map[string]interface{}{
				"request":     name,
				"duration_ms": clock.Now().Sub(start).Milliseconds(),
			}
			if err != nil {
				metadata["error"] = err.Error()
				logger.Log(shared.LevelError, fmt.Sprintf("%s failed", name), metadata)
			} else {
				logger.Log(shared.LevelDebug, fmt.Sprintf("%s handled", name), metadata)
			}
			return resp, err
		})
	}
}

