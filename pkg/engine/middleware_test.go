package engine

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	protoerrors "github.com/mcpwire/mcpwire/pkg/errors"
	"github.com/mcpwire/mcpwire/pkg/logging"
)

func TestChainOrdering(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(next Dispatcher) Dispatcher {
			return dispatcherFuncs{
				dispatch: func(ctx context.Context, method string, params json.RawMessage) (interface{}, error) {
					order = append(order, name)
					return next.Dispatch(ctx, method, params)
				},
				notification: func(ctx context.Context, method string, params json.RawMessage) error {
					return next.DispatchNotification(ctx, method, params)
				},
			}
		}
	}

	registry := NewRegistry()
	registry.Register("m", func(ctx context.Context, params json.RawMessage) (interface{}, error) {
		order = append(order, "handler")
		return nil, nil
	})

	chained := Chain(registry, tag("outer"), tag("inner"))
	_, err := chained.Dispatch(context.Background(), "m", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestRecoveryMiddlewareConvertsPanics(t *testing.T) {
	registry := NewRegistry()
	registry.Register("boom", func(ctx context.Context, params json.RawMessage) (interface{}, error) {
		panic("kaboom")
	})
	registry.RegisterNotification("boom", func(ctx context.Context, params json.RawMessage) error {
		panic("kaboom")
	})

	safe := Chain(registry, RecoveryMiddleware(logging.NewNop()))

	_, err := safe.Dispatch(context.Background(), "boom", nil)
	require.Error(t, err)
	assert.True(t, protoerrors.IsCode(err, protoerrors.CodeInternalError))

	err = safe.DispatchNotification(context.Background(), "boom", nil)
	require.Error(t, err)
	assert.True(t, protoerrors.IsCode(err, protoerrors.CodeInternalError))
}

func TestLoggingMiddlewarePassesThrough(t *testing.T) {
	registry := NewRegistry()
	registry.Register("m", func(ctx context.Context, params json.RawMessage) (interface{}, error) {
		// The middleware stamps a correlation id before the handler runs.
		assert.NotEmpty(t, logging.RequestIDFromContext(ctx))
		return 7, nil
	})

	logged := Chain(registry, LoggingMiddleware(logging.NewNop()))
	result, err := logged.Dispatch(context.Background(), "m", nil)
	require.NoError(t, err)
	assert.Equal(t, 7, result)
}

func TestEngineUsesChainedDispatcher(t *testing.T) {
	registry := NewRegistry()
	registry.Register("tools/call", func(ctx context.Context, params json.RawMessage) (interface{}, error) {
		return map[string]bool{"ok": true}, nil
	})

	eng := New(DefaultConfig(),
		WithDispatcher(Chain(registry,
			RecoveryMiddleware(logging.NewNop()),
			LoggingMiddleware(logging.NewNop()),
		)))
	initializeSession(t, eng, "s")

	reply, err := eng.HandleMessage(context.Background(), "s",
		[]byte(`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{}}`))
	require.NoError(t, err)
	decoded := decodeReply(t, reply)
	assert.Nil(t, decoded.Error)
}
