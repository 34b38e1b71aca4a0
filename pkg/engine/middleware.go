package engine

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	protoerrors "github.com/mcpwire/mcpwire/pkg/errors"
	"github.com/mcpwire/mcpwire/pkg/logging"
)

func panicError(r interface{}) error {
	if err, ok := r.(error); ok {
		return protoerrors.NewInternalError(err)
	}
	return protoerrors.Newf(protoerrors.CodeInternalError, "Internal error: %v", r)
}

// Middleware wraps a Dispatcher with cross-cutting behavior.
type Middleware func(Dispatcher) Dispatcher

// Chain composes middleware so the first listed runs outermost.
func Chain(d Dispatcher, middleware ...Middleware) Dispatcher {
	for i := len(middleware) - 1; i >= 0; i-- {
		d = middleware[i](d)
	}
	return d
}

type dispatcherFuncs struct {
	dispatch     func(ctx context.Context, method string, params json.RawMessage) (interface{}, error)
	notification func(ctx context.Context, method string, params json.RawMessage) error
}

func (d dispatcherFuncs) Dispatch(ctx context.Context, method string, params json.RawMessage) (interface{}, error) {
	return d.dispatch(ctx, method, params)
}

func (d dispatcherFuncs) DispatchNotification(ctx context.Context, method string, params json.RawMessage) error {
	return d.notification(ctx, method, params)
}

// LoggingMiddleware tags every dispatch with a fresh correlation id and
// logs its outcome and duration.
func LoggingMiddleware(logger logging.Logger) Middleware {
	return func(next Dispatcher) Dispatcher {
		return dispatcherFuncs{
			dispatch: func(ctx context.Context, method string, params json.RawMessage) (interface{}, error) {
				if logging.RequestIDFromContext(ctx) == "" {
					ctx = logging.ContextWithRequestID(ctx, uuid.New().String())
				}
				start := time.Now()
				result, err := next.Dispatch(ctx, method, params)
				entry := logger.WithContext(ctx)
				if err != nil {
					entry.WithError(err).Warn("dispatch",
						logging.String("method", method),
						logging.Duration("duration", time.Since(start)))
				} else {
					entry.Debug("dispatch",
						logging.String("method", method),
						logging.Duration("duration", time.Since(start)))
				}
				return result, err
			},
			notification: func(ctx context.Context, method string, params json.RawMessage) error {
				err := next.DispatchNotification(ctx, method, params)
				if err != nil {
					logger.WithContext(ctx).WithError(err).Debug("notification",
						logging.String("method", method))
				}
				return err
			},
		}
	}
}

// TracingMiddleware opens a span around every dispatched call.
func TracingMiddleware(tracer trace.Tracer) Middleware {
	return func(next Dispatcher) Dispatcher {
		return dispatcherFuncs{
			dispatch: func(ctx context.Context, method string, params json.RawMessage) (interface{}, error) {
				ctx, span := tracer.Start(ctx, "mcp.dispatch",
					trace.WithSpanKind(trace.SpanKindServer),
					trace.WithAttributes(
						attribute.String("rpc.system", "jsonrpc"),
						attribute.String("rpc.method", method),
					))
				defer span.End()

				result, err := next.Dispatch(ctx, method, params)
				if err != nil {
					span.RecordError(err)
					span.SetStatus(codes.Error, err.Error())
				} else {
					span.SetStatus(codes.Ok, "")
				}
				return result, err
			},
			notification: func(ctx context.Context, method string, params json.RawMessage) error {
				ctx, span := tracer.Start(ctx, "mcp.notification",
					trace.WithSpanKind(trace.SpanKindServer),
					trace.WithAttributes(
						attribute.String("rpc.system", "jsonrpc"),
						attribute.String("rpc.method", method),
					))
				defer span.End()

				err := next.DispatchNotification(ctx, method, params)
				if err != nil {
					span.RecordError(err)
					span.SetStatus(codes.Error, err.Error())
				}
				return err
			},
		}
	}
}

// RecoveryMiddleware converts handler panics into internal errors so a
// misbehaving tool cannot take the serving goroutine down.
func RecoveryMiddleware(logger logging.Logger) Middleware {
	return func(next Dispatcher) Dispatcher {
		return dispatcherFuncs{
			dispatch: func(ctx context.Context, method string, params json.RawMessage) (result interface{}, err error) {
				defer func() {
					if r := recover(); r != nil {
						logger.WithContext(ctx).Error("handler panic",
							logging.String("method", method),
							logging.Any("panic", r))
						result = nil
						err = panicError(r)
					}
				}()
				return next.Dispatch(ctx, method, params)
			},
			notification: func(ctx context.Context, method string, params json.RawMessage) (err error) {
				defer func() {
					if r := recover(); r != nil {
						logger.WithContext(ctx).Error("handler panic",
							logging.String("method", method),
							logging.Any("panic", r))
						err = panicError(r)
					}
				}()
				return next.DispatchNotification(ctx, method, params)
			},
		}
	}
}
