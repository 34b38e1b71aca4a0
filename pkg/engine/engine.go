// Package engine ties the codec, the session lifecycle and the dispatch
// layer into a single entry point: raw bytes in, raw bytes out. The
// engine owns no transport; callers feed it one message (or batch) at a
// time together with an opaque session key and forward whatever bytes
// come back.
package engine

import (
	"context"
	"encoding/json"
	"time"

	"golang.org/x/sync/errgroup"

	protoerrors "github.com/mcpwire/mcpwire/pkg/errors"
	"github.com/mcpwire/mcpwire/pkg/logging"
	"github.com/mcpwire/mcpwire/pkg/observability"
	"github.com/mcpwire/mcpwire/pkg/protocol"
	"github.com/mcpwire/mcpwire/pkg/session"
)

// Engine is the protocol front door. It is safe for concurrent use
// across sessions; messages belonging to one session key must be fed
// sequentially, the way a byte stream naturally delivers them.
type Engine struct {
	config     Config
	codec      *protocol.Codec
	sessions   *session.Manager
	dispatcher Dispatcher
	logger     logging.Logger
	metrics    *observability.EngineMetrics
}

// Option customizes engine construction.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger logging.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithDispatcher sets the dispatcher consulted for non-lifecycle
// methods. Without one, every such method fails with method-not-found.
func WithDispatcher(d Dispatcher) Option {
	return func(e *Engine) { e.dispatcher = d }
}

// WithMetrics attaches a metrics sink.
func WithMetrics(m *observability.EngineMetrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// New creates an engine. A zero-value dispatcher slot is filled with an
// empty registry so dispatch is always defined.
func New(config Config, opts ...Option) *Engine {
	defaults := DefaultConfig()
	if config.MaxMessageSize <= 0 {
		config.MaxMessageSize = defaults.MaxMessageSize
	}
	if config.MaxPendingRequests <= 0 {
		config.MaxPendingRequests = defaults.MaxPendingRequests
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = defaults.RequestTimeout
	}
	e := &Engine{
		config: config,
		codec:  protocol.NewCodec(config.codecConfig()),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.dispatcher == nil {
		e.dispatcher = NewRegistry()
	}
	e.sessions = session.NewManager(config.sessionConfig(), e.logger)
	return e
}

// Codec exposes the engine's codec, mainly for transports that need to
// serialize server-initiated messages with the same compliance rules.
func (e *Engine) Codec() *protocol.Codec { return e.codec }

// Sessions exposes the session manager for eviction loops.
func (e *Engine) Sessions() *session.Manager { return e.sessions }

// HandleMessage processes one inbound message or batch for a session
// and returns the bytes to send back, or nil when nothing is owed (a
// notification, or a batch of only notifications). Protocol-level
// failures come back as error-response bytes, not as a Go error; the
// error return is reserved for faults the engine cannot express on the
// wire.
func (e *Engine) HandleMessage(ctx context.Context, sessionKey string, data []byte) ([]byte, error) {
	sm := e.sessions.Get(sessionKey)
	e.metrics.SetActiveSessions(e.sessions.Len())
	ctx = logging.ContextWithSessionID(ctx, sessionKey)

	if protocol.IsBatch(data) {
		return e.handleBatch(ctx, sm, data)
	}

	msg, err := e.codec.ParseMessage(data)
	if err != nil {
		e.metrics.RecordParseError()
		return e.errorBytes(protocol.NullID(), err)
	}
	e.metrics.RecordParse(msg.Kind())
	sm.TouchActivity()

	out := e.handleParsed(ctx, sm, msg)
	if out == nil {
		return nil, nil
	}
	return e.codec.SerializeMessage(out)
}

// handleParsed routes one decoded message and returns the reply
// message, or nil when the input owes no reply.
func (e *Engine) handleParsed(ctx context.Context, sm *session.StateMachine, msg protocol.Message) protocol.Message {
	switch m := msg.(type) {
	case *protocol.Request:
		return e.handleRequest(ctx, sm, m)
	case *protocol.Notification:
		e.handleNotification(ctx, sm, m)
		return nil
	default:
		// A response arriving at a server correlates to a request we
		// sent; the engine only keeps the session alive on it.
		if sm.CanHandleRequests() {
			e.transition(sm, session.EventResponse)
		}
		return nil
	}
}

// transition applies an event and mirrors successful transitions into
// the metrics sink.
func (e *Engine) transition(sm *session.StateMachine, event session.Event) bool {
	from := sm.Current()
	ok := sm.Transition(event)
	if ok {
		e.metrics.RecordTransition(from.String(), event.String())
	}
	return ok
}

func (e *Engine) handleRequest(ctx context.Context, sm *session.StateMachine, req *protocol.Request) protocol.Message {
	ctx = logging.ContextWithRequestID(ctx, req.ID.String())

	switch req.Method {
	case protocol.MethodInitialize:
		return e.handleInitialize(ctx, sm, req)
	case protocol.MethodPing:
		return e.handlePing(req)
	}

	if !sm.CanHandleRequests() {
		e.logger.WithContext(ctx).Warn("request before handshake completed",
			logging.String("method", req.Method),
			logging.String("state", sm.Current().String()))
		return e.errorMessage(req.ID, protoerrors.NewServerNotReadyError(sm.Current().String()))
	}

	e.transition(sm, session.EventRequest)
	return e.dispatchRequest(ctx, req)
}

// dispatchRequest calls the dispatcher and wraps the outcome. It never
// touches the state machine, so batch processing may run it
// concurrently.
func (e *Engine) dispatchRequest(ctx context.Context, req *protocol.Request) protocol.Message {
	ctx, cancel := context.WithTimeout(ctx, e.config.RequestTimeout)
	defer cancel()

	start := time.Now()
	result, err := e.dispatcher.Dispatch(ctx, req.Method, req.Params)
	e.metrics.RecordDispatch(req.Method, err == nil, time.Since(start))

	if err != nil {
		e.logger.WithContext(ctx).WithError(err).Warn("dispatch failed",
			logging.String("method", req.Method))
		return e.errorMessage(req.ID, err)
	}

	resp, err := protocol.NewResponse(req.ID, result)
	if err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("failed to encode result",
			logging.String("method", req.Method))
		return e.errorMessage(req.ID, protoerrors.NewInternalError(err))
	}
	return resp
}

func (e *Engine) handleInitialize(ctx context.Context, sm *session.StateMachine, req *protocol.Request) protocol.Message {
	var params protocol.InitializeParams
	if len(req.Params) == 0 {
		return e.errorMessage(req.ID, protoerrors.NewInvalidParamsError("initialize requires params"))
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return e.errorMessage(req.ID, protoerrors.NewInvalidParamsError(err.Error()))
	}

	if err := sm.InitializeSession(params.ProtocolVersion, params.Capabilities, params.ClientInfo); err != nil {
		e.logger.WithContext(ctx).WithError(err).Warn("initialization rejected",
			logging.String("requested_version", params.ProtocolVersion))
		e.metrics.RecordHandshake(false)
		return e.errorMessage(req.ID, err)
	}

	info := sm.Info()
	result := protocol.InitializeResult{
		ProtocolVersion: info.ProtocolVersion,
		Capabilities:    info.Capabilities.Server.Advertisement(),
		ServerInfo:      info.ServerInfo,
		Instructions:    e.config.Instructions,
	}

	resp, err := protocol.NewResponse(req.ID, result)
	if err != nil {
		return e.errorMessage(req.ID, protoerrors.NewInternalError(err))
	}

	// The response is about to leave; the machine advances to
	// initialized and now waits for the client's confirmation.
	e.transition(sm, session.EventInitializeResponse)
	e.metrics.RecordHandshake(true)
	e.logger.WithContext(ctx).Info("session initialized",
		logging.String("protocol_version", info.ProtocolVersion),
		logging.String("client", info.ClientInfo.Name))
	return resp
}

// handlePing answers in every session state. Liveness probing must not
// depend on handshake progress.
func (e *Engine) handlePing(req *protocol.Request) protocol.Message {
	var params protocol.PingParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return e.errorMessage(req.ID, protoerrors.NewInvalidParamsError(err.Error()))
		}
	}
	ts := params.Timestamp
	if ts == 0 {
		ts = time.Now().UnixMilli()
	}
	resp, err := protocol.NewResponse(req.ID, protocol.PingResult{Timestamp: ts})
	if err != nil {
		return e.errorMessage(req.ID, protoerrors.NewInternalError(err))
	}
	return resp
}

func (e *Engine) handleNotification(ctx context.Context, sm *session.StateMachine, n *protocol.Notification) {
	if n.Method == protocol.MethodInitialized {
		if err := sm.FinalizeInitialization(); err != nil {
			e.logger.WithContext(ctx).WithError(err).Warn("initialized notification out of sequence",
				logging.String("state", sm.Current().String()))
		}
		return
	}

	if !sm.CanHandleRequests() {
		e.logger.WithContext(ctx).Debug("notification dropped before handshake",
			logging.String("method", n.Method))
		return
	}

	e.transition(sm, session.EventNotification)
	if err := e.dispatcher.DispatchNotification(ctx, n.Method, n.Params); err != nil {
		// Notifications never get a reply; the failure is only logged.
		e.logger.WithContext(ctx).WithError(err).Debug("notification handler failed",
			logging.String("method", n.Method))
	}
}

// handleBatch processes an ordered batch. State machine interaction is
// sequential in batch order; only the dispatcher calls of already-gated
// requests fan out concurrently. Output positions mirror input
// positions for entries that owe a reply.
func (e *Engine) handleBatch(ctx context.Context, sm *session.StateMachine, data []byte) ([]byte, error) {
	entries, err := e.codec.ParseBatch(data)
	if err != nil {
		e.metrics.RecordParseError()
		return e.errorBytes(protocol.NullID(), err)
	}
	sm.TouchActivity()

	outputs := make([]protocol.Message, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.config.MaxPendingRequests)

	for i, entry := range entries {
		if entry.Err != nil {
			e.metrics.RecordParseError()
			outputs[i] = e.errorMessage(protocol.NullID(), entry.Err)
			continue
		}
		e.metrics.RecordParse(entry.Message.Kind())

		req, ok := entry.Message.(*protocol.Request)
		if !ok {
			e.handleParsed(gctx, sm, entry.Message)
			continue
		}

		// Lifecycle methods and gating touch the machine, so they stay
		// on this goroutine.
		switch req.Method {
		case protocol.MethodInitialize:
			outputs[i] = e.handleInitialize(gctx, sm, req)
			continue
		case protocol.MethodPing:
			outputs[i] = e.handlePing(req)
			continue
		}
		if !sm.CanHandleRequests() {
			outputs[i] = e.errorMessage(req.ID, protoerrors.NewServerNotReadyError(sm.Current().String()))
			continue
		}
		e.transition(sm, session.EventRequest)

		i, req := i, req
		g.Go(func() error {
			outputs[i] = e.dispatchRequest(gctx, req)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, protoerrors.NewInternalError(err)
	}

	replies := make([]protocol.Message, 0, len(outputs))
	for _, out := range outputs {
		if out != nil {
			replies = append(replies, out)
		}
	}
	if len(replies) == 0 {
		return nil, nil
	}
	return e.codec.SerializeBatch(replies)
}

// errorMessage wraps any error into an error response, preserving
// protocol codes and collapsing everything else to an internal error.
func (e *Engine) errorMessage(id protocol.RequestID, err error) protocol.Message {
	perr, ok := protoerrors.AsProtocolError(err)
	if !ok {
		perr = protoerrors.NewInternalError(err)
	}
	resp, rerr := protocol.NewErrorResponse(id, perr.Code(), perr.Message(), perr.Data())
	if rerr != nil {
		// The error data refused to marshal; drop it rather than the
		// whole response.
		resp, _ = protocol.NewErrorResponse(id, perr.Code(), perr.Message(), nil)
	}
	return resp
}

func (e *Engine) errorBytes(id protocol.RequestID, err error) ([]byte, error) {
	return e.codec.SerializeMessage(e.errorMessage(id, err))
}
