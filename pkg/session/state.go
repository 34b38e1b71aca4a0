// Package session implements the MCP session lifecycle: the handshake
// state machine that gates which message kinds may be processed, the
// negotiated session metadata, and a manager mapping opaque session
// keys to machine instances.
package session

import (
	"encoding/json"
	"time"

	protoerrors "github.com/mcpwire/mcpwire/pkg/errors"
	"github.com/mcpwire/mcpwire/pkg/protocol"
)

// State is a session lifecycle state.
type State int

const (
	// StateUninitialized is the starting state, waiting for initialize
	StateUninitialized State = iota
	// StateInitializing means initialize was received and is being processed
	StateInitializing
	// StateInitialized means the initialize response was sent, waiting
	// for the initialized notification
	StateInitialized
	// StateReady means the session can handle requests
	StateReady
	// StateError is the error state
	StateError
	// StateShutdown is terminal
	StateShutdown
)

// String returns the name of a state.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "UNINITIALIZED"
	case StateInitializing:
		return "INITIALIZING"
	case StateInitialized:
		return "INITIALIZED"
	case StateReady:
		return "READY"
	case StateError:
		return "ERROR"
	case StateShutdown:
		return "SHUTDOWN"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether no event can leave the state.
func (s State) Terminal() bool { return s == StateShutdown }

// Event is a protocol occurrence fed to the state machine.
type Event int

const (
	// EventInitializeRequest fires when the client sends initialize
	EventInitializeRequest Event = iota
	// EventInitializeResponse fires when the server answers initialize
	EventInitializeResponse
	// EventInitializedNotification fires on the client's initialized notification
	EventInitializedNotification
	// EventRequest fires on a regular request
	EventRequest
	// EventResponse fires on a received response
	EventResponse
	// EventNotification fires on a regular notification
	EventNotification
	// EventError fires when an error moves the session to the error state
	EventError
	// EventShutdown fires when shutdown is requested
	EventShutdown
)

// String returns the name of an event.
func (e Event) String() string {
	switch e {
	case EventInitializeRequest:
		return "INITIALIZE_REQUEST"
	case EventInitializeResponse:
		return "INITIALIZE_RESPONSE"
	case EventInitializedNotification:
		return "INITIALIZED_NOTIFICATION"
	case EventRequest:
		return "REQUEST"
	case EventResponse:
		return "RESPONSE"
	case EventNotification:
		return "NOTIFICATION"
	case EventError:
		return "ERROR"
	case EventShutdown:
		return "SHUTDOWN"
	default:
		return "UNKNOWN"
	}
}

type transitionKey struct {
	from  State
	event Event
}

// transitions is the full legality matrix. Anything absent from the
// table is illegal. The table keeps two properties auditable: every
// state reaches Shutdown, and every non-terminal state reaches Error.
var transitions = map[transitionKey]State{
	{StateUninitialized, EventInitializeRequest}: StateInitializing,

	{StateInitializing, EventInitializeResponse}: StateInitialized,

	{StateInitialized, EventInitializedNotification}: StateReady,

	{StateReady, EventRequest}:      StateReady,
	{StateReady, EventResponse}:     StateReady,
	{StateReady, EventNotification}: StateReady,

	// A failed session may be re-initialized without a reset.
	{StateError, EventInitializeRequest}: StateInitializing,

	{StateUninitialized, EventError}: StateError,
	{StateInitializing, EventError}:  StateError,
	{StateInitialized, EventError}:   StateError,
	{StateReady, EventError}:         StateError,
	{StateError, EventError}:         StateError,

	{StateUninitialized, EventShutdown}: StateShutdown,
	{StateInitializing, EventShutdown}:  StateShutdown,
	{StateInitialized, EventShutdown}:   StateShutdown,
	{StateReady, EventShutdown}:         StateShutdown,
	{StateError, EventShutdown}:         StateShutdown,
}

// Config carries the tunables of one state machine.
type Config struct {
	// StrictMode forces the machine into the error state on an illegal
	// transition; lenient mode leaves state unchanged.
	StrictMode bool

	// MaxPendingRequests is advisory: the surrounding transport
	// enforces it, the machine only carries it.
	MaxPendingRequests int

	// RequestTimeout is advisory: the machine schedules no timers, the
	// surrounding transport polls and acts on it.
	RequestTimeout time.Duration

	// ServerCapabilities are merged over the defaults during
	// initialization.
	ServerCapabilities protocol.Capabilities

	// ServerInfo identifies this server in the session metadata.
	ServerInfo protocol.ServerInfo

	// SupportedVersions overrides the protocol revisions accepted
	// during initialization. Empty means protocol.SupportedVersions.
	SupportedVersions []string
}

// DefaultConfig returns the configuration most servers run with.
func DefaultConfig() Config {
	return Config{
		StrictMode:         true,
		MaxPendingRequests: 100,
		RequestTimeout:     30 * time.Second,
		ServerCapabilities: protocol.DefaultCapabilities(),
	}
}

// StateMachine drives one session's lifecycle. It is emphatically not
// internally synchronized: exactly one instance exists per logical
// session and concurrent access must be serialized by the caller.
type StateMachine struct {
	config Config

	current  State
	previous State
	info     SessionInfo

	stateEnteredAt  time.Time
	transitionCount uint64

	lastErrorCode    int
	lastErrorMessage string
}

// NewStateMachine creates a machine in the uninitialized state.
// Immediately after construction, and only then, the previous state
// equals the current state.
func NewStateMachine(config Config) *StateMachine {
	if config.MaxPendingRequests <= 0 {
		config.MaxPendingRequests = DefaultConfig().MaxPendingRequests
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = DefaultConfig().RequestTimeout
	}
	return &StateMachine{
		config:         config,
		current:        StateUninitialized,
		previous:       StateUninitialized,
		stateEnteredAt: time.Now(),
	}
}

// Current returns the current state.
func (m *StateMachine) Current() State { return m.current }

// Previous returns the state before the last transition.
func (m *StateMachine) Previous() State { return m.previous }

// TransitionCount returns the number of successful transitions.
func (m *StateMachine) TransitionCount() uint64 { return m.transitionCount }

// StateEnteredAt returns when the current state was entered.
func (m *StateMachine) StateEnteredAt() time.Time { return m.stateEnteredAt }

// Config returns the machine's configuration.
func (m *StateMachine) Config() Config { return m.config }

// Info returns a copy of the session metadata.
func (m *StateMachine) Info() SessionInfo { return m.info }

// CanTransition evaluates the legality matrix without mutating
// anything.
func (m *StateMachine) CanTransition(event Event) bool {
	_, ok := transitions[transitionKey{m.current, event}]
	return ok
}

// Transition applies an event. On success it updates current/previous
// state, the entry timestamp, and the transition count. On an illegal
// event it returns false; under strict mode it additionally records a
// sequencing error and forces the machine into the error state, while
// lenient mode leaves the state untouched.
func (m *StateMachine) Transition(event Event) bool {
	next, ok := transitions[transitionKey{m.current, event}]
	if !ok {
		if m.config.StrictMode {
			m.setError(protoerrors.CodeInvalidSequence,
				"event "+event.String()+" not allowed in state "+m.current.String())
			if forced, legal := transitions[transitionKey{m.current, EventError}]; legal {
				m.apply(forced)
			}
		}
		return false
	}

	m.apply(next)
	m.info.LastActivity = time.Now()
	return true
}

func (m *StateMachine) apply(next State) {
	m.previous = m.current
	m.current = next
	m.stateEnteredAt = time.Now()
	m.transitionCount++
}

// CanHandleRequests is true only in the ready state.
func (m *StateMachine) CanHandleRequests() bool {
	return m.current == StateReady
}

// IsInitialized is true once the handshake response was sent, whether
// or not the peer has confirmed readiness yet.
func (m *StateMachine) IsInitialized() bool {
	return m.current == StateInitialized || m.current == StateReady
}

// InitializeSession negotiates the session from the uninitialized
// state: it validates the requested protocol version against the
// supported set, merges the configured server capabilities over the
// defaults, records the client's capabilities and identity, and fires
// the initialize-request event. On an unsupported version it returns a
// version-mismatch error and the state stays uninitialized.
func (m *StateMachine) InitializeSession(version string, clientCapabilities json.RawMessage, clientInfo *protocol.ClientInfo) error {
	if m.current != StateUninitialized && m.current != StateError {
		return protoerrors.NewInvalidSequenceError(EventInitializeRequest.String(), m.current.String())
	}

	supported := m.config.SupportedVersions
	if len(supported) == 0 {
		supported = protocol.SupportedVersions
	}
	if !versionSupported(version, supported) {
		err := protoerrors.NewVersionMismatchError(version, supported)
		m.setError(err.Code(), err.Message())
		return err
	}

	clientCaps, err := protocol.ParseClientCapabilities(clientCapabilities)
	if err != nil {
		m.setError(protoerrors.CodeInvalidParams, "malformed capability payload")
		return err
	}

	caps := protocol.DefaultCapabilities()
	caps.Merge(m.config.ServerCapabilities)
	caps.Client = clientCaps

	now := time.Now()
	m.info = SessionInfo{
		ProtocolVersion: version,
		Capabilities:    caps,
		ServerInfo:      m.config.ServerInfo,
		LastActivity:    now,
	}
	if clientInfo != nil {
		m.info.ClientInfo = *clientInfo
	}

	if !m.Transition(EventInitializeRequest) {
		return protoerrors.NewInvalidSequenceError(EventInitializeRequest.String(), m.current.String())
	}
	return nil
}

// FinalizeInitialization fires the initialized notification event and
// stamps the initialization time, completing the handshake.
func (m *StateMachine) FinalizeInitialization() error {
	if !m.Transition(EventInitializedNotification) {
		return protoerrors.NewInvalidSequenceError(EventInitializedNotification.String(), m.current.String())
	}
	m.info.InitializedAt = time.Now()
	return nil
}

// ResetSession unconditionally returns the machine to the
// uninitialized state and clears all session metadata. Used after a
// disconnect, independent of the current state.
func (m *StateMachine) ResetSession() {
	m.current = StateUninitialized
	m.previous = StateUninitialized
	m.stateEnteredAt = time.Now()
	m.transitionCount = 0
	m.info = SessionInfo{}
	m.ClearError()
}

// TouchActivity stamps the last-activity time. Transports call this on
// every message so idle eviction has something to compare against.
func (m *StateMachine) TouchActivity() {
	m.info.LastActivity = time.Now()
}

// SetError records an error pair without forcing a state change; the
// caller decides whether the surrounding event also fires EventError.
func (m *StateMachine) SetError(code int, message string) {
	m.setError(code, message)
}

func (m *StateMachine) setError(code int, message string) {
	m.lastErrorCode = code
	m.lastErrorMessage = message
}

// ClearError resets both error fields.
func (m *StateMachine) ClearError() {
	m.lastErrorCode = 0
	m.lastErrorMessage = ""
}

// HasError reports whether an error is recorded.
func (m *StateMachine) HasError() bool {
	return m.lastErrorCode != 0
}

// LastError returns the recorded error pair.
func (m *StateMachine) LastError() (int, string) {
	return m.lastErrorCode, m.lastErrorMessage
}

func versionSupported(version string, supported []string) bool {
	for _, v := range supported {
		if v == version {
			return true
		}
	}
	return false
}
