package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mcpwire/mcpwire/pkg/logging"
)

// Manager maps opaque session keys to state machines, one machine per
// logical session. The manager itself is shared across transport
// goroutines and is locked internally; the machines it hands out are
// not, and each must be serialized by its owning transport.
//
// The manager never sweeps on its own: eviction of idle sessions is
// caller-driven, typically from the transport's accept loop.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*StateMachine
	config   Config
	logger   logging.Logger
}

// NewManager creates a session manager. All machines it creates share
// the given configuration.
func NewManager(config Config, logger logging.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		sessions: make(map[string]*StateMachine),
		config:   config,
		logger:   logger,
	}
}

// NewKey generates a fresh session key for transports that do not
// supply their own.
func (mgr *Manager) NewKey() string {
	return uuid.New().String()
}

// Get returns the machine for a session key, creating it on first use.
func (mgr *Manager) Get(key string) *StateMachine {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	if sm, ok := mgr.sessions[key]; ok {
		return sm
	}

	sm := NewStateMachine(mgr.config)
	mgr.sessions[key] = sm
	mgr.logger.Info("session created", logging.String("session_id", key))
	return sm
}

// Lookup returns the machine for a session key without creating one.
func (mgr *Manager) Lookup(key string) (*StateMachine, bool) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	sm, ok := mgr.sessions[key]
	return sm, ok
}

// Evict shuts down and removes one session. Returns false if the key
// was unknown.
func (mgr *Manager) Evict(key string) bool {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	sm, ok := mgr.sessions[key]
	if !ok {
		return false
	}
	sm.Transition(EventShutdown)
	delete(mgr.sessions, key)
	mgr.logger.Info("session evicted", logging.String("session_id", key))
	return true
}

// EvictIdle removes every session idle for longer than the given
// duration and returns how many were removed. Sessions that never saw
// traffic are measured from their state-entry time.
func (mgr *Manager) EvictIdle(olderThan time.Duration) int {
	now := time.Now()

	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	evicted := 0
	for key, sm := range mgr.sessions {
		info := sm.Info()
		idle := info.IdleSince(now)
		if idle == 0 {
			idle = now.Sub(sm.StateEnteredAt())
		}
		if idle > olderThan {
			sm.Transition(EventShutdown)
			delete(mgr.sessions, key)
			evicted++
			mgr.logger.Info("idle session evicted",
				logging.String("session_id", key),
				logging.Duration("idle", idle))
		}
	}
	return evicted
}

// Len returns the number of live sessions.
func (mgr *Manager) Len() int {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	return len(mgr.sessions)
}
