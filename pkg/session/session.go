package session

import (
	"time"

	"github.com/mcpwire/mcpwire/pkg/protocol"
)

// SessionInfo is the metadata negotiated for one session. It starts
// zero-valued, is populated during initialization, and is cleared on
// reset. Capabilities are always value-present: an un-negotiated
// session simply carries all-false flags.
type SessionInfo struct {
	ProtocolVersion string                `json:"protocolVersion,omitempty"`
	Capabilities    protocol.Capabilities `json:"capabilities"`
	ClientInfo      protocol.ClientInfo   `json:"clientInfo"`
	ServerInfo      protocol.ServerInfo   `json:"serverInfo"`
	InitializedAt   time.Time             `json:"initializedAt,omitempty"`
	LastActivity    time.Time             `json:"lastActivity,omitempty"`
}

// Negotiated reports whether initialization populated the session.
func (s SessionInfo) Negotiated() bool {
	return s.ProtocolVersion != ""
}

// IdleSince returns how long ago the session last saw traffic. A
// session with no recorded activity reports zero.
func (s *SessionInfo) IdleSince(now time.Time) time.Duration {
	if s.LastActivity.IsZero() {
		return 0
	}
	return now.Sub(s.LastActivity)
}
