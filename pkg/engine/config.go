package engine

import (
	"fmt"
	"time"

	"github.com/joeshaw/envdecode"

	"github.com/mcpwire/mcpwire/pkg/protocol"
	"github.com/mcpwire/mcpwire/pkg/session"
)

// Config carries everything the engine needs at construction time. The
// env tags allow a deployment to override any knob without code; see
// ConfigFromEnv.
type Config struct {
	// ServerName and ServerVersion identify this server during the
	// initialize handshake.
	ServerName    string `env:"MCP_SERVER_NAME,default=mcpwire"`
	ServerVersion string `env:"MCP_SERVER_VERSION,default=0.1.0"`

	// Instructions, when set, are returned verbatim in the initialize
	// result for the client to surface to its model.
	Instructions string `env:"MCP_INSTRUCTIONS"`

	// StrictMode selects strict envelope compliance and strict session
	// sequencing. Lenient deployments interoperate with noncompliant
	// peers at the cost of weaker guarantees.
	StrictMode bool `env:"MCP_STRICT_MODE,default=true"`

	// AllowExtensions permits unknown top-level envelope fields under
	// strict mode.
	AllowExtensions bool `env:"MCP_ALLOW_EXTENSIONS,default=true"`

	// MaxMessageSize is the per-message input ceiling in bytes.
	MaxMessageSize int `env:"MCP_MAX_MESSAGE_SIZE,default=1048576"`

	// MaxPendingRequests bounds in-flight requests per session.
	MaxPendingRequests int `env:"MCP_MAX_PENDING_REQUESTS,default=100"`

	// RequestTimeout bounds how long a dispatched handler may run.
	RequestTimeout time.Duration `env:"MCP_REQUEST_TIMEOUT,default=30s"`

	// Capabilities are merged over the defaults at handshake time.
	// These cannot come from the environment; set them in code.
	Capabilities protocol.Capabilities
}

// DefaultConfig returns the configuration most servers run with.
func DefaultConfig() Config {
	return Config{
		ServerName:         "mcpwire",
		ServerVersion:      "0.1.0",
		StrictMode:         true,
		AllowExtensions:    true,
		MaxMessageSize:     1024 * 1024,
		MaxPendingRequests: 100,
		RequestTimeout:     30 * time.Second,
		Capabilities:       protocol.DefaultCapabilities(),
	}
}

// ConfigFromEnv builds a configuration from MCP_* environment
// variables, falling back to the documented defaults for anything
// unset.
func ConfigFromEnv() (Config, error) {
	var config Config
	if err := envdecode.Decode(&config); err != nil {
		return Config{}, fmt.Errorf("failed to decode engine config from environment: %w", err)
	}
	config.Capabilities = protocol.DefaultCapabilities()
	return config, nil
}

// Validate rejects configurations the engine cannot run with.
func (c Config) Validate() error {
	if c.MaxMessageSize <= 0 {
		return fmt.Errorf("max message size must be positive, got %d", c.MaxMessageSize)
	}
	if c.MaxPendingRequests <= 0 {
		return fmt.Errorf("max pending requests must be positive, got %d", c.MaxPendingRequests)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout)
	}
	return nil
}

func (c Config) codecConfig() protocol.CodecConfig {
	return protocol.CodecConfig{
		StrictMode:      c.StrictMode,
		AllowExtensions: c.AllowExtensions,
		MaxMessageSize:  c.MaxMessageSize,
	}
}

func (c Config) sessionConfig() session.Config {
	return session.Config{
		StrictMode:         c.StrictMode,
		MaxPendingRequests: c.MaxPendingRequests,
		RequestTimeout:     c.RequestTimeout,
		ServerCapabilities: c.Capabilities,
		ServerInfo: protocol.ServerInfo{
			Name:    c.ServerName,
			Version: c.ServerVersion,
		},
	}
}
