package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCapabilities(t *testing.T) {
	caps := DefaultCapabilities()
	assert.True(t, caps.Server.Logging)
	assert.False(t, caps.Server.Tools)
	assert.False(t, caps.Server.Resources)
	assert.False(t, caps.Server.Prompts)
	assert.False(t, caps.Client.Roots)
	assert.False(t, caps.Client.Sampling)
}

func TestCapabilitiesMergeIsLogicalOr(t *testing.T) {
	tests := []struct {
		name   string
		base   Capabilities
		source Capabilities
		want   Capabilities
	}{
		{
			name:   "source enables",
			base:   Capabilities{},
			source: Capabilities{Server: ServerCapabilities{Tools: true}},
			want:   Capabilities{Server: ServerCapabilities{Tools: true}},
		},
		{
			name:   "base survives all-false source",
			base:   Capabilities{Server: ServerCapabilities{Resources: true}},
			source: Capabilities{},
			want:   Capabilities{Server: ServerCapabilities{Resources: true}},
		},
		{
			name:   "flags accumulate across both sides",
			base:   Capabilities{Server: ServerCapabilities{Tools: true}, Client: ClientCapabilities{Roots: true}},
			source: Capabilities{Server: ServerCapabilities{Logging: true}, Client: ClientCapabilities{Sampling: true}},
			want: Capabilities{
				Server: ServerCapabilities{Tools: true, Logging: true},
				Client: ClientCapabilities{Roots: true, Sampling: true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			merged := tt.base
			merged.Merge(tt.source)
			assert.Equal(t, tt.want, merged)
		})
	}
}

func TestAdvertisementOmitsDisabledFeatures(t *testing.T) {
	caps := ServerCapabilities{Tools: true, Logging: true}
	adv := caps.Advertisement()

	assert.Contains(t, adv, "tools")
	assert.Contains(t, adv, "logging")
	assert.NotContains(t, adv, "resources")
	assert.NotContains(t, adv, "prompts")
}

func TestParseClientCapabilities(t *testing.T) {
	caps, err := ParseClientCapabilities(json.RawMessage(`{
		"roots": {"listChanged": true},
		"sampling": {}
	}`))
	require.NoError(t, err)
	assert.True(t, caps.Roots)
	assert.True(t, caps.Sampling)

	caps, err = ParseClientCapabilities(nil)
	require.NoError(t, err)
	assert.False(t, caps.Roots)
	assert.False(t, caps.Sampling)

	_, err = ParseClientCapabilities(json.RawMessage(`"not an object"`))
	assert.Error(t, err)
}
