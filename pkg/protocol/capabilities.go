package protocol

import (
	"encoding/json"

	protoerrors "github.com/mcpwire/mcpwire/pkg/errors"
)

// ServerCapabilities are the features a server may advertise.
type ServerCapabilities struct {
	Tools     bool `json:"tools"`
	Resources bool `json:"resources"`
	Prompts   bool `json:"prompts"`
	Logging   bool `json:"logging"`
}

// ClientCapabilities are the features a client may advertise.
type ClientCapabilities struct {
	Roots    bool `json:"roots"`
	Sampling bool `json:"sampling"`
}

// Capabilities holds both peers' flag sets. It is always present on a
// session (default-constructed to all-false), never absent. A feature
// is usable only when both sides declared support for it.
type Capabilities struct {
	Server ServerCapabilities `json:"server"`
	Client ClientCapabilities `json:"client"`
}

// DefaultCapabilities returns the server's starting flags. Feature
// flags begin false and flip on as providers are registered; logging is
// always on.
func DefaultCapabilities() Capabilities {
	return Capabilities{
		Server: ServerCapabilities{Logging: true},
	}
}

// Merge folds source into c. The merge rule is a per-flag logical OR: a
// capability becomes available if either side already grants it. This
// determines what a server advertises after its defaults are combined
// with an override set, so it is tested explicitly.
func (c *Capabilities) Merge(source Capabilities) {
	c.Server.Tools = c.Server.Tools || source.Server.Tools
	c.Server.Resources = c.Server.Resources || source.Server.Resources
	c.Server.Prompts = c.Server.Prompts || source.Server.Prompts
	c.Server.Logging = c.Server.Logging || source.Server.Logging

	c.Client.Roots = c.Client.Roots || source.Client.Roots
	c.Client.Sampling = c.Client.Sampling || source.Client.Sampling
}

// Advertisement renders the server flags in the MCP initialize-result
// wire form: each enabled feature appears as an object, disabled
// features are omitted entirely.
func (s ServerCapabilities) Advertisement() map[string]interface{} {
	adv := make(map[string]interface{})
	if s.Prompts {
		adv["prompts"] = map[string]bool{"listChanged": true}
	}
	if s.Resources {
		adv["resources"] = map[string]bool{"subscribe": false, "listChanged": true}
	}
	if s.Tools {
		adv["tools"] = map[string]bool{"listChanged": true}
	}
	if s.Logging {
		adv["logging"] = map[string]bool{}
	}
	return adv
}

// ParseClientCapabilities decodes the capability payload of an
// initialize request: roots support is signaled by roots.listChanged,
// sampling support by the presence of a sampling object.
func ParseClientCapabilities(raw json.RawMessage) (ClientCapabilities, error) {
	var caps ClientCapabilities
	if len(raw) == 0 {
		return caps, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return caps, protoerrors.NewInvalidParamsError("capabilities must be an object")
	}

	if rawRoots, ok := fields["roots"]; ok {
		var roots struct {
			ListChanged bool `json:"listChanged"`
		}
		if err := json.Unmarshal(rawRoots, &roots); err != nil {
			return caps, protoerrors.NewInvalidParamsError("capabilities.roots must be an object")
		}
		caps.Roots = roots.ListChanged
	}

	if rawSampling, ok := fields["sampling"]; ok {
		var sampling map[string]json.RawMessage
		if err := json.Unmarshal(rawSampling, &sampling); err != nil {
			return caps, protoerrors.NewInvalidParamsError("capabilities.sampling must be an object")
		}
		caps.Sampling = true
	}

	return caps, nil
}
