package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerGetCreatesOnce(t *testing.T) {
	mgr := NewManager(DefaultConfig(), nil)

	key := mgr.NewKey()
	first := mgr.Get(key)
	second := mgr.Get(key)
	assert.Same(t, first, second)
	assert.Equal(t, 1, mgr.Len())

	other := mgr.Get(mgr.NewKey())
	assert.NotSame(t, first, other)
	assert.Equal(t, 2, mgr.Len())
}

func TestManagerNewKeyIsUnique(t *testing.T) {
	mgr := NewManager(DefaultConfig(), nil)
	assert.NotEqual(t, mgr.NewKey(), mgr.NewKey())
}

func TestManagerLookup(t *testing.T) {
	mgr := NewManager(DefaultConfig(), nil)

	_, ok := mgr.Lookup("missing")
	assert.False(t, ok)

	sm := mgr.Get("present")
	found, ok := mgr.Lookup("present")
	require.True(t, ok)
	assert.Same(t, sm, found)
}

func TestManagerEvict(t *testing.T) {
	mgr := NewManager(DefaultConfig(), nil)

	sm := mgr.Get("victim")
	assert.True(t, mgr.Evict("victim"))
	assert.Equal(t, StateShutdown, sm.Current())
	assert.Equal(t, 0, mgr.Len())

	assert.False(t, mgr.Evict("victim"))
}

func TestManagerEvictIdle(t *testing.T) {
	mgr := NewManager(DefaultConfig(), nil)
	mgr.Get("a")
	mgr.Get("b")

	// Nothing is older than an hour yet.
	assert.Equal(t, 0, mgr.EvictIdle(time.Hour))
	assert.Equal(t, 2, mgr.Len())

	// A negative threshold sweeps everything with any idle time at all.
	assert.Equal(t, 2, mgr.EvictIdle(-time.Nanosecond))
	assert.Equal(t, 0, mgr.Len())
}
