package app

import (
	"testing"
	"time"

	"github.com/dkeye/VoiceRelay/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryLookupOnlyAuthenticated(t *testing.T) {
	reg := NewRegistry()
	anon := core.NewSession(3, nopConn{}, time.Now())
	alice := newUser(t, 1, "u1")
	bob := newUser(t, 2, "u2")
	reg.Bind(anon)
	reg.Bind(bob)
	reg.Bind(alice)

	_, ok := reg.Lookup(3)
	assert.False(t, ok)
	_, ok = reg.GetSession(3)
	assert.True(t, ok)

	assert.Equal(t, []*core.Session{alice, bob, anon}, reg.Connected())
	assert.Equal(t, []*core.Session{alice, bob}, reg.Users())
	assert.Equal(t, 3, reg.Len())
}

func TestRegistryUnbind(t *testing.T) {
	reg := NewRegistry()
	alice := newUser(t, 1, "u1")
	reg.Bind(alice)

	got, ok := reg.Unbind(1)
	require.True(t, ok)
	assert.Same(t, alice, got)

	_, ok = reg.Unbind(1)
	assert.False(t, ok)
	assert.Zero(t, reg.Len())
}

func TestSimplePolicyKicks(t *testing.T) {
	assert.Equal(t, KickMember, SimplePolicy{}.OnBackPressure(nil))
	assert.Equal(t, "kick", KickMember.String())
	assert.Equal(t, "drop", DropFrame.String())
	assert.Equal(t, "none", NoAction.String())
}
