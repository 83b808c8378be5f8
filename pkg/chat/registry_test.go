package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSession(id, identityID string) *Session {
	return &Session{
		ID:       id,
		Identity: Identity{ID: identityID},
	}
}

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry()

	r.Register(testSession("s1", "alice"))
	r.Register(testSession("s2", "alice"))
	r.Register(testSession("s3", "bob"))

	assert.Equal(t, 3, r.Count())
	assert.Len(t, r.Group("alice"), 2)
	assert.Len(t, r.Group("bob"), 1)
}

func TestRegistryGet(t *testing.T) {
	r := NewRegistry()
	r.Register(testSession("s1", "alice"))

	sess, ok := r.Get("s1")
	require.True(t, ok)
	assert.Equal(t, "alice", sess.Identity.ID)

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestRegistryUnregister(t *testing.T) {
	r := NewRegistry()
	r.Register(testSession("s1", "alice"))
	r.Register(testSession("s2", "alice"))

	t.Run("removes only the one session", func(t *testing.T) {
		removed, ok := r.Unregister("s1")
		require.True(t, ok)
		assert.Equal(t, "s1", removed.ID)

		assert.Equal(t, 1, r.Count())
		assert.Len(t, r.Group("alice"), 1)
	})

	t.Run("empty group disappears", func(t *testing.T) {
		_, ok := r.Unregister("s2")
		require.True(t, ok)
		assert.Empty(t, r.Group("alice"))
	})

	t.Run("unknown session", func(t *testing.T) {
		_, ok := r.Unregister("missing")
		assert.False(t, ok)
	})
}

func TestRegistryGroupIsolation(t *testing.T) {
	r := NewRegistry()
	r.Register(testSession("s1", "alice"))
	r.Register(testSession("s2", "bob"))

	group := r.Group("alice")
	require.Len(t, group, 1)
	assert.Equal(t, "s1", group[0].ID)

	assert.Empty(t, r.Group("carol"))
}

func TestRegistryListOnline(t *testing.T) {
	r := NewRegistry()
	r.Register(testSession("s1", "alice"))
	r.Register(testSession("s2", "bob"))

	roster := r.ListOnline()
	require.Len(t, roster, 2)

	seen := map[string]string{}
	for _, entry := range roster {
		seen[entry.SessionID] = entry.Identity.ID
	}
	assert.Equal(t, "alice", seen["s1"])
	assert.Equal(t, "bob", seen["s2"])
}
