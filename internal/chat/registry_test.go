package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryCreateTrimsName(t *testing.T) {
	r := NewRegistry()

	room, err := r.Create("  general ", "alice", testNow)
	require.NoError(t, err)
	assert.Equal(t, "general", room.Name)
	assert.Equal(t, "alice", room.Creator)
	assert.Equal(t, testNow, room.CreatedAt)
	assert.Zero(t, room.MemberCount)

	_, err = r.Create("general", "bob", testNow)
	assert.ErrorIs(t, err, ErrRoomExists)
	assert.Equal(t, 1, r.Len())
}

func TestRegistryCreateRejectsBlankNames(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"", "   ", "\t\n"} {
		_, err := r.Create(name, "alice", testNow)
		assert.ErrorIs(t, err, ErrInvalidName, "name %q", name)
	}
	assert.Zero(t, r.Len())
}

func TestRegistryNamesAreCaseSensitive(t *testing.T) {
	r := NewRegistry()
	_, err := r.Create("General", "alice", testNow)
	require.NoError(t, err)
	_, err = r.Create("general", "alice", testNow)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Len())
}

func TestRegistryDeleteOwnership(t *testing.T) {
	r := NewRegistry()
	_, err := r.Create("general", "alice", testNow)
	require.NoError(t, err)

	_, err = r.Delete("missing", "alice")
	assert.ErrorIs(t, err, ErrRoomNotFound)

	_, err = r.Delete("general", "bob")
	assert.ErrorIs(t, err, ErrNotOwner)
	assert.True(t, r.Exists("general"))

	m := NewMembership()
	m.Set("c1", "general")
	m.Set("c2", "general")
	r.RecomputeMemberCount("general", m)

	n, err := r.Delete("general", "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.False(t, r.Exists("general"))
}

func TestRegistryListAllSortedSnapshot(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		_, err := r.Create(name, "alice", testNow)
		require.NoError(t, err)
	}

	list := r.ListAll()
	require.Len(t, list, 3)
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, []string{list[0].Name, list[1].Name, list[2].Name})

	list[0].MemberCount = 99
	got, ok := r.Get("alpha")
	require.True(t, ok)
	assert.Zero(t, got.MemberCount, "ListAll must return copies")
}

func TestRegistryListAllEmptyIsNotNil(t *testing.T) {
	assert.NotNil(t, NewRegistry().ListAll())
}

func TestRegistryRecomputeMissingRoom(t *testing.T) {
	r := NewRegistry()
	m := NewMembership()
	m.Set("c1", "ghost")
	r.RecomputeMemberCount("ghost", m)
	assert.False(t, r.Exists("ghost"))
}
