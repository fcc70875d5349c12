package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	u := sampleUser("T1")
	require.NoError(t, s.CreateUser(ctx, u))

	got, err := s.FindUserByID(ctx, u.ID)
	require.NoError(t, err)
	got.TeamMembers[0].Name = "mutated"

	again, err := s.FindUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lead", again.TeamMembers[0].Name)
}

func TestMemoryStore_SaveUserVersioning(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	u := sampleUser("T1")
	require.NoError(t, s.CreateUser(ctx, u))
	stale := u.Clone()

	require.NoError(t, s.SaveUser(ctx, u))
	assert.Equal(t, int64(2), u.Version)
	assert.ErrorIs(t, s.SaveUser(ctx, stale), ErrVersionConflict)

	require.NoError(t, s.DeleteUser(ctx, u.ID))
	assert.ErrorIs(t, s.SaveUser(ctx, u), ErrNotFound)
}

func TestMemoryStore_UniqueFields(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, sampleUser("T1")))
	other := sampleUser("T2")
	require.NoError(t, s.CreateUser(ctx, other))

	dup := sampleUser("T3")
	dup.Username = "T1-user"
	assert.ErrorIs(t, s.CreateUser(ctx, dup), ErrDuplicate)

	other.TeamName = "T1"
	assert.ErrorIs(t, s.SaveUser(ctx, other), ErrDuplicate)

	exists, err := s.ExistsUser(ctx, FieldTeamName, "T2")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = s.ExistsUser(ctx, FieldTeamName, "T9")
	require.NoError(t, err)
	assert.False(t, exists)
}
