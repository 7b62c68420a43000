package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "fabula/pkg/domain"
)

func TestInMemoryStore_CreateAndFind(t *testing.T) {
	t.Parallel()
	store := NewInMemoryStore()
	ctx := context.Background()

	u := User{ID: id.NewUserID(), Name: "Aesop", PasswordHash: "hash"}
	require.NoError(t, store.Create(ctx, u))

	byID, err := store.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Aesop", byID.Name)
	assert.False(t, byID.CreatedAt.IsZero())

	byName, err := store.FindByName(ctx, "aesop")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.ID)
}

func TestInMemoryStore_DuplicateName(t *testing.T) {
	t.Parallel()
	store := NewInMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, User{ID: id.NewUserID(), Name: "Grimm"}))
	err := store.Create(ctx, User{ID: id.NewUserID(), Name: "grimm"})
	require.ErrorIs(t, err, ErrDuplicateName)
}

func TestInMemoryStore_FindMissing(t *testing.T) {
	t.Parallel()
	store := NewInMemoryStore()

	_, err := store.FindByID(context.Background(), id.NewUserID())
	require.ErrorIs(t, err, ErrNotFound)

	_, err = store.FindByName(context.Background(), "nobody")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestInMemoryStore_UpdateRename(t *testing.T) {
	t.Parallel()
	store := NewInMemoryStore()
	ctx := context.Background()

	u := User{ID: id.NewUserID(), Name: "Old"}
	require.NoError(t, store.Create(ctx, u))
	require.NoError(t, store.Create(ctx, User{ID: id.NewUserID(), Name: "Taken"}))

	u.Name = "Taken"
	require.ErrorIs(t, store.Update(ctx, u), ErrDuplicateName)

	u.Name = "New"
	require.NoError(t, store.Update(ctx, u))

	_, err := store.FindByName(ctx, "Old")
	require.ErrorIs(t, err, ErrNotFound)
	renamed, err := store.FindByName(ctx, "New")
	require.NoError(t, err)
	assert.Equal(t, u.ID, renamed.ID)
}

func TestInMemoryStore_Delete(t *testing.T) {
	t.Parallel()
	store := NewInMemoryStore()
	ctx := context.Background()

	u := User{ID: id.NewUserID(), Name: "Gone"}
	require.NoError(t, store.Create(ctx, u))
	require.NoError(t, store.Delete(ctx, u.ID))

	_, err := store.FindByID(ctx, u.ID)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, store.Delete(ctx, u.ID), ErrNotFound)
}
