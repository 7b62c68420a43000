package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fabula/internal/bookmark"
	"fabula/internal/tale"
	id "fabula/pkg/domain"
	dErrors "fabula/pkg/domain-errors"
)

func newTestService(t *testing.T) (*Service, *tale.InMemoryStore) {
	t.Helper()
	tales := tale.NewInMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(bookmark.NewInMemoryStore(), tales, logger), tales
}

func seedTale(t *testing.T, tales *tale.InMemoryStore) id.TaleID {
	t.Helper()
	f := tale.Folktale{ID: id.NewTaleID(), Title: "The Crane Wife", Body: "a tale"}
	require.NoError(t, tales.Create(context.Background(), f))
	return f.ID
}

func TestAddAndList(t *testing.T) {
	svc, tales := newTestService(t)
	ctx := context.Background()
	actor := id.NewUserID()
	first := seedTale(t, tales)
	second := seedTale(t, tales)

	_, err := svc.Add(ctx, actor, first)
	require.NoError(t, err)
	_, err = svc.Add(ctx, actor, second)
	require.NoError(t, err)

	marks, err := svc.List(ctx, actor)
	require.NoError(t, err)
	assert.Len(t, marks, 2)

	t.Run("duplicate rejected", func(t *testing.T) {
		_, err := svc.Add(ctx, actor, first)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeAlreadyBookmarked))
	})

	t.Run("unknown tale", func(t *testing.T) {
		_, err := svc.Add(ctx, actor, id.NewTaleID())
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func TestRemove(t *testing.T) {
	svc, tales := newTestService(t)
	ctx := context.Background()
	actor := id.NewUserID()
	taleID := seedTale(t, tales)

	_, err := svc.Add(ctx, actor, taleID)
	require.NoError(t, err)

	require.NoError(t, svc.Remove(ctx, actor, taleID))

	err = svc.Remove(ctx, actor, taleID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	marks, err := svc.List(ctx, actor)
	require.NoError(t, err)
	assert.Empty(t, marks)
}
