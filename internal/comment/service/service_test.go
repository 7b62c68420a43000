package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fabula/internal/comment"
	"fabula/internal/tale"
	id "fabula/pkg/domain"
	dErrors "fabula/pkg/domain-errors"
)

func newTestService(t *testing.T) (*Service, *tale.InMemoryStore) {
	t.Helper()
	tales := tale.NewInMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(comment.NewInMemoryStore(), tales, logger, nil), tales
}

func seedTale(t *testing.T, tales *tale.InMemoryStore) id.TaleID {
	t.Helper()
	f := tale.Folktale{ID: id.NewTaleID(), Title: "The Fox", Body: "a fable"}
	require.NoError(t, tales.Create(context.Background(), f))
	return f.ID
}

func TestAdd(t *testing.T) {
	svc, tales := newTestService(t)
	ctx := context.Background()
	taleID := seedTale(t, tales)
	author := id.NewUserID()

	t.Run("success", func(t *testing.T) {
		c, err := svc.Add(ctx, author, taleID, "a fine fable")
		require.NoError(t, err)
		assert.Equal(t, author, c.UserID)
		assert.Equal(t, taleID, c.TaleID)
	})

	t.Run("second comment by same principal rejected", func(t *testing.T) {
		_, err := svc.Add(ctx, author, taleID, "again")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeAlreadyCommented))
	})

	t.Run("empty body", func(t *testing.T) {
		_, err := svc.Add(ctx, id.NewUserID(), taleID, "")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("unknown tale", func(t *testing.T) {
		_, err := svc.Add(ctx, id.NewUserID(), id.NewTaleID(), "orphan")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func TestUpdate_AuthorOnly(t *testing.T) {
	svc, tales := newTestService(t)
	ctx := context.Background()
	taleID := seedTale(t, tales)
	author := id.NewUserID()

	c, err := svc.Add(ctx, author, taleID, "original")
	require.NoError(t, err)

	updated, err := svc.Update(ctx, author, c.ID, "revised")
	require.NoError(t, err)
	assert.Equal(t, "revised", updated.Body)

	_, err = svc.Update(ctx, id.NewUserID(), c.ID, "hijacked")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))

	_, err = svc.Update(ctx, author, id.NewCommentID(), "gone")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestRemove(t *testing.T) {
	svc, tales := newTestService(t)
	ctx := context.Background()
	taleID := seedTale(t, tales)
	author := id.NewUserID()

	t.Run("author may remove their own", func(t *testing.T) {
		c, err := svc.Add(ctx, author, taleID, "mine")
		require.NoError(t, err)
		require.NoError(t, svc.Remove(ctx, author, false, c.ID))

		err = svc.Remove(ctx, author, false, c.ID)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("non-author without admin is rejected", func(t *testing.T) {
		c, err := svc.Add(ctx, author, taleID, "mine again")
		require.NoError(t, err)

		err = svc.Remove(ctx, id.NewUserID(), false, c.ID)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))

		require.NoError(t, svc.Remove(ctx, id.NewUserID(), true, c.ID))
	})
}

func TestListByTale(t *testing.T) {
	svc, tales := newTestService(t)
	ctx := context.Background()
	taleID := seedTale(t, tales)

	_, err := svc.Add(ctx, id.NewUserID(), taleID, "first")
	require.NoError(t, err)
	_, err = svc.Add(ctx, id.NewUserID(), taleID, "second")
	require.NoError(t, err)

	comments, err := svc.ListByTale(ctx, taleID)
	require.NoError(t, err)
	assert.Len(t, comments, 2)

	// A tale that never existed lists as empty, not as an error.
	comments, err = svc.ListByTale(ctx, id.NewTaleID())
	require.NoError(t, err)
	assert.Empty(t, comments)
}
