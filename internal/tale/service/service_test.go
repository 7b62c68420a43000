package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fabula/internal/bookmark"
	"fabula/internal/comment"
	"fabula/internal/tale"
	id "fabula/pkg/domain"
	dErrors "fabula/pkg/domain-errors"
)

type fixture struct {
	svc       *Service
	tales     *tale.InMemoryStore
	comments  *comment.InMemoryStore
	bookmarks *bookmark.InMemoryStore
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		tales:     tale.NewInMemoryStore(),
		comments:  comment.NewInMemoryStore(),
		bookmarks: bookmark.NewInMemoryStore(),
	}
	tx := NewMemoryTx(Stores{Tales: f.tales, Comments: f.comments, Bookmarks: f.bookmarks})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.svc = New(f.tales, tx, logger, opts...)
	return f
}

func (f *fixture) mustCreate(t *testing.T, title string) tale.Folktale {
	t.Helper()
	created, err := f.svc.Create(context.Background(), id.NewUserID(), CreateInput{Title: title, Body: "once upon a time"})
	require.NoError(t, err)
	return created
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, id.NewUserID(), CreateInput{Body: "no title"})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = f.svc.Create(ctx, id.NewUserID(), CreateInput{Title: "no body"})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestCreateAndGet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := id.NewUserID()

	created, err := f.svc.Create(ctx, actor, CreateInput{
		Title:  "Baba Yaga",
		Region: "Slavic",
		Body:   "deep in the forest",
		Tags:   []string{"witch", "forest"},
	})
	require.NoError(t, err)
	assert.Equal(t, actor, created.CreatedBy)
	assert.Equal(t, actor, created.UpdatedBy)

	got, err := f.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Baba Yaga", got.Title)
	assert.Equal(t, []string{"witch", "forest"}, got.Tags)

	_, err = f.svc.Get(ctx, id.NewTaleID())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.mustCreate(t, "Anansi")
	editor := id.NewUserID()

	updated, err := f.svc.Update(ctx, editor, created.ID, CreateInput{Title: "Anansi the Spider", Body: "retold"})
	require.NoError(t, err)
	assert.Equal(t, "Anansi the Spider", updated.Title)
	assert.Equal(t, created.CreatedBy, updated.CreatedBy)
	assert.Equal(t, editor, updated.UpdatedBy)

	_, err = f.svc.Update(ctx, editor, id.NewTaleID(), CreateInput{Title: "x", Body: "y"})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestRate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.mustCreate(t, "Momotaro")
	rater := id.NewUserID()

	t.Run("out of range", func(t *testing.T) {
		_, err := f.svc.Rate(ctx, rater, created.ID, 0)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		_, err = f.svc.Rate(ctx, rater, created.ID, 6)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("records and averages", func(t *testing.T) {
		rated, err := f.svc.Rate(ctx, rater, created.ID, 4)
		require.NoError(t, err)
		require.Len(t, rated.Ratings, 1)
		assert.InDelta(t, 4.0, rated.AverageRating(), 0.001)

		rated, err = f.svc.Rate(ctx, id.NewUserID(), created.ID, 2)
		require.NoError(t, err)
		assert.InDelta(t, 3.0, rated.AverageRating(), 0.001)
	})

	t.Run("second rating by same principal rejected", func(t *testing.T) {
		_, err := f.svc.Rate(ctx, rater, created.ID, 5)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeAlreadyRated))
	})

	t.Run("unknown tale", func(t *testing.T) {
		_, err := f.svc.Rate(ctx, rater, id.NewTaleID(), 3)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func TestDelete_CascadesDependents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.mustCreate(t, "The Juniper Tree")
	other := f.mustCreate(t, "Unrelated")

	var commenters []id.UserID
	for i := 0; i < 3; i++ {
		u := id.NewUserID()
		commenters = append(commenters, u)
		require.NoError(t, f.comments.Create(ctx, comment.Comment{
			ID: id.NewCommentID(), TaleID: created.ID, UserID: u, Body: "lovely",
		}))
		require.NoError(t, f.bookmarks.Add(ctx, bookmark.Bookmark{
			ID: id.NewBookmarkID(), TaleID: created.ID, UserID: u,
		}))
	}
	require.NoError(t, f.comments.Create(ctx, comment.Comment{
		ID: id.NewCommentID(), TaleID: other.ID, UserID: commenters[0], Body: "kept",
	}))

	require.NoError(t, f.svc.Delete(ctx, id.NewUserID(), created.ID))

	_, err := f.svc.Get(ctx, created.ID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	remaining, err := f.comments.ListByTale(ctx, created.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	for _, u := range commenters {
		marks, err := f.bookmarks.ListByUser(ctx, u)
		require.NoError(t, err)
		assert.Empty(t, marks)
	}

	// Dependents of other tales are untouched.
	kept, err := f.comments.ListByTale(ctx, other.ID)
	require.NoError(t, err)
	assert.Len(t, kept, 1)
}

func TestDelete_SecondCallReturnsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.mustCreate(t, "Twice Deleted")
	actor := id.NewUserID()

	require.NoError(t, f.svc.Delete(ctx, actor, created.ID))

	err := f.svc.Delete(ctx, actor, created.ID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

type failingCommentStore struct {
	comment.Store
}

func (failingCommentStore) DeleteByTale(context.Context, id.TaleID) (int64, error) {
	return 0, errors.New("simulated dependent-store fault")
}

func TestDelete_ParentSurvivesDependentFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.mustCreate(t, "Survivor")
	commenter := id.NewUserID()
	require.NoError(t, f.comments.Create(ctx, comment.Comment{
		ID: id.NewCommentID(), TaleID: created.ID, UserID: commenter, Body: "still here",
	}))

	// Rebind the transaction boundary with a comment store that always
	// fails its bulk delete.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tx := NewMemoryTx(Stores{
		Tales:     f.tales,
		Comments:  failingCommentStore{Store: f.comments},
		Bookmarks: f.bookmarks,
	})
	svc := New(f.tales, tx, logger)

	err := svc.Delete(ctx, id.NewUserID(), created.ID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))

	// The unit did not commit: the parent is still retrievable and its
	// comment survives alongside it.
	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Survivor", got.Title)

	comments, err := f.comments.ListByTale(ctx, created.ID)
	require.NoError(t, err)
	assert.Len(t, comments, 1)
}

type fakeCache struct {
	entries     map[id.TaleID]tale.Folktale
	invalidated []id.TaleID
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[id.TaleID]tale.Folktale)}
}

func (c *fakeCache) Find(_ context.Context, taleID id.TaleID) (tale.Folktale, error) {
	f, ok := c.entries[taleID]
	if !ok {
		return tale.Folktale{}, errors.New("miss")
	}
	return f, nil
}

func (c *fakeCache) Save(_ context.Context, f tale.Folktale) { c.entries[f.ID] = f }

func (c *fakeCache) Invalidate(_ context.Context, taleID id.TaleID) {
	delete(c.entries, taleID)
	c.invalidated = append(c.invalidated, taleID)
}

func TestGet_UsesCache(t *testing.T) {
	cache := newFakeCache()
	f := newFixture(t, WithCache(cache))
	ctx := context.Background()
	created := f.mustCreate(t, "Cached")

	got, err := f.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Contains(t, cache.entries, created.ID)

	// Remove from the backing store; the cached copy still serves.
	require.NoError(t, f.tales.Delete(ctx, created.ID))
	got, err = f.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cached", got.Title)
}

func TestDelete_InvalidatesCache(t *testing.T) {
	cache := newFakeCache()
	f := newFixture(t, WithCache(cache))
	ctx := context.Background()
	created := f.mustCreate(t, "Evicted")

	_, err := f.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Contains(t, cache.entries, created.ID)

	require.NoError(t, f.svc.Delete(ctx, id.NewUserID(), created.ID))
	assert.NotContains(t, cache.entries, created.ID)
	assert.Contains(t, cache.invalidated, created.ID)
}
