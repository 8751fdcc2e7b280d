package repository

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veledan/spellbook-bot/internal/domain"
)

func newTestRepo(t *testing.T) UserRepository {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo, err := NewUserRepository(filepath.Join(t.TempDir(), "test.db"), []int{1, 2}, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	return repo
}

func TestGetUser_CreatesDefaultForUnknownChat(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	user, err := repo.GetUser(ctx, 100)
	require.NoError(t, err)

	assert.Equal(t, int64(100), user.ChatID)
	assert.Equal(t, []int{1, 2}, user.Settings.BookFilter)
	assert.Empty(t, user.Spellbook)
	assert.False(t, user.CreatedAt.IsZero())

	// A second fetch returns the same record, not a fresh one.
	again, err := repo.GetUser(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)
	assert.Equal(t, user.CreatedAt, again.CreatedAt)
}

func TestAddSpell_Idempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.AddSpell(ctx, 200, 42))
	require.NoError(t, repo.AddSpell(ctx, 200, 42))
	require.NoError(t, repo.AddSpell(ctx, 200, 7))

	user, err := repo.GetUser(ctx, 200)
	require.NoError(t, err)
	assert.Equal(t, []int{42, 7}, user.Spellbook)
}

func TestAddRemoveSpell_RoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.AddSpell(ctx, 300, 1))
	require.NoError(t, repo.AddSpell(ctx, 300, 2))
	require.NoError(t, repo.AddSpell(ctx, 300, 3))

	require.NoError(t, repo.RemoveSpell(ctx, 300, 2))

	user, err := repo.GetUser(ctx, 300)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, user.Spellbook)

	// Removing a spell that is not saved is a no-op.
	require.NoError(t, repo.RemoveSpell(ctx, 300, 99))
	user, err = repo.GetUser(ctx, 300)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, user.Spellbook)
}

func TestAddSpell_IsolatedPerUser(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.AddSpell(ctx, 400, 5))
	require.NoError(t, repo.AddSpell(ctx, 401, 6))

	first, err := repo.GetUser(ctx, 400)
	require.NoError(t, err)
	second, err := repo.GetUser(ctx, 401)
	require.NoError(t, err)

	assert.Equal(t, []int{5}, first.Spellbook)
	assert.Equal(t, []int{6}, second.Spellbook)
}

func TestSaveSettings_RoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveSettings(ctx, 500, domain.Settings{BookFilter: []int{2, 3}}))

	user, err := repo.GetUser(ctx, 500)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, user.Settings.BookFilter)

	// Settings writes do not touch the spellbook.
	require.NoError(t, repo.AddSpell(ctx, 500, 10))
	require.NoError(t, repo.SaveSettings(ctx, 500, domain.Settings{BookFilter: []int{1}}))

	user, err = repo.GetUser(ctx, 500)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, user.Settings.BookFilter)
	assert.Equal(t, []int{10}, user.Spellbook)
}

func TestStoreFailure_SurfacesErrStoreUnavailable(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo, err := NewUserRepository(filepath.Join(t.TempDir(), "test.db"), []int{1}, log)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, repo.AddSpell(ctx, 600, 1))

	// Closing the handle makes every subsequent call fail like an outage.
	require.NoError(t, repo.Close())

	_, err = repo.GetUser(ctx, 600)
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	err = repo.AddSpell(ctx, 600, 2)
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	err = repo.SaveSettings(ctx, 600, domain.Settings{BookFilter: []int{1}})
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}
