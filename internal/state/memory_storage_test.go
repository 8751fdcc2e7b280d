package state

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryStorage_SetAndGet(t *testing.T) {
	storage := NewMemoryStorage()
	ctx := context.Background()

	session := &Session{
		UserID:       1,
		CurrentState: StateMenuClass,
		Cursor:       Cursor{ClassID: 2},
	}

	err := storage.SetSession(ctx, session.UserID, session)
	assert.NoError(t, err)

	result, err := storage.GetSession(ctx, session.UserID)
	assert.NoError(t, err)
	if assert.NotNil(t, result) {
		assert.Equal(t, session.CurrentState, result.CurrentState)
		assert.Equal(t, session.Cursor, result.Cursor)
	}

	// Stored sessions are copies; mutating the original must not leak in.
	session.CurrentState = StateSettings
	result, err = storage.GetSession(ctx, session.UserID)
	assert.NoError(t, err)
	assert.Equal(t, StateMenuClass, result.CurrentState)
}

func TestMemoryStorage_GetNotFound(t *testing.T) {
	storage := NewMemoryStorage()

	session, err := storage.GetSession(context.Background(), 404)
	assert.Nil(t, session)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemoryStorage_ClearSession(t *testing.T) {
	storage := NewMemoryStorage()
	ctx := context.Background()

	err := storage.SetSession(ctx, 2, &Session{UserID: 2, CurrentState: StateSpellbook})
	assert.NoError(t, err)

	err = storage.ClearSession(ctx, 2)
	assert.NoError(t, err)

	_, err = storage.GetSession(ctx, 2)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemoryStorage_EvictIdle(t *testing.T) {
	storage := NewMemoryStorage()
	ctx := context.Background()

	assert.NoError(t, storage.SetSession(ctx, 1, &Session{UserID: 1, CurrentState: StateMenuClass}))
	assert.NoError(t, storage.SetSession(ctx, 2, &Session{UserID: 2, CurrentState: StateSettings}))

	// Age the first session past the TTL by hand.
	storage.mu.Lock()
	storage.sessions[1].UpdatedAt = time.Now().UTC().Add(-2 * time.Hour)
	storage.mu.Unlock()

	evicted := storage.EvictIdle(time.Hour)
	assert.Equal(t, 1, evicted)
	assert.Equal(t, 1, storage.Len())

	_, err := storage.GetSession(ctx, 1)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = storage.GetSession(ctx, 2)
	assert.NoError(t, err)
}
