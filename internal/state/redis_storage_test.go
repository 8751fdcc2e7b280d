package state

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRedisStorage_SetAndGet(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	t.Cleanup(cleanup)

	storage := NewRedisStorage(client, testLogger(), time.Hour)

	ctx := context.Background()
	session := &Session{
		UserID:       123,
		CurrentState: StateMenuSpells,
		Cursor:       Cursor{ClassID: 1, Level: 3, Page: 2},
	}

	err := storage.SetSession(ctx, session.UserID, session)
	assert.NoError(t, err)

	result, err := storage.GetSession(ctx, session.UserID)
	assert.NoError(t, err)
	if assert.NotNil(t, result) {
		assert.Equal(t, session.UserID, result.UserID)
		assert.Equal(t, session.CurrentState, result.CurrentState)
		assert.Equal(t, session.Cursor, result.Cursor)
	}
}

func TestRedisStorage_GetNotFound(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	t.Cleanup(cleanup)

	storage := NewRedisStorage(client, testLogger(), time.Hour)

	session, err := storage.GetSession(context.Background(), 999)
	assert.Nil(t, session)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisStorage_CorruptRecordResumesIdle(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	t.Cleanup(cleanup)

	storage := NewRedisStorage(client, testLogger(), time.Hour)

	ctx := context.Background()
	err := client.Set(ctx, sessionKey(321), "{not json", time.Hour).Err()
	assert.NoError(t, err)

	session, err := storage.GetSession(ctx, 321)
	assert.Nil(t, session)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisStorage_ClearSession(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	t.Cleanup(cleanup)

	storage := NewRedisStorage(client, testLogger(), time.Hour)

	ctx := context.Background()
	session := &Session{
		UserID:       456,
		CurrentState: StateSettings,
	}

	err := storage.SetSession(ctx, session.UserID, session)
	assert.NoError(t, err)

	err = storage.ClearSession(ctx, session.UserID)
	assert.NoError(t, err)

	result, err := storage.GetSession(ctx, session.UserID)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
