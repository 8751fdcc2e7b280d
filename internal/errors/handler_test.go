package errors

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testHandler() *Handler {
	return NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), false)
}

func TestHandle_NilError(t *testing.T) {
	msg, retryable := testHandler().Handle(context.Background(), nil)
	assert.Empty(t, msg)
	assert.False(t, retryable)
}

func TestHandle_AppError(t *testing.T) {
	h := testHandler()

	msg, retryable := h.Handle(context.Background(), NewStoreError(stderrors.New("disk full")))
	assert.Equal(t, "A temporary problem occurred, nothing was saved. Please try again.", msg)
	assert.True(t, retryable)

	msg, retryable = h.Handle(context.Background(), NewSpellNotFoundError(42))
	assert.Equal(t, "Spell not found.", msg)
	assert.False(t, retryable)
}

func TestHandle_WrappedAppError(t *testing.T) {
	h := testHandler()

	cause := stderrors.New("boom")
	wrapped := NewCatalogError(cause)

	msg, retryable := h.Handle(context.Background(), wrapped)
	assert.Contains(t, msg, "compendium is unavailable")
	assert.False(t, retryable)
	assert.ErrorIs(t, wrapped, cause)
}

func TestHandle_UnknownError(t *testing.T) {
	msg, retryable := testHandler().Handle(context.Background(), stderrors.New("mystery"))
	assert.Equal(t, "Something went wrong. Please try again later.", msg)
	assert.False(t, retryable)
}
