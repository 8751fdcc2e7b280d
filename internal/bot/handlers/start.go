package handlers

import (
	"context"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/veledan/spellbook-bot/internal/bot/views"
	apperrors "github.com/veledan/spellbook-bot/internal/errors"
)

// NewStartHandler returns the /start command handler. It ensures the user
// record exists and resets the session to idle, aborting any flow.
func NewStartHandler(env *Env) Handler {
	return func(c telebot.Context) error {
		if c.Sender() == nil {
			env.Log.Warn("start handler invoked without sender")
			return nil
		}

		ctx := context.Background()
		userID := c.Sender().ID
		t := env.Translator(c)

		if _, err := env.Users.GetUser(ctx, userID); err != nil {
			return apperrors.NewStoreError(err)
		}

		if err := env.FSM.Reset(ctx, userID); err != nil {
			env.Log.Error("failed to reset session", slog.Int64("user_id", userID), slog.Any("error", err))
		}

		text, markup := views.Start(t)
		return c.Send(text, markup, telebot.ModeHTML)
	}
}

// NewHelpHandler returns the /help command handler.
func NewHelpHandler(env *Env) Handler {
	return func(c telebot.Context) error {
		text, markup := views.Help(env.Translator(c))
		return c.Send(text, markup, telebot.ModeHTML)
	}
}

// NewCancelHandler aborts the current flow and returns the user to idle.
func NewCancelHandler(env *Env) Handler {
	return func(c telebot.Context) error {
		if c.Sender() == nil {
			env.Log.Warn("cancel handler invoked without sender")
			return nil
		}

		ctx := context.Background()
		userID := c.Sender().ID
		t := env.Translator(c)

		if err := env.FSM.Reset(ctx, userID); err != nil {
			env.Log.Error("failed to clear session", slog.Int64("user_id", userID), slog.Any("error", err))
			return c.Send(t.T("common.error"))
		}

		return c.Send(t.T("common.cancelled"))
	}
}

// NewInvalidInputHandler answers updates the current state does not accept.
// The session is left unchanged.
func NewInvalidInputHandler(env *Env) Handler {
	return func(c telebot.Context) error {
		t := env.Translator(c)
		if c.Callback() != nil {
			return respondCallback(c, t.T("common.use_menu"), false)
		}
		return c.Send(t.T("common.use_menu"))
	}
}
