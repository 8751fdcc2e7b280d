package handlers

import (
	"context"
	"errors"

	telebot "gopkg.in/telebot.v3"

	"github.com/veledan/spellbook-bot/internal/bot/views"
	apperrors "github.com/veledan/spellbook-bot/internal/errors"
	"github.com/veledan/spellbook-bot/internal/state"
)

// NewSettingsHandler returns the /settings command handler, showing the
// rulebook filter toggles.
func NewSettingsHandler(env *Env) Handler {
	return func(c telebot.Context) error {
		if c.Sender() == nil {
			return nil
		}

		ctx := context.Background()
		t := env.Translator(c)

		user, err := env.Users.GetUser(ctx, c.Sender().ID)
		if err != nil {
			return apperrors.NewStoreError(err)
		}

		if _, err := env.FSM.TransitionTo(ctx, c.Sender().ID, state.StateSettings, state.Cursor{}); err != nil {
			if errors.Is(err, state.ErrInvalidTransition) {
				return apperrors.NewInvalidInputError("settings not reachable from current state")
			}
			return err
		}

		text, markup := views.Settings(t, env.Catalog.Rulebooks(), user.Settings)
		return c.Send(text, markup, telebot.ModeHTML)
	}
}

// HandleToggleBook flips one rulebook in the user's filter and re-renders
// the toggles. The last enabled book cannot be removed.
func HandleToggleBook(env *Env) CallbackHandler {
	return func(c telebot.Context) error {
		ctx := context.Background()
		t := env.Translator(c)

		fields, err := callbackInts(c, 1)
		if err != nil {
			return apperrors.NewInvalidInputError(err.Error())
		}
		bookID := fields[0]

		if _, ok := rulebook(env, bookID); !ok {
			return apperrors.NewInvalidInputError("unknown rulebook toggled")
		}

		user, err := env.Users.GetUser(ctx, c.Sender().ID)
		if err != nil {
			return apperrors.NewStoreError(err)
		}

		settings := user.Settings
		if settings.HasBook(bookID) {
			if len(settings.BookFilter) == 1 {
				return respondCallback(c, t.T("settings.last_book"), true)
			}

			filtered := make([]int, 0, len(settings.BookFilter)-1)
			for _, id := range settings.BookFilter {
				if id != bookID {
					filtered = append(filtered, id)
				}
			}
			settings.BookFilter = filtered
		} else {
			settings.BookFilter = append(settings.BookFilter, bookID)
		}

		if err := env.Users.SaveSettings(ctx, c.Sender().ID, settings); err != nil {
			return apperrors.NewStoreError(err)
		}

		if _, err := env.FSM.TransitionTo(ctx, c.Sender().ID, state.StateSettings, state.Cursor{}); err != nil {
			return err
		}

		if err := respondCallback(c, "", false); err != nil {
			return err
		}

		_, markup := views.Settings(t, env.Catalog.Rulebooks(), settings)
		return c.Edit(markup)
	}
}

// HandleSettingsDone confirms the settings edit and returns to idle.
func HandleSettingsDone(env *Env) CallbackHandler {
	return func(c telebot.Context) error {
		ctx := context.Background()
		t := env.Translator(c)

		if err := env.FSM.Reset(ctx, c.Sender().ID); err != nil {
			return err
		}

		return respondCallback(c, t.T("settings.saved"), false)
	}
}
