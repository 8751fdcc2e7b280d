package handlers

import (
	"context"
	"errors"

	telebot "gopkg.in/telebot.v3"

	"github.com/veledan/spellbook-bot/internal/bot/views"
	"github.com/veledan/spellbook-bot/internal/catalog"
	apperrors "github.com/veledan/spellbook-bot/internal/errors"
	"github.com/veledan/spellbook-bot/internal/state"
)

// NewSpellbookHandler returns the /spellbook command handler, showing the
// first saved spell. An empty spellbook is not an error; the user gets a
// hint and stays idle.
func NewSpellbookHandler(env *Env) Handler {
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

		if len(user.Spellbook) == 0 {
			text, markup := views.SpellbookEmpty(t)
			return c.Send(text, markup, telebot.ModeHTML)
		}

		if _, err := env.FSM.TransitionTo(ctx, c.Sender().ID, state.StateSpellbook, state.Cursor{}); err != nil {
			if errors.Is(err, state.ErrInvalidTransition) {
				return apperrors.NewInvalidInputError("spellbook not reachable from current state")
			}
			return err
		}

		text, markup, err := spellbookEntry(env, c, user.Spellbook, 0, false)
		if err != nil {
			return err
		}
		return c.Send(text, markup, telebot.ModeHTML)
	}
}

// HandleBookNav pages through saved spells.
func HandleBookNav(env *Env) CallbackHandler {
	return func(c telebot.Context) error {
		ctx := context.Background()
		t := env.Translator(c)

		fields, err := callbackInts(c, 1)
		if err != nil {
			return apperrors.NewInvalidInputError(err.Error())
		}

		user, err := env.Users.GetUser(ctx, c.Sender().ID)
		if err != nil {
			return apperrors.NewStoreError(err)
		}

		// Stale prev/next buttons can outlive the last saved spell.
		if len(user.Spellbook) == 0 {
			text, markup := views.SpellbookEmpty(t)
			return c.Edit(text, markup, telebot.ModeHTML)
		}

		index := clampIndex(fields[0], len(user.Spellbook))
		if _, err := env.FSM.TransitionTo(ctx, c.Sender().ID, state.StateSpellbook, state.Cursor{BookIndex: index}); err != nil {
			return err
		}

		_ = respondCallback(c, "", false)
		text, markup, err := spellbookEntry(env, c, user.Spellbook, index, false)
		if err != nil {
			return err
		}
		return c.Edit(text, markup, telebot.ModeHTML)
	}
}

// HandleBookDelete shows the two-step erase confirmation.
func HandleBookDelete(env *Env) CallbackHandler {
	return func(c telebot.Context) error {
		ctx := context.Background()
		t := env.Translator(c)

		fields, err := callbackInts(c, 1)
		if err != nil {
			return apperrors.NewInvalidInputError(err.Error())
		}

		user, err := env.Users.GetUser(ctx, c.Sender().ID)
		if err != nil {
			return apperrors.NewStoreError(err)
		}

		index := clampIndex(fields[0], len(user.Spellbook))
		if len(user.Spellbook) == 0 {
			text, markup := views.SpellbookEmpty(t)
			return c.Edit(text, markup, telebot.ModeHTML)
		}

		_ = respondCallback(c, t.T("spellbook.delete_prompt"), false)
		text, markup, err := spellbookEntry(env, c, user.Spellbook, index, true)
		if err != nil {
			return err
		}
		return c.Edit(text, markup, telebot.ModeHTML)
	}
}

// HandleBookConfirm erases the saved spell at the index and shows the
// previous entry, or the empty notice when the book ran out.
func HandleBookConfirm(env *Env) CallbackHandler {
	return func(c telebot.Context) error {
		ctx := context.Background()
		t := env.Translator(c)

		fields, err := callbackInts(c, 1)
		if err != nil {
			return apperrors.NewInvalidInputError(err.Error())
		}

		user, err := env.Users.GetUser(ctx, c.Sender().ID)
		if err != nil {
			return apperrors.NewStoreError(err)
		}

		if len(user.Spellbook) == 0 {
			text, markup := views.SpellbookEmpty(t)
			return c.Edit(text, markup, telebot.ModeHTML)
		}

		index := clampIndex(fields[0], len(user.Spellbook))
		spellID := user.Spellbook[index]

		if err := env.Users.RemoveSpell(ctx, c.Sender().ID, spellID); err != nil {
			return apperrors.NewStoreError(err)
		}

		if err := respondCallback(c, t.T("spellbook.deleted"), false); err != nil {
			return err
		}

		remaining := make([]int, 0, len(user.Spellbook)-1)
		for _, id := range user.Spellbook {
			if id != spellID {
				remaining = append(remaining, id)
			}
		}

		if len(remaining) == 0 {
			if err := env.FSM.Reset(ctx, c.Sender().ID); err != nil {
				env.Log.Error("failed to reset session", "error", err)
			}
			text, markup := views.SpellbookEmpty(t)
			return c.Edit(text, markup, telebot.ModeHTML)
		}

		index = clampIndex(index-1, len(remaining))
		if _, err := env.FSM.TransitionTo(ctx, c.Sender().ID, state.StateSpellbook, state.Cursor{BookIndex: index}); err != nil {
			return err
		}

		text, markup, err := spellbookEntry(env, c, remaining, index, false)
		if err != nil {
			return err
		}
		return c.Edit(text, markup, telebot.ModeHTML)
	}
}

func spellbookEntry(env *Env, c telebot.Context, spellbook []int, index int, confirmDelete bool) (string, *telebot.ReplyMarkup, error) {
	t := env.Translator(c)

	sp, err := env.Catalog.Spell(spellbook[index])
	if err != nil {
		if errors.Is(err, catalog.ErrSpellNotFound) {
			// The catalog lost this id on a reload; keep the record but
			// tell the user instead of crashing the view.
			return t.T("spell.not_found"), nil, nil
		}
		return "", nil, err
	}

	book, _ := rulebook(env, sp.BookID)
	text, markup := views.SpellbookEntry(t, sp, book, index, len(spellbook), confirmDelete)
	return text, markup, nil
}

func clampIndex(index, length int) int {
	if index < 0 {
		return 0
	}
	if length > 0 && index > length-1 {
		return length - 1
	}
	return index
}
