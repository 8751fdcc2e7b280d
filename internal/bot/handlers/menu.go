package handlers

import (
	"context"
	"errors"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/veledan/spellbook-bot/internal/bot/keyboard"
	"github.com/veledan/spellbook-bot/internal/bot/views"
	"github.com/veledan/spellbook-bot/internal/catalog"
	apperrors "github.com/veledan/spellbook-bot/internal/errors"
	"github.com/veledan/spellbook-bot/internal/state"
)

// NewMenuHandler returns the /menu command handler, opening the class
// picker.
func NewMenuHandler(env *Env) Handler {
	return func(c telebot.Context) error {
		if c.Sender() == nil {
			return nil
		}

		ctx := context.Background()
		t := env.Translator(c)

		if _, err := env.FSM.TransitionTo(ctx, c.Sender().ID, state.StateMenuClass, state.Cursor{}); err != nil {
			if errors.Is(err, state.ErrInvalidTransition) {
				return apperrors.NewInvalidInputError("menu not reachable from current state")
			}
			return err
		}

		text, markup := views.ClassList(t, env.Catalog.Classes())
		return c.Send(text, markup, telebot.ModeHTML)
	}
}

// HandleClassSelect reacts to a class button, showing its spell levels.
func HandleClassSelect(env *Env) CallbackHandler {
	return func(c telebot.Context) error {
		ctx := context.Background()
		t := env.Translator(c)

		fields, err := callbackInts(c, 1)
		if err != nil {
			return apperrors.NewInvalidInputError(err.Error())
		}

		cls, err := env.Catalog.Class(fields[0])
		if err != nil {
			// Stale button from before a catalog reload; re-show classes.
			_ = respondCallback(c, t.T("common.use_menu"), false)
			text, markup := views.ClassList(t, env.Catalog.Classes())
			return c.Edit(text, markup, telebot.ModeHTML)
		}

		if _, err := env.FSM.TransitionTo(ctx, c.Sender().ID, state.StateMenuLevel, state.Cursor{ClassID: cls.ID}); err != nil {
			return err
		}

		_ = respondCallback(c, "", false)
		text, markup := views.LevelList(t, cls)
		return c.Edit(text, markup, telebot.ModeHTML)
	}
}

// HandleLevelSelect reacts to a level button, listing spells of that level.
func HandleLevelSelect(env *Env) CallbackHandler {
	return func(c telebot.Context) error {
		fields, err := callbackInts(c, 2)
		if err != nil {
			return apperrors.NewInvalidInputError(err.Error())
		}

		return showSpellPage(env, c, fields[0], fields[1], 0)
	}
}

// HandleSpellPage reacts to pagination buttons on a spell list.
func HandleSpellPage(env *Env) CallbackHandler {
	return func(c telebot.Context) error {
		fields, err := callbackInts(c, 3)
		if err != nil {
			return apperrors.NewInvalidInputError(err.Error())
		}

		return showSpellPage(env, c, fields[0], fields[1], fields[2])
	}
}

// HandleBackToClasses returns from the level picker to the class picker.
func HandleBackToClasses(env *Env) CallbackHandler {
	return func(c telebot.Context) error {
		ctx := context.Background()
		t := env.Translator(c)

		if _, err := env.FSM.TransitionTo(ctx, c.Sender().ID, state.StateMenuClass, state.Cursor{}); err != nil {
			return err
		}

		_ = respondCallback(c, "", false)
		text, markup := views.ClassList(t, env.Catalog.Classes())
		return c.Edit(text, markup, telebot.ModeHTML)
	}
}

// HandleBackToLevels returns from a spell list to the level picker.
func HandleBackToLevels(env *Env) CallbackHandler {
	return func(c telebot.Context) error {
		ctx := context.Background()
		t := env.Translator(c)

		fields, err := callbackInts(c, 1)
		if err != nil {
			return apperrors.NewInvalidInputError(err.Error())
		}

		cls, err := env.Catalog.Class(fields[0])
		if err != nil {
			return apperrors.NewInvalidInputError(err.Error())
		}

		if _, err := env.FSM.TransitionTo(ctx, c.Sender().ID, state.StateMenuLevel, state.Cursor{ClassID: cls.ID}); err != nil {
			return err
		}

		_ = respondCallback(c, "", false)
		text, markup := views.LevelList(t, cls)
		return c.Edit(text, markup, telebot.ModeHTML)
	}
}

// HandleSpellDetail shows a spell's full description with an add button.
func HandleSpellDetail(env *Env) CallbackHandler {
	return func(c telebot.Context) error {
		ctx := context.Background()
		t := env.Translator(c)

		fields, err := callbackInts(c, 4)
		if err != nil {
			return apperrors.NewInvalidInputError(err.Error())
		}
		classID, level, page, spellID := fields[0], fields[1], fields[2], fields[3]

		sp, err := env.Catalog.Spell(spellID)
		if err != nil {
			if errors.Is(err, catalog.ErrSpellNotFound) {
				return respondCallback(c, t.T("spell.not_found"), true)
			}
			return err
		}

		cursor := state.Cursor{ClassID: classID, Level: level, Page: page}
		if _, err := env.FSM.TransitionTo(ctx, c.Sender().ID, state.StateMenuSpells, cursor); err != nil {
			return err
		}

		user, err := env.Users.GetUser(ctx, c.Sender().ID)
		if err != nil {
			return apperrors.NewStoreError(err)
		}

		book, _ := rulebook(env, sp.BookID)

		_ = respondCallback(c, "", false)
		text, markup := views.SpellDetail(t, sp, book, classID, level, page, user.HasSpell(sp.ID))
		return c.Edit(text, markup, telebot.ModeHTML)
	}
}

// HandleSpellAdd writes a spell into the user's spellbook. Adding a spell
// already present is a no-op, answered with a toast.
func HandleSpellAdd(env *Env) CallbackHandler {
	return func(c telebot.Context) error {
		ctx := context.Background()
		t := env.Translator(c)

		fields, err := callbackInts(c, 4)
		if err != nil {
			return apperrors.NewInvalidInputError(err.Error())
		}
		classID, level, page, spellID := fields[0], fields[1], fields[2], fields[3]

		// Never store an id the catalog does not know.
		sp, err := env.Catalog.Spell(spellID)
		if err != nil {
			return respondCallback(c, t.T("spell.not_found"), true)
		}

		user, err := env.Users.GetUser(ctx, c.Sender().ID)
		if err != nil {
			return apperrors.NewStoreError(err)
		}

		if user.HasSpell(spellID) {
			return respondCallback(c, t.T("spell.already_saved"), false)
		}

		if err := env.Users.AddSpell(ctx, c.Sender().ID, spellID); err != nil {
			return apperrors.NewStoreError(err)
		}

		if err := respondCallback(c, t.T("spell.added"), false); err != nil {
			return err
		}

		book, _ := rulebook(env, sp.BookID)
		text, markup := views.SpellDetail(t, sp, book, classID, level, page, true)
		return c.Edit(text, markup, telebot.ModeHTML)
	}
}

func showSpellPage(env *Env, c telebot.Context, classID, level, page int) error {
	ctx := context.Background()
	t := env.Translator(c)

	cls, err := env.Catalog.Class(classID)
	if err != nil {
		return apperrors.NewInvalidInputError(err.Error())
	}

	cursor := state.Cursor{ClassID: classID, Level: level, Page: page}
	if _, err := env.FSM.TransitionTo(ctx, c.Sender().ID, state.StateMenuSpells, cursor); err != nil {
		return err
	}

	user, err := env.Users.GetUser(ctx, c.Sender().ID)
	if err != nil {
		return apperrors.NewStoreError(err)
	}

	spells := env.Catalog.SpellsFor(classID, level, user.Settings.BookFilter)

	_ = respondCallback(c, "", false)
	text, markup := views.SpellList(t, cls, level, spells, page, env.PageSize)
	return c.Edit(text, markup, telebot.ModeHTML)
}

func rulebook(env *Env, bookID int) (catalog.Rulebook, bool) {
	for _, book := range env.Catalog.Rulebooks() {
		if book.ID == bookID {
			return book, true
		}
	}
	return catalog.Rulebook{}, false
}

func callbackInts(c telebot.Context, want int) ([]int, error) {
	data := ""
	if cb := c.Callback(); cb != nil {
		_, payload, err := keyboard.DecodeCallback(strings.TrimPrefix(cb.Data, "\f"))
		if err != nil {
			return nil, err
		}
		data = payload
	}

	return keyboard.DecodeInts(data, want)
}
