// Package handlers contains the command and callback handlers of the bot.
package handlers

import (
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/veledan/spellbook-bot/internal/catalog"
	"github.com/veledan/spellbook-bot/internal/i18n"
	"github.com/veledan/spellbook-bot/internal/repository"
	"github.com/veledan/spellbook-bot/internal/state"
)

// Handler processes bot commands.
type Handler func(c telebot.Context) error

// CallbackHandler processes inline callback events.
type CallbackHandler func(c telebot.Context) error

// Middleware wraps handlers with additional behavior.
type Middleware func(Handler) Handler

// Env bundles the dependencies every handler needs.
type Env struct {
	FSM      state.Machine
	Users    repository.UserRepository
	Catalog  *catalog.Catalog
	Locales  *i18n.Manager
	Log      *slog.Logger
	PageSize int
}

// Translator picks the translator matching the sender's Telegram language.
func (e *Env) Translator(c telebot.Context) i18n.Translator {
	lang := ""
	if sender := c.Sender(); sender != nil {
		lang = sender.LanguageCode
	}
	return e.Locales.Translator(lang)
}

func respondCallback(c telebot.Context, text string, alert bool) error {
	if c.Callback() == nil {
		return nil
	}
	return c.Respond(&telebot.CallbackResponse{
		Text:      text,
		ShowAlert: alert,
	})
}
