package bot

import (
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/veledan/spellbook-bot/internal/bot/handlers"
	"github.com/veledan/spellbook-bot/internal/bot/views"
	"github.com/veledan/spellbook-bot/internal/catalog"
	apperrors "github.com/veledan/spellbook-bot/internal/errors"
	"github.com/veledan/spellbook-bot/internal/i18n"
	"github.com/veledan/spellbook-bot/internal/repository"
	"github.com/veledan/spellbook-bot/internal/state"
	"github.com/veledan/spellbook-bot/pkg/config"
)

// Bot wraps telebot.Bot with application dependencies required for handling updates.
type Bot struct {
	telebot    *telebot.Bot
	log        *slog.Logger
	cfg        *config.Config
	fsm        state.Machine
	router     *Router
	dispatcher *Dispatcher
	errHandler *apperrors.Handler
	env        *handlers.Env
}

// New builds a telegram bot instance configured according to the application settings.
func New(
	cfg *config.Config,
	log *slog.Logger,
	fsm state.Machine,
	users repository.UserRepository,
	cat *catalog.Catalog,
	locales *i18n.Manager,
) (*Bot, error) {
	settings := telebot.Settings{
		Token: cfg.Bot.Token,
		Poller: &telebot.LongPoller{
			Timeout: cfg.Bot.PollTimeout,
		},
	}

	tb, err := telebot.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("initialize telebot: %w", err)
	}

	dispatcher := NewDispatcher(fsm, log)
	router := NewRouter(dispatcher, fsm, log)
	errHandler := apperrors.NewHandler(log, cfg.Sentry.Enabled)

	env := &handlers.Env{
		FSM:      fsm,
		Users:    users,
		Catalog:  cat,
		Locales:  locales,
		Log:      log,
		PageSize: cfg.Menu.PageSize,
	}

	b := &Bot{
		telebot:    tb,
		log:        log,
		cfg:        cfg,
		fsm:        fsm,
		router:     router,
		dispatcher: dispatcher,
		errHandler: errHandler,
		env:        env,
	}

	b.setupRouter()
	b.registerTelebotHandlers()

	return b, nil
}

// Start runs the telegram bot event loop.
func (b *Bot) Start() {
	if b.telebot != nil {
		b.telebot.Start()
	}
}

// Stop gracefully stops the telegram bot.
func (b *Bot) Stop() {
	if b.telebot == nil {
		return
	}

	if b.log != nil {
		b.log.Info("stopping telegram bot...")
	}

	b.telebot.Stop()
}

// Telebot exposes the underlying telebot.Bot instance for integrations such as health checks.
func (b *Bot) Telebot() *telebot.Bot {
	return b.telebot
}

func (b *Bot) setupRouter() {
	if b.router == nil {
		return
	}

	b.router.Use(RecoveryMiddleware(b.log, b.errHandler))
	b.router.Use(ErrorHandlingMiddleware(b.errHandler))
	b.router.Use(LoggingMiddleware(b.log))
	b.router.Use(MetricsMiddleware())

	env := b.env

	b.router.RegisterCommand(CommandStart, handlers.NewStartHandler(env))
	b.router.RegisterCommand(CommandHelp, handlers.NewHelpHandler(env))
	b.router.RegisterCommand(CommandMenu, handlers.NewMenuHandler(env))
	b.router.RegisterCommand(CommandSpellbook, handlers.NewSpellbookHandler(env))
	b.router.RegisterCommand(CommandSettings, handlers.NewSettingsHandler(env))
	b.router.RegisterCommand(CommandCancel, handlers.NewCancelHandler(env))

	b.router.RegisterCallback(views.CallbackClass, handlers.HandleClassSelect(env))
	b.router.RegisterCallback(views.CallbackLevel, handlers.HandleLevelSelect(env))
	b.router.RegisterCallback(views.CallbackSpellPage, handlers.HandleSpellPage(env))
	b.router.RegisterCallback(views.CallbackSpellDetail, handlers.HandleSpellDetail(env))
	b.router.RegisterCallback(views.CallbackSpellAdd, handlers.HandleSpellAdd(env))
	b.router.RegisterCallback(views.CallbackBackToClasses, handlers.HandleBackToClasses(env))
	b.router.RegisterCallback(views.CallbackBackToLevels, handlers.HandleBackToLevels(env))
	b.router.RegisterCallback(views.CallbackBookNav, handlers.HandleBookNav(env))
	b.router.RegisterCallback(views.CallbackBookDelete, handlers.HandleBookDelete(env))
	b.router.RegisterCallback(views.CallbackBookConfirm, handlers.HandleBookConfirm(env))
	b.router.RegisterCallback(views.CallbackToggleBook, handlers.HandleToggleBook(env))
	b.router.RegisterCallback(views.CallbackSettingsDone, handlers.HandleSettingsDone(env))

	invalid := handlers.NewInvalidInputHandler(env)
	b.router.SetInvalidHandler(invalid)

	// Free text inside any screen gets the same nudge back to the menu.
	for _, s := range []state.State{
		state.StateIdle,
		state.StateMenuClass,
		state.StateMenuLevel,
		state.StateMenuSpells,
		state.StateSettings,
		state.StateSpellbook,
	} {
		b.dispatcher.RegisterStateHandler(s, invalid)
	}
}

func (b *Bot) registerTelebotHandlers() {
	if b.telebot == nil || b.router == nil {
		return
	}

	b.telebot.Handle(telebot.OnText, b.router.Route)
	b.telebot.Handle(telebot.OnCallback, b.router.Route)
}
