package bot

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	telebot "gopkg.in/telebot.v3"

	"github.com/veledan/spellbook-bot/internal/bot/handlers"
	"github.com/veledan/spellbook-bot/internal/bot/keyboard"
	"github.com/veledan/spellbook-bot/internal/bot/views"
	"github.com/veledan/spellbook-bot/internal/state"
)

// commandIntents maps bot commands to dispatch intents.
var commandIntents = map[string]state.Intent{
	CommandStart:     state.IntentStart,
	CommandHelp:      state.IntentHelp,
	CommandCancel:    state.IntentCancel,
	CommandMenu:      state.IntentMenu,
	CommandSpellbook: state.IntentSpellbook,
	CommandSettings:  state.IntentSettings,
}

// callbackIntents maps callback prefixes to dispatch intents.
var callbackIntents = map[string]state.Intent{
	views.CallbackClass:         state.IntentSelectClass,
	views.CallbackLevel:         state.IntentSelectLevel,
	views.CallbackSpellPage:     state.IntentSpellPage,
	views.CallbackSpellDetail:   state.IntentSpellDetail,
	views.CallbackSpellAdd:      state.IntentSpellAdd,
	views.CallbackBackToClasses: state.IntentBackToClass,
	views.CallbackBackToLevels:  state.IntentBackToLevel,
	views.CallbackBookNav:       state.IntentBookNav,
	views.CallbackBookDelete:    state.IntentBookDelete,
	views.CallbackBookConfirm:   state.IntentBookDelete,
	views.CallbackToggleBook:    state.IntentToggleBook,
	views.CallbackSettingsDone:  state.IntentSettingsDone,
}

// Router dispatches commands, callbacks, and state-aware updates. Every
// update is first classified into an intent and checked against the
// session's accepted set; rejected updates get the invalid-input handler
// and the session stays as it was.
type Router struct {
	mu             sync.RWMutex
	commands       map[string]handlers.Handler
	callbacks      map[string]handlers.CallbackHandler
	dispatcher     *Dispatcher
	invalidHandler handlers.Handler
	middlewares    []handlers.Middleware
	fsm            state.Machine
	log            *slog.Logger
}

// NewRouter builds a Router with empty registries.
func NewRouter(dispatcher *Dispatcher, fsm state.Machine, log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}

	return &Router{
		commands:    make(map[string]handlers.Handler),
		callbacks:   make(map[string]handlers.CallbackHandler),
		dispatcher:  dispatcher,
		middlewares: make([]handlers.Middleware, 0),
		fsm:         fsm,
		log:         log,
	}
}

// RegisterCommand registers a handler for a bot command.
func (r *Router) RegisterCommand(cmd string, h handlers.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[cmd] = h
}

// RegisterCallback registers a handler for a callback data prefix.
func (r *Router) RegisterCallback(prefix string, h handlers.CallbackHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks[prefix] = h
}

// Use appends a middleware to the chain.
func (r *Router) Use(mw handlers.Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middlewares = append(r.middlewares, mw)
}

// SetInvalidHandler sets the handler for updates outside the current
// state's accepted intent set.
func (r *Router) SetInvalidHandler(h handlers.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invalidHandler = h
}

// Route directs the incoming update to the appropriate handler. Updates from
// one user are serialized here: classification reads the session and handlers
// mutate it, so both must run inside the same per-user critical section or a
// rapid double-send could be classified against stale state.
func (r *Router) Route(c telebot.Context) error {
	if c == nil || c.Sender() == nil {
		r.log.Warn("cannot route update without sender information")
		return nil
	}

	if r.fsm != nil {
		unlock := r.fsm.Lock(c.Sender().ID)
		defer unlock()
	}

	intent := resolveIntent(c)

	// Free text is never part of a state's accepted set; the per-state
	// dispatcher decides how to nudge the user back to the menu.
	if intent == state.IntentFreeText && c.Callback() == nil {
		if r.dispatcher != nil {
			if handler := r.dispatcher.HandlerFor(c); handler != nil {
				return r.executeHandler(handler, c)
			}
		}
		return r.executeHandler(r.getInvalidHandler(), c)
	}

	if !r.intentAccepted(c, intent) {
		r.log.Info("update rejected by state",
			slog.Int64("user_id", c.Sender().ID),
			slog.String("intent", string(intent)))
		return r.executeHandler(r.getInvalidHandler(), c)
	}

	if callback := c.Callback(); callback != nil {
		return r.handleCallback(c, callback.Data)
	}

	return r.handleMessage(c)
}

func (r *Router) intentAccepted(c telebot.Context, intent state.Intent) bool {
	session, err := r.fsm.Session(context.Background(), c.Sender().ID)
	if err != nil {
		r.log.Error("failed to load session", slog.Any("error", err))
		return false
	}

	return state.Accepts(session.CurrentState, intent)
}

func (r *Router) handleCallback(c telebot.Context, data string) error {
	prefix, _, err := keyboard.DecodeCallback(strings.TrimPrefix(data, "\f"))
	if err != nil {
		return r.executeHandler(r.getInvalidHandler(), c)
	}

	handler := r.getCallbackHandler(prefix)
	if handler == nil {
		r.log.Info("no callback handler found", slog.String("prefix", prefix))
		return r.executeHandler(r.getInvalidHandler(), c)
	}

	return r.executeHandler(handlers.Handler(handler), c)
}

func (r *Router) handleMessage(c telebot.Context) error {
	text := c.Text()

	if strings.HasPrefix(text, "/") {
		if handler := r.getCommandHandler(commandName(text)); handler != nil {
			return r.executeHandler(handler, c)
		}
	}

	return r.executeHandler(r.getInvalidHandler(), c)
}

func (r *Router) executeHandler(h handlers.Handler, c telebot.Context) error {
	if h == nil {
		return nil
	}

	wrapped := h
	middlewares := r.middlewaresSnapshot()
	for i := len(middlewares) - 1; i >= 0; i-- {
		wrapped = middlewares[i](wrapped)
	}

	return wrapped(c)
}

func (r *Router) getCallbackHandler(prefix string) handlers.CallbackHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.callbacks[prefix]
}

func (r *Router) getCommandHandler(cmd string) handlers.Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.commands[cmd]
}

func (r *Router) getInvalidHandler() handlers.Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.invalidHandler
}

func (r *Router) middlewaresSnapshot() []handlers.Middleware {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.middlewares) == 0 {
		return nil
	}

	snapshot := make([]handlers.Middleware, len(r.middlewares))
	copy(snapshot, r.middlewares)
	return snapshot
}

// resolveIntent classifies the update. Unknown commands and callbacks fall
// through as free text, which no state accepts.
func resolveIntent(c telebot.Context) state.Intent {
	if cb := c.Callback(); cb != nil {
		prefix, _, err := keyboard.DecodeCallback(strings.TrimPrefix(cb.Data, "\f"))
		if err != nil {
			return state.IntentFreeText
		}
		if intent, ok := callbackIntents[prefix]; ok {
			return intent
		}
		return state.IntentFreeText
	}

	text := c.Text()
	if strings.HasPrefix(text, "/") {
		if intent, ok := commandIntents[commandName(text)]; ok {
			return intent
		}
	}

	return state.IntentFreeText
}

// commandName strips arguments and the @botname suffix.
func commandName(text string) string {
	cmd := strings.Fields(text)[0]
	if at := strings.Index(cmd, "@"); at != -1 {
		cmd = cmd[:at]
	}
	return cmd
}
