package bot

import (
	"context"
	"log/slog"
	"sync"

	telebot "gopkg.in/telebot.v3"

	"github.com/veledan/spellbook-bot/internal/bot/handlers"
	"github.com/veledan/spellbook-bot/internal/state"
)

// Dispatcher routes free-text updates to state-specific handlers, so each
// conversational state can answer plain messages its own way.
type Dispatcher struct {
	fsm           state.Machine
	stateHandlers map[state.State]handlers.Handler
	log           *slog.Logger
	mu            sync.RWMutex
}

// NewDispatcher creates a Dispatcher with an empty handlers registry.
func NewDispatcher(fsm state.Machine, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}

	return &Dispatcher{
		fsm:           fsm,
		stateHandlers: make(map[state.State]handlers.Handler),
		log:           log,
	}
}

// RegisterStateHandler registers a handler for the provided state.
func (d *Dispatcher) RegisterStateHandler(s state.State, h handlers.Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stateHandlers[s] = h
}

// HandlerFor resolves the handler registered for the user's current state,
// or nil if none is registered.
func (d *Dispatcher) HandlerFor(c telebot.Context) handlers.Handler {
	if c == nil || c.Sender() == nil {
		return nil
	}

	session, err := d.fsm.Session(context.Background(), c.Sender().ID)
	if err != nil {
		d.log.Error("failed to load session for dispatch", slog.Any("error", err))
		return nil
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.stateHandlers[session.CurrentState]
}
