package state

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var (
	// ErrInvalidTransition indicates that a requested FSM transition is not allowed.
	ErrInvalidTransition = errors.New("invalid state transition")
	// ErrSessionNotFound indicates that a user session record does not exist.
	ErrSessionNotFound = errors.New("user session not found")
)

var transitionRecorder = func(from, to string) {}

// RegisterTransitionRecorder allows external packages to observe FSM transitions.
func RegisterTransitionRecorder(recorder func(from, to string)) {
	if recorder == nil {
		transitionRecorder = func(string, string) {}
		return
	}

	transitionRecorder = recorder
}

// Machine describes the operations supported by the FSM controller.
type Machine interface {
	// Session returns the user's session, creating an idle one if absent.
	Session(ctx context.Context, userID int64) (*Session, error)
	// TransitionTo changes the state if the transition is allowed and
	// stores the new cursor alongside it.
	TransitionTo(ctx context.Context, userID int64, newState State, cursor Cursor) (*Session, error)
	// Reset puts the user back into the idle state, clearing the cursor.
	Reset(ctx context.Context, userID int64) error
	// Lock serializes update handling for one user. The returned func
	// releases the lock.
	Lock(userID int64) func()
}

// machine is a concrete Machine backed by Storage and per-user in-process
// locks. Updates for one user are applied in arrival order; users never
// block each other.
type machine struct {
	storage Storage
	log     *slog.Logger

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewMachine creates an FSM controller using the provided storage backend.
func NewMachine(storage Storage, log *slog.Logger) Machine {
	if log == nil {
		log = slog.Default()
	}

	return &machine{
		storage: storage,
		log:     log,
		locks:   make(map[int64]*sync.Mutex),
	}
}

// Session returns the stored session or a fresh idle one for unknown users.
// Unknown users never fail.
func (m *machine) Session(ctx context.Context, userID int64) (*Session, error) {
	session, err := m.storage.GetSession(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return NewIdleSession(userID), nil
		}
		return nil, err
	}

	return session, nil
}

func (m *machine) TransitionTo(ctx context.Context, userID int64, newState State, cursor Cursor) (*Session, error) {
	session, err := m.Session(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !IsTransitionAllowed(session.CurrentState, newState) {
		m.log.Warn("invalid state transition",
			slog.Int64("user_id", userID),
			slog.String("from", string(session.CurrentState)),
			slog.String("to", string(newState)))
		return nil, ErrInvalidTransition
	}

	transitionRecorder(string(session.CurrentState), string(newState))

	session.CurrentState = newState
	session.Cursor = cursor
	session.UpdatedAt = time.Now().UTC()

	if err := m.storage.SetSession(ctx, userID, session); err != nil {
		return nil, err
	}

	return session, nil
}

func (m *machine) Reset(ctx context.Context, userID int64) error {
	session, err := m.Session(ctx, userID)
	if err != nil {
		return err
	}

	transitionRecorder(string(session.CurrentState), string(StateIdle))

	return m.storage.ClearSession(ctx, userID)
}

// Lock returns after acquiring the user's mutex. Mutexes are never freed;
// their count is bounded by the active-user set.
func (m *machine) Lock(userID int64) func() {
	m.mu.Lock()
	lock, ok := m.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[userID] = lock
	}
	m.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
