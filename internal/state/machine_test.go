package state

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
)

var errStorageFailure = errors.New("storage error")

type mockStorage struct {
	mock.Mock
}

func (m *mockStorage) GetSession(ctx context.Context, userID int64) (*Session, error) {
	args := m.Called(ctx, userID)
	session, _ := args.Get(0).(*Session)
	return session, args.Error(1)
}

func (m *mockStorage) SetSession(ctx context.Context, userID int64, session *Session) error {
	args := m.Called(ctx, userID, session)
	return args.Error(0)
}

func (m *mockStorage) ClearSession(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func TestMachine_TransitionTo(t *testing.T) {
	ctx := context.Background()
	userID := int64(42)
	log := testLogger()

	testCases := []struct {
		name        string
		setupMocks  func(ms *mockStorage)
		newState    State
		expectedErr error
	}{
		{
			name: "successful transition",
			setupMocks: func(ms *mockStorage) {
				ms.On("GetSession", mock.Anything, userID).
					Return(&Session{UserID: userID, CurrentState: StateIdle}, nil).Once()
				ms.On("SetSession", mock.Anything, userID, mock.MatchedBy(func(session *Session) bool {
					return session.CurrentState == StateMenuClass
				})).Return(nil).Once()
			},
			newState:    StateMenuClass,
			expectedErr: nil,
		},
		{
			name: "invalid transition",
			setupMocks: func(ms *mockStorage) {
				ms.On("GetSession", mock.Anything, userID).
					Return(&Session{UserID: userID, CurrentState: StateIdle}, nil).Once()
			},
			newState:    StateMenuSpells,
			expectedErr: ErrInvalidTransition,
		},
		{
			name: "unknown user starts from idle",
			setupMocks: func(ms *mockStorage) {
				ms.On("GetSession", mock.Anything, userID).
					Return((*Session)(nil), ErrSessionNotFound).Once()
				ms.On("SetSession", mock.Anything, userID, mock.MatchedBy(func(session *Session) bool {
					return session.CurrentState == StateMenuClass
				})).Return(nil).Once()
			},
			newState:    StateMenuClass,
			expectedErr: nil,
		},
		{
			name: "storage write failure",
			setupMocks: func(ms *mockStorage) {
				ms.On("GetSession", mock.Anything, userID).
					Return(&Session{UserID: userID, CurrentState: StateIdle}, nil).Once()
				ms.On("SetSession", mock.Anything, userID, mock.Anything).
					Return(errStorageFailure).Once()
			},
			newState:    StateMenuClass,
			expectedErr: errStorageFailure,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			ms := &mockStorage{}
			tc.setupMocks(ms)

			fsm := NewMachine(ms, log)
			_, err := fsm.TransitionTo(ctx, userID, tc.newState, Cursor{})

			if tc.expectedErr != nil {
				if !errors.Is(err, tc.expectedErr) {
					t.Fatalf("expected error %v, got %v", tc.expectedErr, err)
				}
			} else if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			ms.AssertExpectations(t)
		})
	}
}

func TestMachine_TransitionToKeepsCursor(t *testing.T) {
	ctx := context.Background()
	userID := int64(7)
	ms := &mockStorage{}
	ms.On("GetSession", mock.Anything, userID).
		Return(&Session{UserID: userID, CurrentState: StateMenuLevel}, nil).Once()
	ms.On("SetSession", mock.Anything, userID, mock.MatchedBy(func(session *Session) bool {
		return session.Cursor.ClassID == 3 && session.Cursor.Level == 2 && session.Cursor.Page == 1
	})).Return(nil).Once()

	fsm := NewMachine(ms, testLogger())
	session, err := fsm.TransitionTo(ctx, userID, StateMenuSpells, Cursor{ClassID: 3, Level: 2, Page: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.CurrentState != StateMenuSpells {
		t.Fatalf("expected state %s, got %s", StateMenuSpells, session.CurrentState)
	}

	ms.AssertExpectations(t)
}

func TestMachine_SessionCreatesIdleForUnknownUser(t *testing.T) {
	ctx := context.Background()
	userID := int64(99)
	ms := &mockStorage{}
	ms.On("GetSession", mock.Anything, userID).
		Return((*Session)(nil), ErrSessionNotFound).Once()

	fsm := NewMachine(ms, testLogger())
	session, err := fsm.Session(ctx, userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.CurrentState != StateIdle {
		t.Fatalf("expected idle session, got %s", session.CurrentState)
	}
	if session.UserID != userID {
		t.Fatalf("expected user id %d, got %d", userID, session.UserID)
	}

	ms.AssertExpectations(t)
}

func TestMachine_SessionPropagatesStorageFailure(t *testing.T) {
	ctx := context.Background()
	ms := &mockStorage{}
	ms.On("GetSession", mock.Anything, int64(1)).
		Return((*Session)(nil), errStorageFailure).Once()

	fsm := NewMachine(ms, testLogger())
	if _, err := fsm.Session(ctx, 1); !errors.Is(err, errStorageFailure) {
		t.Fatalf("expected storage failure, got %v", err)
	}

	ms.AssertExpectations(t)
}

func TestMachine_Reset(t *testing.T) {
	ctx := context.Background()
	userID := int64(5)
	ms := &mockStorage{}
	ms.On("GetSession", mock.Anything, userID).
		Return(&Session{UserID: userID, CurrentState: StateMenuSpells}, nil).Once()
	ms.On("ClearSession", mock.Anything, userID).Return(nil).Once()

	fsm := NewMachine(ms, testLogger())
	if err := fsm.Reset(ctx, userID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ms.AssertExpectations(t)
}

func TestMachine_LockSerializesPerUser(t *testing.T) {
	fsm := NewMachine(NewMemoryStorage(), testLogger())

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup

	unlock := fsm.Lock(1)

	wg.Add(1)
	go func() {
		defer wg.Done()
		release := fsm.Lock(1)
		defer release()

		mu.Lock()
		order = append(order, 2)
		mu.Unlock()
	}()

	mu.Lock()
	order = append(order, 1)
	mu.Unlock()
	unlock()
	wg.Wait()

	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("expected serialized order [1 2], got %v", order)
	}
}

func setupTestRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cleanup := func() {
		_ = client.Close()
		mr.Close()
	}

	return client, cleanup
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
