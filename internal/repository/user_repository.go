// Package repository persists per-user records in an embedded SQLite
// database.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/veledan/spellbook-bot/internal/domain"
)

// ErrStoreUnavailable indicates the backing database rejected a read or
// write. Mutations failing with it are dropped whole, never half-applied.
var ErrStoreUnavailable = errors.New("store unavailable")

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	chat_id    INTEGER NOT NULL UNIQUE,
	settings   TEXT NOT NULL DEFAULT '{}',
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_users_chat_id ON users(chat_id);

CREATE TABLE IF NOT EXISTS saved_spells (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id  INTEGER NOT NULL REFERENCES users(id),
	spell_id INTEGER NOT NULL,
	UNIQUE (user_id, spell_id)
);
CREATE INDEX IF NOT EXISTS idx_saved_spells_user ON saved_spells(user_id);
`

// UserRepository defines persistence operations for users.
type UserRepository interface {
	// GetUser returns the record for the chat id, creating a default one
	// for unknown users. Never fails on an unknown id.
	GetUser(ctx context.Context, chatID int64) (*domain.User, error)
	// SaveSettings atomically replaces the user's settings.
	SaveSettings(ctx context.Context, chatID int64, settings domain.Settings) error
	// AddSpell adds a spell to the user's spellbook. Adding a spell that
	// is already present is a no-op.
	AddSpell(ctx context.Context, chatID int64, spellID int) error
	// RemoveSpell deletes a spell from the user's spellbook.
	RemoveSpell(ctx context.Context, chatID int64, spellID int) error
	// Close releases the underlying database handle.
	Close() error
}

type userRepository struct {
	db          *sqlx.DB
	log         *slog.Logger
	defaultBook []int
}

type userRow struct {
	ID        int64  `db:"id"`
	ChatID    int64  `db:"chat_id"`
	Settings  string `db:"settings"`
	CreatedAt string `db:"created_at"`
}

// NewUserRepository opens (or creates) the SQLite database at dbPath and
// prepares the schema. defaultBooks seeds the rulebook filter for new users.
func NewUserRepository(dbPath string, defaultBooks []int, log *slog.Logger) (UserRepository, error) {
	if log == nil {
		log = slog.Default()
	}

	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("prepare schema: %w", err)
	}

	return &userRepository{db: db, log: log, defaultBook: defaultBooks}, nil
}

func (r *userRepository) GetUser(ctx context.Context, chatID int64) (*domain.User, error) {
	row, err := r.findRow(ctx, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		if err := r.createDefault(ctx, chatID); err != nil {
			return nil, err
		}
		row, err = r.findRow(ctx, chatID)
	}
	if err != nil {
		r.log.Error("failed to fetch user", slog.Int64("chat_id", chatID), slog.Any("error", err))
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var settings domain.Settings
	if err := json.Unmarshal([]byte(row.Settings), &settings); err != nil {
		r.log.Error("corrupt settings record", slog.Int64("chat_id", chatID), slog.Any("error", err))
		settings = domain.Settings{BookFilter: append([]int(nil), r.defaultBook...)}
	}

	var spellbook []int
	if err := r.db.SelectContext(ctx, &spellbook,
		`SELECT spell_id FROM saved_spells WHERE user_id = ? ORDER BY id`, row.ID); err != nil {
		r.log.Error("failed to fetch spellbook", slog.Int64("chat_id", chatID), slog.Any("error", err))
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	createdAt, _ := time.Parse(time.RFC3339, row.CreatedAt)

	return &domain.User{
		ID:        row.ID,
		ChatID:    row.ChatID,
		Settings:  settings,
		Spellbook: spellbook,
		CreatedAt: createdAt,
	}, nil
}

func (r *userRepository) SaveSettings(ctx context.Context, chatID int64, settings domain.Settings) error {
	payload, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	// The update runs in one transaction with the get-or-create so a
	// concurrent first contact cannot race the write.
	err = r.inTx(ctx, func(tx *sqlx.Tx) error {
		userID, err := r.ensureUserTx(ctx, tx, chatID)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `UPDATE users SET settings = ? WHERE id = ?`, string(payload), userID)
		return err
	})
	if err != nil {
		r.log.Error("failed to save settings", slog.Int64("chat_id", chatID), slog.Any("error", err))
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return nil
}

func (r *userRepository) AddSpell(ctx context.Context, chatID int64, spellID int) error {
	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		userID, err := r.ensureUserTx(ctx, tx, chatID)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO saved_spells (user_id, spell_id) VALUES (?, ?)`, userID, spellID)
		return err
	})
	if err != nil {
		r.log.Error("failed to add spell", slog.Int64("chat_id", chatID), slog.Int("spell_id", spellID), slog.Any("error", err))
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return nil
}

func (r *userRepository) RemoveSpell(ctx context.Context, chatID int64, spellID int) error {
	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		userID, err := r.ensureUserTx(ctx, tx, chatID)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`DELETE FROM saved_spells WHERE user_id = ? AND spell_id = ?`, userID, spellID)
		return err
	})
	if err != nil {
		r.log.Error("failed to remove spell", slog.Int64("chat_id", chatID), slog.Int("spell_id", spellID), slog.Any("error", err))
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return nil
}

func (r *userRepository) Close() error {
	return r.db.Close()
}

func (r *userRepository) findRow(ctx context.Context, chatID int64) (*userRow, error) {
	var row userRow
	err := r.db.GetContext(ctx, &row,
		`SELECT id, chat_id, settings, created_at FROM users WHERE chat_id = ?`, chatID)
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *userRepository) createDefault(ctx context.Context, chatID int64) error {
	settings := domain.Settings{BookFilter: append([]int(nil), r.defaultBook...)}
	payload, err := json.Marshal(settings)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO users (chat_id, settings, created_at) VALUES (?, ?, ?)`,
		chatID, string(payload), time.Now().UTC().Format(time.RFC3339))
	return err
}

func (r *userRepository) ensureUserTx(ctx context.Context, tx *sqlx.Tx, chatID int64) (int64, error) {
	var userID int64
	err := tx.GetContext(ctx, &userID, `SELECT id FROM users WHERE chat_id = ?`, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		settings := domain.Settings{BookFilter: append([]int(nil), r.defaultBook...)}
		payload, merr := json.Marshal(settings)
		if merr != nil {
			return 0, merr
		}

		res, ierr := tx.ExecContext(ctx,
			`INSERT INTO users (chat_id, settings, created_at) VALUES (?, ?, ?)`,
			chatID, string(payload), time.Now().UTC().Format(time.RFC3339))
		if ierr != nil {
			return 0, ierr
		}
		return res.LastInsertId()
	}
	return userID, err
}

func (r *userRepository) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			r.log.Error("rollback failed", slog.Any("error", rbErr))
		}
		return err
	}

	return tx.Commit()
}
