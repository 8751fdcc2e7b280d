// Package state manages per-user conversational state for the bot.
package state

import "time"

// State represents a finite-state machine state.
type State string

const (
	// StateIdle indicates that the bot is waiting for the next user command.
	StateIdle State = "idle"
	// StateMenuClass indicates that the user is picking a spellcasting class.
	StateMenuClass State = "menu_class"
	// StateMenuLevel indicates that the user is picking a spell level.
	StateMenuLevel State = "menu_level"
	// StateMenuSpells indicates that the user is browsing a spell list.
	StateMenuSpells State = "menu_spells"
	// StateSettings indicates that the user is editing search settings.
	StateSettings State = "settings"
	// StateSpellbook indicates that the user is viewing saved spells.
	StateSpellbook State = "spellbook"
)

// Cursor records where in a browse flow the user currently is. Zero values
// mean "not set".
type Cursor struct {
	ClassID int `json:"class_id,omitempty"`
	Level   int `json:"level,omitempty"`
	Page    int `json:"page,omitempty"`
	// BookIndex addresses a saved spell while viewing the spellbook.
	BookIndex int `json:"book_index,omitempty"`
}

// Session captures the current FSM state for a Telegram user.
type Session struct {
	UserID       int64     `json:"user_id"`
	CurrentState State     `json:"current_state"`
	Cursor       Cursor    `json:"cursor"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewIdleSession returns the resting session every unknown user starts in.
func NewIdleSession(userID int64) *Session {
	return &Session{
		UserID:       userID,
		CurrentState: StateIdle,
		UpdatedAt:    time.Now().UTC(),
	}
}
