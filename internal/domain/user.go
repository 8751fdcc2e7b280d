package domain

import "time"

// User represents a bot user stored in the database, keyed by Telegram chat id.
type User struct {
	ID        int64
	ChatID    int64
	Settings  Settings
	Spellbook []int
	CreatedAt time.Time
}

// Settings holds per-user search preferences.
type Settings struct {
	// BookFilter lists rulebook ids the user wants spells sourced from.
	BookFilter []int `json:"book_filter"`
}

// HasBook reports whether the rulebook is part of the user's filter.
func (s Settings) HasBook(bookID int) bool {
	for _, id := range s.BookFilter {
		if id == bookID {
			return true
		}
	}
	return false
}

// HasSpell reports whether the spell is already saved in the user's spellbook.
func (u *User) HasSpell(spellID int) bool {
	for _, id := range u.Spellbook {
		if id == spellID {
			return true
		}
	}
	return false
}
