// Package catalog provides read-only access to the spell compendium loaded
// from a directory of tabular data files.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
)

var (
	// ErrSpellNotFound indicates that a spell id is absent from the catalog.
	ErrSpellNotFound = errors.New("spell not found")
	// ErrClassNotFound indicates that a class id is absent from the catalog.
	ErrClassNotFound = errors.New("class not found")
)

// Class describes a spellcasting class.
type Class struct {
	ID          int
	Alias       string
	Name        string
	Description string
	SpellLevels []int
}

// Rulebook describes a source book spells may come from.
type Rulebook struct {
	ID           int
	Abbreviation string
	Name         string
}

// Spell describes a single compendium entry. Immutable after load.
type Spell struct {
	ID               int
	Alias            string
	Name             string
	School           string
	ShortDescription string
	Description      string
	BookID           int
	// ClassLevels maps class id to the spell level for that class.
	ClassLevels map[int]int
}

// snapshot is an immutable view of the loaded catalog tables.
type snapshot struct {
	classes   []Class
	classByID map[int]*Class
	books     []Rulebook
	spells    map[int]*Spell
	// byClassLevel indexes spell ids by class id and level, each list
	// sorted by spell name.
	byClassLevel map[int]map[int][]int
}

// Catalog serves compendium queries from an atomically swappable snapshot.
// All accessors are safe for concurrent use.
type Catalog struct {
	snap atomic.Pointer[snapshot]
}

// New builds a Catalog from the tables in dir. It fails if any required
// table is missing or malformed.
func New(dir string) (*Catalog, error) {
	snap, err := loadDir(dir)
	if err != nil {
		return nil, err
	}

	c := &Catalog{}
	c.snap.Store(snap)
	return c, nil
}

// Reload replaces the current snapshot with a freshly loaded one. On error
// the previous snapshot stays in effect.
func (c *Catalog) Reload(dir string) error {
	snap, err := loadDir(dir)
	if err != nil {
		return err
	}

	c.snap.Store(snap)
	return nil
}

// SpellCount reports how many spells the current snapshot holds.
func (c *Catalog) SpellCount() int {
	return len(c.snap.Load().spells)
}

// Classes returns every spellcasting class, ordered by name.
func (c *Catalog) Classes() []Class {
	snap := c.snap.Load()
	out := make([]Class, len(snap.classes))
	copy(out, snap.classes)
	return out
}

// Class returns the class with the given id.
func (c *Catalog) Class(id int) (Class, error) {
	snap := c.snap.Load()
	cls, ok := snap.classByID[id]
	if !ok {
		return Class{}, fmt.Errorf("class %d: %w", id, ErrClassNotFound)
	}
	return *cls, nil
}

// Levels returns the spell levels available to a class, ascending.
func (c *Catalog) Levels(classID int) ([]int, error) {
	snap := c.snap.Load()
	cls, ok := snap.classByID[classID]
	if !ok {
		return nil, fmt.Errorf("class %d: %w", classID, ErrClassNotFound)
	}

	levels := make([]int, len(cls.SpellLevels))
	copy(levels, cls.SpellLevels)
	return levels, nil
}

// SpellsFor returns the spells of the given level available to the class,
// ordered by name. When bookFilter is non-empty, spells from other
// rulebooks are excluded. Each call returns a fresh slice.
func (c *Catalog) SpellsFor(classID, level int, bookFilter []int) []Spell {
	snap := c.snap.Load()

	ids := snap.byClassLevel[classID][level]
	out := make([]Spell, 0, len(ids))
	for _, id := range ids {
		sp := snap.spells[id]
		if len(bookFilter) > 0 && !containsInt(bookFilter, sp.BookID) {
			continue
		}
		out = append(out, *sp)
	}
	return out
}

// Spell returns the spell with the given id.
func (c *Catalog) Spell(id int) (Spell, error) {
	snap := c.snap.Load()
	sp, ok := snap.spells[id]
	if !ok {
		return Spell{}, fmt.Errorf("spell %d: %w", id, ErrSpellNotFound)
	}
	return *sp, nil
}

// Rulebooks returns every known rulebook, ordered by id.
func (c *Catalog) Rulebooks() []Rulebook {
	snap := c.snap.Load()
	out := make([]Rulebook, len(snap.books))
	copy(out, snap.books)
	return out
}

func (s *snapshot) index() {
	sort.Slice(s.classes, func(i, j int) bool { return s.classes[i].Name < s.classes[j].Name })
	sort.Slice(s.books, func(i, j int) bool { return s.books[i].ID < s.books[j].ID })

	s.classByID = make(map[int]*Class, len(s.classes))
	for i := range s.classes {
		s.classByID[s.classes[i].ID] = &s.classes[i]
	}

	s.byClassLevel = make(map[int]map[int][]int)
	names := make(map[int]string, len(s.spells))
	for id, sp := range s.spells {
		names[id] = sp.Name
		for classID, level := range sp.ClassLevels {
			byLevel, ok := s.byClassLevel[classID]
			if !ok {
				byLevel = make(map[int][]int)
				s.byClassLevel[classID] = byLevel
			}
			byLevel[level] = append(byLevel[level], id)
		}
	}

	for _, byLevel := range s.byClassLevel {
		for _, ids := range byLevel {
			sort.Slice(ids, func(i, j int) bool { return names[ids[i]] < names[ids[j]] })
		}
	}
}

func containsInt(values []int, v int) bool {
	for _, value := range values {
		if value == v {
			return true
		}
	}
	return false
}
