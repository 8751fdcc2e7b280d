package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const (
	classesFile   = "classes.csv"
	spellsFile    = "spells.csv"
	rulebooksFile = "rulebooks.csv"
)

// LoadError indicates the catalog directory is missing a table or a table
// is malformed. It is fatal at startup.
type LoadError struct {
	Table string
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load catalog table %s: %v", e.Table, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

func loadDir(dir string) (*snapshot, error) {
	classes, err := loadClasses(filepath.Join(dir, classesFile))
	if err != nil {
		return nil, &LoadError{Table: classesFile, Err: err}
	}

	books, err := loadRulebooks(filepath.Join(dir, rulebooksFile))
	if err != nil {
		return nil, &LoadError{Table: rulebooksFile, Err: err}
	}

	spells, err := loadSpells(filepath.Join(dir, spellsFile))
	if err != nil {
		return nil, &LoadError{Table: spellsFile, Err: err}
	}

	snap := &snapshot{classes: classes, books: books, spells: spells}
	if err := validate(snap); err != nil {
		return nil, &LoadError{Table: spellsFile, Err: err}
	}

	snap.index()
	return snap, nil
}

// validate rejects spells that reference unknown classes or rulebooks so a
// broken export cannot degrade lookups silently.
func validate(s *snapshot) error {
	classIDs := make(map[int]struct{}, len(s.classes))
	for _, cls := range s.classes {
		classIDs[cls.ID] = struct{}{}
	}

	bookIDs := make(map[int]struct{}, len(s.books))
	for _, book := range s.books {
		bookIDs[book.ID] = struct{}{}
	}

	for id, sp := range s.spells {
		if _, ok := bookIDs[sp.BookID]; !ok {
			return fmt.Errorf("spell %d references unknown rulebook %d", id, sp.BookID)
		}
		for classID := range sp.ClassLevels {
			if _, ok := classIDs[classID]; !ok {
				return fmt.Errorf("spell %d references unknown class %d", id, classID)
			}
		}
	}

	return nil
}

// classes.csv: id,alias,name,description,spell_levels
// spell_levels is a pipe-separated list, e.g. "0|1|2|3".
func loadClasses(path string) ([]Class, error) {
	rows, err := readTable(path, 5)
	if err != nil {
		return nil, err
	}

	classes := make([]Class, 0, len(rows))
	for i, row := range rows {
		id, err := strconv.Atoi(row[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: bad class id %q", i+2, row[0])
		}

		levels, err := parseIntList(row[4])
		if err != nil {
			return nil, fmt.Errorf("row %d: bad spell levels %q: %w", i+2, row[4], err)
		}
		sort.Ints(levels)

		classes = append(classes, Class{
			ID:          id,
			Alias:       row[1],
			Name:        row[2],
			Description: row[3],
			SpellLevels: levels,
		})
	}

	return classes, nil
}

// rulebooks.csv: id,abbreviation,name
func loadRulebooks(path string) ([]Rulebook, error) {
	rows, err := readTable(path, 3)
	if err != nil {
		return nil, err
	}

	books := make([]Rulebook, 0, len(rows))
	for i, row := range rows {
		id, err := strconv.Atoi(row[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: bad rulebook id %q", i+2, row[0])
		}

		books = append(books, Rulebook{ID: id, Abbreviation: row[1], Name: row[2]})
	}

	return books, nil
}

// spells.csv: id,alias,name,school,book_id,class_levels,short_description,description
// class_levels is pipe-separated "classID:level" pairs, e.g. "1:3|4:2".
func loadSpells(path string) (map[int]*Spell, error) {
	rows, err := readTable(path, 8)
	if err != nil {
		return nil, err
	}

	spells := make(map[int]*Spell, len(rows))
	for i, row := range rows {
		id, err := strconv.Atoi(row[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: bad spell id %q", i+2, row[0])
		}

		if _, ok := spells[id]; ok {
			return nil, fmt.Errorf("row %d: duplicate spell id %d", i+2, id)
		}

		bookID, err := strconv.Atoi(row[4])
		if err != nil {
			return nil, fmt.Errorf("row %d: bad book id %q", i+2, row[4])
		}

		classLevels, err := parseClassLevels(row[5])
		if err != nil {
			return nil, fmt.Errorf("row %d: bad class levels %q: %w", i+2, row[5], err)
		}

		spells[id] = &Spell{
			ID:               id,
			Alias:            row[1],
			Name:             row[2],
			School:           row[3],
			BookID:           bookID,
			ClassLevels:      classLevels,
			ShortDescription: row[6],
			Description:      row[7],
		}
	}

	return spells, nil
}

func readTable(path string, wantFields int) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = wantFields

	// Skip header.
	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%s is empty", filepath.Base(path))
		}
		return nil, err
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s has no data rows", filepath.Base(path))
	}

	return rows, nil
}

func parseIntList(raw string) ([]int, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	parts := strings.Split(raw, "|")
	values := make([]int, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}

	return values, nil
}

func parseClassLevels(raw string) (map[int]int, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("spell belongs to no class")
	}

	parts := strings.Split(raw, "|")
	classLevels := make(map[int]int, len(parts))
	for _, part := range parts {
		pair := strings.SplitN(strings.TrimSpace(part), ":", 2)
		if len(pair) != 2 {
			return nil, fmt.Errorf("expected classID:level, got %q", part)
		}

		classID, err := strconv.Atoi(pair[0])
		if err != nil {
			return nil, err
		}

		level, err := strconv.Atoi(pair[1])
		if err != nil {
			return nil, err
		}

		classLevels[classID] = level
	}

	return classLevels, nil
}
