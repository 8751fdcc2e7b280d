package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_LoadsValidCatalog(t *testing.T) {
	cat, err := New(filepath.Join("testdata", "valid"))
	require.NoError(t, err)

	assert.Equal(t, 5, cat.SpellCount())

	classes := cat.Classes()
	require.Len(t, classes, 2)
	// Classes come back sorted by name.
	assert.Equal(t, "Cleric", classes[0].Name)
	assert.Equal(t, "Wizard", classes[1].Name)

	levels, err := cat.Levels(1)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3}, levels)

	// The cleric row lists its levels out of order; they come back ascending.
	levels, err = cat.Levels(2)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, levels)

	books := cat.Rulebooks()
	require.Len(t, books, 2)
	assert.Equal(t, "CRB", books[0].Abbreviation)
}

func TestNew_MissingTable(t *testing.T) {
	_, err := New(t.TempDir())
	require.Error(t, err)

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, classesFile, loadErr.Table)
}

func TestNew_RejectsDanglingBookReference(t *testing.T) {
	_, err := New(filepath.Join("testdata", "badref"))
	require.Error(t, err)

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, spellsFile, loadErr.Table)
}

func TestCatalog_SpellsFor(t *testing.T) {
	cat, err := New(filepath.Join("testdata", "valid"))
	require.NoError(t, err)

	testCases := []struct {
		name       string
		classID    int
		level      int
		bookFilter []int
		wantNames  []string
	}{
		{
			name:      "wizard level 1 sorted by name",
			classID:   1,
			level:     1,
			wantNames: []string{"Alarm", "Mage Armor", "Magic Missile"},
		},
		{
			name:       "book filter excludes other rulebooks",
			classID:    1,
			level:      1,
			bookFilter: []int{1},
			wantNames:  []string{"Mage Armor", "Magic Missile"},
		},
		{
			name:      "spell shared between classes",
			classID:   2,
			level:     2,
			wantNames: []string{"Glitterdust"},
		},
		{
			name:      "no spells at level",
			classID:   2,
			level:     0,
			wantNames: []string{},
		},
		{
			name:      "unknown class yields empty list",
			classID:   42,
			level:     1,
			wantNames: []string{},
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			spells := cat.SpellsFor(tc.classID, tc.level, tc.bookFilter)

			names := make([]string, 0, len(spells))
			for _, sp := range spells {
				names = append(names, sp.Name)
			}
			assert.Equal(t, tc.wantNames, names)
		})
	}
}

func TestCatalog_Spell(t *testing.T) {
	cat, err := New(filepath.Join("testdata", "valid"))
	require.NoError(t, err)

	sp, err := cat.Spell(12)
	require.NoError(t, err)
	assert.Equal(t, "Glitterdust", sp.Name)
	assert.Equal(t, 2, sp.ClassLevels[1])

	_, err = cat.Spell(404)
	assert.ErrorIs(t, err, ErrSpellNotFound)
}

func TestCatalog_Class(t *testing.T) {
	cat, err := New(filepath.Join("testdata", "valid"))
	require.NoError(t, err)

	cls, err := cat.Class(2)
	require.NoError(t, err)
	assert.Equal(t, "Cleric", cls.Name)

	_, err = cat.Class(404)
	assert.ErrorIs(t, err, ErrClassNotFound)
	_, err = cat.Levels(404)
	assert.ErrorIs(t, err, ErrClassNotFound)
}

func TestCatalog_ReloadKeepsSnapshotOnFailure(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{classesFile, rulebooksFile, spellsFile} {
		data, err := os.ReadFile(filepath.Join("testdata", "valid", name))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
	}

	cat, err := New(dir)
	require.NoError(t, err)
	require.Equal(t, 5, cat.SpellCount())

	// Break the spells table and reload: the old snapshot must survive.
	require.NoError(t, os.WriteFile(filepath.Join(dir, spellsFile), []byte("id\n"), 0o644))
	err = cat.Reload(dir)
	require.Error(t, err)

	assert.Equal(t, 5, cat.SpellCount())
	sp, err := cat.Spell(10)
	require.NoError(t, err)
	assert.Equal(t, "Magic Missile", sp.Name)
}
