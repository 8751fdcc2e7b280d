package views_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	telebot "gopkg.in/telebot.v3"

	"github.com/veledan/spellbook-bot/internal/bot/views"
	"github.com/veledan/spellbook-bot/internal/catalog"
	"github.com/veledan/spellbook-bot/internal/domain"
	"github.com/veledan/spellbook-bot/internal/i18n"
)

func translator(t *testing.T) i18n.Translator {
	t.Helper()

	m, err := i18n.Load("en")
	require.NoError(t, err)
	return m.Translator("en")
}

func flattenData(markup *telebot.ReplyMarkup) []string {
	var out []string
	for _, row := range markup.InlineKeyboard {
		for _, btn := range row {
			out = append(out, btn.Data)
		}
	}
	return out
}

func TestClassList(t *testing.T) {
	tr := translator(t)

	classes := []catalog.Class{
		{ID: 2, Name: "Cleric"},
		{ID: 1, Name: "Wizard"},
	}

	text, markup := views.ClassList(tr, classes)
	assert.Contains(t, text, "Pick a class:")

	require.Len(t, markup.InlineKeyboard, 2)
	assert.Equal(t, "Cleric", markup.InlineKeyboard[0][0].Text)
	assert.Equal(t, "cls:2", markup.InlineKeyboard[0][0].Data)
	assert.Equal(t, "cls:1", markup.InlineKeyboard[1][0].Data)
}

func TestLevelList(t *testing.T) {
	tr := translator(t)

	cls := catalog.Class{ID: 1, Name: "Wizard", SpellLevels: []int{0, 1, 2, 3, 4, 5, 6}}
	text, markup := views.LevelList(tr, cls)

	assert.Contains(t, text, "Wizard")
	assert.Contains(t, text, "Pick a spell level:")

	// Seven levels wrap into rows of five, plus a back row.
	require.Len(t, markup.InlineKeyboard, 3)
	assert.Len(t, markup.InlineKeyboard[0], 5)
	assert.Len(t, markup.InlineKeyboard[1], 2)
	assert.Equal(t, "lvl:1-0", markup.InlineKeyboard[0][0].Data)
	assert.Equal(t, "bkc", markup.InlineKeyboard[2][0].Data)
}

func TestSpellList_Paging(t *testing.T) {
	tr := translator(t)
	cls := catalog.Class{ID: 1, Name: "Wizard"}

	spells := []catalog.Spell{
		{ID: 10, Name: "Alarm", ShortDescription: "Wards an area."},
		{ID: 11, Name: "Grease", ShortDescription: "Slick surface."},
		{ID: 12, Name: "Identify", ShortDescription: "Reveals magic."},
	}

	text, markup := views.SpellList(tr, cls, 1, spells, 0, 2)

	assert.Contains(t, text, "Wizard, level 1 spells")
	assert.Contains(t, text, "Alarm")
	assert.NotContains(t, text, "Identify")

	datas := flattenData(markup)
	assert.Contains(t, datas, "spl:1-1-0-10")
	assert.Contains(t, datas, "spl:1-1-0-11")
	// Two pages: the pagination row links to page 1.
	assert.Contains(t, datas, "spg:1-1-1")
	assert.Contains(t, datas, "bkl:1")
}

func TestSpellList_EmptyFilterResult(t *testing.T) {
	tr := translator(t)
	cls := catalog.Class{ID: 1, Name: "Wizard"}

	text, markup := views.SpellList(tr, cls, 9, nil, 0, 10)

	assert.Contains(t, text, "No spells of this level")
	datas := flattenData(markup)
	assert.Equal(t, []string{"bkl:1"}, datas)
}

func TestSpellDetail(t *testing.T) {
	tr := translator(t)

	sp := catalog.Spell{ID: 10, Name: "Fireball", School: "evocation", Description: "A searing explosion."}
	book := catalog.Rulebook{ID: 1, Name: "Core Rulebook", Abbreviation: "CRB"}

	text, markup := views.SpellDetail(tr, sp, book, 1, 3, 0, false)

	assert.Contains(t, text, "FIREBALL")
	assert.Contains(t, text, "evocation")
	assert.Contains(t, text, "CRB")
	assert.Contains(t, text, "A searing explosion.")

	datas := flattenData(markup)
	assert.Equal(t, []string{"add:1-3-0-10", "spg:1-3-0"}, datas)

	// A saved spell keeps the button but flips the label.
	_, savedMarkup := views.SpellDetail(tr, sp, book, 1, 3, 0, true)
	assert.True(t, strings.HasPrefix(savedMarkup.InlineKeyboard[0][0].Text, "✅"))
}

func TestSpellbookEntry(t *testing.T) {
	tr := translator(t)

	sp := catalog.Spell{ID: 10, Name: "Bless", Description: "Courage."}
	book := catalog.Rulebook{ID: 1, Abbreviation: "CRB", Name: "Core Rulebook"}

	text, markup := views.SpellbookEntry(tr, sp, book, 1, 3, false)

	assert.Contains(t, text, "Spell 2 of 3")
	datas := flattenData(markup)
	assert.Equal(t, []string{"sbn:0", "sbn:2", "sbd:1"}, datas)

	// Delete turns into a confirm button on the second step.
	_, confirmMarkup := views.SpellbookEntry(tr, sp, book, 1, 3, true)
	confirmDatas := flattenData(confirmMarkup)
	assert.Contains(t, confirmDatas, "sbx:1")
	assert.NotContains(t, confirmDatas, "sbd:1")
}

func TestSettings(t *testing.T) {
	tr := translator(t)

	books := []catalog.Rulebook{
		{ID: 1, Name: "Core Rulebook", Abbreviation: "CRB"},
		{ID: 2, Name: "Advanced Player's Guide", Abbreviation: "APG"},
	}
	settings := domain.Settings{BookFilter: []int{1}}

	text, markup := views.Settings(tr, books, settings)

	assert.Contains(t, text, "Search settings")

	require.Len(t, markup.InlineKeyboard, 3)
	assert.True(t, strings.HasPrefix(markup.InlineKeyboard[0][0].Text, "✅"))
	assert.True(t, strings.HasPrefix(markup.InlineKeyboard[1][0].Text, "☑"))
	assert.Equal(t, "set:1", markup.InlineKeyboard[0][0].Data)
	assert.Equal(t, "set:2", markup.InlineKeyboard[1][0].Data)
	assert.Equal(t, "sok", markup.InlineKeyboard[2][0].Data)
}
