// Package views renders message texts and inline keyboards for every bot
// screen. Handlers stay free of presentation concerns.
package views

import (
	"fmt"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/veledan/spellbook-bot/internal/bot/keyboard"
	"github.com/veledan/spellbook-bot/internal/catalog"
	"github.com/veledan/spellbook-bot/internal/domain"
	"github.com/veledan/spellbook-bot/internal/i18n"
)

// Callback prefixes understood by the router. Payloads are dash-separated
// integers encoded by the keyboard package.
const (
	CallbackClass         = "cls" // classID
	CallbackLevel         = "lvl" // classID-level
	CallbackSpellPage     = "spg" // classID-level-page
	CallbackSpellDetail   = "spl" // classID-level-page-spellID
	CallbackSpellAdd      = "add" // classID-level-page-spellID
	CallbackBackToClasses = "bkc"
	CallbackBackToLevels  = "bkl" // classID
	CallbackBookNav       = "sbn" // index
	CallbackBookDelete    = "sbd" // index
	CallbackBookConfirm   = "sbx" // index
	CallbackToggleBook    = "set" // bookID
	CallbackSettingsDone  = "sok"
)

func header(title string) string {
	return fmt.Sprintf("<b>%s</b>\n\n", title)
}

// Start renders the /start greeting.
func Start(t i18n.Translator) (string, *telebot.ReplyMarkup) {
	return header(t.T("start.title")) + t.T("start.body"), nil
}

// Help renders the /help screen.
func Help(t i18n.Translator) (string, *telebot.ReplyMarkup) {
	return header(t.T("help.title")) + t.T("help.body"), nil
}

// ClassList renders the class picker shown on /menu.
func ClassList(t i18n.Translator, classes []catalog.Class) (string, *telebot.ReplyMarkup) {
	kb := keyboard.NewInlineKeyboard()
	for _, cls := range classes {
		kb.AddRow(keyboard.InlineButton{
			Text:   cls.Name,
			Unique: CallbackClass,
			Data:   keyboard.EncodeInts(cls.ID),
		})
	}

	text := header(t.T("menu.title")) + t.T("menu.pick_class")
	return text, kb.Build()
}

// LevelList renders the spell-level picker for a class.
func LevelList(t i18n.Translator, cls catalog.Class) (string, *telebot.ReplyMarkup) {
	kb := keyboard.NewInlineKeyboard()

	row := make([]keyboard.InlineButton, 0, 5)
	for _, level := range cls.SpellLevels {
		row = append(row, keyboard.InlineButton{
			Text:   fmt.Sprintf("%d", level),
			Unique: CallbackLevel,
			Data:   keyboard.EncodeInts(cls.ID, level),
		})
		if len(row) == 5 {
			kb.AddRow(row...)
			row = row[:0]
		}
	}
	kb.AddRow(row...)
	kb.AddRow(keyboard.InlineButton{Text: t.T("common.back"), Unique: CallbackBackToClasses})

	text := header(fmt.Sprintf("📖 %s 🔮", cls.Name))
	if cls.Description != "" {
		text += fmt.Sprintf("<i>%s</i>\n\n", cls.Description)
	}
	text += t.T("menu.pick_level")

	return text, kb.Build()
}

// SpellList renders one page of the spells available to a class at a level.
func SpellList(t i18n.Translator, cls catalog.Class, level int, spells []catalog.Spell, page, pageSize int) (string, *telebot.ReplyMarkup) {
	text := header(t.Tf("menu.level_header", cls.Name, level))

	if len(spells) == 0 {
		kb := keyboard.NewInlineKeyboard()
		kb.AddRow(keyboard.InlineButton{
			Text:   t.T("common.back"),
			Unique: CallbackBackToLevels,
			Data:   keyboard.EncodeInts(cls.ID),
		})
		return text + t.T("menu.no_spells"), kb.Build()
	}

	totalPages := (len(spells) + pageSize - 1) / pageSize
	if page > totalPages-1 {
		page = totalPages - 1
	}
	if page < 0 {
		page = 0
	}

	start := page * pageSize
	end := start + pageSize
	if end > len(spells) {
		end = len(spells)
	}

	kb := keyboard.NewInlineKeyboard()
	var lines []string
	for _, sp := range spells[start:end] {
		lines = append(lines, fmt.Sprintf("<u>%s</u>: <i>%s</i>", sp.Name, sp.ShortDescription))
		kb.AddRow(keyboard.InlineButton{
			Text:   sp.Name,
			Unique: CallbackSpellDetail,
			Data:   keyboard.EncodeInts(cls.ID, level, page, sp.ID),
		})
	}

	if totalPages > 1 {
		kb.AddRow(keyboard.PaginationButtons(
			t, CallbackSpellPage, keyboard.EncodeInts(cls.ID, level)+"-", page, totalPages)...)
	}
	kb.AddRow(keyboard.InlineButton{
		Text:   t.T("common.back"),
		Unique: CallbackBackToLevels,
		Data:   keyboard.EncodeInts(cls.ID),
	})

	return text + strings.Join(lines, "\n"), kb.Build()
}

// SpellDetail renders a spell's full description with an add-to-spellbook
// button. The cursor fields let the back button restore the list page.
func SpellDetail(t i18n.Translator, sp catalog.Spell, book catalog.Rulebook, classID, level, page int, saved bool) (string, *telebot.ReplyMarkup) {
	text := spellText(t, sp, book)

	kb := keyboard.NewInlineKeyboard()
	if saved {
		kb.AddRow(keyboard.InlineButton{Text: "✅ " + t.T("spell.already_saved"), Unique: CallbackSpellAdd,
			Data: keyboard.EncodeInts(classID, level, page, sp.ID)})
	} else {
		kb.AddRow(keyboard.InlineButton{Text: t.T("spell.add"), Unique: CallbackSpellAdd,
			Data: keyboard.EncodeInts(classID, level, page, sp.ID)})
	}
	kb.AddRow(keyboard.InlineButton{
		Text:   t.T("common.back"),
		Unique: CallbackSpellPage,
		Data:   keyboard.EncodeInts(classID, level, page),
	})

	return text, kb.Build()
}

// SpellbookEmpty renders the empty-spellbook notice.
func SpellbookEmpty(t i18n.Translator) (string, *telebot.ReplyMarkup) {
	return header(t.T("spellbook.title")) + t.T("spellbook.empty"), nil
}

// SpellbookEntry renders the saved spell at the given index with paging and
// delete controls.
func SpellbookEntry(t i18n.Translator, sp catalog.Spell, book catalog.Rulebook, index, total int, confirmDelete bool) (string, *telebot.ReplyMarkup) {
	text := header(t.T("spellbook.title")) +
		t.Tf("spellbook.position", index+1, total) + "\n\n" +
		spellText(t, sp, book)

	kb := keyboard.NewInlineKeyboard()

	nav := make([]keyboard.InlineButton, 0, 3)
	if index > 0 {
		nav = append(nav, keyboard.InlineButton{
			Text: t.T("pagination.prev"), Unique: CallbackBookNav, Data: keyboard.EncodeInts(index - 1)})
	}
	if index < total-1 {
		nav = append(nav, keyboard.InlineButton{
			Text: t.T("pagination.next"), Unique: CallbackBookNav, Data: keyboard.EncodeInts(index + 1)})
	}
	kb.AddRow(nav...)

	if confirmDelete {
		kb.AddRow(keyboard.InlineButton{
			Text: "🗑 " + t.T("spellbook.delete_prompt"), Unique: CallbackBookConfirm, Data: keyboard.EncodeInts(index)})
	} else {
		kb.AddRow(keyboard.InlineButton{
			Text: "🗑", Unique: CallbackBookDelete, Data: keyboard.EncodeInts(index)})
	}

	return text, kb.Build()
}

// Settings renders the rulebook filter with on/off toggles.
func Settings(t i18n.Translator, books []catalog.Rulebook, settings domain.Settings) (string, *telebot.ReplyMarkup) {
	kb := keyboard.NewInlineKeyboard()
	for _, book := range books {
		mark := "☑"
		if settings.HasBook(book.ID) {
			mark = "✅"
		}
		kb.AddRow(keyboard.InlineButton{
			Text:   fmt.Sprintf("%s %s (%s)", mark, book.Name, book.Abbreviation),
			Unique: CallbackToggleBook,
			Data:   keyboard.EncodeInts(book.ID),
		})
	}

	kb.AddRow(keyboard.InlineButton{Text: t.T("common.close"), Unique: CallbackSettingsDone})

	return header(t.T("settings.title")) + t.T("settings.body"), kb.Build()
}

func spellText(t i18n.Translator, sp catalog.Spell, book catalog.Rulebook) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b>\n", strings.ToUpper(sp.Name))
	if sp.School != "" {
		fmt.Fprintf(&b, "<i>%s</i>\n", t.Tf("spell.school", sp.School))
	}
	if book.Name != "" {
		fmt.Fprintf(&b, "<i>%s</i>\n", t.Tf("spell.book", book.Abbreviation))
	}
	b.WriteString("\n")
	b.WriteString(sp.Description)
	return b.String()
}
