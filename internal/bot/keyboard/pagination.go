package keyboard

import (
	"github.com/veledan/spellbook-bot/internal/i18n"
)

// PaginationButtons returns up to three inline buttons (prev, current page,
// next) allowing the caller to paginate lists using a shared callback
// prefix. Pages are zero-based in payloads, one-based in labels.
func PaginationButtons(t i18n.Translator, unique, payloadPrefix string, page, totalPages int) []InlineButton {
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 0 {
		page = 0
	}
	if page > totalPages-1 {
		page = totalPages - 1
	}

	buttons := make([]InlineButton, 0, 3)

	if page > 0 {
		buttons = append(buttons, InlineButton{
			Text:   t.T("pagination.prev"),
			Unique: unique,
			Data:   payloadPrefix + EncodeInts(page-1),
		})
	}

	buttons = append(buttons, InlineButton{
		Text:   t.Tf("pagination.page", page+1, totalPages),
		Unique: unique,
		Data:   payloadPrefix + EncodeInts(page),
	})

	if page < totalPages-1 {
		buttons = append(buttons, InlineButton{
			Text:   t.T("pagination.next"),
			Unique: unique,
			Data:   payloadPrefix + EncodeInts(page+1),
		})
	}

	return buttons
}
