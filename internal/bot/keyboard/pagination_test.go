package keyboard_test

import (
	"testing"

	"github.com/veledan/spellbook-bot/internal/bot/keyboard"
	"github.com/veledan/spellbook-bot/internal/i18n"
)

func paginationTranslator(t *testing.T) i18n.Translator {
	t.Helper()

	m, err := i18n.Load("en")
	if err != nil {
		t.Fatalf("load locales: %v", err)
	}
	return m.Translator("en")
}

func TestPaginationButtons(t *testing.T) {
	tr := paginationTranslator(t)

	tests := []struct {
		name       string
		page       int
		totalPages int
		wantCount  int
		wantDatas  []string
	}{
		{
			name:       "first page has no prev",
			page:       0,
			totalPages: 3,
			wantCount:  2,
			wantDatas:  []string{"0", "1"},
		},
		{
			name:       "middle page has both",
			page:       1,
			totalPages: 3,
			wantCount:  3,
			wantDatas:  []string{"0", "1", "2"},
		},
		{
			name:       "last page has no next",
			page:       2,
			totalPages: 3,
			wantCount:  2,
			wantDatas:  []string{"1", "2"},
		},
		{
			name:       "single page collapses to indicator",
			page:       0,
			totalPages: 1,
			wantCount:  1,
			wantDatas:  []string{"0"},
		},
		{
			name:       "page clamped into range",
			page:       9,
			totalPages: 2,
			wantCount:  2,
			wantDatas:  []string{"0", "1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buttons := keyboard.PaginationButtons(tr, "spg", "", tt.page, tt.totalPages)

			if len(buttons) != tt.wantCount {
				t.Fatalf("got %d buttons, want %d", len(buttons), tt.wantCount)
			}

			for i, btn := range buttons {
				if btn.Unique != "spg" {
					t.Errorf("button %d unique = %q, want %q", i, btn.Unique, "spg")
				}
				if btn.Data != tt.wantDatas[i] {
					t.Errorf("button %d data = %q, want %q", i, btn.Data, tt.wantDatas[i])
				}
			}
		})
	}
}

func TestPaginationButtonsCarryPayloadPrefix(t *testing.T) {
	tr := paginationTranslator(t)

	buttons := keyboard.PaginationButtons(tr, "spg", keyboard.EncodeInts(1, 3)+"-", 1, 3)
	if len(buttons) != 3 {
		t.Fatalf("got %d buttons, want 3", len(buttons))
	}
	if buttons[0].Data != "1-3-0" {
		t.Errorf("prev data = %q, want %q", buttons[0].Data, "1-3-0")
	}
	if buttons[2].Data != "1-3-2" {
		t.Errorf("next data = %q, want %q", buttons[2].Data, "1-3-2")
	}
}
