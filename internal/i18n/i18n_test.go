package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	m, err := Load("en")
	require.NoError(t, err)

	tr := m.Translator("en")
	assert.Equal(t, "en", tr.Lang())
	assert.Equal(t, "Pick a class:", tr.T("menu.pick_class"))
}

func TestLoad_MissingDefaultLanguage(t *testing.T) {
	_, err := Load("xx")
	assert.Error(t, err)
}

func TestTranslator_FallsBackToDefault(t *testing.T) {
	m, err := Load("en")
	require.NoError(t, err)

	// Unknown language falls back to the default wholesale.
	tr := m.Translator("de")
	assert.Equal(t, "en", tr.Lang())
	assert.Equal(t, "Pick a class:", tr.T("menu.pick_class"))

	// Russian is present but may lag behind; missing keys resolve via the
	// default language, unknown keys echo the key.
	ru := m.Translator("ru")
	assert.Equal(t, "ru", ru.Lang())
	assert.NotEmpty(t, ru.T("menu.pick_class"))
	assert.Equal(t, "no.such.key", ru.T("no.such.key"))
}

func TestTranslator_Tf(t *testing.T) {
	m, err := Load("en")
	require.NoError(t, err)

	tr := m.Translator("en")
	assert.Equal(t, "Page 2/5", tr.Tf("pagination.page", 2, 5))
	assert.Equal(t, "Spell 1 of 4", tr.Tf("spellbook.position", 1, 4))
}
