package state

// Intent classifies an inbound update before dispatch. Commands and
// callbacks map to exactly one Intent; anything else is IntentFreeText.
type Intent string

const (
	IntentStart     Intent = "start"
	IntentHelp      Intent = "help"
	IntentCancel    Intent = "cancel"
	IntentMenu      Intent = "menu"
	IntentSettings  Intent = "settings"
	IntentSpellbook Intent = "spellbook"

	IntentSelectClass  Intent = "select_class"
	IntentSelectLevel  Intent = "select_level"
	IntentSpellPage    Intent = "spell_page"
	IntentSpellDetail  Intent = "spell_detail"
	IntentSpellAdd     Intent = "spell_add"
	IntentBackToClass  Intent = "back_to_class"
	IntentBackToLevel  Intent = "back_to_level"
	IntentBookNav      Intent = "book_nav"
	IntentBookDelete   Intent = "book_delete"
	IntentToggleBook   Intent = "toggle_book"
	IntentSettingsDone Intent = "settings_done"
	IntentFreeText     Intent = "free_text"
)

// globalIntents are accepted in every state. /start and /cancel must work
// mid-flow to reset the session.
var globalIntents = map[Intent]struct{}{
	IntentStart:  {},
	IntentHelp:   {},
	IntentCancel: {},
}

// acceptedIntents is the per-state table of intents a state reacts to.
// Anything outside the set is answered with an invalid-input notice and the
// state is left unchanged.
var acceptedIntents = map[State]map[Intent]struct{}{
	StateIdle: {
		IntentMenu:      {},
		IntentSettings:  {},
		IntentSpellbook: {},
	},
	StateMenuClass: {
		IntentSelectClass: {},
	},
	StateMenuLevel: {
		IntentSelectClass: {},
		IntentSelectLevel: {},
		IntentBackToClass: {},
	},
	StateMenuSpells: {
		IntentSelectLevel: {},
		IntentSpellPage:   {},
		IntentSpellDetail: {},
		IntentSpellAdd:    {},
		IntentBackToLevel: {},
	},
	StateSettings: {
		IntentToggleBook:   {},
		IntentSettingsDone: {},
	},
	StateSpellbook: {
		IntentBookNav:    {},
		IntentBookDelete: {},
	},
}

// Accepts reports whether the state reacts to the given intent.
func Accepts(s State, intent Intent) bool {
	if _, ok := globalIntents[intent]; ok {
		return true
	}

	accepted, ok := acceptedIntents[s]
	if !ok {
		return false
	}

	_, ok = accepted[intent]
	return ok
}
