package state

// validTransitions contains the permitted non-reset transitions in the FSM.
// A transition to StateIdle is always allowed; /start and /cancel rely on
// that to abort any flow.
var validTransitions = map[State][]State{
	StateIdle: {
		StateMenuClass,
		StateSettings,
		StateSpellbook,
	},
	StateMenuClass: {
		StateMenuLevel,
	},
	StateMenuLevel: {
		StateMenuLevel,
		StateMenuSpells,
		StateMenuClass,
	},
	StateMenuSpells: {
		StateMenuSpells,
		StateMenuLevel,
	},
	StateSettings: {
		StateSettings,
	},
	StateSpellbook: {
		StateSpellbook,
	},
}

// IsTransitionAllowed reports whether moving from one state to another is valid.
func IsTransitionAllowed(from, to State) bool {
	if to == StateIdle {
		return true
	}

	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}

	for _, state := range allowed {
		if state == to {
			return true
		}
	}

	return false
}
