package bot

// Command constants for Telegram bot commands.
const (
	CommandStart     = "/start"
	CommandHelp      = "/help"
	CommandMenu      = "/menu"
	CommandSpellbook = "/spellbook"
	CommandSettings  = "/settings"
	CommandCancel    = "/cancel"
)
