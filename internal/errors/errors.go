package errors

import "fmt"

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// AppError carries an error code, a log message and the text shown to the
// user in chat.
type AppError struct {
	Code        string
	Message     string
	UserMessage string
	Severity    Severity
	Retryable   bool
	cause       error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

// NewCatalogError reports a missing or corrupt catalog. Critical: the
// process must not serve traffic without compendium data.
func NewCatalogError(cause error) *AppError {
	return &AppError{
		Code:        "E100",
		Message:     fmt.Sprintf("catalog error: %v", cause),
		UserMessage: "The spell compendium is unavailable right now. Please try again later.",
		Severity:    SeverityCritical,
		Retryable:   false,
		cause:       cause,
	}
}

// NewSpellNotFoundError reports a lookup for an unknown spell id.
func NewSpellNotFoundError(spellID int) *AppError {
	return &AppError{
		Code:        "E110",
		Message:     fmt.Sprintf("spell %d not found in catalog", spellID),
		UserMessage: "Spell not found.",
		Severity:    SeverityLow,
		Retryable:   false,
		cause:       nil,
	}
}

// NewStoreError reports a failed database read or write. The triggering
// mutation is dropped whole; the user may retry.
func NewStoreError(cause error) *AppError {
	return &AppError{
		Code:        "E200",
		Message:     fmt.Sprintf("store error: %v", cause),
		UserMessage: "A temporary problem occurred, nothing was saved. Please try again.",
		Severity:    SeverityHigh,
		Retryable:   true,
		cause:       cause,
	}
}

// NewInvalidInputError reports an update the current conversational state
// does not accept. State is left unchanged.
func NewInvalidInputError(msg string) *AppError {
	return &AppError{
		Code:        "E400",
		Message:     msg,
		UserMessage: "Please use the menu buttons, or send /menu to start over.",
		Severity:    SeverityLow,
		Retryable:   false,
		cause:       nil,
	}
}
