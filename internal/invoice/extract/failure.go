package extract

import "fmt"

// Failure reasons surfaced to the batch summary and audit views.
const (
	ReasonUnreadable   = "unreadable document"
	ReasonUnresolvable = "field unresolvable"
)

// Failure describes why a document could not be turned into an invoice
// record. It is a recoverable per-document outcome, not a run error:
// the batch keeps processing and reports the failure with its reason.
type Failure struct {
	// Field names the required field that could not be resolved, or
	// "document" when the text as a whole was unreadable.
	Field   string
	Reason  string
	Snippet string
}

// Error implements error for callers that propagate failures.
func (f *Failure) Error() string {
	if f == nil {
		return "extract: <nil failure>"
	}
	return fmt.Sprintf("extract: %s: %s", f.Field, f.Reason)
}

func unresolvable(field, text string) *Failure {
	return &Failure{Field: field, Reason: ReasonUnresolvable, Snippet: snippet(text)}
}

// snippet returns a short diagnostic prefix of the raw text.
func snippet(text string) string {
	const max = 160
	runes := []rune(text)
	if len(runes) > max {
		runes = runes[:max]
	}
	return string(runes)
}
