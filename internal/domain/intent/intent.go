package intent

// Intent is the conversational intent of a user utterance.
type Intent string

// Intent constants. The set is closed; classification assigns exactly one per turn.
const (
	// Search is the fallback retrieval intent.
	Search Intent = "search"
	// LookupByID asks for one announcement by its identifier.
	LookupByID Intent = "lookup_by_id"
	// Explain asks for a definition or explanation of a domain term.
	Explain Intent = "explain"
	// Compare asks to contrast two or more announcements.
	Compare Intent = "compare"
	// Recommend asks for a suggestion tailored to the user's situation.
	Recommend Intent = "recommend"
	// Greeting is small talk with no retrieval value.
	Greeting Intent = "greeting"
	// ClarificationNeeded marks an utterance too thin to act on.
	ClarificationNeeded Intent = "clarification_needed"
	// OutOfScope marks an utterance unrelated to the grant catalog.
	OutOfScope Intent = "out_of_scope"
)

// IsValid checks if the intent is one of the supported values.
func (i Intent) IsValid() bool {
	switch i {
	case Search, LookupByID, Explain, Compare, Recommend,
		Greeting, ClarificationNeeded, OutOfScope:
		return true
	}
	return false
}

// Analytical reports whether the intent carries enough signal to bypass
// the low-signal clarification check regardless of utterance length.
func (i Intent) Analytical() bool {
	return i == Compare || i == Explain || i == Recommend
}

// Retrieval reports whether the intent warrants running catalog retrieval
// before the first model call.
func (i Intent) Retrieval() bool {
	return i == Search || i == Compare || i == Explain || i == Recommend
}
