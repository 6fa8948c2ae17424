package conversation

import (
	"fmt"
	"time"
)

// Role identifies the author of a stored conversation turn.
type Role string

// Role constants.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// IsValid checks if the role is one of the supported values.
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Turn is one immutable conversation entry.
type Turn struct {
	role     Role
	content  string
	citedIDs []string
	at       time.Time
}

// NewTurn validates and creates a Turn.
func NewTurn(role Role, content string, citedIDs []string, at time.Time) (Turn, error) {
	if !role.IsValid() {
		return Turn{}, fmt.Errorf("invalid turn role %q", role)
	}
	if content == "" {
		return Turn{}, fmt.Errorf("turn content is required")
	}
	return Turn{role: role, content: content, citedIDs: citedIDs, at: at}, nil
}

// Role returns the turn author.
func (t Turn) Role() Role { return t.role }

// Content returns the turn text.
func (t Turn) Content() string { return t.content }

// CitedIDs returns the record ids cited by this turn.
func (t Turn) CitedIDs() []string { return t.citedIDs }

// At returns the turn timestamp.
func (t Turn) At() time.Time { return t.at }

// Truncated returns a copy with content cut to at most maxChars runes.
// Non-positive maxChars leaves the turn unchanged.
func (t Turn) Truncated(maxChars int) Turn {
	if maxChars <= 0 {
		return t
	}
	runes := []rune(t.content)
	if len(runes) <= maxChars {
		return t
	}
	out := t
	out.content = string(runes[:maxChars])
	return out
}

// Session is an ordered, size-bounded turn history for one conversation.
type Session struct {
	id         string
	turns      []Turn
	lastActive time.Time
}

// NewSession creates an empty session.
func NewSession(id string) (Session, error) {
	if id == "" {
		return Session{}, fmt.Errorf("session id is required")
	}
	return Session{id: id}, nil
}

// Reconstruct creates a session from stored state without validation.
func Reconstruct(id string, turns []Turn, lastActive time.Time) Session {
	return Session{id: id, turns: turns, lastActive: lastActive}
}

// ID returns the session identifier.
func (s Session) ID() string { return s.id }

// Len returns the number of retained turns.
func (s Session) Len() int { return len(s.turns) }

// LastActive returns the timestamp of the most recent append.
func (s Session) LastActive() time.Time { return s.lastActive }

// Turns returns a copy of all retained turns, oldest first.
func (s Session) Turns() []Turn {
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Last returns a copy of the most recent n turns, oldest first.
func (s Session) Last(n int) []Turn {
	if n <= 0 || len(s.turns) == 0 {
		return nil
	}
	if n > len(s.turns) {
		n = len(s.turns)
	}
	out := make([]Turn, n)
	copy(out, s.turns[len(s.turns)-n:])
	return out
}

// WithTurn returns a session with the turn appended and the oldest turns
// evicted beyond storageBound. Eviction is strict FIFO: turns only ever
// drop off the front.
func (s Session) WithTurn(t Turn, storageBound int) Session {
	turns := make([]Turn, 0, len(s.turns)+1)
	turns = append(turns, s.turns...)
	turns = append(turns, t)
	if storageBound > 0 && len(turns) > storageBound {
		turns = turns[len(turns)-storageBound:]
	}
	return Session{id: s.id, turns: turns, lastActive: t.At()}
}
