// Package conversation manages bounded per-session turn history: what gets
// stored for audit and what gets sent to the model are bounded separately.
package conversation

import (
	"fmt"

	"github.com/google/uuid"

	domconv "github.com/kailas-cloud/grantix/internal/domain/conversation"
)

// Bound defaults applied by New for unset config fields.
const (
	DefaultStorageBound = 20
	DefaultContextBound = 10
	DefaultMaxTurnChars = 2000
)

// Config bounds the conversation state.
type Config struct {
	// StorageBound is how many turns a session retains.
	StorageBound int
	// ContextBound is how many turns the model context includes.
	ContextBound int
	// MaxTurnChars truncates each turn's content, at storage and again at
	// context assembly.
	MaxTurnChars int
}

// Manager owns session lifecycle and bounded history.
type Manager struct {
	store Store
	cfg   Config
}

// New validates the bounds and creates a manager. The storage bound can
// never be tighter than the context bound; that is checked here, at
// construction, not assumed later.
func New(store Store, cfg Config) (*Manager, error) {
	if cfg.StorageBound <= 0 {
		cfg.StorageBound = DefaultStorageBound
	}
	if cfg.ContextBound <= 0 {
		cfg.ContextBound = DefaultContextBound
	}
	if cfg.MaxTurnChars <= 0 {
		cfg.MaxTurnChars = DefaultMaxTurnChars
	}
	if cfg.StorageBound < cfg.ContextBound {
		return nil, fmt.Errorf("storage bound %d is tighter than context bound %d",
			cfg.StorageBound, cfg.ContextBound)
	}
	return &Manager{store: store, cfg: cfg}, nil
}

// EnsureSession returns the session for id, creating a fresh one when the
// id is empty or no longer stored. A presented id is kept on recreation so
// clients survive session expiry.
func (m *Manager) EnsureSession(id string) (domconv.Session, error) {
	if id != "" {
		if sess, ok := m.store.Get(id); ok {
			return sess, nil
		}
	} else {
		id = uuid.NewString()
	}
	sess, err := domconv.NewSession(id)
	if err != nil {
		return domconv.Session{}, fmt.Errorf("create session: %w", err)
	}
	m.store.Put(sess)
	return sess, nil
}

// Append truncates the turn's content, appends it to the session, and
// evicts oldest-first past the storage bound.
func (m *Manager) Append(sessionID string, turn domconv.Turn) (domconv.Session, error) {
	sess, ok := m.store.Get(sessionID)
	if !ok {
		var err error
		sess, err = domconv.NewSession(sessionID)
		if err != nil {
			return domconv.Session{}, fmt.Errorf("create session: %w", err)
		}
	}
	sess = sess.WithTurn(turn.Truncated(m.cfg.MaxTurnChars), m.cfg.StorageBound)
	m.store.Put(sess)
	return sess, nil
}

// Context returns the model-facing history: the last contextBound turns,
// re-truncated independently of what storage holds.
func (m *Manager) Context(sessionID string) []domconv.Turn {
	sess, ok := m.store.Get(sessionID)
	if !ok {
		return nil
	}
	turns := sess.Last(m.cfg.ContextBound)
	for i := range turns {
		turns[i] = turns[i].Truncated(m.cfg.MaxTurnChars)
	}
	return turns
}

// HasHistory reports whether the session already holds turns.
func (m *Manager) HasHistory(sessionID string) bool {
	sess, ok := m.store.Get(sessionID)
	return ok && sess.Len() > 0
}
