// Package session keeps active conversation sessions in process memory.
// Sessions are ephemeral working state; losing one on restart only costs
// the follow-up context of an ongoing conversation.
package session

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/kailas-cloud/grantix/internal/domain/conversation"
)

// Store is an LRU-bounded session holder with idle expiry.
type Store struct {
	cache *expirable.LRU[string, conversation.Session]
}

// New creates a store holding at most maxSessions entries, each expiring
// ttl after its last write. A non-positive maxSessions leaves the size
// unbounded; a non-positive ttl disables expiry.
func New(maxSessions int, ttl time.Duration) *Store {
	return &Store{
		cache: expirable.NewLRU[string, conversation.Session](maxSessions, nil, ttl),
	}
}

// Get returns the stored session, or false when absent or expired.
func (s *Store) Get(id string) (conversation.Session, bool) {
	return s.cache.Get(id)
}

// Put stores the session under its own id, refreshing the expiry.
func (s *Store) Put(sess conversation.Session) {
	s.cache.Add(sess.ID(), sess)
}

// Delete removes the session, if present.
func (s *Store) Delete(id string) {
	s.cache.Remove(id)
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	return s.cache.Len()
}
