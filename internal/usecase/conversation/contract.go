package conversation

import (
	domconv "github.com/kailas-cloud/grantix/internal/domain/conversation"
)

// Store is the session persistence contract.
type Store interface {
	Get(id string) (domconv.Session, bool)
	Put(sess domconv.Session)
}
