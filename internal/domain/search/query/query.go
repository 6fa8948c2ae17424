package query

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/grantix/internal/domain/search/predicate"
)

// Search parameter limits.
const (
	// MaxTextLength is the maximum allowed free-text length.
	MaxTextLength = 1024
	DefaultLimit  = 10
	MaxLimit      = 50
	MaxOffset     = 10000
)

// Query is a validated retrieval request: optional free text, a predicate
// set, a result limit, and a pagination offset decoded from an opaque cursor.
// Both text and predicates may be empty (default listing).
type Query struct {
	text       string
	predicates predicate.Set
	limit      int
	offset     int
}

// New validates and normalizes query parameters.
// Defaults: limit=10, clamped to MaxLimit. An empty cursor means offset 0.
func New(text string, preds predicate.Set, limit int, cursor string) (Query, error) {
	text = strings.TrimSpace(text)
	if len(text) > MaxTextLength {
		return Query{}, fmt.Errorf("query text too long (max %d chars)", MaxTextLength)
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	offset, err := DecodeCursor(cursor)
	if err != nil {
		return Query{}, err
	}

	return Query{
		text:       text,
		predicates: preds,
		limit:      limit,
		offset:     offset,
	}, nil
}

// Text returns the free-text query.
func (q *Query) Text() string { return q.text }

// HasText reports whether free text is present.
func (q *Query) HasText() bool { return q.text != "" }

// Predicates returns the filter predicate set.
func (q *Query) Predicates() predicate.Set { return q.predicates }

// Limit returns the maximum results to return.
func (q *Query) Limit() int { return q.limit }

// Offset returns the pagination offset.
func (q *Query) Offset() int { return q.offset }

// EncodeCursor produces an opaque cursor for a result offset.
// Zero and negative offsets encode to the empty cursor.
func EncodeCursor(offset int) string {
	if offset <= 0 {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.Itoa(offset)))
}

// DecodeCursor parses an opaque cursor back into an offset.
func DecodeCursor(cursor string) (int, error) {
	if cursor == "" {
		return 0, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return 0, fmt.Errorf("invalid cursor")
	}
	offset, err := strconv.Atoi(string(raw))
	if err != nil || offset < 0 || offset > MaxOffset {
		return 0, fmt.Errorf("invalid cursor")
	}
	return offset, nil
}
