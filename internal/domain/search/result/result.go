package result

import "time"

// Match is a raw (id, score, order key) triple from one retrieval source.
// Similarity matches carry a score; filter matches carry an order key.
type Match struct {
	id       string
	score    float64
	orderKey time.Time
}

// NewMatch creates a retrieval source match.
func NewMatch(id string, score float64, orderKey time.Time) Match {
	return Match{id: id, score: score, orderKey: orderKey}
}

// ID returns the record identifier.
func (m Match) ID() string { return m.id }

// Score returns the raw similarity score (0 for filter-source matches).
func (m Match) Score() float64 { return m.score }

// OrderKey returns the secondary ordering timestamp (zero for similarity matches).
func (m Match) OrderKey() time.Time { return m.orderKey }

// Result is a fused search hit.
type Result struct {
	id         string
	similarity float64
	fromFilter bool
	fused      float64
	boosts     []string
}

// New creates a fused result.
func New(id string, similarity float64, fromFilter bool, fused float64, boosts []string) Result {
	return Result{
		id:         id,
		similarity: similarity,
		fromFilter: fromFilter,
		fused:      fused,
		boosts:     boosts,
	}
}

// ID returns the record identifier.
func (r Result) ID() string { return r.id }

// Similarity returns the raw similarity score in [0, 1]
// (0 when the record surfaced from the filter source alone).
func (r Result) Similarity() float64 { return r.similarity }

// FromFilter reports whether the record matched the structured filter source.
func (r Result) FromFilter() bool { return r.fromFilter }

// Fused returns the final ranking score after fusion and boosts.
func (r Result) Fused() float64 { return r.fused }

// Boosts returns the applied boost reasons, in application order.
func (r Result) Boosts() []string { return r.boosts }
