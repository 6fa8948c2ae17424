package metrics

// Metrics holds provider API consumption for one time period.
type Metrics struct {
	requests int64
	tokens   int64
}

// New creates a Metrics snapshot.
func New(requests, tokens int64) Metrics {
	return Metrics{requests: requests, tokens: tokens}
}

// Requests returns the number of provider API calls made.
func (m Metrics) Requests() int64 { return m.requests }

// Tokens returns the total tokens billed for those calls.
func (m Metrics) Tokens() int64 { return m.tokens }
