package budget

// Budget is a token quota snapshot for one provider API.
// A zero limit means no quota is enforced; remaining is then -1.
type Budget struct {
	tokensLimit     int64
	tokensRemaining int64
	isExhausted     bool
	resetsAt        int64 // unix millis, converted to ISO 8601 at transport layer
}

// New creates a Budget snapshot.
func New(limit, remaining int64, isExhausted bool, resetsAt int64) Budget {
	return Budget{
		tokensLimit:     limit,
		tokensRemaining: remaining,
		isExhausted:     isExhausted,
		resetsAt:        resetsAt,
	}
}

// Unlimited creates the snapshot used when no quota is configured.
func Unlimited() Budget {
	return Budget{tokensRemaining: -1}
}

// TokensLimit returns the token cap, 0 when unlimited.
func (b Budget) TokensLimit() int64 { return b.tokensLimit }

// TokensRemaining returns tokens left in the current period, -1 when unlimited.
func (b Budget) TokensRemaining() int64 { return b.tokensRemaining }

// IsExhausted reports whether the quota is spent.
func (b Budget) IsExhausted() bool { return b.isExhausted }

// ResetsAt returns the quota reset timestamp (unix millis), 0 when unlimited.
func (b Budget) ResetsAt() int64 { return b.resetsAt }
