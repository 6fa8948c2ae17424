// Package routing picks the model tier for a turn. Selection is pure: the
// tier follows from the intent and the retrieval result count alone.
package routing

import (
	domintent "github.com/kailas-cloud/grantix/internal/domain/intent"
	"github.com/kailas-cloud/grantix/internal/domain/tier"
)

// DefaultExplainEscalationThreshold is the matched-result count above which
// an explain turn moves to the advanced tier.
const DefaultExplainEscalationThreshold = 5

// Selector maps a classified turn to a model tier.
type Selector struct {
	explainEscalationThreshold int
}

// NewSelector creates a selector. Non-positive thresholds take the default.
func NewSelector(explainEscalationThreshold int) *Selector {
	if explainEscalationThreshold <= 0 {
		explainEscalationThreshold = DefaultExplainEscalationThreshold
	}
	return &Selector{explainEscalationThreshold: explainEscalationThreshold}
}

// Select returns the tier for a turn. Compare and recommend always escalate;
// explain escalates only when it has to synthesize across many matched
// records. Everything else stays on the standard tier.
func (s *Selector) Select(it domintent.Intent, resultCount int) tier.Tier {
	switch it {
	case domintent.Compare, domintent.Recommend:
		return tier.Advanced
	case domintent.Explain:
		if resultCount > s.explainEscalationThreshold {
			return tier.Advanced
		}
		return tier.Standard
	default:
		return tier.Standard
	}
}
