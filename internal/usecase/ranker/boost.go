package ranker

import (
	"strings"

	"github.com/kailas-cloud/grantix/internal/domain/record"
)

// Boost reason tags reported on fused results.
const (
	BoostTitleExact   = "title_exact"
	BoostTitlePartial = "title_partial"
	BoostOrganization = "organization"
)

// applyBoosts multiplies fused scores for records whose title or issuing
// organization matches the query text. An exact title match takes the exact
// factor, a substring match the partial one; the organization factor stacks
// independently on either.
func applyBoosts(entries []*fused, text string, records map[string]record.Record, exact, partial, org float64) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	for _, e := range entries {
		rec, ok := records[e.id]
		if !ok {
			continue
		}

		switch {
		case strings.EqualFold(rec.Title(), text):
			e.score *= exact
			e.boosts = append(e.boosts, BoostTitleExact)
		case containsFold(rec.Title(), text):
			e.score *= partial
			e.boosts = append(e.boosts, BoostTitlePartial)
		}

		if containsFold(rec.Organization(), text) {
			e.score *= org
			e.boosts = append(e.boosts, BoostOrganization)
		}
	}
}

// containsFold reports a case-insensitive substring match on non-empty input.
func containsFold(haystack, needle string) bool {
	if haystack == "" || needle == "" {
		return false
	}
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
