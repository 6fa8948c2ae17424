package ranker

import (
	"sort"

	"github.com/kailas-cloud/grantix/internal/domain/search/result"
)

// fused is the mutable per-record ranking state between fusion and output.
type fused struct {
	id         string
	similarity float64
	fromFilter bool
	score      float64
	boosts     []string
}

// fuseRRF merges the similarity and filter candidate lists with Reciprocal
// Rank Fusion: a record at zero-based rank r in one list contributes
// 1/(k+r+1), and contributions sum for records present in both. The output
// is ordered by fused score descending, ids ascending on equal scores.
func fuseRRF(similarity, filter []result.Match, k int) []*fused {
	merged := make(map[string]*fused, len(similarity)+len(filter))
	entries := make([]*fused, 0, len(similarity)+len(filter))

	for rank, m := range similarity {
		e := &fused{
			id:         m.ID(),
			similarity: m.Score(),
			score:      1.0 / float64(k+rank+1),
		}
		merged[m.ID()] = e
		entries = append(entries, e)
	}

	for rank, m := range filter {
		contribution := 1.0 / float64(k+rank+1)
		if e, ok := merged[m.ID()]; ok {
			e.score += contribution
			e.fromFilter = true
			continue
		}
		e := &fused{id: m.ID(), fromFilter: true, score: contribution}
		merged[m.ID()] = e
		entries = append(entries, e)
	}

	sortFused(entries)
	return entries
}

// sortFused orders entries by fused score descending, then id ascending so
// equal scores rank deterministically.
func sortFused(entries []*fused) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].score != entries[j].score {
			return entries[i].score > entries[j].score
		}
		return entries[i].id < entries[j].id
	})
}
