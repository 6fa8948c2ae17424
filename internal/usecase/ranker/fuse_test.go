package ranker

import (
	"math"
	"testing"
	"time"

	"github.com/kailas-cloud/grantix/internal/domain/search/result"
)

func simMatch(id string, score float64) result.Match {
	return result.NewMatch(id, score, time.Time{})
}

func filterMatch(id string) result.Match {
	return result.NewMatch(id, 0, time.Now())
}

func fusedIDs(entries []*fused) []string {
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.id)
	}
	return ids
}

// --- Fusion tests ---

func TestFuseRRF_ScoreFormula(t *testing.T) {
	sim := []result.Match{simMatch("a", 0.9)}
	filter := []result.Match{filterMatch("a")}

	entries := fuseRRF(sim, filter, 60)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	// "a" is rank 0 in both: 1/(60+1) + 1/(60+1) = 2/61
	expected := 2.0 / 61.0
	if math.Abs(entries[0].score-expected) > 1e-10 {
		t.Errorf("expected score %f, got %f", expected, entries[0].score)
	}
}

func TestFuseRRF_DisjointLists(t *testing.T) {
	sim := []result.Match{simMatch("a", 0.9), simMatch("b", 0.8)}
	filter := []result.Match{filterMatch("c"), filterMatch("d")}

	entries := fuseRRF(sim, filter, 60)
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(entries))
	}

	seen := make(map[string]bool)
	for _, e := range entries {
		if seen[e.id] {
			t.Errorf("duplicate id %s", e.id)
		}
		seen[e.id] = true
	}
	for _, id := range []string{"a", "b", "c", "d"} {
		if !seen[id] {
			t.Errorf("missing entry %s", id)
		}
	}
}

func TestFuseRRF_OverlapOutranksSingleSource(t *testing.T) {
	sim := []result.Match{simMatch("a", 0.9), simMatch("b", 0.8), simMatch("c", 0.7)}
	filter := []result.Match{filterMatch("b"), filterMatch("d"), filterMatch("a")}

	entries := fuseRRF(sim, filter, 60)
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(entries))
	}

	// "a" and "b" appear in both lists, so they outrank single-source entries.
	if entries[0].id != "a" && entries[0].id != "b" {
		t.Errorf("expected 'a' or 'b' first, got %s", entries[0].id)
	}
	overlapScore := entries[0].score
	var singleScore float64
	for _, e := range entries {
		if e.id == "c" || e.id == "d" {
			singleScore = e.score
			break
		}
	}
	if overlapScore <= singleScore {
		t.Errorf("overlap score %f should be > single-source score %f", overlapScore, singleScore)
	}
}

func TestFuseRRF_EqualScoresOrderByID(t *testing.T) {
	// Symmetric ranks produce exact score ties: (a, b) at 1/61, (c, d) at 1/62.
	sim := []result.Match{simMatch("b", 0.9), simMatch("d", 0.8)}
	filter := []result.Match{filterMatch("a"), filterMatch("c")}

	entries := fuseRRF(sim, filter, 60)
	got := fusedIDs(entries)
	want := []string{"a", "b", "c", "d"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}
}

func TestFuseRRF_Deterministic(t *testing.T) {
	sim := []result.Match{
		simMatch("e", 0.9), simMatch("a", 0.8), simMatch("c", 0.7), simMatch("g", 0.6),
	}
	filter := []result.Match{
		filterMatch("b"), filterMatch("f"), filterMatch("a"), filterMatch("d"),
	}

	first := fusedIDs(fuseRRF(sim, filter, 60))
	for i := 0; i < 20; i++ {
		got := fusedIDs(fuseRRF(sim, filter, 60))
		if len(got) != len(first) {
			t.Fatalf("run %d: expected %d entries, got %d", i, len(first), len(got))
		}
		for j := range first {
			if got[j] != first[j] {
				t.Fatalf("run %d: order changed at index %d: %v vs %v", i, j, got, first)
			}
		}
	}
}

func TestFuseRRF_EmptyInputs(t *testing.T) {
	t.Run("both empty", func(t *testing.T) {
		entries := fuseRRF(nil, nil, 60)
		if len(entries) != 0 {
			t.Fatalf("expected 0 entries, got %d", len(entries))
		}
	})

	t.Run("similarity empty", func(t *testing.T) {
		entries := fuseRRF(nil, []result.Match{filterMatch("a")}, 60)
		if len(entries) != 1 {
			t.Fatalf("expected 1 entry, got %d", len(entries))
		}
		if !entries[0].fromFilter {
			t.Error("expected fromFilter=true for filter-source entry")
		}
	})

	t.Run("filter empty", func(t *testing.T) {
		entries := fuseRRF([]result.Match{simMatch("a", 0.9)}, nil, 60)
		if len(entries) != 1 {
			t.Fatalf("expected 1 entry, got %d", len(entries))
		}
		if entries[0].fromFilter {
			t.Error("expected fromFilter=false for similarity-only entry")
		}
	})
}

func TestFuseRRF_PreservesSimilarityAndSource(t *testing.T) {
	sim := []result.Match{simMatch("a", 0.87)}
	filter := []result.Match{filterMatch("a"), filterMatch("b")}

	entries := fuseRRF(sim, filter, 60)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	byID := make(map[string]*fused)
	for _, e := range entries {
		byID[e.id] = e
	}
	if byID["a"].similarity != 0.87 {
		t.Errorf("expected similarity 0.87 carried through, got %f", byID["a"].similarity)
	}
	if !byID["a"].fromFilter {
		t.Error("expected overlap entry to carry fromFilter=true")
	}
	if byID["b"].similarity != 0 {
		t.Errorf("expected 0 similarity for filter-only entry, got %f", byID["b"].similarity)
	}
}

func TestFuseRRF_SortedByScore(t *testing.T) {
	sim := []result.Match{simMatch("a", 0.9), simMatch("b", 0.8)}
	filter := []result.Match{filterMatch("c"), filterMatch("a")}

	entries := fuseRRF(sim, filter, 60)
	for i := 1; i < len(entries); i++ {
		if entries[i].score > entries[i-1].score {
			t.Errorf("entries not sorted: %f > %f at index %d",
				entries[i].score, entries[i-1].score, i)
		}
	}
}
