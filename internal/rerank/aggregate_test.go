package rerank

import (
	"testing"

	"github.com/sohaib162/forsa-smart-chatbot/internal/domain/passage"
)

func TestAggregateDocuments(t *testing.T) {
	passages := []passage.Passage{
		{ID: "p0", DocID: "fibre"},
		{ID: "p1", DocID: "fibre"},
		{ID: "p2", DocID: "adsl"},
	}
	results := []Result{
		{Index: 0, Score: 0.9},
		{Index: 1, Score: 0.7},
		{Index: 2, Score: 0.1},
	}
	hybrid := map[string]float64{"fibre": 0.8, "adsl": 0.4}
	positions := map[string]int{"fibre": 0, "adsl": 1}

	scored := AggregateDocuments(passages, results, hybrid, positions)
	if len(scored) != 2 {
		t.Fatalf("documents = %d, want 2", len(scored))
	}
	if scored[0].ID != "fibre" {
		t.Fatalf("top = %s, want fibre", scored[0].ID)
	}
	if scored[0].Score <= scored[1].Score {
		t.Fatalf("scores not descending: %v", scored)
	}
	// Best passage (norm 1) + best hybrid (norm 1) + mean of top passages.
	if scored[0].Score > 1 {
		t.Fatalf("score = %v, want weighted combination at most 1", scored[0].Score)
	}
}

func TestAggregateSinglePassagePerDoc(t *testing.T) {
	passages := []passage.Passage{
		{ID: "p0", DocID: "a"},
		{ID: "p1", DocID: "b"},
	}
	results := []Result{
		{Index: 0, Score: 0.2},
		{Index: 1, Score: 0.2},
	}
	hybrid := map[string]float64{"a": 0.5, "b": 0.5}
	positions := map[string]int{"a": 0, "b": 1}

	scored := AggregateDocuments(passages, results, hybrid, positions)
	if len(scored) != 2 {
		t.Fatalf("documents = %d, want 2", len(scored))
	}
	// Identical scores fall back to corpus order.
	if scored[0].ID != "a" || scored[1].ID != "b" {
		t.Fatalf("tie-break order = %v", scored)
	}
}

func TestAggregateEmpty(t *testing.T) {
	if scored := AggregateDocuments(nil, nil, nil, nil); len(scored) != 0 {
		t.Fatalf("scored = %v, want empty", scored)
	}
}
