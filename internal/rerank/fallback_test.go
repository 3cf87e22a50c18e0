package rerank

import (
	"context"
	"testing"
)

func TestHeuristicRerank(t *testing.T) {
	h := NewHeuristicScorer()

	docs := []string{
		"le prix de idoom fibre est de 1600 da par mois",
		"conditions de résiliation du contrat adsl",
		"idoom fibre offre un débit de 300 mbps",
	}
	results, err := h.Rerank(context.Background(), "prix idoom fibre", docs, 3)
	if err != nil {
		t.Fatalf("Rerank: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	if results[0].Index != 0 {
		t.Fatalf("top index = %d, want the passage covering all query tokens", results[0].Index)
	}
	if results[len(results)-1].Index != 1 {
		t.Fatalf("last index = %d, want the unrelated passage", results[len(results)-1].Index)
	}
}

func TestHeuristicRerankTopN(t *testing.T) {
	h := NewHeuristicScorer()

	results, err := h.Rerank(context.Background(), "fibre", []string{"fibre a", "fibre b", "adsl"}, 2)
	if err != nil {
		t.Fatalf("Rerank: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want topN cap 2", len(results))
	}
}

func TestHeuristicRerankEmptyQuery(t *testing.T) {
	h := NewHeuristicScorer()

	results, err := h.Rerank(context.Background(), "", []string{"doc"}, 5)
	if err != nil {
		t.Fatalf("Rerank: %v", err)
	}
	if results != nil {
		t.Fatalf("results = %v, want nil", results)
	}
}
