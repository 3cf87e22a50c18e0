package sparse

import (
	"testing"

	"go.uber.org/zap"

	"github.com/sohaib162/forsa-smart-chatbot/internal/domain/document"
	"github.com/sohaib162/forsa-smart-chatbot/internal/domain/retrieval"
)

func testDocs() []document.Document {
	return []document.Document{
		{
			ID:         "fibre-offer",
			SearchText: "offre idoom fibre débit 300 mbps internet très haut débit résidentiel",
			Keywords:   []string{"fibre", "débit"},
			Position:   0,
		},
		{
			ID:         "adsl-offer",
			SearchText: "offre idoom adsl internet haut débit ligne téléphonique",
			Keywords:   []string{"adsl"},
			Position:   1,
		},
		{
			ID:         "payment-doc",
			SearchText: "paiement électronique carte eddahabia facture en ligne avantages",
			Keywords:   []string{"paiement", "eddahabia"},
			Position:   2,
		},
	}
}

func TestSearchRanksLexicalMatches(t *testing.T) {
	idx := NewIndex(testDocs(), Config{}, zap.NewNop())

	scored, _ := idx.Search("paiement carte eddahabia", 10, nil)
	if len(scored) == 0 {
		t.Fatal("expected results")
	}
	if scored[0].ID != "payment-doc" {
		t.Fatalf("top = %s, want payment-doc", scored[0].ID)
	}
}

func TestSearchKeywordBoostOutweighsProse(t *testing.T) {
	docs := []document.Document{
		{ID: "tagged", SearchText: "offre internet", Keywords: []string{"fibre"}, Position: 0},
		{ID: "prose", SearchText: "offre internet fibre", Position: 1},
	}
	idx := NewIndex(docs, Config{}, zap.NewNop())

	scored, _ := idx.Search("fibre", 10, nil)
	if len(scored) != 2 {
		t.Fatalf("results = %d, want 2", len(scored))
	}
	if scored[0].ID != "tagged" {
		t.Fatalf("top = %s, want keyword-boosted doc", scored[0].ID)
	}
}

func TestSearchSubsetRestriction(t *testing.T) {
	idx := NewIndex(testDocs(), Config{}, zap.NewNop())

	scored, _ := idx.Search("offre internet débit", 10, []string{"adsl-offer"})
	for _, s := range scored {
		if s.ID != "adsl-offer" {
			t.Fatalf("subset leaked: got %s", s.ID)
		}
	}
	if len(scored) != 1 {
		t.Fatalf("results = %d, want 1", len(scored))
	}
}

func TestSearchSubsetFallbackToFullCorpus(t *testing.T) {
	idx := NewIndex(testDocs(), Config{}, zap.NewNop())

	// The subset document has no overlap with the query, so the index must
	// fall back to scoring everything.
	scored, _ := idx.Search("paiement eddahabia", 10, []string{"fibre-offer"})
	if len(scored) == 0 {
		t.Fatal("expected full-corpus fallback results")
	}
	if scored[0].ID != "payment-doc" {
		t.Fatalf("top = %s, want payment-doc", scored[0].ID)
	}
}

func TestSearchBilingualExpansion(t *testing.T) {
	idx := NewIndex(testDocs(), Config{}, zap.NewNop())

	scored, _ := idx.Search("الألياف", 10, nil)
	if len(scored) == 0 {
		t.Fatal("expected Arabic query to reach French documents via synonyms")
	}
	if scored[0].ID != "fibre-offer" {
		t.Fatalf("top = %s, want fibre-offer", scored[0].ID)
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	idx := NewIndex(testDocs(), Config{}, zap.NewNop())

	scored, conf := idx.Search("", 10, nil)
	if len(scored) != 0 {
		t.Fatalf("results = %d, want 0", len(scored))
	}
	if conf != retrieval.ConfidenceLow {
		t.Fatalf("confidence = %s, want low", conf)
	}
}

func TestSearchTopKCap(t *testing.T) {
	idx := NewIndex(testDocs(), Config{}, zap.NewNop())

	scored, _ := idx.Search("offre internet", 1, nil)
	if len(scored) != 1 {
		t.Fatalf("results = %d, want topK cap 1", len(scored))
	}
}

func TestConfidenceBands(t *testing.T) {
	idx := NewIndex(testDocs(), Config{HighScore: 0.1, HighRatio: 0.1}, zap.NewNop())

	_, conf := idx.Search("eddahabia", 10, nil)
	if conf != retrieval.ConfidenceHigh {
		t.Fatalf("confidence = %s, want high with permissive gates", conf)
	}
}
