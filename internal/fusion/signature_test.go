package fusion

import (
	"testing"

	"github.com/sohaib162/forsa-smart-chatbot/internal/domain/document"
)

func signatureDocs() []document.Document {
	return []document.Document{
		{
			ID:            "gamers",
			ProductFamily: "gamers_offer",
			SearchText:    "offre gamers ping faible jeux en ligne serveurs dédiés",
			Position:      0,
		},
		{
			ID:            "fibre",
			ProductFamily: "idoom_fibre",
			SearchText:    "offre fibre internet très haut débit résidentiel",
			Position:      1,
		},
	}
}

func TestSignatureBoostDistinctiveTerm(t *testing.T) {
	b := NewSignatureBooster(signatureDocs())

	// "ping" only ever occurs in the gamers document.
	boost := b.Boost("gamers", []string{"ping", "faible"}, "")
	if boost <= 1 {
		t.Fatalf("boost = %v, want > 1 for a signature term", boost)
	}
	if boost > 2 {
		t.Fatalf("boost = %v, want capped at 2", boost)
	}
}

func TestSignatureBoostSharedTermIgnored(t *testing.T) {
	b := NewSignatureBooster(signatureDocs())

	// "offre" occurs in both documents, so it signs neither.
	if boost := b.Boost("fibre", []string{"offre"}, ""); boost != 1 {
		t.Fatalf("boost = %v, want 1 for a shared term", boost)
	}
}

func TestSignatureBoostCap(t *testing.T) {
	b := NewSignatureBooster(signatureDocs())

	tokens := []string{"gamers", "ping", "faible", "jeux", "serveurs", "dédiés", "ligne"}
	if boost := b.Boost("gamers", tokens, ""); boost > 2 {
		t.Fatalf("boost = %v, want capped at 2", boost)
	}
}

func TestSignatureBoostEntityMismatchDamping(t *testing.T) {
	b := NewSignatureBooster(signatureDocs())

	matched := b.Boost("gamers", []string{"ping"}, "gamers_offer")
	damped := b.Boost("gamers", []string{"ping"}, "idoom_fibre")
	if damped >= matched {
		t.Fatalf("damped boost %v should be below matched boost %v", damped, matched)
	}
	if damped <= 1 {
		t.Fatalf("damped boost = %v, want still above 1", damped)
	}
}

func TestSignatureBoostUnknownDoc(t *testing.T) {
	b := NewSignatureBooster(signatureDocs())

	if boost := b.Boost("missing", []string{"ping"}, ""); boost != 1 {
		t.Fatalf("boost = %v, want 1 for an unknown document", boost)
	}
}
