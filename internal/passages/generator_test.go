package passages

import (
	"testing"

	"go.uber.org/zap"

	"github.com/sohaib162/forsa-smart-chatbot/internal/domain/document"
	"github.com/sohaib162/forsa-smart-chatbot/internal/domain/passage"
)

func testDoc() document.Document {
	return document.Document{
		ID:             "fibre-300",
		ProductFamily:  "idoom_fibre",
		TitleFR:        "Idoom Fibre 300",
		Description:    "Offre internet très haut débit pour les particuliers.",
		PricingSummary: "Abonnement mensuel: 1600 DA",
		Conditions:     "Dossier: pièce d'identité et justificatif de domicile.",
		Benefits:       "Modem WiFi 6 offert pendant la promotion.",
		Keywords:       []string{"fibre", "300"},
		PriceDA:        1600,
		HasPrice:       true,
		SpeedMbps:      300,
		FAQ: []document.FAQEntry{
			{QuestionFR: "Qui peut bénéficier de l'offre ?", Answer: "Tous les clients éligibles à la fibre."},
		},
		Contact: "Appelez le 12.",
		Position: 0,
	}
}

func TestGenerateSections(t *testing.T) {
	g := NewGenerator(zap.NewNop())

	ps := g.Generate([]document.Document{testDoc()})
	if len(ps) != 6 {
		t.Fatalf("passages = %d, want 6", len(ps))
	}

	types := make(map[passage.Type]int)
	for _, p := range ps {
		if p.DocID != "fibre-300" {
			t.Fatalf("passage doc = %s", p.DocID)
		}
		if p.EntityCode != "idoom_fibre" {
			t.Fatalf("entity = %s", p.EntityCode)
		}
		if p.ID == "" {
			t.Fatal("passage without ID")
		}
		types[p.Type]++
	}
	if types[passage.TypeOffer] == 0 {
		t.Fatal("pricing section should produce an offer passage")
	}
	if types[passage.TypeDocuments] == 0 {
		t.Fatal("conditions section should produce a documents passage")
	}
}

func TestGeneratePricingCarriesNumbers(t *testing.T) {
	g := NewGenerator(zap.NewNop())

	var offer *passage.Passage
	ps := g.Generate([]document.Document{testDoc()})
	for i := range ps {
		if ps[i].Type == passage.TypeOffer {
			offer = &ps[i]
			break
		}
	}
	if offer == nil {
		t.Fatal("no offer passage")
	}
	if !offer.HasPrice || offer.PriceDA != 1600 {
		t.Fatalf("offer price = %v (has=%v), want 1600", offer.PriceDA, offer.HasPrice)
	}
}

func TestGenerateFAQBeneficiary(t *testing.T) {
	g := NewGenerator(zap.NewNop())

	ps := g.Generate([]document.Document{testDoc()})
	found := false
	for _, p := range ps {
		if p.Type == passage.TypeBeneficiary {
			found = true
		}
	}
	if !found {
		t.Fatal("beneficiary FAQ should classify as a beneficiary passage")
	}
}

func TestGenerateArabicNoteClassification(t *testing.T) {
	g := NewGenerator(zap.NewNop())

	// "ملاحظة" loses its taa marbouta during normalization; the note
	// vocabulary must still match the folded token.
	ps := g.Generate([]document.Document{{
		ID:          "ar-note",
		Description: "ملاحظة: العرض صالح حتى نهاية الشهر",
	}})
	if len(ps) == 0 {
		t.Fatal("expected a passage for the Arabic note")
	}
	if ps[0].Type != passage.TypeNote {
		t.Fatalf("type = %s, want %s", ps[0].Type, passage.TypeNote)
	}
}

func TestGenerateBareDocument(t *testing.T) {
	g := NewGenerator(zap.NewNop())

	ps := g.Generate([]document.Document{{
		ID:         "bare",
		SearchText: "texte de recherche minimal",
	}})
	if len(ps) != 1 {
		t.Fatalf("passages = %d, want the search text fallback", len(ps))
	}
}

func TestIndexForDocuments(t *testing.T) {
	g := NewGenerator(zap.NewNop())
	idx := NewIndex(g.Generate([]document.Document{testDoc(), {ID: "other", SearchText: "autre"}}))

	ps := idx.ForDocuments([]string{"other", "fibre-300"})
	if len(ps) != 7 {
		t.Fatalf("passages = %d, want 7", len(ps))
	}
	if ps[0].DocID != "other" {
		t.Fatalf("first passage doc = %s, want candidate order preserved", ps[0].DocID)
	}
}
