package query

import (
	"testing"

	"github.com/sohaib162/forsa-smart-chatbot/internal/textnorm"
)

func classify(q string) Intent {
	norm, tokens, _ := textnorm.QueryTerms(q)
	return ClassifyIntent(norm, tokens)
}

func TestClassifyIntent(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  Intent
	}{
		{"price french", "quel est le prix de la fibre", IntentPrice},
		{"price arabic", "كم سعر الألياف", IntentPrice},
		{"price arabic taa marbouta", "ما هي تسعيرة الألياف", IntentPrice},
		{"documents arabic", "ما هي وثيقة الاشتراك", IntentDocuments},
		{"price via amount", "offre fibre 1600 da", IntentPrice},
		{"speed", "quelle vitesse pour idoom fibre", IntentSpeed},
		{"speed via mbps", "offre 300 mbps", IntentSpeed},
		{"documents", "quels documents pour le dossier adsl", IntentDocuments},
		{"beneficiary", "qui peut bénéficier de cette offre", IntentBeneficiary},
		{"beneficiary arabic", "من هو المستفيد من العرض", IntentBeneficiary},
		{"general", "parlez-moi de idoom fibre", IntentGeneral},
		{"price beats speed", "prix de l'offre 300 mbps", IntentPrice},
		{"empty", "", IntentGeneral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify(tt.query); got != tt.want {
				t.Fatalf("ClassifyIntent(%q) = %s, want %s", tt.query, got, tt.want)
			}
		})
	}
}

func TestFusionWeights(t *testing.T) {
	tests := []struct {
		intent Intent
		dense  float64
		sparse float64
	}{
		{IntentPrice, 0.2, 0.8},
		{IntentSpeed, 0.3, 0.7},
		{IntentDocuments, 0.1, 0.9},
		{IntentBeneficiary, 0.6, 0.4},
		{IntentGeneral, 0.7, 0.3},
		{Intent("unknown"), 0.7, 0.3},
	}
	for _, tt := range tests {
		w := tt.intent.FusionWeights()
		if w.Dense != tt.dense || w.Sparse != tt.sparse {
			t.Fatalf("%s weights = (%v, %v), want (%v, %v)",
				tt.intent, w.Dense, w.Sparse, tt.dense, tt.sparse)
		}
	}
}
