// Package query analyzes the user question before fusion: which intent drives
// the dense/sparse weighting, and whether the question names one explicit
// product entity that should hard-filter the candidate set.
package query

import (
	"strings"

	"github.com/sohaib162/forsa-smart-chatbot/internal/textnorm"
)

// Intent is the dominant information need of a question.
type Intent string

const (
	IntentPrice       Intent = "price"
	IntentSpeed       Intent = "speed"
	IntentDocuments   Intent = "documents"
	IntentBeneficiary Intent = "beneficiary"
	IntentGeneral     Intent = "general"
)

// Weights are the hybrid fusion coefficients for one intent. Factual intents
// lean on the lexical layer, descriptive ones on the semantic layer.
type Weights struct {
	Dense  float64
	Sparse float64
}

var intentWeights = map[Intent]Weights{
	IntentPrice:       {Dense: 0.2, Sparse: 0.8},
	IntentSpeed:       {Dense: 0.3, Sparse: 0.7},
	IntentDocuments:   {Dense: 0.1, Sparse: 0.9},
	IntentBeneficiary: {Dense: 0.6, Sparse: 0.4},
	IntentGeneral:     {Dense: 0.7, Sparse: 0.3},
}

// FusionWeights returns the dense/sparse coefficients for an intent.
func (i Intent) FusionWeights() Weights {
	if w, ok := intentWeights[i]; ok {
		return w
	}
	return intentWeights[IntentGeneral]
}

// Arabic markers are written naturally and folded below so they match the
// normalized token stream.
var intentMarkers = foldMarkers(map[Intent][]string{
	IntentPrice: {
		"prix", "tarif", "coût", "cout", "combien", "mensuel", "facture",
		"da", "dinar", "dinars", "gratuit",
		"سعر", "تسعيرة", "تكلفة", "كم", "شهري", "دينار", "مجاني",
	},
	IntentSpeed: {
		"débit", "debit", "vitesse", "mbps", "gbps", "mégas", "megas", "rapide",
		"سرعة", "تدفق", "ميغا", "جيغا", "سريع",
	},
	IntentDocuments: {
		"document", "documents", "dossier", "pièce", "piece", "justificatif",
		"papiers", "contrat", "résiliation", "resiliation", "formulaire",
		"وثيقة", "وثائق", "ملف", "أوراق", "عقد", "استمارة",
	},
	IntentBeneficiary: {
		"bénéficiaire", "beneficiaire", "bénéficier", "beneficier", "éligible",
		"eligible", "éligibilité", "eligibilite", "retraité", "retraite",
		"cadre", "cadres", "ayants", "droit", "concerné", "concerne",
		"مستفيد", "المستفيد", "مؤهل", "متقاعد", "إطار", "معني", "يستفيد",
	},
})

func foldMarkers(raw map[Intent][]string) map[Intent][]string {
	for intent, markers := range raw {
		raw[intent] = textnorm.FoldTerms(markers...)
	}
	return raw
}

// intentPriority resolves questions matching several intents: asking the
// price of a fast offer is still a price question.
var intentPriority = []Intent{IntentPrice, IntentSpeed, IntentDocuments, IntentBeneficiary}

// ClassifyIntent inspects the normalized query tokens, with a numeric value
// in the text counting as a price marker.
func ClassifyIntent(normQuery string, tokens []string) Intent {
	tokenSet := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		tokenSet[t] = struct{}{}
	}

	hits := make(map[Intent]int, len(intentMarkers))
	for intent, markers := range intentMarkers {
		for _, m := range markers {
			if strings.ContainsRune(m, ' ') {
				if strings.Contains(normQuery, m) {
					hits[intent]++
				}
				continue
			}
			if _, ok := tokenSet[m]; ok {
				hits[intent]++
			}
		}
	}

	numeric := textnorm.ExtractNumericValues(normQuery)
	if len(numeric.Prices) > 0 {
		hits[IntentPrice]++
	}
	if len(numeric.SpeedsMbps) > 0 {
		hits[IntentSpeed]++
	}

	for _, intent := range intentPriority {
		if hits[intent] > 0 {
			return intent
		}
	}
	return IntentGeneral
}
