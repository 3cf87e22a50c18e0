package fusion

import (
	"github.com/sohaib162/forsa-smart-chatbot/internal/domain/document"
	"github.com/sohaib162/forsa-smart-chatbot/internal/textnorm"
)

const (
	// signatureGlobalRatio is the share of a term's corpus occurrences that
	// must live in one document for the term to be that document's signature.
	signatureGlobalRatio = 0.6
	// signatureLocalRatio is the minimum in-document frequency, filtering
	// one-off typos from acting as signatures.
	signatureLocalRatio = 0.01
	// signatureBoostCap bounds the accumulated boost so signatures refine
	// the ranking instead of overruling it.
	signatureBoostCap = 1.0
	// entityMismatchDamping halves the boost when the query names a product
	// family other than the document's.
	entityMismatchDamping = 0.5
)

// SignatureBooster indexes the terms that are statistically distinctive of a
// single document. A query containing a document's signature term is strong
// evidence for that document even when embedding similarity is flat.
type SignatureBooster struct {
	// signatures maps docID to its signature terms and their weights.
	signatures map[string]map[string]float64
	families   map[string]string
}

// NewSignatureBooster extracts unigram and bigram signatures from every
// document's search text.
func NewSignatureBooster(docs []document.Document) *SignatureBooster {
	type termStat struct {
		total  int
		perDoc map[string]int
	}
	stats := make(map[string]*termStat)
	docLengths := make(map[string]int, len(docs))
	families := make(map[string]string, len(docs))

	for _, doc := range docs {
		tokens := textnorm.Tokenize(textnorm.Normalize(doc.SearchText))
		terms := append([]string{}, tokens...)
		for i := 0; i+1 < len(tokens); i++ {
			terms = append(terms, tokens[i]+" "+tokens[i+1])
		}

		docLengths[doc.ID] = len(terms)
		families[doc.ID] = doc.ProductFamily
		for _, t := range terms {
			st, ok := stats[t]
			if !ok {
				st = &termStat{perDoc: make(map[string]int, 2)}
				stats[t] = st
			}
			st.total++
			st.perDoc[doc.ID]++
		}
	}

	signatures := make(map[string]map[string]float64, len(docs))
	for term, st := range stats {
		for docID, count := range st.perDoc {
			globalRatio := float64(count) / float64(st.total)
			localRatio := float64(count) / float64(docLengths[docID])
			if globalRatio <= signatureGlobalRatio || localRatio <= signatureLocalRatio {
				continue
			}
			sig, ok := signatures[docID]
			if !ok {
				sig = make(map[string]float64, 8)
				signatures[docID] = sig
			}
			sig[term] = globalRatio
		}
	}

	return &SignatureBooster{signatures: signatures, families: families}
}

// Boost returns the multiplicative factor for one document given the query
// tokens, in [1, 2]. detectedFamily is the product family the query
// explicitly names, or "" when it names none.
func (b *SignatureBooster) Boost(docID string, queryTokens []string, detectedFamily string) float64 {
	sig := b.signatures[docID]
	if len(sig) == 0 {
		return 1
	}

	tokenSet := make(map[string]struct{}, len(queryTokens))
	for _, t := range queryTokens {
		tokenSet[t] = struct{}{}
	}
	bigrams := make(map[string]struct{}, len(queryTokens))
	for i := 0; i+1 < len(queryTokens); i++ {
		bigrams[queryTokens[i]+" "+queryTokens[i+1]] = struct{}{}
	}

	sum := 0.0
	for term, weight := range sig {
		if _, ok := tokenSet[term]; ok {
			sum += weight
			continue
		}
		if _, ok := bigrams[term]; ok {
			sum += weight
		}
	}
	if sum > signatureBoostCap {
		sum = signatureBoostCap
	}
	if detectedFamily != "" && b.families[docID] != detectedFamily {
		sum *= entityMismatchDamping
	}
	return 1 + sum
}
