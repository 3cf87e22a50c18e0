// Package passages turns corpus documents into the typed passages the
// cross-encoder scores. Each content section becomes one passage carrying the
// structured facts (price, speed, beneficiary) extracted from its text, so
// later stages can match numbers without re-parsing prose.
package passages

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sohaib162/forsa-smart-chatbot/internal/domain/document"
	"github.com/sohaib162/forsa-smart-chatbot/internal/domain/passage"
	"github.com/sohaib162/forsa-smart-chatbot/internal/textnorm"
)

// Generator builds passages for a corpus.
type Generator struct {
	logger *zap.Logger
}

// NewGenerator returns a passage generator.
func NewGenerator(logger *zap.Logger) *Generator {
	return &Generator{logger: logger}
}

// Generate emits the passages of every document in corpus order.
func (g *Generator) Generate(docs []document.Document) []passage.Passage {
	out := make([]passage.Passage, 0, len(docs)*3)
	for i := range docs {
		out = append(out, g.forDocument(&docs[i])...)
	}
	g.logger.Info("Passages generated",
		zap.Int("documents", len(docs)),
		zap.Int("passages", len(out)))
	return out
}

func (g *Generator) forDocument(doc *document.Document) []passage.Passage {
	title := strings.TrimSpace(doc.TitleFR)
	out := make([]passage.Passage, 0, 4)

	add := func(section, text string, typ passage.Type) {
		text = strings.TrimSpace(text)
		if text == "" {
			return
		}
		if title != "" {
			text = title + ". " + text
		}
		if typ == "" {
			typ = classify(text)
		}

		p := passage.Passage{
			DocID:       doc.ID,
			EntityCode:  doc.ProductFamily,
			Type:        typ,
			Text:        text,
			Beneficiary: textnorm.QueryBeneficiary(text),
			Signature:   doc.Keywords,
			Position:    len(out),
		}
		// Prices need an explicit DA suffix and speeds a unit: a bare number
		// in prose says nothing.
		nv := textnorm.ExtractNumericValues(strings.ToLower(text))
		switch {
		case len(nv.Prices) > 0:
			p.PriceDA = float64(nv.Prices[0])
			p.HasPrice = true
			p.IsFree = nv.Prices[0] == 0
		case doc.HasPrice && typ == passage.TypeOffer:
			p.PriceDA = doc.PriceDA
			p.HasPrice = true
			p.IsFree = doc.IsFree
		}
		if len(nv.SpeedsMbps) > 0 {
			p.SpeedMbps = nv.SpeedsMbps[0]
		} else if doc.SpeedMbps > 0 && typ == passage.TypeOffer {
			p.SpeedMbps = doc.SpeedMbps
		}
		p.ID = passage.NewID(doc.ID, section+":"+text)
		out = append(out, p)
	}

	add("description", doc.Description, "")
	add("pricing", doc.PricingSummary, passage.TypeOffer)
	add("conditions", doc.Conditions, passage.TypeDocuments)
	add("benefits", doc.Benefits, "")
	for i, faq := range doc.FAQ {
		q := strings.TrimSpace(faq.QuestionFR)
		if q == "" {
			q = strings.TrimSpace(faq.QuestionAR)
		}
		text := faq.Answer
		if q != "" {
			text = q + " " + faq.Answer
		}
		add(fmt.Sprintf("faq_%d", i), text, "")
	}
	add("contact", doc.Contact, passage.TypeOther)

	// A document with no sectioned content still needs one passage so the
	// reranker can see it.
	if len(out) == 0 {
		add("search_text", doc.SearchText, "")
	}
	return out
}

// classify infers the passage type from its vocabulary. Short markers like
// "ont" or "da" match whole tokens only, never substrings of French words.
func classify(text string) passage.Type {
	lower := textnorm.Normalize(text)
	tokens := make(map[string]struct{})
	for _, t := range textnorm.Tokenize(lower) {
		tokens[t] = struct{}{}
	}
	hasToken := func(terms ...string) bool {
		// Terms are folded so Arabic spellings match the normalized tokens.
		for _, t := range textnorm.FoldTerms(terms...) {
			if _, ok := tokens[t]; ok {
				return true
			}
		}
		return false
	}

	switch {
	case hasToken("bénéficiaire", "bénéficiaires", "beneficiaire", "éligible", "éligibles", "eligible", "retraité", "retraités", "مستفيد", "متقاعد") ||
		strings.Contains(lower, "ayants droit"):
		return passage.TypeBeneficiary
	case hasToken("modem", "ont", "routeur", "équipement", "equipement", "مودم", "راوتر"):
		return passage.TypeEquipment
	case hasToken("appels", "téléphonique", "telephonique", "fixe", "مكالمات", "الهاتف"):
		return passage.TypeTelephony
	case hasToken("document", "documents", "dossier", "justificatif", "pièce", "piece", "وثائق", "ملف"):
		return passage.TypeDocuments
	case hasToken("da", "prix", "tarif", "mensuel", "سعر", "شهري", "دج"):
		return passage.TypeOffer
	case hasToken("remarque", "note", "attention", "ملاحظة"):
		return passage.TypeNote
	default:
		return passage.TypeGeneral
	}
}

// Index groups generated passages by document for candidate lookup.
type Index struct {
	byDoc map[string][]passage.Passage
}

// NewIndex builds the docID lookup.
func NewIndex(all []passage.Passage) *Index {
	byDoc := make(map[string][]passage.Passage)
	for _, p := range all {
		byDoc[p.DocID] = append(byDoc[p.DocID], p)
	}
	return &Index{byDoc: byDoc}
}

// ForDocuments returns the passages of the given documents, preserving the
// candidate order.
func (x *Index) ForDocuments(docIDs []string) []passage.Passage {
	out := make([]passage.Passage, 0, len(docIDs)*3)
	for _, id := range docIDs {
		out = append(out, x.byDoc[id]...)
	}
	return out
}
