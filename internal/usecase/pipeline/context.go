package pipeline

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sohaib162/forsa-smart-chatbot/internal/domain/document"
	"github.com/sohaib162/forsa-smart-chatbot/internal/domain/retrieval"
)

// buildContext renders the selected documents as the structured context block
// handed to the answer-generating LLM. Facts come from the structured fields,
// not the raw search text, so the model sees prices and speeds verbatim.
func (s *Service) buildContext(selected []retrieval.Scored) string {
	if len(selected) == 0 {
		return ""
	}

	var b strings.Builder
	for i, c := range selected {
		doc := s.docs[c.ID]
		if doc == nil {
			continue
		}
		if i > 0 {
			b.WriteString("\n")
		}
		writeDocumentContext(&b, i+1, doc)
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeDocumentContext(b *strings.Builder, n int, doc *document.Document) {
	title := doc.TitleFR
	if title == "" {
		title = doc.ID
	}
	fmt.Fprintf(b, "[Document %d] %s\n", n, title)
	if doc.TitleAR != "" {
		fmt.Fprintf(b, "Titre (AR): %s\n", doc.TitleAR)
	}
	if doc.ProductFamily != "" || doc.DocType != "" {
		fmt.Fprintf(b, "Catégorie: %s / %s\n", orDash(doc.DocType), orDash(doc.ProductFamily))
	}
	if doc.Description != "" {
		fmt.Fprintf(b, "Description: %s\n", doc.Description)
	}
	if doc.HasPrice {
		if doc.IsFree {
			b.WriteString("Tarif: gratuit\n")
		} else {
			fmt.Fprintf(b, "Tarif: %s DA/mois\n", formatNumber(doc.PriceDA))
		}
	}
	if doc.SpeedMbps > 0 {
		fmt.Fprintf(b, "Débit: %s Mbps\n", formatNumber(doc.SpeedMbps))
	}
	if doc.Conditions != "" {
		fmt.Fprintf(b, "Conditions: %s\n", doc.Conditions)
	}
	if doc.Benefits != "" {
		fmt.Fprintf(b, "Avantages: %s\n", doc.Benefits)
	}
	for _, faq := range doc.FAQ {
		q := faq.QuestionFR
		if q == "" {
			q = faq.QuestionAR
		}
		if q == "" || faq.Answer == "" {
			continue
		}
		fmt.Fprintf(b, "Q: %s\nR: %s\n", q, faq.Answer)
	}
	if doc.Contact != "" {
		fmt.Fprintf(b, "Contact: %s\n", doc.Contact)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
