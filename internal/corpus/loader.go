// Package corpus loads and validates the document corpus that all indexes are built from.
package corpus

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/sohaib162/forsa-smart-chatbot/internal/domain"
	"github.com/sohaib162/forsa-smart-chatbot/internal/domain/document"
	"github.com/sohaib162/forsa-smart-chatbot/internal/textnorm"
)

// rawRecord mirrors the JSON document schema on disk.
type rawRecord struct {
	DocumentID string `json:"document_id"`
	DocType    string `json:"doc_type"`
	Metadata   struct {
		TitleFR         string   `json:"title_fr"`
		TitleAR         string   `json:"title_ar"`
		ProductFamily   string   `json:"product_family"`
		Technology      string   `json:"technology"`
		CustomerSegment string   `json:"customer_segment"`
		CommitmentType  string   `json:"commitment_type"`
		Keywords        []string `json:"keywords"`
	} `json:"metadata"`
	Content struct {
		Description string `json:"description"`
		Conditions  []string `json:"conditions"`
		Benefits    []string `json:"benefits"`
		Pricing     struct {
			Monthly string `json:"monthly"`
			Speed   string `json:"speed"`
		} `json:"pricing"`
		FAQ []struct {
			QuestionFR string `json:"question_fr"`
			QuestionAR string `json:"question_ar"`
			Answer     string `json:"answer"`
		} `json:"faq"`
		Contact string `json:"contact"`
	} `json:"content"`
	SearchText string `json:"search_text"`
	DenseText  string `json:"dense_text"`
}

// Loader parses raw JSON records into validated documents.
// In strict mode a schema violation aborts the whole load; otherwise the
// offending record is skipped with a warning.
type Loader struct {
	strict bool
	logger *zap.Logger
}

// NewLoader creates a corpus loader.
func NewLoader(strict bool, logger *zap.Logger) *Loader {
	return &Loader{strict: strict, logger: logger}
}

// LoadFile reads a JSON array of records from disk.
func (l *Loader) LoadFile(path string) ([]document.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus %s: %w", path, err)
	}
	defer f.Close()
	return l.Load(f)
}

// Load parses a JSON array of records from r.
func (l *Loader) Load(r io.Reader) ([]document.Document, error) {
	var records []rawRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("%w: decode corpus: %w", domain.ErrInvalidSchema, err)
	}

	docs := make([]document.Document, 0, len(records))
	for i, rec := range records {
		doc, err := l.toDocument(rec, len(docs))
		if err != nil {
			if l.strict {
				return nil, fmt.Errorf("record %d: %w", i, err)
			}
			l.logger.Warn("Skipping invalid corpus record",
				zap.Int("index", i),
				zap.String("document_id", rec.DocumentID),
				zap.Error(err),
			)
			continue
		}
		docs = append(docs, doc)
	}

	if len(docs) == 0 {
		return nil, domain.ErrEmptyCorpus
	}

	l.logger.Info("Corpus loaded",
		zap.Int("records", len(records)),
		zap.Int("documents", len(docs)),
	)
	return docs, nil
}

// toDocument validates one record and normalizes its routing tags.
func (l *Loader) toDocument(rec rawRecord, position int) (document.Document, error) {
	if rec.DocumentID == "" {
		return document.Document{}, fmt.Errorf("%w: missing document_id", domain.ErrInvalidSchema)
	}

	searchText := rec.SearchText
	if strings.TrimSpace(searchText) == "" {
		searchText = assembleSearchText(rec)
	}
	if strings.TrimSpace(searchText) == "" {
		return document.Document{}, fmt.Errorf("%w: document %s has no searchable text",
			domain.ErrInvalidSchema, rec.DocumentID)
	}

	denseText := rec.DenseText
	if strings.TrimSpace(denseText) == "" {
		denseText = searchText
	}

	doc := document.Document{
		ID:              rec.DocumentID,
		DocType:         normalizeTag(rec.DocType),
		ProductFamily:   normalizeTag(rec.Metadata.ProductFamily),
		Technology:      normalizeTag(rec.Metadata.Technology),
		CustomerSegment: normalizeTag(rec.Metadata.CustomerSegment),
		Commitment:      normalizeTag(rec.Metadata.CommitmentType),
		TitleFR:         rec.Metadata.TitleFR,
		TitleAR:         rec.Metadata.TitleAR,
		SearchText:      searchText,
		DenseText:       denseText,
		Description:     rec.Content.Description,
		Conditions:      strings.Join(rec.Content.Conditions, "; "),
		Benefits:        strings.Join(rec.Content.Benefits, "; "),
		PricingSummary:  rec.Content.Pricing.Monthly,
		Contact:         rec.Content.Contact,
		Position:        position,
	}

	for _, kw := range rec.Metadata.Keywords {
		if t := normalizeTag(kw); t != "" {
			doc.Keywords = append(doc.Keywords, t)
		}
	}

	if price, ok := textnorm.ParsePrice(rec.Content.Pricing.Monthly); ok {
		doc.PriceDA = float64(price)
		doc.HasPrice = true
		doc.IsFree = price == 0
	}
	if speed, ok := textnorm.ParseSpeed(rec.Content.Pricing.Speed); ok {
		doc.SpeedMbps = speed
	}

	for _, q := range rec.Content.FAQ {
		doc.FAQ = append(doc.FAQ, document.FAQEntry{
			QuestionFR: q.QuestionFR,
			QuestionAR: q.QuestionAR,
			Answer:     q.Answer,
		})
	}

	return doc, nil
}

// assembleSearchText rebuilds searchable text from titles and content when the
// record carries no explicit search_text field.
func assembleSearchText(rec rawRecord) string {
	parts := make([]string, 0, 8)
	for _, p := range []string{
		rec.Metadata.TitleFR,
		rec.Metadata.TitleAR,
		rec.Content.Description,
		rec.Content.Pricing.Monthly,
		rec.Content.Pricing.Speed,
	} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	parts = append(parts, rec.Content.Conditions...)
	parts = append(parts, rec.Content.Benefits...)
	return strings.Join(parts, " ")
}

// normalizeTag lowercases and accent-folds a metadata tag value.
func normalizeTag(tag string) string {
	return textnorm.Normalize(strings.TrimSpace(tag))
}
