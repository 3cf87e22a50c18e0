// Package document defines the corpus document model shared by all retrieval layers.
package document

// FAQEntry is one bilingual question/answer pair attached to a document.
type FAQEntry struct {
	QuestionFR string
	QuestionAR string
	Answer     string
}

// Document is a single corpus record after schema validation and tag normalization.
// Position is the insertion order in the corpus and breaks score ties deterministically.
type Document struct {
	ID              string
	DocType         string
	ProductFamily   string
	Technology      string
	CustomerSegment string
	Commitment      string
	Keywords        []string

	TitleFR string
	TitleAR string

	// SearchText feeds the sparse index, DenseText the embedding index.
	SearchText string
	DenseText  string

	Description    string
	Conditions     string
	Benefits       string
	PricingSummary string

	PriceDA   float64
	HasPrice  bool
	IsFree    bool
	SpeedMbps float64

	FAQ     []FAQEntry
	Contact string

	Position int
}

// Tags returns the normalized routing tags of the document in a stable order.
// Empty tags are omitted.
func (d *Document) Tags() []string {
	tags := make([]string, 0, 5+len(d.Keywords))
	for _, t := range []string{d.DocType, d.ProductFamily, d.Technology, d.CustomerSegment, d.Commitment} {
		if t != "" {
			tags = append(tags, t)
		}
	}
	tags = append(tags, d.Keywords...)
	return tags
}
