// Package sparse implements the lexical retrieval layer: an in-memory BM25
// index over document search text with keyword repetition boosting. It runs
// after the rule router and can restrict scoring to the router's candidate
// subset, falling back to the full corpus when the subset yields nothing.
package sparse

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/sohaib162/forsa-smart-chatbot/internal/domain/document"
	"github.com/sohaib162/forsa-smart-chatbot/internal/domain/retrieval"
	"github.com/sohaib162/forsa-smart-chatbot/internal/textnorm"
)

// Config holds the BM25 parameters. Zero values get defaults from NewIndex.
type Config struct {
	K1 float64
	B  float64
	// KeywordBoost repeats each routing keyword this many times in the
	// indexed text, weighting curated tags above free prose.
	KeywordBoost int
	// HighScore and HighRatio gate the high-confidence short circuit.
	HighScore float64
	HighRatio float64
	// MediumScore and MediumRatio gate the medium band.
	MediumScore float64
	MediumRatio float64
	// SynonymsPerToken bounds bilingual query expansion.
	SynonymsPerToken int
}

func (c *Config) applyDefaults() {
	if c.K1 <= 0 {
		c.K1 = 1.5
	}
	if c.B <= 0 {
		c.B = 0.5
	}
	if c.KeywordBoost <= 0 {
		c.KeywordBoost = 3
	}
	if c.HighScore <= 0 {
		c.HighScore = 10
	}
	if c.HighRatio <= 0 {
		c.HighRatio = 2
	}
	if c.MediumScore <= 0 {
		c.MediumScore = 5
	}
	if c.MediumRatio <= 0 {
		c.MediumRatio = 1.5
	}
	if c.SynonymsPerToken <= 0 {
		c.SynonymsPerToken = 2
	}
}

type indexedDoc struct {
	id       string
	position int
	length   int
	termFreq map[string]int
}

// Index is an immutable BM25 index. Safe for concurrent Search calls.
type Index struct {
	docs      []indexedDoc
	docByID   map[string]int
	docFreq   map[string]int
	avgLength float64
	cfg       Config
}

// NewIndex tokenizes every document once and precomputes term statistics.
func NewIndex(docs []document.Document, cfg Config, logger *zap.Logger) *Index {
	cfg.applyDefaults()

	idx := &Index{
		docByID: make(map[string]int, len(docs)),
		docFreq: make(map[string]int),
		cfg:     cfg,
	}

	totalLength := 0
	for _, doc := range docs {
		tokens := textnorm.Tokenize(textnorm.Normalize(doc.SearchText))
		for _, kw := range doc.Keywords {
			kwTokens := textnorm.Tokenize(textnorm.Normalize(kw))
			for i := 0; i < cfg.KeywordBoost; i++ {
				tokens = append(tokens, kwTokens...)
			}
		}

		tf := make(map[string]int, len(tokens))
		for _, t := range tokens {
			tf[t]++
		}
		for t := range tf {
			idx.docFreq[t]++
		}

		idx.docByID[doc.ID] = len(idx.docs)
		idx.docs = append(idx.docs, indexedDoc{
			id:       doc.ID,
			position: doc.Position,
			length:   len(tokens),
			termFreq: tf,
		})
		totalLength += len(tokens)
	}
	if len(idx.docs) > 0 {
		idx.avgLength = float64(totalLength) / float64(len(idx.docs))
	}

	logger.Info("Sparse index built",
		zap.Int("documents", len(idx.docs)),
		zap.Int("vocabulary", len(idx.docFreq)))
	return idx
}

// Search scores the query against the index, bilingual synonyms included.
// A non-empty subset restricts scoring to those document IDs; if the subset
// produces no positive score the full corpus is scored instead. Results are
// ordered score descending, corpus order on ties.
func (x *Index) Search(query string, topK int, subset []string) ([]retrieval.Scored, retrieval.Confidence) {
	_, queryTokens, _ := textnorm.QueryTerms(query)
	tokens := textnorm.ExpandTokens(queryTokens, x.cfg.SynonymsPerToken)
	if len(tokens) == 0 {
		return nil, retrieval.ConfidenceLow
	}

	scored := x.score(tokens, x.subsetSet(subset))
	if len(scored) == 0 && len(subset) > 0 {
		scored = x.score(tokens, nil)
	}
	if topK > 0 && len(scored) > topK {
		scored = scored[:topK]
	}
	return scored, x.assess(scored)
}

func (x *Index) subsetSet(subset []string) map[string]struct{} {
	if len(subset) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(subset))
	for _, id := range subset {
		set[id] = struct{}{}
	}
	return set
}

func (x *Index) score(tokens []string, subset map[string]struct{}) []retrieval.Scored {
	n := float64(len(x.docs))
	scored := make([]retrieval.Scored, 0, 16)
	positions := make(map[string]int, 16)

	for i := range x.docs {
		doc := &x.docs[i]
		if subset != nil {
			if _, ok := subset[doc.id]; !ok {
				continue
			}
		}

		score := 0.0
		for _, t := range tokens {
			tf := doc.termFreq[t]
			if tf == 0 {
				continue
			}
			df := float64(x.docFreq[t])
			idf := math.Log((n-df+0.5)/(df+0.5) + 1)
			norm := x.cfg.K1 * (1 - x.cfg.B + x.cfg.B*float64(doc.length)/x.avgLength)
			score += idf * float64(tf) * (x.cfg.K1 + 1) / (float64(tf) + norm)
		}
		if score > 0 {
			scored = append(scored, retrieval.Scored{ID: doc.id, Score: score})
			positions[doc.id] = doc.position
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return positions[scored[i].ID] < positions[scored[j].ID]
	})
	return scored
}

// assess grades the lexical ranking by absolute score and top/second ratio.
func (x *Index) assess(scored []retrieval.Scored) retrieval.Confidence {
	if len(scored) == 0 {
		return retrieval.ConfidenceLow
	}
	top := scored[0].Score
	ratio := math.Inf(1)
	if len(scored) > 1 && scored[1].Score > 0 {
		ratio = top / scored[1].Score
	}
	switch {
	case top > x.cfg.HighScore && ratio > x.cfg.HighRatio:
		return retrieval.ConfidenceHigh
	case top > x.cfg.MediumScore && ratio > x.cfg.MediumRatio:
		return retrieval.ConfidenceMedium
	default:
		return retrieval.ConfidenceLow
	}
}

// Size reports how many documents the index covers.
func (x *Index) Size() int { return len(x.docs) }
