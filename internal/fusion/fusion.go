// Package fusion merges the dense and sparse rankings into one hybrid score,
// applies the entity hard filter, and boosts candidates whose structured
// numeric facts match values stated in the query. Filtering happens before
// boosting so a boost can never resurrect an excluded document.
package fusion

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/sohaib162/forsa-smart-chatbot/internal/domain/document"
	"github.com/sohaib162/forsa-smart-chatbot/internal/domain/retrieval"
	"github.com/sohaib162/forsa-smart-chatbot/internal/query"
	"github.com/sohaib162/forsa-smart-chatbot/internal/textnorm"
)

// Config holds the boost parameters. Zero values get defaults from NewFuser.
type Config struct {
	// ExactNumericBoost multiplies candidates whose price or speed equals a
	// value in the query.
	ExactNumericBoost float64
	// ToleranceNumericBoost multiplies near matches.
	ToleranceNumericBoost float64
	// PriceToleranceDA is the absolute near-match window for prices.
	PriceToleranceDA int
	// SpeedTolerance is the relative near-match window for speeds.
	SpeedTolerance float64
	// FreeBoost multiplies free offers when the query asks for free ones.
	FreeBoost float64
}

func (c *Config) applyDefaults() {
	if c.ExactNumericBoost <= 0 {
		c.ExactNumericBoost = 2
	}
	if c.ToleranceNumericBoost <= 0 {
		c.ToleranceNumericBoost = 1.5
	}
	if c.PriceToleranceDA <= 0 {
		c.PriceToleranceDA = 100
	}
	if c.SpeedTolerance <= 0 {
		c.SpeedTolerance = 0.1
	}
	if c.FreeBoost <= 0 {
		c.FreeBoost = 1.5
	}
}

// Query carries the analyzed question into fusion.
type Query struct {
	Normalized string
	Tokens     []string
	Intent     query.Intent
	Numeric    textnorm.NumericValues
	AsksFree   bool
	// FilterFamily restricts candidates to one product family when the
	// question explicitly names exactly one.
	FilterFamily string
	// DetectedFamily is the best entity match even when it does not filter.
	DetectedFamily string
}

// Fuser combines layer rankings for one corpus.
type Fuser struct {
	docs   map[string]*document.Document
	sig    *SignatureBooster
	cfg    Config
	logger *zap.Logger
}

// NewFuser indexes documents by ID and builds the signature table.
func NewFuser(docs []document.Document, cfg Config, logger *zap.Logger) *Fuser {
	cfg.applyDefaults()
	byID := make(map[string]*document.Document, len(docs))
	for i := range docs {
		byID[docs[i].ID] = &docs[i]
	}
	return &Fuser{
		docs:   byID,
		sig:    NewSignatureBooster(docs),
		cfg:    cfg,
		logger: logger,
	}
}

// Fuse merges the two rankings with intent weights, filters, then boosts.
// Either ranking may be empty; a document present in only one layer keeps
// that layer's weighted contribution.
func (f *Fuser) Fuse(dense, sparse []retrieval.Scored, q Query) []retrieval.Scored {
	w := q.Intent.FusionWeights()
	denseNorm := minMax(dense)
	sparseNorm := minMax(sparse)

	hybrid := make(map[string]float64, len(dense)+len(sparse))
	for id, s := range denseNorm {
		hybrid[id] += w.Dense * s
	}
	for id, s := range sparseNorm {
		hybrid[id] += w.Sparse * s
	}

	scored := make([]retrieval.Scored, 0, len(hybrid))
	for id, s := range hybrid {
		doc := f.docs[id]
		if doc == nil {
			continue
		}
		if q.FilterFamily != "" && doc.ProductFamily != q.FilterFamily {
			continue
		}

		s *= f.numericBoost(doc, q)
		s *= f.sig.Boost(id, q.Tokens, q.DetectedFamily)
		scored = append(scored, retrieval.Scored{ID: id, Score: s})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return f.docs[scored[i].ID].Position < f.docs[scored[j].ID].Position
	})

	if q.FilterFamily != "" {
		f.logger.Debug("Entity hard filter applied",
			zap.String("family", q.FilterFamily),
			zap.Int("candidates", len(scored)))
	}
	return scored
}

// numericBoost rewards structured fact matches: an exact price or speed hit
// doubles the score, a near miss multiplies by the tolerance boost, and free
// offers win when the query asks for free.
func (f *Fuser) numericBoost(doc *document.Document, q Query) float64 {
	boost := 1.0

	if doc.HasPrice {
		best := 0.0
		for _, p := range q.Numeric.Prices {
			price := float64(p)
			switch {
			case price == doc.PriceDA:
				best = math.Max(best, f.cfg.ExactNumericBoost)
			case math.Abs(price-doc.PriceDA) <= float64(f.cfg.PriceToleranceDA):
				best = math.Max(best, f.cfg.ToleranceNumericBoost)
			}
		}
		if best > 0 {
			boost *= best
		}
	}

	if doc.SpeedMbps > 0 {
		best := 0.0
		for _, s := range q.Numeric.SpeedsMbps {
			switch {
			case s == doc.SpeedMbps:
				best = math.Max(best, f.cfg.ExactNumericBoost)
			case math.Abs(s-doc.SpeedMbps) <= doc.SpeedMbps*f.cfg.SpeedTolerance:
				best = math.Max(best, f.cfg.ToleranceNumericBoost)
			}
		}
		if best > 0 {
			boost *= best
		}
	}

	if q.AsksFree && doc.IsFree {
		boost *= f.cfg.FreeBoost
	}
	return boost
}

// minMax rescales a ranking into [0, 1]. A single-score ranking maps to 1.
func minMax(scored []retrieval.Scored) map[string]float64 {
	if len(scored) == 0 {
		return nil
	}
	lo, hi := scored[0].Score, scored[0].Score
	for _, s := range scored[1:] {
		if s.Score < lo {
			lo = s.Score
		}
		if s.Score > hi {
			hi = s.Score
		}
	}

	out := make(map[string]float64, len(scored))
	if hi == lo {
		for _, s := range scored {
			out[s.ID] = 1
		}
		return out
	}
	for _, s := range scored {
		out[s.ID] = (s.Score - lo) / (hi - lo)
	}
	return out
}

// AsksFree reports whether the query asks for a free offer.
func AsksFree(tokens []string) bool {
	for _, t := range tokens {
		if _, ok := freeTokens[t]; ok {
			return true
		}
	}
	return false
}

// freeTokens match folded query tokens, so the Arabic forms are folded too.
var freeTokens = func() map[string]struct{} {
	set := make(map[string]struct{})
	for _, t := range textnorm.FoldTerms("gratuit", "gratuite", "gratuitement", "مجاني", "مجانا", "مجانية") {
		set[t] = struct{}{}
	}
	return set
}()
