package rerank

import (
	"context"
	"sort"

	"github.com/sohaib162/forsa-smart-chatbot/internal/textnorm"
)

// HeuristicScorer ranks by normalized token overlap. It stands in for the
// cross-encoder when the model endpoint is down, keeping the pipeline
// answering with degraded precision instead of failing.
type HeuristicScorer struct{}

// NewHeuristicScorer returns the lexical fallback scorer.
func NewHeuristicScorer() *HeuristicScorer { return &HeuristicScorer{} }

// Rerank scores each document by the fraction of query tokens it contains,
// with a small length penalty so short exact passages beat long vague ones.
func (h *HeuristicScorer) Rerank(_ context.Context, query string, documents []string, topN int) ([]Result, error) {
	_, queryTokens, _ := textnorm.QueryTerms(query)
	if len(queryTokens) == 0 || len(documents) == 0 {
		return nil, nil
	}
	querySet := make(map[string]struct{}, len(queryTokens))
	for _, t := range queryTokens {
		querySet[t] = struct{}{}
	}

	results := make([]Result, 0, len(documents))
	for i, doc := range documents {
		docTokens := textnorm.Tokenize(textnorm.Normalize(doc))
		if len(docTokens) == 0 {
			results = append(results, Result{Index: i})
			continue
		}
		seen := make(map[string]struct{}, len(docTokens))
		matched := 0
		for _, t := range docTokens {
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			if _, ok := querySet[t]; ok {
				matched++
			}
		}

		coverage := float64(matched) / float64(len(querySet))
		density := float64(matched) / float64(len(seen))
		results = append(results, Result{Index: i, Score: 0.8*coverage + 0.2*density})
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if topN > 0 && len(results) > topN {
		results = results[:topN]
	}
	return results, nil
}
