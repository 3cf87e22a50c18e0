package rerank

import (
	"sort"

	"github.com/sohaib162/forsa-smart-chatbot/internal/domain/passage"
	"github.com/sohaib162/forsa-smart-chatbot/internal/domain/retrieval"
)

// Aggregation weights: the cross-encoder's best passage carries half the
// final score, the fused retrieval score a third, and the breadth of good
// passages the remainder.
const (
	weightBestPassage  = 0.5
	weightHybrid       = 0.3
	weightTopPassages  = 0.2
	topPassagesPerDoc  = 3
)

// AggregateDocuments folds passage-level rerank scores back into document
// scores. passages and results are parallel to the reranked slice: results[i]
// refers to passages[results[i].Index]. hybrid maps docID to its fused score
// before reranking. Both score families are min-max rescaled so the weights
// mean the same thing regardless of model calibration.
func AggregateDocuments(passages []passage.Passage, results []Result, hybrid map[string]float64, positions map[string]int) []retrieval.Scored {
	ceNorm := normalizeResults(results)
	hybridNorm := normalizeMap(hybrid)

	perDoc := make(map[string][]float64)
	for _, r := range results {
		docID := passages[r.Index].DocID
		perDoc[docID] = append(perDoc[docID], ceNorm[r.Index])
	}

	scored := make([]retrieval.Scored, 0, len(perDoc))
	for docID, scores := range perDoc {
		sort.Sort(sort.Reverse(sort.Float64Slice(scores)))

		top := scores
		if len(top) > topPassagesPerDoc {
			top = top[:topPassagesPerDoc]
		}
		mean := 0.0
		for _, s := range top {
			mean += s
		}
		mean /= float64(len(top))

		score := weightBestPassage*scores[0] +
			weightHybrid*hybridNorm[docID] +
			weightTopPassages*mean
		scored = append(scored, retrieval.Scored{ID: docID, Score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return positions[scored[i].ID] < positions[scored[j].ID]
	})
	return scored
}

func normalizeResults(results []Result) map[int]float64 {
	if len(results) == 0 {
		return nil
	}
	lo, hi := results[0].Score, results[0].Score
	for _, r := range results[1:] {
		if r.Score < lo {
			lo = r.Score
		}
		if r.Score > hi {
			hi = r.Score
		}
	}
	out := make(map[int]float64, len(results))
	for _, r := range results {
		if hi == lo {
			out[r.Index] = 1
			continue
		}
		out[r.Index] = (r.Score - lo) / (hi - lo)
	}
	return out
}

func normalizeMap(scores map[string]float64) map[string]float64 {
	if len(scores) == 0 {
		return nil
	}
	first := true
	var lo, hi float64
	for _, s := range scores {
		if first {
			lo, hi = s, s
			first = false
			continue
		}
		if s < lo {
			lo = s
		}
		if s > hi {
			hi = s
		}
	}
	out := make(map[string]float64, len(scores))
	for id, s := range scores {
		if hi == lo {
			out[id] = 1
			continue
		}
		out[id] = (s - lo) / (hi - lo)
	}
	return out
}
