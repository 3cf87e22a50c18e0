// Package pipeline orchestrates the layered retrieval flow: rule routing,
// BM25, dense fusion, then cross-encoder reranking. Each layer grades its own
// ranking; a high-confidence layer answers directly and the rest of the
// pipeline never runs. Model failures degrade the answer instead of losing it.
package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sohaib162/forsa-smart-chatbot/internal/domain"
	"github.com/sohaib162/forsa-smart-chatbot/internal/domain/document"
	"github.com/sohaib162/forsa-smart-chatbot/internal/domain/retrieval"
	"github.com/sohaib162/forsa-smart-chatbot/internal/fusion"
	"github.com/sohaib162/forsa-smart-chatbot/internal/metrics"
	"github.com/sohaib162/forsa-smart-chatbot/internal/passages"
	"github.com/sohaib162/forsa-smart-chatbot/internal/query"
	"github.com/sohaib162/forsa-smart-chatbot/internal/rerank"
	"github.com/sohaib162/forsa-smart-chatbot/internal/textnorm"
)

// Config holds the pipeline thresholds. Zero values get defaults from New.
type Config struct {
	// TopK is the default number of final results.
	TopK int
	// SparseTopK and DenseTopK bound the intermediate candidate pools.
	SparseTopK int
	DenseTopK  int
	// RerankTopN caps how many passages reach the cross-encoder.
	RerankTopN int
	// RerankTimeout bounds the cross-encoder call before falling back.
	RerankTimeout time.Duration
	// DynamicMargin is the relative score margin for the adaptive result
	// count, and DynamicMaxResults its cap.
	DynamicMargin     float64
	DynamicMaxResults int
	// BatchWorkers bounds concurrent question processing.
	BatchWorkers int
}

func (c *Config) applyDefaults() {
	if c.TopK <= 0 {
		c.TopK = 5
	}
	if c.SparseTopK <= 0 {
		c.SparseTopK = 20
	}
	if c.DenseTopK <= 0 {
		c.DenseTopK = 20
	}
	if c.RerankTopN <= 0 {
		c.RerankTopN = 30
	}
	if c.RerankTimeout <= 0 {
		c.RerankTimeout = 5 * time.Second
	}
	if c.DynamicMargin <= 0 {
		c.DynamicMargin = 0.05
	}
	if c.DynamicMaxResults <= 0 {
		c.DynamicMaxResults = 3
	}
	if c.BatchWorkers <= 0 {
		c.BatchWorkers = 4
	}
}

// Answer is the pipeline output for one question.
type Answer struct {
	Query      string
	Language   textnorm.Language
	Intent     query.Intent
	Results    []retrieval.Result
	Layer      retrieval.Layer
	Confidence retrieval.Confidence
	// Degraded lists the components that were skipped or replaced.
	Degraded []string
	// Context is the structured document context handed to the LLM.
	Context string
}

// Service runs the retrieval pipeline over one loaded corpus.
type Service struct {
	router   Router
	sparse   SparseSearcher
	dense    DenseSearcher
	fuser    *fusion.Fuser
	passages *passages.Index
	entities *query.EntityDetector
	reranker rerank.Scorer
	fallback rerank.Scorer

	docs      map[string]*document.Document
	positions map[string]int
	// byTag maps every normalized document tag to the IDs carrying it, for
	// the optional category restriction.
	byTag  map[string][]string
	cfg    Config
	logger *zap.Logger
}

// New wires the pipeline. fallback is used when reranker fails; reranker may
// be nil to always use the fallback.
func New(
	router Router, sparse SparseSearcher, dense DenseSearcher,
	fuser *fusion.Fuser, passageIndex *passages.Index, entities *query.EntityDetector,
	reranker, fallback rerank.Scorer,
	docs []document.Document, cfg Config, logger *zap.Logger,
) *Service {
	cfg.applyDefaults()

	byID := make(map[string]*document.Document, len(docs))
	positions := make(map[string]int, len(docs))
	byTag := make(map[string][]string)
	for i := range docs {
		byID[docs[i].ID] = &docs[i]
		positions[docs[i].ID] = docs[i].Position
		for _, tag := range docs[i].Tags() {
			byTag[tag] = append(byTag[tag], docs[i].ID)
		}
	}

	return &Service{
		router:    router,
		sparse:    sparse,
		dense:     dense,
		fuser:     fuser,
		passages:  passageIndex,
		entities:  entities,
		reranker:  reranker,
		fallback:  fallback,
		docs:      byID,
		positions: positions,
		byTag:     byTag,
		cfg:       cfg,
		logger:    logger,
	}
}

// Ask answers one question. topK <= 0 uses the configured default.
func (s *Service) Ask(ctx context.Context, question string, topK int) (Answer, error) {
	return s.AskFiltered(ctx, question, topK, "")
}

// AskFiltered answers one question with every layer restricted to documents
// carrying the given category tag (doc type, product family, or keyword).
// An empty category is no restriction; a category no document carries
// returns an empty low-confidence answer.
func (s *Service) AskFiltered(ctx context.Context, question string, topK int, category string) (Answer, error) {
	if strings.TrimSpace(question) == "" {
		return Answer{}, domain.ErrInvalidQuery
	}
	if topK <= 0 {
		topK = s.cfg.TopK
	}

	norm, tokens, lang := textnorm.QueryTerms(question)
	if len(tokens) == 0 {
		return Answer{}, domain.ErrInvalidQuery
	}

	intent := query.ClassifyIntent(norm, tokens)
	metrics.PipelineIntentTotal.WithLabelValues(string(intent)).Inc()

	ans := Answer{Query: question, Language: lang, Intent: intent}

	var allowed map[string]struct{}
	var allowedIDs []string
	if category != "" {
		allowedIDs = s.byTag[textnorm.Normalize(strings.TrimSpace(category))]
		if len(allowedIDs) == 0 {
			s.logger.Debug("Category matches no documents", zap.String("category", category))
			ans.Layer = retrieval.LayerRule
			ans.Confidence = retrieval.ConfidenceLow
			return ans, nil
		}
		allowed = make(map[string]struct{}, len(allowedIDs))
		for _, id := range allowedIDs {
			allowed[id] = struct{}{}
		}
	}

	// Layer 1: rule routing.
	routed, routeConf := s.timedRoute(norm, tokens)
	routed = restrict(routed, allowed)
	if routeConf == retrieval.ConfidenceHigh && len(routed) > 0 {
		s.finish(&ans, routed, topK, retrieval.LayerRule, routeConf)
		return ans, nil
	}

	// Layer 2: sparse lexical search, restricted to the routed candidates.
	// With a category and no routed survivors the category itself is the
	// subset, so the sparse full-corpus fallback cannot leave it.
	subset := ids(routed)
	if len(subset) == 0 && allowed != nil {
		subset = allowedIDs
	}
	sparseScored, sparseConf := s.timedSparse(question, subset)
	sparseScored = restrict(sparseScored, allowed)
	if sparseConf == retrieval.ConfidenceHigh && len(sparseScored) > 0 {
		s.finish(&ans, sparseScored, topK, retrieval.LayerSparse, sparseConf)
		return ans, nil
	}

	// Layer 3: dense retrieval fused with sparse under intent weights.
	q := s.analyze(norm, tokens, intent)
	hybrid := restrict(s.timedFuse(ctx, &ans, question, subset, sparseScored, q), allowed)
	if len(hybrid) == 0 {
		// The entity filter can empty the pool; answer from the best
		// unfiltered layer rather than returning nothing.
		if len(sparseScored) > 0 {
			s.finish(&ans, sparseScored, topK, retrieval.LayerSparse, sparseConf)
			return ans, nil
		}
		s.finish(&ans, routed, topK, retrieval.LayerRule, routeConf)
		return ans, nil
	}

	// Layer 4: cross-encoder reranking of candidate passages.
	final, layer, conf := s.timedRerank(ctx, &ans, question, hybrid)
	s.finish(&ans, final, topK, layer, conf)
	return ans, nil
}

func (s *Service) timedRoute(norm string, tokens []string) ([]retrieval.Scored, retrieval.Confidence) {
	start := time.Now()
	scored, conf := s.router.Route(norm, tokens)
	metrics.PipelineStageDuration.WithLabelValues("routing").Observe(time.Since(start).Seconds())
	return scored, conf
}

func (s *Service) timedSparse(question string, subset []string) ([]retrieval.Scored, retrieval.Confidence) {
	start := time.Now()
	scored, conf := s.sparse.Search(question, s.cfg.SparseTopK, subset)
	metrics.PipelineStageDuration.WithLabelValues("sparse").Observe(time.Since(start).Seconds())
	return scored, conf
}

// analyze builds the fusion query: numeric values, entity filter, free flag.
func (s *Service) analyze(norm string, tokens []string, intent query.Intent) fusion.Query {
	q := fusion.Query{
		Normalized: norm,
		Tokens:     tokens,
		Intent:     intent,
		Numeric:    textnorm.ExtractNumericValues(norm),
		AsksFree:   fusion.AsksFree(tokens),
	}
	matches := s.entities.Detect(norm, tokens)
	if len(matches) > 0 {
		q.DetectedFamily = matches[0].Family
	}
	q.FilterFamily = s.entities.HardFilter(matches)
	return q
}

// timedFuse runs the dense layer and fuses it with sparse. A dense failure
// degrades to sparse-only fusion instead of failing the question.
func (s *Service) timedFuse(
	ctx context.Context, ans *Answer, question string,
	subset []string, sparseScored []retrieval.Scored, q fusion.Query,
) []retrieval.Scored {
	start := time.Now()
	defer func() {
		metrics.PipelineStageDuration.WithLabelValues("dense_fusion").Observe(time.Since(start).Seconds())
	}()

	denseScored, err := s.dense.Search(ctx, question, s.cfg.DenseTopK, subset)
	if err != nil {
		if !errors.Is(err, domain.ErrIndexNotBuilt) {
			s.logger.Warn("Dense layer failed, degrading to sparse-only",
				zap.String("question", question), zap.Error(err))
		}
		metrics.PipelineDegradedTotal.WithLabelValues("dense").Inc()
		ans.Degraded = append(ans.Degraded, "dense")
		denseScored = nil
	}
	return s.fuser.Fuse(denseScored, sparseScored, q)
}

// timedRerank scores candidate passages with the cross-encoder, falling back
// to the lexical heuristic on failure or timeout.
func (s *Service) timedRerank(
	ctx context.Context, ans *Answer, question string, hybrid []retrieval.Scored,
) ([]retrieval.Scored, retrieval.Layer, retrieval.Confidence) {
	start := time.Now()
	defer func() {
		metrics.PipelineStageDuration.WithLabelValues("rerank").Observe(time.Since(start).Seconds())
	}()

	candidatePassages := s.passages.ForDocuments(ids(hybrid))
	if len(candidatePassages) > s.cfg.RerankTopN {
		candidatePassages = candidatePassages[:s.cfg.RerankTopN]
	}
	if len(candidatePassages) == 0 {
		return hybrid, retrieval.LayerHybrid, retrieval.ConfidenceMedium
	}

	texts := make([]string, len(candidatePassages))
	for i, p := range candidatePassages {
		texts[i] = p.Text
	}
	hybridByID := make(map[string]float64, len(hybrid))
	for _, h := range hybrid {
		hybridByID[h.ID] = h.Score
	}

	if s.reranker != nil {
		rctx, cancel := context.WithTimeout(ctx, s.cfg.RerankTimeout)
		results, err := s.reranker.Rerank(rctx, question, texts, len(texts))
		cancel()
		if err == nil && len(results) > 0 {
			scored := rerank.AggregateDocuments(candidatePassages, results, hybridByID, s.positions)
			return scored, retrieval.LayerRerank, retrieval.ConfidenceHigh
		}
		s.logger.Warn("Cross-encoder unavailable, using heuristic reranker",
			zap.Error(err))
		metrics.PipelineDegradedTotal.WithLabelValues("reranker").Inc()
		ans.Degraded = append(ans.Degraded, "reranker")
	}

	results, err := s.fallback.Rerank(ctx, question, texts, len(texts))
	if err != nil || len(results) == 0 {
		return hybrid, retrieval.LayerHybrid, retrieval.ConfidenceMedium
	}
	scored := rerank.AggregateDocuments(candidatePassages, results, hybridByID, s.positions)
	return scored, retrieval.LayerRerank, retrieval.ConfidenceMedium
}

// finish applies the dynamic result count and builds the LLM context.
func (s *Service) finish(
	ans *Answer, scored []retrieval.Scored, topK int,
	layer retrieval.Layer, conf retrieval.Confidence,
) {
	selected := s.dynamicSelect(scored)
	if len(selected) > topK {
		selected = selected[:topK]
	}

	ans.Results = make([]retrieval.Result, 0, len(selected))
	for _, c := range selected {
		ans.Results = append(ans.Results, retrieval.NewResult(c.ID, c.Score, layer, conf))
	}
	ans.Layer = layer
	ans.Confidence = conf
	ans.Context = s.buildContext(selected)

	metrics.PipelineQueriesTotal.WithLabelValues(string(layer)).Inc()
}

// dynamicSelect keeps candidates scoring within the relative margin of the
// top result, bounded by the configured cap. One strong winner returns alone,
// near ties return together.
func (s *Service) dynamicSelect(scored []retrieval.Scored) []retrieval.Scored {
	if len(scored) == 0 {
		return nil
	}
	top := scored[0].Score
	if top <= 0 {
		if len(scored) > s.cfg.DynamicMaxResults {
			return scored[:s.cfg.DynamicMaxResults]
		}
		return scored
	}

	out := scored[:1]
	for _, c := range scored[1:] {
		if len(out) >= s.cfg.DynamicMaxResults {
			break
		}
		if (top-c.Score)/top > s.cfg.DynamicMargin {
			break
		}
		out = scored[:len(out)+1]
	}
	return out
}

// restrict drops candidates outside the allowed set. A nil set allows all.
func restrict(scored []retrieval.Scored, allowed map[string]struct{}) []retrieval.Scored {
	if allowed == nil {
		return scored
	}
	out := make([]retrieval.Scored, 0, len(scored))
	for _, c := range scored {
		if _, ok := allowed[c.ID]; ok {
			out = append(out, c)
		}
	}
	return out
}

func ids(scored []retrieval.Scored) []string {
	out := make([]string, 0, len(scored))
	for _, s := range scored {
		out = append(out, s.ID)
	}
	return out
}

// BatchAsk processes a batch of categorized questions concurrently. Failed
// questions carry their error message instead of failing the whole batch.
func (s *Service) BatchAsk(ctx context.Context, req BatchRequest) BatchResponse {
	resp := BatchResponse{
		Team:    req.Team,
		Answers: make(map[string]map[string]QuestionAnswer, len(req.Questions)),
	}

	type job struct {
		category, qid, text string
	}
	jobs := make([]job, 0, 16)
	for category, byID := range req.Questions {
		resp.Answers[category] = make(map[string]QuestionAnswer, len(byID))
		for qid, text := range byID {
			jobs = append(jobs, job{category: category, qid: qid, text: text})
		}
	}

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		sem = make(chan struct{}, s.cfg.BatchWorkers)
	)
	for _, j := range jobs {
		wg.Add(1)
		sem <- struct{}{}
		go func(j job) {
			defer wg.Done()
			defer func() { <-sem }()

			ans, err := s.Ask(ctx, j.text, req.TopK)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				resp.Answers[j.category][j.qid] = QuestionAnswer{Question: j.text, Error: err.Error()}
				return
			}
			resp.Answers[j.category][j.qid] = toQuestionAnswer(j.text, ans)
		}(j)
	}
	wg.Wait()

	return resp
}
