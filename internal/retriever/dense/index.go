// Package dense implements the semantic retrieval layer: documents are
// embedded once at build time into an L2-normalized in-memory matrix, queries
// are embedded per request, and similarity is a cosine scan. The corpus is a
// few hundred documents, so a brute-force scan beats any ANN structure.
package dense

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/sohaib162/forsa-smart-chatbot/internal/domain"
	"github.com/sohaib162/forsa-smart-chatbot/internal/domain/document"
	"github.com/sohaib162/forsa-smart-chatbot/internal/domain/retrieval"
)

// Config holds the dense index build parameters.
type Config struct {
	// BatchSize bounds how many documents are embedded per provider call.
	BatchSize int
}

// Index embeds documents at build time and serves cosine top-k queries.
// Build must complete before Search; concurrent Search calls are safe once
// the index is built.
type Index struct {
	docEmbedder   domain.BatchEmbedder
	queryEmbedder domain.Embedder
	cfg           Config
	logger        *zap.Logger

	mu       sync.RWMutex
	ids      []string
	position map[string]int
	matrix   [][]float32
	built    bool
}

// NewIndex wires the two embedder chains: documents and queries carry
// different instructions on asymmetric retrieval models.
func NewIndex(docEmbedder domain.BatchEmbedder, queryEmbedder domain.Embedder, cfg Config, logger *zap.Logger) *Index {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 32
	}
	return &Index{
		docEmbedder:   docEmbedder,
		queryEmbedder: queryEmbedder,
		cfg:           cfg,
		logger:        logger,
	}
}

// Build embeds every document's dense text in batches. Cancelling the context
// aborts between batches and leaves the index unbuilt; a successful Build
// atomically swaps in the new matrix.
func (x *Index) Build(ctx context.Context, docs []document.Document) error {
	if len(docs) == 0 {
		return domain.ErrEmptyCorpus
	}

	ids := make([]string, 0, len(docs))
	position := make(map[string]int, len(docs))
	matrix := make([][]float32, 0, len(docs))

	for start := 0; start < len(docs); start += x.cfg.BatchSize {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("dense index build cancelled: %w", err)
		}
		end := start + x.cfg.BatchSize
		if end > len(docs) {
			end = len(docs)
		}

		texts := make([]string, 0, end-start)
		for _, doc := range docs[start:end] {
			texts = append(texts, doc.DenseText)
		}
		res, err := x.docEmbedder.BatchEmbed(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed document batch [%d:%d]: %w", start, end, err)
		}
		if len(res.Embeddings) != len(texts) {
			return fmt.Errorf("embed document batch [%d:%d]: got %d vectors for %d texts",
				start, end, len(res.Embeddings), len(texts))
		}

		for i, doc := range docs[start:end] {
			ids = append(ids, doc.ID)
			position[doc.ID] = doc.Position
			matrix = append(matrix, normalize(res.Embeddings[i]))
		}
	}

	x.mu.Lock()
	x.ids = ids
	x.position = position
	x.matrix = matrix
	x.built = true
	x.mu.Unlock()

	x.logger.Info("Dense index built",
		zap.Int("documents", len(ids)),
		zap.Int("dimensions", dim(matrix)))
	return nil
}

// Search embeds the query and scans the matrix. A non-empty subset restricts
// scoring to those IDs. Returns ErrIndexNotBuilt before the first successful
// Build.
func (x *Index) Search(ctx context.Context, query string, topK int, subset []string) ([]retrieval.Scored, error) {
	x.mu.RLock()
	built := x.built
	ids := x.ids
	position := x.position
	matrix := x.matrix
	x.mu.RUnlock()

	if !built {
		return nil, domain.ErrIndexNotBuilt
	}

	res, err := x.queryEmbedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	qvec := normalize(res.Embedding)

	var subsetSet map[string]struct{}
	if len(subset) > 0 {
		subsetSet = make(map[string]struct{}, len(subset))
		for _, id := range subset {
			subsetSet[id] = struct{}{}
		}
	}

	scored := make([]retrieval.Scored, 0, len(ids))
	for i, id := range ids {
		if subsetSet != nil {
			if _, ok := subsetSet[id]; !ok {
				continue
			}
		}
		scored = append(scored, retrieval.Scored{ID: id, Score: dot(qvec, matrix[i])})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return position[scored[i].ID] < position[scored[j].ID]
	})
	if topK > 0 && len(scored) > topK {
		scored = scored[:topK]
	}
	return scored, nil
}

// Built reports whether the index is ready to serve.
func (x *Index) Built() bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.built
}

func normalize(v []float32) []float32 {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	if sum == 0 {
		return v
	}
	inv := 1 / math.Sqrt(sum)
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(float64(f) * inv)
	}
	return out
}

func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func dim(matrix [][]float32) int {
	if len(matrix) == 0 {
		return 0
	}
	return len(matrix[0])
}
