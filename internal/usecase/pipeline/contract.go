package pipeline

import (
	"context"

	"github.com/sohaib162/forsa-smart-chatbot/internal/domain/retrieval"
)

// Router is the deterministic metadata routing layer.
type Router interface {
	Route(normQuery string, tokens []string) ([]retrieval.Scored, retrieval.Confidence)
}

// SparseSearcher is the lexical BM25 layer.
type SparseSearcher interface {
	Search(query string, topK int, subset []string) ([]retrieval.Scored, retrieval.Confidence)
}

// DenseSearcher is the semantic embedding layer.
type DenseSearcher interface {
	Search(ctx context.Context, query string, topK int, subset []string) ([]retrieval.Scored, error)
	Built() bool
}
