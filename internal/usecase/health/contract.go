package health

import "context"

// CachePinger checks embedding cache availability.
type CachePinger interface {
	Ping(ctx context.Context) error
}

// ModelChecker checks a remote model backend, embedding provider or reranker.
type ModelChecker interface {
	HealthCheck(ctx context.Context) error
}

// IndexStatus reports whether a retrieval index is ready to serve queries.
type IndexStatus interface {
	Built() bool
}
