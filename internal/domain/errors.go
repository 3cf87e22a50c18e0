package domain

import "errors"

var (
	// ErrInvalidSchema signals a corpus record that violates the document schema.
	ErrInvalidSchema = errors.New("invalid document schema")
	// ErrInvalidQuery signals an empty or malformed query.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrEmptyCorpus signals an attempt to build indexes over zero documents.
	ErrEmptyCorpus = errors.New("empty corpus")
	// ErrIndexNotBuilt signals a query against an index whose build has not completed.
	ErrIndexNotBuilt = errors.New("index not built")
	// ErrModelUnavailable signals that a remote model backend cannot be reached.
	ErrModelUnavailable = errors.New("model unavailable")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)
