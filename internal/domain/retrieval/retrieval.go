// Package retrieval holds the types exchanged between pipeline layers.
package retrieval

// Layer identifies which retrieval layer produced a result.
type Layer string

// Retrieval layers in pipeline order.
const (
	LayerRule   Layer = "rule_router"
	LayerSparse Layer = "sparse"
	LayerHybrid Layer = "hybrid"
	LayerRerank Layer = "rerank"
)

// Confidence is the self-assessed reliability of a layer's ranking.
type Confidence string

// Confidence levels. High short-circuits the pipeline, Low hands over to the next layer.
const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Scored is a candidate with its raw layer score. Slices of Scored are
// always ordered by score descending, ties broken by corpus position.
type Scored struct {
	ID    string
	Score float64
}

// Result is a single ranked document in the final pipeline output.
type Result struct {
	id         string
	score      float64
	layer      Layer
	confidence Confidence
}

// NewResult creates a final ranked result.
func NewResult(id string, score float64, layer Layer, confidence Confidence) Result {
	return Result{id: id, score: score, layer: layer, confidence: confidence}
}

// ID returns the document identifier.
func (r *Result) ID() string { return r.id }

// Score returns the relevance score assigned by the terminal layer.
func (r *Result) Score() float64 { return r.score }

// Layer returns the layer that produced the final ranking.
func (r *Result) Layer() Layer { return r.layer }

// Confidence returns the terminal layer's confidence.
func (r *Result) Confidence() Confidence { return r.confidence }
