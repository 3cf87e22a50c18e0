// Package rerank scores query/passage pairs with a cross-encoder served over
// the llama.cpp rerank endpoint, falls back to a lexical heuristic when the
// model is unreachable, and folds passage scores back into document scores.
package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/sohaib162/forsa-smart-chatbot/internal/domain"
)

// Result is one reranked candidate. Index refers to the request's document
// slice, not any corpus ordering.
type Result struct {
	Index int
	Score float64
}

// Scorer ranks candidate texts against a query.
type Scorer interface {
	Rerank(ctx context.Context, query string, documents []string, topN int) ([]Result, error)
}

// Config holds the cross-encoder endpoint settings.
type Config struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Client talks to a llama.cpp style /v1/rerank endpoint.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

// NewClient builds the HTTP client. BaseURL is required; Timeout defaults
// to 10 seconds.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n,omitempty"`
}

type rerankResponse struct {
	Model   string `json:"model"`
	Results []struct {
		Index int     `json:"index"`
		Score float64 `json:"relevance_score"`
	} `json:"results"`
}

// Rerank sends the query/document pairs to the model. Transport failures and
// non-200 responses map to ErrModelUnavailable so callers can degrade to the
// heuristic scorer.
func (c *Client) Rerank(ctx context.Context, query string, documents []string, topN int) ([]Result, error) {
	if len(documents) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(rerankRequest{
		Model:     c.cfg.Model,
		Query:     query,
		Documents: documents,
		TopN:      topN,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/rerank", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rerank request: %w: %w", domain.ErrModelUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("Reranker returned non-200",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", payload))
		return nil, fmt.Errorf("rerank status %d: %w", resp.StatusCode, domain.ErrModelUnavailable)
	}

	var parsed rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode rerank response: %w: %w", domain.ErrModelUnavailable, err)
	}

	results := make([]Result, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		if r.Index < 0 || r.Index >= len(documents) {
			return nil, fmt.Errorf("rerank index %d out of range for %d documents: %w",
				r.Index, len(documents), domain.ErrModelUnavailable)
		}
		results = append(results, Result{Index: r.Index, Score: r.Score})
	}
	return results, nil
}

// HealthCheck probes the endpoint with a minimal request.
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.Rerank(ctx, "ping", []string{"pong"}, 1)
	return err
}
