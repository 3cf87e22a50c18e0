// Package chi exposes the retrieval pipeline over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	chirouter "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sohaib162/forsa-smart-chatbot/internal/domain"
	logpkg "github.com/sohaib162/forsa-smart-chatbot/internal/logger"
	healthuc "github.com/sohaib162/forsa-smart-chatbot/internal/usecase/health"
	pipelineuc "github.com/sohaib162/forsa-smart-chatbot/internal/usecase/pipeline"
)

const maxBatchQuestions = 100

// ErrorCode identifies an API error class.
type ErrorCode string

// API error codes.
const (
	CodeBadRequest       ErrorCode = "bad_request"
	CodeValidationFailed ErrorCode = "validation_failed"
	CodeIndexNotReady    ErrorCode = "index_not_ready"
	CodeModelUnavailable ErrorCode = "model_unavailable"
	CodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the JSON body for failed requests.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// SearchRequest is the body for POST /search. Category optionally restricts
// results to documents carrying that tag (doc type, product family, keyword).
type SearchRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k,omitempty"`
	Category string `json:"category,omitempty"`
}

// SearchResult is one ranked document in a search response.
type SearchResult struct {
	DocumentID string  `json:"document_id"`
	Score      float64 `json:"score"`
}

// SearchResponse is the body for a successful POST /search.
type SearchResponse struct {
	Question   string         `json:"question"`
	Language   string         `json:"language"`
	Intent     string         `json:"intent"`
	Layer      string         `json:"layer"`
	Confidence string         `json:"confidence"`
	Degraded   []string       `json:"degraded,omitempty"`
	Results    []SearchResult `json:"results"`
	Context    string         `json:"context"`
}

// HealthResponse is the body for GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the question answering API.
type Server struct {
	pipeline      *pipelineuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(pipeline *pipelineuc.Service, health *healthuc.Service, logger *zap.Logger) *Server {
	s := &Server{
		pipeline: pipeline,
		health:   health,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrInvalidSchema, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrEmptyCorpus, http.StatusServiceUnavailable, CodeIndexNotReady),
		sentinelHandler(domain.ErrIndexNotBuilt, http.StatusServiceUnavailable, CodeIndexNotReady),
		sentinelHandler(domain.ErrModelUnavailable, http.StatusBadGateway, CodeModelUnavailable),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeModelUnavailable),
	}
	return s
}

// Router builds the chi router with the given outer middlewares applied to
// every route.
func (s *Server) Router(middlewares ...func(http.Handler) http.Handler) http.Handler {
	r := chirouter.NewRouter()
	for _, mw := range middlewares {
		r.Use(mw)
	}
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Post("/search", s.Search)
	r.Post("/process-question", s.ProcessQuestion)
	return r
}

// Search handles POST /search: one question, ranked documents plus the
// structured context.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "question is required")
		return
	}

	ans, err := s.pipeline.AskFiltered(r.Context(), req.Question, req.TopK, req.Category)
	if err != nil {
		s.handleDomainError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, answerToResponse(ans))
}

// ProcessQuestion handles POST /process-question: a batch of categorized
// questions answered concurrently. Individual failures are reported per
// question, not as a batch failure.
func (s *Server) ProcessQuestion(w http.ResponseWriter, r *http.Request) {
	var req pipelineuc.BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	total := 0
	for _, byID := range req.Questions {
		total += len(byID)
	}
	if total == 0 || total > maxBatchQuestions {
		writeError(w, http.StatusBadRequest, CodeValidationFailed,
			fmt.Sprintf("question count must be between 1 and %d", maxBatchQuestions))
		return
	}

	resp := s.pipeline.BatchAsk(r.Context(), req)
	writeJSON(w, http.StatusOK, resp)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func answerToResponse(ans pipelineuc.Answer) SearchResponse {
	results := make([]SearchResult, 0, len(ans.Results))
	for i := range ans.Results {
		results = append(results, SearchResult{
			DocumentID: ans.Results[i].ID(),
			Score:      ans.Results[i].Score(),
		})
	}
	return SearchResponse{
		Question:   ans.Query,
		Language:   string(ans.Language),
		Intent:     string(ans.Intent),
		Layer:      string(ans.Layer),
		Confidence: string(ans.Confidence),
		Degraded:   ans.Degraded,
		Results:    results,
		Context:    ans.Context,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidQuery,
		domain.ErrInvalidSchema,
		domain.ErrEmptyCorpus,
		domain.ErrIndexNotBuilt,
		domain.ErrModelUnavailable,
		domain.ErrEmbeddingProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	log := logpkg.FromContext(ctx, s.logger)
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
