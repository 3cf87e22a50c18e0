package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure; the pipeline still answers.
	Degraded Status = "degraded"
	// Unhealthy indicates the service cannot answer queries at all.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks. Model backends and the cache are
// optional: their failure degrades the report but the sparse layers keep
// the service answering.
type Service struct {
	cache     CachePinger
	embedding ModelChecker
	reranker  ModelChecker
	dense     IndexStatus
}

// New creates a Service. Any dependency can be nil and is then skipped.
func New(cache CachePinger, embedding, reranker ModelChecker, dense IndexStatus) *Service {
	return &Service{cache: cache, embedding: embedding, reranker: reranker, dense: dense}
}

// Check runs health checks against all configured components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if s.cache != nil {
		if err := s.cache.Ping(ctx); err != nil {
			checks["cache"] = CheckError
		} else {
			checks["cache"] = CheckOK
		}
	}

	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks["embedding"] = CheckError
		} else {
			checks["embedding"] = CheckOK
		}
	}

	if s.reranker != nil {
		if err := s.reranker.HealthCheck(ctx); err != nil {
			checks["reranker"] = CheckError
		} else {
			checks["reranker"] = CheckOK
		}
	}

	if s.dense != nil {
		if s.dense.Built() {
			checks["dense_index"] = CheckOK
		} else {
			checks["dense_index"] = CheckError
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}
