package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates total failure.
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

// Service coordinates health checks across the engine's dependencies.
type Service struct {
	records   Pinger
	cache     Pinger
	embedding ProviderChecker
	chat      ProviderChecker
}

// New creates a Service. Nil components are skipped.
func New(records, cache Pinger, embedding, chat ProviderChecker) *Service {
	return &Service{records: records, cache: cache, embedding: embedding, chat: chat}
}

// Check runs health checks against all configured components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if s.records != nil {
		checks["records"] = pingResult(s.records.Ping(ctx))
	}
	if s.cache != nil {
		checks["cache"] = pingResult(s.cache.Ping(ctx))
	}
	if s.embedding != nil {
		checks["embedding"] = pingResult(s.embedding.HealthCheck(ctx))
	}
	if s.chat != nil {
		checks["chat"] = pingResult(s.chat.HealthCheck(ctx))
	}

	failures := 0
	for _, v := range checks {
		if v == CheckError {
			failures++
		}
	}

	status := Healthy
	switch {
	case len(checks) > 0 && failures == len(checks):
		status = Unhealthy
	case failures > 0:
		status = Degraded
	}

	return Report{Status: status, Checks: checks}
}

func pingResult(err error) CheckResult {
	if err != nil {
		return CheckError
	}
	return CheckOK
}
