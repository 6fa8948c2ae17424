package usage

import (
	"github.com/kailas-cloud/grantix/internal/domain/usage/budget"
	"github.com/kailas-cloud/grantix/internal/domain/usage/metrics"
)

// Provider names for usage reports.
const (
	ProviderEmbedding = "embedding"
	ProviderChat      = "chat"
)

// Period is the aggregation granularity.
type Period string

// Aggregation period constants.
const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
	PeriodTotal Period = "total"
)

// IsValid checks if the period is one of the supported values.
func (p Period) IsValid() bool {
	return p == PeriodDay || p == PeriodMonth || p == PeriodTotal
}

// Report is a provider API usage report for a time period.
type Report struct {
	provider    string
	period      Period
	periodStart int64
	periodEnd   int64
	metrics     metrics.Metrics
	budget      budget.Budget
}

// NewReport creates a usage report.
func NewReport(provider string, period Period, start, end int64, m metrics.Metrics, b budget.Budget) Report {
	return Report{
		provider:    provider,
		period:      period,
		periodStart: start,
		periodEnd:   end,
		metrics:     m,
		budget:      b,
	}
}

// Provider returns the provider the report covers.
func (r *Report) Provider() string { return r.provider }

// Period returns the aggregation granularity.
func (r *Report) Period() Period { return r.period }

// PeriodStart returns the period start timestamp (unix millis).
func (r *Report) PeriodStart() int64 { return r.periodStart }

// PeriodEnd returns the period end timestamp (unix millis).
func (r *Report) PeriodEnd() int64 { return r.periodEnd }

// Metrics returns the usage metrics.
func (r *Report) Metrics() metrics.Metrics { return r.metrics }

// Budget returns the budget status.
func (r *Report) Budget() budget.Budget { return r.budget }
