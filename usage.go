package grantix

import (
	"context"
	"fmt"
	"time"

	domusage "github.com/kailas-cloud/grantix/internal/domain/usage"
)

// Provider names for usage reports.
const (
	ProviderEmbedding = domusage.ProviderEmbedding
	ProviderChat      = domusage.ProviderChat
)

// UsagePeriod is the aggregation granularity for usage reports.
type UsagePeriod string

// UsagePeriod constants.
const (
	PeriodDay   UsagePeriod = "day"
	PeriodMonth UsagePeriod = "month"
	PeriodTotal UsagePeriod = "total"
)

// UsageReport contains provider API usage for a time period.
type UsageReport struct {
	Provider    string
	Period      UsagePeriod
	PeriodStart time.Time
	PeriodEnd   time.Time
	Requests    int64
	Tokens      int64
	Budget      BudgetStatus
}

// BudgetStatus tracks token quota state. A zero limit means unlimited and
// TokensRemaining is then -1.
type BudgetStatus struct {
	TokensLimit     int64
	TokensRemaining int64
	IsExhausted     bool
	ResetsAt        time.Time
}

// Usage returns a usage report for one provider API ("embedding" or "chat").
func (c *Client) Usage(ctx context.Context, provider string, period UsagePeriod) (u UsageReport, err error) {
	start := time.Now()
	defer func() { c.obs.observe("usage", start, err) }()

	report, err := c.usage.GetReport(ctx, provider, domusage.Period(period))
	if err != nil {
		return UsageReport{}, fmt.Errorf("usage: %w", err)
	}
	m := report.Metrics()
	b := report.Budget()

	u = UsageReport{
		Provider: report.Provider(),
		Period:   UsagePeriod(report.Period()),
		Requests: m.Requests(),
		Tokens:   m.Tokens(),
		Budget: BudgetStatus{
			TokensLimit:     b.TokensLimit(),
			TokensRemaining: b.TokensRemaining(),
			IsExhausted:     b.IsExhausted(),
		},
	}
	if ts := report.PeriodStart(); ts > 0 {
		u.PeriodStart = time.UnixMilli(ts).UTC()
	}
	if ts := report.PeriodEnd(); ts > 0 {
		u.PeriodEnd = time.UnixMilli(ts).UTC()
	}
	if ts := b.ResetsAt(); ts > 0 {
		u.Budget.ResetsAt = time.UnixMilli(ts).UTC()
	}
	return u, nil
}
