package usage

import (
	"context"
	"time"

	"github.com/kailas-cloud/grantix/internal/domain"
	domusage "github.com/kailas-cloud/grantix/internal/domain/usage"
	"github.com/kailas-cloud/grantix/internal/domain/usage/budget"
	"github.com/kailas-cloud/grantix/internal/domain/usage/metrics"
)

// Service handles usage reporting across providers.
type Service struct {
	readers map[string]BudgetReader
}

// New creates a Service. A nil reader means unlimited mode for that provider.
func New(embedding, chat BudgetReader) *Service {
	return &Service{
		readers: map[string]BudgetReader{
			domusage.ProviderEmbedding: embedding,
			domusage.ProviderChat:      chat,
		},
	}
}

// GetReport builds a usage report for one provider over the given period.
func (s *Service) GetReport(_ context.Context, provider string, period domusage.Period) (domusage.Report, error) {
	br, ok := s.readers[provider]
	if !ok {
		return domusage.Report{}, domain.NewValidationError("provider", "must be embedding or chat")
	}

	now := time.Now().UTC()
	var start, end int64
	var limit, used, requests, remaining int64

	switch period {
	case domusage.PeriodDay:
		dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		dayEnd := dayStart.Add(24 * time.Hour)
		start = dayStart.UnixMilli()
		end = dayEnd.UnixMilli()
		if br != nil {
			limit = br.DailyLimit()
			used = br.DailyUsed()
			requests = br.DailyRequests()
			remaining = br.RemainingDaily()
		}
	case domusage.PeriodMonth:
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		monthEnd := monthStart.AddDate(0, 1, 0)
		start = monthStart.UnixMilli()
		end = monthEnd.UnixMilli()
		if br != nil {
			limit = br.MonthlyLimit()
			used = br.MonthlyUsed()
			requests = br.MonthlyRequests()
			remaining = br.RemainingMonthly()
		}
	default:
		// total: no period boundaries
		if br != nil {
			limit = br.MonthlyLimit()
			used = br.MonthlyUsed()
			requests = br.MonthlyRequests()
			remaining = br.RemainingMonthly()
		}
	}

	b := budget.Unlimited()
	if br != nil && limit > 0 {
		b = budget.New(limit, remaining, remaining <= 0, end)
	}
	m := metrics.New(requests, used)

	return domusage.NewReport(provider, period, start, end, m, b), nil
}
