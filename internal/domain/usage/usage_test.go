package usage

import (
	"testing"

	"github.com/kailas-cloud/grantix/internal/domain/usage/budget"
	"github.com/kailas-cloud/grantix/internal/domain/usage/metrics"
)

func TestNewReport(t *testing.T) {
	m := metrics.New(1542, 384200)
	b := budget.New(1000000, 615800, false, 1700000000000)

	r := NewReport(ProviderEmbedding, PeriodMonth, 1700000000, 1702600000, m, b)

	if r.Provider() != ProviderEmbedding {
		t.Errorf("Provider() = %q", r.Provider())
	}
	if r.Period() != PeriodMonth {
		t.Errorf("Period() = %q", r.Period())
	}
	if r.PeriodStart() != 1700000000 {
		t.Errorf("PeriodStart() = %d", r.PeriodStart())
	}
	if r.PeriodEnd() != 1702600000 {
		t.Errorf("PeriodEnd() = %d", r.PeriodEnd())
	}
	if r.Metrics().Requests() != 1542 {
		t.Errorf("Metrics().Requests() = %d", r.Metrics().Requests())
	}
	if r.Budget().TokensLimit() != 1000000 {
		t.Errorf("Budget().TokensLimit() = %d", r.Budget().TokensLimit())
	}
}

func TestPeriodConstants(t *testing.T) {
	if PeriodDay != "day" {
		t.Errorf("PeriodDay = %q", PeriodDay)
	}
	if PeriodMonth != "month" {
		t.Errorf("PeriodMonth = %q", PeriodMonth)
	}
	if PeriodTotal != "total" {
		t.Errorf("PeriodTotal = %q", PeriodTotal)
	}
}

func TestPeriodIsValid(t *testing.T) {
	for _, p := range []Period{PeriodDay, PeriodMonth, PeriodTotal} {
		if !p.IsValid() {
			t.Errorf("expected %q to be valid", p)
		}
	}
	if Period("week").IsValid() {
		t.Error("expected unknown period to be invalid")
	}
}
