package grantix

import (
	"context"
	"testing"
	"time"

	"github.com/kailas-cloud/grantix/internal/domain/record"
	"github.com/kailas-cloud/grantix/internal/domain/record/field"
	"github.com/kailas-cloud/grantix/internal/domain/search/query"
	"github.com/kailas-cloud/grantix/internal/domain/search/result"
	domusage "github.com/kailas-cloud/grantix/internal/domain/usage"
	chatuc "github.com/kailas-cloud/grantix/internal/usecase/chat"
	healthuc "github.com/kailas-cloud/grantix/internal/usecase/health"
	rankeruc "github.com/kailas-cloud/grantix/internal/usecase/ranker"
)

// --- askUseCase mock ---

type mockAskUC struct {
	askFn func(ctx context.Context, req chatuc.Request) (chatuc.Response, error)
}

func (m *mockAskUC) Ask(ctx context.Context, req chatuc.Request) (chatuc.Response, error) {
	return m.askFn(ctx, req)
}

// --- searchUseCase mock ---

type mockSearchUC struct {
	rankFn func(ctx context.Context, q query.Query) ([]rankeruc.Hit, error)
}

func (m *mockSearchUC) Rank(ctx context.Context, q query.Query) ([]rankeruc.Hit, error) {
	return m.rankFn(ctx, q)
}

// --- recordReader mock ---

type mockRecordsUC struct {
	getFn    func(ctx context.Context, id string) (record.Record, error)
	recentFn func(ctx context.Context, limit, offset int) ([]record.Record, error)
}

func (m *mockRecordsUC) GetByID(ctx context.Context, id string) (record.Record, error) {
	return m.getFn(ctx, id)
}

func (m *mockRecordsUC) Recent(ctx context.Context, limit, offset int) ([]record.Record, error) {
	return m.recentFn(ctx, limit, offset)
}

// --- usageUseCase mock ---

type mockUsageUC struct {
	reportFn func(ctx context.Context, provider string, period domusage.Period) (domusage.Report, error)
}

func (m *mockUsageUC) GetReport(
	ctx context.Context, provider string, period domusage.Period,
) (domusage.Report, error) {
	return m.reportFn(ctx, provider, period)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	checkFn func(ctx context.Context) healthuc.Report
}

func (m *mockHealthUC) Check(ctx context.Context) healthuc.Report {
	return m.checkFn(ctx)
}

// --- provider mocks ---

type mockEmbedder struct {
	fn func(ctx context.Context, text string) (EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.fn(ctx, text)
}

type mockChatModel struct {
	fn func(ctx context.Context, req ModelRequest) (ModelResponse, error)
}

func (m *mockChatModel) Generate(ctx context.Context, req ModelRequest) (ModelResponse, error) {
	return m.fn(ctx, req)
}

// --- fixtures ---

func testRecord(t *testing.T, id, title string) record.Record {
	t.Helper()
	regions, err := field.NewCategorical([]string{"bizkaia"})
	if err != nil {
		t.Fatalf("NewCategorical: %v", err)
	}
	minAmount := 5000.0
	amount, err := field.NewNumericRange(&minAmount, nil)
	if err != nil {
		t.Fatalf("NewNumericRange: %v", err)
	}
	rec, err := record.New(id, title, "SPRI", "Resumen de "+title,
		time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		map[string]field.Value{
			record.FieldRegions: regions,
			record.FieldAmount:  amount,
			record.FieldOpen:    field.NewBool(true),
		})
	if err != nil {
		t.Fatalf("record.New: %v", err)
	}
	return rec
}

func testHit(t *testing.T, id, title string) rankeruc.Hit {
	t.Helper()
	return rankeruc.Hit{
		Result: result.New(id, 0.91, true, 0.028, []string{"title_partial"}),
		Record: testRecord(t, id, title),
	}
}
