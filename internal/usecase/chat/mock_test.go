package chat

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/grantix/internal/domain"
	domconv "github.com/kailas-cloud/grantix/internal/domain/conversation"
	domintent "github.com/kailas-cloud/grantix/internal/domain/intent"
	"github.com/kailas-cloud/grantix/internal/domain/record"
	"github.com/kailas-cloud/grantix/internal/domain/search/query"
	"github.com/kailas-cloud/grantix/internal/domain/search/result"
	"github.com/kailas-cloud/grantix/internal/domain/tier"
	"github.com/kailas-cloud/grantix/internal/usecase/ranker"
)

// --- Classifier and selector mocks ---

type mockClassifier struct {
	intent         domintent.Intent
	lastUtterance  string
	lastHasSession bool
}

func (m *mockClassifier) Classify(utterance string, hasActiveSession bool) domintent.Intent {
	m.lastUtterance = utterance
	m.lastHasSession = hasActiveSession
	return m.intent
}

type mockSelector struct {
	tier        tier.Tier
	lastIntent  domintent.Intent
	lastResults int
}

func (m *mockSelector) Select(it domintent.Intent, resultCount int) tier.Tier {
	m.lastIntent = it
	m.lastResults = resultCount
	if m.tier == "" {
		return tier.Standard
	}
	return m.tier
}

// --- Conversations mock ---

type mockConversations struct {
	turns     map[string][]domconv.Turn
	ensureErr error
	appendErr error
}

func newMockConversations() *mockConversations {
	return &mockConversations{turns: make(map[string][]domconv.Turn)}
}

func (m *mockConversations) EnsureSession(id string) (domconv.Session, error) {
	if m.ensureErr != nil {
		return domconv.Session{}, m.ensureErr
	}
	if id == "" {
		id = "sess-fresh"
	}
	return domconv.Reconstruct(id, m.turns[id], time.Time{}), nil
}

func (m *mockConversations) Append(sessionID string, turn domconv.Turn) (domconv.Session, error) {
	if m.appendErr != nil {
		return domconv.Session{}, m.appendErr
	}
	m.turns[sessionID] = append(m.turns[sessionID], turn)
	return domconv.Reconstruct(sessionID, m.turns[sessionID], turn.At()), nil
}

func (m *mockConversations) Context(sessionID string) []domconv.Turn {
	return m.turns[sessionID]
}

func (m *mockConversations) HasHistory(sessionID string) bool {
	return len(m.turns[sessionID]) > 0
}

// --- Retrieval mocks ---

// mockChatRanker returns hits, or walks hitsSeq call by call when set.
type mockChatRanker struct {
	hits      []ranker.Hit
	hitsSeq   [][]ranker.Hit
	err       error
	calls     int
	lastQuery query.Query
}

func (m *mockChatRanker) Rank(ctx context.Context, q query.Query) ([]ranker.Hit, error) {
	m.calls++
	m.lastQuery = q
	if m.err != nil {
		return nil, m.err
	}
	if len(m.hitsSeq) > 0 {
		idx := m.calls - 1
		if idx >= len(m.hitsSeq) {
			idx = len(m.hitsSeq) - 1
		}
		return m.hitsSeq[idx], nil
	}
	return m.hits, nil
}

type mockRecords struct {
	byID      map[string]record.Record
	recent    []record.Record
	getErr    error
	recentErr error
}

func (m *mockRecords) GetByID(ctx context.Context, id string) (record.Record, error) {
	if m.getErr != nil {
		return record.Record{}, m.getErr
	}
	rec, ok := m.byID[id]
	if !ok {
		return record.Record{}, domain.ErrNotFound
	}
	return rec, nil
}

func (m *mockRecords) Recent(ctx context.Context, limit, offset int) ([]record.Record, error) {
	if m.recentErr != nil {
		return nil, m.recentErr
	}
	if offset >= len(m.recent) {
		return nil, nil
	}
	recs := m.recent[offset:]
	if limit < len(recs) {
		recs = recs[:limit]
	}
	return recs, nil
}

// --- Model mock ---

// mockModel replays scripted responses in order, repeating the last one when
// the script runs out.
type mockModel struct {
	responses []domain.ChatResponse
	err       error
	calls     int
	requests  []domain.ChatRequest
}

func (m *mockModel) Generate(ctx context.Context, req domain.ChatRequest) (domain.ChatResponse, error) {
	m.calls++
	m.requests = append(m.requests, req)
	if m.err != nil {
		return domain.ChatResponse{}, m.err
	}
	if err := ctx.Err(); err != nil {
		return domain.ChatResponse{}, err
	}
	if len(m.responses) == 0 {
		return domain.ChatResponse{}, nil
	}
	idx := m.calls - 1
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	return m.responses[idx], nil
}

// --- Fixtures ---

func announcement(t *testing.T, id, title string) record.Record {
	t.Helper()
	rec, err := record.New(id, title, "SPRI", "Resumen de "+title,
		time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), nil)
	if err != nil {
		t.Fatalf("record.New: %v", err)
	}
	return rec
}

func hit(t *testing.T, id, title string) ranker.Hit {
	t.Helper()
	return ranker.Hit{
		Result: result.New(id, 0.8, false, 0.02, nil),
		Record: announcement(t, id, title),
	}
}

func textResponse(text string) domain.ChatResponse {
	return domain.ChatResponse{
		Text:  text,
		Usage: domain.ChatUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}
}

func toolResponse(calls ...domain.ToolCall) domain.ChatResponse {
	return domain.ChatResponse{
		ToolCalls: calls,
		Usage:     domain.ChatUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}
}

func newTestService(
	t *testing.T,
	classifier *mockClassifier,
	model *mockModel,
	rk *mockChatRanker,
	records *mockRecords,
	conv *mockConversations,
	cfg Config,
) (*Service, *Registry) {
	t.Helper()
	reg := NewRegistry()
	if err := RegisterBuiltinTools(reg, rk, records); err != nil {
		t.Fatalf("RegisterBuiltinTools: %v", err)
	}
	svc := New(classifier, &mockSelector{}, conv, rk, records, model, reg, cfg, zap.NewNop())
	return svc, reg
}
