package grantix

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/grantix/internal/domain"
	"github.com/kailas-cloud/grantix/internal/domain/record"
	"github.com/kailas-cloud/grantix/internal/domain/tier"
	chatuc "github.com/kailas-cloud/grantix/internal/usecase/chat"
	rankeruc "github.com/kailas-cloud/grantix/internal/usecase/ranker"
)

// embedderAdapter wraps the public Embedder to satisfy domain.Embedder.
// The embed mode is dropped: custom providers receive the raw query text.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string, _ domain.EmbedMode) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// modelAdapter wraps the public ChatModel to satisfy domain.ChatModel.
type modelAdapter struct {
	inner ChatModel
}

func (a *modelAdapter) Generate(ctx context.Context, req domain.ChatRequest) (domain.ChatResponse, error) {
	resp, err := a.inner.Generate(ctx, modelRequestFromDomain(req))
	if err != nil {
		return domain.ChatResponse{}, fmt.Errorf("generate: %w", err)
	}
	return modelResponseToDomain(resp), nil
}

func modelRequestFromDomain(req domain.ChatRequest) ModelRequest {
	out := ModelRequest{
		Tier:     Tier(req.Tier),
		Messages: make([]Message, 0, len(req.Messages)),
		Tools:    make([]ToolSchema, 0, len(req.Tools)),
	}
	for _, m := range req.Messages {
		out.Messages = append(out.Messages, Message{
			Role:       Role(m.Role),
			Content:    m.Content,
			ToolCalls:  toolCallsFromDomain(m.ToolCalls),
			ToolCallID: m.ToolCallID,
		})
	}
	for _, t := range req.Tools {
		out.Tools = append(out.Tools, ToolSchema{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Parameters,
		})
	}
	return out
}

func modelResponseToDomain(resp ModelResponse) domain.ChatResponse {
	return domain.ChatResponse{
		Text:      resp.Text,
		ToolCalls: toolCallsToDomain(resp.ToolCalls),
		Usage: domain.ChatUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}
}

func toolCallsFromDomain(calls []domain.ToolCall) []ToolCall {
	if len(calls) == 0 {
		return nil
	}
	out := make([]ToolCall, 0, len(calls))
	for _, c := range calls {
		out = append(out, ToolCall{ID: c.ID, Name: c.Name, Arguments: c.Arguments})
	}
	return out
}

func toolCallsToDomain(calls []ToolCall) []domain.ToolCall {
	if len(calls) == 0 {
		return nil
	}
	out := make([]domain.ToolCall, 0, len(calls))
	for _, c := range calls {
		out = append(out, domain.ToolCall{ID: c.ID, Name: c.Name, Arguments: c.Arguments})
	}
	return out
}

// toSpec converts public filters to the engine filter spec. Nil means no
// filtering.
func (f *Filters) toSpec() chatuc.FilterSpec {
	if f == nil {
		return chatuc.FilterSpec{}
	}
	return chatuc.FilterSpec{
		Regions:       f.Regions,
		Sectors:       f.Sectors,
		Beneficiaries: f.Beneficiaries,
		Open:          f.Open,
		MinAmount:     f.MinAmount,
		MaxAmount:     f.MaxAmount,
		OpenAfter:     f.OpenAfter,
		OpenBefore:    f.OpenBefore,
	}
}

func answerFromResponse(resp chatuc.Response) Answer {
	cited := resp.CitedRecordIDs
	if cited == nil {
		cited = []string{}
	}
	return Answer{
		SessionID:      resp.SessionID,
		Text:           resp.Answer,
		CitedRecordIDs: cited,
		ModelTier:      tierFromDomain(resp.ModelTier),
		Intent:         string(resp.Intent),
		Confidence:     resp.Confidence,
		FollowUps:      resp.FollowUps,
	}
}

func tierFromDomain(t tier.Tier) Tier {
	return Tier(t)
}

func matchFromHit(h rankeruc.Hit) Match {
	return Match{
		ID:           h.Result.ID(),
		Title:        h.Record.Title(),
		Organization: h.Record.Organization(),
		Similarity:   h.Result.Similarity(),
		FusedScore:   h.Result.Fused(),
		FilterMatch:  h.Result.FromFilter(),
		Boosts:       h.Result.Boosts(),
	}
}

func announcementFromRecord(rec record.Record) Announcement {
	a := Announcement{
		ID:           rec.ID(),
		Title:        rec.Title(),
		Organization: rec.Organization(),
		Summary:      rec.Summary(),
		PublishedAt:  rec.PublishedAt(),
	}
	if v, ok := rec.Field(record.FieldRegions); ok {
		a.Regions = v.Categories()
	}
	if v, ok := rec.Field(record.FieldSectors); ok {
		a.Sectors = v.Categories()
	}
	if v, ok := rec.Field(record.FieldBeneficiaries); ok {
		a.Beneficiaries = v.Categories()
	}
	if v, ok := rec.Field(record.FieldAmount); ok {
		a.AmountMin, a.AmountMax = v.NumericRange()
	}
	if v, ok := rec.Field(record.FieldWindow); ok {
		a.WindowFrom, a.WindowTo = v.DateRange()
	}
	if v, ok := rec.Field(record.FieldOpen); ok {
		a.Open = v.Bool()
	}
	return a
}
