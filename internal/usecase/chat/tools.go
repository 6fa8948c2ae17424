package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/grantix/internal/domain"
	"github.com/kailas-cloud/grantix/internal/domain/record"
	"github.com/kailas-cloud/grantix/internal/domain/search/predicate"
	"github.com/kailas-cloud/grantix/internal/domain/search/query"
)

// Built-in tool names.
const (
	ToolSearchAnnouncements = "search_announcements"
	ToolGetAnnouncement     = "get_announcement"
	ToolListRecent          = "list_recent"
)

// Tool result sizing.
const (
	DefaultToolLimit = 5
	MaxToolLimit     = 20
)

const filterDateLayout = "2006-01-02"

// FilterSpec is the JSON filter shape shared by the public API and the
// model-facing search tool.
type FilterSpec struct {
	Regions       []string `json:"regions,omitempty"`
	Sectors       []string `json:"sectors,omitempty"`
	Beneficiaries []string `json:"beneficiaries,omitempty"`
	Open          *bool    `json:"open,omitempty"`
	MinAmount     *float64 `json:"min_amount,omitempty"`
	MaxAmount     *float64 `json:"max_amount,omitempty"`
	OpenAfter     string   `json:"open_after,omitempty"`
	OpenBefore    string   `json:"open_before,omitempty"`
}

// IsZero reports whether no filter is set.
func (f FilterSpec) IsZero() bool {
	return len(f.Regions) == 0 && len(f.Sectors) == 0 && len(f.Beneficiaries) == 0 &&
		f.Open == nil && f.MinAmount == nil && f.MaxAmount == nil &&
		f.OpenAfter == "" && f.OpenBefore == ""
}

// ToPredicates converts the filter spec into the typed predicate set.
func (f FilterSpec) ToPredicates() (predicate.Set, error) {
	var preds []predicate.Predicate

	for _, overlap := range []struct {
		field  string
		values []string
	}{
		{record.FieldRegions, f.Regions},
		{record.FieldSectors, f.Sectors},
		{record.FieldBeneficiaries, f.Beneficiaries},
	} {
		if len(overlap.values) == 0 {
			continue
		}
		p, err := predicate.NewOverlap(overlap.field, overlap.values)
		if err != nil {
			return predicate.Set{}, domain.NewValidationError(overlap.field, err.Error())
		}
		preds = append(preds, p)
	}

	if f.Open != nil {
		p, err := predicate.NewEqualsBool(record.FieldOpen, *f.Open)
		if err != nil {
			return predicate.Set{}, domain.NewValidationError(record.FieldOpen, err.Error())
		}
		preds = append(preds, p)
	}

	if f.MinAmount != nil || f.MaxAmount != nil {
		span, err := predicate.NewNumSpan(nil, f.MinAmount, nil, f.MaxAmount)
		if err != nil {
			return predicate.Set{}, domain.NewValidationError(record.FieldAmount, err.Error())
		}
		p, err := predicate.NewRange(record.FieldAmount, span)
		if err != nil {
			return predicate.Set{}, domain.NewValidationError(record.FieldAmount, err.Error())
		}
		preds = append(preds, p)
	}

	if f.OpenAfter != "" || f.OpenBefore != "" {
		after, before, err := f.windowBounds()
		if err != nil {
			return predicate.Set{}, err
		}
		span, err := predicate.NewDateSpan(after, before)
		if err != nil {
			return predicate.Set{}, domain.NewValidationError(record.FieldWindow, err.Error())
		}
		p, err := predicate.NewDateRange(record.FieldWindow, span)
		if err != nil {
			return predicate.Set{}, domain.NewValidationError(record.FieldWindow, err.Error())
		}
		preds = append(preds, p)
	}

	set, err := predicate.NewSet(preds...)
	if err != nil {
		return predicate.Set{}, domain.NewValidationError("filters", err.Error())
	}
	return set, nil
}

func (f FilterSpec) windowBounds() (after, before *time.Time, err error) {
	if f.OpenAfter != "" {
		t, parseErr := time.Parse(filterDateLayout, f.OpenAfter)
		if parseErr != nil {
			return nil, nil, domain.NewValidationError("open_after", "expected YYYY-MM-DD date")
		}
		after = &t
	}
	if f.OpenBefore != "" {
		t, parseErr := time.Parse(filterDateLayout, f.OpenBefore)
		if parseErr != nil {
			return nil, nil, domain.NewValidationError("open_before", "expected YYYY-MM-DD date")
		}
		before = &t
	}
	return after, before, nil
}

// announcementPayload is the model-facing record shape.
type announcementPayload struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Organization string `json:"organization,omitempty"`
	Summary      string `json:"summary,omitempty"`
	PublishedAt  string `json:"published_at,omitempty"`
}

func recordPayload(rec record.Record) announcementPayload {
	p := announcementPayload{
		ID:           rec.ID(),
		Title:        rec.Title(),
		Organization: rec.Organization(),
		Summary:      rec.Summary(),
	}
	if !rec.PublishedAt().IsZero() {
		p.PublishedAt = rec.PublishedAt().Format(filterDateLayout)
	}
	return p
}

func clampToolLimit(limit int) int {
	if limit <= 0 {
		return DefaultToolLimit
	}
	if limit > MaxToolLimit {
		return MaxToolLimit
	}
	return limit
}

// RegisterBuiltinTools binds the catalog tools to the registry.
func RegisterBuiltinTools(reg *Registry, rk Ranker, records RecordGetter) error {
	tools := []Tool{
		searchAnnouncementsTool(rk),
		getAnnouncementTool(records),
		listRecentTool(records),
	}
	for _, t := range tools {
		if err := reg.Register(t); err != nil {
			return err
		}
	}
	return nil
}

func searchAnnouncementsTool(rk Ranker) Tool {
	return Tool{
		Schema: domain.ToolSchema{
			Name:        ToolSearchAnnouncements,
			Description: "Search grant announcements by free text and optional structured filters. Returns ranked announcements.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"query": {"type": "string", "description": "Free-text search, Spanish or English"},
					"filters": {
						"type": "object",
						"properties": {
							"regions": {"type": "array", "items": {"type": "string"}, "description": "NUTS region codes, e.g. ES213"},
							"sectors": {"type": "array", "items": {"type": "string"}},
							"beneficiaries": {"type": "array", "items": {"type": "string"}},
							"open": {"type": "boolean", "description": "Only announcements currently open"},
							"min_amount": {"type": "number"},
							"max_amount": {"type": "number"},
							"open_after": {"type": "string", "description": "YYYY-MM-DD"},
							"open_before": {"type": "string", "description": "YYYY-MM-DD"}
						}
					},
					"limit": {"type": "integer", "minimum": 1, "maximum": 20}
				},
				"required": ["query"]
			}`),
		},
		Execute: func(ctx context.Context, args json.RawMessage) (ToolOutcome, error) {
			var params struct {
				Query   string     `json:"query"`
				Filters FilterSpec `json:"filters"`
				Limit   int        `json:"limit"`
			}
			if err := json.Unmarshal(args, &params); err != nil {
				return ToolOutcome{}, domain.NewValidationError("arguments", "malformed search arguments")
			}

			preds, err := params.Filters.ToPredicates()
			if err != nil {
				return ToolOutcome{}, err
			}
			q, err := query.New(params.Query, preds, clampToolLimit(params.Limit), "")
			if err != nil {
				return ToolOutcome{}, domain.NewValidationError("query", err.Error())
			}

			hits, err := rk.Rank(ctx, q)
			if err != nil {
				return ToolOutcome{}, fmt.Errorf("search tool: %w", err)
			}

			payloads := make([]announcementPayload, 0, len(hits))
			ids := make([]string, 0, len(hits))
			for _, h := range hits {
				payloads = append(payloads, recordPayload(h.Record))
				ids = append(ids, h.Result.ID())
			}
			body, err := json.Marshal(map[string]any{"announcements": payloads})
			if err != nil {
				return ToolOutcome{}, fmt.Errorf("encode search result: %w", err)
			}
			return ToolOutcome{Payload: string(body), RecordIDs: ids}, nil
		},
	}
}

func getAnnouncementTool(records RecordGetter) Tool {
	return Tool{
		Schema: domain.ToolSchema{
			Name:        ToolGetAnnouncement,
			Description: "Fetch one grant announcement by its identifier.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"id": {"type": "string", "description": "Announcement identifier"}
				},
				"required": ["id"]
			}`),
		},
		Execute: func(ctx context.Context, args json.RawMessage) (ToolOutcome, error) {
			var params struct {
				ID string `json:"id"`
			}
			if err := json.Unmarshal(args, &params); err != nil || params.ID == "" {
				return ToolOutcome{}, domain.NewValidationError("id", "announcement id is required")
			}

			rec, err := records.GetByID(ctx, params.ID)
			if errors.Is(err, domain.ErrNotFound) {
				// A missing id is an answer, not a failure: the model turns
				// it into a clear negative reply.
				body, _ := json.Marshal(map[string]string{
					"error": fmt.Sprintf("announcement %s not found", params.ID),
				})
				return ToolOutcome{Payload: string(body)}, nil
			}
			if err != nil {
				return ToolOutcome{}, fmt.Errorf("get tool: %w", err)
			}

			body, err := json.Marshal(map[string]any{"announcement": recordPayload(rec)})
			if err != nil {
				return ToolOutcome{}, fmt.Errorf("encode announcement: %w", err)
			}
			return ToolOutcome{Payload: string(body), RecordIDs: []string{rec.ID()}}, nil
		},
	}
}

func listRecentTool(records RecordGetter) Tool {
	return Tool{
		Schema: domain.ToolSchema{
			Name:        ToolListRecent,
			Description: "List the most recently published grant announcements.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"limit": {"type": "integer", "minimum": 1, "maximum": 20}
				}
			}`),
		},
		Execute: func(ctx context.Context, args json.RawMessage) (ToolOutcome, error) {
			var params struct {
				Limit int `json:"limit"`
			}
			if len(args) > 0 {
				if err := json.Unmarshal(args, &params); err != nil {
					return ToolOutcome{}, domain.NewValidationError("arguments", "malformed list arguments")
				}
			}

			recs, err := records.Recent(ctx, clampToolLimit(params.Limit), 0)
			if err != nil {
				return ToolOutcome{}, fmt.Errorf("list tool: %w", err)
			}

			payloads := make([]announcementPayload, 0, len(recs))
			ids := make([]string, 0, len(recs))
			for _, rec := range recs {
				payloads = append(payloads, recordPayload(rec))
				ids = append(ids, rec.ID())
			}
			body, err := json.Marshal(map[string]any{"announcements": payloads})
			if err != nil {
				return ToolOutcome{}, fmt.Errorf("encode listing: %w", err)
			}
			return ToolOutcome{Payload: string(body), RecordIDs: ids}, nil
		},
	}
}
