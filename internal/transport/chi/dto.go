package chi

import (
	"time"

	"github.com/kailas-cloud/grantix/internal/domain/record"
	"github.com/kailas-cloud/grantix/internal/usecase/chat"
	"github.com/kailas-cloud/grantix/internal/usecase/ranker"
)

// askRequest is the POST /v1/ask body.
type askRequest struct {
	Message   string      `json:"message"`
	SessionID string      `json:"session_id,omitempty"`
	Filters   *filtersDTO `json:"filters,omitempty"`
}

// askResponse is the answer to one conversation turn.
type askResponse struct {
	SessionID      string   `json:"session_id"`
	Answer         string   `json:"answer"`
	CitedRecordIDs []string `json:"cited_record_ids"`
	ModelTier      string   `json:"model_tier"`
	Intent         string   `json:"intent"`
	Confidence     float64  `json:"confidence"`
	FollowUps      []string `json:"suggested_follow_ups,omitempty"`
}

// filtersDTO is the structured filter block shared by ask and search.
type filtersDTO struct {
	Regions        []string `json:"regions,omitempty"`
	Sectors        []string `json:"sectors,omitempty"`
	Beneficiaries  []string `json:"beneficiaries,omitempty"`
	OpenOnly       *bool    `json:"open_only,omitempty"`
	MinAmount      *float64 `json:"min_amount,omitempty"`
	MaxAmount      *float64 `json:"max_amount,omitempty"`
	DeadlineAfter  string   `json:"deadline_after,omitempty"`
	DeadlineBefore string   `json:"deadline_before,omitempty"`
}

// toSpec maps the wire filter names onto the engine's filter spec.
func (f *filtersDTO) toSpec() chat.FilterSpec {
	if f == nil {
		return chat.FilterSpec{}
	}
	return chat.FilterSpec{
		Regions:       f.Regions,
		Sectors:       f.Sectors,
		Beneficiaries: f.Beneficiaries,
		Open:          f.OpenOnly,
		MinAmount:     f.MinAmount,
		MaxAmount:     f.MaxAmount,
		OpenAfter:     f.DeadlineAfter,
		OpenBefore:    f.DeadlineBefore,
	}
}

// searchRequest is the POST /v1/search body.
type searchRequest struct {
	Query   string      `json:"query,omitempty"`
	Filters *filtersDTO `json:"filters,omitempty"`
	Limit   int         `json:"limit,omitempty"`
	Cursor  string      `json:"cursor,omitempty"`
}

// searchResultItem is one ranked hit.
type searchResultItem struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Organization string   `json:"organization"`
	Similarity   float64  `json:"similarity"`
	FusedScore   float64  `json:"fused_score"`
	FilterMatch  bool     `json:"filter_match"`
	Boosts       []string `json:"boosts,omitempty"`
}

// searchResponse is the ranked result page.
type searchResponse struct {
	Results    []searchResultItem `json:"results"`
	NextCursor *string            `json:"next_cursor,omitempty"`
}

func hitToItem(h ranker.Hit) searchResultItem {
	return searchResultItem{
		ID:           h.Result.ID(),
		Title:        h.Record.Title(),
		Organization: h.Record.Organization(),
		Similarity:   h.Result.Similarity(),
		FusedScore:   h.Result.Fused(),
		FilterMatch:  h.Result.FromFilter(),
		Boosts:       h.Result.Boosts(),
	}
}

// announcementResponse is the record detail payload.
type announcementResponse struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Organization  string     `json:"organization"`
	Summary       string     `json:"summary"`
	PublishedAt   time.Time  `json:"published_at"`
	Regions       []string   `json:"regions,omitempty"`
	Sectors       []string   `json:"sectors,omitempty"`
	Beneficiaries []string   `json:"beneficiaries,omitempty"`
	AmountMin     *float64   `json:"amount_min,omitempty"`
	AmountMax     *float64   `json:"amount_max,omitempty"`
	WindowFrom    *time.Time `json:"window_from,omitempty"`
	WindowTo      *time.Time `json:"window_to,omitempty"`
	Open          bool       `json:"open"`
}

// announcementListResponse is the recent listing page.
type announcementListResponse struct {
	Items      []announcementResponse `json:"items"`
	NextCursor *string                `json:"next_cursor,omitempty"`
}

func recordToResponse(rec record.Record) announcementResponse {
	resp := announcementResponse{
		ID:           rec.ID(),
		Title:        rec.Title(),
		Organization: rec.Organization(),
		Summary:      rec.Summary(),
		PublishedAt:  rec.PublishedAt().UTC(),
	}

	if v, ok := rec.Field(record.FieldRegions); ok {
		resp.Regions = v.Categories()
	}
	if v, ok := rec.Field(record.FieldSectors); ok {
		resp.Sectors = v.Categories()
	}
	if v, ok := rec.Field(record.FieldBeneficiaries); ok {
		resp.Beneficiaries = v.Categories()
	}
	if v, ok := rec.Field(record.FieldAmount); ok {
		resp.AmountMin, resp.AmountMax = v.NumericRange()
	}
	if v, ok := rec.Field(record.FieldWindow); ok {
		resp.WindowFrom, resp.WindowTo = v.DateRange()
	}
	if v, ok := rec.Field(record.FieldOpen); ok {
		resp.Open = v.Bool()
	}

	return resp
}

// usageResponse is the usage report payload.
type usageResponse struct {
	Provider      string          `json:"provider"`
	Period        string          `json:"period"`
	PeriodStartAt *time.Time      `json:"period_start_at,omitempty"`
	PeriodEndAt   *time.Time      `json:"period_end_at,omitempty"`
	Usage         usageMetricsDTO `json:"usage"`
	Budget        budgetStatusDTO `json:"budget"`
}

type usageMetricsDTO struct {
	Requests int64 `json:"requests"`
	Tokens   int64 `json:"tokens"`
}

type budgetStatusDTO struct {
	TokensLimit     int64      `json:"tokens_limit"`
	TokensRemaining int64      `json:"tokens_remaining"`
	IsExhausted     bool       `json:"is_exhausted"`
	ResetsAt        *time.Time `json:"resets_at,omitempty"`
}

// healthResponse is the aggregated health payload.
type healthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

// errorResponse is the error envelope for every non-2xx reply.
type errorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}
