package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/grantix/internal/domain"
	"github.com/kailas-cloud/grantix/internal/domain/search/query"
	domusage "github.com/kailas-cloud/grantix/internal/domain/usage"
	chatuc "github.com/kailas-cloud/grantix/internal/usecase/chat"
	healthuc "github.com/kailas-cloud/grantix/internal/usecase/health"
	"github.com/kailas-cloud/grantix/internal/version"
)

// ErrorCode is the machine-readable error class in the error envelope.
type ErrorCode string

// Error envelope codes.
const (
	CodeBadRequest              ErrorCode = "bad_request"
	CodeUnauthorized            ErrorCode = "unauthorized"
	CodeValidationFailed        ErrorCode = "validation_failed"
	CodeNotFound                ErrorCode = "not_found"
	CodeRateLimited             ErrorCode = "rate_limited"
	CodeQuotaExceeded           ErrorCode = "quota_exceeded"
	CodeProviderError           ErrorCode = "provider_error"
	CodeIterationBudgetExceeded ErrorCode = "iteration_budget_exceeded"
	CodeTimeout                 ErrorCode = "timeout"
	CodeInternalError           ErrorCode = "internal_error"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the engine over HTTP.
type Server struct {
	ask           Asker
	search        Searcher
	records       RecordReader
	usage         UsageReporter
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	ask Asker,
	search Searcher,
	records RecordReader,
	usage UsageReporter,
	health HealthChecker,
	logger *zap.Logger,
) *Server {
	s := &Server{
		ask:     ask,
		search:  search,
		records: records,
		usage:   usage,
		health:  health,
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		validationHandler,
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, CodeRateLimited),
		sentinelHandler(domain.ErrQuotaExceeded, http.StatusPaymentRequired, CodeQuotaExceeded),
		sentinelHandler(domain.ErrProvider, http.StatusBadGateway, CodeProviderError),
		sentinelHandler(domain.ErrTransient, http.StatusBadGateway, CodeProviderError),
		sentinelHandler(domain.ErrIterationBudgetExceeded, http.StatusBadGateway, CodeIterationBudgetExceeded),
		sentinelHandler(domain.ErrTurnTimeout, http.StatusGatewayTimeout, CodeTimeout),
	}
	return s
}

// Routes mounts every endpoint on a fresh router. Middleware (auth, metrics,
// recovery) is applied by the caller around the returned router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Route("/v1", func(r chi.Router) {
		r.Post("/ask", s.Ask)
		r.Post("/search", s.Search)
		r.Get("/announcements", s.ListAnnouncements)
		r.Get("/announcements/{id}", s.GetAnnouncement)
		r.Get("/usage", s.GetUsage)
	})
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	return r
}

// Ask handles POST /v1/ask.
func (s *Server) Ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	resp, err := s.ask.Ask(r.Context(), chatuc.Request{
		Message:   req.Message,
		SessionID: req.SessionID,
		Filters:   req.Filters.toSpec(),
	})
	if err != nil {
		s.handleTurnError(w, err)
		return
	}

	cited := resp.CitedRecordIDs
	if cited == nil {
		cited = []string{}
	}

	writeJSON(w, http.StatusOK, askResponse{
		SessionID:      resp.SessionID,
		Answer:         resp.Answer,
		CitedRecordIDs: cited,
		ModelTier:      string(resp.ModelTier),
		Intent:         string(resp.Intent),
		Confidence:     resp.Confidence,
		FollowUps:      resp.FollowUps,
	})
}

// Search handles POST /v1/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	preds, err := req.Filters.toSpec().ToPredicates()
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	q, err := query.New(req.Query, preds, req.Limit, req.Cursor)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	hits, err := s.search.Rank(r.Context(), q)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]searchResultItem, len(hits))
	for i, h := range hits {
		items[i] = hitToItem(h)
	}

	resp := searchResponse{Results: items}
	if len(hits) == q.Limit() {
		c := query.EncodeCursor(q.Offset() + q.Limit())
		resp.NextCursor = &c
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetAnnouncement handles GET /v1/announcements/{id}.
func (s *Server) GetAnnouncement(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, err := s.records.GetByID(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, recordToResponse(rec))
}

// ListAnnouncements handles GET /v1/announcements.
func (s *Server) ListAnnouncements(w http.ResponseWriter, r *http.Request) {
	limit := query.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, CodeValidationFailed, "limit must be a positive integer")
			return
		}
		limit = n
	}
	if limit > query.MaxLimit {
		limit = query.MaxLimit
	}

	offset, err := query.DecodeCursor(r.URL.Query().Get("cursor"))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	recs, err := s.records.Recent(r.Context(), limit, offset)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]announcementResponse, len(recs))
	for i, rec := range recs {
		items[i] = recordToResponse(rec)
	}

	resp := announcementListResponse{Items: items}
	if len(recs) == limit {
		c := query.EncodeCursor(offset + limit)
		resp.NextCursor = &c
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetUsage handles GET /v1/usage.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	provider := r.URL.Query().Get("provider")
	if provider == "" {
		provider = domusage.ProviderEmbedding
	}

	period := domusage.PeriodMonth
	if raw := r.URL.Query().Get("period"); raw != "" {
		period = domusage.Period(raw)
		if !period.IsValid() {
			writeError(w, http.StatusBadRequest, CodeValidationFailed, "period must be day, month or total")
			return
		}
	}

	report, err := s.usage.GetReport(r.Context(), provider, period)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp := usageResponse{
		Provider: report.Provider(),
		Period:   string(report.Period()),
		Usage: usageMetricsDTO{
			Requests: report.Metrics().Requests(),
			Tokens:   report.Metrics().Tokens(),
		},
		Budget: budgetStatusDTO{
			TokensLimit:     report.Budget().TokensLimit(),
			TokensRemaining: report.Budget().TokensRemaining(),
			IsExhausted:     report.Budget().IsExhausted(),
		},
	}

	if report.PeriodStart() > 0 {
		start := time.UnixMilli(report.PeriodStart()).UTC()
		end := time.UnixMilli(report.PeriodEnd()).UTC()
		resp.PeriodStartAt = &start
		resp.PeriodEndAt = &end
	}

	if report.Budget().ResetsAt() > 0 {
		resetsAt := time.UnixMilli(report.Budget().ResetsAt()).UTC()
		resp.Budget.ResetsAt = &resetsAt
	}

	writeJSON(w, http.StatusOK, resp)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status:  string(report.Status),
		Version: version.Version,
		Checks:  checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// turnFailures maps turn-level failure sentinels to the error envelope with a
// user-facing apology. Walked in order; wrap order in the orchestrator means
// more specific sentinels come first.
var turnFailures = []struct {
	sentinel error
	status   int
	code     ErrorCode
	message  string
}{
	{domain.ErrTurnTimeout, http.StatusGatewayTimeout, CodeTimeout,
		"Lo siento, la consulta ha tardado demasiado en procesarse. Inténtalo de nuevo."},
	{domain.ErrIterationBudgetExceeded, http.StatusBadGateway, CodeIterationBudgetExceeded,
		"Lo siento, no he podido completar la consulta. Prueba a formularla de otra manera."},
	{domain.ErrRateLimited, http.StatusTooManyRequests, CodeRateLimited,
		"Estamos recibiendo demasiadas consultas. Espera unos segundos e inténtalo de nuevo."},
	{domain.ErrQuotaExceeded, http.StatusPaymentRequired, CodeQuotaExceeded,
		"Se ha agotado el presupuesto de uso del asistente por hoy. Inténtalo mañana."},
	{domain.ErrProvider, http.StatusBadGateway, CodeProviderError,
		"Lo siento, el servicio de modelos no está disponible en este momento. Inténtalo más tarde."},
	{domain.ErrTransient, http.StatusBadGateway, CodeProviderError,
		"Lo siento, el servicio de modelos no está disponible en este momento. Inténtalo más tarde."},
}

// handleTurnError writes the error envelope for a failed conversation turn.
// Turn failures reach the user, so the message is an apology rather than the
// sentinel text.
func (s *Server) handleTurnError(w http.ResponseWriter, err error) {
	for _, f := range turnFailures {
		if errors.Is(err, f.sentinel) {
			s.logger.Warn("turn failed", zap.Error(err))
			writeError(w, f.status, f.code, f.message)
			return
		}
	}
	s.handleDomainError(w, err)
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrValidation,
		domain.ErrNotFound,
		domain.ErrRateLimited,
		domain.ErrQuotaExceeded,
		domain.ErrProvider,
		domain.ErrTransient,
		domain.ErrIterationBudgetExceeded,
		domain.ErrTurnTimeout,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// validationHandler handles ErrValidation, surfacing the offending field when known.
func validationHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrValidation) {
		return false
	}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		msg = ve.Error()
	}
	writeError(w, http.StatusBadRequest, CodeValidationFailed, msg)
	return true
}
