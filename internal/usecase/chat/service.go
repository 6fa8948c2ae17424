// Package chat orchestrates conversation turns: intent classification, model
// tier routing, pre-retrieval, the tool-calling loop, and bounded history.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/grantix/internal/domain"
	domconv "github.com/kailas-cloud/grantix/internal/domain/conversation"
	domintent "github.com/kailas-cloud/grantix/internal/domain/intent"
	"github.com/kailas-cloud/grantix/internal/domain/search/query"
	"github.com/kailas-cloud/grantix/internal/domain/tier"
	"github.com/kailas-cloud/grantix/internal/metrics"
	intentuc "github.com/kailas-cloud/grantix/internal/usecase/intent"
)

// Config defaults.
const (
	DefaultMaxIterations     = 5
	DefaultTurnTimeout       = 60 * time.Second
	DefaultPreRetrievalLimit = 5
)

// Confidence ladder for answers by grounding level.
const (
	confidenceTemplate       = 0.9
	confidenceGrounded       = 0.8
	confidenceConversational = 0.7
	confidenceUngrounded     = 0.4
)

// sessionStripes is the size of the session lock table. Two sessions hashing
// to the same stripe serialize against each other, which is harmless.
const sessionStripes = 64

const defaultSystemPrompt = `Eres el asistente del buscador de ayudas y subvenciones públicas. ` +
	`Respondes preguntas sobre convocatorias usando únicamente la información recuperada del catálogo. ` +
	`Cita siempre los identificadores de las convocatorias en las que basas tu respuesta. ` +
	`Responde en el idioma del usuario. ` +
	`Si no encuentras información relevante, dilo claramente y no inventes convocatorias.`

// Canned replies for turns that never reach the model.
const (
	clarificationReply = `¿Puedes darme más detalles sobre lo que buscas? ` +
		`Por ejemplo: "ayudas para pymes del sector agrícola en Bizkaia".`
	outOfScopeReply = `Solo puedo ayudarte con ayudas y subvenciones públicas. ` +
		`Prueba con una consulta sobre convocatorias, por ejemplo: "subvenciones para autónomos en Gipuzkoa".`
	notFoundReplyFmt = `No he encontrado ninguna convocatoria con el identificador %s. ` +
		`Comprueba el número e inténtalo de nuevo.`
	emptyAnswerReply = `No he podido generar una respuesta en este momento. Inténtalo de nuevo en unos instantes.`
)

// Request is one user turn.
type Request struct {
	Message   string
	SessionID string
	Filters   FilterSpec
}

// Response is the answer to one turn.
type Response struct {
	SessionID      string
	Answer         string
	CitedRecordIDs []string
	ModelTier      tier.Tier
	Intent         domintent.Intent
	Confidence     float64
	FollowUps      []string
}

// Config holds orchestrator settings.
type Config struct {
	// MaxIterations bounds model calls per turn before the turn fails.
	MaxIterations int
	// TurnTimeout is the end-to-end deadline for one turn.
	TurnTimeout time.Duration
	// SystemPrompt overrides the built-in system prompt when set.
	SystemPrompt string
	// PreRetrievalLimit is how many announcements seed the model context.
	PreRetrievalLimit int
}

// Service is the conversation orchestrator.
type Service struct {
	classifier    Classifier
	selector      TierSelector
	conversations Conversations
	ranker        Ranker
	records       RecordGetter
	model         domain.ChatModel
	registry      *Registry
	cfg           Config
	logger        *zap.Logger

	locks [sessionStripes]sync.Mutex
}

// New creates the orchestrator. Zero config values fall back to defaults.
func New(
	classifier Classifier,
	selector TierSelector,
	conversations Conversations,
	rk Ranker,
	records RecordGetter,
	model domain.ChatModel,
	registry *Registry,
	cfg Config,
	logger *zap.Logger,
) *Service {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	if cfg.TurnTimeout <= 0 {
		cfg.TurnTimeout = DefaultTurnTimeout
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = defaultSystemPrompt
	}
	if cfg.PreRetrievalLimit <= 0 {
		cfg.PreRetrievalLimit = DefaultPreRetrievalLimit
	}

	return &Service{
		classifier:    classifier,
		selector:      selector,
		conversations: conversations,
		ranker:        rk,
		records:       records,
		model:         model,
		registry:      registry,
		cfg:           cfg,
		logger:        logger,
	}
}

// Ask processes one conversation turn. Turns within a session are serialized;
// a turn that fails or times out leaves no trace in the session history, so a
// retry starts from the state before the turn.
func (s *Service) Ask(ctx context.Context, req Request) (Response, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return Response{}, domain.NewValidationError("message", "message is required")
	}

	sess, err := s.conversations.EnsureSession(req.SessionID)
	if err != nil {
		return Response{}, fmt.Errorf("ensure session: %w", err)
	}
	sessionID := sess.ID()

	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.TurnTimeout)
	defer cancel()

	it := s.classifier.Classify(message, s.conversations.HasHistory(sessionID))
	metrics.IntentsTotal.WithLabelValues(string(it)).Inc()

	start := time.Now()
	resp, err := s.processTurn(ctx, sessionID, message, req.Filters, it)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = domain.ErrTurnTimeout
		}
		metrics.TurnDuration.WithLabelValues(string(it), "error").Observe(time.Since(start).Seconds())
		s.logger.Error("Turn failed",
			zap.String("session_id", sessionID),
			zap.String("intent", string(it)),
			zap.Error(err),
		)
		return Response{}, err
	}

	metrics.TurnDuration.WithLabelValues(string(it), "success").Observe(time.Since(start).Seconds())
	s.logger.Info("Turn completed",
		zap.String("session_id", sessionID),
		zap.String("intent", string(it)),
		zap.String("tier", string(resp.ModelTier)),
		zap.Int("citations", len(resp.CitedRecordIDs)),
		zap.Duration("duration", time.Since(start)),
	)
	return resp, nil
}

func (s *Service) processTurn(
	ctx context.Context, sessionID, message string, filters FilterSpec, it domintent.Intent,
) (Response, error) {
	switch it {
	case domintent.ClarificationNeeded:
		return s.templateTurn(sessionID, message, it, clarificationReply)
	case domintent.OutOfScope:
		return s.templateTurn(sessionID, message, it, outOfScopeReply)
	case domintent.Greeting:
		return s.conversationalTurn(ctx, sessionID, message, it)
	case domintent.LookupByID:
		return s.lookupTurn(ctx, sessionID, message, it)
	default:
		return s.retrievalTurn(ctx, sessionID, message, filters, it)
	}
}

// templateTurn answers from a canned reply without touching the model.
func (s *Service) templateTurn(sessionID, message string, it domintent.Intent, reply string) (Response, error) {
	s.appendTurns(sessionID, message, reply, nil)
	return Response{
		SessionID:  sessionID,
		Answer:     reply,
		Intent:     it,
		Confidence: confidenceTemplate,
		FollowUps:  followUps(it),
	}, nil
}

// conversationalTurn runs a single model call with history but no tools.
func (s *Service) conversationalTurn(
	ctx context.Context, sessionID, message string, it domintent.Intent,
) (Response, error) {
	modelTier := s.selector.Select(it, 0)
	m := &machine{
		model:         s.model,
		registry:      s.registry,
		logger:        s.logger,
		tier:          modelTier,
		messages:      s.assembleMessages(sessionID, message, ""),
		maxIterations: s.cfg.MaxIterations,
	}
	if err := m.run(ctx); err != nil {
		return Response{}, err
	}

	answer, confidence := m.answer, confidenceConversational
	if answer == "" {
		answer, confidence = emptyAnswerReply, confidenceUngrounded
	}

	s.appendTurns(sessionID, message, answer, nil)
	return Response{
		SessionID:  sessionID,
		Answer:     answer,
		ModelTier:  modelTier,
		Intent:     it,
		Confidence: confidence,
		FollowUps:  followUps(it),
	}, nil
}

// lookupTurn resolves an explicit announcement id. A missing id produces a
// clear negative answer without a model call.
func (s *Service) lookupTurn(
	ctx context.Context, sessionID, message string, it domintent.Intent,
) (Response, error) {
	id, ok := intentuc.ExtractID(message)
	if !ok {
		return s.templateTurn(sessionID, message, it, clarificationReply)
	}

	rec, err := s.records.GetByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return s.templateTurn(sessionID, message, it, fmt.Sprintf(notFoundReplyFmt, id))
	}
	if err != nil {
		return Response{}, fmt.Errorf("lookup %s: %w", id, err)
	}

	body, err := json.Marshal(recordPayload(rec))
	if err != nil {
		return Response{}, fmt.Errorf("encode lookup context: %w", err)
	}
	contextBlock := "Convocatoria solicitada:\n" + string(body)

	modelTier := s.selector.Select(it, 1)
	m := &machine{
		model:         s.model,
		registry:      s.registry,
		logger:        s.logger,
		tier:          modelTier,
		messages:      s.assembleMessages(sessionID, message, contextBlock),
		tools:         s.registry.Schemas(),
		maxIterations: s.cfg.MaxIterations,
		cited:         []string{rec.ID()},
	}
	if err := m.run(ctx); err != nil {
		return Response{}, err
	}
	return s.groundedResponse(sessionID, message, it, modelTier, m)
}

// retrievalTurn pre-retrieves catalog context and runs the tool-calling loop.
func (s *Service) retrievalTurn(
	ctx context.Context, sessionID, message string, filters FilterSpec, it domintent.Intent,
) (Response, error) {
	preds, err := filters.ToPredicates()
	if err != nil {
		return Response{}, err
	}
	q, err := query.New(message, preds, s.cfg.PreRetrievalLimit, "")
	if err != nil {
		return Response{}, domain.NewValidationError("message", err.Error())
	}

	hits, err := s.ranker.Rank(ctx, q)
	if err != nil {
		return Response{}, fmt.Errorf("pre-retrieval: %w", err)
	}

	var cited []string
	contextBlock := "Ninguna convocatoria del catálogo coincide con la consulta."
	if len(hits) > 0 {
		payloads := make([]announcementPayload, 0, len(hits))
		for _, h := range hits {
			payloads = append(payloads, recordPayload(h.Record))
			cited = append(cited, h.Result.ID())
		}
		body, err := json.Marshal(payloads)
		if err != nil {
			return Response{}, fmt.Errorf("encode retrieval context: %w", err)
		}
		contextBlock = "Convocatorias recuperadas para esta consulta:\n" + string(body)
	}

	modelTier := s.selector.Select(it, len(hits))
	m := &machine{
		model:         s.model,
		registry:      s.registry,
		logger:        s.logger,
		tier:          modelTier,
		messages:      s.assembleMessages(sessionID, message, contextBlock),
		tools:         s.registry.Schemas(),
		maxIterations: s.cfg.MaxIterations,
		cited:         cited,
	}
	if err := m.run(ctx); err != nil {
		return Response{}, err
	}
	return s.groundedResponse(sessionID, message, it, modelTier, m)
}

// groundedResponse finishes a model-backed turn: citations decide confidence,
// and an empty answer degrades to the fallback reply with no citations.
func (s *Service) groundedResponse(
	sessionID, message string, it domintent.Intent, modelTier tier.Tier, m *machine,
) (Response, error) {
	answer := m.answer
	cited := m.cited
	confidence := confidenceUngrounded
	if len(cited) > 0 {
		confidence = confidenceGrounded
	}
	if answer == "" {
		answer = emptyAnswerReply
		cited = nil
		confidence = confidenceUngrounded
	}

	s.appendTurns(sessionID, message, answer, cited)
	return Response{
		SessionID:      sessionID,
		Answer:         answer,
		CitedRecordIDs: cited,
		ModelTier:      modelTier,
		Intent:         it,
		Confidence:     confidence,
		FollowUps:      followUps(it),
	}, nil
}

// assembleMessages builds the model context: system prompt, bounded history,
// an optional retrieval block, and the user message last.
func (s *Service) assembleMessages(sessionID, message, contextBlock string) []domain.ChatMessage {
	history := s.conversations.Context(sessionID)

	msgs := make([]domain.ChatMessage, 0, len(history)+3)
	msgs = append(msgs, domain.ChatMessage{Role: domain.RoleSystem, Content: s.cfg.SystemPrompt})
	for _, turn := range history {
		role := domain.RoleUser
		if turn.Role() == domconv.RoleAssistant {
			role = domain.RoleAssistant
		}
		msgs = append(msgs, domain.ChatMessage{Role: role, Content: turn.Content()})
	}
	if contextBlock != "" {
		msgs = append(msgs, domain.ChatMessage{Role: domain.RoleSystem, Content: contextBlock})
	}
	msgs = append(msgs, domain.ChatMessage{Role: domain.RoleUser, Content: message})
	return msgs
}

// appendTurns records the completed exchange. History is best effort: a
// storage hiccup must not void an answer that was already produced.
func (s *Service) appendTurns(sessionID, message, answer string, cited []string) {
	now := time.Now()

	userTurn, err := domconv.NewTurn(domconv.RoleUser, message, nil, now)
	if err == nil {
		_, err = s.conversations.Append(sessionID, userTurn)
	}
	if err != nil {
		s.logger.Warn("Failed to store user turn",
			zap.String("session_id", sessionID), zap.Error(err))
		return
	}

	assistantTurn, err := domconv.NewTurn(domconv.RoleAssistant, answer, cited, now)
	if err == nil {
		_, err = s.conversations.Append(sessionID, assistantTurn)
	}
	if err != nil {
		s.logger.Warn("Failed to store assistant turn",
			zap.String("session_id", sessionID), zap.Error(err))
	}
}

func (s *Service) sessionLock(sessionID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(sessionID))
	return &s.locks[h.Sum32()%sessionStripes]
}

// followUps suggests next questions per intent.
func followUps(it domintent.Intent) []string {
	switch it {
	case domintent.Search:
		return []string{
			"¿Quieres filtrar por región o por cuantía?",
			"¿Te interesa ver solo las convocatorias abiertas?",
		}
	case domintent.Compare:
		return []string{
			"¿Quieres comparar también los plazos de solicitud?",
		}
	case domintent.Explain:
		return []string{
			"¿Quieres ver convocatorias relacionadas con este término?",
		}
	case domintent.Recommend:
		return []string{
			"¿Quieres que afine la recomendación por región o por sector?",
		}
	case domintent.LookupByID:
		return []string{
			"¿Quieres ver convocatorias similares a esta?",
		}
	case domintent.Greeting, domintent.ClarificationNeeded:
		return []string{
			"¿Qué tipo de ayuda estás buscando?",
		}
	}
	return nil
}
