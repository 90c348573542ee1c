package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jtiebel/formguard-api/internal/audit"
	"github.com/jtiebel/formguard-api/internal/classifier"
	"github.com/jtiebel/formguard-api/internal/dto"
	"github.com/jtiebel/formguard-api/internal/observability"
	"github.com/jtiebel/formguard-api/internal/review"
	"github.com/jtiebel/formguard-api/internal/token"
)

// EvaluationService runs the scoring pipeline for one submission and archives
// the outcome.
type EvaluationService interface {
	Evaluate(ctx context.Context, req dto.EvaluateRequest) (dto.EvaluateResponse, error)
}

type evaluationService struct {
	engine    *classifier.Engine
	issuer    *token.Issuer
	auditLog  *audit.Log
	publisher review.Publisher
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewEvaluationService wires the classifier engine to its collaborators.
// Issuer may be nil when no token flow is deployed; publisher may be nil to
// disable review events.
func NewEvaluationService(engine *classifier.Engine, issuer *token.Issuer, auditLog *audit.Log, publisher review.Publisher, validate *validator.Validate, logger zerolog.Logger) EvaluationService {
	if publisher == nil {
		publisher = review.NopPublisher{}
	}
	return &evaluationService{
		engine:    engine,
		issuer:    issuer,
		auditLog:  auditLog,
		publisher: publisher,
		validator: validate,
		logger:    logger.With().Str("component", "evaluation_service").Logger(),
		tracer:    otel.Tracer("github.com/jtiebel/formguard-api/internal/service/evaluation"),
		now:       time.Now,
	}
}

// Evaluate classifies the submission and returns the verdict. The pipeline
// itself has no failure path: malformed signals degrade to absent ones, and
// audit/review side effects are best-effort.
func (s *evaluationService) Evaluate(ctx context.Context, req dto.EvaluateRequest) (dto.EvaluateResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.EvaluateResponse{}, err
	}

	ctx, span := s.tracer.Start(ctx, "submission.evaluate")
	defer span.End()

	referenceID := uuid.New().String()
	session := s.resolveSession(ctx, req.SessionID)

	sub := classifier.Extract(req.Fields, classifier.RequestMeta{
		UserAgent:  req.UserAgent,
		ObservedAt: s.now(),
	}, session)

	result := s.engine.Evaluate(sub)
	reasons := result.Reasons()

	span.SetAttributes(
		attribute.String("evaluation.reference_id", referenceID),
		attribute.String("evaluation.verdict", string(result.Verdict)),
		attribute.Int("evaluation.score", result.TotalScore),
	)

	s.consumeToken(ctx, req)
	s.archive(referenceID, result, reasons)
	s.flagForReview(ctx, referenceID, result, reasons)

	observability.Evaluations().WithLabelValues(string(result.Verdict)).Inc()
	observability.EvaluationScores().Observe(float64(result.TotalScore))

	s.logger.Info().
		Str("reference_id", referenceID).
		Str("verdict", string(result.Verdict)).
		Int("score", result.TotalScore).
		Strs("reasons", reasons).
		Msg("submission evaluated")

	response := dto.EvaluateResponse{
		ReferenceID: referenceID,
		Verdict:     result.Verdict,
		Score:       result.TotalScore,
		Reasons:     reasons,
		Timestamp:   result.Timestamp,
	}
	if result.Verdict == classifier.VerdictReject {
		response.Message = classifier.RejectMessage
	}

	return response, nil
}

// resolveSession looks up the expected token for the session. A failing store
// degrades to "no token issued" rather than failing the evaluation; the
// mismatch detector then treats the session as unproven.
func (s *evaluationService) resolveSession(ctx context.Context, sessionID string) *classifier.Session {
	if sessionID == "" || s.issuer == nil {
		return nil
	}

	session := &classifier.Session{ID: sessionID}
	expected, issued, err := s.issuer.Expected(ctx, sessionID)
	if err != nil {
		s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("token lookup failed, treating token as not issued")
		return session
	}
	if issued {
		session.Token = &expected
	}
	return session
}

// consumeToken applies the single-use policy after scoring. Verification here
// never changes the verdict, it only invalidates a matched token.
func (s *evaluationService) consumeToken(ctx context.Context, req dto.EvaluateRequest) {
	if req.SessionID == "" || s.issuer == nil {
		return
	}
	supplied, ok := req.Fields[classifier.FieldFormToken]
	if !ok {
		return
	}
	if _, err := s.issuer.Verify(ctx, req.SessionID, supplied); err != nil {
		s.logger.Warn().Err(err).Str("session_id", req.SessionID).Msg("token verification failed")
	}
}

func (s *evaluationService) archive(referenceID string, result classifier.EvaluationResult, reasons []string) {
	if s.auditLog == nil {
		return
	}
	s.auditLog.Append(audit.Entry{
		ReferenceID: referenceID,
		Timestamp:   result.Timestamp,
		Verdict:     result.Verdict,
		Score:       result.TotalScore,
		Reasons:     reasons,
	})
}

func (s *evaluationService) flagForReview(ctx context.Context, referenceID string, result classifier.EvaluationResult, reasons []string) {
	if result.Verdict == classifier.VerdictAccept {
		return
	}
	event := review.Event{
		ReferenceID: referenceID,
		Verdict:     result.Verdict,
		Score:       result.TotalScore,
		Reasons:     reasons,
		ObservedAt:  result.Timestamp,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("reference_id", referenceID).Msg("failed to publish review event")
	}
}
