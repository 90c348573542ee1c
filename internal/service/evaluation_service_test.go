package service

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/jtiebel/formguard-api/internal/audit"
	"github.com/jtiebel/formguard-api/internal/classifier"
	"github.com/jtiebel/formguard-api/internal/dto"
	"github.com/jtiebel/formguard-api/internal/review"
	"github.com/jtiebel/formguard-api/internal/token"
)

const testBrowserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 Chrome/126.0 Safari/537.36"

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

type capturingPublisher struct {
	events []review.Event
}

func (p *capturingPublisher) Publish(_ context.Context, event review.Event) error {
	p.events = append(p.events, event)
	return nil
}

type failingStore struct{}

func (failingStore) Save(context.Context, string, string) error { return errors.New("store down") }
func (failingStore) Get(context.Context, string) (string, error) {
	return "", errors.New("store down")
}
func (failingStore) Delete(context.Context, string) error { return errors.New("store down") }

func humanSubmission(message string, renderedAgo time.Duration) map[string]string {
	return map[string]string{
		"message":                     message,
		classifier.FieldKeyPressed:    "1",
		classifier.FieldMouseMoved:    "1",
		classifier.FieldFormStartTime: strconv.FormatInt(time.Now().Add(-renderedAgo).UnixMilli(), 10),
	}
}

func newTestService(issuer *token.Issuer, log *audit.Log, publisher review.Publisher) EvaluationService {
	engine := classifier.NewEngine(classifier.DefaultScoringConfig())
	return NewEvaluationService(engine, issuer, log, publisher, validator.New(), testLogger())
}

func TestEvaluateCleanSubmission(t *testing.T) {
	log := audit.NewLog(10)
	publisher := &capturingPublisher{}
	svc := newTestService(nil, log, publisher)

	resp, err := svc.Evaluate(context.Background(), dto.EvaluateRequest{
		Fields:    humanSubmission("Hello, I'd like to book a consultation next week.", 10*time.Second),
		UserAgent: testBrowserAgent,
	})
	require.NoError(t, err)

	require.Equal(t, classifier.VerdictAccept, resp.Verdict)
	require.Zero(t, resp.Score)
	require.Empty(t, resp.Message)
	require.NotEmpty(t, resp.ReferenceID)

	// Accepted submissions are archived but not flagged for review.
	require.Equal(t, 1, log.Len())
	require.Empty(t, publisher.events)
}

func TestEvaluateBotSubmissionRejectsAndArchives(t *testing.T) {
	log := audit.NewLog(10)
	publisher := &capturingPublisher{}
	svc := newTestService(nil, log, publisher)

	resp, err := svc.Evaluate(context.Background(), dto.EvaluateRequest{
		Fields: map[string]string{
			classifier.FieldFormStartTime: strconv.FormatInt(time.Now().Add(-2*time.Second).UnixMilli(), 10),
		},
		UserAgent: testBrowserAgent,
	})
	require.NoError(t, err)

	require.Equal(t, classifier.VerdictReject, resp.Verdict)
	require.Equal(t, 20, resp.Score)
	require.Equal(t, classifier.RejectMessage, resp.Message)

	snapshot := log.Snapshot()
	require.Len(t, snapshot, 1)
	require.Equal(t, resp.ReferenceID, snapshot[0].ReferenceID)
	require.Equal(t, classifier.VerdictReject, snapshot[0].Verdict)
	require.Equal(t, resp.Reasons, snapshot[0].Reasons)

	require.Len(t, publisher.events, 1)
	require.Equal(t, classifier.VerdictReject, publisher.events[0].Verdict)
}

func TestEvaluateWarnIsFlaggedForReview(t *testing.T) {
	log := audit.NewLog(10)
	publisher := &capturingPublisher{}
	svc := newTestService(nil, log, publisher)

	// No keystroke and no mouse movement only: inside the warn band.
	resp, err := svc.Evaluate(context.Background(), dto.EvaluateRequest{
		Fields:    map[string]string{},
		UserAgent: testBrowserAgent,
	})
	require.NoError(t, err)

	require.Equal(t, classifier.VerdictWarn, resp.Verdict)
	require.Equal(t, 15, resp.Score)
	require.Empty(t, resp.Message)
	require.Len(t, publisher.events, 1)
	require.Equal(t, resp.ReferenceID, publisher.events[0].ReferenceID)
}

func TestEvaluateSessionWithoutIssuedTokenScoresMismatch(t *testing.T) {
	issuer := token.NewIssuer(token.NewMemoryStore(), false, testLogger())
	svc := newTestService(issuer, audit.NewLog(10), nil)

	resp, err := svc.Evaluate(context.Background(), dto.EvaluateRequest{
		Fields:    humanSubmission("Hello, I'd like to book a consultation next week.", 10*time.Second),
		SessionID: "session-1",
		UserAgent: testBrowserAgent,
	})
	require.NoError(t, err)
	require.Contains(t, resp.Reasons, "session token mismatch")
}

func TestEvaluateIssuedTokenMatchClearsMismatch(t *testing.T) {
	issuer := token.NewIssuer(token.NewMemoryStore(), false, testLogger())
	issued, err := issuer.Issue(context.Background(), "session-1")
	require.NoError(t, err)

	svc := newTestService(issuer, audit.NewLog(10), nil)

	fields := humanSubmission("Hello, I'd like to book a consultation next week.", 10*time.Second)
	fields[classifier.FieldFormToken] = issued

	resp, err := svc.Evaluate(context.Background(), dto.EvaluateRequest{
		Fields:    fields,
		SessionID: "session-1",
		UserAgent: testBrowserAgent,
	})
	require.NoError(t, err)
	require.NotContains(t, resp.Reasons, "session token mismatch")
	require.Equal(t, classifier.VerdictAccept, resp.Verdict)
}

func TestEvaluateSingleUsePolicyConsumesToken(t *testing.T) {
	issuer := token.NewIssuer(token.NewMemoryStore(), true, testLogger())
	issued, err := issuer.Issue(context.Background(), "session-1")
	require.NoError(t, err)

	svc := newTestService(issuer, audit.NewLog(10), nil)

	fields := humanSubmission("Hello, I'd like to book a consultation next week.", 10*time.Second)
	fields[classifier.FieldFormToken] = issued

	first, err := svc.Evaluate(context.Background(), dto.EvaluateRequest{
		Fields:    fields,
		SessionID: "session-1",
		UserAgent: testBrowserAgent,
	})
	require.NoError(t, err)
	require.NotContains(t, first.Reasons, "session token mismatch")

	// Replaying the same token fails once the policy consumed it.
	second, err := svc.Evaluate(context.Background(), dto.EvaluateRequest{
		Fields:    fields,
		SessionID: "session-1",
		UserAgent: testBrowserAgent,
	})
	require.NoError(t, err)
	require.Contains(t, second.Reasons, "session token mismatch")
}

func TestEvaluateTokenStoreOutageDoesNotFailEvaluation(t *testing.T) {
	issuer := token.NewIssuer(failingStore{}, false, testLogger())
	svc := newTestService(issuer, audit.NewLog(10), nil)

	resp, err := svc.Evaluate(context.Background(), dto.EvaluateRequest{
		Fields:    humanSubmission("Hello, I'd like to book a consultation next week.", 10*time.Second),
		SessionID: "session-1",
		UserAgent: testBrowserAgent,
	})
	require.NoError(t, err)
	// The unprovable session still scores as a mismatch.
	require.Contains(t, resp.Reasons, "session token mismatch")
}

func TestEvaluateWithoutAuditLogStillReturnsVerdict(t *testing.T) {
	svc := newTestService(nil, nil, nil)

	resp, err := svc.Evaluate(context.Background(), dto.EvaluateRequest{
		Fields:    humanSubmission("Hello, I'd like to book a consultation next week.", 10*time.Second),
		UserAgent: testBrowserAgent,
	})
	require.NoError(t, err)
	require.Equal(t, classifier.VerdictAccept, resp.Verdict)
}
