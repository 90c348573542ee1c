package review

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/jtiebel/formguard-api/internal/classifier"
)

// Event is emitted for every submission that needs human attention: WARN
// verdicts pass through the form but are flagged, REJECT verdicts are blocked.
type Event struct {
	ReferenceID string             `json:"reference_id"`
	Verdict     classifier.Verdict `json:"verdict"`
	Score       int                `json:"score"`
	Reasons     []string           `json:"reasons"`
	ObservedAt  time.Time          `json:"observed_at"`
}

// Publisher forwards flagged submissions to a review channel. Publishing is a
// best-effort side effect: failures must never block or fail an evaluation.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher drops all events. Used when no broker is configured.
type NopPublisher struct{}

// Publish discards the event.
func (NopPublisher) Publish(context.Context, Event) error {
	return nil
}

// NATSPublisher emits review events as JSON on a NATS subject.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
	logger  zerolog.Logger
}

// NewNATSPublisher wraps an established NATS connection.
func NewNATSPublisher(conn *nats.Conn, subject string, logger zerolog.Logger) *NATSPublisher {
	return &NATSPublisher{
		conn:    conn,
		subject: subject,
		logger:  logger.With().Str("component", "review_publisher").Logger(),
	}
}

// Publish marshals the event and hands it to the broker.
func (p *NATSPublisher) Publish(_ context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode review event: %w", err)
	}

	if err := p.conn.Publish(p.subject, payload); err != nil {
		return fmt.Errorf("failed to publish review event: %w", err)
	}

	p.logger.Debug().Str("reference_id", event.ReferenceID).Str("verdict", string(event.Verdict)).Msg("review event published")
	return nil
}
