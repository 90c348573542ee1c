package dto

import (
	"time"

	"github.com/jtiebel/formguard-api/internal/audit"
	"github.com/jtiebel/formguard-api/internal/classifier"
)

// EvaluateRequest is the submitted form as the external collaborator saw it:
// a flat field-name to value map plus the session the form was rendered in.
// An empty field map is a valid (and suspicious) submission, not an error.
type EvaluateRequest struct {
	Fields    map[string]string `json:"fields"`
	SessionID string            `json:"session_id" validate:"omitempty,max=128"`
	UserAgent string            `json:"-"`
}

// EvaluateResponse carries the verdict back to the collaborator. Message is
// populated only for rejections; WARN and ACCEPT must not disturb the
// caller's success path.
type EvaluateResponse struct {
	ReferenceID string             `json:"reference_id"`
	Verdict     classifier.Verdict `json:"verdict"`
	Score       int                `json:"score"`
	Reasons     []string           `json:"reasons"`
	Timestamp   time.Time          `json:"timestamp"`
	Message     string             `json:"message,omitempty"`
}

// TokenRequest asks for a render-time one-time token.
type TokenRequest struct {
	SessionID string `json:"session_id" validate:"required,max=128"`
}

// TokenResponse returns the issued token for embedding in the rendered form.
type TokenResponse struct {
	SessionID string `json:"session_id"`
	Token     string `json:"token"`
}

// AuditEntryResponse is one archived evaluation as exposed to admins.
type AuditEntryResponse struct {
	ReferenceID string             `json:"reference_id"`
	Timestamp   time.Time          `json:"timestamp"`
	Verdict     classifier.Verdict `json:"verdict"`
	Score       int                `json:"score"`
	Reasons     []string           `json:"reasons"`
}

// AuditLogResponse is the bounded log snapshot, newest first.
type AuditLogResponse struct {
	Entries  []AuditEntryResponse `json:"entries"`
	Capacity int                  `json:"capacity"`
}

// NewAuditEntryResponse maps a stored entry to its API shape.
func NewAuditEntryResponse(entry audit.Entry) AuditEntryResponse {
	return AuditEntryResponse{
		ReferenceID: entry.ReferenceID,
		Timestamp:   entry.Timestamp,
		Verdict:     entry.Verdict,
		Score:       entry.Score,
		Reasons:     entry.Reasons,
	}
}

// NewAuditLogResponse maps a snapshot to its API shape.
func NewAuditLogResponse(entries []audit.Entry, capacity int) AuditLogResponse {
	response := AuditLogResponse{
		Entries:  make([]AuditEntryResponse, 0, len(entries)),
		Capacity: capacity,
	}
	for _, entry := range entries {
		response.Entries = append(response.Entries, NewAuditEntryResponse(entry))
	}
	return response
}
