package classifier

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// Reserved field names injected by the form-side collection script. They carry
// signals, not content, and are stripped from the scanned field set.
const (
	FieldContactTime     = "contact_time"
	FieldEmailConfirm    = "email_confirm"
	FieldHoneypotFocused = "honeypot_focused"
	FieldKeyPressed      = "key_pressed"
	FieldMouseMoved      = "mouse_moved"
	FieldFormStartTime   = "form_start_time"
	FieldFormToken       = "form_token"
)

// InteractionFlags capture the client-side telemetry booleans ("1" = true).
type InteractionFlags struct {
	KeyPressed      bool
	MouseMoved      bool
	HoneypotFocused bool
}

// TrapFields hold the honeypot values that must remain empty.
type TrapFields struct {
	ContactTime  string
	EmailConfirm string
}

// RequestMeta carries the ambient request data the extractor consumes.
type RequestMeta struct {
	UserAgent  string
	ObservedAt time.Time
}

// Session is the server-side session handle for the one-time token flow.
// Token is nil when no token was issued for the session.
type Session struct {
	ID    string
	Token *string
}

// SubmissionContext is the normalized, read-only view of one submission.
// Detectors only read from it; nothing is mutated after Extract returns.
type SubmissionContext struct {
	fields          map[string]string
	fieldNames      []string
	formStartMillis *int64
	evaluatedAt     time.Time
	userAgent       string
	clientToken     *string
	sessionToken    *string
	hasSession      bool
	flags           InteractionFlags
	traps           TrapFields
}

// Extract normalizes a raw field map plus request metadata into a
// SubmissionContext. It never fails: absent or malformed values degrade to the
// missing state, since a missing signal is itself evidence rather than an
// error. Session may be nil when the caller runs no token flow.
func Extract(rawFields map[string]string, meta RequestMeta, session *Session) *SubmissionContext {
	observedAt := meta.ObservedAt
	if observedAt.IsZero() {
		observedAt = time.Now()
	}

	sub := &SubmissionContext{
		fields:      make(map[string]string, len(rawFields)),
		evaluatedAt: observedAt,
		userAgent:   meta.UserAgent,
	}

	for name, value := range rawFields {
		switch name {
		case FieldContactTime:
			sub.traps.ContactTime = value
		case FieldEmailConfirm:
			sub.traps.EmailConfirm = value
		case FieldHoneypotFocused:
			sub.flags.HoneypotFocused = value == "1"
		case FieldKeyPressed:
			sub.flags.KeyPressed = value == "1"
		case FieldMouseMoved:
			sub.flags.MouseMoved = value == "1"
		case FieldFormStartTime:
			// A non-integer start time is treated as absent, never as zero,
			// to avoid manufacturing timing evidence.
			if millis, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
				sub.formStartMillis = &millis
			}
		case FieldFormToken:
			token := value
			sub.clientToken = &token
		default:
			sub.fields[name] = value
			sub.fieldNames = append(sub.fieldNames, name)
		}
	}

	// Detectors that stop at the first matching field need a stable scan
	// order; map iteration would make the reported reason nondeterministic.
	sort.Strings(sub.fieldNames)

	if session != nil {
		sub.hasSession = true
		sub.sessionToken = session.Token
	}

	return sub
}

// EvaluatedAt returns the server-side evaluation time.
func (s *SubmissionContext) EvaluatedAt() time.Time {
	return s.evaluatedAt
}

func (s *SubmissionContext) evaluatedAtMillis() int64 {
	return s.evaluatedAt.UnixMilli()
}
