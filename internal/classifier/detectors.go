package classifier

import "strings"

// Finding is one detector's scored piece of evidence.
type Finding struct {
	Points int    `json:"points"`
	Reason string `json:"reason"`
}

// Detector inspects a submission and returns zero or more findings. Detectors
// are pure functions of the context and never observe each other's output.
type Detector func(sub *SubmissionContext) []Finding

// DefaultKeywords is the stock spam keyword list. Matching is case-insensitive
// substring containment.
var DefaultKeywords = []string{
	"bitcoin", "loan", "seo", "escort", "casino", "viagra",
	"porn", "sex", "click here", "investment", "crypto",
}

var suspiciousAgentMarkers = []string{"headless", "python", "curl"}

func one(points int, reason string) []Finding {
	return []Finding{{Points: points, Reason: reason}}
}

func detectHoneypotFilled(sub *SubmissionContext) []Finding {
	if sub.traps.ContactTime != "" {
		return one(10, "honeypot filled")
	}
	return nil
}

func detectHoneypotFocused(sub *SubmissionContext) []Finding {
	if sub.flags.HoneypotFocused {
		return one(5, "honeypot focused")
	}
	return nil
}

func detectEmailConfirmFilled(sub *SubmissionContext) []Finding {
	if sub.traps.EmailConfirm != "" {
		return one(10, "email confirm filled")
	}
	return nil
}

// detectTokenMismatch fires whenever a session is in play and the submitted
// token does not exactly match the issued one, and whenever a token was
// echoed with no session to vouch for it. Submissions evaluated without a
// session handle and without a token field carry no token expectation and
// are skipped.
func detectTokenMismatch(sub *SubmissionContext) []Finding {
	if !sub.hasSession {
		if sub.clientToken != nil {
			return one(15, "session token mismatch")
		}
		return nil
	}
	if sub.clientToken == nil || sub.sessionToken == nil || *sub.clientToken != *sub.sessionToken {
		return one(15, "session token mismatch")
	}
	return nil
}

// detectSubmitTiming scores suspiciously fast submissions. The two bands are
// mutually exclusive: at most one finding fires.
func detectSubmitTiming(sub *SubmissionContext) []Finding {
	if sub.formStartMillis == nil {
		return nil
	}
	seconds := float64(sub.evaluatedAtMillis()-*sub.formStartMillis) / 1000
	if seconds > 0 && seconds < 1 {
		return one(15, "submitted under 1s")
	}
	if seconds < 3 {
		return one(5, "submitted under 3s")
	}
	return nil
}

func detectNoKeyPress(sub *SubmissionContext) []Finding {
	if !sub.flags.KeyPressed {
		return one(10, "no keystroke detected")
	}
	return nil
}

func detectNoMouseMove(sub *SubmissionContext) []Finding {
	if !sub.flags.MouseMoved {
		return one(5, "no mouse movement detected")
	}
	return nil
}

func detectSuspiciousUserAgent(sub *SubmissionContext) []Finding {
	agent := strings.ToLower(sub.userAgent)
	if agent == "" {
		return one(10, "suspicious user agent")
	}
	for _, marker := range suspiciousAgentMarkers {
		if strings.Contains(agent, marker) {
			return one(10, "suspicious user agent")
		}
	}
	return nil
}

// keywordDetector scans content fields for spam keywords. It stops at the
// first hit so keyword-dense legitimate messages never stack findings.
func keywordDetector(keywords []string) Detector {
	return func(sub *SubmissionContext) []Finding {
		for _, name := range sub.fieldNames {
			value := strings.ToLower(sub.fields[name])
			for _, keyword := range keywords {
				if strings.Contains(value, keyword) {
					return one(15, "keyword: "+keyword)
				}
			}
		}
		return nil
	}
}

// detectURL flags the first field containing an http:// or https:// scheme.
func detectURL(sub *SubmissionContext) []Finding {
	for _, name := range sub.fieldNames {
		value := strings.ToLower(sub.fields[name])
		if strings.Contains(value, "http://") || strings.Contains(value, "https://") {
			return one(15, "url detected")
		}
	}
	return nil
}

func detectVeryShortText(sub *SubmissionContext) []Finding {
	var findings []Finding
	for _, name := range sub.fieldNames {
		if len(strings.Fields(sub.fields[name])) < 3 {
			findings = append(findings, Finding{Points: 5, Reason: "very short text"})
		}
	}
	return findings
}

func detectVeryLongText(sub *SubmissionContext) []Finding {
	var findings []Finding
	for _, name := range sub.fieldNames {
		if len(strings.Fields(sub.fields[name])) > 300 {
			findings = append(findings, Finding{Points: 5, Reason: "very long text"})
		}
	}
	return findings
}

// defaultDetectors returns the full detector set in registration order.
// Findings are reported in this order regardless of which fields triggered.
func defaultDetectors(keywords []string) []Detector {
	return []Detector{
		detectHoneypotFilled,
		detectHoneypotFocused,
		detectEmailConfirmFilled,
		detectTokenMismatch,
		detectSubmitTiming,
		detectNoKeyPress,
		detectNoMouseMove,
		detectSuspiciousUserAgent,
		keywordDetector(keywords),
		detectURL,
		detectVeryShortText,
		detectVeryLongText,
	}
}
