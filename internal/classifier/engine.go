package classifier

import "time"

// Verdict is the tri-state decision for one submission.
type Verdict string

const (
	VerdictAccept Verdict = "ACCEPT"
	VerdictWarn   Verdict = "WARN"
	VerdictReject Verdict = "REJECT"
)

// RejectMessage is the only user-facing message the classifier produces.
// WARN and ACCEPT must not alter the caller's normal success path.
const RejectMessage = "submission suspected as spam and was not delivered"

const (
	defaultThreshold   = 20
	defaultWarnBand    = 5
	defaultLogCapacity = 100
)

// ScoringConfig parameterizes the decision engine. It is passed explicitly at
// construction time; there is no process-wide instance.
type ScoringConfig struct {
	// Threshold is the minimum total score that rejects a submission.
	Threshold int
	// WarnBand is the width of the fail-safe range below Threshold where
	// submissions pass through but are flagged for review.
	WarnBand int
	// LogCapacity bounds the audit log the engine's verdicts feed into.
	LogCapacity int
}

// DefaultScoringConfig returns the stock thresholds.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		Threshold:   defaultThreshold,
		WarnBand:    defaultWarnBand,
		LogCapacity: defaultLogCapacity,
	}
}

// EvaluationResult is the outcome of scoring a single submission. It is a
// transient value object with no cross-request identity.
type EvaluationResult struct {
	TotalScore int       `json:"total_score"`
	Findings   []Finding `json:"findings"`
	Verdict    Verdict   `json:"verdict"`
	Timestamp  time.Time `json:"timestamp"`
}

// Reasons returns the ordered reason labels of all findings.
func (r EvaluationResult) Reasons() []string {
	reasons := make([]string, 0, len(r.Findings))
	for _, finding := range r.Findings {
		reasons = append(reasons, finding.Reason)
	}
	return reasons
}

// Option customises engine construction.
type Option func(*Engine)

// WithKeywords replaces the stock spam keyword list.
func WithKeywords(keywords []string) Option {
	return func(e *Engine) {
		if len(keywords) > 0 {
			e.keywords = keywords
		}
	}
}

// Engine runs the detector set against a submission and maps the summed score
// to a verdict. It is immutable after construction and safe for concurrent
// use across evaluations.
type Engine struct {
	cfg       ScoringConfig
	keywords  []string
	detectors []Detector
}

// NewEngine builds an engine from the given scoring configuration.
// Non-positive config values fall back to the defaults.
func NewEngine(cfg ScoringConfig, opts ...Option) *Engine {
	if cfg.Threshold <= 0 {
		cfg.Threshold = defaultThreshold
	}
	if cfg.WarnBand <= 0 {
		cfg.WarnBand = defaultWarnBand
	}
	if cfg.LogCapacity <= 0 {
		cfg.LogCapacity = defaultLogCapacity
	}

	engine := &Engine{cfg: cfg, keywords: DefaultKeywords}
	for _, opt := range opts {
		opt(engine)
	}
	engine.detectors = defaultDetectors(engine.keywords)

	return engine
}

// Config returns the scoring configuration the engine was built with.
func (e *Engine) Config() ScoringConfig {
	return e.cfg
}

// Evaluate fans the submission out to every detector, sums the findings and
// derives the verdict. It is synchronous, bounded and never fails: malformed
// input has already degraded to absent signals during extraction.
func (e *Engine) Evaluate(sub *SubmissionContext) EvaluationResult {
	var findings []Finding
	for _, detect := range e.detectors {
		findings = append(findings, detect(sub)...)
	}

	total := 0
	for _, finding := range findings {
		total += finding.Points
	}

	verdict := VerdictAccept
	switch {
	case total >= e.cfg.Threshold:
		verdict = VerdictReject
	case total >= e.cfg.Threshold-e.cfg.WarnBand:
		verdict = VerdictWarn
	}

	return EvaluationResult{
		TotalScore: total,
		Findings:   findings,
		Verdict:    verdict,
		Timestamp:  sub.EvaluatedAt(),
	}
}
