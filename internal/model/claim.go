package model

// Verdict is the canonical fact-check outcome for a claim.
type Verdict string

const (
	VerdictNotChecked  Verdict = "not_checked"
	VerdictSupported   Verdict = "supported"
	VerdictDisputed    Verdict = "disputed"
	VerdictLikelyFalse Verdict = "likely_false"
	VerdictUncertain   Verdict = "uncertain"
)

// Attribution tags how a chunk-mode claim was matched to its segment.
type Attribution string

const (
	AttributionMatched  Attribution = "matched"
	AttributionFallback Attribution = "fallback-to-last"
)

// EvidenceSource is a single piece of supporting or refuting evidence.
// Only sources with a non-empty URL are ever retained.
type EvidenceSource struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// FactCheckResult is the normalized outcome of a stance-detection lookup.
type FactCheckResult struct {
	Verdict    Verdict          `json:"verdict"`
	Confidence *float64         `json:"confidence,omitempty"`
	Reasoning  string           `json:"reasoning,omitempty"`
	Sources    []EvidenceSource `json:"sources"`
}

// Claim is a single extracted, fact-checkable assertion derived from one or
// more transcript segments. A claim is created once extraction succeeds and
// is never mutated afterwards; Verdict stays "not_checked" until the
// fact-check step runs.
type Claim struct {
	ID             string           `json:"id"`
	SessionID      string           `json:"sessionId"`
	SegmentID      string           `json:"segmentId"`
	Speaker        string           `json:"speaker"`
	Start          float64          `json:"start"`
	End            float64          `json:"end"`
	Text           string           `json:"text"`
	Fallacy        string           `json:"fallacy"`
	NeedsFactCheck bool             `json:"needsFactCheck"`
	Verdict        Verdict          `json:"verdict"`
	Confidence     *float64         `json:"confidence,omitempty"`
	Reasoning      string           `json:"reasoning,omitempty"`
	Sources        []EvidenceSource `json:"sources"`
	Attribution    Attribution      `json:"attribution,omitempty"`
}

// ApplyResult copies a normalized fact-check result onto the claim.
func (c *Claim) ApplyResult(res FactCheckResult) {
	c.Verdict = res.Verdict
	c.Confidence = res.Confidence
	c.Reasoning = res.Reasoning
	c.Sources = res.Sources
	if c.Sources == nil {
		c.Sources = []EvidenceSource{}
	}
}

// ClaimInput is an externally supplied claim for batch fact-checking.
// NeedsFactCheck defaults to true when omitted.
type ClaimInput struct {
	ID             string  `json:"id,omitempty"`
	SegmentID      string  `json:"segmentId,omitempty"`
	Speaker        string  `json:"speaker,omitempty"`
	Start          float64 `json:"start,omitempty"`
	End            float64 `json:"end,omitempty"`
	Text           string  `json:"text"`
	NeedsFactCheck *bool   `json:"needsFactCheck,omitempty"`
}
