// Package model defines the core data types shared across the fact-checking
// pipeline: transcript segments, extracted claims, verdicts, and evidence.
package model

// Segment is a timestamped span of transcribed speech attributed to one
// speaker. Segments are produced upstream by the transcription layer and are
// immutable once created.
type Segment struct {
	ID        string  `json:"id"`
	SessionID string  `json:"sessionId"`
	Speaker   string  `json:"speaker"`
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
	Text      string  `json:"text"`
}

// FallacyInsight is the per-segment result of fallacy analysis.
type FallacyInsight struct {
	SegmentID string  `json:"segmentId"`
	Speaker   string  `json:"speaker"`
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
	ClaimText string  `json:"claimText,omitempty"`
	Fallacy   string  `json:"fallacy"`
	Reasoning string  `json:"reasoning,omitempty"`
}
