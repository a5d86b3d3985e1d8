// Package extractor turns transcript utterances into zero-or-one candidate
// claims using the Anthropic API, with a per-session extraction rate gate.
package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/debatelens/factwatch/internal/model"
	"github.com/debatelens/factwatch/pkg/anthropic"
)

// ErrMissingCredentials is returned when no Anthropic API key was configured.
// Unlike upstream failures, this is a configuration error and is never
// downgraded to "no claim".
var ErrMissingCredentials = eris.New("anthropic api key not set")

// noClaimSentinel is the exact token the model returns when the utterance
// contains no verifiable claim.
const noClaimSentinel = "NO_CLAIM"

// Candidate is a claim candidate produced by extraction, before fact-checking
// and session attribution.
type Candidate struct {
	Text           string
	NeedsFactCheck bool
	Fallacy        string
	Reasoning      string
	SegmentID      string
	Speaker        string
	Start          float64
	End            float64
}

// Options configures an Extractor.
type Options struct {
	Model     string
	MaxTokens int64
	// Interval is the minimum time between extractions for one live session.
	Interval time.Duration
}

// Extractor extracts claims from utterances. The zero value is not usable;
// construct with New.
type Extractor struct {
	llm       anthropic.Client
	model     string
	maxTokens int64
	interval  time.Duration

	mu             sync.Mutex
	lastExtraction map[string]time.Time
	now            func() time.Time
}

// New creates an Extractor. A nil client is allowed and makes every
// extraction call fail with ErrMissingCredentials.
func New(client anthropic.Client, opts Options) *Extractor {
	if opts.Model == "" {
		opts.Model = "claude-sonnet-4-5"
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = 300
	}
	if opts.Interval == 0 {
		opts.Interval = 5 * time.Second
	}
	return &Extractor{
		llm:            client,
		model:          opts.Model,
		maxTokens:      opts.MaxTokens,
		interval:       opts.Interval,
		lastExtraction: make(map[string]time.Time),
		now:            time.Now,
	}
}

// Extract pulls at most one verifiable claim out of the utterance. A pure
// opinion, question, or greeting yields nil. When sessionID is non-empty the
// per-session rate gate applies: calls inside the interval return nil without
// consulting the model, and a gated call that does proceed consumes the
// window even if no claim is found. Upstream failures are downgraded to nil.
func (e *Extractor) Extract(ctx context.Context, text, speaker, sessionID string) (*Candidate, error) {
	if e.llm == nil {
		return nil, ErrMissingCredentials
	}

	if sessionID != "" && !e.allow(sessionID) {
		return nil, nil
	}

	prompt := fmt.Sprintf(extractPrompt, speakerContext(speaker), text)

	resp, err := e.createMessage(ctx, prompt)
	if err != nil {
		zap.L().Warn("claim extraction failed", zap.Error(err))
		return nil, nil
	}

	claimText := strings.TrimSpace(resp.Text())
	if claimText == "" || claimText == noClaimSentinel {
		return nil, nil
	}

	return &Candidate{
		Text:           claimText,
		NeedsFactCheck: true,
		Fallacy:        "none",
	}, nil
}

// AnalyzeWithContext runs the structured extraction mode: the model answers
// in JSON, marking whether the claim needs fact-checking and, when requested,
// labeling any rhetorical fallacy.
func (e *Extractor) AnalyzeWithContext(ctx context.Context, text, speaker string, detectFallacies bool) (*Candidate, error) {
	if e.llm == nil {
		return nil, ErrMissingCredentials
	}

	fallacyInstruction := ""
	if detectFallacies {
		fallacyInstruction = fallacyInstructionBlock
	}
	prompt := fmt.Sprintf(analyzePrompt, speakerContext(speaker), text, fallacyInstruction)

	resp, err := e.createMessage(ctx, prompt)
	if err != nil {
		zap.L().Warn("claim analysis failed", zap.Error(err))
		return nil, nil
	}

	var parsed struct {
		Claim          *string `json:"claim"`
		NeedsFactCheck *bool   `json:"needsFactCheck"`
		Fallacy        string  `json:"fallacy"`
		Reasoning      string  `json:"reasoning"`
	}
	cleaned := cleanJSON(resp.Text())
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		zap.L().Warn("claim analysis returned unparsable JSON",
			zap.String("response", resp.Text()),
			zap.Error(err),
		)
		return nil, nil
	}

	if parsed.Claim == nil || strings.TrimSpace(*parsed.Claim) == "" {
		return nil, nil
	}

	needs := true
	if parsed.NeedsFactCheck != nil {
		needs = *parsed.NeedsFactCheck
	}
	fallacy := parsed.Fallacy
	if fallacy == "" {
		fallacy = "none"
	}

	return &Candidate{
		Text:           *parsed.Claim,
		NeedsFactCheck: needs,
		Fallacy:        fallacy,
		Reasoning:      parsed.Reasoning,
	}, nil
}

// ExtractBatch applies Extract independently per segment: no shared rate
// gate, empty-text segments skipped, segment metadata attached to every
// candidate.
func (e *Extractor) ExtractBatch(ctx context.Context, segments []model.Segment) ([]Candidate, error) {
	var out []Candidate
	for _, seg := range segments {
		if strings.TrimSpace(seg.Text) == "" {
			continue
		}

		cand, err := e.Extract(ctx, seg.Text, seg.Speaker, "")
		if err != nil {
			return nil, err
		}
		if cand == nil {
			continue
		}

		cand.SegmentID = seg.ID
		cand.Speaker = seg.Speaker
		cand.Start = seg.Start
		cand.End = seg.End
		out = append(out, *cand)
	}
	return out, nil
}

// ResetRateLimit clears the extraction gate for one session, or for all
// sessions when id is empty.
func (e *Extractor) ResetRateLimit(sessionID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if sessionID == "" {
		e.lastExtraction = make(map[string]time.Time)
		return
	}
	delete(e.lastExtraction, sessionID)
}

// allow reports whether the session's extraction window is open, updating
// the timestamp optimistically when it is.
func (e *Extractor) allow(sessionID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	if last, ok := e.lastExtraction[sessionID]; ok {
		if elapsed := now.Sub(last); elapsed < e.interval {
			zap.L().Debug("extraction rate limited",
				zap.String("session", sessionID),
				zap.Duration("wait", e.interval-elapsed),
			)
			return false
		}
	}
	e.lastExtraction[sessionID] = now
	return true
}

func (e *Extractor) createMessage(ctx context.Context, prompt string) (*anthropic.MessageResponse, error) {
	temp := 0.0 // deterministic extraction
	return e.llm.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       e.model,
		MaxTokens:   e.maxTokens,
		Temperature: &temp,
		Messages: []anthropic.Message{
			{Role: "user", Content: prompt},
		},
	})
}

func speakerContext(speaker string) string {
	if speaker == "" {
		return ""
	}
	return " by " + speaker
}

// cleanJSON attempts to extract a JSON object from text that may contain
// markdown code fences or other wrapping.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	// Strip markdown code fences.
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	// Find first { and last }.
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
