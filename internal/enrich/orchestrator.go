// Package enrich sequences claim extraction, fact-checking, and attribution
// into fully populated claim records appended to live sessions.
package enrich

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/debatelens/factwatch/internal/extractor"
	"github.com/debatelens/factwatch/internal/model"
	"github.com/debatelens/factwatch/internal/session"
	"github.com/debatelens/factwatch/internal/verdict"
	"github.com/debatelens/factwatch/pkg/factiverse"
)

// maxReasoningLen bounds display reasoning, ellipsis included.
const maxReasoningLen = 240

// defaultBatchConcurrency caps concurrent stance lookups in one batch
// request when no explicit limit is configured.
const defaultBatchConcurrency = 5

// Orchestrator wires the extractor, the stance-detection client, and the
// session store together.
type Orchestrator struct {
	extractor     *extractor.Extractor
	checker       factiverse.Client
	sessions      *session.Store
	maxConcurrent int
}

// New creates an Orchestrator. checker may be nil, in which case every
// fact-check degrades to an uncertain verdict.
func New(ex *extractor.Extractor, checker factiverse.Client, sessions *session.Store, maxConcurrent int) *Orchestrator {
	if maxConcurrent <= 0 {
		maxConcurrent = defaultBatchConcurrency
	}
	return &Orchestrator{
		extractor:     ex,
		checker:       checker,
		sessions:      sessions,
		maxConcurrent: maxConcurrent,
	}
}

// FactCheckClaim runs stance detection for one claim and normalizes the
// outcome. Upstream failure yields an uncertain result, never an error.
func (o *Orchestrator) FactCheckClaim(ctx context.Context, claimText string) model.FactCheckResult {
	if o.checker == nil {
		return verdict.Unverifiable(eris.New("fact-check credentials not configured"))
	}

	payload, err := o.checker.StanceDetection(ctx, claimText)
	if err != nil {
		zap.L().Warn("stance detection failed",
			zap.String("claim", claimText),
			zap.Error(err),
		)
		return verdict.Unverifiable(err)
	}
	return verdict.Normalize(payload, claimText)
}

// AnalyzeSegment runs the single-segment flow: extract (rate-limited per
// session), fact-check when needed, attribute to the segment, append to the
// session. The segment itself is always appended, claim or not. Returns
// session.ErrNotFound for an unknown session.
func (o *Orchestrator) AnalyzeSegment(ctx context.Context, seg model.Segment) ([]model.Claim, error) {
	if _, err := o.sessions.Get(seg.SessionID); err != nil {
		return nil, err
	}

	cand, err := o.extractor.Extract(ctx, seg.Text, seg.Speaker, seg.SessionID)
	if err != nil {
		return nil, err
	}

	if err := o.sessions.AppendSegment(seg.SessionID, seg); err != nil {
		return nil, err
	}

	if cand == nil {
		return []model.Claim{}, nil
	}

	claim := o.buildClaim(seg.SessionID, *cand, seg)
	o.runFactCheck(ctx, &claim)

	if err := o.sessions.AppendClaims(seg.SessionID, claim); err != nil {
		return nil, err
	}
	return []model.Claim{claim}, nil
}

// AnalyzeChunk treats an ordered group of segments as one conversational
// window: segments are sorted by start time, rendered as "speaker: text"
// lines, and extraction runs once over the concatenation (rate-limited per
// session). A produced claim is attributed to the first segment, in start
// order, whose text contains the claim as a case-insensitive substring;
// when none matches it falls back to the latest-starting segment. The match
// is a best-effort heuristic and the claim is tagged accordingly.
func (o *Orchestrator) AnalyzeChunk(ctx context.Context, sessionID string, segments []model.Segment) ([]model.Claim, error) {
	snap, err := o.sessions.Snapshot(sessionID)
	if err != nil {
		return nil, err
	}

	ordered := append([]model.Segment{}, segments...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Start < ordered[j].Start
	})

	var lines []string
	for _, seg := range ordered {
		if strings.TrimSpace(seg.Text) == "" {
			continue
		}
		label := snap.Speakers[seg.Speaker]
		if label == "" {
			label = seg.Speaker
		}
		lines = append(lines, label+": "+seg.Text)
	}
	if len(lines) == 0 {
		return []model.Claim{}, nil
	}

	cand, err := o.extractor.Extract(ctx, strings.Join(lines, "\n"), "", sessionID)
	if err != nil {
		return nil, err
	}
	if cand == nil {
		return []model.Claim{}, nil
	}

	target, attribution := attributeClaim(ordered, cand.Text)

	claim := o.buildClaim(sessionID, *cand, target)
	claim.Attribution = attribution
	o.runFactCheck(ctx, &claim)

	if err := o.sessions.AppendClaims(sessionID, claim); err != nil {
		return nil, err
	}
	return []model.Claim{claim}, nil
}

// FactCheckBatch fact-checks externally supplied claims concurrently.
// Results join in input order regardless of completion order. When the
// batch names a known session its claims are appended there; an unknown or
// absent session id keeps the call stateless.
func (o *Orchestrator) FactCheckBatch(ctx context.Context, sessionID string, inputs []model.ClaimInput) ([]model.Claim, error) {
	results := make([]model.Claim, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.maxConcurrent)

	for i, in := range inputs {
		g.Go(func() error {
			claim := o.claimFromInput(sessionID, in)
			if claim.NeedsFactCheck {
				o.runFactCheck(gctx, &claim)
			}
			results[i] = claim
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if sessionID != "" {
		if err := o.sessions.AppendClaims(sessionID, results...); err != nil {
			if !eris.Is(err, session.ErrNotFound) {
				return nil, err
			}
			zap.L().Debug("batch fact-check for unknown session processed statelessly",
				zap.String("session", sessionID),
			)
		}
	}
	return results, nil
}

// AnalyzeFallacies runs structured extraction with fallacy detection over
// each segment independently. Segments with empty text are skipped; segments
// yielding no claim produce no insight.
func (o *Orchestrator) AnalyzeFallacies(ctx context.Context, segments []model.Segment) ([]model.FallacyInsight, error) {
	results := []model.FallacyInsight{}
	for _, seg := range segments {
		if strings.TrimSpace(seg.Text) == "" {
			continue
		}

		cand, err := o.extractor.AnalyzeWithContext(ctx, seg.Text, seg.Speaker, true)
		if err != nil {
			return nil, err
		}
		if cand == nil {
			continue
		}

		results = append(results, model.FallacyInsight{
			SegmentID: seg.ID,
			Speaker:   seg.Speaker,
			Start:     seg.Start,
			End:       seg.End,
			ClaimText: cand.Text,
			Fallacy:   cand.Fallacy,
			Reasoning: cand.Reasoning,
		})
	}
	return results, nil
}

// buildClaim assembles a not-yet-checked claim from a candidate and the
// segment it is attributed to.
func (o *Orchestrator) buildClaim(sessionID string, cand extractor.Candidate, seg model.Segment) model.Claim {
	return model.Claim{
		ID:             newClaimID(),
		SessionID:      sessionID,
		SegmentID:      seg.ID,
		Speaker:        seg.Speaker,
		Start:          seg.Start,
		End:            seg.End,
		Text:           cand.Text,
		Fallacy:        cand.Fallacy,
		NeedsFactCheck: cand.NeedsFactCheck,
		Verdict:        model.VerdictNotChecked,
		Sources:        []model.EvidenceSource{},
	}
}

// claimFromInput fills the defaults for an externally supplied claim: id
// when absent, segment id defaulting to the claim id, speaker "unknown",
// and empty text resolving to "no fact check needed".
func (o *Orchestrator) claimFromInput(sessionID string, in model.ClaimInput) model.Claim {
	id := in.ID
	if id == "" {
		id = newClaimID()
	}
	segmentID := in.SegmentID
	if segmentID == "" {
		segmentID = id
	}
	speaker := in.Speaker
	if speaker == "" {
		speaker = "unknown"
	}

	needs := true
	if in.NeedsFactCheck != nil {
		needs = *in.NeedsFactCheck
	}
	if strings.TrimSpace(in.Text) == "" {
		needs = false
	}

	return model.Claim{
		ID:             id,
		SessionID:      sessionID,
		SegmentID:      segmentID,
		Speaker:        speaker,
		Start:          in.Start,
		End:            in.End,
		Text:           in.Text,
		Fallacy:        "none",
		NeedsFactCheck: needs,
		Verdict:        model.VerdictNotChecked,
		Sources:        []model.EvidenceSource{},
	}
}

// runFactCheck fact-checks the claim in place when it needs one and rewrites
// the reasoning for display.
func (o *Orchestrator) runFactCheck(ctx context.Context, claim *model.Claim) {
	if !claim.NeedsFactCheck {
		return
	}
	res := o.FactCheckClaim(ctx, claim.Text)
	claim.ApplyResult(res)
	claim.Reasoning = SummarizeReasoning(claim.Reasoning, len(claim.Sources))
}

// attributeClaim locates the segment a chunk-mode claim belongs to.
// Segments must already be sorted by start time.
func attributeClaim(ordered []model.Segment, claimText string) (model.Segment, model.Attribution) {
	needle := strings.ToLower(claimText)
	for _, seg := range ordered {
		if strings.Contains(strings.ToLower(seg.Text), needle) {
			return seg, model.AttributionMatched
		}
	}
	return ordered[len(ordered)-1], model.AttributionFallback
}

// SummarizeReasoning prepares normalizer reasoning for display: truncated to
// 240 characters including the trailing ellipsis. When no reasoning exists
// but sources were found, a fixed source-count message substitutes; with
// neither, reasoning stays absent.
func SummarizeReasoning(reasoning string, sourceCount int) string {
	if reasoning != "" {
		runes := []rune(reasoning)
		if len(runes) <= maxReasoningLen {
			return reasoning
		}
		return string(runes[:maxReasoningLen-1]) + "…"
	}
	if sourceCount > 0 {
		return fmt.Sprintf("Factiverse returned %d source(s)", sourceCount)
	}
	return ""
}

func newClaimID() string {
	return "claim_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
}
