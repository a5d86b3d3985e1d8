// Package verdict converts raw Factiverse stance-detection payloads into
// canonical fact-check results. The upstream response shape is not
// contractually stable: fields may sit at the top level or nested one level
// under a "data" array, and any of them may be missing. Normalization is an
// explicit, ordered field-resolution procedure rather than a strict schema.
package verdict

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/debatelens/factwatch/internal/model"
)

// refuteThreshold separates strong refutation (likely_false) from moderate
// refutation (disputed).
const refuteThreshold = 0.65

// noInfoReasoning is used when the upstream returned neither a label nor a
// summary.
const noInfoReasoning = "No information found in fact-checking databases for this claim."

// Normalize maps a raw stance-detection payload to a FactCheckResult.
//
// Label mapping:
//
//	REFUTES, score > 0.65  -> likely_false (confidence = score)
//	REFUTES, score <= 0.65 -> disputed     (confidence = score)
//	SUPPORTS               -> supported    (confidence = score)
//	MIXED                  -> disputed     (confidence = 0.5)
//	NOT_ENOUGH_INFO/absent -> uncertain    (no confidence)
//	anything else          -> uncertain    (no confidence)
//
// A missing score defaults to 0.5 before the table is applied.
func Normalize(payload map[string]any, claimText string) model.FactCheckResult {
	main := payload
	if nested, ok := payload["data"].([]any); ok && len(nested) > 0 {
		if first, ok := nested[0].(map[string]any); ok {
			main = first
		}
	}

	// Each field is read from the nested document first, falling back to the
	// top level when the nested value is absent.
	resolve := func(field string) any {
		if v, ok := main[field]; ok && v != nil {
			return v
		}
		if v, ok := payload[field]; ok && v != nil {
			return v
		}
		return nil
	}

	var label string
	if raw := resolve("finalLabelDescription"); raw != nil {
		label = strings.ToUpper(fmt.Sprintf("%v", raw))
	}

	score := 0.5
	if raw, ok := toFloat64(resolve("finalScore")); ok {
		score = raw
	}

	var result model.FactCheckResult
	switch label {
	case "REFUTES":
		if score > refuteThreshold {
			result.Verdict = model.VerdictLikelyFalse
		} else {
			result.Verdict = model.VerdictDisputed
		}
		result.Confidence = &score
	case "SUPPORTS":
		result.Verdict = model.VerdictSupported
		result.Confidence = &score
	case "MIXED":
		mixed := 0.5
		result.Verdict = model.VerdictDisputed
		result.Confidence = &mixed
	default:
		// NOT_ENOUGH_INFO, empty, or any unrecognized label.
		result.Verdict = model.VerdictUncertain
	}

	result.Reasoning = buildReasoning(resolve("summary"), label)
	result.Sources = buildSources(resolve("evidence"))

	zap.L().Debug("normalized stance detection response",
		zap.String("claim", claimText),
		zap.String("upstream_label", label),
		zap.Float64("score", score),
		zap.String("verdict", string(result.Verdict)),
		zap.Int("sources", len(result.Sources)),
	)

	return result
}

// Unverifiable builds the degraded result for a failed stance lookup:
// verdict uncertain, the error named in the reasoning, no sources.
func Unverifiable(err error) model.FactCheckResult {
	return model.FactCheckResult{
		Verdict:   model.VerdictUncertain,
		Reasoning: "Error during fact-check: " + err.Error(),
		Sources:   []model.EvidenceSource{},
	}
}

func buildReasoning(rawSummary any, label string) string {
	summary, _ := rawSummary.([]any)
	if len(summary) == 0 {
		if label == "" || label == "NOT_ENOUGH_INFO" {
			return noInfoReasoning
		}
		return ""
	}

	first, ok := summary[0].(string)
	if !ok {
		first = fmt.Sprintf("%v", summary[0])
	}
	if len(summary) > 1 {
		first += fmt.Sprintf(" (%d additional points found)", len(summary))
	}
	return first
}

func buildSources(rawEvidence any) []model.EvidenceSource {
	sources := []model.EvidenceSource{}

	evidence, _ := rawEvidence.([]any)
	for _, item := range evidence {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}

		url, _ := entry["url"].(string)
		if url == "" || url == "None" {
			continue
		}

		title, _ := entry["title"].(string)
		if title == "" {
			title = "Unknown"
		}

		snippet, _ := entry["snippet"].(string)
		if snippet == "" {
			snippet, _ = entry["evidenceSnippet"].(string)
		}

		sources = append(sources, model.EvidenceSource{
			Title:   title,
			URL:     url,
			Snippet: snippet,
		})
	}
	return sources
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
