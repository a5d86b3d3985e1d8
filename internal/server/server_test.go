package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/debatelens/factwatch/internal/enrich"
	"github.com/debatelens/factwatch/internal/extractor"
	"github.com/debatelens/factwatch/internal/session"
	"github.com/debatelens/factwatch/pkg/anthropic"
	"github.com/debatelens/factwatch/pkg/factiverse"
)

type fakeLLM struct {
	response string
}

func (f *fakeLLM) CreateMessage(_ context.Context, _ anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: f.response}},
	}, nil
}

type fakeChecker struct {
	payload map[string]any
}

func (f *fakeChecker) StanceDetection(_ context.Context, _ string) (map[string]any, error) {
	return f.payload, nil
}

func (f *fakeChecker) DetectClaims(_ context.Context, _ string) ([]factiverse.DetectedClaim, error) {
	return nil, nil
}

// newTestServer wires a fresh store and an orchestrator over scripted fakes.
func newTestServer(llmResponse string, payload map[string]any) (*Server, *session.Store) {
	store := session.New()
	ex := extractor.New(&fakeLLM{response: llmResponse}, extractor.Options{Interval: time.Nanosecond})
	orch := enrich.New(ex, &fakeChecker{payload: payload}, store, 0)
	return New(store, orch, []string{"http://localhost:3000"}), store
}

func refutesPayload() map[string]any {
	return map[string]any{
		"finalLabelDescription": "REFUTES",
		"finalScore":            0.9,
		"summary":               []any{"contradicted by records"},
		"evidence": []any{
			map[string]any{"title": "Reuters", "url": "https://reuters.com/a", "snippet": "..."},
			map[string]any{"title": "Bad", "url": "None"},
		},
	}
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer("NO_CLAIM", nil)

	rr := doJSON(t, srv.Handler(), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestLiveStartDefaults(t *testing.T) {
	t.Parallel()

	srv, store := newTestServer("NO_CLAIM", nil)

	rr := doJSON(t, srv.Handler(), http.MethodPost, "/api/live/start", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		SessionID string            `json:"sessionId"`
		Speakers  map[string]string `json:"speakers"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.NotEmpty(t, body.SessionID)
	assert.Equal(t, session.DefaultSpeakers(), body.Speakers)

	_, err := store.Get(body.SessionID)
	assert.NoError(t, err)
}

func TestLiveStartCallerSupplied(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer("NO_CLAIM", nil)

	rr := doJSON(t, srv.Handler(), http.MethodPost, "/api/live/start", map[string]any{
		"sessionId": "debate-42",
		"speakers":  map[string]string{"spk_0": "Moderator"},
	})
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		SessionID string            `json:"sessionId"`
		Speakers  map[string]string `json:"speakers"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "debate-42", body.SessionID)
	assert.Equal(t, "Moderator", body.Speakers["spk_0"])
}

func TestFactCheckEndpoint(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer("NO_CLAIM", refutesPayload())

	rr := doJSON(t, srv.Handler(), http.MethodPost, "/api/fact-check", map[string]string{
		"claimText": "the earth is flat",
	})
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Verdict    string  `json:"verdict"`
		Confidence float64 `json:"confidence"`
		Reasoning  string  `json:"reasoning"`
		Sources    []struct {
			Title string `json:"title"`
			URL   string `json:"url"`
		} `json:"sources"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "likely_false", body.Verdict)
	assert.InDelta(t, 0.9, body.Confidence, 1e-9)
	assert.Equal(t, "contradicted by records", body.Reasoning)
	require.Len(t, body.Sources, 1, "source with URL \"None\" must be dropped")
	assert.Equal(t, "https://reuters.com/a", body.Sources[0].URL)
}

func TestFactCheckMissingClaimText(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer("NO_CLAIM", nil)

	rr := doJSON(t, srv.Handler(), http.MethodPost, "/api/fact-check", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestClaimsBatchEndpoint(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer("NO_CLAIM", refutesPayload())

	rr := doJSON(t, srv.Handler(), http.MethodPost, "/api/claims/fact-check", map[string]any{
		"claims": []map[string]any{
			{"text": "the earth is flat"},
			{"text": "", "id": "claim_empty"},
		},
	})
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		SessionID string `json:"sessionId"`
		Results   []struct {
			ID      string `json:"id"`
			Verdict string `json:"verdict"`
			Speaker string `json:"speaker"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Results, 2)
	assert.Equal(t, "likely_false", body.Results[0].Verdict)
	assert.Equal(t, "unknown", body.Results[0].Speaker)
	assert.Equal(t, "claim_empty", body.Results[1].ID)
	assert.Equal(t, "not_checked", body.Results[1].Verdict)
}

func TestClaimsBatchEmpty(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer("NO_CLAIM", nil)

	rr := doJSON(t, srv.Handler(), http.MethodPost, "/api/claims/fact-check", map[string]any{
		"claims": []map[string]any{},
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAnalyzeSegmentRoundTrip(t *testing.T) {
	t.Parallel()

	srv, store := newTestServer("the sky is blue", refutesPayload())
	store.Create("live_1", nil)

	segment := map[string]any{
		"id":        "seg_1",
		"sessionId": "live_1",
		"speaker":   "spk_0",
		"start":     12.3,
		"end":       15.8,
		"text":      "I believe the sky is blue",
	}

	rr := doJSON(t, srv.Handler(), http.MethodPost, "/api/analyze-segment", segment)
	require.Equal(t, http.StatusOK, rr.Code)

	var returned []map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &returned))
	require.Len(t, returned, 1)
	assert.Equal(t, "likely_false", returned[0]["verdict"])

	// The same claim comes back identically from the live state.
	stateRR := doJSON(t, srv.Handler(), http.MethodGet, "/api/live/state?sessionId=live_1", nil)
	require.Equal(t, http.StatusOK, stateRR.Code)

	var state struct {
		SessionID string            `json:"sessionId"`
		Speakers  map[string]string `json:"speakers"`
		Segments  []map[string]any  `json:"segments"`
		Claims    []map[string]any  `json:"claims"`
	}
	require.NoError(t, json.Unmarshal(stateRR.Body.Bytes(), &state))
	assert.Equal(t, "live_1", state.SessionID)
	require.Len(t, state.Segments, 1)
	assert.Equal(t, "seg_1", state.Segments[0]["id"])
	require.Len(t, state.Claims, 1)
	assert.Equal(t, returned[0], state.Claims[0])
}

func TestAnalyzeSegmentUnknownSession(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer("the sky is blue", nil)

	rr := doJSON(t, srv.Handler(), http.MethodPost, "/api/analyze-segment", map[string]any{
		"id":        "seg_1",
		"sessionId": "ghost",
		"text":      "anything",
	})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAnalyzeChunkEndpoint(t *testing.T) {
	t.Parallel()

	srv, store := newTestServer("the sky is blue", refutesPayload())
	store.Create("live_1", nil)

	rr := doJSON(t, srv.Handler(), http.MethodPost, "/api/analyze-chunk", map[string]any{
		"sessionId": "live_1",
		"segments": []map[string]any{
			{"id": "seg_a", "sessionId": "live_1", "speaker": "spk_0", "start": 1, "end": 4, "text": "the sky is red"},
			{"id": "seg_b", "sessionId": "live_1", "speaker": "spk_1", "start": 5, "end": 8, "text": "the sky is blue"},
		},
	})
	require.Equal(t, http.StatusOK, rr.Code)

	var claims []map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &claims))
	require.Len(t, claims, 1)
	assert.Equal(t, "seg_b", claims[0]["segmentId"])
	assert.Equal(t, "matched", claims[0]["attribution"])
}

func TestAnalyzeChunkClientErrors(t *testing.T) {
	t.Parallel()

	srv, store := newTestServer("NO_CLAIM", nil)
	store.Create("live_1", nil)

	rr := doJSON(t, srv.Handler(), http.MethodPost, "/api/analyze-chunk", map[string]any{
		"sessionId": "live_1",
		"segments":  []map[string]any{},
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(t, srv.Handler(), http.MethodPost, "/api/analyze-chunk", map[string]any{
		"sessionId": "ghost",
		"segments":  []map[string]any{{"id": "s", "text": "x"}},
	})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestFallaciesEndpoint(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(`{"claim": "they want to ban cars", "needsFactCheck": true, "fallacy": "slippery_slope", "reasoning": "exaggerates"}`, nil)

	rr := doJSON(t, srv.Handler(), http.MethodPost, "/api/fallacies/analyze", map[string]any{
		"sessionId": "live_1",
		"segments": []map[string]any{
			{"id": "seg_1", "speaker": "spk_0", "start": 1, "end": 2, "text": "next they will ban cars"},
		},
	})
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		SessionID string `json:"sessionId"`
		Results   []struct {
			SegmentID string `json:"segmentId"`
			Fallacy   string `json:"fallacy"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "live_1", body.SessionID)
	require.Len(t, body.Results, 1)
	assert.Equal(t, "slippery_slope", body.Results[0].Fallacy)
}

func TestFallaciesEmptySegments(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer("NO_CLAIM", nil)

	rr := doJSON(t, srv.Handler(), http.MethodPost, "/api/fallacies/analyze", map[string]any{
		"segments": []map[string]any{},
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLiveStateErrors(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer("NO_CLAIM", nil)

	rr := doJSON(t, srv.Handler(), http.MethodGet, "/api/live/state?sessionId=ghost", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = doJSON(t, srv.Handler(), http.MethodGet, "/api/live/state", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
