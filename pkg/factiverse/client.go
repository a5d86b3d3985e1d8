// Package factiverse provides a client for the Factiverse stance-detection
// and claim-detection APIs.
package factiverse

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the production Factiverse API endpoint.
const DefaultBaseURL = "https://api.factiverse.ai"

// Client defines the Factiverse operations used by the pipeline.
type Client interface {
	// StanceDetection looks up supporting/refuting evidence for a claim.
	// The response shape is not contractually stable, so the raw decoded
	// payload is returned for the caller to normalize.
	StanceDetection(ctx context.Context, claim string) (map[string]any, error)

	// DetectClaims extracts check-worthy claims from free text.
	DetectClaims(ctx context.Context, text string) ([]DetectedClaim, error)
}

// DetectedClaim is one claim found by Factiverse claim detection.
type DetectedClaim struct {
	ID            string   `json:"id,omitempty"`
	Text          string   `json:"text"`
	Score         *float64 `json:"score,omitempty"`
	ResolvedClaim string   `json:"resolvedClaim,omitempty"`
}

// Option configures the client.
type Option func(*client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) Option {
	return func(c *client) {
		c.baseURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		c.httpClient = hc
	}
}

// WithRateLimit sets the requests-per-second limit for API calls.
func WithRateLimit(rps float64) Option {
	return func(c *client) {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithStanceTimeout bounds a single stance detection call. Stance detection
// runs evidence retrieval upstream and is slow.
func WithStanceTimeout(d time.Duration) Option {
	return func(c *client) {
		c.stanceTimeout = d
	}
}

// WithDetectTimeout bounds a single claim detection call.
func WithDetectTimeout(d time.Duration) Option {
	return func(c *client) {
		c.detectTimeout = d
	}
}

type client struct {
	apiKey        string
	baseURL       string
	httpClient    *http.Client
	limiter       *rate.Limiter
	stanceTimeout time.Duration
	detectTimeout time.Duration
}

// NewClient creates a Factiverse client with the given bearer token.
func NewClient(apiKey string, opts ...Option) Client {
	c := &client{
		apiKey:        apiKey,
		baseURL:       DefaultBaseURL,
		httpClient:    &http.Client{},
		limiter:       rate.NewLimiter(5, 5),
		stanceTimeout: 60 * time.Second,
		detectTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *client) StanceDetection(ctx context.Context, claim string) (map[string]any, error) {
	payload := map[string]string{
		"claim":    claim,
		"language": "en",
	}
	return c.post(ctx, "/v1/stance_detection", payload, c.stanceTimeout)
}

func (c *client) DetectClaims(ctx context.Context, text string) ([]DetectedClaim, error) {
	payload := map[string]string{
		"text":     text,
		"language": "en",
	}
	data, err := c.post(ctx, "/v1/claim_detection", payload, c.detectTimeout)
	if err != nil {
		return nil, err
	}
	return flattenDetectedClaims(data), nil
}

func (c *client) post(ctx context.Context, path string, payload any, timeout time.Duration) (map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "factiverse: rate limiter wait")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, eris.Wrap(err, "factiverse: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "factiverse: create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "factiverse: post %s", path)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, eris.Errorf("factiverse: %s returned status %d", path, resp.StatusCode)
	}

	var data map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, eris.Wrapf(err, "factiverse: decode %s response", path)
	}
	return data, nil
}

// flattenDetectedClaims walks the claim detection payload, which may hold
// detectedClaims at the top level or nested inside a "data" list, and
// normalizes each entry to a predictable shape.
func flattenDetectedClaims(data map[string]any) []DetectedClaim {
	var raw []map[string]any

	var collect func(container map[string]any)
	collect = func(container map[string]any) {
		if detected, ok := container["detectedClaims"].([]any); ok {
			for _, item := range detected {
				if m, ok := item.(map[string]any); ok {
					raw = append(raw, m)
				}
			}
		}
		if nested, ok := container["data"].([]any); ok {
			for _, item := range nested {
				if m, ok := item.(map[string]any); ok {
					collect(m)
				}
			}
		}
	}
	collect(data)

	var out []DetectedClaim
	for _, m := range raw {
		text, _ := m["claim"].(string)
		if text == "" {
			text, _ = m["text"].(string)
		}
		if text == "" {
			continue
		}

		dc := DetectedClaim{Text: text}
		if id, ok := m["_id"].(string); ok && id != "" {
			dc.ID = id
		} else if id, ok := m["id"].(string); ok {
			dc.ID = id
		}
		if score, ok := m["score"].(float64); ok {
			dc.Score = &score
		}
		if rc, ok := m["resolved_claim"].(string); ok && rc != "" {
			dc.ResolvedClaim = rc
		} else if rc, ok := m["resolvedClaim"].(string); ok {
			dc.ResolvedClaim = rc
		}
		out = append(out, dc)
	}
	return out
}
