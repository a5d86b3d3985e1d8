package factiverse

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStanceDetection(t *testing.T) {
	t.Parallel()

	var gotPath, gotAuth string
	var gotBody map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"finalLabelDescription": "SUPPORTS",
			"finalScore":            0.8,
		})
	}))
	defer srv.Close()

	c := NewClient("token-123", WithBaseURL(srv.URL))

	data, err := c.StanceDetection(context.Background(), "the sky is blue")
	require.NoError(t, err)

	assert.Equal(t, "/v1/stance_detection", gotPath)
	assert.Equal(t, "Bearer token-123", gotAuth)
	assert.Equal(t, "the sky is blue", gotBody["claim"])
	assert.Equal(t, "en", gotBody["language"])
	assert.Equal(t, "SUPPORTS", data["finalLabelDescription"])
}

func TestStanceDetectionNon2xx(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient("token", WithBaseURL(srv.URL))

	_, err := c.StanceDetection(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestStanceDetectionMalformedBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := NewClient("token", WithBaseURL(srv.URL))

	_, err := c.StanceDetection(context.Background(), "anything")
	assert.Error(t, err)
}

func TestDetectClaimsTopLevel(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/claim_detection", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"detectedClaims": []any{
				map[string]any{"claim": "GDP grew 3%", "score": 0.91, "_id": "c1"},
				map[string]any{"text": "crime fell", "resolvedClaim": "crime fell in 2024"},
				map[string]any{"score": 0.5}, // no text: dropped
			},
		})
	}))
	defer srv.Close()

	c := NewClient("token", WithBaseURL(srv.URL))

	claims, err := c.DetectClaims(context.Background(), "some transcript text")
	require.NoError(t, err)
	require.Len(t, claims, 2)

	assert.Equal(t, "GDP grew 3%", claims[0].Text)
	assert.Equal(t, "c1", claims[0].ID)
	require.NotNil(t, claims[0].Score)
	assert.InDelta(t, 0.91, *claims[0].Score, 1e-9)

	assert.Equal(t, "crime fell", claims[1].Text)
	assert.Equal(t, "crime fell in 2024", claims[1].ResolvedClaim)
	assert.Nil(t, claims[1].Score)
}

func TestDetectClaimsNestedData(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data": []any{
				map[string]any{
					"detectedClaims": []any{
						map[string]any{"claim": "nested claim"},
					},
				},
			},
		})
	}))
	defer srv.Close()

	c := NewClient("token", WithBaseURL(srv.URL))

	claims, err := c.DetectClaims(context.Background(), "text")
	require.NoError(t, err)
	require.Len(t, claims, 1)
	assert.Equal(t, "nested claim", claims[0].Text)
}
