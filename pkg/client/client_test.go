package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Search(t *testing.T) {
	var gotAuth, gotRequestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/search", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get(RequestIDHeader)

		var req SearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "DS-2CD2143G2-I", req.Query)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(SearchResponse{
			Query:      req.Query,
			QueryType:  "competitor",
			Confidence: "high",
			Results: []Result{{
				Score:     100,
				MatchType: "exact",
				Mapping:   Mapping{Kind: "competitor", SourceModel: req.Query, Replacement: "P3265-LVE"},
			}},
		})
	}))
	defer srv.Close()

	c, err := NewClient(ClientConfig{BaseURL: srv.URL + "/", APIKey: "secret"})
	require.NoError(t, err)

	resp, err := c.Search(context.Background(), "DS-2CD2143G2-I")
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Len(t, gotRequestID, 36)
	assert.Equal(t, "high", resp.Confidence)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "P3265-LVE", resp.Results[0].Mapping.Replacement)
}

func TestClient_NoAPIKeyOmitsAuthorization(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(HealthResponse{Status: "healthy"})
	}))
	defer srv.Close()

	c, err := NewClient(ClientConfig{BaseURL: srv.URL})
	require.NoError(t, err)

	resp, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", resp.Status)
}

func TestClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(ErrorResponse{
			Error:   "invalid config",
			Message: "invalid config",
			Detail:  "min_score out of range",
		})
	}))
	defer srv.Close()

	c, err := NewClient(ClientConfig{BaseURL: srv.URL})
	require.NoError(t, err)

	minScore := 10
	_, err = c.Configure(context.Background(), ConfigUpdate{MinScore: &minScore})
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusBadRequest))
	assert.Contains(t, err.Error(), "min_score out of range")
}

func TestClient_APIErrorWithoutBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, err := NewClient(ClientConfig{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.Stats(context.Background())
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusServiceUnavailable))
	assert.Contains(t, err.Error(), "Service Unavailable")
}

func TestClient_SearchBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/search/batch", r.URL.Path)
		var req BatchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		resp := BatchResponse{BatchID: "b1"}
		for _, q := range req.Queries {
			resp.Items = append(resp.Items, BatchItem{Query: q, Response: SearchResponse{Query: q, IsBatch: true}})
		}
		resp.Count = len(resp.Items)
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c, err := NewClient(ClientConfig{BaseURL: srv.URL})
	require.NoError(t, err)

	resp, err := c.SearchBatch(context.Background(), []string{"A", "B"})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, "B", resp.Items[1].Query)
	assert.True(t, resp.Items[0].Response.IsBatch)
}

func TestNewClient_Defaults(t *testing.T) {
	c, err := NewClient(ClientConfig{})
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, c.baseURL)
	assert.NotNil(t, c.httpClient)
}
