package ner

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestProbe_HealthyServiceMarksClientAvailable(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})

	c := New(Config{BaseURL: srv.URL, RequestTimeout: time.Second}, nil)
	require.True(t, c.Probe(context.Background()))
	assert.True(t, c.Available())
}

func TestProbe_UnhealthyServiceMarksClientUnavailable(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	c := New(Config{BaseURL: srv.URL, RequestTimeout: time.Second}, nil)
	require.False(t, c.Probe(context.Background()))
	assert.False(t, c.Available())
}

func TestDetectEntities_ParsesResponseIntoDetectedEntities(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			w.WriteHeader(http.StatusOK)
		case "/":
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(detectResponse{
				Results: [][]detectResponseItem{
					{{Text: "Jane Doe", Type: "PERSON", Score: 0.92}},
				},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	c := New(Config{BaseURL: srv.URL, RequestTimeout: time.Second, RateLimitRPS: 100, RateLimitBurst: 100}, nil)
	require.True(t, c.Probe(context.Background()))

	entities, err := c.DetectEntities(context.Background(), []string{"Jane Doe"})
	require.NoError(t, err)
	require.Len(t, entities, 1)
	require.Len(t, entities[0], 1)
	assert.Equal(t, "PERSON", entities[0][0].Type)
	assert.InDelta(t, 0.92, entities[0][0].Score, 0.0001)
}

func TestDetectEntities_NonOKStatusReturnsError(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	})

	c := New(Config{BaseURL: srv.URL, RequestTimeout: time.Second, RateLimitRPS: 100, RateLimitBurst: 100}, nil)
	c.retry.MaxAttempts = 1
	require.True(t, c.Probe(context.Background()))

	_, err := c.DetectEntities(context.Background(), []string{"x"})
	require.Error(t, err)
}
