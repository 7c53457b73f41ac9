package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	pkgerrors "github.com/juancgarza/memex/pkg/errors"
)

func newTestClient(endpoint string, dimensions int) *Client {
	return NewClient(Config{
		Endpoint:   endpoint,
		APIKey:     "test-key",
		Model:      "test-model",
		Dimensions: dimensions,
		Timeout:    time.Second,
	}, zap.NewNop())
}

func embeddingServer(t *testing.T, vector []float32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Input, 1)

		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"embedding": vector, "index": 0}},
		})
	}))
}

func TestEmbed(t *testing.T) {
	want := []float32{1, 0, 0, 0, 0, 0, 0, 0}
	srv := embeddingServer(t, want)
	defer srv.Close()

	got, err := newTestClient(srv.URL, 8).Embed(context.Background(), "some text")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestEmbedStatusErrorIsProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream overloaded", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 8).Embed(context.Background(), "some text")
	assert.True(t, pkgerrors.IsProviderError(err))
}

func TestEmbedKeepsClassifiedErrors(t *testing.T) {
	// The server answers with the wrong dimension; the call path classifies
	// that itself, and Embed must return that error without wrapping it again
	srv := embeddingServer(t, []float32{1, 0})
	defer srv.Close()

	_, err := newTestClient(srv.URL, 8).Embed(context.Background(), "some text")
	require.Error(t, err)

	appErr := pkgerrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.ErrorTypeProvider, appErr.Type)
	assert.Nil(t, pkgerrors.GetAppError(appErr.Cause))
}

func TestEmbedOpenBreakerIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 8)
	ctx := context.Background()

	// Five straight failures trip the breaker
	for i := 0; i < 5; i++ {
		_, err := client.Embed(ctx, "some text")
		require.Error(t, err)
	}

	_, err := client.Embed(ctx, "some text")
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeUnavailable))
}
