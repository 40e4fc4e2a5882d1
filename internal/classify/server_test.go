package classify

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixelproof/pixelproof/internal/common"
)

func TestServerScorer_RoundTrip(t *testing.T) {
	var received scoreRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/score", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		require.NoError(t, json.NewEncoder(w).Encode(scoreResponse{Probability: 0.73}))
	}))
	defer server.Close()

	scorer, err := newServerScorer(Config{Provider: "server", Endpoint: server.URL})
	require.NoError(t, err)

	tensor := Preprocess(testImage())
	p, err := scorer.Score(context.Background(), tensor)
	require.NoError(t, err)
	assert.InDelta(t, 0.73, p, 1e-9)

	assert.Equal(t, InputSize, received.Width)
	assert.Equal(t, InputSize, received.Height)
	assert.Equal(t, InputChannels, received.Channels)

	raw, err := base64.StdEncoding.DecodeString(received.Data)
	require.NoError(t, err)
	assert.Len(t, raw, InputSize*InputSize*InputChannels*4, "float32 values, little-endian")
}

func TestServerScorer_ServerErrorIsModelUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model crashed", http.StatusInternalServerError)
	}))
	defer server.Close()

	scorer, err := newServerScorer(Config{Provider: "server", Endpoint: server.URL})
	require.NoError(t, err)

	_, err = scorer.Score(context.Background(), Preprocess(testImage()))
	require.ErrorIs(t, err, common.ErrModelUnavailable)
}

func TestServerScorer_RequiresEndpoint(t *testing.T) {
	_, err := newServerScorer(Config{Provider: "server"})
	require.Error(t, err)
}
