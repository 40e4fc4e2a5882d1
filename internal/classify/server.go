package classify

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/pixelproof/pixelproof/internal/common"
)

// serverScorer implements Scorer against a remote model server.
type serverScorer struct {
	httpClient *http.Client
	endpoint   string
}

// scoreRequest is the model server's input: tensor geometry plus the raw
// float32 values, little-endian, base64 encoded.
type scoreRequest struct {
	Data     string `json:"data"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Channels int    `json:"channels"`
}

type scoreResponse struct {
	Probability float64 `json:"probability"`
}

func newServerScorer(cfg Config) (Scorer, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("classifier endpoint is required for the server provider")
	}
	return &serverScorer{
		endpoint: cfg.Endpoint,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}, nil
}

// Score sends the tensor to the model server and returns its scalar output.
func (s *serverScorer) Score(ctx context.Context, input Tensor) (float64, error) {
	raw := make([]byte, len(input.Data)*4)
	for i, v := range input.Data {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(v))
	}

	body, err := json.Marshal(scoreRequest{
		Data:     base64.StdEncoding.EncodeToString(raw),
		Width:    input.Width,
		Height:   input.Height,
		Channels: input.Channels,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to encode score request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint+"/v1/score", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to create score request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", common.ErrModelUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("%w: model server returned %d: %s", common.ErrModelUnavailable, resp.StatusCode, string(respBody))
	}

	var scored scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&scored); err != nil {
		return 0, fmt.Errorf("%w: undecodable model server response: %v", common.ErrModelUnavailable, err)
	}

	return scored.Probability, nil
}
