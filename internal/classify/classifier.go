// Package classify wraps an opaque deepfake scorer behind a stable
// (label, confidence) contract, isolating the verification pipeline from the
// concrete model runtime.
package classify

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"strings"

	"github.com/pixelproof/pixelproof/internal/model"
)

// Scorer produces a single scalar: the probability that the content is
// fake. Implementations wrap concrete model runtimes.
type Scorer interface {
	Score(ctx context.Context, input Tensor) (float64, error)
}

// Config holds configuration for the classifier adapter.
type Config struct {
	// Provider selects the scorer backend: "server" or "exec".
	Provider string
	// Endpoint is the model server URL for the server provider.
	Endpoint string
	// Command is the scorer binary for the exec provider.
	Command string
}

// Classifier implements the verify.Classifier interface over a Scorer.
type Classifier struct {
	scorer Scorer
	logger *slog.Logger
}

// NewClassifier creates a classifier for the configured provider.
func NewClassifier(cfg Config, logger *slog.Logger) (*Classifier, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var scorer Scorer
	var err error

	switch strings.ToLower(cfg.Provider) {
	case "server":
		scorer, err = newServerScorer(cfg)
	case "exec":
		scorer, err = newExecScorer(cfg)
	default:
		return nil, fmt.Errorf("unsupported classifier provider: %s", cfg.Provider)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create scorer: %w", err)
	}

	return &Classifier{scorer: scorer, logger: logger}, nil
}

// NewWithScorer wraps an already-constructed scorer. Used by tests and by
// callers that manage the model runtime themselves.
func NewWithScorer(scorer Scorer, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{scorer: scorer, logger: logger}
}

// Classify scores an image and normalizes the raw probability into a
// labeled result. The scorer yields p = P(fake); the label is fake iff
// p >= 0.5 and the confidence is the distance from that boundary:
// p for fake, 1-p for real. This convention determines both the verdict and
// the value written to the ledger, and must be preserved exactly.
//
// No retries: a scoring failure is fatal for the current request only.
func (c *Classifier) Classify(ctx context.Context, img image.Image) (model.ClassificationResult, error) {
	input := Preprocess(img)

	p, err := c.scorer.Score(ctx, input)
	if err != nil {
		return model.ClassificationResult{}, err
	}

	if p < 0 || p > 1 {
		return model.ClassificationResult{}, fmt.Errorf("scorer returned probability %v outside [0, 1]", p)
	}

	result := model.ClassificationResult{Label: model.LabelReal, Confidence: 1 - p}
	if p >= fakeThreshold {
		result = model.ClassificationResult{Label: model.LabelFake, Confidence: p}
	}

	c.logger.Debug("classified content",
		"p_fake", p,
		"label", result.Label,
		"confidence", result.Confidence)

	return result, nil
}

// fakeThreshold is the decision boundary on the scorer's P(fake) output.
const fakeThreshold = 0.5
