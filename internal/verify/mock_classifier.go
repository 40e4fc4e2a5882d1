package verify

import (
	"context"
	"image"
	"sync"

	"github.com/pixelproof/pixelproof/internal/model"
)

// MockClassifier is a test implementation of the Classifier interface that
// returns a fixed P(fake) with the production normalization applied.
type MockClassifier struct {
	// Err, when set, fails every Classify call.
	Err error
	// PFake is the raw probability the mock scorer would emit.
	PFake float64

	calls int
	mu    sync.Mutex
}

// Classify applies the 0.5 threshold and distance-from-boundary confidence
// to the configured PFake.
func (m *MockClassifier) Classify(_ context.Context, _ image.Image) (model.ClassificationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.Err != nil {
		return model.ClassificationResult{}, m.Err
	}

	if m.PFake >= 0.5 {
		return model.ClassificationResult{Label: model.LabelFake, Confidence: m.PFake}, nil
	}
	return model.ClassificationResult{Label: model.LabelReal, Confidence: 1 - m.PFake}, nil
}

// Calls returns how many times Classify ran.
func (m *MockClassifier) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
