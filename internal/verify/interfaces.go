package verify

import (
	"context"
	"image"

	"github.com/pixelproof/pixelproof/internal/model"
)

// Ledger defines the contract for the authenticity ledger boundary.
type Ledger interface {
	// Lookup returns the claim for a fingerprint, or nil when the ledger
	// holds none. Free, idempotent, safe to retry.
	Lookup(ctx context.Context, fp model.Fingerprint) (*model.AuthenticityClaim, error)

	// Publish durably registers a new claim and returns its confirmation.
	// Not idempotent at the transport level: after ErrUnconfirmed the only
	// safe resolution is a fresh Lookup.
	Publish(ctx context.Context, fp model.Fingerprint, label model.Label, confidence float64, submitter string) (*model.ConfirmationReceipt, error)
}

// Classifier defines the contract for the content classifier.
type Classifier interface {
	Classify(ctx context.Context, img image.Image) (model.ClassificationResult, error)
}
