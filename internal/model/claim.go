package model

import (
	"fmt"
	"math"
	"time"
)

// Label is a verdict on a piece of content.
type Label string

// Label constants.
const (
	LabelReal Label = "real"
	LabelFake Label = "fake"
)

// Valid reports whether the label is one of the known verdicts.
func (l Label) Valid() bool {
	return l == LabelReal || l == LabelFake
}

// ConfidenceScale is the fixed-point denominator used for confidence values
// stored on the ledger. The ledger stores integers in [0, ConfidenceScale]
// so no floating-point representation ever reaches the chain.
const ConfidenceScale = 10000

// EncodeConfidence converts an in-memory confidence in [0, 1] to the
// ledger's fixed-point representation, clamped to the valid range.
func EncodeConfidence(c float64) uint16 {
	scaled := math.Round(c * ConfidenceScale)
	if scaled < 0 {
		return 0
	}
	if scaled > ConfidenceScale {
		return ConfidenceScale
	}
	return uint16(scaled)
}

// DecodeConfidence converts the ledger's fixed-point confidence back to a
// float in [0, 1]. Values above the scale are an invalid encoding.
func DecodeConfidence(v uint16) (float64, error) {
	if v > ConfidenceScale {
		return 0, fmt.Errorf("fixed-point confidence %d exceeds scale %d", v, ConfidenceScale)
	}
	return float64(v) / ConfidenceScale, nil
}

// AuthenticityClaim is a ledger-resident authenticity record. Claims are
// append-only: created once, never updated or deleted, and the ledger holds
// at most one claim per fingerprint. By policy only "real" claims are
// written.
type AuthenticityClaim struct {
	Timestamp   time.Time
	Submitter   string
	Label       Label
	Fingerprint Fingerprint
	Confidence  float64
}

// ConfirmationReceipt is returned once a ledger write has been durably
// accepted, not merely submitted.
type ConfirmationReceipt struct {
	TxID        string
	BlockNumber uint64
}

// ClassificationResult is the transient output of the classifier for one
// fingerprint. It is never persisted directly: it is discarded when the
// ledger already held a claim, or used to decide whether to publish one.
type ClassificationResult struct {
	Label      Label
	Confidence float64
}
