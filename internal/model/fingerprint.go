// Package model defines the core domain models used throughout the application.
package model

import (
	"encoding/hex"
	"fmt"
)

// FingerprintSize is the width of a content fingerprint in bytes.
const FingerprintSize = 32

// Fingerprint is a fixed-width digest over canonical decoded pixel data.
// It is the sole lookup key for ledger claims and local history; two inputs
// decoding to the same pixel buffer always produce the same fingerprint.
type Fingerprint [FingerprintSize]byte

// String returns the lowercase hex form used for display, database keys,
// and ledger RPC parameters.
func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// IsZero reports whether the fingerprint is the all-zero value.
func (f Fingerprint) IsZero() bool {
	return f == Fingerprint{}
}

// ParseFingerprint decodes the hex form back into a Fingerprint.
func ParseFingerprint(s string) (Fingerprint, error) {
	var f Fingerprint
	raw, err := hex.DecodeString(s)
	if err != nil {
		return f, fmt.Errorf("invalid fingerprint %q: %w", s, err)
	}
	if len(raw) != FingerprintSize {
		return f, fmt.Errorf("invalid fingerprint %q: got %d bytes, want %d", s, len(raw), FingerprintSize)
	}
	copy(f[:], raw)
	return f, nil
}
