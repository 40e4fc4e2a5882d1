// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/pixelproof/pixelproof/internal/model"
)

// HistoryStore defines the contract for the local verification history log.
// The log is append-only per fingerprint and never authoritative: it records
// what the pipeline told the user, not what is true.
type HistoryStore interface {
	// RecordIfAbsent writes the entry unless one already exists for the
	// fingerprint, and reports whether a new entry was written. It must be
	// atomic under concurrent calls for the same fingerprint: exactly one
	// writer wins.
	RecordIfAbsent(ctx context.Context, entry model.HistoryEntry) (bool, error)

	// Lookup returns the entry for a fingerprint, or nil when absent.
	// Diagnostics only; it never feeds an authenticity decision.
	Lookup(ctx context.Context, fp model.Fingerprint) (*model.HistoryEntry, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
