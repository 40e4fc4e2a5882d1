package model

import "time"

// HistorySource records which system produced the answer we gave the user.
type HistorySource string

// History source constants.
const (
	SourceLedger     HistorySource = "ledger"
	SourceClassifier HistorySource = "classifier"
)

// HistoryEntry is the local, non-authoritative record of one verification.
// It is a cache of "what we told the user", never a source of truth for
// authenticity decisions, and the log holds at most one entry per
// fingerprint.
type HistoryEntry struct {
	RecordedAt  time.Time
	Source      HistorySource
	Label       Label
	Submitter   string
	Fingerprint Fingerprint
	Confidence  float64
}
