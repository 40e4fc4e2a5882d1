package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/pixelproof/pixelproof/internal/common"
	"github.com/pixelproof/pixelproof/internal/model"
)

// RecordIfAbsent writes the entry unless the fingerprint is already
// present, and reports whether a new row was written. The insert relies on
// the primary key for atomicity: under concurrent calls for the same
// fingerprint exactly one writer wins and the rest observe "already
// present" without writing.
func (s *SQLiteHistory) RecordIfAbsent(ctx context.Context, entry model.HistoryEntry) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if err := validateEntry(&entry); err != nil {
		return false, err
	}

	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO history_entries (
			fingerprint, label, confidence, source, recorded_at, submitter_metadata
		) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(fingerprint) DO NOTHING
	`,
		entry.Fingerprint.String(),
		string(entry.Label),
		entry.Confidence,
		string(entry.Source),
		entry.RecordedAt,
		entry.Submitter,
	)
	if err != nil {
		// ON CONFLICT absorbs fingerprint races; any constraint failure
		// that still surfaces is a genuine duplicate on another index.
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return false, fmt.Errorf("%w: %v", common.ErrDuplicateEntry, err)
		}
		return false, fmt.Errorf("failed to record history entry: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check history insert outcome: %w", err)
	}

	return rows > 0, nil
}

// Lookup returns the entry for a fingerprint, or nil when absent. For
// diagnostics only; authenticity decisions never read from here.
func (s *SQLiteHistory) Lookup(ctx context.Context, fp model.Fingerprint) (*model.HistoryEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var (
		entry   model.HistoryEntry
		fpHex   string
		label   string
		source  string
		written time.Time
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT fingerprint, label, confidence, source, recorded_at, submitter_metadata
		FROM history_entries
		WHERE fingerprint = ?
	`, fp.String()).Scan(&fpHex, &label, &entry.Confidence, &source, &written, &entry.Submitter)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up history entry: %w", err)
	}

	parsed, err := model.ParseFingerprint(fpHex)
	if err != nil {
		return nil, fmt.Errorf("corrupt history row: %w", err)
	}

	entry.Fingerprint = parsed
	entry.Label = model.Label(label)
	entry.Source = model.HistorySource(source)
	entry.RecordedAt = written

	return &entry, nil
}

// Count returns the number of recorded entries, optionally filtered by
// source.
func (s *SQLiteHistory) Count(ctx context.Context, source model.HistorySource) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var n int
	var err error
	if source == "" {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM history_entries`).Scan(&n)
	} else {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM history_entries WHERE source = ?`, string(source)).Scan(&n)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count history entries: %w", err)
	}
	return n, nil
}

func validateEntry(entry *model.HistoryEntry) error {
	if entry.Fingerprint.IsZero() {
		return fmt.Errorf("history entry requires a fingerprint")
	}
	if !entry.Label.Valid() {
		return fmt.Errorf("history entry has invalid label %q", entry.Label)
	}
	if entry.Source != model.SourceLedger && entry.Source != model.SourceClassifier {
		return fmt.Errorf("history entry has invalid source %q", entry.Source)
	}
	if entry.Confidence < 0 || entry.Confidence > 1 {
		return fmt.Errorf("history entry confidence %v outside [0, 1]", entry.Confidence)
	}
	return nil
}
