// Package verify implements the content authenticity verification pipeline:
// fingerprint the content, consult the ledger, fall back to the classifier,
// register new real verdicts, and keep an idempotent local history of what
// was answered.
package verify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/pixelproof/pixelproof/internal/common"
	"github.com/pixelproof/pixelproof/internal/fingerprint"
	"github.com/pixelproof/pixelproof/internal/model"
	"github.com/pixelproof/pixelproof/internal/service"
)

// Engine orchestrates one verification decision per request. It is the only
// component with business logic; everything it coordinates sits behind an
// interface.
type Engine struct {
	ledger         Ledger
	classifier     Classifier
	history        service.HistoryStore
	logger         *slog.Logger
	lookupRetry    service.RetryOptions
	publishTimeout time.Duration
}

// Config holds configuration options for the verification engine.
type Config struct {
	LookupRetry service.RetryOptions

	// PublishTimeout bounds a single publish including its confirmation
	// wait. Zero means the request context's deadline alone applies.
	PublishTimeout time.Duration
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		LookupRetry: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 200 * time.Millisecond,
			MaxDelay:     2 * time.Second,
			Multiplier:   2.0,
		},
		PublishTimeout: 90 * time.Second,
	}
}

// New creates a verification engine with the given dependencies.
func New(ledger Ledger, classifier Classifier, history service.HistoryStore, logger *slog.Logger) *Engine {
	return NewWithConfig(ledger, classifier, history, logger, DefaultConfig())
}

// NewWithConfig creates a verification engine with custom configuration.
func NewWithConfig(ledger Ledger, classifier Classifier, history service.HistoryStore, logger *slog.Logger, cfg Config) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		ledger:         ledger,
		classifier:     classifier,
		history:        history,
		logger:         logger,
		lookupRetry:    cfg.LookupRetry,
		publishTimeout: cfg.PublishTimeout,
	}
}

// Verify answers whether the content is known-authentic, and if not,
// whether it should become known-authentic.
//
// The decision sequence is fixed: fingerprint, ledger lookup, classifier on
// a miss, publish on a real verdict, then exactly one history record
// regardless of the path taken. A ledger claim is authoritative and final;
// a failed registration never downgrades a real verdict, since failing to
// register authenticity is not evidence of fakeness.
func (e *Engine) Verify(ctx context.Context, content []byte, meta model.SubmitterMetadata) (*model.VerificationResult, error) {
	img, err := fingerprint.Decode(content)
	if err != nil {
		return nil, err
	}
	fp := fingerprint.FromImage(img)

	logger := e.logger.With("fingerprint", fp.String())
	logger.Debug("content fingerprinted")

	claim, consulted := e.lookupClaim(ctx, fp, logger)
	if claim != nil {
		logger.Info("ledger hit, decision is final",
			"label", claim.Label,
			"submitter", claim.Submitter)

		result := &model.VerificationResult{
			Label:           claim.Label,
			Confidence:      claim.Confidence,
			Fingerprint:     fp,
			Provenance:      model.ProvenanceLedger,
			Claim:           claim,
			LedgerConsulted: true,
		}
		e.record(ctx, result, meta, model.SourceLedger, logger)
		return result, nil
	}

	classified, err := e.classifier.Classify(ctx, img)
	if err != nil {
		// Fatal for this request only: no cached or stale verdict is
		// substituted.
		return nil, err
	}

	logger.Info("classified content",
		"label", classified.Label,
		"confidence", classified.Confidence)

	result := &model.VerificationResult{
		Label:           classified.Label,
		Confidence:      classified.Confidence,
		Fingerprint:     fp,
		Provenance:      model.ProvenanceClassifierOnly,
		LedgerConsulted: consulted,
	}

	// Fake verdicts are never published: the ledger carries only positive
	// attestations, so disputed fake calls need no retraction mechanism.
	if classified.Label == model.LabelReal {
		e.register(ctx, fp, classified, meta, result, logger)
	}

	source := model.SourceClassifier
	if result.Provenance == model.ProvenanceLedger {
		source = model.SourceLedger
	}
	e.record(ctx, result, meta, source, logger)
	return result, nil
}

// lookupClaim consults the ledger with bounded retries. Read availability
// is not a hard dependency for delivering a result: on persistent failure
// it reports the ledger as not consulted and the pipeline degrades to the
// classifier.
func (e *Engine) lookupClaim(ctx context.Context, fp model.Fingerprint, logger *slog.Logger) (*model.AuthenticityClaim, bool) {
	var claim *model.AuthenticityClaim
	err := common.WithRetry(ctx, func() error {
		var lookupErr error
		claim, lookupErr = e.ledger.Lookup(ctx, fp)
		return lookupErr
	}, e.lookupRetry)
	if err != nil {
		logger.Warn("ledger lookup unavailable, degrading to classifier", "error", err)
		return nil, false
	}
	return claim, true
}

// register attempts to publish a real verdict as a new ledger claim,
// upgrading the result's provenance on success. A lookup result must have
// been observed before any publish decision; if the initial lookup was
// skipped, one more is attempted here, and without it no publish happens.
func (e *Engine) register(ctx context.Context, fp model.Fingerprint, classified model.ClassificationResult, meta model.SubmitterMetadata, result *model.VerificationResult, logger *slog.Logger) {
	if !result.LedgerConsulted {
		claim, consulted := e.lookupClaim(ctx, fp, logger)
		if !consulted {
			logger.Warn("skipping claim registration: ledger state unobserved")
			return
		}
		result.LedgerConsulted = true
		if claim != nil {
			// A claim landed since the request began, possibly from an
			// earlier unconfirmed write of ours. It is authoritative.
			result.Label = claim.Label
			result.Confidence = claim.Confidence
			result.Provenance = model.ProvenanceLedger
			result.Claim = claim
			return
		}
	}

	pubCtx := ctx
	if e.publishTimeout > 0 {
		var cancel context.CancelFunc
		pubCtx, cancel = context.WithTimeout(ctx, e.publishTimeout)
		defer cancel()
	}

	receipt, err := e.ledger.Publish(pubCtx, fp, classified.Label, classified.Confidence, meta.Identity)
	if err == nil {
		logger.Info("claim registered", "tx_id", receipt.TxID)
		result.Provenance = model.ProvenanceRegistered
		result.LedgerTxID = receipt.TxID
		return
	}

	if errors.Is(err, common.ErrUnconfirmed) {
		// The write may have landed anyway. Resolve with a fresh lookup,
		// never a blind resubmission.
		if claim, consulted := e.lookupClaim(ctx, fp, logger); consulted && claim != nil {
			logger.Info("unconfirmed write resolved by lookup", "submitter", claim.Submitter)
			result.Confidence = claim.Confidence
			result.Provenance = model.ProvenanceRegistered
			result.Claim = claim
			return
		}
	}

	// Rejected, unavailable, or unresolved: the classifier's opinion
	// stands and only the provenance is downgraded.
	logger.Warn("claim registration failed, verdict stands unregistered", "error", err)
}

// record writes the history entry for this request. Logging is best-effort:
// a failure is surfaced in the logs but never changes the already-computed
// result.
func (e *Engine) record(ctx context.Context, result *model.VerificationResult, meta model.SubmitterMetadata, source model.HistorySource, logger *slog.Logger) {
	written, err := e.history.RecordIfAbsent(ctx, model.HistoryEntry{
		Fingerprint: result.Fingerprint,
		Label:       result.Label,
		Confidence:  result.Confidence,
		Source:      source,
		Submitter:   meta.Identity,
	})
	if err != nil {
		common.LogError(err, "history write failed, result unaffected", common.Fields{
			"fingerprint": result.Fingerprint.String(),
		})
		return
	}
	if !written {
		logger.Debug("history entry already present")
	}
}
