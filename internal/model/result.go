package model

// Provenance is the basis for a verification result.
type Provenance string

// Provenance constants.
const (
	// ProvenanceLedger means an existing ledger claim answered the request.
	ProvenanceLedger Provenance = "ledger"
	// ProvenanceRegistered means the classifier answered and a new claim was
	// durably confirmed on the ledger.
	ProvenanceRegistered Provenance = "registered"
	// ProvenanceClassifierOnly means the classifier answered but no ledger
	// claim backs the verdict (fake verdicts, or a failed registration).
	ProvenanceClassifierOnly Provenance = "classifier-only"
)

// SubmitterMetadata is opaque caller context threaded through to the
// history log and, for newly registered claims, the ledger submitter field.
type SubmitterMetadata struct {
	Identity string
}

// VerificationResult is the outcome of one verification request.
type VerificationResult struct {
	Label       Label
	Provenance  Provenance
	LedgerTxID  string
	Claim       *AuthenticityClaim
	Fingerprint Fingerprint
	Confidence  float64

	// LedgerConsulted is false when the ledger read path was unavailable
	// and the decision degraded to the classifier alone.
	LedgerConsulted bool
}
