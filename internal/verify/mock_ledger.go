package verify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pixelproof/pixelproof/internal/model"
)

// MockLedger is a test implementation of the Ledger interface backed by an
// in-memory claim map.
type MockLedger struct {
	claims map[model.Fingerprint]*model.AuthenticityClaim

	// PublishErr, when set, fails every Publish call.
	PublishErr error

	failLookups int
	hideLookups int
	lookupErr   error

	lookupCalls  []model.Fingerprint
	publishCalls []MockPublishCall
	mu           sync.Mutex
}

// MockPublishCall records one publish request.
type MockPublishCall struct {
	Fingerprint model.Fingerprint
	Label       model.Label
	Submitter   string
	Confidence  float64
}

// NewMockLedger creates an empty mock ledger.
func NewMockLedger() *MockLedger {
	return &MockLedger{
		claims: make(map[model.Fingerprint]*model.AuthenticityClaim),
	}
}

// Seed stores a claim directly, bypassing the publish path.
func (m *MockLedger) Seed(claim *model.AuthenticityClaim) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.claims[claim.Fingerprint] = claim
}

// Lookup returns the seeded or published claim, if any.
func (m *MockLedger) Lookup(_ context.Context, fp model.Fingerprint) (*model.AuthenticityClaim, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lookupCalls = append(m.lookupCalls, fp)

	if m.failLookups > 0 {
		m.failLookups--
		return nil, m.lookupErr
	}
	if m.hideLookups > 0 {
		m.hideLookups--
		return nil, nil
	}

	return m.claims[fp], nil
}

// HideClaimForLookups makes the next n Lookup calls report "absent" even
// when a claim exists, to simulate a write that lands mid-request.
func (m *MockLedger) HideClaimForLookups(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hideLookups = n
}

// FailLookups makes the next n Lookup calls fail with err.
func (m *MockLedger) FailLookups(n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failLookups = n
	m.lookupErr = err
}

// Publish records the call and stores a claim, enforcing the ledger's
// one-claim-per-fingerprint invariant.
func (m *MockLedger) Publish(_ context.Context, fp model.Fingerprint, label model.Label, confidence float64, submitter string) (*model.ConfirmationReceipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.publishCalls = append(m.publishCalls, MockPublishCall{
		Fingerprint: fp,
		Label:       label,
		Confidence:  confidence,
		Submitter:   submitter,
	})

	if m.PublishErr != nil {
		return nil, m.PublishErr
	}
	if _, exists := m.claims[fp]; exists {
		return nil, fmt.Errorf("claim already exists for %s", fp)
	}

	m.claims[fp] = &model.AuthenticityClaim{
		Fingerprint: fp,
		Label:       label,
		Confidence:  confidence,
		Timestamp:   time.Now().UTC(),
		Submitter:   submitter,
	}

	return &model.ConfirmationReceipt{TxID: fmt.Sprintf("0xtx-%d", len(m.publishCalls)), BlockNumber: uint64(len(m.publishCalls))}, nil
}

// LookupCalls returns the fingerprints looked up so far.
func (m *MockLedger) LookupCalls() []model.Fingerprint {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Fingerprint(nil), m.lookupCalls...)
}

// PublishCalls returns the publish requests recorded so far.
func (m *MockLedger) PublishCalls() []MockPublishCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockPublishCall(nil), m.publishCalls...)
}
