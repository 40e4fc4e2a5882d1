package ledger

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cloudflare/circl/sign/ed25519"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixelproof/pixelproof/internal/common"
	"github.com/pixelproof/pixelproof/internal/model"
)

// fakeGateway is an in-process ledger gateway speaking the JSON-RPC
// boundary the client expects.
type fakeGateway struct {
	t *testing.T

	claims         map[string]claimRecord
	envelopes      []signedEnvelope
	receiptDelay   int // getReceipt calls answered with null before confirming
	receiptStatus  string
	suggestedPrice uint64
	sequence       uint64
	rejectSubmit   bool

	mu sync.Mutex
}

func newFakeGateway(t *testing.T) *fakeGateway {
	return &fakeGateway{
		t:              t,
		claims:         make(map[string]claimRecord),
		suggestedPrice: 100,
		sequence:       7,
		receiptStatus:  receiptStatusConfirmed,
	}
}

func (g *fakeGateway) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		g.mu.Lock()
		defer g.mu.Unlock()

		var req rpcRequest
		require.NoError(g.t, json.NewDecoder(r.Body).Decode(&req))

		writeResult := func(v any) {
			raw, err := json.Marshal(v)
			require.NoError(g.t, err)
			resp := rpcResponse{JSONRPC: "2.0", ID: req.ID, Result: raw}
			require.NoError(g.t, json.NewEncoder(w).Encode(resp))
		}
		writeError := func(code int, msg string) {
			resp := rpcResponse{JSONRPC: "2.0", ID: req.ID, Error: &rpcError{Code: code, Message: msg}}
			require.NoError(g.t, json.NewEncoder(w).Encode(resp))
		}

		switch req.Method {
		case "attest_getClaim":
			fp := req.Params[0].(string)
			writeResult(g.claims[fp])
		case "attest_gasPrice":
			writeResult(g.suggestedPrice)
		case "attest_sequence":
			writeResult(g.sequence)
		case "attest_submitClaim":
			if g.rejectSubmit {
				writeError(-32010, "claim already exists")
				return
			}
			raw, err := json.Marshal(req.Params[0])
			require.NoError(g.t, err)
			var env signedEnvelope
			require.NoError(g.t, json.Unmarshal(raw, &env))
			g.envelopes = append(g.envelopes, env)
			writeResult("0xtxabc")
		case "attest_getReceipt":
			if g.receiptDelay > 0 {
				g.receiptDelay--
				writeResult(nil)
				return
			}
			writeResult(receiptRecord{TxID: req.Params[0].(string), Status: g.receiptStatus, BlockNumber: 42})
		default:
			writeError(-32601, "method not found")
		}
	})
}

func testConfig(url string, withKey bool) Config {
	cfg := DefaultConfig()
	cfg.RPCURL = url
	cfg.ChainID = 5
	cfg.ConfirmPollInterval = 5 * time.Millisecond
	cfg.RequestTimeout = 2 * time.Second
	if withKey {
		cfg.PrivateKeyHex = strings.Repeat("ab", ed25519.SeedSize)
	}
	return cfg
}

func testFingerprint(seed byte) model.Fingerprint {
	var fp model.Fingerprint
	for i := range fp {
		fp[i] = seed
	}
	return fp
}

func TestLookup_Absent(t *testing.T) {
	gateway := newFakeGateway(t)
	server := httptest.NewServer(gateway.handler())
	defer server.Close()

	client, err := NewClient(testConfig(server.URL, false), nil)
	require.NoError(t, err)

	claim, err := client.Lookup(context.Background(), testFingerprint(1))
	require.NoError(t, err)
	assert.Nil(t, claim)
}

func TestLookup_Present(t *testing.T) {
	gateway := newFakeGateway(t)
	fp := testFingerprint(2)
	gateway.claims[fp.String()] = claimRecord{
		Fingerprint: fp.String(),
		Label:       "real",
		Confidence:  8800,
		Timestamp:   1700000000,
		Submitter:   "0xfeed",
	}
	server := httptest.NewServer(gateway.handler())
	defer server.Close()

	client, err := NewClient(testConfig(server.URL, false), nil)
	require.NoError(t, err)

	claim, err := client.Lookup(context.Background(), fp)
	require.NoError(t, err)
	require.NotNil(t, claim)
	assert.Equal(t, model.LabelReal, claim.Label)
	assert.InDelta(t, 0.88, claim.Confidence, 1e-9)
	assert.Equal(t, "0xfeed", claim.Submitter)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), claim.Timestamp)
}

func TestLookup_UnparseableConfidenceStillPresent(t *testing.T) {
	gateway := newFakeGateway(t)
	fp := testFingerprint(3)
	gateway.claims[fp.String()] = claimRecord{
		Fingerprint: fp.String(),
		Label:       "real",
		Confidence:  20000, // outside the fixed-point scale
		Timestamp:   1700000000,
		Submitter:   "0xfeed",
	}
	server := httptest.NewServer(gateway.handler())
	defer server.Close()

	client, err := NewClient(testConfig(server.URL, false), nil)
	require.NoError(t, err)

	// Presence is more load-bearing than the numeric confidence.
	claim, err := client.Lookup(context.Background(), fp)
	require.NoError(t, err)
	require.NotNil(t, claim)
	assert.Equal(t, model.LabelReal, claim.Label)
	assert.Zero(t, claim.Confidence)
}

func TestLookup_TransportFailureIsRetryable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	cfg := testConfig(server.URL, false)
	server.Close() // connection refused from here on

	client, err := NewClient(cfg, nil)
	require.NoError(t, err)

	_, err = client.Lookup(context.Background(), testFingerprint(4))
	require.ErrorIs(t, err, common.ErrLedgerUnavailable)
	assert.True(t, common.IsRetryable(err))
}

func TestPublish_SignsAndConfirms(t *testing.T) {
	gateway := newFakeGateway(t)
	gateway.receiptDelay = 2
	server := httptest.NewServer(gateway.handler())
	defer server.Close()

	client, err := NewClient(testConfig(server.URL, true), nil)
	require.NoError(t, err)

	fp := testFingerprint(5)
	receipt, err := client.Publish(context.Background(), fp, model.LabelReal, 0.97, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "0xtxabc", receipt.TxID)
	assert.Equal(t, uint64(42), receipt.BlockNumber)

	gateway.mu.Lock()
	defer gateway.mu.Unlock()
	require.Len(t, gateway.envelopes, 1)
	env := gateway.envelopes[0]

	assert.Equal(t, uint64(5), env.Payload.ChainID)
	assert.Equal(t, uint64(7), env.Payload.Sequence)
	assert.Equal(t, uint64(300000), env.Payload.GasLimit)
	assert.Equal(t, uint64(120), env.Payload.GasPrice, "suggested price bumped by 20 percent")
	assert.Equal(t, fp.String(), env.Payload.Fingerprint)
	assert.Equal(t, "real", env.Payload.Label)
	assert.Equal(t, uint16(9700), env.Payload.Confidence)
	assert.Equal(t, "alice@example.com", env.Payload.Submitter)

	// The signature must verify over the canonical payload encoding.
	payloadBytes, err := json.Marshal(env.Payload)
	require.NoError(t, err)
	pub, err := hex.DecodeString(env.PublicKey)
	require.NoError(t, err)
	sig, err := hex.DecodeString(env.Signature)
	require.NoError(t, err)
	assert.True(t, ed25519.Verify(ed25519.PublicKey(pub), payloadBytes, sig))
}

func TestPublish_RejectsFakeLabel(t *testing.T) {
	gateway := newFakeGateway(t)
	server := httptest.NewServer(gateway.handler())
	defer server.Close()

	client, err := NewClient(testConfig(server.URL, true), nil)
	require.NoError(t, err)

	_, err = client.Publish(context.Background(), testFingerprint(6), model.LabelFake, 0.9, "")
	require.Error(t, err)

	gateway.mu.Lock()
	defer gateway.mu.Unlock()
	assert.Empty(t, gateway.envelopes)
}

func TestPublish_WithoutKeyIsUnauthenticated(t *testing.T) {
	gateway := newFakeGateway(t)
	server := httptest.NewServer(gateway.handler())
	defer server.Close()

	client, err := NewClient(testConfig(server.URL, false), nil)
	require.NoError(t, err)

	_, err = client.Publish(context.Background(), testFingerprint(7), model.LabelReal, 0.9, "")
	require.ErrorIs(t, err, common.ErrUnauthenticated)
}

func TestPublish_SubmitRejected(t *testing.T) {
	gateway := newFakeGateway(t)
	gateway.rejectSubmit = true
	server := httptest.NewServer(gateway.handler())
	defer server.Close()

	client, err := NewClient(testConfig(server.URL, true), nil)
	require.NoError(t, err)

	_, err = client.Publish(context.Background(), testFingerprint(8), model.LabelReal, 0.9, "")
	require.ErrorIs(t, err, common.ErrLedgerRejected)
}

func TestPublish_FailedReceiptIsRejected(t *testing.T) {
	gateway := newFakeGateway(t)
	gateway.receiptStatus = receiptStatusFailed
	server := httptest.NewServer(gateway.handler())
	defer server.Close()

	client, err := NewClient(testConfig(server.URL, true), nil)
	require.NoError(t, err)

	_, err = client.Publish(context.Background(), testFingerprint(9), model.LabelReal, 0.9, "")
	require.ErrorIs(t, err, common.ErrLedgerRejected)
}

func TestPublish_ConfirmationTimeoutIsUnconfirmed(t *testing.T) {
	gateway := newFakeGateway(t)
	gateway.receiptDelay = 1 << 30 // never confirms
	server := httptest.NewServer(gateway.handler())
	defer server.Close()

	client, err := NewClient(testConfig(server.URL, true), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = client.Publish(ctx, testFingerprint(10), model.LabelReal, 0.9, "")
	require.ErrorIs(t, err, common.ErrUnconfirmed)
	// An unconfirmed write is resolved by lookup, never by resubmission.
	assert.False(t, common.IsRetryable(err))
}

func TestNewClient_InvalidKey(t *testing.T) {
	cfg := testConfig("http://localhost:0", false)
	cfg.PrivateKeyHex = "not-hex"

	_, err := NewClient(cfg, nil)
	require.ErrorIs(t, err, common.ErrUnauthenticated)
}

func TestNewClient_Address(t *testing.T) {
	client, err := NewClient(testConfig("http://localhost:0", true), nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(client.Address(), "0x"))
	assert.Len(t, client.Address(), 42)
}
