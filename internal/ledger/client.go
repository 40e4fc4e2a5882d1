// Package ledger provides a typed client for the authenticity ledger's
// JSON-RPC boundary: free reads by fingerprint and signed, gas-capped,
// confirmation-polled claim writes.
package ledger

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cloudflare/circl/sign/ed25519"

	"github.com/pixelproof/pixelproof/internal/common"
	"github.com/pixelproof/pixelproof/internal/model"
)

// Client talks to the authenticity ledger. It owns the signing credential
// and serializes the write path per identity so concurrent submissions
// never race for the same sequence number.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	cfg        Config
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey
	address    string
	reqID      atomic.Int64

	// writeMu guards sequence assignment and submission only. Waiting for
	// confirmation happens outside the lock.
	writeMu sync.Mutex
}

// NewClient creates a ledger client. A missing private key leaves the
// client read-only; an invalid one is a configuration error.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		logger:     logger,
		cfg:        cfg,
	}

	if cfg.PrivateKeyHex != "" {
		seed, err := hex.DecodeString(cfg.PrivateKeyHex)
		if err != nil || len(seed) != ed25519.SeedSize {
			return nil, fmt.Errorf("%w: private key must be %d hex-encoded bytes", common.ErrUnauthenticated, ed25519.SeedSize)
		}
		c.privateKey = ed25519.NewKeyFromSeed(seed)
		c.publicKey = c.privateKey.Public().(ed25519.PublicKey)
		c.address = deriveAddress(c.publicKey)
	}

	return c, nil
}

// Address returns the submitting identity's ledger address, or "" for a
// read-only client.
func (c *Client) Address() string {
	return c.address
}

// deriveAddress maps a public key to its ledger address: the first 20 bytes
// of SHA-256 over the key, hex encoded with an 0x prefix.
func deriveAddress(pub ed25519.PublicKey) string {
	sum := sha256.Sum256(pub)
	return "0x" + hex.EncodeToString(sum[:20])
}

// Lookup fetches the claim for a fingerprint. Returns nil when the ledger
// holds no claim. Free of cost, idempotent, and safe to retry.
func (c *Client) Lookup(ctx context.Context, fp model.Fingerprint) (*model.AuthenticityClaim, error) {
	var rec claimRecord
	if err := c.call(ctx, "attest_getClaim", []any{fp.String()}, &rec); err != nil {
		return nil, err
	}

	// The zero tuple denotes "absent".
	if rec.Label == "" && rec.Confidence == 0 && rec.Timestamp == 0 {
		return nil, nil
	}

	claim := &model.AuthenticityClaim{
		Fingerprint: fp,
		Label:       model.Label(rec.Label),
		Timestamp:   time.Unix(int64(rec.Timestamp), 0).UTC(),
		Submitter:   rec.Submitter,
	}

	conf, err := model.DecodeConfidence(rec.Confidence)
	if err != nil {
		// Presence is more load-bearing than the numeric confidence: a
		// claim with an unparseable confidence is still a claim.
		c.logger.Warn("claim has unparseable confidence, treating as unknown",
			"fingerprint", fp.String(),
			"raw_confidence", rec.Confidence)
		conf = 0
	}
	claim.Confidence = conf

	return claim, nil
}

// Publish submits a signed authenticity claim and blocks until the ledger
// durably confirms it or ctx expires. Only "real" claims may be written;
// anything else is a programming error, not a runtime condition.
//
// Publish is not idempotent at the transport level. A caller that sees
// ErrUnconfirmed must resolve the outcome with a fresh Lookup, never by
// resubmitting.
func (c *Client) Publish(ctx context.Context, fp model.Fingerprint, label model.Label, confidence float64, submitter string) (*model.ConfirmationReceipt, error) {
	if label != model.LabelReal {
		return nil, fmt.Errorf("refusing to publish %q claim: the ledger records only real attestations", label)
	}
	if c.privateKey == nil {
		return nil, fmt.Errorf("%w: no signing key configured", common.ErrUnauthenticated)
	}

	txID, err := c.submit(ctx, fp, confidence, submitter)
	if err != nil {
		return nil, err
	}

	c.logger.Info("claim submitted, awaiting confirmation",
		"fingerprint", fp.String(),
		"tx_id", txID)

	return c.awaitConfirmation(ctx, txID)
}

// submit assigns a sequence number and sends the signed envelope. Holding
// writeMu across both steps keeps concurrent writes from the same identity
// from colliding on a sequence number.
func (c *Client) submit(ctx context.Context, fp model.Fingerprint, confidence float64, submitter string) (string, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	var gasPrice uint64
	if err := c.call(ctx, "attest_gasPrice", []any{}, &gasPrice); err != nil {
		return "", err
	}
	// Bump the suggested price to reduce the chance of a stalled write.
	gasPrice += gasPrice * uint64(c.cfg.GasBumpPercent) / 100

	// "pending" includes in-flight submissions from this identity.
	var sequence uint64
	if err := c.call(ctx, "attest_sequence", []any{c.address, "pending"}, &sequence); err != nil {
		return "", err
	}

	payload := claimPayload{
		ChainID:     c.cfg.ChainID,
		Sequence:    sequence,
		GasLimit:    c.cfg.GasLimit,
		GasPrice:    gasPrice,
		Fingerprint: fp.String(),
		Label:       string(model.LabelReal),
		Confidence:  model.EncodeConfidence(confidence),
		Submitter:   submitter,
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode claim payload: %w", err)
	}

	envelope := signedEnvelope{
		Payload:   payload,
		PublicKey: hex.EncodeToString(c.publicKey),
		Signature: hex.EncodeToString(ed25519.Sign(c.privateKey, raw)),
	}

	var txID string
	if err := c.call(ctx, "attest_submitClaim", []any{envelope}, &txID); err != nil {
		return "", err
	}

	return txID, nil
}

// awaitConfirmation polls for the transaction receipt until the write is
// durably accepted or ctx expires.
func (c *Client) awaitConfirmation(ctx context.Context, txID string) (*model.ConfirmationReceipt, error) {
	ticker := time.NewTicker(c.cfg.ConfirmPollInterval)
	defer ticker.Stop()

	for {
		var rec *receiptRecord
		err := c.call(ctx, "attest_getReceipt", []any{txID}, &rec)
		if err == nil && rec != nil {
			if rec.Status != receiptStatusConfirmed {
				return nil, fmt.Errorf("%w: transaction %s finished with status %q", common.ErrLedgerRejected, txID, rec.Status)
			}
			return &model.ConfirmationReceipt{TxID: txID, BlockNumber: rec.BlockNumber}, nil
		}
		if err != nil {
			c.logger.Warn("receipt poll failed", "tx_id", txID, "error", err)
		}

		select {
		case <-ctx.Done():
			// The write may still land. The caller resolves this with a
			// fresh Lookup, never a blind resubmit.
			return nil, fmt.Errorf("%w: transaction %s submitted but not confirmed: %v", common.ErrUnconfirmed, txID, ctx.Err())
		case <-ticker.C:
		}
	}
}

// call performs one JSON-RPC round trip against the gateway. The response
// schema is fixed and versioned; unrecognized shapes are rejected rather
// than sniffed.
func (c *Client) call(ctx context.Context, method string, params []any, result any) error {
	reqBody, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.reqID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.RPCURL, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &common.RetryableError{
			Err:       fmt.Errorf("%w: %s: %v", common.ErrLedgerUnavailable, method, err),
			Retryable: true,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusInternalServerError {
		return &common.RetryableError{
			Err:       fmt.Errorf("%w: %s returned HTTP %d", common.ErrLedgerUnavailable, method, resp.StatusCode),
			Retryable: true,
		}
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: %s returned HTTP %d: %s", common.ErrLedgerRejected, method, resp.StatusCode, string(body))
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", method, err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("%w: %s: %s (code %d)", common.ErrLedgerRejected, method, rpcResp.Error.Message, rpcResp.Error.Code)
	}

	if result == nil || len(rpcResp.Result) == 0 || string(rpcResp.Result) == "null" {
		// Pointer targets keep their zero value; a null receipt means "not
		// yet confirmed".
		return nil
	}
	if err := json.Unmarshal(rpcResp.Result, result); err != nil {
		return fmt.Errorf("unexpected %s response shape: %w", method, err)
	}
	return nil
}
