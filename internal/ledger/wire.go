package ledger

import "encoding/json"

// JSON-RPC 2.0 framing.

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      int64  `json:"id"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
	ID      int64           `json:"id"`
}

type rpcError struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// claimRecord is the ledger's fixed read schema: the 5-tuple returned by
// attest_getClaim. An empty label with zero fields denotes "absent".
type claimRecord struct {
	Fingerprint string `json:"fingerprint"`
	Label       string `json:"label"`
	Submitter   string `json:"submitter"`
	Confidence  uint16 `json:"confidence"`
	Timestamp   uint64 `json:"timestamp"`
}

// claimPayload is the signed body of a claim submission. Field order is the
// canonical signing order; the gateway verifies the signature over exactly
// this encoding.
type claimPayload struct {
	ChainID     uint64 `json:"chainId"`
	Sequence    uint64 `json:"sequence"`
	GasLimit    uint64 `json:"gasLimit"`
	GasPrice    uint64 `json:"gasPrice"`
	Fingerprint string `json:"fingerprint"`
	Label       string `json:"label"`
	Confidence  uint16 `json:"confidence"`
	Submitter   string `json:"submitter"`
}

// signedEnvelope wraps a payload with its Ed25519 signature.
type signedEnvelope struct {
	Payload   claimPayload `json:"payload"`
	PublicKey string       `json:"publicKey"`
	Signature string       `json:"signature"`
}

// receiptRecord is returned by attest_getReceipt once a submission has been
// processed; null until then.
type receiptRecord struct {
	TxID        string `json:"txId"`
	Status      string `json:"status"`
	BlockNumber uint64 `json:"blockNumber"`
}

const (
	receiptStatusConfirmed = "confirmed"
	receiptStatusFailed    = "failed"
)
