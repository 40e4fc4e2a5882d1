package ledger

import (
	"fmt"
	"time"

	"github.com/pixelproof/pixelproof/internal/common"
)

// Config holds authenticity ledger connection and signing configuration.
type Config struct {
	// RPCURL is the JSON-RPC endpoint of the ledger gateway.
	RPCURL string
	// PrivateKeyHex is the hex-encoded Ed25519 signing seed for the
	// submitting identity. Optional for read-only use; Publish fails with
	// ErrUnauthenticated without it.
	PrivateKeyHex string
	// ChainID identifies the network a signed submission is bound to.
	ChainID uint64
	// GasLimit is the fixed computational-unit ceiling for a claim write.
	GasLimit uint64
	// GasBumpPercent inflates the suggested gas price to reduce the chance
	// of a stalled write. A tunable, not a correctness requirement.
	GasBumpPercent int
	// ConfirmPollInterval is how often Publish polls for a receipt.
	ConfirmPollInterval time.Duration
	// RequestTimeout bounds a single RPC round-trip.
	RequestTimeout time.Duration
}

// DefaultConfig returns the default ledger configuration.
func DefaultConfig() Config {
	return Config{
		ChainID:             11155111,
		GasLimit:            300000,
		GasBumpPercent:      20,
		ConfirmPollInterval: 2 * time.Second,
		RequestTimeout:      30 * time.Second,
	}
}

// Validate ensures the read-path configuration is usable.
func (c *Config) Validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("%w: ledger RPC URL is required", common.ErrMissingConfig)
	}
	if c.ChainID == 0 {
		return fmt.Errorf("%w: ledger chain ID is required", common.ErrMissingConfig)
	}
	if c.GasLimit == 0 {
		return fmt.Errorf("%w: ledger gas limit is required", common.ErrMissingConfig)
	}
	if c.GasBumpPercent < 0 {
		return fmt.Errorf("%w: gas bump percent cannot be negative", common.ErrInvalidConfig)
	}
	return nil
}
