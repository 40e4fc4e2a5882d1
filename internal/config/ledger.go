package config

import (
	"os"
	"strconv"
	"time"

	"github.com/spf13/viper"

	"github.com/pixelproof/pixelproof/internal/ledger"
)

// LoadLedgerConfig loads ledger configuration from Viper and environment
// variables. Precedence:
// 1. Viper configuration (from config file or PIXELPROOF_ env vars)
// 2. Direct environment variables (LEDGER_*)
// 3. Default values
func LoadLedgerConfig() ledger.Config {
	cfg := ledger.DefaultConfig()

	if v := viper.GetString("ledger.rpc_url"); v != "" {
		cfg.RPCURL = v
	}
	if v := viper.GetString("ledger.private_key"); v != "" {
		cfg.PrivateKeyHex = v
	}
	if v := viper.GetUint64("ledger.chain_id"); v != 0 {
		cfg.ChainID = v
	}
	if v := viper.GetUint64("ledger.gas_limit"); v != 0 {
		cfg.GasLimit = v
	}
	if viper.IsSet("ledger.gas_bump_percent") {
		cfg.GasBumpPercent = viper.GetInt("ledger.gas_bump_percent")
	}
	if v := viper.GetDuration("ledger.confirm_poll_interval"); v > 0 {
		cfg.ConfirmPollInterval = v
	}
	if v := viper.GetDuration("ledger.request_timeout"); v > 0 {
		cfg.RequestTimeout = v
	}

	// Environment fallbacks mirror the conventional deployment variables.
	if cfg.RPCURL == "" {
		cfg.RPCURL = os.Getenv("LEDGER_RPC_URL")
	}
	if cfg.PrivateKeyHex == "" {
		cfg.PrivateKeyHex = os.Getenv("LEDGER_PRIVATE_KEY")
	}
	if v := os.Getenv("LEDGER_CHAIN_ID"); v != "" {
		if id, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.ChainID = id
		}
	}

	return cfg
}

// PublishTimeout returns the caller-side ceiling for a publish including
// confirmation, distinct from the transport's own timers.
func PublishTimeout() time.Duration {
	if v := viper.GetDuration("ledger.publish_timeout"); v > 0 {
		return v
	}
	return 90 * time.Second
}
