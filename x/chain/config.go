package chain

import "time"

// Config holds the settings used to reach the chain and sign transactions.
type Config struct {
	// RPC endpoint of the node. WS is required for event subscriptions.
	RPCEndpoint string `mapstructure:"rpc_endpoint" yaml:"rpc_endpoint"`

	// Magink contract address (hex).
	ContractAddress string `mapstructure:"contract_address" yaml:"contract_address"`

	// DefaultCaller is the origin used for read-only calls made with the
	// default-caller option. Zero address when empty.
	DefaultCaller string `mapstructure:"default_caller" yaml:"default_caller"`

	// Chain configuration. A zero ChainID is resolved from the node.
	ChainID       uint64 `mapstructure:"chain_id"      yaml:"chain_id"`
	Confirmations uint64 `mapstructure:"confirmations" yaml:"confirmations"`

	// Gas/fees configuration (EIP-1559)
	UseEIP1559        bool   `mapstructure:"use_eip1559"          yaml:"use_eip1559"`
	MaxFeePerGasWei   string `mapstructure:"max_fee_per_gas_wei"  yaml:"max_fee_per_gas_wei"`  // optional cap
	MaxPriorityFeeWei string `mapstructure:"max_priority_fee_wei" yaml:"max_priority_fee_wei"` // optional tip cap
	GasLimitBufferPct uint64 `mapstructure:"gas_limit_buffer_pct" yaml:"gas_limit_buffer_pct"` // add buffer to estimates

	// Receipt polling
	ReceiptPollInterval time.Duration `mapstructure:"receipt_poll_interval" yaml:"receipt_poll_interval"`
	ReceiptTimeout      time.Duration `mapstructure:"receipt_timeout"       yaml:"receipt_timeout"`

	// Signing configuration. Without a key the client is read-only.
	PrivateKeyHex string `mapstructure:"private_key_hex" yaml:"private_key_hex" env:"CHAIN_PRIVATE_KEY_HEX"` //nolint:lll // ok
}

func DefaultConfig() Config {
	return Config{
		RPCEndpoint:         "ws://localhost:8546",
		Confirmations:       1,
		UseEIP1559:          true,
		GasLimitBufferPct:   15,
		ReceiptPollInterval: 2 * time.Second,
		ReceiptTimeout:      5 * time.Minute,
	}
}
