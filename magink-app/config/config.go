package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	apisrv "github.com/magink/magink/server/api"
	"github.com/magink/magink/x/chain"
	"github.com/magink/magink/x/submit"
)

// Config holds the complete application configuration
type Config struct {
	Log     LogConfig     `mapstructure:"log"     yaml:"log"`
	API     apisrv.Config `mapstructure:"api"     yaml:"api"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
	Chain   chain.Config  `mapstructure:"chain"   yaml:"chain"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Submit  submit.Config `mapstructure:"submit"  yaml:"submit"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"  env:"LOG_LEVEL"`
	Pretty bool   `mapstructure:"pretty" yaml:"pretty" env:"LOG_PRETTY"`
}

// MetricsConfig holds metrics configuration. Metrics are served on the API
// listener under Path.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled" env:"METRICS_ENABLED"`
	Path    string `mapstructure:"path"    yaml:"path"    env:"METRICS_PATH"`
}

// StorageConfig holds the nft.storage client configuration
type StorageConfig struct {
	Endpoint string        `mapstructure:"endpoint"  yaml:"endpoint"  env:"STORAGE_ENDPOINT"`
	APIToken string        `mapstructure:"api_token" yaml:"api_token" env:"STORAGE_API_TOKEN"`
	Timeout  time.Duration `mapstructure:"timeout"   yaml:"timeout"   env:"STORAGE_TIMEOUT"`
}

// Load loads configuration from file and environment. A missing file is
// only an error when path was set explicitly.
func Load(configPath string, required bool) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if required || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyEnvAliases(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// applyEnvAliases fills chain and storage settings from the short env names
// used by the deployment scripts.
func applyEnvAliases(cfg *Config) {
	fallback := func(dst *string, key string) {
		if strings.TrimSpace(*dst) != "" {
			return
		}
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	fallback(&cfg.Chain.RPCEndpoint, "MAGINK_RPC_ENDPOINT")
	fallback(&cfg.Chain.ContractAddress, "MAGINK_CONTRACT")
	fallback(&cfg.Chain.PrivateKeyHex, "MAGINK_PRIVATE_KEY_HEX")
	fallback(&cfg.Storage.APIToken, "NFT_STORAGE_TOKEN")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	api := apisrv.DefaultConfig()
	v.SetDefault("api.enabled", api.Enabled)
	v.SetDefault("api.listen_addr", api.ListenAddr)
	v.SetDefault("api.read_header_timeout", api.ReadHeaderTimeout)
	v.SetDefault("api.read_timeout", api.ReadTimeout)
	v.SetDefault("api.write_timeout", api.WriteTimeout)
	v.SetDefault("api.idle_timeout", api.IdleTimeout)
	v.SetDefault("api.max_header_bytes", api.MaxHeaderBytes)
	v.SetDefault("api.cors_origins", []string{})

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	ch := chain.DefaultConfig()
	v.SetDefault("chain.rpc_endpoint", ch.RPCEndpoint)
	v.SetDefault("chain.contract_address", "")
	v.SetDefault("chain.default_caller", "")
	v.SetDefault("chain.chain_id", 0)
	v.SetDefault("chain.confirmations", ch.Confirmations)
	v.SetDefault("chain.use_eip1559", ch.UseEIP1559)
	v.SetDefault("chain.max_fee_per_gas_wei", "0")
	v.SetDefault("chain.max_priority_fee_wei", "0")
	v.SetDefault("chain.gas_limit_buffer_pct", ch.GasLimitBufferPct)
	v.SetDefault("chain.receipt_poll_interval", ch.ReceiptPollInterval)
	v.SetDefault("chain.receipt_timeout", ch.ReceiptTimeout)
	v.SetDefault("chain.private_key_hex", "")

	v.SetDefault("storage.endpoint", "https://api.nft.storage")
	v.SetDefault("storage.api_token", "")
	v.SetDefault("storage.timeout", "60s")

	v.SetDefault("submit.read_failure_policy", string(submit.PolicyClaim))
	v.SetDefault("submit.image_path", "")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.API.Validate(); err != nil {
		return err
	}
	if err := c.validateMetrics(); err != nil {
		return err
	}
	if err := c.validateChain(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	return c.Submit.Validate()
}

func (c *Config) validateMetrics() error {
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with '/', got %q", c.Metrics.Path)
	}
	return nil
}

func (c *Config) validateChain() error {
	if strings.TrimSpace(c.Chain.RPCEndpoint) == "" {
		return fmt.Errorf("chain.rpc_endpoint is required")
	}
	if !common.IsHexAddress(c.Chain.ContractAddress) {
		return fmt.Errorf("chain.contract_address must be a hex address, got %q", c.Chain.ContractAddress)
	}
	if c.Chain.DefaultCaller != "" && !common.IsHexAddress(c.Chain.DefaultCaller) {
		return fmt.Errorf("chain.default_caller must be a hex address, got %q", c.Chain.DefaultCaller)
	}
	if c.Chain.ReceiptPollInterval <= 0 {
		return fmt.Errorf("chain.receipt_poll_interval must be positive")
	}
	return nil
}

func (c *Config) validateStorage() error {
	if c.Storage.Timeout <= 0 {
		return fmt.Errorf("storage.timeout must be positive")
	}
	return nil
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() Config {
	out := *c
	if out.Chain.PrivateKeyHex != "" {
		out.Chain.PrivateKeyHex = "<redacted>"
	}
	if out.Storage.APIToken != "" {
		out.Storage.APIToken = "<redacted>"
	}
	return out
}

// YAML renders the redacted configuration.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c.Redacted())
}
