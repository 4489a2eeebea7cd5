package api

import (
	"errors"
	"time"
)

// Config defines runtime parameters for the HTTP API server.
type Config struct {
	Enabled           bool          `mapstructure:"enabled" yaml:"enabled"`
	ListenAddr        string        `mapstructure:"listen_addr" yaml:"listen_addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	// WriteTimeout must outlast a submission, which waits for the receipt.
	WriteTimeout   time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
	MaxHeaderBytes int           `mapstructure:"max_header_bytes" yaml:"max_header_bytes"`
	CORSOrigins    []string      `mapstructure:"cors_origins" yaml:"cors_origins"`
}

func DefaultConfig() Config {
	return Config{
		Enabled:           true,
		ListenAddr:        ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      3 * time.Minute,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}
}

func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.ListenAddr == "" {
		return errors.New("api.listen_addr is required")
	}
	if c.WriteTimeout <= 0 {
		return errors.New("api.write_timeout must be positive")
	}
	return nil
}
