package thriftclient

import (
	"fmt"
	"net"
	"time"

	"github.com/kbukum/rawes/resilience"
	"github.com/kbukum/rawes/security"
)

const (
	defaultTimeout        = 30 * time.Second
	defaultConnectTimeout = 10 * time.Second
	defaultMaxIdleConns   = 4
	defaultBufferSize     = 4096
)

// Config configures the Thrift adapter.
type Config struct {
	// Name identifies the adapter in logs and circuit breaker callbacks.
	Name string `yaml:"name" mapstructure:"name"`

	// Address is the service host:port.
	Address string `yaml:"address" mapstructure:"address"`

	// Timeout bounds one call when the context carries no deadline. Defaults to 30s.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// ConnectTimeout bounds dialing a new connection. Defaults to 10s.
	ConnectTimeout time.Duration `yaml:"connect_timeout" mapstructure:"connect_timeout"`

	// Framed selects the framed transport instead of the buffered one.
	Framed bool `yaml:"framed" mapstructure:"framed"`

	// BufferSize is the buffered transport size in bytes. Defaults to 4096.
	BufferSize int `yaml:"buffer_size" mapstructure:"buffer_size"`

	// MaxIdleConns caps the number of pooled idle connections. Defaults to 4.
	MaxIdleConns int `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`

	// TLS enables an SSL socket.
	TLS *security.TLSConfig `yaml:"tls" mapstructure:"tls"`

	// Retry configures retry behavior. Nil disables retry.
	Retry *resilience.RetryConfig `yaml:"retry" mapstructure:"retry"`

	// CircuitBreaker configures circuit breaker behavior. Nil disables it.
	CircuitBreaker *resilience.CircuitBreakerConfig `yaml:"circuit_breaker" mapstructure:"circuit_breaker"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "thrift"
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = defaultConnectTimeout
	}
	if c.BufferSize <= 0 {
		c.BufferSize = defaultBufferSize
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = defaultMaxIdleConns
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("thriftclient: address is required")
	}
	if _, _, err := net.SplitHostPort(c.Address); err != nil {
		return fmt.Errorf("thriftclient: invalid address %q: %w", c.Address, err)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("thriftclient: timeout must be positive")
	}
	if c.TLS != nil {
		if err := c.TLS.Validate(); err != nil {
			return err
		}
	}
	if c.Retry != nil {
		if err := c.Retry.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// DefaultRetryConfig returns a default retry config suitable for Thrift clients.
func DefaultRetryConfig() *resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	cfg.RetryIf = IsRetryable
	return &cfg
}

// DefaultCircuitBreakerConfig returns a default circuit breaker config.
func DefaultCircuitBreakerConfig(name string) *resilience.CircuitBreakerConfig {
	cfg := resilience.DefaultCircuitBreakerConfig(name)
	return &cfg
}
