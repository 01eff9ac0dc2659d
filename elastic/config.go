package elastic

import (
	"strings"
	"time"

	"github.com/kbukum/rawes/resilience"
	"github.com/kbukum/rawes/security"
	"github.com/kbukum/rawes/validation"
)

const defaultTimeout = 30 * time.Second

// TLSConfig is an alias for security.TLSConfig.
type TLSConfig = security.TLSConfig

// Config configures a Client.
type Config struct {
	// URL is the service address, e.g. "localhost:9200" or "thrift://host:9500".
	URL string `yaml:"url" mapstructure:"url" validate:"required"`

	// Path is a base prefix prepended to every request path.
	Path string `yaml:"path" mapstructure:"path"`

	// Timeout bounds one call when the context carries no deadline. Defaults to 30s.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`

	// Username and Password enable HTTP basic auth.
	Username string `yaml:"username" mapstructure:"username"`
	Password string `yaml:"password" mapstructure:"password" validate:"required_with=Username"`

	// APIKey sends "Authorization: ApiKey <key>" over HTTP.
	APIKey string `yaml:"api_key" mapstructure:"api_key"`

	// Headers are sent on every HTTP request.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`

	// TLS configures HTTPS and the Thrift SSL socket. https URLs enable it
	// implicitly.
	TLS *TLSConfig `yaml:"tls" mapstructure:"tls"`

	// Framed selects the framed Thrift transport instead of the buffered one.
	Framed bool `yaml:"framed" mapstructure:"framed"`

	// EnableHTTP2 negotiates HTTP/2 over TLS.
	EnableHTTP2 bool `yaml:"enable_http2" mapstructure:"enable_http2"`

	// MaxIdleConns caps pooled idle connections per host.
	MaxIdleConns int `yaml:"max_idle_conns" mapstructure:"max_idle_conns" validate:"gte=0"`

	// Retry enables transport-level retries. Nil, the default, sends every
	// call exactly once.
	Retry *resilience.RetryConfig `yaml:"retry" mapstructure:"retry"`

	// CircuitBreaker enables a circuit breaker around the transport. Nil disables it.
	CircuitBreaker *resilience.CircuitBreakerConfig `yaml:"circuit_breaker" mapstructure:"circuit_breaker"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
	c.Path = strings.Trim(c.Path, "/")
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}

	v := validation.New()
	_, err := ParseEndpoint(c.URL)
	v.Check("url", err)
	v.Custom(c.APIKey == "" || c.Username == "", "api_key", "cannot be combined with username")
	v.Check("tls", c.TLS.Validate())
	if c.Retry != nil {
		v.Check("retry", c.Retry.Validate())
	}
	return v.Validate()
}
