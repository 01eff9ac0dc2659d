package cli

import (
	"fmt"

	"github.com/kbukum/rawes/config"
	"github.com/kbukum/rawes/elastic"
	"github.com/kbukum/rawes/observability"
	"github.com/kbukum/rawes/version"
)

const (
	serviceName = "rawes"
	envPrefix   = "RAWES"
	defaultURL  = "localhost:9200"
)

// Config is the rawes configuration file. Client settings sit at the top
// level, so RAWES_URL sets url.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Elastic elastic.Config             `yaml:",inline" mapstructure:",squash"`
	Tracing observability.TracerConfig `yaml:"tracing" mapstructure:"tracing"`
	Metrics observability.MeterConfig  `yaml:"metrics" mapstructure:"metrics"`
}

// ApplyDefaults fills unset fields. A CLI stays quiet unless asked, so
// the environment defaults to production and logging to warn.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	if c.Environment == "" {
		c.Environment = "production"
	}
	if c.Version == "" {
		c.Version = version.GetShortVersion()
	}
	if c.Logging.Level == "" && !c.Debug {
		c.Logging.Level = "warn"
	}
	if c.Elastic.URL == "" {
		c.Elastic.URL = defaultURL
	}
	c.ServiceConfig.ApplyDefaults()
	c.Elastic.ApplyDefaults()

	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = c.Name
	}
	if c.Tracing.ServiceVersion == "" {
		c.Tracing.ServiceVersion = c.Version
	}
	if c.Tracing.Environment == "" {
		c.Tracing.Environment = c.Environment
	}
	if c.Metrics.ServiceName == "" {
		c.Metrics.ServiceName = c.Name
	}
	if c.Metrics.ServiceVersion == "" {
		c.Metrics.ServiceVersion = c.Version
	}
	if c.Metrics.Environment == "" {
		c.Metrics.Environment = c.Environment
	}
}

// Validate checks the service and client sections.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Elastic.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		return fmt.Errorf("config.tracing.endpoint is required when tracing is enabled")
	}
	if c.Metrics.Enabled && c.Metrics.Endpoint == "" {
		return fmt.Errorf("config.metrics.endpoint is required when metrics are enabled")
	}
	return nil
}
