package gateway

import (
	"time"

	"github.com/tailored-agentic-units/procure/core/config"
	"github.com/tailored-agentic-units/procure/erp"
	"github.com/tailored-agentic-units/procure/observability"
)

const (
	defaultAddr         = ":8080"
	defaultMaxListLimit = 200
	defaultDialTimeout  = 5 * time.Second
	defaultCallTimeout  = 60 * time.Second
)

// RateLimitConfig configures the request token bucket. A zero rate disables
// limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64 `json:"requests_per_second,omitempty" yaml:"requests_per_second,omitempty"`
	Burst             int     `json:"burst,omitempty" yaml:"burst,omitempty"`
}

// Config holds initialization parameters for the gateway server.
type Config struct {
	Addr         string                      `json:"addr,omitempty" yaml:"addr,omitempty"`
	ERP          erp.Config                  `json:"erp" yaml:"erp"`
	MaxListLimit int                         `json:"max_list_limit,omitempty" yaml:"max_list_limit,omitempty"`
	RateLimit    RateLimitConfig             `json:"rate_limit" yaml:"rate_limit"`
	Tracing      observability.TracingConfig `json:"tracing" yaml:"tracing"`
	Observers    []string                    `json:"observers,omitempty" yaml:"observers,omitempty"`
}

// DefaultConfig returns a Config listening on :8080 with a 20 rps limit.
func DefaultConfig() Config {
	return Config{
		Addr:         defaultAddr,
		ERP:          erp.DefaultConfig(),
		MaxListLimit: defaultMaxListLimit,
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 20,
			Burst:             40,
		},
		Tracing:   observability.TracingConfig{ServiceName: "procure-gateway"},
		Observers: []string{"slog"},
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Addr != "" {
		c.Addr = source.Addr
	}
	c.ERP.Merge(&source.ERP)
	if source.MaxListLimit > 0 {
		c.MaxListLimit = source.MaxListLimit
	}
	if source.RateLimit.RequestsPerSecond > 0 {
		c.RateLimit.RequestsPerSecond = source.RateLimit.RequestsPerSecond
	}
	if source.RateLimit.Burst > 0 {
		c.RateLimit.Burst = source.RateLimit.Burst
	}
	c.Tracing.Merge(&source.Tracing)
	if len(source.Observers) > 0 {
		c.Observers = source.Observers
	}
}

// LoadConfig merges the file at filename (JSON or YAML) over the defaults,
// then applies the ODOO_* environment variables. An empty filename skips the
// file.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	if filename != "" {
		var loaded Config
		if err := config.Load(filename, &loaded); err != nil {
			return nil, err
		}
		cfg.Merge(&loaded)
	}

	cfg.Merge(&Config{ERP: erp.Config{
		URL:      config.Env("ODOO_URL"),
		Database: config.Env("ODOO_DB"),
		Username: config.Env("ODOO_USER"),
		Password: config.Env("ODOO_PASSWORD"),
	}})
	return &cfg, nil
}

// ClientConfig configures a gateway Client.
type ClientConfig struct {
	URL         string          `json:"url,omitempty" yaml:"url,omitempty"`
	DialTimeout config.Duration `json:"dial_timeout,omitempty" yaml:"dial_timeout,omitempty"`
	Timeout     config.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// DefaultClientConfig returns a client for a local gateway with a 5 second
// connect timeout and a 60 second request timeout.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		URL:         "http://localhost:8080",
		DialTimeout: config.Duration(defaultDialTimeout),
		Timeout:     config.Duration(defaultCallTimeout),
	}
}

// Merge applies non-zero values from source into c.
func (c *ClientConfig) Merge(source *ClientConfig) {
	if source.URL != "" {
		c.URL = source.URL
	}
	if source.DialTimeout > 0 {
		c.DialTimeout = source.DialTimeout
	}
	if source.Timeout > 0 {
		c.Timeout = source.Timeout
	}
}
