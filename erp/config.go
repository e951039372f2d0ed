package erp

import (
	"time"

	"github.com/tailored-agentic-units/procure/core/config"
)

// Config holds Odoo connection settings.
type Config struct {
	URL      string          `json:"url,omitempty" yaml:"url,omitempty"`
	Database string          `json:"database,omitempty" yaml:"database,omitempty"`
	Username string          `json:"username,omitempty" yaml:"username,omitempty"`
	Password string          `json:"password,omitempty" yaml:"password,omitempty"`
	Timeout  config.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// DefaultConfig returns a configuration with a 30 second call timeout and no
// connection details.
func DefaultConfig() Config {
	return Config{
		Timeout: config.Duration(30 * time.Second),
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.URL != "" {
		c.URL = source.URL
	}
	if source.Database != "" {
		c.Database = source.Database
	}
	if source.Username != "" {
		c.Username = source.Username
	}
	if source.Password != "" {
		c.Password = source.Password
	}
	if source.Timeout > 0 {
		c.Timeout = source.Timeout
	}
}
