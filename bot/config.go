package bot

import (
	"github.com/tailored-agentic-units/procure/conversation"
	"github.com/tailored-agentic-units/procure/core/config"
	"github.com/tailored-agentic-units/procure/gateway"
	"github.com/tailored-agentic-units/procure/observability"
	"github.com/tailored-agentic-units/procure/session"
)

// Supplier resolution modes.
const (
	// SupplierPlaceholder resolves every supplier name to a fixed partner id.
	SupplierPlaceholder = "placeholder"
	// SupplierERP resolves supplier names through the gateway partner search.
	SupplierERP = "erp"
)

// SupplierConfig selects how typed supplier names become partner ids.
type SupplierConfig struct {
	Mode      string `json:"mode,omitempty" yaml:"mode,omitempty"`
	PartnerID int64  `json:"partner_id,omitempty" yaml:"partner_id,omitempty"`
}

// Config holds initialization parameters for all bot subsystems.
// Each section delegates to that subsystem's config-driven constructor.
type Config struct {
	Addr         string                      `json:"addr,omitempty" yaml:"addr,omitempty"`
	Session      session.Config              `json:"session" yaml:"session"`
	Gateway      gateway.ClientConfig        `json:"gateway" yaml:"gateway"`
	Conversation conversation.Config         `json:"conversation" yaml:"conversation"`
	Supplier     SupplierConfig              `json:"supplier" yaml:"supplier"`
	Tracing      observability.TracingConfig `json:"tracing" yaml:"tracing"`
	Observers    []string                    `json:"observers,omitempty" yaml:"observers,omitempty"`
}

// DefaultConfig returns a Config with defaults for all subsystems.
func DefaultConfig() Config {
	return Config{
		Addr:         ":8081",
		Session:      session.DefaultConfig(),
		Gateway:      gateway.DefaultClientConfig(),
		Conversation: conversation.DefaultConfig(),
		Supplier: SupplierConfig{
			Mode:      SupplierPlaceholder,
			PartnerID: 1,
		},
		Tracing:   observability.TracingConfig{ServiceName: "procure-bot"},
		Observers: []string{"slog"},
	}
}

// Merge applies non-zero values from source into c, delegating to each
// subsystem's Merge method.
func (c *Config) Merge(source *Config) {
	if source.Addr != "" {
		c.Addr = source.Addr
	}
	c.Session.Merge(&source.Session)
	c.Gateway.Merge(&source.Gateway)
	c.Conversation.Merge(&source.Conversation)
	if source.Supplier.Mode != "" {
		c.Supplier.Mode = source.Supplier.Mode
	}
	if source.Supplier.PartnerID > 0 {
		c.Supplier.PartnerID = source.Supplier.PartnerID
	}
	c.Tracing.Merge(&source.Tracing)
	if len(source.Observers) > 0 {
		c.Observers = source.Observers
	}
}

// LoadConfig reads a JSON or YAML config file, merges it with defaults, then
// applies GATEWAY_URL, CREATED_BY, and REDIS_ADDR from the environment.
// Setting REDIS_ADDR selects the Redis session backend. An empty filename
// skips the file.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	if filename != "" {
		var loaded Config
		if err := config.Load(filename, &loaded); err != nil {
			return nil, err
		}
		cfg.Merge(&loaded)
	}

	env := Config{
		Gateway:      gateway.ClientConfig{URL: config.Env("GATEWAY_URL")},
		Conversation: conversation.Config{CreatedBy: config.Env("CREATED_BY")},
	}
	if addr := config.Env("REDIS_ADDR"); addr != "" {
		env.Session.Backend = session.BackendRedis
		env.Session.Redis.Addr = addr
	}
	cfg.Merge(&env)

	return &cfg, nil
}
