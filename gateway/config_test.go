package gateway_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tailored-agentic-units/procure/core/config"
	"github.com/tailored-agentic-units/procure/gateway"
)

func TestDefaultConfig(t *testing.T) {
	cfg := gateway.DefaultConfig()

	if cfg.Addr != ":8080" {
		t.Errorf("got Addr %q, want :8080", cfg.Addr)
	}
	if cfg.MaxListLimit != 200 {
		t.Errorf("got MaxListLimit %d, want 200", cfg.MaxListLimit)
	}
	if cfg.ERP.Timeout.Std() != 30*time.Second {
		t.Errorf("got ERP timeout %v, want 30s", cfg.ERP.Timeout)
	}
	if len(cfg.Observers) != 1 || cfg.Observers[0] != "slog" {
		t.Errorf("got Observers %v, want [slog]", cfg.Observers)
	}
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.yaml")
	data := "addr: \":9090\"\nmax_list_limit: 25\nerp:\n  url: http://file.local\n  database: filedb\n  timeout: 10s\nrate_limit:\n  requests_per_second: 5\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("ODOO_URL", "")
	t.Setenv("ODOO_DB", "envdb")
	t.Setenv("ODOO_USER", "bot")
	t.Setenv("ODOO_PASSWORD", "secret")

	cfg, err := gateway.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Addr != ":9090" {
		t.Errorf("got Addr %q, want :9090", cfg.Addr)
	}
	if cfg.MaxListLimit != 25 {
		t.Errorf("got MaxListLimit %d, want 25", cfg.MaxListLimit)
	}
	if cfg.ERP.URL != "http://file.local" {
		t.Errorf("got ERP URL %q, want file value", cfg.ERP.URL)
	}
	if cfg.ERP.Database != "envdb" {
		t.Errorf("got ERP database %q, want env override", cfg.ERP.Database)
	}
	if cfg.ERP.Username != "bot" || cfg.ERP.Password != "secret" {
		t.Errorf("got credentials %q/%q, want bot/secret", cfg.ERP.Username, cfg.ERP.Password)
	}
	if cfg.ERP.Timeout.Std() != 10*time.Second {
		t.Errorf("got ERP timeout %v, want 10s", cfg.ERP.Timeout)
	}
	if cfg.RateLimit.RequestsPerSecond != 5 || cfg.RateLimit.Burst != 40 {
		t.Errorf("got rate limit %+v, want 5 rps burst 40", cfg.RateLimit)
	}
}

func TestLoadConfig_NoFile(t *testing.T) {
	cfg, err := gateway.LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Errorf("got Addr %q, want default", cfg.Addr)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := gateway.LoadConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestClientConfig_Merge(t *testing.T) {
	cfg := gateway.DefaultClientConfig()
	cfg.Merge(&gateway.ClientConfig{URL: "http://gw:8080", Timeout: config.Duration(5 * time.Second)})

	if cfg.URL != "http://gw:8080" {
		t.Errorf("got URL %q", cfg.URL)
	}
	if cfg.Timeout.Std() != 5*time.Second {
		t.Errorf("got Timeout %v, want 5s", cfg.Timeout)
	}
	if cfg.DialTimeout.Std() != 5*time.Second {
		t.Errorf("got DialTimeout %v, want 5s default", cfg.DialTimeout)
	}
}
