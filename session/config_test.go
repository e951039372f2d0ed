package session_test

import (
	"errors"
	"testing"
	"time"

	"github.com/tailored-agentic-units/procure/core/config"
	"github.com/tailored-agentic-units/procure/session"
)

func TestDefaultConfig(t *testing.T) {
	cfg := session.DefaultConfig()

	if cfg.Backend != session.BackendMemory {
		t.Errorf("Backend = %q, want %q", cfg.Backend, session.BackendMemory)
	}
	if cfg.TTL.Std() != 30*time.Minute {
		t.Errorf("TTL = %s, want 30m", cfg.TTL)
	}
}

func TestConfig_Merge(t *testing.T) {
	cfg := session.DefaultConfig()
	source := session.Config{
		Backend: session.BackendRedis,
		TTL:     config.Duration(time.Hour),
		Redis:   session.RedisConfig{Addr: "redis:6379", DB: 2},
	}

	cfg.Merge(&source)

	if cfg.Backend != session.BackendRedis {
		t.Errorf("Backend = %q, want %q", cfg.Backend, session.BackendRedis)
	}
	if cfg.TTL.Std() != time.Hour {
		t.Errorf("TTL = %s, want 1h", cfg.TTL)
	}
	if cfg.Redis.Addr != "redis:6379" || cfg.Redis.DB != 2 {
		t.Errorf("Redis = %+v, want merged addr and db", cfg.Redis)
	}
	if cfg.Redis.Prefix != "procure" {
		t.Errorf("Redis.Prefix = %q, want default preserved", cfg.Redis.Prefix)
	}
}

func TestNew_FromConfig(t *testing.T) {
	tests := []struct {
		name    string
		backend string
		wantErr error
	}{
		{name: "memory", backend: session.BackendMemory},
		{name: "empty defaults to memory", backend: ""},
		{name: "redis", backend: session.BackendRedis},
		{name: "file", backend: session.BackendFile},
		{name: "unknown", backend: "etcd", wantErr: session.ErrUnknownBackend},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := session.DefaultConfig()
			cfg.Backend = tt.backend

			store, err := session.New(&cfg)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("New error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			if store == nil {
				t.Fatal("New returned nil store")
			}
		})
	}
}
