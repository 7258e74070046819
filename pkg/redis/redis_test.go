package redis

import (
	"context"
	"testing"
	"time"

	"github.com/Alijeyrad/spa_backend/config"
)

func TestFromCentralConfig_FillsDefaults(t *testing.T) {
	got := FromCentralConfig(config.RedisConfig{Addr: "cache:6380", DB: 2, PoolSize: 50})

	if got.Addr != "cache:6380" || got.DB != 2 {
		t.Errorf("addr/db = %q/%d", got.Addr, got.DB)
	}
	if got.PoolSize != 50 {
		t.Errorf("PoolSize = %d, want 50", got.PoolSize)
	}
	def := DefaultConfig()
	if got.MinIdleConns != def.MinIdleConns || got.ReadTimeoutSeconds != def.ReadTimeoutSeconds {
		t.Errorf("defaults not applied: %+v", got)
	}
	if FromCentralConfig(config.RedisConfig{}).Addr != def.Addr {
		t.Error("empty addr should fall back to default")
	}
}

func TestOptions(t *testing.T) {
	opts := Options(Config{Addr: "x:1", PoolSize: 7, DialTimeoutSeconds: 0, ReadTimeoutSeconds: 9})
	if opts.PoolSize != 7 {
		t.Errorf("PoolSize = %d, want 7", opts.PoolSize)
	}
	if opts.DialTimeout != 5*time.Second || opts.ReadTimeout != 9*time.Second || opts.WriteTimeout != 3*time.Second {
		t.Errorf("timeouts = %v/%v/%v", opts.DialTimeout, opts.ReadTimeout, opts.WriteTimeout)
	}
}

func TestNewRedis_EmptyAddr(t *testing.T) {
	if _, err := NewRedis(context.Background(), Config{}); err == nil {
		t.Fatal("expected error for empty addr")
	}
}
