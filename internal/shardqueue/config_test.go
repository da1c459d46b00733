package shardqueue

import (
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.Shards != 1 || cfg.QueueSize != 64 || cfg.MaxAttempts != 1 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("SQ_SHARDS", "2")
	t.Setenv("SQ_QUEUE_SIZE", "32")
	t.Setenv("SQ_ENQUEUE_TIMEOUT", "250ms")
	t.Setenv("SQ_MAX_ATTEMPTS", "3")
	t.Setenv("SQ_BASE_BACKOFF", "200ms")
	t.Setenv("SQ_MAX_INTERVAL", "2s")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.Shards != 2 || cfg.QueueSize != 32 || cfg.MaxAttempts != 3 {
		t.Fatalf("unexpected values: %+v", cfg)
	}
	if cfg.EnqueueTimeout != 250*time.Millisecond || cfg.BaseBackoff != 200*time.Millisecond || cfg.MaxInterval != 2*time.Second {
		t.Fatalf("unexpected durations: %+v", cfg)
	}
}
