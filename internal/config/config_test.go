package config

import (
	"testing"
	"time"
)

func TestLoad_AppliesDefaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("POSTGRES_DSN", "")

	cfg, err := Load("testdata/does-not-exist.env")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.App.Addr() != "0.0.0.0:8080" {
		t.Fatalf("addr = %q", cfg.App.Addr())
	}
	if cfg.App.RequestTimeout() != 30*time.Second {
		t.Fatalf("request timeout = %v", cfg.App.RequestTimeout())
	}
	if cfg.Broadcast.Driver != BroadcastDriverLocal {
		t.Fatalf("broadcast driver = %q", cfg.Broadcast.Driver)
	}
	if cfg.Broadcast.DeliveryTimeout() != 2*time.Second {
		t.Fatalf("delivery timeout = %v", cfg.Broadcast.DeliveryTimeout())
	}
	if cfg.Kafka.Enabled() {
		t.Fatal("kafka mirror must be disabled without brokers")
	}
	if cfg.Matching.SuggestConcurrency != 8 {
		t.Fatalf("suggest concurrency = %d", cfg.Matching.SuggestConcurrency)
	}
}

func TestLoad_ParsesOverrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "Pebble")
	t.Setenv("PEBBLE_DIR", "/tmp/matches")
	t.Setenv("BROADCAST_DRIVER", "redis")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("APP_PORT", "9090")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Driver != StorageDriverPebble || cfg.Storage.PebbleDir != "/tmp/matches" {
		t.Fatalf("storage = %+v", cfg.Storage)
	}
	if cfg.Broadcast.Driver != BroadcastDriverRedis {
		t.Fatalf("broadcast driver = %q", cfg.Broadcast.Driver)
	}
	if !cfg.Kafka.Enabled() || len(cfg.Kafka.Brokers) != 2 {
		t.Fatalf("kafka = %+v", cfg.Kafka)
	}
	if cfg.App.Addr() != "0.0.0.0:9090" {
		t.Fatalf("addr = %q", cfg.App.Addr())
	}
}

func TestLoad_RejectsPostgresWithoutDSN(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("POSTGRES_DSN", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for postgres driver without DSN")
	}
}

func TestLoad_RejectsUnknownDrivers(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "mongo")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown storage driver")
	}

	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("BROADCAST_DRIVER", "carrier-pigeon")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown broadcast driver")
	}
}
