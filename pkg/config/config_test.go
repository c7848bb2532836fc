package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Cache.ItemTTL != 10*time.Minute {
		t.Errorf("ItemTTL = %v, want 10m", cfg.Cache.ItemTTL)
	}
	if cfg.Cache.ListTTL != 15*time.Minute {
		t.Errorf("ListTTL = %v, want 15m", cfg.Cache.ListTTL)
	}
	if cfg.Database.Driver != StoragePostgres {
		t.Errorf("Driver = %q, want %q", cfg.Database.Driver, StoragePostgres)
	}
	if cfg.Kafka.EventsTopic != "catalog-events" {
		t.Errorf("EventsTopic = %q", cfg.Kafka.EventsTopic)
	}
	if len(cfg.Websocket.AllowedOrigins) != 0 {
		t.Errorf("AllowedOrigins = %v, want none", cfg.Websocket.AllowedOrigins)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "MEMORY")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,,")
	t.Setenv("CACHE_ITEM_TTL", "12m")
	t.Setenv("RATE_LIMIT_REQUESTS", "7")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("WS_ALLOWED_ORIGINS", "https://shop.example, https://admin.example")

	cfg := Load()

	if cfg.Database.Driver != StorageMemory {
		t.Errorf("Driver = %q, want %q", cfg.Database.Driver, StorageMemory)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Errorf("Brokers = %v", cfg.Kafka.Brokers)
	}
	if cfg.Cache.ItemTTL != 12*time.Minute {
		t.Errorf("ItemTTL = %v", cfg.Cache.ItemTTL)
	}
	if cfg.RateLimit.Requests != 7 {
		t.Errorf("Requests = %d", cfg.RateLimit.Requests)
	}
	if cfg.Service.IsDevelopment() {
		t.Error("production environment reported as development")
	}
	if len(cfg.Websocket.AllowedOrigins) != 2 || cfg.Websocket.AllowedOrigins[1] != "https://admin.example" {
		t.Errorf("AllowedOrigins = %v", cfg.Websocket.AllowedOrigins)
	}
}
