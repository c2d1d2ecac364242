package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("INVENTORY_URL", "")
	t.Setenv("INVENTORY_HTTP_ADDR", "")
	t.Setenv("NOTIFIER_WORKERS", "")

	cfg := Load()

	assert.Equal(t, ":8081", cfg.HTTPAddr)
	assert.Equal(t, ":8082", cfg.InventoryHTTPAddr)
	assert.Equal(t, 4, cfg.NotifierWorkers)
	assert.Equal(t, "http://inventory:8082", cfg.InventoryURL)
	assert.Equal(t, 5, cfg.LowStockThreshold)
	assert.Equal(t, 3, cfg.RetryAttempts)
	assert.Equal(t, "order-placed", cfg.TopicOrderPlaced)
	assert.Equal(t, "order-cancelled", cfg.TopicOrderCancelled)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", " k1:9092, ,k2:9092 ")
	t.Setenv("INVENTORY_URL", "http://localhost:8082/")
	t.Setenv("INVENTORY_BREAKER_TIMEOUT", "2s")
	t.Setenv("INVENTORY_RETRY_ATTEMPTS", "not-a-number")
	t.Setenv("STORE_DRIVER", "memory")

	cfg := Load()

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "http://localhost:8082", cfg.InventoryURL)
	assert.Equal(t, 2*time.Second, cfg.BreakerOpenTimeout)
	assert.Equal(t, 3, cfg.RetryAttempts)
	assert.Equal(t, "memory", cfg.StoreDriver)
}
