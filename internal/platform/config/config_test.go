package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("INTAKE_OPS_ADDR", "")
	t.Setenv("TX_TIMEOUT", "")
	t.Setenv("POST_COMMIT_CONCURRENCY", "")
	t.Setenv("KAFKA_BROKERS", "")

	cfg := FromEnv()

	assert.Equal(t, ":8081", cfg.OpsAddr)
	assert.Equal(t, 5*time.Second, cfg.TxTimeout)
	assert.Equal(t, 4, cfg.PostCommitConcurrency)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, "intake.audit", cfg.Kafka.AuditTopic)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("INTAKE_OPS_ADDR", ":9090")
	t.Setenv("TX_TIMEOUT", "750ms")
	t.Setenv("POST_COMMIT_CONCURRENCY", "8")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,,")

	cfg := FromEnv()

	assert.Equal(t, ":9090", cfg.OpsAddr)
	assert.Equal(t, 750*time.Millisecond, cfg.TxTimeout)
	assert.Equal(t, 8, cfg.PostCommitConcurrency)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
}

func TestFromEnv_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("TX_TIMEOUT", "soon")
	t.Setenv("POST_COMMIT_CONCURRENCY", "-1")

	cfg := FromEnv()

	assert.Equal(t, 5*time.Second, cfg.TxTimeout)
	assert.Equal(t, 4, cfg.PostCommitConcurrency)
}
