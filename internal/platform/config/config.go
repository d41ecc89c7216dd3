package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process level configuration.
type Server struct {
	OpsAddr               string
	DatabaseURL           string
	Redis                 RedisConfig
	Kafka                 KafkaConfig
	SubmissionConfigPath  string
	TxTimeout             time.Duration
	PostCommitConcurrency int
	LogLevel              string
	LogFormat             string
}

// RedisConfig configures the optional Redis lock backend. An empty URL
// disables it.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the optional audit sink. No brokers disables it.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	return Server{
		OpsAddr:     getenv("INTAKE_OPS_ADDR", ":8081"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers:    splitList(os.Getenv("KAFKA_BROKERS")),
			AuditTopic: getenv("AUDIT_TOPIC", "intake.audit"),
		},
		SubmissionConfigPath:  os.Getenv("SUBMISSION_CONFIG_PATH"),
		TxTimeout:             getDuration("TX_TIMEOUT", 5*time.Second),
		PostCommitConcurrency: getInt("POST_COMMIT_CONCURRENCY", 4),
		LogLevel:              getenv("LOG_LEVEL", "info"),
		LogFormat:             getenv("LOG_FORMAT", "json"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func getInt(key string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
