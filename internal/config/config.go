package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	// Search cluster delivery.
	ESEndpoint     string
	AWSRegion      string
	ESSignRequests bool
	ESTimeout      time.Duration
	ESOmitType     bool

	ApplicationLogsIndex string
	APILogsIndex         string
	FailOnDeliveryError  bool

	// Broker consumption (service mode only).
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaGroupID     string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parsePositiveDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	esTimeout, err := parsePositiveDuration("ES_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	signRequests, err := parseBool("ES_SIGN_REQUESTS", true)
	if err != nil {
		return nil, err
	}
	omitType, err := parseBool("ES_OMIT_TYPE", false)
	if err != nil {
		return nil, err
	}
	failOnDelivery, err := parseBool("FAIL_ON_DELIVERY_ERROR", true)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ESEndpoint:     normalizeEndpoint(os.Getenv("ES_ENDPOINT")),
		AWSRegion:      envOrDefault("AWS_REGION", "us-east-1"),
		ESSignRequests: signRequests,
		ESTimeout:      esTimeout,
		ESOmitType:     omitType,

		ApplicationLogsIndex: envOrDefault("APPLICATION_LOGS_INDEX", "applicationlogs"),
		APILogsIndex:         envOrDefault("API_LOGS_INDEX", "apilogs"),
		FailOnDeliveryError:  failOnDelivery,

		KafkaBrokers:     parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic: envOrDefault("KAFKA_SOURCE_TOPIC", "cloudwatch-logs"),
		KafkaGroupID:     envOrDefault("KAFKA_GROUP_ID", "cloudlogs-streamer"),

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}

	return cfg, nil
}

// RequireDelivery reports whether the settings are complete enough to post
// bulk bodies. The email handler does not need them.
func (c *Config) RequireDelivery() error {
	if c.ESEndpoint == "" {
		return errors.New("ES_ENDPOINT is required")
	}
	if c.ESSignRequests && c.AWSRegion == "" {
		return errors.New("AWS_REGION is required when ES_SIGN_REQUESTS is true")
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parsePositiveDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive duration", key)
	}
	return d, nil
}

func parseBool(key string, fallback bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s: must be true or false", key)
	}
	return b, nil
}

// normalizeEndpoint accepts a bare domain endpoint and defaults it to https.
func normalizeEndpoint(value string) string {
	value = strings.TrimRight(strings.TrimSpace(value), "/")
	if value == "" {
		return ""
	}
	if !strings.Contains(value, "://") {
		value = "https://" + value
	}
	return value
}

func parseBrokers(value string) []string {
	parts := strings.Split(value, ",")
	brokers := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			brokers = append(brokers, trimmed)
		}
	}
	return brokers
}
