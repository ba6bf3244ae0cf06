package config

import (
	"fmt"
	"strings"

	"mirror/internal/constants"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

func ValidateStatic(cfg *Config) error {
	var errors []error

	if err := validateServer(cfg.Server); err != nil {
		errors = append(errors, err)
	}

	if err := validateBroker(cfg.Broker); err != nil {
		errors = append(errors, err)
	}

	if err := validateRedis(cfg.Database.Redis); err != nil {
		errors = append(errors, err)
	}

	if err := validateCapture(cfg.Capture); err != nil {
		errors = append(errors, err)
	}

	if err := validateDeduplication(cfg.Deduplication); err != nil {
		errors = append(errors, err)
	}

	if err := validateBoundary(cfg.Boundary); err != nil {
		errors = append(errors, err)
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errors)
	}

	return nil
}

func validateServer(cfg ServerConfig) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return &ValidationError{
			Field:   "server.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Port),
		}
	}

	if cfg.ReadTimeoutSeconds <= 0 {
		return &ValidationError{
			Field:   "server.read_timeout_seconds",
			Message: "read timeout must be positive",
		}
	}

	if cfg.WriteTimeoutSeconds <= 0 {
		return &ValidationError{
			Field:   "server.write_timeout_seconds",
			Message: "write timeout must be positive",
		}
	}

	return nil
}

func validateBroker(cfg BrokerConfig) error {
	switch cfg.Type {
	case "":
		return &ValidationError{
			Field:   "broker.type",
			Message: "broker type is required",
		}
	case "kafka":
		return validateKafka(cfg.Kafka)
	default:
		return &ValidationError{
			Field:   "broker.type",
			Message: fmt.Sprintf("unknown broker type: %s (supported: kafka)", cfg.Type),
		}
	}
}

func validateKafka(cfg KafkaConfig) error {
	if len(cfg.Brokers) == 0 {
		return &ValidationError{
			Field:   "broker.kafka.brokers",
			Message: "at least one Kafka broker is required",
		}
	}

	for i, broker := range cfg.Brokers {
		if broker == "" {
			return &ValidationError{
				Field:   fmt.Sprintf("broker.kafka.brokers[%d]", i),
				Message: "broker address cannot be empty",
			}
		}
	}

	if cfg.GroupID == "" {
		return &ValidationError{
			Field:   "broker.kafka.group_id",
			Message: "Kafka consumer group ID is required",
		}
	}

	if cfg.NotificationTopic == "" && cfg.AccessibilityTopic == "" {
		return &ValidationError{
			Field:   "broker.kafka.notification_topic",
			Message: "at least one capture topic (notification_topic, accessibility_topic) is required",
		}
	}

	if cfg.Retry.MaxAttempts < 0 {
		return &ValidationError{
			Field:   "broker.kafka.retry.max_attempts",
			Message: "max_attempts must be non-negative",
		}
	}

	if cfg.Retry.MaxInterval > 0 && cfg.Retry.InitialInterval > 0 && cfg.Retry.MaxInterval < cfg.Retry.InitialInterval {
		return &ValidationError{
			Field:   "broker.kafka.retry.max_interval",
			Message: "max_interval must be greater than or equal to initial_interval",
		}
	}

	if cfg.Retry.Multiplier <= 0 {
		return &ValidationError{
			Field:   "broker.kafka.retry.multiplier",
			Message: "multiplier must be positive",
		}
	}

	return nil
}

func validateRedis(cfg RedisConfig) error {
	if cfg.Host == "" && cfg.Port == 0 {
		return nil // Redis is optional, permission queries report false without it
	}

	if cfg.Host == "" {
		return &ValidationError{
			Field:   "database.redis.host",
			Message: "Redis host is required",
		}
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return &ValidationError{
			Field:   "database.redis.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Port),
		}
	}

	return nil
}

func validateCapture(cfg CaptureConfig) error {
	if len(cfg.Packages) == 0 {
		return &ValidationError{
			Field:   "capture.packages",
			Message: "at least one observed package is required",
		}
	}

	if cfg.SenderMaxDepth < 0 || cfg.TimestampMaxDepth < 0 {
		return &ValidationError{
			Field:   "capture.sender_max_depth",
			Message: "walk depths must be non-negative",
		}
	}

	if cfg.NotificationTimeout < 0 {
		return &ValidationError{
			Field:   "capture.notification_timeout",
			Message: "notification timeout must be non-negative",
		}
	}

	switch strings.ToLower(cfg.Classifier.Type) {
	case "", constants.ClassifierHeuristic:
	case constants.ClassifierCEL:
		if strings.TrimSpace(cfg.Classifier.Expression) == "" {
			return &ValidationError{
				Field:   "capture.classifier.expression",
				Message: "expression is required for the cel classifier",
			}
		}
	default:
		return &ValidationError{
			Field:   "capture.classifier.type",
			Message: fmt.Sprintf("invalid classifier type: %s (valid: heuristic, cel)", cfg.Classifier.Type),
		}
	}

	return nil
}

func validateDeduplication(cfg DeduplicationConfig) error {
	if cfg.MaxEntries < 0 {
		return &ValidationError{
			Field:   "deduplication.max_entries",
			Message: "max_entries must be non-negative",
		}
	}

	validAlgorithms := map[string]bool{
		constants.HashNone: true, constants.HashMD5: true, constants.HashSHA256: true,
	}
	if cfg.HashAlgorithm != "" && !validAlgorithms[strings.ToLower(cfg.HashAlgorithm)] {
		return &ValidationError{
			Field:   "deduplication.hash_algorithm",
			Message: fmt.Sprintf("invalid hash algorithm: %s (valid: none, md5, sha256)", cfg.HashAlgorithm),
		}
	}

	return nil
}

func validateBoundary(cfg BoundaryConfig) error {
	for i, t := range cfg.Transports {
		switch strings.ToLower(t) {
		case constants.TransportKafka, constants.TransportWebSocket:
		default:
			return &ValidationError{
				Field:   fmt.Sprintf("boundary.transports[%d]", i),
				Message: fmt.Sprintf("unknown transport: %s (valid: kafka, websocket)", t),
			}
		}
	}
	return nil
}
