package config

import (
	"time"
)

type Config struct {
	Server         ServerConfig         `mapstructure:"server"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Broker         BrokerConfig         `mapstructure:"broker"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	Capture        CaptureConfig        `mapstructure:"capture"`
	Deduplication  DeduplicationConfig  `mapstructure:"deduplication"`
	Boundary       BoundaryConfig       `mapstructure:"boundary"`
	Permissions    PermissionsConfig    `mapstructure:"permissions"`
	Management     ManagementConfig     `mapstructure:"management"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	Tracing        TracingConfig        `mapstructure:"tracing"`
	Systemd        SystemdConfig        `mapstructure:"systemd"`
}

type ServerConfig struct {
	Port                int           `mapstructure:"port"`
	ReadTimeoutSeconds  time.Duration `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds time.Duration `mapstructure:"write_timeout_seconds"`
}

type DatabaseConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type BrokerConfig struct {
	Type  string      `mapstructure:"type"`
	Kafka KafkaConfig `mapstructure:"kafka"`
}

type KafkaConfig struct {
	Brokers            []string    `mapstructure:"brokers"`
	GroupID            string      `mapstructure:"group_id"`
	NotificationTopic  string      `mapstructure:"notification_topic"`
	AccessibilityTopic string      `mapstructure:"accessibility_topic"`
	OutputTopic        string      `mapstructure:"output_topic"`
	SettingsTopic      string      `mapstructure:"settings_topic"`
	ConfigUpdateTopic  string      `mapstructure:"config_update_topic"`
	DLQTopic           string      `mapstructure:"dlq_topic"`
	Retry              RetryConfig `mapstructure:"retry"`
}

type RetryConfig struct {
	MaxAttempts     int           `mapstructure:"max_attempts"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	Multiplier      float64       `mapstructure:"multiplier"`
	MaxElapsedTime  time.Duration `mapstructure:"max_elapsed_time"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CaptureConfig drives both capture pipelines. Zero values fall back to the
// defaults in internal/constants.
type CaptureConfig struct {
	Packages            []string         `mapstructure:"packages"`
	EventTypes          []string         `mapstructure:"event_types"`
	NotificationTimeout time.Duration    `mapstructure:"notification_timeout"`
	SenderMaxDepth      int              `mapstructure:"sender_max_depth"`
	TimestampMaxDepth   int              `mapstructure:"timestamp_max_depth"`
	Classifier          ClassifierConfig `mapstructure:"classifier"`
}

type ClassifierConfig struct {
	Type                string   `mapstructure:"type"` // "heuristic" (default) or "cel"
	Expression          string   `mapstructure:"expression"`
	MessageClassMarkers []string `mapstructure:"message_class_markers"`
	BubbleClassMarker   string   `mapstructure:"bubble_class_marker"`
	MinBubbleTextLength int      `mapstructure:"min_bubble_text_length"`
}

type DeduplicationConfig struct {
	MaxEntries    int    `mapstructure:"max_entries"`
	HashAlgorithm string `mapstructure:"hash_algorithm"`
}

type BoundaryConfig struct {
	Transports     []string `mapstructure:"transports"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	SendBuffer     int      `mapstructure:"send_buffer"`
}

type PermissionsConfig struct {
	PackageName               string `mapstructure:"package_name"`
	AccessibilityServiceClass string `mapstructure:"accessibility_service_class"`
	NotificationListenerClass string `mapstructure:"notification_listener_class"`
}

type ManagementConfig struct {
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type RateLimitConfig struct {
	Enabled         bool    `mapstructure:"enabled"`
	RPS             float64 `mapstructure:"rps"`
	Burst           int     `mapstructure:"burst"`
	CleanupInterval int     `mapstructure:"cleanup_interval"`
	MaxAge          int     `mapstructure:"max_age"`
}

type CircuitBreakerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	MaxRequests  uint32        `mapstructure:"max_requests"`
	Interval     time.Duration `mapstructure:"interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	FailureRatio float64       `mapstructure:"failure_ratio"`
	MinRequests  uint32        `mapstructure:"min_requests"`
}

type TracingConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	ServiceName string        `mapstructure:"service_name"`
	OTLP        OTLPConfig    `mapstructure:"otlp"`
	Sampler     SamplerConfig `mapstructure:"sampler"`
}

type OTLPConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Insecure bool   `mapstructure:"insecure"`
}

type SamplerConfig struct {
	Type  string  `mapstructure:"type"`
	Param float64 `mapstructure:"param"`
}

type SystemdConfig struct {
	Notify bool `mapstructure:"notify"`
}

func Load(configFile string) (*Config, error) {
	return LoadConfig(configFile)
}
