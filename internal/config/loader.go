package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"mirror/internal/constants"
)

func LoadConfig(configFile string) (*Config, error) {
	viper.Reset()

	viper.SetConfigType("yaml")
	viper.SetConfigFile(configFile)

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := ValidateStatic(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.read_timeout_seconds", 10*time.Second)
	viper.SetDefault("server.write_timeout_seconds", 10*time.Second)

	viper.SetDefault("broker.type", "kafka")
	viper.SetDefault("broker.kafka.notification_topic", constants.DefaultNotificationTopic)
	viper.SetDefault("broker.kafka.accessibility_topic", constants.DefaultAccessibilityTopic)
	viper.SetDefault("broker.kafka.output_topic", constants.DefaultOutputTopic)
	viper.SetDefault("broker.kafka.settings_topic", constants.DefaultSettingsTopic)
	viper.SetDefault("broker.kafka.retry.multiplier", 2.0)

	viper.SetDefault("capture.packages", []string{constants.PackageWhatsApp, constants.PackageWhatsAppBusiness})
	viper.SetDefault("capture.event_types", []string{
		constants.EventWindowStateChanged,
		constants.EventWindowContentChanged,
		constants.EventViewScrolled,
	})
	viper.SetDefault("capture.notification_timeout", constants.DefaultNotificationBudget)
	viper.SetDefault("capture.sender_max_depth", constants.DefaultSenderMaxDepth)
	viper.SetDefault("capture.timestamp_max_depth", constants.DefaultTimestampMaxDepth)
	viper.SetDefault("capture.classifier.type", constants.ClassifierHeuristic)

	viper.SetDefault("deduplication.max_entries", constants.DefaultDedupMaxEntries)
	viper.SetDefault("deduplication.hash_algorithm", constants.HashNone)

	viper.SetDefault("boundary.transports", []string{constants.TransportKafka})
	viper.SetDefault("boundary.send_buffer", 64)

	viper.SetDefault("permissions.package_name", constants.DefaultHostPackage)
	viper.SetDefault("permissions.accessibility_service_class", constants.DefaultAccessibilityServiceClass)
	viper.SetDefault("permissions.notification_listener_class", constants.DefaultNotificationListenerClass)

	viper.SetDefault("logging.level", "info")
}

func bindEnvVariables() {
	viper.BindEnv("broker.kafka.brokers", "BROKER_KAFKA_BROKERS")
	viper.BindEnv("broker.kafka.group_id", "BROKER_KAFKA_GROUP_ID")
	viper.BindEnv("broker.kafka.notification_topic", "BROKER_KAFKA_NOTIFICATION_TOPIC")
	viper.BindEnv("broker.kafka.accessibility_topic", "BROKER_KAFKA_ACCESSIBILITY_TOPIC")
	viper.BindEnv("broker.kafka.output_topic", "BROKER_KAFKA_OUTPUT_TOPIC")
	viper.BindEnv("broker.kafka.settings_topic", "BROKER_KAFKA_SETTINGS_TOPIC")
	viper.BindEnv("broker.kafka.config_update_topic", "BROKER_KAFKA_CONFIG_UPDATE_TOPIC")
	viper.BindEnv("broker.kafka.dlq_topic", "BROKER_KAFKA_DLQ_TOPIC")

	viper.BindEnv("database.redis.host", "DATABASE_REDIS_HOST")
	viper.BindEnv("database.redis.port", "DATABASE_REDIS_PORT")
	viper.BindEnv("database.redis.password", "DATABASE_REDIS_PASSWORD")
	viper.BindEnv("database.redis.db", "DATABASE_REDIS_DB")

	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.read_timeout_seconds", "SERVER_READ_TIMEOUT_SECONDS")
	viper.BindEnv("server.write_timeout_seconds", "SERVER_WRITE_TIMEOUT_SECONDS")

	viper.BindEnv("capture.classifier.type", "CAPTURE_CLASSIFIER_TYPE")
	viper.BindEnv("capture.classifier.expression", "CAPTURE_CLASSIFIER_EXPRESSION")

	viper.BindEnv("logging.level", "LOGGING_LEVEL")
	viper.BindEnv("logging.format", "LOGGING_FORMAT")

	viper.BindEnv("tracing.otlp.endpoint", "TRACING_OTLP_ENDPOINT")
	viper.BindEnv("tracing.otlp.insecure", "TRACING_OTLP_INSECURE")
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.service_name", "TRACING_SERVICE_NAME")

	viper.BindEnv("systemd.notify", "SYSTEMD_NOTIFY")
}

func applyEnvOverrides(cfg *Config) error {
	if brokersEnv := viper.GetString("BROKER_KAFKA_BROKERS"); brokersEnv != "" {
		brokers := splitList(brokersEnv)
		if len(brokers) > 0 {
			cfg.Broker.Kafka.Brokers = brokers
		}
	}

	if transports := viper.GetString("BOUNDARY_TRANSPORTS"); transports != "" {
		cfg.Boundary.Transports = splitList(transports)
	}

	if otlpEndpoint := viper.GetString("TRACING_OTLP_ENDPOINT"); otlpEndpoint != "" {
		cfg.Tracing.OTLP.Endpoint = otlpEndpoint
	}

	return nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
