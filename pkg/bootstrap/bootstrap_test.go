package bootstrap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mirror/internal/config"
	"mirror/internal/logger"
)

func TestInitBroker_ConsumerPerTopic(t *testing.T) {
	cfg := &config.Config{Broker: config.BrokerConfig{Type: "kafka", Kafka: config.KafkaConfig{
		Brokers: []string{"localhost:9092"},
		GroupID: "capture",
	}}}
	base := NewBase(cfg, logger.NopLogger())

	require.NoError(t, base.InitBroker("capture-service", "a", "", "b", "a"))
	assert.NotNil(t, base.Producer)
	assert.Len(t, base.Consumers, 2)

	assert.Empty(t, base.ShutdownBroker())
}

func TestInitBroker_UnknownType(t *testing.T) {
	base := NewBase(&config.Config{Broker: config.BrokerConfig{Type: "nats"}}, logger.NopLogger())
	require.Error(t, base.InitBroker("capture-service", "a"))
}

func TestInitRedis_NotConfigured(t *testing.T) {
	dc := NewDatabaseConnector(&config.Config{}, logger.NopLogger())
	client, err := dc.InitRedis(context.Background())
	require.NoError(t, err)
	assert.Nil(t, client)
	assert.Empty(t, dc.ShutdownDatabases(nil))
}
