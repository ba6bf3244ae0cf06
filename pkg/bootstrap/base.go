package bootstrap

import (
	"context"
	"fmt"

	"mirror/internal/broker"
	"mirror/internal/config"
	"mirror/internal/logger"
)

// Base holds the broker plumbing shared by the service: one producer and a
// consumer per subscribed topic.
type Base struct {
	Config    *config.Config
	Logger    logger.Logger
	Producer  broker.Producer
	Consumers map[string]broker.Consumer
}

func NewBase(cfg *config.Config, log logger.Logger) *Base {
	return &Base{
		Config:    cfg,
		Logger:    log,
		Consumers: make(map[string]broker.Consumer),
	}
}

// InitBroker creates the producer and one consumer per non-empty topic.
func (b *Base) InitBroker(serviceName string, topics ...string) error {
	producer, err := broker.NewProducer(b.Config.Broker, b.Logger)
	if err != nil {
		return fmt.Errorf("failed to create producer: %w", err)
	}
	b.Producer = producer

	for _, topic := range topics {
		if topic == "" {
			continue
		}
		if _, ok := b.Consumers[topic]; ok {
			continue
		}
		consumer, err := broker.NewConsumer(b.Config.Broker, b.Logger)
		if err != nil {
			b.ShutdownBroker()
			return fmt.Errorf("failed to create consumer for %s: %w", topic, err)
		}
		if serviceName != "" {
			consumer.SetServiceName(serviceName)
		}
		b.Consumers[topic] = consumer
	}

	return nil
}

func (b *Base) ShutdownBroker() []error {
	var errs []error

	for topic, consumer := range b.Consumers {
		if err := consumer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("consumer %s close error: %w", topic, err))
		}
	}

	if b.Producer != nil {
		if err := b.Producer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("producer close error: %w", err))
		}
	}

	return errs
}

func (b *Base) Shutdown(ctx context.Context, additionalShutdown func(ctx context.Context) []error) error {
	b.Logger.Info("Shutting down application...")

	var errs []error

	if additionalShutdown != nil {
		errs = append(errs, additionalShutdown(ctx)...)
	}

	errs = append(errs, b.ShutdownBroker()...)

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	b.Logger.Info("Application exited successfully")
	return nil
}
