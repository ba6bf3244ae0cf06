package broker

import (
	"context"

	"mirror/pkg/models"
)

type Producer interface {
	Publish(ctx context.Context, topic string, msg models.MessageEnvelope) error
	Close() error
}

type Consumer interface {
	Consume(ctx context.Context, topic string, handler HandlerFunc) error
	Close() error
	SetServiceName(name string)
}

// HandlerFunc errors are retried unless fatal; exhausted or fatal messages
// go to the DLQ when one is configured.
type HandlerFunc func(ctx context.Context, msg models.MessageEnvelope) error
