package permissions

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"mirror/internal/broker"
	"mirror/internal/constants"
	"mirror/pkg/models"
)

// IntentPublisher asks the on-device agent to open a settings screen.
type IntentPublisher interface {
	PublishIntent(ctx context.Context, action string) error
}

type BrokerIntentPublisher struct {
	producer    broker.Producer
	topic       string
	packageName string
}

func NewBrokerIntentPublisher(producer broker.Producer, topic, packageName string) *BrokerIntentPublisher {
	return &BrokerIntentPublisher{producer: producer, topic: topic, packageName: packageName}
}

func (p *BrokerIntentPublisher) PublishIntent(ctx context.Context, action string) error {
	env := models.NewMessageEnvelopeBuilder().
		WithID(uuid.NewString()).
		WithSource(constants.ServiceName).
		WithPayload(map[string]interface{}{
			"action":       action,
			"package_name": p.packageName,
		}).
		Build()

	if err := models.ValidateMessageEnvelope(env); err != nil {
		return fmt.Errorf("invalid settings intent: %w", err)
	}
	if err := p.producer.Publish(ctx, p.topic, *env); err != nil {
		return fmt.Errorf("failed to publish settings intent %s: %w", action, err)
	}
	return nil
}
