package capture

import (
	"context"

	"mirror/internal/broker"
	"mirror/internal/notification"
	"mirror/internal/scraper"
	"mirror/pkg/logging"
	"mirror/pkg/models"
)

// NotificationHandler adapts the notification pipeline to a broker feed.
// Only envelopes that cannot be decoded are reported back, as fatal errors.
func (c *Controller) NotificationHandler() broker.HandlerFunc {
	return func(ctx context.Context, env models.MessageEnvelope) error {
		n, err := notification.Decode(&env)
		if err != nil {
			return err
		}
		ctx = logging.WithPackage(ctx, n.PackageName)
		c.HandleNotification(ctx, n)
		return nil
	}
}

// AccessibilityHandler adapts the scraper pipeline to a broker feed.
func (c *Controller) AccessibilityHandler() broker.HandlerFunc {
	return func(ctx context.Context, env models.MessageEnvelope) error {
		ev, err := scraper.DecodeEvent(&env)
		if err != nil {
			return err
		}
		ctx = logging.WithPackage(ctx, ev.PackageName)
		c.HandleAccessibilityEvent(ctx, ev)
		return nil
	}
}
