// Package forwarder hands accepted records to the boundary channel.
package forwarder

import (
	"context"

	"mirror/internal/boundary"
	"mirror/internal/constants"
	"mirror/internal/logger"
	"mirror/internal/message"
	"mirror/pkg/metrics"
)

type Forwarder struct {
	channel boundary.Channel
	logger  logger.Logger
}

// New accepts a nil channel; Forward is then a no-op.
func New(channel boundary.Channel, log logger.Logger) *Forwarder {
	return &Forwarder{channel: channel, logger: log}
}

// Forward is fire-and-forget: delivery failures are logged and counted and
// never reach the caller.
func (f *Forwarder) Forward(ctx context.Context, record message.Record) {
	if f.channel == nil || !f.channel.Ready() {
		metrics.ForwardedRecordsTotal.WithLabelValues(f.channelName(), "dropped").Inc()
		f.logger.DebugwCtx(ctx, "Boundary channel not ready, dropping record",
			"channel", f.channelName(),
		)
		return
	}

	if err := f.channel.Invoke(ctx, constants.MethodOnWhatsAppMessage, record.Payload()); err != nil {
		metrics.ForwardedRecordsTotal.WithLabelValues(f.channelName(), "error").Inc()
		f.logger.WarnwCtx(ctx, "Failed to forward record",
			"channel", f.channelName(),
			"error", err,
		)
		return
	}

	metrics.ForwardedRecordsTotal.WithLabelValues(f.channelName(), "sent").Inc()
	f.logger.InfowCtx(ctx, "WhatsApp message forwarded",
		"from", record.Sender(),
		"source_app", record.SourceApp().String(),
	)
}

func (f *Forwarder) channelName() string {
	if f.channel == nil {
		return "none"
	}
	return f.channel.Name()
}
