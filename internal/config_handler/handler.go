package config_handler

import (
	"context"
	"encoding/json"
	"fmt"

	"mirror/internal/classifier"
	"mirror/internal/logger"
	"mirror/pkg/cel"
	"mirror/pkg/errors"
	"mirror/pkg/models"
)

// Handler applies classifier rule updates to a running scraper. "update"
// compiles metadata.expression into a CEL classifier and swaps it in;
// "reload" restores the classifier built from static configuration.
type Handler struct {
	expectedEventType   string
	expectedServiceType string
	target              *classifier.Switch
	evaluator           *cel.Evaluator
	fallback            classifier.Classifier
	logger              logger.Logger
}

func NewHandler(target *classifier.Switch, evaluator *cel.Evaluator, fallback classifier.Classifier, log logger.Logger) *Handler {
	return &Handler{
		expectedEventType:   models.EventTypeClassifierRuleUpdated,
		expectedServiceType: models.ServiceTypeCapture,
		target:              target,
		evaluator:           evaluator,
		fallback:            fallback,
		logger:              log,
	}
}

// HandleConfigUpdateEvent is a broker.HandlerFunc. Events for other types or
// services are acknowledged and skipped. A malformed event or an expression
// that does not compile is returned as a fatal error so it lands in the DLQ
// instead of being retried.
func (h *Handler) HandleConfigUpdateEvent(ctx context.Context, envelope models.MessageEnvelope) error {
	eventType := routingField(envelope, "event_type")
	if eventType == "" {
		h.logger.WarnwCtx(ctx, "Config event missing event_type", "id", envelope.ID)
		return nil
	}
	if eventType != h.expectedEventType {
		return nil
	}

	serviceType := routingField(envelope, "service_type")
	if serviceType == "" {
		h.logger.WarnwCtx(ctx, "Config event missing service_type", "id", envelope.ID)
		return nil
	}
	if serviceType != h.expectedServiceType {
		return nil
	}

	var event models.ConfigUpdateEvent
	eventJSON, err := json.Marshal(envelope.Payload)
	if err != nil {
		return errors.ErrValidation.WithCause(fmt.Errorf("failed to marshal event payload: %w", err)).AsFatal()
	}
	if err := json.Unmarshal(eventJSON, &event); err != nil {
		return errors.ErrValidation.WithCause(fmt.Errorf("failed to unmarshal config event: %w", err)).AsFatal()
	}

	h.logger.InfowCtx(ctx, "Received config update event",
		"event_type", event.EventType,
		"action", event.Action,
		"rule_id", event.RuleID,
		"changed_by", event.ChangedBy,
	)

	switch event.Action {
	case models.ActionReload:
		if h.fallback == nil {
			return nil
		}
		h.target.Set(h.fallback)
		h.logger.InfowCtx(ctx, "Classifier restored from configuration", "classifier", h.fallback.Name())
		return nil
	case models.ActionUpdate, "":
		return h.applyExpression(ctx, &event)
	default:
		h.logger.WarnwCtx(ctx, "Unknown config event action", "action", event.Action, "id", envelope.ID)
		return nil
	}
}

func (h *Handler) applyExpression(ctx context.Context, event *models.ConfigUpdateEvent) error {
	expr, ok := event.Expression()
	if !ok {
		return errors.ErrValidation.WithDetail("field", "metadata.expression").AsFatal()
	}

	next, err := classifier.NewCEL(h.evaluator, expr)
	if err != nil {
		h.logger.ErrorwCtx(ctx, "Rejected classifier expression", "rule_id", event.RuleID, "error", err)
		return errors.ErrValidation.WithDetail("field", "metadata.expression").WithCause(err).AsFatal()
	}

	h.target.Set(next)
	h.logger.InfowCtx(ctx, "Classifier updated", "rule_id", event.RuleID, "expression", expr)
	return nil
}

// routingField reads the routing key from envelope metadata first, then
// from the payload.
func routingField(envelope models.MessageEnvelope, key string) string {
	if v, ok := envelope.Metadata.Extra[key]; ok && v != "" {
		return v
	}
	if v, ok := envelope.Payload[key].(string); ok {
		return v
	}
	return ""
}
