package models

import "time"

type ConfigUpdateEvent struct {
	EventType   string                 `json:"event_type"`   // "classifier_rule_updated"
	ServiceType string                 `json:"service_type"` // "capture"
	RuleID      string                 `json:"rule_id,omitempty"`
	Action      string                 `json:"action"` // "update", "reload"
	Timestamp   time.Time              `json:"timestamp"`
	ChangedBy   string                 `json:"changed_by,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

const (
	EventTypeClassifierRuleUpdated = "classifier_rule_updated"
)

const (
	ActionUpdate = "update"
	ActionReload = "reload"
)

const (
	ServiceTypeCapture = "capture"
)

// Expression returns metadata.expression when it is a non-empty string.
func (e *ConfigUpdateEvent) Expression() (string, bool) {
	if e.Metadata == nil {
		return "", false
	}
	expr, ok := e.Metadata["expression"].(string)
	if !ok || expr == "" {
		return "", false
	}
	return expr, true
}
