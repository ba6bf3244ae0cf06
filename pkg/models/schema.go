package models

import "fmt"

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// ValidateMessageEnvelope checks an envelope the service is about to
// publish. Inbound OS feed envelopes are looser and are checked by their
// decoders instead.
func ValidateMessageEnvelope(msg *MessageEnvelope) error {
	if msg == nil {
		return &ValidationError{Field: "envelope", Message: "message envelope cannot be nil"}
	}

	if msg.ID == "" {
		return &ValidationError{Field: "id", Message: "message ID is required"}
	}

	if msg.Source == "" {
		return &ValidationError{Field: "source", Message: "message source is required"}
	}

	if msg.Timestamp.IsZero() {
		return &ValidationError{Field: "timestamp", Message: "message timestamp is required"}
	}

	if msg.Payload == nil {
		return &ValidationError{Field: "payload", Message: "message payload cannot be nil"}
	}

	if msg.Metadata.Capture != nil && msg.Metadata.Capture.Pipeline == "" {
		return &ValidationError{Field: "metadata.capture.pipeline", Message: "capture info must name its pipeline"}
	}

	return nil
}

// PayloadString reads a string payload field. ok is false when the field is
// absent; a present non-string value is an error.
func (msg *MessageEnvelope) PayloadString(name string) (value string, ok bool, err error) {
	raw, present := msg.Payload[name]
	if !present || raw == nil {
		return "", false, nil
	}
	s, isString := raw.(string)
	if !isString {
		return "", true, fmt.Errorf("payload field %s: expected string, got %T", name, raw)
	}
	return s, true, nil
}
