package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder(t *testing.T) {
	env := NewMessageEnvelopeBuilder().
		WithID("id-1").
		WithSource("com.whatsapp").
		WithPayload(map[string]interface{}{"body": "hi"}).
		WithTraceID("trace").
		WithCapture(&CaptureInfo{Pipeline: "notification", SourceApp: "primary"}).
		Build()

	assert.False(t, env.Timestamp.IsZero())
	assert.Equal(t, "trace", env.Metadata.TraceID)
	assert.Equal(t, "notification", env.Metadata.Capture.Pipeline)
	require.NoError(t, ValidateMessageEnvelope(env))
}

func TestValidateMessageEnvelope(t *testing.T) {
	assert.Error(t, ValidateMessageEnvelope(nil))

	env := &MessageEnvelope{Source: "s", Timestamp: time.Now(), Payload: map[string]interface{}{}}
	err := ValidateMessageEnvelope(env)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'id'")

	env.ID = "x"
	env.Payload = nil
	err = ValidateMessageEnvelope(env)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'payload'")

	env.Payload = map[string]interface{}{}
	env.Metadata.Capture = &CaptureInfo{}
	err = ValidateMessageEnvelope(env)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "metadata.capture.pipeline")
}

func TestPayloadString(t *testing.T) {
	env := &MessageEnvelope{Payload: map[string]interface{}{"a": "x", "b": 3, "c": nil}}

	v, ok, err := env.PayloadString("a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "x", v)

	_, ok, err = env.PayloadString("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = env.PayloadString("c")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = env.PayloadString("b")
	assert.Error(t, err)
	assert.True(t, ok)
}

func TestConfigUpdateEventExpression(t *testing.T) {
	e := &ConfigUpdateEvent{}
	_, ok := e.Expression()
	assert.False(t, ok)

	e.Metadata = map[string]interface{}{"expression": 5}
	_, ok = e.Expression()
	assert.False(t, ok)

	e.Metadata["expression"] = `text_length > 3`
	expr, ok := e.Expression()
	assert.True(t, ok)
	assert.Equal(t, "text_length > 3", expr)
}
