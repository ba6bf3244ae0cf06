package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"mirror/internal/config"
	"mirror/internal/constants"
)

func TestKafkaHeaderPropagation(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(context.Background())
	otel.SetTextMapPropagator(propagation.TraceContext{})

	ctx, span := tp.Tracer("test").Start(context.Background(), "produce")
	defer span.End()

	headers := InjectTraceContext(ctx, nil)
	require.NotEmpty(t, headers)
	assert.Equal(t, "traceparent", headers[0].Key)

	extracted := ExtractTraceContext(context.Background(), headers)
	assert.Equal(t, TraceIDFromContext(ctx), TraceIDFromContext(extracted))
	assert.NotEmpty(t, TraceIDFromContext(ctx))
}

func TestCarrierOverwritesExistingKey(t *testing.T) {
	c := &kafkaHeaderCarrier{headers: []kafka.Header{{Key: "a", Value: []byte("1")}}}
	c.Set("a", "2")
	c.Set("b", "3")

	assert.Equal(t, "2", c.Get("a"))
	assert.Equal(t, "3", c.Get("b"))
	assert.ElementsMatch(t, []string{"a", "b"}, c.Keys())
}

func TestTraceIDFromContext_Empty(t *testing.T) {
	assert.Equal(t, "", TraceIDFromContext(context.Background()))
}

func TestInitDisabled(t *testing.T) {
	tp, err := Init(config.TracingConfig{}, "")
	require.NoError(t, err)
	assert.NotNil(t, tp.Tracer("x"))
	assert.NoError(t, tp.Shutdown(context.Background()))
}

func TestResolveServiceName(t *testing.T) {
	assert.Equal(t, "explicit", resolveServiceName(config.TracingConfig{ServiceName: "cfg"}, "explicit"))
	assert.Equal(t, "cfg", resolveServiceName(config.TracingConfig{ServiceName: "cfg"}, ""))
	assert.Equal(t, constants.ServiceName, resolveServiceName(config.TracingConfig{}, ""))
}

func TestSamplerFor(t *testing.T) {
	assert.Equal(t, sdktrace.NeverSample().Description(), samplerFor(config.SamplerConfig{Type: "always_off"}).Description())
	assert.Equal(t, sdktrace.TraceIDRatioBased(0.25).Description(), samplerFor(config.SamplerConfig{Type: "traceidratio", Param: 0.25}).Description())
	assert.Equal(t, sdktrace.AlwaysSample().Description(), samplerFor(config.SamplerConfig{Type: "bogus"}).Description())
}

func TestCaptureSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	ctx, span := StartCaptureSpan(context.Background(), constants.PipelineNotification)
	assert.NotEmpty(t, TraceIDFromContext(ctx))
	EndCaptureSpan(span, 2, 1, nil)

	_, failed := StartCaptureSpan(context.Background(), constants.PipelineAccessibility)
	EndCaptureSpan(failed, 0, 0, errors.New("read failed"))

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "capture.notification", spans[0].Name())
	attrs := map[string]interface{}{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	assert.Equal(t, constants.PipelineNotification, attrs["capture.pipeline"])
	assert.Equal(t, int64(2), attrs["capture.records"])
	assert.Equal(t, int64(1), attrs["capture.forwarded"])

	assert.Equal(t, "capture.accessibility", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
}
