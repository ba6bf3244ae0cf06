package tracing

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"mirror/internal/config"
	"mirror/internal/constants"
)

const (
	instrumentationName = "mirror/capture"
	exporterDialTimeout = 5 * time.Second

	AttrPipeline  = attribute.Key("capture.pipeline")
	AttrRecords   = attribute.Key("capture.records")
	AttrForwarded = attribute.Key("capture.forwarded")
)

// TracerProvider owns the SDK provider for the lifetime of the service.
type TracerProvider struct {
	tp *sdktrace.TracerProvider
}

func (tp *TracerProvider) Tracer(name string) trace.Tracer {
	return tp.tp.Tracer(name)
}

func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	if tp.tp == nil {
		return nil
	}
	return tp.tp.Shutdown(ctx)
}

// Init installs the global provider and W3C propagator. When tracing is
// disabled a local no-export provider is returned and globals stay untouched,
// so capture spans are no-ops.
func Init(cfg config.TracingConfig, serviceName string) (*TracerProvider, error) {
	if !cfg.Enabled {
		return &TracerProvider{tp: sdktrace.NewTracerProvider()}, nil
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(semconv.ServiceNameKey.String(resolveServiceName(cfg, serviceName))),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := newExporter(cfg.OTLP)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(samplerFor(cfg.Sampler)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &TracerProvider{tp: tp}, nil
}

func resolveServiceName(cfg config.TracingConfig, serviceName string) string {
	switch {
	case serviceName != "":
		return serviceName
	case cfg.ServiceName != "":
		return cfg.ServiceName
	default:
		return constants.ServiceName
	}
}

func newExporter(cfg config.OTLPConfig) (*otlptrace.Exporter, error) {
	ctx, cancel := context.WithTimeout(context.Background(), exporterDialTimeout)
	defer cancel()

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}
	return exporter, nil
}

var samplers = map[string]func(ratio float64) sdktrace.Sampler{
	"always_on":  func(float64) sdktrace.Sampler { return sdktrace.AlwaysSample() },
	"always_off": func(float64) sdktrace.Sampler { return sdktrace.NeverSample() },
	"traceidratio": func(r float64) sdktrace.Sampler {
		return sdktrace.TraceIDRatioBased(r)
	},
	"parentbased_always_on": func(float64) sdktrace.Sampler {
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	},
	"parentbased_traceidratio": func(r float64) sdktrace.Sampler {
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(r))
	},
}

// samplerFor falls back to always_on for unknown types.
func samplerFor(cfg config.SamplerConfig) sdktrace.Sampler {
	if build, ok := samplers[cfg.Type]; ok {
		return build(cfg.Param)
	}
	return sdktrace.AlwaysSample()
}

func GetTracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

// StartCaptureSpan opens the span covering one event in a capture pipeline.
// Finish it with EndCaptureSpan.
func StartCaptureSpan(ctx context.Context, pipeline string) (context.Context, trace.Span) {
	return GetTracer(instrumentationName).Start(ctx, "capture."+pipeline,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(AttrPipeline.String(pipeline)),
	)
}

// EndCaptureSpan records the event outcome and ends the span.
func EndCaptureSpan(span trace.Span, records, forwarded int, err error) {
	span.SetAttributes(AttrRecords.Int(records), AttrForwarded.Int(forwarded))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// TraceIDFromContext returns the active span's trace id, or "" when the
// context carries no span.
func TraceIDFromContext(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}
