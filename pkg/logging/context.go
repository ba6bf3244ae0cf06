package logging

import (
	"context"
)

type ctxKey string

const (
	TraceIDKey     = "trace_id"
	EventIDKey     = "event_id"
	ServiceNameKey = "service_name"
	PipelineKey    = "pipeline"
	PackageKey     = "package"
)

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, ctxKey(TraceIDKey), traceID)
}

func WithEventID(ctx context.Context, eventID string) context.Context {
	return context.WithValue(ctx, ctxKey(EventIDKey), eventID)
}

func WithServiceName(ctx context.Context, serviceName string) context.Context {
	return context.WithValue(ctx, ctxKey(ServiceNameKey), serviceName)
}

// WithPipeline tags the context with the capture pipeline handling the event.
func WithPipeline(ctx context.Context, pipeline string) context.Context {
	return context.WithValue(ctx, ctxKey(PipelineKey), pipeline)
}

func WithPackage(ctx context.Context, pkg string) context.Context {
	return context.WithValue(ctx, ctxKey(PackageKey), pkg)
}

func GetTraceID(ctx context.Context) string {
	return stringValue(ctx, TraceIDKey)
}

func GetEventID(ctx context.Context) string {
	return stringValue(ctx, EventIDKey)
}

func GetServiceName(ctx context.Context) string {
	return stringValue(ctx, ServiceNameKey)
}

func GetPipeline(ctx context.Context) string {
	return stringValue(ctx, PipelineKey)
}

func stringValue(ctx context.Context, key string) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxKey(key)).(string); ok {
		return v
	}
	return ""
}

// GetLogFields returns the context values as alternating zap sugar key/value pairs.
func GetLogFields(ctx context.Context) []interface{} {
	fields := make([]interface{}, 0, 10)

	for _, key := range []string{TraceIDKey, EventIDKey, ServiceNameKey, PipelineKey, PackageKey} {
		if v := stringValue(ctx, key); v != "" {
			fields = append(fields, key, v)
		}
	}

	return fields
}
