package logging

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type scanIDCtxKey struct{}
type sourceCtxKey struct{}
type requestIDCtxKey struct{}

// ContextFields extracts correlation data from context.
func ContextFields(ctx context.Context) []zap.Field {
	if ctx == nil {
		return nil
	}
	var fields []zap.Field

	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}

	if id := ScanIDFromContext(ctx); id != "" {
		fields = append(fields, zap.String("scan.id", id))
	}
	if src := SourceFromContext(ctx); src != "" {
		fields = append(fields, zap.String("scan.source", src))
	}
	if id := RequestIDFromContext(ctx); id != "" {
		fields = append(fields, zap.String("request.id", id))
	}

	return fields
}

// WithScanID tags the context with the id of one scan.
func WithScanID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, scanIDCtxKey{}, id)
}

// ScanIDFromContext returns the scan id, or "".
func ScanIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(scanIDCtxKey{}).(string)
	return id
}

// WithSource tags the context with the file being scanned.
func WithSource(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, sourceCtxKey{}, path)
}

// SourceFromContext returns the scanned file, or "".
func SourceFromContext(ctx context.Context) string {
	src, _ := ctx.Value(sourceCtxKey{}).(string)
	return src
}

// WithRequestID tags the context with an HTTP request id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDCtxKey{}, id)
}

// RequestIDFromContext returns the request id, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDCtxKey{}).(string)
	return id
}
