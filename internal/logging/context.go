// internal/logging/context.go
package logging

import (
	"context"

	"go.uber.org/zap"
)

// Context key types
type requestCtxKey struct{}
type methodCtxKey struct{}

// ContextFields extracts correlation data from context.
func ContextFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 4)

	if requestID := RequestIDFromContext(ctx); requestID != "" {
		fields = append(fields, zap.String("request.id", requestID))
	}

	if method := MethodFromContext(ctx); method != "" {
		fields = append(fields, zap.String("extraction.method", method))
	}

	return fields
}

// WithRequestID returns a context carrying the HTTP request ID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestCtxKey{}, requestID)
}

// RequestIDFromContext returns the request ID, or "" if absent.
func RequestIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(requestCtxKey{}).(string); ok {
		return v
	}
	return ""
}

// WithMethod returns a context carrying the extraction method
// (primary, upgraded, upgraded_simple, deterministic_fallback).
func WithMethod(ctx context.Context, method string) context.Context {
	if method == "" {
		return ctx
	}
	return context.WithValue(ctx, methodCtxKey{}, method)
}

// MethodFromContext returns the extraction method, or "" if absent.
func MethodFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(methodCtxKey{}).(string); ok {
		return v
	}
	return ""
}
