package logging

import (
	"context"
	"log/slog"
)

// Context keys for common log fields.
type contextKey string

const (
	// RequestIDKey is the context key for request IDs.
	RequestIDKey contextKey = "request_id"

	// ExportKey is the context key for export definition names.
	ExportKey contextKey = "export"

	// TriggerKey is the context key for what started an export
	// ("cli", "http", "schedule").
	TriggerKey contextKey = "trigger"
)

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithExport adds an export definition name to the context.
func WithExport(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, ExportKey, name)
}

// GetExport retrieves the export definition name from the context.
func GetExport(ctx context.Context) string {
	if name, ok := ctx.Value(ExportKey).(string); ok {
		return name
	}
	return ""
}

// WithTrigger records what started the current export.
func WithTrigger(ctx context.Context, trigger string) context.Context {
	return context.WithValue(ctx, TriggerKey, trigger)
}

// GetTrigger retrieves the export trigger from the context.
func GetTrigger(ctx context.Context) string {
	if trigger, ok := ctx.Value(TriggerKey).(string); ok {
		return trigger
	}
	return ""
}

// extractContextFields extracts common fields from context for logging.
func extractContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}

	var attrs []slog.Attr
	if requestID := GetRequestID(ctx); requestID != "" {
		attrs = append(attrs, slog.String(string(RequestIDKey), requestID))
	}
	if name := GetExport(ctx); name != "" {
		attrs = append(attrs, slog.String(string(ExportKey), name))
	}
	if trigger := GetTrigger(ctx); trigger != "" {
		attrs = append(attrs, slog.String(string(TriggerKey), trigger))
	}
	return attrs
}

// contextHandler adds the context fields to every record it handles, so
// plain *slog.Logger users get them through the ...Context methods.
type contextHandler struct {
	slog.Handler
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if attrs := extractContextFields(ctx); len(attrs) > 0 {
		r.AddAttrs(attrs...)
	}
	return h.Handler.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithGroup(name)}
}
