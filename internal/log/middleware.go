package log

import (
	"context"
	"log/slog"
	"net/http"
)

type contextKey struct{}

// Middleware stores logger in the request context.
func Middleware(logger *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(withLogger(r.Context(), logger)))
		})
	}
}

func withLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext returns the request logger, or the slog default outside a request.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(contextKey{}).(*Logger); ok {
		return logger
	}
	fallback := slog.Default()
	return &Logger{
		Logger:    fallback,
		base:      fallback.Handler(),
		component: "unknown",
	}
}

// RequestIDMiddleware tags the request logger with the request id.
// Must run after Middleware.
func RequestIDMiddleware(extractRequestID func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := extractRequestID(r)
			if requestID == "" {
				next.ServeHTTP(w, r)
				return
			}
			logger := FromContext(r.Context()).With(FieldRequestID, requestID)
			next.ServeHTTP(w, r.WithContext(withLogger(r.Context(), logger)))
		})
	}
}

// StructuredLogger writes the application's well-known events. Each event
// goes to the request logger when ctx carries one.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

func (sl *StructuredLogger) from(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(contextKey{}).(*Logger); ok {
		return logger.Logger
	}
	return sl.logger.Logger
}

// LogHTTPStart is written at debug level; the completion line carries
// everything an operator needs.
func (sl *StructuredLogger) LogHTTPStart(ctx context.Context, r *http.Request, clientIP string) {
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent"), r.Header.Get("Referer")).
		WithClientIP(clientIP).
		WithComponent(ComponentHTTP)

	sl.from(ctx).DebugContext(ctx, "HTTP request started", fields.ToSlice()...)
}

func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	switch {
	case statusCode >= 500:
		level = slog.LevelError
	case statusCode >= 400:
		level = slog.LevelWarn
	}

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "", "").
		WithHTTPResponse(statusCode, durationMs).
		WithClientIP(clientIP).
		WithComponent(ComponentHTTP)

	sl.from(ctx).Log(ctx, level, "HTTP request completed", fields.ToSlice()...)
}

// LogGridSubmitted records an accepted submission.
func (sl *StructuredLogger) LogGridSubmitted(ctx context.Context, sessionID string, tables, rows int) {
	fields := NewFields().
		WithSession(sessionID, tables, rows).
		WithOperation(OpSubmit).
		WithComponent(ComponentGrid)

	sl.from(ctx).InfoContext(ctx, "Grid submitted", fields.ToSlice()...)
}

// LogGridRejected records a submission refused by validation and the
// tables that were at fault.
func (sl *StructuredLogger) LogGridRejected(ctx context.Context, sessionID string, violations int, tables []int) {
	fields := NewFields().
		WithRejection(violations, tables).
		WithOperation(OpValidate).
		WithComponent(ComponentGrid)
	fields[FieldSessionID] = sessionID

	sl.from(ctx).WarnContext(ctx, "Grid rejected", fields.ToSlice()...)
}

func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component string, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	fields.
		WithError(err).
		WithOperation(operation).
		WithComponent(component)

	sl.from(ctx).ErrorContext(ctx, msg, fields.ToSlice()...)
}
