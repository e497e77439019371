package log

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"
)

// ContextKey type for context keys
type ContextKey string

// LoggerContextKey is the context key for the logger
const LoggerContextKey ContextKey = "logger"

func WithContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, LoggerContextKey, logger)
}

// FromContext returns the request logger, or one over slog.Default.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	return &Logger{
		Logger:    slog.Default(),
		component: "unknown",
	}
}

// Middleware puts a logger carrying the request id into the request context.
func Middleware(logger *Logger, requestID func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		l := logger
		if id := requestID(c); id != "" {
			l = logger.With(FieldRequestID, id)
		}
		c.Request = c.Request.WithContext(WithContext(c.Request.Context(), l))
		c.Next()
	}
}

// LogMutation records a committed ledger change at Info.
func (l *Logger) LogMutation(ctx context.Context, op, userID string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	l.InfoContext(ctx, "Ledger updated", fields.WithOperation(op).WithUser(userID).ToSlice()...)
}

// LogError records a failed operation at Error.
func (l *Logger) LogError(ctx context.Context, msg string, err error, op string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	l.ErrorContext(ctx, msg, fields.WithError(err).WithOperation(op).ToSlice()...)
}
