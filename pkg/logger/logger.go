package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger wraps slog.Logger with additional functionality
type Logger struct {
	*slog.Logger
}

// New creates a new logger instance
func New() *Logger {
	// Get log level from environment
	level := getLogLevel(os.Getenv("LOG_LEVEL"))

	// Create handler options
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	// Create handler based on environment
	var handler slog.Handler
	if gin.Mode() == gin.DebugMode {
		// Use text handler for development (more readable)
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		// Use JSON handler for production (structured)
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// getLogLevel converts string to slog.Level
func getLogLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithError adds error to logger context
func (l *Logger) WithError(err error) *Logger {
	return &Logger{
		Logger: l.Logger.With(slog.String("error", err.Error())),
	}
}

// WithPaymentID adds the payment id to logger context
func (l *Logger) WithPaymentID(paymentID string) *Logger {
	return &Logger{
		Logger: l.Logger.With(slog.String("payment_id", paymentID)),
	}
}

// HTTP logging methods

// LogHTTPRequest logs an HTTP request
func (l *Logger) LogHTTPRequest(c *gin.Context, duration time.Duration) {
	l.Logger.InfoContext(c.Request.Context(),
		"HTTP Request",
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.String("query", c.Request.URL.RawQuery),
		slog.Int("status", c.Writer.Status()),
		slog.Duration("duration", duration),
		slog.String("ip", c.ClientIP()),
		slog.Int("size", c.Writer.Size()),
	)
}

// Business logic logging methods

// LogReservationCreated logs when spots are provisionally reserved
func (l *Logger) LogReservationCreated(ctx context.Context, paymentID, courseID, periodID string, spots int) {
	l.Logger.InfoContext(ctx,
		"Reservation Created",
		slog.String("payment_id", paymentID),
		slog.String("course_id", courseID),
		slog.String("period_id", periodID),
		slog.Int("spots", spots),
	)
}

// LogReservationCommitted logs when a pending reservation becomes a booking
func (l *Logger) LogReservationCommitted(ctx context.Context, paymentID, periodID string, spots int) {
	l.Logger.InfoContext(ctx,
		"Reservation Committed",
		slog.String("payment_id", paymentID),
		slog.String("period_id", periodID),
		slog.Int("spots", spots),
	)
}

// LogReservationReleased logs when a pending reservation is released
func (l *Logger) LogReservationReleased(ctx context.Context, paymentID, periodID string, spots int, reason string) {
	l.Logger.InfoContext(ctx,
		"Reservation Released",
		slog.String("payment_id", paymentID),
		slog.String("period_id", periodID),
		slog.Int("spots", spots),
		slog.String("reason", reason),
	)
}

// LogNotificationFailure logs a failed notification dispatch; never fatal
func (l *Logger) LogNotificationFailure(ctx context.Context, recipient string, err error) {
	l.Logger.WarnContext(ctx,
		"Notification Dispatch Failed",
		slog.String("recipient", recipient),
		slog.String("error", err.Error()),
	)
}

// ErrorWithContext logs an error message with context
func (l *Logger) ErrorWithContext(ctx context.Context, msg string, err error, fields map[string]interface{}) {
	args := make([]interface{}, 0, len(fields)*2+2)
	args = append(args, slog.String("error", err.Error()))
	for k, v := range fields {
		args = append(args, slog.Any(k, v))
	}
	l.Logger.ErrorContext(ctx, msg, args...)
}

// InfoWithContext logs an info message with context
func (l *Logger) InfoWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, slog.Any(k, v))
	}
	l.Logger.InfoContext(ctx, msg, args...)
}

// Global logger instance (can be replaced with dependency injection)
var defaultLogger = New()

// GetDefault returns the default logger instance
func GetDefault() *Logger {
	return defaultLogger
}

// SetDefault sets the default logger instance
func SetDefault(logger *Logger) {
	defaultLogger = logger
}
