package logger

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger emits single-line JSON to stdout. Every entry carries the service
// name, hostname and an action tag; request_id and ride_id ride along on the
// context when set.
type Logger struct {
	zl zerolog.Logger
}

// New creates a structured logger for the given service.
func New(service string) *Logger {
	return NewWithWriter(service, os.Stdout)
}

// NewWithWriter is New with an explicit sink, for tests.
func NewWithWriter(service string, w io.Writer) *Logger {
	hn, err := os.Hostname()
	if err != nil || strings.TrimSpace(hn) == "" {
		hn = "unknown-hostname"
	}
	if strings.TrimSpace(service) == "" {
		service = "unknown-service"
	}

	zl := zerolog.New(w).With().
		Timestamp().
		Str("service", service).
		Str("hostname", hn).
		Logger()
	return &Logger{zl: zl}
}

// Debug writes a DEBUG line with optional details.
func (l *Logger) Debug(ctx context.Context, action, msg string, details any) {
	l.send(l.zl.Debug(), ctx, action, msg, details)
}

// Info writes an INFO line with optional details.
func (l *Logger) Info(ctx context.Context, action, msg string, details any) {
	l.send(l.zl.Info(), ctx, action, msg, details)
}

// Error writes an ERROR line and attaches the error.
func (l *Logger) Error(ctx context.Context, action, msg string, err error, details any) {
	event := l.zl.Error()
	if err != nil {
		event = event.Err(err)
	}
	l.send(event, ctx, action, msg, details)
}

func (l *Logger) send(event *zerolog.Event, ctx context.Context, action, msg string, details any) {
	event = event.Str("action", safeAction(action))
	if id := requestID(ctx); id != "" {
		event = event.Str("request_id", id)
	}
	if id := rideID(ctx); id != "" {
		event = event.Str("ride_id", id)
	}
	if details != nil {
		event = event.Interface("details", details)
	}
	event.Msg(strings.TrimSpace(msg))
}

// ------------ Context helpers -------------

type ctxKey string

const (
	ctxKeyRequestID ctxKey = "lifecycle_request_id"
	ctxKeyRideID    ctxKey = "lifecycle_ride_id"
)

// WithRequestID returns a new context carrying request_id.
func (l *Logger) WithRequestID(ctx context.Context, reqID string) context.Context {
	if strings.TrimSpace(reqID) == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKeyRequestID, reqID)
}

// WithRideID returns a new context carrying ride_id.
func (l *Logger) WithRideID(ctx context.Context, rideID string) context.Context {
	if strings.TrimSpace(rideID) == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKeyRideID, rideID)
}

// requestID extracts request_id from ctx (if any).
func requestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if s, ok := ctx.Value(ctxKeyRequestID).(string); ok {
		return s
	}
	return ""
}

// rideID extracts ride_id from ctx (if any).
func rideID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if s, ok := ctx.Value(ctxKeyRideID).(string); ok {
		return s
	}
	return ""
}

func safeAction(a string) string {
	a = strings.TrimSpace(a)
	if a == "" {
		return "unspecified"
	}
	return a
}
