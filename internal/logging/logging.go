// Package logging configures the logrus logger and carries a request-scoped
// entry through context.
package logging

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type ctxKey struct{}

// New builds a logger. format is "json" or "text"; level is any logrus level name.
func New(level, format string, out io.Writer) *logrus.Logger {
	if out == nil {
		out = os.Stdout
	}
	l := logrus.New()
	l.SetOutput(out)
	if strings.EqualFold(format, "json") {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	return l
}

// Discard returns a logger that writes nothing, for tests.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// NewRequestID returns a fresh request identifier.
func NewRequestID() string { return uuid.NewString() }

// IntoContext stores entry in ctx.
func IntoContext(ctx context.Context, entry *logrus.Entry) context.Context {
	return context.WithValue(ctx, ctxKey{}, entry)
}

// FromContext returns the request-scoped entry, or one on the standard logger.
func FromContext(ctx context.Context) *logrus.Entry {
	if e, ok := ctx.Value(ctxKey{}).(*logrus.Entry); ok && e != nil {
		return e.WithContext(ctx)
	}
	return logrus.NewEntry(logrus.StandardLogger()).WithContext(ctx)
}

// RequestID returns the request id attached by the logging middleware, if any.
func RequestID(ctx context.Context) string {
	if e, ok := ctx.Value(ctxKey{}).(*logrus.Entry); ok && e != nil {
		if id, ok := e.Data["request_id"].(string); ok {
			return id
		}
	}
	return ""
}
