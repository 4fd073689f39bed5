package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Common log attribute keys.
const (
	KeyResource        = "resource"
	KeyNamespace       = "namespace"
	KeyNamespaces      = "namespaces"
	KeyName            = "name"
	KeyResourceVersion = "resource_version"
	KeyEventType       = "event_type"
	KeyRefCount        = "ref_count"
	KeyError           = "error"
)

// New creates a logger writing to w. format is "text" or "json".
func New(w io.Writer, level, format string) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

// ParseLevel accepts debug, info, warn and error.
func ParseLevel(level string) (slog.Level, error) {
	var lvl slog.Level
	if level == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return lvl, nil
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// WithResource returns a logger with the resource attribute set.
func WithResource(logger *slog.Logger, apiBase string) *slog.Logger {
	return logger.With(slog.String(KeyResource, apiBase))
}

// Namespace returns a slog attribute for a namespace.
func Namespace(ns string) slog.Attr {
	if ns == "" {
		ns = "<all>"
	}
	return slog.String(KeyNamespace, ns)
}

// Namespaces returns a slog attribute for a namespace set.
func Namespaces(all bool, ns []string) slog.Attr {
	if all {
		return slog.String(KeyNamespaces, "<all>")
	}
	return slog.String(KeyNamespaces, strings.Join(ns, ","))
}

// Name returns a slog attribute for an object name.
func Name(name string) slog.Attr {
	return slog.String(KeyName, name)
}

// ResourceVersion returns a slog attribute for a resourceVersion.
func ResourceVersion(rv string) slog.Attr {
	return slog.String(KeyResourceVersion, rv)
}

// EventType returns a slog attribute for a watch event type.
func EventType(t string) slog.Attr {
	return slog.String(KeyEventType, t)
}

// RefCount returns a slog attribute for a subscriber count.
func RefCount(n int) slog.Attr {
	return slog.Int(KeyRefCount, n)
}

// Err returns a slog attribute for an error.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
