package logger

import (
	"log/slog"
	"time"
)

// Group creates a group of attributes under a single key.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Error creates an "error" attribute. Returns an empty Attr for nil.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Duration creates a "duration" attribute.
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Elapsed logs the time since start under "elapsed".
func Elapsed(start time.Time) slog.Attr {
	return slog.Duration("elapsed", time.Since(start))
}

// RequestID creates a "request_id" attribute.
func RequestID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("request_id", id)
}

// Method creates an HTTP method attribute.
func Method(method string) slog.Attr {
	return slog.String("method", method)
}

// Path creates a URL path attribute.
func Path(path string) slog.Attr {
	return slog.String("path", path)
}

// Query creates a raw query attribute.
func Query(q string) slog.Attr {
	if q == "" {
		return slog.Attr{}
	}
	return slog.String("query", q)
}

// StatusCode creates an HTTP status attribute.
func StatusCode(code int) slog.Attr {
	return slog.Int("status_code", code)
}

// BytesOut creates a response size attribute.
func BytesOut(n int64) slog.Attr {
	return slog.Int64("bytes_out", n)
}

// RemoteAddr creates a peer address attribute.
func RemoteAddr(addr string) slog.Attr {
	return slog.String("remote_addr", addr)
}

// Component names the subsystem emitting the record.
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Count creates an integer attribute with a custom key.
func Count(key string, n int) slog.Attr {
	return slog.Int(key, n)
}

// Topic creates a "topic" attribute.
func Topic(name string) slog.Attr {
	if name == "" {
		return slog.Attr{}
	}
	return slog.String("topic", name)
}

// ClientID creates a "client_id" attribute for subscriber identities.
func ClientID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("client_id", id)
}

// SessionID creates a "session_id" attribute for WebSocket sessions.
func SessionID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("session_id", id)
}

// Code creates a "code" attribute for protocol error codes.
func Code(code string) slog.Attr {
	return slog.String("code", code)
}
