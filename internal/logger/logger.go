package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

type Options struct {
	Level     string
	Format    string // text|json
	AddSource bool
	Role      string
	Output    io.Writer
}

func New(opts Options) *slog.Logger {
	hopts := &slog.HandlerOptions{
		Level:     parseLevel(opts.Level),
		AddSource: opts.AddSource,
	}

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	var h slog.Handler
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "json":
		h = slog.NewJSONHandler(out, hopts)
	default:
		h = slog.NewTextHandler(out, hopts)
	}

	l := slog.New(h)
	if role := strings.TrimSpace(opts.Role); role != "" {
		l = l.With("role", role)
	}
	return l
}

// Discard returns a logger that drops every record. Used by tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// RequestLogger logs one line per request after the handler returns.
func RequestLogger(l *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			status := c.Response().Status
			attrs := []any{
				"method", req.Method,
				"path", req.URL.Path,
				"status", status,
				"duration", time.Since(start),
				"remote_ip", c.RealIP(),
			}
			switch {
			case status >= 500:
				l.Error("request", attrs...)
			case status >= 400:
				l.Warn("request", attrs...)
			default:
				l.Info("request", attrs...)
			}
			return nil
		}
	}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
