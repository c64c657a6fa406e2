package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// LoggingConfig configures the request logging middleware.
type LoggingConfig struct {
	Logger          *slog.Logger
	SkipPaths       []string // paths excluded from logging (e.g. /health)
	LogRequestBody  bool     // careful, bodies may carry PII
	LogResponseBody bool
	MaxBodySize     int // longest body fragment logged, in bytes
}

// DefaultLoggingConfig skips the probe and metrics endpoints and logs no
// bodies.
func DefaultLoggingConfig() *LoggingConfig {
	return &LoggingConfig{
		Logger:      slog.Default(),
		SkipPaths:   []string{"/health", "/ready", "/live", "/metrics"},
		MaxBodySize: 1024,
	}
}

// Logging writes one structured log line per request: method, path,
// status, duration, request id, client address and response size. The
// level follows the status code.
func Logging(config *LoggingConfig) gin.HandlerFunc {
	if config == nil {
		config = DefaultLoggingConfig()
	}

	skip := make(map[string]struct{}, len(config.SkipPaths))
	for _, path := range config.SkipPaths {
		skip[path] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, skipped := skip[c.Request.URL.Path]; skipped {
			c.Next()
			return
		}

		start := time.Now()

		var requestBody string
		if config.LogRequestBody {
			requestBody = snapshotRequestBody(c, config.MaxBodySize)
		}

		var responseBuf *bytes.Buffer
		if config.LogResponseBody {
			responseBuf = &bytes.Buffer{}
			c.Writer = &bodyLogWriter{body: responseBuf, ResponseWriter: c.Writer}
		}

		c.Next()

		attrs := []slog.Attr{
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.String("query", c.Request.URL.RawQuery),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", GetRequestID(c)),
			slog.String("client_ip", c.ClientIP()),
			slog.String("user_agent", c.Request.UserAgent()),
			slog.Int("response_size", c.Writer.Size()),
		}
		if requestBody != "" {
			attrs = append(attrs, slog.String("request_body", requestBody))
		}
		if responseBuf != nil && responseBuf.Len() > 0 {
			attrs = append(attrs, slog.String("response_body",
				truncateString(responseBuf.String(), config.MaxBodySize)))
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, slog.String("errors", c.Errors.String()))
		}

		config.Logger.LogAttrs(c.Request.Context(), statusLevel(c.Writer.Status()),
			"HTTP Request", attrs...)
	}
}

// snapshotRequestBody reads the body for logging and restores it so the
// handler can read it again.
func snapshotRequestBody(c *gin.Context, maxSize int) string {
	bodyBytes, _ := io.ReadAll(c.Request.Body)
	c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
	if len(bodyBytes) == 0 {
		return ""
	}
	return truncateString(string(bodyBytes), maxSize)
}

func statusLevel(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// bodyLogWriter duplicates writes into a buffer.
type bodyLogWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *bodyLogWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func truncateString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...[truncated]"
}
