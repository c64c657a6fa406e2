package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
)

// RecoveryConfig configures the panic recovery middleware.
type RecoveryConfig struct {
	Logger           *slog.Logger
	EnableStackTrace bool // include the stack trace in the log record
	PrintStack       bool // also print to stdout
}

// DefaultRecoveryConfig logs stack traces without printing them.
func DefaultRecoveryConfig() *RecoveryConfig {
	return &RecoveryConfig{
		Logger:           slog.Default(),
		EnableStackTrace: true,
	}
}

// Recovery turns a handler panic into a logged 500 response. The panic
// value never reaches the client.
func Recovery(config *RecoveryConfig) gin.HandlerFunc {
	if config == nil {
		config = DefaultRecoveryConfig()
	}

	return func(c *gin.Context) {
		defer func() {
			if v := recover(); v != nil {
				handlePanic(c, config, v)
			}
		}()

		c.Next()
	}
}

func handlePanic(c *gin.Context, config *RecoveryConfig, v any) {
	stack := debug.Stack()

	attrs := []slog.Attr{
		slog.String("error", fmt.Sprintf("%v", v)),
		slog.String("path", c.Request.URL.Path),
		slog.String("method", c.Request.Method),
		slog.String("request_id", GetRequestID(c)),
		slog.String("client_ip", c.ClientIP()),
	}
	if config.EnableStackTrace {
		attrs = append(attrs, slog.String("stack", string(stack)))
	}

	config.Logger.LogAttrs(c.Request.Context(), slog.LevelError, "Panic recovered", attrs...)

	if config.PrintStack {
		fmt.Printf("[Recovery] panic recovered:\n%v\n%s\n", v, stack)
	}

	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "INTERNAL_ERROR",
			"message": "An unexpected error occurred",
		},
		"request_id": GetRequestID(c),
		"timestamp":  time.Now().UTC(),
	})
}
