package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-client/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-client/internal/platform/logging"
)

// ContextLogger returns middleware that stores logger in the request
// context, so later middleware and handlers can enrich and use it through
// logging.FromContext.
func ContextLogger(logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}

	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(logging.WithContext(c.Request.Context(), logger))
		c.Next()
	}
}

// Logging returns middleware that logs each request once it completes,
// at a level chosen by status. Start lines are logged at trace level.
// Quote streams are logged when opened and again when closed, with their
// lifetime. Operational paths (starting with /-/) are skipped.
//
// The context logger is enriched with the trace id when the request is
// traced.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		req := c.Request
		if strings.HasPrefix(req.URL.Path, "/-/") {
			c.Next()
			return
		}

		start := time.Now()

		ctx := req.Context()
		if traceID := dto.GetTraceID(c); traceID != "" {
			ctx = logging.WithTraceID(ctx, traceID)
			c.Request = req.WithContext(ctx)
		}

		logger := logging.FromContext(ctx).With(
			slog.String("method", req.Method),
			slog.String("path", req.URL.RequestURI()),
		)

		stream := isWebSocketUpgrade(req)
		if stream {
			logger.InfoContext(ctx, "stream opened", slog.String("client_ip", c.ClientIP()))
		} else {
			logger.Log(ctx, logging.LevelTrace, "request started",
				slog.String("client_ip", c.ClientIP()),
				slog.String("user_agent", req.UserAgent()),
			)
		}

		c.Next()

		status := c.Writer.Status()
		elapsed := time.Since(start)

		if stream && status == http.StatusSwitchingProtocols {
			logger.InfoContext(ctx, "stream closed", slog.Duration("duration", elapsed))
			return
		}

		logger.Log(ctx, levelFor(status), "request completed",
			slog.Int("status", status),
			slog.Duration("latency", elapsed),
			slog.Int("bytes", c.Writer.Size()),
		)
	}
}

func levelFor(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

func isWebSocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}
