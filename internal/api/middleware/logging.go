package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestLogger logs one line per request once the handler chain finishes,
// including the authenticated subject on protected routes.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}

		attrs := []any{
			"http.method", c.Request.Method,
			"http.path", c.Request.URL.Path,
			"http.route", c.FullPath(),
			"http.status", status,
			"http.latency", time.Since(start),
			"client.ip", c.ClientIP(),
		}
		if subject, ok := SubjectFromContext(c.Request.Context()); ok {
			attrs = append(attrs, "auth.subject", subject)
		}
		slog.Log(c.Request.Context(), level, "HTTP request", attrs...)
	}
}
