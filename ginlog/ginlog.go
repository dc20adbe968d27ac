// Package ginlog logs gin requests through a *logger.Logger.
package ginlog

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mordilloSan/simplelogger/logger"
)

// Middleware logs every request after it is served. The level follows the
// response status: INFO below 400, WARNING for 4xx, ERROR from 500.
func Middleware(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path += "?" + raw
		}

		c.Next()

		keyvals := []any{
			"latency_ms", time.Since(start).Milliseconds(),
			"ip", c.ClientIP(),
			"bytes", c.Writer.Size(),
		}
		if id := c.GetHeader("X-Request-ID"); id != "" {
			keyvals = append(keyvals, "request_id", id)
		}
		if errs := c.Errors.Errors(); len(errs) > 0 {
			keyvals = append(keyvals, "errors", strings.Join(errs, "; "))
		}
		l.API(c.Writer.Status(), c.Request.Method+" "+path, keyvals...)
	}
}
