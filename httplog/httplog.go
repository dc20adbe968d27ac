// Package httplog logs net/http requests through a *logger.Logger. It fits
// chi routers and any other func(http.Handler) http.Handler chain.
package httplog

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/mordilloSan/simplelogger/logger"
)

// Middleware logs every request after it is served, picking the level from
// the response status. The chi request id is included when
// middleware.RequestID runs earlier in the chain.
func Middleware(l *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			keyvals := []any{
				"latency_ms", time.Since(start).Milliseconds(),
				"ip", r.RemoteAddr,
				"bytes", ww.BytesWritten(),
			}
			if id := middleware.GetReqID(r.Context()); id != "" {
				keyvals = append(keyvals, "request_id", id)
			}
			l.API(status, r.Method+" "+r.URL.RequestURI(), keyvals...)
		})
	}
}
