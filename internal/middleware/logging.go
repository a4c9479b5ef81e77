package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"sales-dashboard/internal/observability"
)

// Logger writes one line per request. Server errors log at error level
// and client errors at warn.
func Logger(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := newStatusRecorder(w)

			next.ServeHTTP(rec, r)

			level := slog.LevelInfo
			switch {
			case rec.statusCode >= 500:
				level = slog.LevelError
			case rec.statusCode >= 400:
				level = slog.LevelWarn
			}

			logger.Log(r.Context(), level, "request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"query", r.URL.RawQuery,
				"status", rec.statusCode,
				"bytes", rec.bytes,
				"duration", time.Since(start),
				"remote_addr", r.RemoteAddr,
			)
		})
	}
}

// Tracing opens a span per request, continuing an incoming traceparent,
// and logs it at debug level once the handler returns.
func Tracing(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := observability.StartRemoteSpan(r.Context(), "HTTP "+r.Method+" "+r.URL.Path, r.Header.Get("Traceparent"))
			span.SetTag("http.method", r.Method)
			span.SetTag("http.path", r.URL.Path)
			if sse := r.Header.Get("Datastar-Request"); sse != "" {
				span.SetTag("datastar", sse)
			}

			w.Header().Set("Traceparent", span.Traceparent())
			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r.WithContext(ctx))

			span.SetTag("http.status_code", strconv.Itoa(rec.statusCode))
			span.SetTag("http.response_bytes", strconv.Itoa(rec.bytes))
			if rec.statusCode >= 400 {
				span.SetError(fmt.Errorf("HTTP %d", rec.statusCode))
			}

			span.Finish()
			logger.DebugContext(r.Context(), "span finished", "span", span)
		})
	}
}
