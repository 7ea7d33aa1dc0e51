package httpx

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/georgemunganga/hitpay-reviews/internal/apperr"
)

// RequestID returns the id chi's RequestID middleware stored on the request.
func RequestID(r *http.Request) string {
	return middleware.GetReqID(r.Context())
}

// RequestLogger emits one structured line per request.
func RequestLogger(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			level := slog.LevelInfo
			if status >= 500 {
				level = slog.LevelError
			} else if status >= 400 {
				level = slog.LevelWarn
			}

			path := r.URL.Path
			if q := r.URL.RawQuery; q != "" {
				path = path + "?" + q
			}
			l.LogAttrs(r.Context(), level, "http_request",
				slog.String("request_id", RequestID(r)),
				slog.String("method", r.Method),
				slog.String("path", path),
				slog.Int("status", status),
				slog.Duration("latency", time.Since(start)),
				slog.Int("bytes", ww.BytesWritten()),
				slog.String("client_ip", r.RemoteAddr),
			)
		})
	}
}

// Recoverer turns a panic into a JSON 500. The stack goes to the log only.
func Recoverer(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				l.LogAttrs(r.Context(), slog.LevelError, "panic_recovered",
					slog.String("request_id", RequestID(r)),
					slog.Any("panic", rec),
					slog.String("stack", string(debug.Stack())),
				)
				Error(w, r, nil, apperr.Wrap(fmt.Errorf("panic: %v", rec)))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
