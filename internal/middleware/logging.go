// Package middleware provides HTTP middleware for the catalog server.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// slowRequest is the duration above which a successful request logs at warn.
const slowRequest = 2 * time.Second

// requestLog collects fields that only inner handlers know about.
type requestLog struct {
	userID uint
}

type requestLogKey struct{}

// SetUserID attaches the signed-in user to the access log line of the
// request. It is a no-op outside Logging.
func SetUserID(ctx context.Context, userID uint) {
	if rl, ok := ctx.Value(requestLogKey{}).(*requestLog); ok {
		rl.userID = userID
	}
}

// Logging returns a structured access log middleware. Server errors log at
// error level and slow requests at warn.
func Logging(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rl := &requestLog{}
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r.WithContext(context.WithValue(r.Context(), requestLogKey{}, rl)))

			status := statusOf(ww)
			elapsed := time.Since(start)
			level := slog.LevelInfo
			switch {
			case status >= http.StatusInternalServerError:
				level = slog.LevelError
			case elapsed > slowRequest:
				level = slog.LevelWarn
			}

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("route", routePattern(r)),
				slog.Int("status", status),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", elapsed),
				slog.String("request_id", chimiddleware.GetReqID(r.Context())),
			}
			if rl.userID != 0 {
				attrs = append(attrs, slog.Uint64("user_id", uint64(rl.userID)))
			}
			logger.LogAttrs(r.Context(), level, "request", attrs...)
		})
	}
}

// statusOf treats a handler that never wrote as a 200.
func statusOf(ww chimiddleware.WrapResponseWriter) int {
	if status := ww.Status(); status != 0 {
		return status
	}
	return http.StatusOK
}
