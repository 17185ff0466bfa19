package shield

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hazyhaar/redline/idgen"
	"github.com/hazyhaar/redline/kit"
)

// RequestIDHeader carries the request id on responses.
const RequestIDHeader = "X-Request-ID"

// RequestID assigns each request an id from newID, marks the context as the
// http transport, and attaches a per-request logger retrievable with
// GetLogger.
func RequestID(newID idgen.Generator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := newID()
			ctx := kit.WithRequestID(r.Context(), id)
			ctx = kit.WithTransport(ctx, "http")
			w.Header().Set(RequestIDHeader, id)

			logger := slog.Default().With(
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)
			ctx = context.WithValue(ctx, LoggerKey, logger)
			logger.Info("request")

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
