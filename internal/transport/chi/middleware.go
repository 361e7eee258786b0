package chi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	logpkg "github.com/kailas-cloud/facetsearch/internal/logger"
)

// requestLogger stores a per-request logger carrying the request id and
// echoes the id in X-Request-ID. It runs after chi's RequestID middleware.
func requestLogger(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}
			ctx := logpkg.ContextWithLogger(r.Context(), logger.With(zap.String("request_id", requestID)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// jsonRecoverer turns a handler panic into a 500 ErrorResponse.
func jsonRecoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			if rvr == http.ErrAbortHandler { //nolint:errorlint // sentinel panic value
				panic(rvr)
			}
			logpkg.FromContext(r.Context()).Error("Panic recovered",
				zap.Any("panic", rvr),
				zap.Stack("stacktrace"),
			)
			writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
		}()
		next.ServeHTTP(w, r)
	})
}

// wideEvent emits one log line per request once it is done.
func wideEvent(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := ""
		if rc := chi.RouteContext(r.Context()); rc != nil {
			route = rc.RoutePattern()
		}
		logpkg.FromContext(r.Context()).Info("http_request",
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.String("path", r.URL.Path),
			zap.String("query", r.URL.RawQuery),
			zap.Int("status", ww.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", r.RemoteAddr),
			zap.String("user_agent", r.UserAgent()),
			zap.Int("response_bytes", ww.BytesWritten()),
		)
	})
}
