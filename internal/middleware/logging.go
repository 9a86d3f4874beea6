package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/novachain/admin-backend/pkg/logger"
)

const traceIDKey contextKey = "trace_id"

// TraceIDFromContext returns the request trace ID, or empty.
func TraceIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(traceIDKey).(string)
	return id
}

// LoggingMiddleware assigns each request a trace ID and logs its outcome.
type LoggingMiddleware struct {
	log *logger.Logger
}

// NewLoggingMiddleware creates the request logging middleware.
func NewLoggingMiddleware(log *logger.Logger) *LoggingMiddleware {
	return &LoggingMiddleware{log: log.Named("http")}
}

// Handler returns the logging middleware handler.
func (m *LoggingMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get("X-Trace-ID")
		if traceID == "" {
			traceID = uuid.NewString()
		}
		w.Header().Set("X-Trace-ID", traceID)

		ctx := context.WithValue(r.Context(), traceIDKey, traceID)
		rec := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r.WithContext(ctx))

		m.log.WithFields(map[string]interface{}{
			"trace_id": traceID,
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).String(),
		}).Info("request handled")
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
