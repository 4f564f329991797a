package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/BlackMission/fedisub/internal/metrics"
	"github.com/BlackMission/fedisub/internal/observability/logger"
)

type statusRecorder struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.wroteHeader {
		return
	}
	s.status = code
	s.wroteHeader = true
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if !s.wroteHeader {
		s.status = http.StatusOK
		s.wroteHeader = true
	}
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

// withLogging injects a request-scoped logger into the context and writes one
// access line per request. Query strings are not logged: callbacks carry codes.
func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		reqLog := logger.L().With(
			logger.RequestID(middleware.GetReqID(r.Context())),
			logger.Method(r.Method),
			logger.Path(r.URL.Path),
		)
		ctx := logger.ToContext(r.Context(), reqLog)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		reqLog.Info("request completed",
			logger.Status(rec.status),
			logger.Bytes(rec.bytes),
			logger.DurationMs(time.Since(start)),
		)
	})
}

// withMetrics records request counts and latency labelled by route pattern,
// so path parameters do not explode label cardinality.
func withMetrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			m.Inflight(1)
			defer m.Inflight(-1)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if p := rctx.RoutePattern(); p != "" {
					route = p
				}
			}
			m.ObserveHTTP(r.Method, route, rec.status, time.Since(start))
		})
	}
}
