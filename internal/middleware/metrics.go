package middleware

import (
	"net/http"
	"time"

	"github.com/dukerupert/pantry/internal/metrics"
)

// Metrics records request counts and latency labelled by chi route pattern.
// Requests that matched no route share the "unmatched" label.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			route := routePattern(r)
			if route == "" {
				route = "unmatched"
			}
			m.ObserveRequest(r.Method, route, rec.status, time.Since(start))
		})
	}
}
