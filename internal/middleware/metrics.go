package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/diewo77/bookbuddy/internal/metrics"
)

// Metrics records request counts and latency labelled by the matched mux
// pattern. It must wrap the ServeMux directly so the pattern set on the request
// is visible after the call.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := newStatusRecorder(w)
		next.ServeHTTP(rec, r)

		route := routeLabel(r.Pattern)
		metrics.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		metrics.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// routeLabel strips the method from a mux pattern ("GET /api/books/{id}").
// Unmatched requests share one label to keep cardinality bounded.
func routeLabel(pattern string) string {
	if pattern == "" {
		return "unmatched"
	}
	if _, path, ok := strings.Cut(pattern, " "); ok {
		return path
	}
	return pattern
}
