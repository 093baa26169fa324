package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// unmatchedRoute labels requests that hit no registered route, keeping raw paths out of
// the label set.
const unmatchedRoute = "unmatched"

// HTTPMetrics holds the request collectors of one router.
type HTTPMetrics struct {
	duration *prometheus.HistogramVec
}

// NewHTTPMetrics registers the request duration histogram on reg. Process and Go runtime
// collectors are added when withRuntime is set.
func NewHTTPMetrics(reg prometheus.Registerer, withRuntime bool) *HTTPMetrics {
	m := &HTTPMetrics{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.05, 0.1, 0.2, 0.5, 1, 2, 5},
		}, []string{"method", "route", "status_code"}),
	}
	reg.MustRegister(m.duration)
	if withRuntime {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return m
}

// Middleware observes every request once it has been handled. The route label is the
// registered pattern, e.g. /scheduling/sessions/:id.
func (m *HTTPMetrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		m.duration.WithLabelValues(
			c.Request.Method,
			route,
			strconv.Itoa(c.Writer.Status()),
		).Observe(time.Since(start).Seconds())
	}
}
