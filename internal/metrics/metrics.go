package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects auth-flow outcome counters and HTTP timings.
type Metrics struct {
	SignUps         prometheus.Counter
	Activations     prometheus.Counter
	Logins          *prometheus.CounterVec
	Rotations       prometheus.Counter
	RotationsDenied prometheus.Counter
	PasswordResets  prometheus.Counter
	requestDuration *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		SignUps: factory.NewCounter(prometheus.CounterOpts{
			Name: "authd_signups_total",
			Help: "Completed sign-ups.",
		}),
		Activations: factory.NewCounter(prometheus.CounterOpts{
			Name: "authd_activations_total",
			Help: "Completed account activations.",
		}),
		Logins: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "authd_logins_total",
			Help: "Login attempts by outcome.",
		}, []string{"outcome"}),
		Rotations: factory.NewCounter(prometheus.CounterOpts{
			Name: "authd_refresh_rotations_total",
			Help: "Successful refresh token rotations.",
		}),
		RotationsDenied: factory.NewCounter(prometheus.CounterOpts{
			Name: "authd_refresh_rotations_denied_total",
			Help: "Refresh attempts rejected as invalid.",
		}),
		PasswordResets: factory.NewCounter(prometheus.CounterOpts{
			Name: "authd_password_resets_total",
			Help: "Completed password resets.",
		}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "authd_http_request_duration_seconds",
			Help:    "HTTP request latency by method, path, and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
	}
}

// Handler times requests against the registered route template, so path
// cardinality stays bounded.
func (m *Metrics) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.requestDuration.WithLabelValues(
			c.Request.Method,
			path,
			strconv.Itoa(c.Writer.Status()),
		).Observe(time.Since(start).Seconds())
	}
}
