package statusapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"llamadeck/pkg/types"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "llamadeck",
		Subsystem: "admin",
		Name:      "http_requests_total",
		Help:      "Total admin HTTP requests by path, method and status code.",
	}, []string{"path", "method", "code"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "llamadeck",
		Subsystem: "admin",
		Name:      "http_request_duration_seconds",
		Help:      "Admin HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"path", "method"})

	httpInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "llamadeck",
		Subsystem: "admin",
		Name:      "http_requests_in_flight",
		Help:      "Admin HTTP requests currently being served.",
	})
)

// MetricsMiddleware records request count, latency and in-flight gauge.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		path := r.URL.Path
		httpRequestsTotal.WithLabelValues(path, r.Method, strconv.Itoa(ww.Status())).Inc()
		httpRequestDuration.WithLabelValues(path, r.Method).Observe(time.Since(start).Seconds())
	})
}

var (
	childUpDesc = prometheus.NewDesc(
		"llamadeck_child_up",
		"1 when the child process is running, 0 otherwise.",
		[]string{"name"}, nil,
	)
	uptimeDesc = prometheus.NewDesc(
		"llamadeck_uptime_seconds",
		"Seconds since the stack was started.",
		nil, nil,
	)
)

// processCollector exposes child process liveness straight from the
// coordinator, so a scrape always reflects the current state.
type processCollector struct {
	svc Service
}

func newProcessCollector(svc Service) *processCollector {
	return &processCollector{svc: svc}
}

func (c *processCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- childUpDesc
	ch <- uptimeDesc
}

func (c *processCollector) Collect(ch chan<- prometheus.Metric) {
	st := c.svc.Status()
	for _, p := range st.Processes {
		up := 0.0
		if p.State == types.ProcRunning {
			up = 1.0
		}
		ch <- prometheus.MustNewConstMetric(childUpDesc, prometheus.GaugeValue, up, p.Name)
	}
	ch <- prometheus.MustNewConstMetric(uptimeDesc, prometheus.GaugeValue, float64(st.UptimeSec))
}
