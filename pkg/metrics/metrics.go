package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var HistogramBuckets = []float64{
	// fast paths
	25, 50, 75, 100, 150, 200, 300, 400, 500,
	// store and backend round-trips
	750, 1000, 1500, 2000, 3000, 5000, 7500, 10000, 15000,
	// receipt validation worst cases
	30000, 60000,
}

var (
	reqCnt = promauto.NewCounterVec(prometheus.CounterOpts{
		Subsystem: "http",
		Name:      "req_total",
		Help:      "HTTP requests processed, partitioned by status code, method and route.",
	}, []string{"code", "method", "url"})

	reqDur = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Subsystem: "http",
		Name:      "req_dur_ms",
		Help:      "HTTP request latencies in milliseconds.",
		Buckets:   HistogramBuckets,
	}, []string{"code", "method", "url"})

	billingOpDur = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Subsystem: "billing",
		Name:      "op_dur_ms",
		Help:      "Billing operation latency in milliseconds.",
		Buckets:   HistogramBuckets,
	}, []string{"op", "result"})

	reconcileCnt = promauto.NewCounterVec(prometheus.CounterOpts{
		Subsystem: "billing",
		Name:      "reconcile_total",
		Help:      "Membership reconciliation writes, partitioned by outcome.",
	}, []string{"result"})
)

func MillisecondsSince(start time.Time) float64 {
	return float64(time.Since(start).Milliseconds())
}

// ObserveBillingOp records the duration of one billing operation
// (purchase, restore, snapshot, reconcile).
func ObserveBillingOp(op string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	billingOpDur.WithLabelValues(op, result).Observe(MillisecondsSince(start))
}

func CountReconcile(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	reconcileCnt.WithLabelValues(result).Inc()
}

// GinMiddleware records request count and latency per route template.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		url := c.FullPath()
		if url == "" {
			url = c.Request.URL.Path
		}
		status := strconv.Itoa(c.Writer.Status())
		reqCnt.WithLabelValues(status, c.Request.Method, url).Inc()
		reqDur.WithLabelValues(status, c.Request.Method, url).Observe(MillisecondsSince(start))
	}
}

// Handler exposes the default registry, served on the metrics address.
func Handler() http.Handler {
	return promhttp.Handler()
}
