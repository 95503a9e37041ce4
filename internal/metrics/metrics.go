// Package metrics exposes Prometheus collectors for the marketplace.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "harvestiq",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "harvestiq",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	listingsSubmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "harvestiq",
			Subsystem: "listings",
			Name:      "submitted_total",
			Help:      "Listings submitted for review.",
		},
	)

	listingDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "harvestiq",
			Subsystem: "listings",
			Name:      "decisions_total",
			Help:      "Admin review decisions by outcome.",
		},
		[]string{"outcome"},
	)

	messagesPosted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "harvestiq",
			Subsystem: "threads",
			Name:      "messages_total",
			Help:      "Messages posted to listing threads by sender role.",
		},
		[]string{"role"},
	)

	checkoutLines = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "harvestiq",
			Subsystem: "checkout",
			Name:      "lines_total",
			Help:      "Cart lines processed at checkout by result.",
		},
		[]string{"result"},
	)

	orderAmount = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "harvestiq",
			Subsystem: "checkout",
			Name:      "order_amount",
			Help:      "Total amount of created orders.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		listingsSubmitted,
		listingDecisions,
		messagesPosted,
		checkoutLines,
		orderAmount,
	)
}

// Handler returns the HTTP handler serving the registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency per matched route.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		route := c.Route().Path
		httpRequests.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}

func RecordListingSubmitted() { listingsSubmitted.Inc() }

func RecordListingDecision(outcome string) { listingDecisions.WithLabelValues(outcome).Inc() }

func RecordMessagePosted(role string) { messagesPosted.WithLabelValues(role).Inc() }

// RecordCheckoutLine counts one cart line; result is "ordered" or the skip reason.
func RecordCheckoutLine(result string) { checkoutLines.WithLabelValues(result).Inc() }

func RecordOrder(amount float64) { orderAmount.Observe(amount) }
