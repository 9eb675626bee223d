// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/eaglebank/account-service/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeSuccess  = "success"
	OutcomeNotFound = "not_found"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

var (
	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "account_service_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "account_service_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"method", "route"},
	)

	ledgerOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "account_service_operations_total",
			Help: "Total number of account and balance operations by outcome",
		},
		[]string{"operation", "outcome"},
	)
)

// HTTPMetrics records a request count and latency per matched route.
func HTTPMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// RecordOperation counts one completed operation under the outcome err maps to.
func RecordOperation(operation string, err error) {
	ledgerOperations.WithLabelValues(operation, Outcome(err)).Inc()
}

// Outcome classifies an operation error for labelling.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, models.ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, models.ErrLimitExceeded),
		errors.Is(err, models.ErrOwnershipMismatch),
		errors.Is(err, models.ErrClosedAccount),
		errors.Is(err, models.ErrAlreadyClosed),
		errors.Is(err, models.ErrBalanceNotZero),
		errors.Is(err, models.ErrInvalidAmount),
		errors.Is(err, models.ErrInsufficientFunds),
		errors.Is(err, models.ErrAccountMismatch),
		errors.Is(err, models.ErrAmountMismatch),
		errors.Is(err, models.ErrInvalidState):
		return OutcomeRejected
	default:
		return OutcomeError
	}
}

func Handler() http.Handler {
	return promhttp.Handler()
}
