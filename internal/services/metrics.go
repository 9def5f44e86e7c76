package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	paymentOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shieldher_payment_operations_total",
		Help: "Payment gateway calls by operation and outcome.",
	}, []string{"operation", "outcome"})

	reportsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shieldher_reports_submitted_total",
		Help: "Anonymous reports stored.",
	})
)
