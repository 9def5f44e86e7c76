package security

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loginFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shieldher_login_failures_total",
		Help: "Number of failed admin login attempts.",
	})

	alertsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shieldher_security_alerts_total",
		Help: "Number of security alerts raised, by severity.",
	}, []string{"severity"})

	// RateLimitRejections is incremented by the rate limit middleware.
	RateLimitRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shieldher_rate_limit_rejections_total",
		Help: "Number of requests rejected by a rate limiter, by limiter name.",
	}, []string{"limiter"})
)
