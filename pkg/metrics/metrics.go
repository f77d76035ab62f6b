package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// VerificationOutcomes records registration pipeline decisions (approved|review|rejected).
	VerificationOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "civigo_verification_outcomes_total",
			Help: "Total number of registration verification decisions",
		},
		[]string{"outcome"},
	)

	// LoginAttempts records biometric login attempts by result (success|mismatch|low_confidence|quality|error).
	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "civigo_login_attempts_total",
			Help: "Total number of biometric login attempts",
		},
		[]string{"result"},
	)

	// TokenRedemptions counts one-time login token redemptions (success|invalid|error).
	TokenRedemptions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "civigo_login_token_redemptions_total",
			Help: "Total number of one-time login token redemptions",
		},
		[]string{"result"},
	)

	// ProviderLatency measures external vision/storage provider call latencies.
	ProviderLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "civigo_provider_latency_seconds",
			Help:    "External provider call latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "civigo_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
