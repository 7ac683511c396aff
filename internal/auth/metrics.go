// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LetMeIn Contributors

package auth

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Result labels for authentication metrics.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultError   = "error"
	ResultStale   = "stale"
)

// AuthAttempts counts credential validations by account type and result.
// Use RegisterMetrics to register this with a Prometheus registry.
var AuthAttempts = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "letmein_auth_attempts_total",
		Help: "Total number of credential validations by account type and result",
	},
	[]string{"type", "result"},
)

// HashDuration observes how long a single password encode takes.
// Use RegisterMetrics to register this with a Prometheus registry.
var HashDuration = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "letmein_hash_duration_seconds",
		Help:    "Password hash computation duration in seconds",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	},
)

// Reauthentications counts per-request reauthentications from a persisted id.
// Use RegisterMetrics to register this with a Prometheus registry.
var Reauthentications = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "letmein_reauthentications_total",
		Help: "Total number of reauthentications from a persisted account id by result",
	},
	[]string{"result"},
)

// RegisterMetrics registers auth metrics with the given Prometheus registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(AuthAttempts)
	reg.MustRegister(HashDuration)
	reg.MustRegister(Reauthentications)
}

// RecordAuthAttempt increments the attempt counter.
func RecordAuthAttempt(typeName, result string) {
	AuthAttempts.WithLabelValues(typeName, result).Inc()
}

// RecordHashDuration records the duration of one encode.
func RecordHashDuration(d time.Duration) {
	HashDuration.Observe(d.Seconds())
}

// RecordReauthentication increments the reauthentication counter.
func RecordReauthentication(result string) {
	Reauthentications.WithLabelValues(result).Inc()
}
