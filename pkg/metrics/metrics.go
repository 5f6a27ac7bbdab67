/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package metrics provides Prometheus metrics for vault-authkit.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Result labels for metrics.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

var (
	// LoginTotal counts login attempts by method and result.
	LoginTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vault_authkit",
			Subsystem: "login",
			Name:      "attempts_total",
			Help:      "Total number of login attempts",
		},
		[]string{"method", "result"},
	)

	// LoginDuration observes the wall-clock duration of login flows.
	LoginDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vault_authkit",
			Subsystem: "login",
			Name:      "duration_seconds",
			Help:      "Duration of login flow executions in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// StepTotal counts pipeline step executions by step kind and result.
	StepTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vault_authkit",
			Subsystem: "flow",
			Name:      "steps_total",
			Help:      "Total number of pipeline step executions",
		},
		[]string{"kind", "result"},
	)

	// TokenCacheHitsTotal counts session token reads served from cache.
	TokenCacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vault_authkit",
			Subsystem: "session",
			Name:      "token_cache_hits_total",
			Help:      "Total number of token reads served from the session cache",
		},
		[]string{"method"},
	)

	// TokenCacheMissesTotal counts session token reads that required a login.
	TokenCacheMissesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vault_authkit",
			Subsystem: "session",
			Name:      "token_cache_misses_total",
			Help:      "Total number of token reads that triggered a login",
		},
		[]string{"method"},
	)

	// SessionTokenHeldGauge tracks whether a session currently holds a token.
	// Value is 1 when a token is cached, 0 when the slot is empty.
	SessionTokenHeldGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "vault_authkit",
			Subsystem: "session",
			Name:      "token_held",
			Help:      "Whether the session holds a cached token (1=held, 0=empty)",
		},
		[]string{"method"},
	)

	// NonceGenerationsTotal counts nonce generator invocations. Under a race
	// this can exceed the number of stored nonces; losers are discarded.
	NonceGenerationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "vault_authkit",
			Subsystem: "nonce",
			Name:      "generations_total",
			Help:      "Total number of nonce generator invocations",
		},
	)
)

// Register registers all vault-authkit collectors with the given registerer.
// Libraries must not force a global registry on their host application, so
// registration is explicit; pass prometheus.DefaultRegisterer to use the
// process-wide default.
func Register(r prometheus.Registerer) {
	r.MustRegister(
		LoginTotal,
		LoginDuration,
		StepTotal,
		TokenCacheHitsTotal,
		TokenCacheMissesTotal,
		SessionTokenHeldGauge,
		NonceGenerationsTotal,
	)
}

// IncrementLogin increments the login attempt counter.
func IncrementLogin(method string, success bool) {
	result := ResultFailure
	if success {
		result = ResultSuccess
	}
	LoginTotal.WithLabelValues(method, result).Inc()
}

// ObserveLoginDuration records the duration of a login flow in seconds.
func ObserveLoginDuration(method string, seconds float64) {
	LoginDuration.WithLabelValues(method).Observe(seconds)
}

// IncrementStep increments the pipeline step counter.
func IncrementStep(kind string, success bool) {
	result := ResultFailure
	if success {
		result = ResultSuccess
	}
	StepTotal.WithLabelValues(kind, result).Inc()
}

// IncrementTokenCacheHit increments the cache hit counter.
func IncrementTokenCacheHit(method string) {
	TokenCacheHitsTotal.WithLabelValues(method).Inc()
}

// IncrementTokenCacheMiss increments the cache miss counter.
func IncrementTokenCacheMiss(method string) {
	TokenCacheMissesTotal.WithLabelValues(method).Inc()
}

// SetSessionTokenHeld sets whether the session for a method holds a token.
func SetSessionTokenHeld(method string, held bool) {
	val := 0.0
	if held {
		val = 1.0
	}
	SessionTokenHeldGauge.WithLabelValues(method).Set(val)
}

// IncrementNonceGeneration increments the nonce generation counter.
func IncrementNonceGeneration() {
	NonceGenerationsTotal.Inc()
}
