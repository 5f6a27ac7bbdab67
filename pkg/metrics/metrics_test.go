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

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegister(t *testing.T) {
	registry := prometheus.NewRegistry()

	// Registering all collectors on a fresh registry must not panic
	Register(registry)
}

func TestIncrementLogin(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		success bool
		label   string
	}{
		{
			name:    "successful login increments success counter",
			method:  "jwt-inc-test",
			success: true,
			label:   ResultSuccess,
		},
		{
			name:    "failed login increments failure counter",
			method:  "jwt-inc-test-fail",
			success: false,
			label:   ResultFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(LoginTotal.WithLabelValues(tt.method, tt.label))
			IncrementLogin(tt.method, tt.success)
			after := testutil.ToFloat64(LoginTotal.WithLabelValues(tt.method, tt.label))

			if after != before+1 {
				t.Errorf("IncrementLogin() counter = %v, want %v", after, before+1)
			}
		})
	}
}

func TestSetSessionTokenHeld(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		held     bool
		expected float64
	}{
		{
			name:     "held token sets gauge to 1",
			method:   "approle-held",
			held:     true,
			expected: 1.0,
		},
		{
			name:     "empty slot sets gauge to 0",
			method:   "approle-empty",
			held:     false,
			expected: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			SetSessionTokenHeld(tt.method, tt.held)

			gauge := SessionTokenHeldGauge.WithLabelValues(tt.method)
			value := testutil.ToFloat64(gauge)

			if value != tt.expected {
				t.Errorf("SetSessionTokenHeld() = %v, want %v", value, tt.expected)
			}
		})
	}
}

func TestCacheCounters(t *testing.T) {
	method := "cache-counter-test"

	hitsBefore := testutil.ToFloat64(TokenCacheHitsTotal.WithLabelValues(method))
	missesBefore := testutil.ToFloat64(TokenCacheMissesTotal.WithLabelValues(method))

	IncrementTokenCacheHit(method)
	IncrementTokenCacheHit(method)
	IncrementTokenCacheMiss(method)

	if got := testutil.ToFloat64(TokenCacheHitsTotal.WithLabelValues(method)); got != hitsBefore+2 {
		t.Errorf("hits = %v, want %v", got, hitsBefore+2)
	}
	if got := testutil.ToFloat64(TokenCacheMissesTotal.WithLabelValues(method)); got != missesBefore+1 {
		t.Errorf("misses = %v, want %v", got, missesBefore+1)
	}
}

func TestIncrementStep(t *testing.T) {
	before := testutil.ToFloat64(StepTotal.WithLabelValues("map", ResultSuccess))
	IncrementStep("map", true)
	after := testutil.ToFloat64(StepTotal.WithLabelValues("map", ResultSuccess))

	if after != before+1 {
		t.Errorf("IncrementStep() counter = %v, want %v", after, before+1)
	}
}

func TestIncrementNonceGeneration(t *testing.T) {
	before := testutil.ToFloat64(NonceGenerationsTotal)
	IncrementNonceGeneration()
	after := testutil.ToFloat64(NonceGenerationsTotal)

	if after != before+1 {
		t.Errorf("IncrementNonceGeneration() counter = %v, want %v", after, before+1)
	}
}
