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

// Package logger provides structured logging utilities for vault-authkit.
// It defines standard log fields and helper functions for consistent logging
// across login flows, session managers, and method adapters.
package logger

import (
	"time"

	"github.com/go-logr/logr"
)

// Standard log field keys for consistent structured logging across the library.
// Using consistent keys makes log aggregation and querying much easier.
const (
	// KeyMethod identifies the authentication method (e.g., "jwt", "aws-iam")
	KeyMethod = "method"

	// KeyMount identifies the auth mount path in the backend
	KeyMount = "mount"

	// KeyStep identifies the pipeline step being executed
	KeyStep = "step"

	// KeyStepIndex is the position of the step within its pipeline
	KeyStepIndex = "stepIndex"

	// KeyVaultPath identifies the backend path being accessed
	KeyVaultPath = "vaultPath"

	// KeyOperation identifies the operation being performed (login, execute, invalidate)
	KeyOperation = "operation"

	// KeyDuration records the time taken for an operation
	KeyDuration = "duration"

	// KeyAccessor identifies a token by its accessor (never log the token itself)
	KeyAccessor = "accessor"

	// KeyRenewable indicates whether an acquired token is renewable
	KeyRenewable = "renewable"

	// KeyLeaseDuration is the time-to-live of an acquired token
	KeyLeaseDuration = "leaseDuration"

	// KeyError includes error details
	KeyError = "error"
)

// Operation types for logging
const (
	OpLogin      = "login"
	OpExecute    = "execute"
	OpStep       = "step"
	OpInvalidate = "invalidate"
	OpHealth     = "health"
)

// FlowLogger wraps a logr.Logger with additional context for login flows.
type FlowLogger struct {
	logr.Logger
	startTime time.Time
}

// NewFlowLogger creates a logger with standard login flow context.
// This should be called at the beginning of each flow execution.
func NewFlowLogger(log logr.Logger, method string) *FlowLogger {
	return &FlowLogger{
		Logger:    log.WithValues(KeyMethod, method),
		startTime: time.Now(),
	}
}

// WithOperation returns a new logger with operation context added.
func (f *FlowLogger) WithOperation(op string) *FlowLogger {
	return &FlowLogger{
		Logger:    f.Logger.WithValues(KeyOperation, op),
		startTime: f.startTime,
	}
}

// WithStep returns a new logger with step context added.
func (f *FlowLogger) WithStep(name string, index int) *FlowLogger {
	return &FlowLogger{
		Logger:    f.Logger.WithValues(KeyStep, name, KeyStepIndex, index),
		startTime: f.startTime,
	}
}

// WithMount returns a new logger with the auth mount path added.
func (f *FlowLogger) WithMount(mount string) *FlowLogger {
	return &FlowLogger{
		Logger:    f.Logger.WithValues(KeyMount, mount),
		startTime: f.startTime,
	}
}

// Duration returns the elapsed time since the logger was created.
func (f *FlowLogger) Duration() time.Duration {
	return time.Since(f.startTime)
}

// InfoWithDuration logs an info message with the elapsed duration.
func (f *FlowLogger) InfoWithDuration(msg string, keysAndValues ...interface{}) {
	f.Info(msg, append(keysAndValues, KeyDuration, f.Duration().String())...)
}

// ErrorWithDuration logs an error with the elapsed duration.
func (f *FlowLogger) ErrorWithDuration(err error, msg string, keysAndValues ...interface{}) {
	f.Error(err, msg, append(keysAndValues, KeyDuration, f.Duration().String())...)
}

// V returns a logger at the specified verbosity level.
func (f *FlowLogger) V(level int) *FlowLogger {
	return &FlowLogger{
		Logger:    f.Logger.V(level),
		startTime: f.startTime,
	}
}

// WithValues returns a new logger with additional key-value pairs.
func (f *FlowLogger) WithValues(keysAndValues ...interface{}) *FlowLogger {
	return &FlowLogger{
		Logger:    f.Logger.WithValues(keysAndValues...),
		startTime: f.startTime,
	}
}

// LogLoginStart logs the start of a login flow.
func (f *FlowLogger) LogLoginStart() {
	f.V(1).Info("starting login flow")
}

// LogLoginSuccess logs successful completion of a login flow.
func (f *FlowLogger) LogLoginSuccess(accessor string, renewable bool, lease time.Duration) {
	f.InfoWithDuration("login completed successfully",
		KeyAccessor, accessor,
		KeyRenewable, renewable,
		KeyLeaseDuration, lease.String(),
	)
}

// LogLoginError logs a login flow error.
func (f *FlowLogger) LogLoginError(err error) {
	f.ErrorWithDuration(err, "login failed")
}

// LogStep logs execution of a single pipeline step.
func (f *FlowLogger) LogStep(name string, index int) {
	f.V(1).Info("executing step", KeyStep, name, KeyStepIndex, index)
}

// LogRequest logs a request step with its target path.
func (f *FlowLogger) LogRequest(method, path string) {
	f.V(1).Info("issuing request", KeyOperation, method, KeyVaultPath, path)
}
