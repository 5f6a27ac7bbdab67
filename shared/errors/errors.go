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

// Package errors provides domain-specific error types for token acquisition.
// These errors help distinguish between different failure modes: misuse of
// the construction API, transport-level failures, protocol violations in a
// login flow, and top-level login failures surfaced to callers.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// UsageError indicates invalid pipeline or request configuration, such as
// specifying both a resolved URI and a URI template on one request step.
// It is raised at construction time, never deferred to execution.
type UsageError struct {
	Message string // What was configured incorrectly
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("usage error: %s", e.Message)
}

// NewUsageError creates a UsageError.
func NewUsageError(format string, args ...interface{}) *UsageError {
	return &UsageError{Message: fmt.Sprintf(format, args...)}
}

// IsUsageError returns true if the error is a UsageError.
func IsUsageError(err error) bool {
	var usageErr *UsageError
	return errors.As(err, &usageErr)
}

// RequestError indicates a transport-level failure during a request step:
// a connection failure or a non-2xx response. Backend-reported error text
// is preserved so callers can see what the server objected to.
type RequestError struct {
	Method     string   // HTTP method of the failed request
	URL        string   // Target URL (sensitive query values should not appear here)
	StatusCode int      // HTTP status code, 0 for connection failures
	Errors     []string // Error strings reported by the backend, if any
	Cause      error    // The underlying error, if any
}

func (e *RequestError) Error() string {
	switch {
	case len(e.Errors) > 0:
		return fmt.Sprintf("request %s %s failed with status %d: %s",
			e.Method, e.URL, e.StatusCode, strings.Join(e.Errors, "; "))
	case e.StatusCode != 0:
		return fmt.Sprintf("request %s %s failed with status %d", e.Method, e.URL, e.StatusCode)
	case e.Cause != nil:
		return fmt.Sprintf("request %s %s failed: %v", e.Method, e.URL, e.Cause)
	}
	return fmt.Sprintf("request %s %s failed", e.Method, e.URL)
}

// Unwrap returns the underlying cause for errors.As/Is support.
func (e *RequestError) Unwrap() error {
	return e.Cause
}

// NewRequestError creates a RequestError.
func NewRequestError(method, url string, statusCode int, backendErrors []string, cause error) *RequestError {
	return &RequestError{
		Method:     method,
		URL:        url,
		StatusCode: statusCode,
		Errors:     backendErrors,
		Cause:      cause,
	}
}

// IsRequestError returns true if the error is a RequestError.
func IsRequestError(err error) bool {
	var reqErr *RequestError
	return errors.As(err, &reqErr)
}

// StepError indicates a protocol failure while interpreting a login flow:
// a transform that failed, a terminal response missing its auth section, or
// a state value of an unexpected shape. It names the offending step and
// describes the state observed so flow failures are diagnosable.
type StepError struct {
	Step  string // Name of the offending step (e.g., "map[2]", "login")
	State string // Description of the state observed at the step
	Cause error  // The underlying error, if any
}

func (e *StepError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("step %s failed with state %s: %v", e.Step, e.State, e.Cause)
	}
	return fmt.Sprintf("step %s failed with state %s", e.Step, e.State)
}

// Unwrap returns the underlying cause for errors.As/Is support.
func (e *StepError) Unwrap() error {
	return e.Cause
}

// NewStepError creates a StepError.
func NewStepError(step, state string, cause error) *StepError {
	return &StepError{
		Step:  step,
		State: state,
		Cause: cause,
	}
}

// IsStepError returns true if the error is a StepError.
func IsStepError(err error) bool {
	var stepErr *StepError
	return errors.As(err, &stepErr)
}

// LoginError is the single error type callers of Login/Token observe when a
// token could not be obtained. It names the authentication method and wraps
// the triggering cause (RequestError, StepError, or supplier failure) without
// discarding it.
type LoginError struct {
	Method string // Authentication method name (e.g., "jwt", "aws-iam")
	Cause  error  // The underlying error
}

func (e *LoginError) Error() string {
	if e.Method != "" {
		return fmt.Sprintf("login with method %q failed: %v", e.Method, e.Cause)
	}
	return fmt.Sprintf("login failed: %v", e.Cause)
}

// Unwrap returns the underlying cause for errors.As/Is support.
func (e *LoginError) Unwrap() error {
	return e.Cause
}

// NewLoginError creates a LoginError.
func NewLoginError(method string, cause error) *LoginError {
	return &LoginError{
		Method: method,
		Cause:  cause,
	}
}

// IsLoginError returns true if the error is a LoginError.
func IsLoginError(err error) bool {
	var loginErr *LoginError
	return errors.As(err, &loginErr)
}
