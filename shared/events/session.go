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

package events

import "time"

// Session event type constants.
const (
	TokenAcquiredType    = "token.acquired"
	LoginFailedType      = "login.failed"
	TokenInvalidatedType = "token.invalidated"
)

// TokenAcquired is published when a session manager obtains a token from the
// backend. Subscribers can use it to schedule renewal or update caches.
type TokenAcquired struct {
	BaseEvent
	// Method is the authentication method that produced the token
	Method string
	// Accessor is the token accessor, safe to log (never the token itself)
	Accessor string
	// Renewable indicates whether the token can be renewed
	Renewable bool
	// LeaseDuration is the token's time-to-live at acquisition
	LeaseDuration time.Duration
}

// Type returns the event type identifier.
func (e TokenAcquired) Type() string {
	return TokenAcquiredType
}

// NewTokenAcquired creates a TokenAcquired event.
func NewTokenAcquired(method, accessor string, renewable bool, leaseDuration time.Duration) TokenAcquired {
	return TokenAcquired{
		BaseEvent:     NewBaseEvent(TokenAcquiredType),
		Method:        method,
		Accessor:      accessor,
		Renewable:     renewable,
		LeaseDuration: leaseDuration,
	}
}

// LoginFailed is published when a login attempt fails. This allows for
// monitoring and alerting on authentication issues.
type LoginFailed struct {
	BaseEvent
	// Method is the authentication method that failed
	Method string
	// Error describes what went wrong
	Error string
}

// Type returns the event type identifier.
func (e LoginFailed) Type() string {
	return LoginFailedType
}

// NewLoginFailed creates a LoginFailed event.
func NewLoginFailed(method, errMsg string) LoginFailed {
	return LoginFailed{
		BaseEvent: NewBaseEvent(LoginFailedType),
		Method:    method,
		Error:     errMsg,
	}
}

// TokenInvalidated is published when a cached token is explicitly dropped
// from a session manager. The next Token call will trigger a fresh login.
type TokenInvalidated struct {
	BaseEvent
	// Method is the authentication method whose token was dropped
	Method string
	// Accessor is the accessor of the dropped token
	Accessor string
}

// Type returns the event type identifier.
func (e TokenInvalidated) Type() string {
	return TokenInvalidatedType
}

// NewTokenInvalidated creates a TokenInvalidated event.
func NewTokenInvalidated(method, accessor string) TokenInvalidated {
	return TokenInvalidated{
		BaseEvent: NewBaseEvent(TokenInvalidatedType),
		Method:    method,
		Accessor:  accessor,
	}
}
