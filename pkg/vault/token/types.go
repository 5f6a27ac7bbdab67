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

package token

import (
	"errors"
	"time"

	"github.com/hashicorp/vault/api"
)

// ErrNoAuth indicates a login response that carried no auth section.
var ErrNoAuth = errors.New("login response contains no auth section")

// Token is the credential returned by a successful login, with the metadata
// the backend reports alongside it.
type Token struct {
	// ClientToken is the opaque credential value. Never log it; use the
	// Accessor when a token needs to be identified in logs or events.
	ClientToken string

	// Accessor identifies the token without granting its capabilities.
	Accessor string

	// Renewable indicates whether the token's lease can be extended.
	Renewable bool

	// LeaseDuration is the token's time-to-live at issue.
	LeaseDuration time.Duration

	// Policies are the policies attached to the token.
	Policies []string

	// Metadata carries method-specific metadata from the auth section
	// (e.g., "instance_id" for EC2 logins, "service_account_email" for GCP).
	Metadata map[string]string

	// IssuedAt is when this Token value was constructed. Used together with
	// LeaseDuration to compute expiry.
	IssuedAt time.Time
}

// FromSecret constructs a Token from the auth section of a login response.
// It returns ErrNoAuth when the response or its auth section is missing.
func FromSecret(secret *api.Secret) (*Token, error) {
	if secret == nil || secret.Auth == nil {
		return nil, ErrNoAuth
	}

	auth := secret.Auth
	return &Token{
		ClientToken:   auth.ClientToken,
		Accessor:      auth.Accessor,
		Renewable:     auth.Renewable,
		LeaseDuration: time.Duration(auth.LeaseDuration) * time.Second,
		Policies:      auth.Policies,
		Metadata:      auth.Metadata,
		IssuedAt:      time.Now(),
	}, nil
}

// ExpiresAt returns when the token's lease ends. A zero LeaseDuration means
// the token does not expire and ExpiresAt returns the zero time.
func (t *Token) ExpiresAt() time.Time {
	if t.LeaseDuration == 0 {
		return time.Time{}
	}
	return t.IssuedAt.Add(t.LeaseDuration)
}

// IsExpired reports whether the token's lease has ended, treating anything
// within skew of the deadline as already expired. Tokens without a lease
// never expire.
func (t *Token) IsExpired(skew time.Duration) bool {
	expiresAt := t.ExpiresAt()
	if expiresAt.IsZero() {
		return false
	}
	return time.Now().Add(skew).After(expiresAt)
}

// String returns a loggable description of the token. The client token value
// itself is redacted.
func (t *Token) String() string {
	return "token(accessor=" + t.Accessor + ")"
}
