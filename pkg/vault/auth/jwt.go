package auth

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/panteparak/vault-authkit/pkg/vault"
	"github.com/panteparak/vault-authkit/pkg/vault/flow"
	autherrors "github.com/panteparak/vault-authkit/shared/errors"
)

// DefaultJWTMount is the default mount path for the jwt backend.
const DefaultJWTMount = "jwt"

// JWTOptions configures JWT/OIDC authentication.
type JWTOptions struct {
	// Mount is the auth mount path (default: "jwt").
	Mount string

	// Role is the backend role to authenticate as.
	Role string

	// JWT is a static token. Mutually exclusive with Supplier.
	JWT string

	// Supplier produces the JWT per login (file read, TokenRequest API,
	// identity provider). Wrap it with CachedJWTSupplier when the token is
	// expensive to obtain and carries an exp claim.
	Supplier flow.Supplier

	// Logger receives flow logs; defaults to discarding.
	Logger logr.Logger
}

// NewJWTMethod creates a JWT login method. The supplier runs on every login,
// so short-lived identity tokens are re-fetched naturally.
func NewJWTMethod(transport vault.Transport, opts JWTOptions) (*Method, error) {
	if opts.Role == "" {
		return nil, autherrors.NewUsageError("jwt method requires a role")
	}

	supplier := opts.Supplier
	switch {
	case opts.JWT != "" && supplier != nil:
		return nil, autherrors.NewUsageError("jwt method accepts a static JWT or a supplier, not both")
	case opts.JWT != "":
		supplier = flow.StaticSupplier(opts.JWT)
	case supplier == nil:
		return nil, autherrors.NewUsageError("jwt method requires a JWT or a supplier")
	}

	mount := opts.Mount
	if mount == "" {
		mount = DefaultJWTMount
	}

	role := opts.Role
	pipeline := flow.FromSupplier(supplier).
		Map(func(jwt interface{}) (interface{}, error) {
			raw, ok := jwt.(string)
			if !ok {
				return nil, fmt.Errorf("jwt supplier produced %T, expected string", jwt)
			}
			if raw == "" {
				return nil, fmt.Errorf("jwt supplier produced an empty token")
			}
			return map[string]interface{}{"jwt": raw, "role": role}, nil
		}).
		Login("auth/{mount}/login", mount)

	return newMethod("jwt", transport, pipeline, opts.Logger)
}

// FileJWTSupplier reads the JWT from a file on every call. Used for tokens
// the platform rotates in place (projected service account tokens, mounted
// secrets).
func FileJWTSupplier(path string) flow.Supplier {
	return func(context.Context) (interface{}, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read JWT from file %s: %w", path, err)
		}
		return strings.TrimSpace(string(data)), nil
	}
}

// CachedJWTSupplier wraps a JWT supplier with expiry-aware caching: the
// delegate is only consulted when the cached token is within skew of its
// exp claim.
func CachedJWTSupplier(delegate flow.Supplier, skew time.Duration) flow.Supplier {
	return flow.NewCachedJWT(delegate, skew).Supply
}
