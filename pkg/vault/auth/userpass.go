package auth

import (
	"github.com/go-logr/logr"

	"github.com/panteparak/vault-authkit/pkg/vault"
	"github.com/panteparak/vault-authkit/pkg/vault/flow"
	autherrors "github.com/panteparak/vault-authkit/shared/errors"
)

// DefaultUserpassMount is the default mount path for the userpass backend.
const DefaultUserpassMount = "userpass"

// UserpassOptions configures username/password authentication.
type UserpassOptions struct {
	// Mount is the auth mount path (default: "userpass").
	Mount string

	// Username to log in as. Becomes part of the login path.
	Username string

	// Password for the user.
	Password string

	// Logger receives flow logs; defaults to discarding.
	Logger logr.Logger
}

// NewUserpassMethod creates a username/password login method.
func NewUserpassMethod(transport vault.Transport, opts UserpassOptions) (*Method, error) {
	if opts.Username == "" {
		return nil, autherrors.NewUsageError("userpass method requires a username")
	}
	if opts.Password == "" {
		return nil, autherrors.NewUsageError("userpass method requires a password")
	}
	mount := opts.Mount
	if mount == "" {
		mount = DefaultUserpassMount
	}

	pipeline := flow.FromValue(map[string]interface{}{"password": opts.Password}).
		Login("auth/{mount}/login/{username}", mount, opts.Username)

	return newMethod("userpass", transport, pipeline, opts.Logger)
}
