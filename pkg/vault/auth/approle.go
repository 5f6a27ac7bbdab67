package auth

import (
	"github.com/go-logr/logr"

	"github.com/panteparak/vault-authkit/pkg/vault"
	"github.com/panteparak/vault-authkit/pkg/vault/flow"
	autherrors "github.com/panteparak/vault-authkit/shared/errors"
)

// DefaultAppRoleMount is the default mount path for the approle backend.
const DefaultAppRoleMount = "approle"

// AppRoleOptions configures AppRole authentication.
type AppRoleOptions struct {
	// Mount is the auth mount path (default: "approle").
	Mount string

	// RoleID identifies the AppRole.
	RoleID string

	// SecretID is a static secret_id. Mutually exclusive with
	// SecretIDSupplier. Both empty means the role was configured with
	// bind_secret_id=false.
	SecretID string

	// SecretIDSupplier produces a fresh secret_id per login, for response
	// wrapping or single-use secret_id setups.
	SecretIDSupplier flow.Supplier

	// Logger receives flow logs; defaults to discarding.
	Logger logr.Logger
}

// NewAppRoleMethod creates an AppRole login method.
func NewAppRoleMethod(transport vault.Transport, opts AppRoleOptions) (*Method, error) {
	if opts.RoleID == "" {
		return nil, autherrors.NewUsageError("approle method requires a role_id")
	}
	if opts.SecretID != "" && opts.SecretIDSupplier != nil {
		return nil, autherrors.NewUsageError("approle method accepts a secret_id or a supplier, not both")
	}
	mount := opts.Mount
	if mount == "" {
		mount = DefaultAppRoleMount
	}

	var pipeline *flow.Pipeline
	switch {
	case opts.SecretIDSupplier != nil:
		roleID := opts.RoleID
		pipeline = flow.FromSupplier(opts.SecretIDSupplier).
			Map(func(secretID interface{}) (interface{}, error) {
				return map[string]interface{}{"role_id": roleID, "secret_id": secretID}, nil
			}).
			Login("auth/{mount}/login", mount)
	case opts.SecretID != "":
		pipeline = flow.FromValue(map[string]interface{}{
			"role_id":   opts.RoleID,
			"secret_id": opts.SecretID,
		}).Login("auth/{mount}/login", mount)
	default:
		pipeline = flow.FromValue(map[string]interface{}{"role_id": opts.RoleID}).
			Login("auth/{mount}/login", mount)
	}

	return newMethod("approle", transport, pipeline, opts.Logger)
}
