package auth

import (
	"net/http"

	"github.com/go-logr/logr"

	"github.com/panteparak/vault-authkit/pkg/vault"
	"github.com/panteparak/vault-authkit/pkg/vault/flow"
	autherrors "github.com/panteparak/vault-authkit/shared/errors"
)

// CubbyholeOptions configures wrapped-token authentication: a single-use
// wrapping token is exchanged for the real token it wraps.
type CubbyholeOptions struct {
	// WrappingToken is the single-use token produced by response wrapping.
	WrappingToken string

	// Logger receives flow logs; defaults to discarding.
	Logger logr.Logger
}

// NewCubbyholeMethod creates a wrapped-token login method. The unwrap call
// authenticates with the wrapping token itself; the response's auth section
// carries the real token. Wrapping tokens are single-use, so a retried
// login needs a fresh one.
func NewCubbyholeMethod(transport vault.Transport, opts CubbyholeOptions) (*Method, error) {
	if opts.WrappingToken == "" {
		return nil, autherrors.NewUsageError("cubbyhole method requires a wrapping token")
	}

	pipeline := flow.FromLoginRequest(
		vault.NewRequest(http.MethodPost, "sys/wrapping/unwrap").
			WithHeader("X-Vault-Token", opts.WrappingToken).
			Expecting(vault.ResponseSecret))

	return newMethod("cubbyhole", transport, pipeline, opts.Logger)
}
