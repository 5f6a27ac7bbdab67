package auth

import (
	"github.com/go-logr/logr"

	"github.com/panteparak/vault-authkit/pkg/vault/flow"
	"github.com/panteparak/vault-authkit/pkg/vault/token"
	autherrors "github.com/panteparak/vault-authkit/shared/errors"
)

// TokenOptions configures the static token method.
type TokenOptions struct {
	// Token is the externally managed client token.
	Token string

	// Logger receives flow logs; defaults to discarding.
	Logger logr.Logger
}

// NewTokenMethod creates a method for an externally supplied token. No login
// call is made: the flow maps the configured value to a token, which the
// executor passes through unchanged.
func NewTokenMethod(opts TokenOptions) (*Method, error) {
	if opts.Token == "" {
		return nil, autherrors.NewUsageError("token method requires a token")
	}

	tok := &token.Token{ClientToken: opts.Token}
	pipeline := flow.Map(func(interface{}) (interface{}, error) {
		return tok, nil
	})

	return newMethod("token", nil, pipeline, opts.Logger)
}
