package session

import (
	"context"

	"github.com/panteparak/vault-authkit/pkg/vault/flow"
	"github.com/panteparak/vault-authkit/pkg/vault/token"
)

// TokenSource supplies the token to attach to outbound backend requests.
// Manager implements it; the adapters below cover fixed tokens and cold
// per-call flows.
type TokenSource interface {
	Token(ctx context.Context) (*token.Token, error)
}

// TokenSourceFunc adapts a function to the TokenSource interface.
type TokenSourceFunc func(ctx context.Context) (*token.Token, error)

// Token implements TokenSource.
func (f TokenSourceFunc) Token(ctx context.Context) (*token.Token, error) {
	return f(ctx)
}

// StaticSource returns a source that always yields the same raw token.
// Used for externally managed tokens (dev servers, tokens injected by the
// platform) that never go through a login flow.
func StaticSource(raw string) TokenSource {
	tok := &token.Token{ClientToken: raw}
	return TokenSourceFunc(func(context.Context) (*token.Token, error) {
		return tok, nil
	})
}

// DeferredSource returns a source that runs the cold flow once per Token
// call. No caching is involved; wrap the source in a Manager to share the
// resulting token across callers.
func DeferredSource(deferred *flow.Deferred) TokenSource {
	return TokenSourceFunc(func(ctx context.Context) (*token.Token, error) {
		return deferred.Await(ctx)
	})
}

var _ TokenSource = (*Manager)(nil)
