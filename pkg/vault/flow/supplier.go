package flow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// StaticSupplier returns a supplier that always produces the same value.
func StaticSupplier(value interface{}) Supplier {
	return func(context.Context) (interface{}, error) {
		return value, nil
	}
}

// Once returns a supplier that invokes the delegate until it succeeds and
// caches the first successful value for all later calls. Errors are not
// cached; a failed attempt is retried on the next call. Safe for concurrent
// use.
func Once(delegate Supplier) Supplier {
	var (
		mu     sync.Mutex
		cached interface{}
		done   bool
	)
	return func(ctx context.Context) (interface{}, error) {
		mu.Lock()
		defer mu.Unlock()

		if done {
			return cached, nil
		}
		value, err := delegate(ctx)
		if err != nil {
			return nil, err
		}
		cached = value
		done = true
		return value, nil
	}
}

// CachedJWT caches a JWT produced by a delegate supplier and re-fetches it
// once the token's exp claim is within the configured skew of expiring.
// Tokens without an exp claim are cached until Invalidate. Safe for
// concurrent use.
type CachedJWT struct {
	mu       sync.Mutex
	delegate Supplier
	skew     time.Duration
	parser   *jwt.Parser

	cached string
	expiry time.Time
}

// NewCachedJWT wraps a JWT supplier with expiry-aware caching. The skew is
// subtracted from the token's exp claim so a token is refreshed before it
// actually expires; a zero skew defaults to 30 seconds.
func NewCachedJWT(delegate Supplier, skew time.Duration) *CachedJWT {
	if skew <= 0 {
		skew = 30 * time.Second
	}
	return &CachedJWT{
		delegate: delegate,
		skew:     skew,
		parser:   jwt.NewParser(jwt.WithoutClaimsValidation()),
	}
}

// Supply returns the cached JWT, fetching a fresh one from the delegate when
// none is cached or the cached token is about to expire. Supply is itself a
// Supplier.
func (c *CachedJWT) Supply(ctx context.Context) (interface{}, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached != "" && (c.expiry.IsZero() || time.Now().Add(c.skew).Before(c.expiry)) {
		return c.cached, nil
	}

	value, err := c.delegate(ctx)
	if err != nil {
		return nil, err
	}
	raw, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("jwt supplier produced %T, expected string", value)
	}

	c.cached = raw
	c.expiry = jwtExpiry(c.parser, raw)
	return raw, nil
}

// Invalidate discards the cached token so the next Supply fetches afresh.
func (c *CachedJWT) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cached = ""
	c.expiry = time.Time{}
}

// jwtExpiry extracts the exp claim without verifying the signature; the
// backend verifies, the cache only needs the lifetime. Unparseable tokens
// and tokens without exp are treated as non-expiring.
func jwtExpiry(parser *jwt.Parser, raw string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
