package auth

import (
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/panteparak/vault-authkit/pkg/metrics"
)

// NonceCache holds the reauthentication nonce for the EC2 login flow. The
// backend binds an instance to the nonce it presented on first login, so
// the value must be generated at most once and stay stable for the lifetime
// of the cache no matter how many logins race on it.
type NonceCache struct {
	value    atomic.Pointer[string]
	generate func() string
}

// NewNonceCache creates a nonce cache. A nil generator defaults to random
// UUIDs.
func NewNonceCache(generate func() string) *NonceCache {
	if generate == nil {
		generate = uuid.NewString
	}
	return &NonceCache{generate: generate}
}

// Get returns the cached nonce, generating one on first use. When callers
// race, exactly one generated value wins the compare-and-set and everyone
// observes that value; losing candidates are discarded.
func (c *NonceCache) Get() string {
	if v := c.value.Load(); v != nil {
		return *v
	}

	candidate := c.generate()
	metrics.IncrementNonceGeneration()
	if c.value.CompareAndSwap(nil, &candidate) {
		return candidate
	}
	return *c.value.Load()
}

// Set seeds the cache with a known nonce, for instances that already
// authenticated in an earlier process. It reports whether the value was
// stored; a cache that already holds a nonce is left unchanged.
func (c *NonceCache) Set(nonce string) bool {
	return c.value.CompareAndSwap(nil, &nonce)
}

// Peek returns the cached nonce without generating one.
func (c *NonceCache) Peek() (string, bool) {
	if v := c.value.Load(); v != nil {
		return *v, true
	}
	return "", false
}
