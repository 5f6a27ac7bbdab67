package session

import (
	"context"
	"sync"
	"time"

	"github.com/go-logr/logr"

	"github.com/panteparak/vault-authkit/pkg/logger"
	"github.com/panteparak/vault-authkit/pkg/metrics"
	"github.com/panteparak/vault-authkit/pkg/vault/token"
	"github.com/panteparak/vault-authkit/shared/events"
)

// LoginMethod performs a complete login flow and yields a token. Every
// adapter in the auth package implements it.
type LoginMethod interface {
	// Name identifies the method in logs, metrics, and events.
	Name() string

	// Login runs the method's flow against the backend.
	Login(ctx context.Context) (*token.Token, error)
}

// DefaultExpirySkew is how long before a token's lease deadline the manager
// treats it as expired and logs in again.
const DefaultExpirySkew = 5 * time.Second

// ManagerOptions configures a Manager. The zero value is usable.
type ManagerOptions struct {
	// ExpirySkew is subtracted from the token lease when deciding whether a
	// cached token is still usable. Defaults to DefaultExpirySkew.
	ExpirySkew time.Duration

	// Logger receives session lifecycle logs.
	Logger logr.Logger

	// Bus, when set, receives TokenAcquired, LoginFailed, and
	// TokenInvalidated events.
	Bus *events.EventBus
}

// Manager caches the token produced by a login method and guards the login
// so concurrent callers trigger it at most once. A failed login is never
// cached: the failure is returned to every caller waiting on that attempt,
// and the next call starts a fresh login.
type Manager struct {
	method LoginMethod
	skew   time.Duration
	log    logr.Logger
	bus    *events.EventBus

	mu  sync.RWMutex
	tok *token.Token
}

// NewManager creates a session manager around a login method.
func NewManager(method LoginMethod, opts ManagerOptions) *Manager {
	skew := opts.ExpirySkew
	if skew <= 0 {
		skew = DefaultExpirySkew
	}
	return &Manager{
		method: method,
		skew:   skew,
		log:    opts.Logger.WithValues(logger.KeyMethod, method.Name()),
		bus:    opts.Bus,
	}
}

// Token returns the cached token, logging in first when none is held or the
// held one is expired. Concurrent callers that find no usable token
// serialize on the write lock and re-check before logging in, so only the
// first of them reaches the backend.
func (m *Manager) Token(ctx context.Context) (*token.Token, error) {
	m.mu.RLock()
	if tok := m.tok; tok != nil && !tok.IsExpired(m.skew) {
		m.mu.RUnlock()
		metrics.IncrementTokenCacheHit(m.method.Name())
		return tok, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Another caller may have finished the login while we waited.
	if tok := m.tok; tok != nil && !tok.IsExpired(m.skew) {
		metrics.IncrementTokenCacheHit(m.method.Name())
		return tok, nil
	}

	metrics.IncrementTokenCacheMiss(m.method.Name())
	m.log.V(1).Info("acquiring session token", logger.KeyOperation, logger.OpLogin)

	tok, err := m.method.Login(ctx)
	if err != nil {
		m.tok = nil
		metrics.SetSessionTokenHeld(m.method.Name(), false)
		m.publish(ctx, events.NewLoginFailed(m.method.Name(), err.Error()))
		return nil, err
	}

	m.tok = tok
	metrics.SetSessionTokenHeld(m.method.Name(), true)
	m.publish(ctx, events.NewTokenAcquired(m.method.Name(), tok.Accessor, tok.Renewable, tok.LeaseDuration))
	m.log.Info("session token acquired",
		logger.KeyAccessor, tok.Accessor,
		logger.KeyRenewable, tok.Renewable,
		logger.KeyLeaseDuration, tok.LeaseDuration.String(),
	)
	return tok, nil
}

// Invalidate drops the cached token so the next Token call logs in again.
// Dropping is idempotent; invalidating an empty session is a no-op.
func (m *Manager) Invalidate(ctx context.Context) {
	m.mu.Lock()
	tok := m.tok
	m.tok = nil
	m.mu.Unlock()

	if tok == nil {
		return
	}

	metrics.SetSessionTokenHeld(m.method.Name(), false)
	m.publish(ctx, events.NewTokenInvalidated(m.method.Name(), tok.Accessor))
	m.log.Info("session token invalidated",
		logger.KeyOperation, logger.OpInvalidate,
		logger.KeyAccessor, tok.Accessor,
	)
}

// HasToken reports whether a usable token is currently held.
func (m *Manager) HasToken() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tok != nil && !m.tok.IsExpired(m.skew)
}

// Method returns the login method guarded by this manager.
func (m *Manager) Method() LoginMethod {
	return m.method
}

func (m *Manager) publish(ctx context.Context, event events.Event) {
	if m.bus == nil {
		return
	}
	m.bus.PublishAsync(ctx, event)
}
