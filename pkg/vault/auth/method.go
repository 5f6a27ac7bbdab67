package auth

import (
	"context"

	"github.com/go-logr/logr"

	"github.com/panteparak/vault-authkit/pkg/vault"
	"github.com/panteparak/vault-authkit/pkg/vault/flow"
	"github.com/panteparak/vault-authkit/pkg/vault/token"
)

// Method is a login method backed by a pipeline. It implements
// session.LoginMethod; adapters in this package construct it with their
// method-specific pipeline.
type Method struct {
	name string
	exec *flow.Executor
}

// newMethod wraps a pipeline in a Method, surfacing pipeline construction
// errors immediately so misconfiguration never waits for the first login.
func newMethod(name string, transport vault.Transport, pipeline *flow.Pipeline, log logr.Logger) (*Method, error) {
	if err := pipeline.Err(); err != nil {
		return nil, err
	}
	return &Method{
		name: name,
		exec: flow.NewExecutor(transport, pipeline, flow.ExecutorOptions{Method: name, Logger: log}),
	}, nil
}

// Name identifies the method in logs, metrics, and events.
func (m *Method) Name() string {
	return m.name
}

// Login runs the method's flow eagerly.
func (m *Method) Login(ctx context.Context) (*token.Token, error) {
	return m.exec.Login(ctx)
}

// Deferred returns the cold execution mode of the method's flow.
func (m *Method) Deferred() *flow.Deferred {
	return m.exec.Deferred()
}
