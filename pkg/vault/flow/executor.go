package flow

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/hashicorp/vault/api"

	"github.com/panteparak/vault-authkit/pkg/logger"
	"github.com/panteparak/vault-authkit/pkg/metrics"
	"github.com/panteparak/vault-authkit/pkg/vault"
	"github.com/panteparak/vault-authkit/pkg/vault/token"
	autherrors "github.com/panteparak/vault-authkit/shared/errors"
)

// exchangeFunc performs one HTTP exchange. The eager and deferred drivers
// supply different implementations; step semantics are otherwise identical.
type exchangeFunc func(ctx context.Context, req *vault.Request) (interface{}, error)

// ExecutorOptions configures an Executor. The zero value is usable: the
// method name defaults to "unknown" and logging is discarded.
type ExecutorOptions struct {
	// Method names the authentication method in logs, metrics, and errors.
	Method string

	// Logger receives flow-level logs.
	Logger logr.Logger
}

// Executor interprets a pipeline against a transport. One executor is safe
// for concurrent use; every execution threads its own state.
type Executor struct {
	transport vault.Transport
	pipeline  *Pipeline
	method    string
	log       logr.Logger
}

// NewExecutor creates an executor for the given pipeline.
func NewExecutor(transport vault.Transport, pipeline *Pipeline, opts ExecutorOptions) *Executor {
	method := opts.Method
	if method == "" {
		method = "unknown"
	}
	return &Executor{
		transport: transport,
		pipeline:  pipeline,
		method:    method,
		log:       opts.Logger,
	}
}

// Login runs the pipeline eagerly on the calling goroutine, blocking at each
// request step, and returns the token extracted from the terminal state.
// Every failure is reported as a LoginError wrapping the underlying cause.
func (e *Executor) Login(ctx context.Context) (*token.Token, error) {
	return e.login(ctx, e.transport.Execute)
}

func (e *Executor) login(ctx context.Context, exchange exchangeFunc) (*token.Token, error) {
	flog := logger.NewFlowLogger(e.log, e.method)
	flog.LogLoginStart()

	start := time.Now()
	tok, err := e.run(ctx, exchange, flog)
	metrics.ObserveLoginDuration(e.method, time.Since(start).Seconds())

	if err != nil {
		metrics.IncrementLogin(e.method, false)
		flog.LogLoginError(err)
		return nil, autherrors.NewLoginError(e.method, err)
	}

	metrics.IncrementLogin(e.method, true)
	flog.LogLoginSuccess(tok.Accessor, tok.Renewable, tok.LeaseDuration)
	return tok, nil
}

// run drives the pipeline steps and extracts the terminal token. Cancellation
// is honored between steps: once the context is done, no further step runs
// and no token is extracted.
func (e *Executor) run(ctx context.Context, exchange exchangeFunc, flog *logger.FlowLogger) (*token.Token, error) {
	if e.pipeline == nil || len(e.pipeline.steps) == 0 {
		return nil, autherrors.NewUsageError("pipeline declares no steps")
	}
	if err := e.pipeline.Err(); err != nil {
		return nil, err
	}

	state := undefined
	for i, st := range e.pipeline.steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		flog.LogStep(st.kind.String(), i)
		next, err := e.runStep(ctx, exchange, st, state)
		if err != nil {
			metrics.IncrementStep(st.kind.String(), false)
			return nil, autherrors.NewStepError(st.name(i), describeState(state), err)
		}
		metrics.IncrementStep(st.kind.String(), true)
		state = next
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return extractToken(state)
}

// runStep dispatches one step. It is the single interpretation point for
// both execution modes.
func (e *Executor) runStep(ctx context.Context, exchange exchangeFunc, st step, state interface{}) (interface{}, error) {
	switch st.kind {
	case kindSupplier:
		return st.supplier(ctx)

	case kindMap:
		return st.mapFn(stateInput(state))

	case kindOnNext:
		if err := st.observer(stateInput(state)); err != nil {
			return nil, err
		}
		return state, nil

	case kindRequest, kindLogin:
		if e.transport == nil {
			return nil, autherrors.NewUsageError("pipeline contains a request step but no transport is configured")
		}
		req := st.req.Clone()
		if req.Body == nil {
			if in := stateInput(state); in != nil {
				req.Body = in
			}
		}
		return exchange(ctx, req)
	}

	return nil, autherrors.NewUsageError("unknown step kind %d", st.kind)
}

// extractToken converts the terminal execution state into a token. A token
// already produced upstream passes through untouched; a structured login
// response has its auth section converted; anything else cannot complete a
// login.
func extractToken(state interface{}) (*token.Token, error) {
	switch v := state.(type) {
	case *token.Token:
		return v, nil
	case *api.Secret:
		tok, err := token.FromSecret(v)
		if err != nil {
			return nil, err
		}
		return tok, nil
	}
	return nil, fmt.Errorf("terminal state %s carries no token", describeState(state))
}
