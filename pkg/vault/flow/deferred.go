package flow

import (
	"context"

	"github.com/panteparak/vault-authkit/pkg/vault"
	"github.com/panteparak/vault-authkit/pkg/vault/token"
)

// Outcome is the single result of one deferred execution: exactly one of
// Token and Err is set.
type Outcome struct {
	Token *token.Token
	Err   error
}

// Deferred is the cold execution mode of a pipeline. Nothing runs until
// Subscribe is called, and every subscription re-runs the entire chain from
// scratch, so a retrying caller always exercises the full flow including
// fresh credential supply.
type Deferred struct {
	exec *Executor
}

// Deferred returns the cold execution mode of the executor's pipeline.
func (e *Executor) Deferred() *Deferred {
	return &Deferred{exec: e}
}

// Subscribe starts one execution of the pipeline on a new goroutine and
// returns a channel that delivers exactly one outcome and is then closed.
// Cancelling the context aborts the execution between steps; a cancelled
// run delivers the context error and never a partial token.
func (d *Deferred) Subscribe(ctx context.Context) <-chan Outcome {
	out := make(chan Outcome, 1)
	go func() {
		defer close(out)
		tok, err := d.exec.login(ctx, d.exchange)
		out <- Outcome{Token: tok, Err: err}
	}()
	return out
}

// Await subscribes and blocks until the outcome arrives or the context is
// done, whichever comes first.
func (d *Deferred) Await(ctx context.Context) (*token.Token, error) {
	select {
	case outcome := <-d.Subscribe(ctx):
		return outcome.Token, outcome.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// exchange performs a request step through the transport's asynchronous
// form, suspending on either the exchange or cancellation.
func (d *Deferred) exchange(ctx context.Context, req *vault.Request) (interface{}, error) {
	select {
	case ex := <-vault.ExecuteAsync(ctx, d.exec.transport, req):
		return ex.Value, ex.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
