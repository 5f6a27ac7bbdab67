package flow

import (
	"context"
	"net/http"

	"github.com/panteparak/vault-authkit/pkg/vault"
	autherrors "github.com/panteparak/vault-authkit/shared/errors"
)

// Pipeline is an ordered, immutable sequence of steps describing a login
// flow. Every chaining call returns a new pipeline sharing the existing
// steps; the receiver is never mutated, so intermediate pipelines can be
// stored and extended along multiple branches safely.
//
// Construction performs no I/O. Invalid step configuration (a malformed
// request, a nil function) is recorded on the pipeline and surfaces from
// Err and from every execution attempt.
type Pipeline struct {
	steps []step
	err   error
}

// FromSupplier starts a pipeline whose first state is produced by the given
// supplier.
func FromSupplier(supplier Supplier) *Pipeline {
	if supplier == nil {
		return &Pipeline{err: autherrors.NewUsageError("pipeline started with a nil supplier")}
	}
	return &Pipeline{steps: []step{{kind: kindSupplier, supplier: supplier}}}
}

// FromValue starts a pipeline whose first state is a fixed value.
func FromValue(value interface{}) *Pipeline {
	return FromSupplier(func(context.Context) (interface{}, error) {
		return value, nil
	})
}

// FromRequest starts a pipeline with an HTTP request step.
func FromRequest(req *vault.Request) *Pipeline {
	return (&Pipeline{}).Request(req)
}

// FromLoginRequest starts a pipeline consisting of a single terminal login
// step, for flows where one exchange yields the token directly.
func FromLoginRequest(req *vault.Request) *Pipeline {
	return (&Pipeline{}).LoginRequest(req)
}

// Map appends a pure transform of the current state.
func Map(fn MapFunc) *Pipeline {
	return (&Pipeline{}).Map(fn)
}

// Map appends a pure transform of the current state. The function receives
// nil when the state is still undefined.
func (p *Pipeline) Map(fn MapFunc) *Pipeline {
	if p.err != nil {
		return p
	}
	if fn == nil {
		return p.fail(autherrors.NewUsageError("map step requires a non-nil function"))
	}
	return p.append(step{kind: kindMap, mapFn: fn})
}

// OnNext appends a side-effecting observer of the current state. The state
// passes through unchanged; an observer error aborts the flow.
func (p *Pipeline) OnNext(fn Observer) *Pipeline {
	if p.err != nil {
		return p
	}
	if fn == nil {
		return p.fail(autherrors.NewUsageError("onNext step requires a non-nil observer"))
	}
	return p.append(step{kind: kindOnNext, observer: fn})
}

// Request appends an HTTP exchange step. When the request has no explicit
// body, the current execution state is sent instead; the parsed response
// becomes the new state.
func (p *Pipeline) Request(req *vault.Request) *Pipeline {
	return p.appendRequest(kindRequest, req)
}

// Login appends a terminal POST to a backend login path built from a URI
// template, expecting a token-carrying response. The current state is sent
// as the login payload.
func (p *Pipeline) Login(template string, vars ...string) *Pipeline {
	return p.appendRequest(kindLogin,
		vault.NewTemplateRequest(http.MethodPost, template, vars...).Expecting(vault.ResponseSecret))
}

// LoginRequest appends a terminal login step from a fully built request.
func (p *Pipeline) LoginRequest(req *vault.Request) *Pipeline {
	return p.appendRequest(kindLogin, req)
}

// Err returns the first construction error recorded on the pipeline, if any.
func (p *Pipeline) Err() error {
	return p.err
}

// Len returns the number of steps in the pipeline.
func (p *Pipeline) Len() int {
	return len(p.steps)
}

func (p *Pipeline) appendRequest(kind stepKind, req *vault.Request) *Pipeline {
	if p.err != nil {
		return p
	}
	if req == nil {
		return p.fail(autherrors.NewUsageError("%s step requires a non-nil request", kind))
	}
	if err := req.Validate(); err != nil {
		return p.fail(err)
	}
	return p.append(step{kind: kind, req: req})
}

// append returns a new pipeline extended with one step. The full slice
// expression pins capacity so sibling pipelines built from the same prefix
// never overwrite each other's steps.
func (p *Pipeline) append(s step) *Pipeline {
	prefix := p.steps[:len(p.steps):len(p.steps)]
	return &Pipeline{steps: append(prefix, s)}
}

func (p *Pipeline) fail(err error) *Pipeline {
	return &Pipeline{steps: p.steps, err: err}
}
