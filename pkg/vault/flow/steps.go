package flow

import (
	"context"
	"fmt"

	"github.com/panteparak/vault-authkit/pkg/vault"
)

// Supplier produces a value from nothing. Suppliers back Supplier steps and
// one-shot credential sources (JWTs, identity documents, signed payloads).
type Supplier func(ctx context.Context) (interface{}, error)

// MapFunc is a pure transform of the current execution state. It must not
// perform I/O. A nil input means the state was undefined at this point.
type MapFunc func(in interface{}) (interface{}, error)

// Observer is invoked for its side effect only; the execution state passes
// through an OnNext step unchanged.
type Observer func(in interface{}) error

// stepKind discriminates the closed set of step variants. The executor
// dispatches on it; new step kinds are additions to the executor's switch,
// not new polymorphic call sites.
type stepKind int

const (
	kindSupplier stepKind = iota
	kindMap
	kindOnNext
	kindRequest
	kindLogin
)

// String returns the step kind name used in logs, metrics, and errors.
func (k stepKind) String() string {
	switch k {
	case kindSupplier:
		return "supplier"
	case kindMap:
		return "map"
	case kindOnNext:
		return "onNext"
	case kindRequest:
		return "request"
	case kindLogin:
		return "login"
	}
	return "unknown"
}

// step is one node of a pipeline: a tagged variant whose payload depends on
// its kind. Steps are immutable once appended.
type step struct {
	kind     stepKind
	supplier Supplier
	mapFn    MapFunc
	observer Observer
	req      *vault.Request
}

// name identifies a step within its pipeline for error messages.
func (s step) name(index int) string {
	return fmt.Sprintf("%s[%d]", s.kind, index)
}

// undefinedState is the sentinel held by the execution state before the
// first step runs. Steps that consume state must treat it as "no entity":
// nil input to map functions, an empty request body.
type undefinedState struct{}

func (undefinedState) String() string { return "undefined" }

var undefined interface{} = undefinedState{}

// stateInput converts the execution state to a step input, mapping the
// undefined sentinel to nil.
func stateInput(state interface{}) interface{} {
	if _, ok := state.(undefinedState); ok {
		return nil
	}
	return state
}

// describeState renders the execution state for error messages without
// leaking its value.
func describeState(state interface{}) string {
	if _, ok := state.(undefinedState); ok {
		return "undefined"
	}
	if state == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", state)
}
