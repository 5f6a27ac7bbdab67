/*
Package flow implements declarative, multi-step login flows.

Each authentication method describes its flow as a Pipeline: an ordered,
immutable sequence of heterogeneous steps. A single Executor interprets the
pipeline against a transport, threading an evolving state value from each
step's output to the next step's input, and extracts a token from the
terminal state.

# Steps

A pipeline is built from five step kinds:

  - Supplier: produce a value from nothing (a JWT, a signed identity payload)
  - Map: pure transform of the current state, no I/O
  - OnNext: side-effecting observer of the current state, state unchanged
  - Request: an HTTP exchange whose body defaults to the current state and
    whose parsed response replaces it
  - Login: a terminal Request whose response is expected to carry a token

# Construction

Pipelines are built with a fluent, append-only API. Construction never
performs I/O; invalid step configuration is reported at construction time:

	p := flow.FromSupplier(jwtSupplier).
	    Map(func(v interface{}) (interface{}, error) {
	        return map[string]interface{}{"jwt": v, "role": "my-role"}, nil
	    }).
	    Login("auth/jwt/login")

# Execution

The same pipeline runs in two modes with identical per-step semantics:

	exec := flow.NewExecutor(client, p, flow.ExecutorOptions{Method: "jwt"})

	// Eager: runs on the caller's goroutine, blocking at request steps.
	tok, err := exec.Login(ctx)

	// Deferred: cold; nothing runs until Subscribe, and every Subscribe
	// re-runs the whole chain from scratch.
	outcome := <-exec.Deferred().Subscribe(ctx)

Step dispatch is a single function shared by both drivers; the drivers differ
only in how they wait for request steps to complete.
*/
package flow
