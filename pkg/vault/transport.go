package vault

import "context"

// Transport is the boundary to the HTTP transport consumed by login flows.
// Execute resolves the request target, issues the exchange, and returns the
// parsed response body according to the request's ResponseKind: *api.Secret
// for ResponseSecret, map[string]interface{} for ResponseJSON, string for
// ResponseText. Non-2xx responses and connection failures surface as
// *errors.RequestError.
type Transport interface {
	Execute(ctx context.Context, req *Request) (interface{}, error)
}

// Exchange is the outcome of one asynchronous transport exchange.
type Exchange struct {
	Value interface{}
	Err   error
}

// ExecuteAsync is the single-value asynchronous form of Transport.Execute,
// with identical semantics. The returned channel is buffered and delivers
// exactly one Exchange; the exchange is abandoned (its result discarded)
// when ctx is cancelled first.
func ExecuteAsync(ctx context.Context, t Transport, req *Request) <-chan Exchange {
	out := make(chan Exchange, 1)
	go func() {
		value, err := t.Execute(ctx, req)
		out <- Exchange{Value: value, Err: err}
	}()
	return out
}
