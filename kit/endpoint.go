// Package kit holds the transport-agnostic plumbing shared by the HTTP and
// MCP surfaces: an Endpoint is the operation, transports only decode and
// encode around it.
package kit

import "context"

// Endpoint is a single operation taking a decoded request.
type Endpoint func(ctx context.Context, req any) (any, error)

// Middleware wraps an Endpoint.
type Middleware func(Endpoint) Endpoint

// Chain composes middlewares so the first one is the outermost.
func Chain(mws ...Middleware) Middleware {
	return func(next Endpoint) Endpoint {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}

// WithRequestIDs assigns a request id from newID when the context has none.
func WithRequestIDs(newID func() string) Middleware {
	return func(next Endpoint) Endpoint {
		return func(ctx context.Context, req any) (any, error) {
			if GetRequestID(ctx) == "" {
				ctx = WithRequestID(ctx, newID())
			}
			return next(ctx, req)
		}
	}
}
