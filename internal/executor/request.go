package executor

import "context"

// RequestData carries the request-scoped values every resolver invocation in
// a request may read: the root value and the per-request context value. Both
// live exactly as long as the request.
type RequestData struct {
	Root    any
	Context any
}

type requestDataKey struct{}

// WithRequestData attaches request-scoped data to the context.
func WithRequestData(ctx context.Context, data *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, data)
}

// RequestDataFrom returns the request-scoped data, or nil when absent.
func RequestDataFrom(ctx context.Context) *RequestData {
	data, _ := ctx.Value(requestDataKey{}).(*RequestData)
	return data
}
