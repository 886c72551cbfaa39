// Package graphyne executes GraphQL operations over values owned by a host
// runtime. A declarative schema document names the types and fields; a
// resolver registry binds field resolvers that run on a single loop goroutine
// holding the host token. The engine plans execution breadth first, batching
// every async resolution at the same depth into one runtime call.
package graphyne

import (
	"context"
	"fmt"
	"sync"

	executor "github.com/graphyne/graphyne/internal/executor"
	hostrt "github.com/graphyne/graphyne/internal/hostrt"
	hostval "github.com/graphyne/graphyne/internal/hostval"
	language "github.com/graphyne/graphyne/internal/language"
	schema "github.com/graphyne/graphyne/internal/schema"
)

// Re-exported building blocks for schema documents and resolver registries.
type (
	Document      = schema.Document
	Registry      = hostrt.Registry
	Entry         = hostrt.Entry
	ScalarBinding = hostrt.ScalarBinding
	ResolveInfo   = hostrt.Context
	Tagged        = hostrt.Tagged
	HostError     = hostrt.HostError

	Loop  = hostval.Loop
	Token = hostval.Token
)

// Registry construction and resolver shapes.
var (
	NewRegistry        = hostrt.NewRegistry
	SelfOnly           = hostrt.SelfOnly
	SelfAndContext     = hostrt.SelfAndContext
	SelfAndArgs        = hostrt.SelfAndArgs
	SelfContextAndArgs = hostrt.SelfContextAndArgs
)

// Value tagging helpers for abstract types, enums and inputs.
var (
	Object = hostrt.Object
	Enum   = hostrt.Enum
	Input  = hostrt.Input
)

// ParseSchema decodes a YAML schema document.
func ParseSchema(data []byte) (*Document, error) {
	return schema.DecodeYAML(data)
}

// Engine binds a built schema to a host runtime and executes operations
// against it. An Engine is safe for concurrent use.
type Engine struct {
	schema  *schema.Schema
	runtime *hostrt.Runtime
	exec    *executor.Executor

	loop      *hostval.Loop
	ownsLoop  bool
	closeOnce sync.Once
}

type engineOptions struct {
	loop *hostval.Loop
	host hostrt.Options
}

// Option configures engine construction.
type Option func(*engineOptions)

// WithWorkerThreads sets the number of goroutines used to drain an async
// resolver batch. Conflicts with WithCurrentThread.
func WithWorkerThreads(n int) Option {
	return func(o *engineOptions) { o.host.WorkerThreads = n }
}

// WithCurrentThread runs async batches sequentially on the calling goroutine.
func WithCurrentThread() Option {
	return func(o *engineOptions) { o.host.UseCurrentThread = true }
}

// WithLoop runs the engine on an existing host loop instead of owning one.
// The caller remains responsible for closing the loop.
func WithLoop(loop *hostval.Loop) Option {
	return func(o *engineOptions) { o.loop = loop }
}

// New builds the schema from doc and wires it to the resolvers in reg.
// Every field that names a resolver must have an entry registered under
// that key. Unless WithLoop is given, the engine starts and owns its loop.
func New(doc *schema.Document, reg *hostrt.Registry, opts ...Option) (*Engine, error) {
	var eo engineOptions
	for _, f := range opts {
		f(&eo)
	}

	sch, err := schema.Build(doc)
	if err != nil {
		return nil, err
	}

	loop := eo.loop
	owns := false
	if loop == nil {
		loop = hostval.NewLoop()
		owns = true
	}

	rt, err := hostrt.NewRuntime(loop, sch, reg, eo.host)
	if err != nil {
		if owns {
			loop.Close()
		}
		return nil, err
	}

	return &Engine{
		schema:   sch,
		runtime:  rt,
		exec:     executor.NewExecutor(rt, sch),
		loop:     loop,
		ownsLoop: owns,
	}, nil
}

// Loop returns the host loop the engine runs on.
func (e *Engine) Loop() *hostval.Loop { return e.loop }

// SDL renders the schema in GraphQL SDL.
func (e *Engine) SDL() string { return schema.Render(e.schema) }

// Close shuts down the host loop when the engine owns it. Idempotent.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		if e.ownsLoop {
			e.loop.Close()
		}
	})
}

type requestOptions struct {
	operationName string
	variables     map[string]any
	root          any
	contextValue  any
}

// RequestOption configures a single Execute or Subscribe call.
type RequestOption func(*requestOptions)

// WithOperationName selects the operation when the document defines several.
func WithOperationName(name string) RequestOption {
	return func(o *requestOptions) { o.operationName = name }
}

// WithVariables supplies operation variables as host values. They are
// converted to canonical values before coercion.
func WithVariables(vars map[string]any) RequestOption {
	return func(o *requestOptions) { o.variables = vars }
}

// WithRoot sets the root value. Resolverless root fields read attributes
// from it.
func WithRoot(root any) RequestOption {
	return func(o *requestOptions) { o.root = root }
}

// WithContextValue attaches a request-scoped value readable from resolver
// contexts for the duration of the request.
func WithContextValue(v any) RequestOption {
	return func(o *requestOptions) { o.contextValue = v }
}

// Location points at a position in the query document.
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// ResponseError is one error in a response. Path entries are field response
// names (string) and list indices (int).
type ResponseError struct {
	Message    string         `json:"message"`
	Locations  []Location     `json:"locations,omitempty"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// Response is the result of one operation or one subscription event.
// Errors and Extensions are never nil.
type Response struct {
	Data       any             `json:"data"`
	Errors     []ResponseError `json:"errors"`
	Extensions map[string]any  `json:"extensions"`
}

// Execute runs a query or mutation. Request-level failures such as syntax
// errors are reported in the Response; the error return is reserved for
// engine misuse (for example variables the host cannot convert).
func (e *Engine) Execute(ctx context.Context, query string, opts ...RequestOption) (*Response, error) {
	var ro requestOptions
	for _, f := range opts {
		f(&ro)
	}

	doc, err := language.ParseQuery(query)
	if err != nil {
		return errorOnlyResponse(err), nil
	}

	vars, err := e.convertVariables(ctx, ro.variables)
	if err != nil {
		return nil, err
	}

	ctx = e.requestContext(ctx, &ro)
	result := e.exec.ExecuteRequest(ctx, doc, ro.operationName, vars, ro.root)
	return toResponse(result), nil
}

func (e *Engine) requestContext(ctx context.Context, ro *requestOptions) context.Context {
	if ro.root == nil && ro.contextValue == nil {
		return ctx
	}
	return executor.WithRequestData(ctx, &executor.RequestData{
		Root:    ro.root,
		Context: ro.contextValue,
	})
}

// convertVariables turns host variable values into canonical values the
// executor can coerce. The loop token is taken once per variable.
func (e *Engine) convertVariables(ctx context.Context, in map[string]any) (map[string]any, error) {
	if len(in) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(in))
	for name, v := range in {
		cv, err := e.runtime.ToValue(ctx, v)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", name, err)
		}
		out[name] = cv.ToAny()
	}
	return out, nil
}

func toResponse(result *executor.ExecutionResult) *Response {
	resp := &Response{
		Data:       result.Data,
		Errors:     []ResponseError{},
		Extensions: map[string]any{},
	}
	for _, ge := range result.Errors {
		re := ResponseError{Message: ge.Message, Extensions: ge.Extensions}
		for _, loc := range ge.Locations {
			re.Locations = append(re.Locations, Location{Line: loc.Line, Column: loc.Column})
		}
		for _, pe := range ge.Path {
			re.Path = append(re.Path, pe)
		}
		resp.Errors = append(resp.Errors, re)
	}
	return resp
}

func errorOnlyResponse(err error) *Response {
	resp := &Response{Errors: []ResponseError{}, Extensions: map[string]any{}}
	re := ResponseError{Message: err.Error()}
	if ge, ok := err.(*language.Error); ok {
		re.Message = ge.Message
		for _, loc := range ge.Locations {
			re.Locations = append(re.Locations, Location{Line: loc.Line, Column: loc.Column})
		}
	}
	resp.Errors = append(resp.Errors, re)
	return resp
}
