package stage

import "context"

// Worker is the one-method interface every stage implementation satisfies
// (the "capability set modelled as an interface, never inheritance" style
// named in the spec's design notes). Implementations must treat the
// taskCtx *Context argument as read-only: only the Engine mutates slots and
// counters, via ApplyStageOutput/AppendError.
type Worker interface {
	Run(ctx context.Context, taskCtx *Context) (Output, error)
}

// WorkerFunc adapts a plain function to Worker, mirroring the standard
// library's net/http.HandlerFunc pattern.
type WorkerFunc func(ctx context.Context, taskCtx *Context) (Output, error)

// Run calls f(ctx, taskCtx).
func (f WorkerFunc) Run(ctx context.Context, taskCtx *Context) (Output, error) {
	return f(ctx, taskCtx)
}
