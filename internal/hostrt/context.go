package hostrt

import executor "github.com/graphyne/graphyne/internal/executor"

// Context is the per-invocation object handed to resolvers whose shape asks
// for one. Immutable once constructed.
type Context struct {
	ObjectType string
	Field      string

	// Root and Value are the request-scoped root value and context value.
	Root  any
	Value any

	lookahead func() *executor.Lookahead
}

// Lookahead returns a snapshot of the field's nested selection set. The
// snapshot is built on first use; leaf fields return nil.
func (c *Context) Lookahead() *executor.Lookahead {
	if c.lookahead == nil {
		return nil
	}
	return c.lookahead()
}
