package silo

// factory implements the factory pattern for silo's constructors.
type factory struct{}

// Factory is the package's constructor entry point.
var Factory factory

// NewContext creates a new Context from cfg.
func (f factory) NewContext(cfg ContextConfig) *Context {
	return NewContext(cfg)
}

// NewSchema starts a new schema builder.
func (f factory) NewSchema() *Schema {
	return NewSchema()
}

// NewComponentDef builds a component descriptor.
func (f factory) NewComponentDef(name string, schema *Schema) *ComponentDef {
	return NewComponentDef(name, schema)
}

// NewSingletonDef builds a singleton component descriptor.
func (f factory) NewSingletonDef(name string, schema *Schema) *SingletonDef {
	return NewSingletonDef(name, schema)
}

// NewQuery starts a query builder bound to ctx.
func (f factory) NewQuery(ctx *Context) *QueryBuilder {
	return NewQuery(ctx)
}

// NewCursor takes a snapshot-backed cursor over q.
func (f factory) NewCursor(q *Query) (*Cursor, error) {
	return NewCursor(q)
}

// NewOperationQueue returns an empty deferred-operation queue.
func (f factory) NewOperationQueue() *OperationQueue {
	return NewOperationQueue()
}
