package silo

import "sync"

// SingletonDef describes a singleton component: exactly one instance per
// Context, addressed without an entity id. Like ComponentDef it is
// immutable and may be registered with many Contexts independently.
type SingletonDef struct {
	defID  uint64
	name   string
	schema schemaSnapshot
}

// NewSingletonDef builds a singleton descriptor from a name and schema.
func NewSingletonDef(name string, schema *Schema) *SingletonDef {
	return &SingletonDef{
		defID:  nextDefID.Add(1),
		name:   name,
		schema: schema.snapshot(),
	}
}

// Name returns the singleton's human-readable name.
func (d *SingletonDef) Name() string { return d.name }

// singletonInstance is a SingletonDef bound to one Context.
type singletonInstance struct {
	def            *SingletonDef
	values         []Value
	lastWrittenTick uint32
}

func newSingletonInstance(ctx *Context, def *SingletonDef) *singletonInstance {
	values := make([]Value, len(def.schema.fields))
	for i, f := range def.schema.fields {
		values[i] = defaultOrZero(f.desc)
	}
	return &singletonInstance{def: def, values: values}
}

// RegisterSingleton binds def to ctx, creating it with its fields at their
// declared defaults/zeros if this is the first use. Registering the same
// def twice with the same Context is a no-op.
func (ctx *Context) RegisterSingleton(def *SingletonDef) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	if ctx.singletons == nil {
		ctx.singletons = make(map[uint64]*singletonInstance)
	}
	if _, ok := ctx.singletons[def.defID]; ok {
		return
	}
	ctx.singletons[def.defID] = newSingletonInstance(ctx, def)
}

func (ctx *Context) singleton(def *SingletonDef) *singletonInstance {
	ctx.mu.RLock()
	inst, ok := ctx.singletons[def.defID]
	ctx.mu.RUnlock()
	if ok {
		return inst
	}
	ctx.RegisterSingleton(def)
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()
	return ctx.singletons[def.defID]
}

// singletonMu guards reads/writes of a singleton's value slice and its
// lastWrittenTick, independent of Context.mu (which only protects the
// registry itself).
var singletonMu sync.Mutex

// Read returns a value-type snapshot of the singleton's current fields.
func (d *SingletonDef) Read(ctx *Context) Record {
	inst := ctx.singleton(d)
	singletonMu.Lock()
	defer singletonMu.Unlock()
	values := make([]Value, len(inst.values))
	copy(values, inst.values)
	return Record{schema: d.schema, values: values}
}

// Write sets a field by name on the singleton and stamps lastWrittenTick
// with the Context's current tick, so Changed can report staleness without
// a per-field dirty bitmap.
func (d *SingletonDef) Write(ctx *Context, name string, val Value) {
	inst := ctx.singleton(d)
	i, ok := d.schema.fieldIndex(name)
	if !ok {
		return
	}
	singletonMu.Lock()
	defer singletonMu.Unlock()
	inst.values[i] = val
	inst.lastWrittenTick = ctx.Tick()
}

// Changed reports whether this singleton was written at or after sinceTick.
func (d *SingletonDef) Changed(ctx *Context, sinceTick uint32) bool {
	inst := ctx.singleton(d)
	singletonMu.Lock()
	defer singletonMu.Unlock()
	return inst.lastWrittenTick >= sinceTick
}
