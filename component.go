package silo

import "sync/atomic"

// ComponentID is a world-scoped component identifier in [0, N). It is
// assigned in registration order and has no meaning across Contexts; two
// Contexts that register the same ComponentDef may assign it different
// ids (see ComponentDef doc).
type ComponentID uint16

// maxComponents bounds how many distinct components a single Context may
// register. It matches the width of mask.Mask256, the bitmask type used
// throughout this package for membership/with/without/any/tracking masks.
const maxComponents = 256

var nextDefID atomic.Uint64

// ComponentDef is an immutable descriptor: a name, an ordered schema, and a
// process-unique defID used only as the lookup key into a Context's
// component-instance map. It carries no component id of its own: ids are
// assigned per registration, per Context, in Context.Register.
type ComponentDef struct {
	defID  uint64
	name   string
	schema schemaSnapshot
}

// NewComponentDef builds a component descriptor from a name and a schema
// builder. The same ComponentDef may be registered with many Contexts,
// receiving an independent ComponentID in each.
func NewComponentDef(name string, schema *Schema) *ComponentDef {
	return &ComponentDef{
		defID:  nextDefID.Add(1),
		name:   name,
		schema: schema.snapshot(),
	}
}

// Name returns the component's human-readable name.
func (d *ComponentDef) Name() string { return d.name }

// componentInstance is a ComponentDef bound to one Context: its assigned
// id plus one column per schema field, in schema order.
type componentInstance struct {
	def     *ComponentDef
	id      ComponentID
	columns []*column
}

// Register binds def to this Context, assigning it the next available
// ComponentID (registration order) if it has not already been registered
// with this Context. Registering the same def twice with the same Context
// returns the existing id.
func (ctx *Context) Register(def *ComponentDef) (ComponentID, error) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()

	if id, ok := ctx.defToID[def.defID]; ok {
		return id, nil
	}
	if len(ctx.byID) >= maxComponents {
		return 0, InvalidFieldSpecError{Field: def.name, Reason: "component registry is at capacity (256)"}
	}

	id := ComponentID(len(ctx.byID))
	columns := make([]*column, len(def.schema.fields))
	for i, f := range def.schema.fields {
		columns[i] = newColumn(f.desc, ctx.maxEntities)
	}
	inst := &componentInstance{def: def, id: id, columns: columns}

	ctx.defToID[def.defID] = id
	ctx.byID = append(ctx.byID, inst)
	ctx.byName[def.name] = inst
	return id, nil
}

// ComponentID returns def's id within ctx, registering it first if needed.
func (d *ComponentDef) ComponentID(ctx *Context) (ComponentID, error) {
	return ctx.Register(d)
}

// instance resolves def's bound componentInstance within ctx, registering
// it if this is the first use.
func (d *ComponentDef) instance(ctx *Context) *componentInstance {
	id, err := ctx.Register(d)
	if err != nil {
		panic(err)
	}
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()
	return ctx.byID[id]
}

// Record is an owned, value-type snapshot of one entity's component
// instance: no backing references, safe to retain past the call that
// produced it. Both Def.Read and Def.Snapshot return this type; the
// rebindable-proxy pattern is reserved for Write alone.
type Record struct {
	schema schemaSnapshot
	values []Value
}

// Get returns the value of a named field and whether the field exists in
// this component's schema.
func (r Record) Get(name string) (Value, bool) {
	i, ok := r.schema.fieldIndex(name)
	if !ok {
		return Value{}, false
	}
	return r.values[i], true
}

// Fields returns the component's field names in schema order.
func (r Record) Fields() []string {
	names := make([]string, len(r.schema.fields))
	for i, f := range r.schema.fields {
		names[i] = f.name
	}
	return names
}

// Read returns a value-type snapshot of eid's instance of this component.
// Reading a component the entity does not carry is undefined; callers must
// ensure membership first (see HasComponent).
func (d *ComponentDef) Read(ctx *Context, eid Eid) Record {
	inst := d.instance(ctx)
	values := make([]Value, len(inst.columns))
	for i, col := range inst.columns {
		if inst.def.schema.fields[i].desc.kind == FieldRef {
			values[i] = resolveRef(ctx, inst, i, eid)
			continue
		}
		values[i] = col.get(eid)
	}
	return Record{schema: inst.def.schema, values: values}
}

// Snapshot returns an owned record with no backing references. In this
// implementation it is identical to Read: both already return plain value
// types, so there is nothing further to copy.
func (d *ComponentDef) Snapshot(ctx *Context, eid Eid) Record {
	return d.Read(ctx, eid)
}

// View is a rebindable write proxy: its Set calls always target the eid it
// currently holds. Callers must not retain a View past a Rebind, nor past
// the call that produced it.
type View struct {
	ctx  *Context
	inst *componentInstance
	eid  Eid
}

// Write returns a rebindable proxy targeting eid's instance of this
// component for in-place field writes.
func (d *ComponentDef) Write(ctx *Context, eid Eid) *View {
	return &View{ctx: ctx, inst: d.instance(ctx), eid: eid}
}

// Rebind repoints the view at a different entity, for reuse across a
// cursor loop without reallocating.
func (v *View) Rebind(eid Eid) { v.eid = eid }

// Set writes a field by name, then marks (eid, component) dirty for this
// tick so at most one COMPONENT_CHANGED event is coalesced regardless of
// how many fields were written this tick.
func (v *View) Set(name string, val Value) {
	i, ok := v.inst.def.schema.fieldIndex(name)
	if !ok {
		return
	}
	v.inst.columns[i].set(v.eid, val)
	v.ctx.markChanged(v.eid, v.inst.id)
}

// Get reads a field back through the same proxy (a fresh value, never an
// alias into the column).
func (v *View) Get(name string) (Value, bool) {
	i, ok := v.inst.def.schema.fieldIndex(name)
	if !ok {
		return Value{}, false
	}
	if v.inst.def.schema.fields[i].desc.kind == FieldRef {
		return resolveRef(v.ctx, v.inst, i, v.eid), true
	}
	return v.inst.columns[i].get(v.eid), true
}
