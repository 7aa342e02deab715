package silo

import "sync"

// ContextConfig bounds a Context's capacities, fixed at construction time.
type ContextConfig struct {
	// MaxEntities is the size of the entity id space, [0, MaxEntities).
	MaxEntities int
	// MaxEvents is the EventBuffer ring capacity.
	MaxEvents int
	// ThreadCount and ThreadIndex configure this Context's slice of a
	// parallel worker shape; a single-threaded driver leaves ThreadCount
	// at its default of 1 and ThreadIndex at 0.
	ThreadCount int
	ThreadIndex int
}

// DefaultConfig returns reasonable defaults for a single-threaded driver.
func DefaultConfig() ContextConfig {
	return ContextConfig{MaxEntities: 1 << 16, MaxEvents: 1 << 14, ThreadCount: 1, ThreadIndex: 0}
}

// Context is the world-scoped bundle of buffers and counters every
// operation in this package threads through. A single Context is safe to
// share across the goroutines of a parallel-worker shape; each worker
// partitions the id space with its own threadIndex argument to ThreadOwns
// rather than owning a separate Context. See the worker subpackage.
type Context struct {
	mu sync.RWMutex

	maxEntities int
	maxEvents   int
	threadCount int
	threadIndex int

	entityBuffer *EntityBuffer
	eventBuffer  *EventBuffer
	pool         *Pool

	defToID map[uint64]ComponentID
	byID    []*componentInstance
	byName  map[string]*componentInstance

	tickMu sync.RWMutex
	tick   uint32

	queries    []*registeredQuery
	singletons map[uint64]*singletonInstance
}

// NewContext builds a fresh, empty Context from cfg.
func NewContext(cfg ContextConfig) *Context {
	if cfg.MaxEntities <= 0 {
		cfg.MaxEntities = DefaultConfig().MaxEntities
	}
	if cfg.MaxEvents <= 0 {
		cfg.MaxEvents = DefaultConfig().MaxEvents
	}
	if cfg.ThreadCount <= 0 {
		cfg.ThreadCount = 1
	}
	return &Context{
		maxEntities:  cfg.MaxEntities,
		maxEvents:    cfg.MaxEvents,
		threadCount:  cfg.ThreadCount,
		threadIndex:  cfg.ThreadIndex,
		entityBuffer: newEntityBuffer(cfg.MaxEntities),
		eventBuffer:  newEventBuffer(cfg.MaxEvents, cfg.MaxEntities),
		pool:         newPool(cfg.MaxEntities),
		defToID:      make(map[uint64]ComponentID),
		byName:       make(map[string]*componentInstance),
	}
}

// MaxEntities returns the configured entity id space size.
func (ctx *Context) MaxEntities() int { return ctx.maxEntities }

// ComponentCount returns how many components have been registered so far.
func (ctx *Context) ComponentCount() int {
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()
	return len(ctx.byID)
}

// Tick returns the current tick counter.
func (ctx *Context) Tick() uint32 {
	ctx.tickMu.RLock()
	defer ctx.tickMu.RUnlock()
	return ctx.tick
}

// AdvanceTick increments the monotonic tick counter by one. It is the
// external driver's responsibility to call this exactly once per frame
// boundary; nothing here keys on wall-clock time.
func (ctx *Context) AdvanceTick() uint32 {
	ctx.tickMu.Lock()
	defer ctx.tickMu.Unlock()
	ctx.tick++
	ctx.eventBuffer.clearDirty()
	return ctx.tick
}

// ThreadCount and ThreadIndex report this Context's slice of a parallel
// worker shape.
func (ctx *Context) ThreadCount() int { return ctx.threadCount }
func (ctx *Context) ThreadIndex() int { return ctx.threadIndex }

// markChanged records a field write against (eid, cid) and, the first time
// this pair goes dirty in the current tick, appends a coalesced
// COMPONENT_CHANGED event.
func (ctx *Context) markChanged(eid Eid, cid ComponentID) {
	if ctx.eventBuffer.markChanged(eid, cid) {
		ctx.eventBuffer.push(EventRecord{Kind: EventComponentChanged, Eid: eid, Cid: cid})
	}
}

// lookupRegistered returns def's ComponentID within ctx without registering
// it as a side effect, for use by query compilation: callers return
// InvalidQuery if a listed component was never registered.
func (ctx *Context) lookupRegistered(def *ComponentDef) (ComponentID, bool) {
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()
	id, ok := ctx.defToID[def.defID]
	return id, ok
}

func (ctx *Context) instanceByID(id ComponentID) *componentInstance {
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()
	return ctx.byID[id]
}

// CreateEntity allocates an id from the Pool, asserts its alive bit, and
// emits ENTITY_ADDED.
func CreateEntity(ctx *Context) (Eid, error) {
	eid, err := ctx.pool.Acquire()
	if err != nil {
		return 0, err
	}
	ctx.entityBuffer.resetForReuse(eid)
	ctx.entityBuffer.setAlive(eid, true)
	ctx.eventBuffer.push(EventRecord{Kind: EventEntityAdded, Eid: eid})
	return eid, nil
}

// RemoveEntity clears the alive bit and emits ENTITY_REMOVED. Membership
// bits and column data are left intact so that removed()-query readers can
// still observe the outgoing state; the membership mask is only zeroed when
// the id is handed back out by CreateEntity. The id returns to the Pool at
// once and the Pool reuses the most recently released id first, so a
// CreateEntity later in the same tick can take this id and zero its mask.
func RemoveEntity(ctx *Context, eid Eid) error {
	if !ctx.entityBuffer.Alive(eid) {
		return UnknownEntityError{Eid: eid}
	}
	ctx.eventBuffer.push(EventRecord{Kind: EventEntityRemoved, Eid: eid})
	ctx.entityBuffer.setAlive(eid, false)
	ctx.pool.Release(eid)
	return nil
}

// HasComponent reports whether eid carries def. It fails with
// UnknownEntityError if eid is not alive.
func HasComponent(ctx *Context, eid Eid, def *ComponentDef) (bool, error) {
	if !ctx.entityBuffer.Alive(eid) {
		return false, UnknownEntityError{Eid: eid}
	}
	id, ok := ctx.lookupRegistered(def)
	if !ok {
		return false, nil
	}
	return ctx.entityBuffer.hasComponent(eid, id), nil
}

// AddComponent writes a new instance of def onto eid. Every schema field
// takes, in order of preference, the value supplied in partial, else the
// field's declared default, else the type's zero. The membership bit is
// set and COMPONENT_ADDED is emitted only after every field has been
// written.
//
// Re-adding a component the entity already has fails with
// DuplicateComponentError. This is a deliberate policy choice, documented
// in DESIGN.md: a consistent failure rather than a silent overwrite.
func AddComponent(ctx *Context, eid Eid, def *ComponentDef, partial map[string]Value) error {
	if !ctx.entityBuffer.Alive(eid) {
		return UnknownEntityError{Eid: eid}
	}
	inst := def.instance(ctx)
	if ctx.entityBuffer.hasComponent(eid, inst.id) {
		return DuplicateComponentError{Eid: eid, ComponentName: def.name}
	}

	for i, f := range inst.def.schema.fields {
		if v, ok := partial[f.name]; ok {
			inst.columns[i].set(eid, v)
			continue
		}
		inst.columns[i].set(eid, defaultOrZero(f.desc))
	}

	ctx.entityBuffer.markComponent(eid, inst.id, true)
	ctx.eventBuffer.push(EventRecord{Kind: EventComponentAdded, Eid: eid, Cid: inst.id})
	return nil
}

// RemoveComponent clears def's membership bit on eid and emits
// COMPONENT_REMOVED. Removing a component the entity does not carry is a
// no-op.
func RemoveComponent(ctx *Context, eid Eid, def *ComponentDef) error {
	if !ctx.entityBuffer.Alive(eid) {
		return UnknownEntityError{Eid: eid}
	}
	inst := def.instance(ctx)
	if !ctx.entityBuffer.hasComponent(eid, inst.id) {
		return nil
	}
	ctx.entityBuffer.markComponent(eid, inst.id, false)
	ctx.eventBuffer.push(EventRecord{Kind: EventComponentRemoved, Eid: eid, Cid: inst.id})
	return nil
}

// resolveRef implements a lazily-validated ref read: a stored NULL_REF
// reads as null; a stored live id reads back as itself; a stored id whose
// target is no longer alive is read-repaired (overwritten with NULL_REF)
// and reads as null.
func resolveRef(ctx *Context, inst *componentInstance, fieldIdx int, eid Eid) Value {
	raw := inst.columns[fieldIdx].get(eid)
	if raw.IsNullRef() {
		return NullRefValue()
	}
	target := raw.RefEid()
	if !ctx.entityBuffer.Alive(target) {
		inst.columns[fieldIdx].set(eid, NullRefValue())
		return NullRefValue()
	}
	return raw
}

// GetBackrefs returns every alive entity that carries def and whose
// fieldName ref field resolves to targetEid, by linear scan over the
// column masked by the component's membership bitmap. There is no eager
// back-reference index.
func GetBackrefs(ctx *Context, targetEid Eid, def *ComponentDef, fieldName string) ([]Eid, error) {
	inst := def.instance(ctx)
	fieldIdx, ok := inst.def.schema.fieldIndex(fieldName)
	if !ok || inst.def.schema.fields[fieldIdx].desc.kind != FieldRef {
		return nil, InvalidFieldSpecError{Field: fieldName, Reason: "not a ref field on this component"}
	}

	var out []Eid
	for eid := Eid(0); int(eid) < ctx.maxEntities; eid++ {
		if !ctx.entityBuffer.Alive(eid) || !ctx.entityBuffer.hasComponent(eid, inst.id) {
			continue
		}
		v := resolveRef(ctx, inst, fieldIdx, eid)
		if v.IsNullRef() {
			continue
		}
		if v.RefEid() == targetEid {
			out = append(out, eid)
		}
	}
	return out, nil
}
