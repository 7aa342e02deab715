package silo

import (
	"sync"

	"github.com/TheBitDrifter/mask"
	"go.uber.org/zap"
)

func zapEventBufferFields(oldCursor, newCursor uint64) []zap.Field {
	return []zap.Field{zap.Uint64("stale_cursor", oldCursor), zap.Uint64("new_cursor", newCursor)}
}

// QueryBuilder accumulates With/Without/Any/Tracking clauses before being
// compiled into a live Query. A builder is single-use: Compile resolves
// every referenced component against the Context and freezes the clauses
// into bitmasks.
type QueryBuilder struct {
	ctx *Context

	withDefs     []*ComponentDef
	withoutDefs  []*ComponentDef
	anyDefs      []*ComponentDef
	trackingDefs []*ComponentDef
}

// NewQuery starts a query builder bound to ctx.
func NewQuery(ctx *Context) *QueryBuilder {
	return &QueryBuilder{ctx: ctx}
}

// With requires every listed component to be present (AND).
func (b *QueryBuilder) With(defs ...*ComponentDef) *QueryBuilder {
	b.withDefs = append(b.withDefs, defs...)
	return b
}

// Without excludes entities carrying any listed component.
func (b *QueryBuilder) Without(defs ...*ComponentDef) *QueryBuilder {
	b.withoutDefs = append(b.withoutDefs, defs...)
	return b
}

// Any requires at least one of the listed components to be present (OR).
func (b *QueryBuilder) Any(defs ...*ComponentDef) *QueryBuilder {
	b.anyDefs = append(b.anyDefs, defs...)
	return b
}

// Tracking marks components whose field writes should surface through
// Changed(); a component need not also appear in With for its writes to be
// tracked, but Changed() only ever reports entities currently matching the
// compiled query.
func (b *QueryBuilder) Tracking(defs ...*ComponentDef) *QueryBuilder {
	b.trackingDefs = append(b.trackingDefs, defs...)
	return b
}

func masksFrom(ctx *Context, defs []*ComponentDef) (mask.Mask256, error) {
	var m mask.Mask256
	for _, d := range defs {
		id, ok := ctx.lookupRegistered(d)
		if !ok {
			return m, InvalidQueryError{ComponentName: d.Name()}
		}
		m.Mark(uint32(id))
	}
	return m, nil
}

// Compile resolves every referenced component and returns a live Query. It
// fails with InvalidQueryError if any component named in With/Without/Any/
// Tracking was never registered with ctx.
func (b *QueryBuilder) Compile() (*Query, error) {
	withMask, err := masksFrom(b.ctx, b.withDefs)
	if err != nil {
		return nil, err
	}
	withoutMask, err := masksFrom(b.ctx, b.withoutDefs)
	if err != nil {
		return nil, err
	}
	anyMask, err := masksFrom(b.ctx, b.anyDefs)
	if err != nil {
		return nil, err
	}
	trackingMask, err := masksFrom(b.ctx, b.trackingDefs)
	if err != nil {
		return nil, err
	}

	rq := &registeredQuery{
		ctx:              b.ctx,
		withMask:         withMask,
		withoutMask:      withoutMask,
		anyMask:          anyMask,
		hasAnyConstraint: len(b.anyDefs) > 0,
		trackingMask:     trackingMask,
		sparse:           make([]int32, b.ctx.maxEntities),
		dense:            make([]Eid, 0, b.ctx.maxEntities),
		pendingAdded:     make(map[Eid]struct{}),
		pendingRemoved:   make(map[Eid]struct{}),
		pendingChanged:   make(map[Eid]struct{}),
	}
	for i := range rq.sparse {
		rq.sparse[i] = -1
	}
	rq.baseline()

	b.ctx.mu.Lock()
	b.ctx.queries = append(b.ctx.queries, rq)
	b.ctx.mu.Unlock()

	return &Query{rq: rq}, nil
}

// registeredQuery is the compiled, cached form of a Query: frozen bitmasks
// plus a sparse-set cache of currently-matching entities and a private
// read cursor into the Context's EventBuffer used to incrementally
// maintain that cache and the three reactive delta buckets.
type registeredQuery struct {
	ctx *Context

	withMask         mask.Mask256
	withoutMask      mask.Mask256
	anyMask          mask.Mask256
	hasAnyConstraint bool
	trackingMask     mask.Mask256

	mu     sync.Mutex
	cursor uint64

	dense  []Eid
	sparse []int32

	pendingAdded   map[Eid]struct{}
	pendingRemoved map[Eid]struct{}
	pendingChanged map[Eid]struct{}
}

func (q *registeredQuery) matches(m mask.Mask256) bool {
	if !m.ContainsAll(q.withMask) {
		return false
	}
	if q.withoutMask != (mask.Mask256{}) && m.ContainsAny(q.withoutMask) {
		return false
	}
	if q.hasAnyConstraint && !m.ContainsAny(q.anyMask) {
		return false
	}
	return true
}

func (q *registeredQuery) inCurrent(eid Eid) bool {
	return q.sparse[eid] >= 0
}

func (q *registeredQuery) addToCurrent(eid Eid) error {
	if len(q.dense) >= cap(q.dense) {
		return QueryCacheFullError{MaxEntities: cap(q.dense)}
	}
	q.sparse[eid] = int32(len(q.dense))
	q.dense = append(q.dense, eid)
	return nil
}

func (q *registeredQuery) removeFromCurrent(eid Eid) bool {
	idx := q.sparse[eid]
	if idx < 0 {
		return false
	}
	last := len(q.dense) - 1
	movedEid := q.dense[last]
	q.dense[idx] = movedEid
	q.sparse[movedEid] = idx
	q.dense = q.dense[:last]
	q.sparse[eid] = -1
	return true
}

// baseline performs the one-time, full-scan initial population done at
// Compile time: the query's Current() is correct from the moment Compile
// returns, but this pass does not populate any delta bucket. There is no
// prior frame for a newly compiled query to diff against, so its first
// Added()/Removed()/Changed() calls report nothing. The read cursor is set
// to the buffer's current write head so that only events emitted after
// Compile feed the deltas.
func (q *registeredQuery) baseline() {
	for eid := Eid(0); int(eid) < len(q.sparse); eid++ {
		if !q.ctx.entityBuffer.Alive(eid) {
			continue
		}
		if q.matches(q.ctx.entityBuffer.Membership(eid)) {
			q.addToCurrent(eid)
		}
	}
	q.cursor = q.ctx.eventBuffer.WriteIndex()
}

// rescan rebuilds the cache from scratch (used after an event buffer
// overflow) and diffs the fresh membership set against the previous one
// so entities that quietly entered or left while unobserved still surface
// once via Added()/Removed().
func (q *registeredQuery) rescan() error {
	wasIn := make(map[Eid]struct{}, len(q.dense))
	for _, eid := range q.dense {
		wasIn[eid] = struct{}{}
	}
	q.dense = q.dense[:0]
	for i := range q.sparse {
		q.sparse[i] = -1
	}

	for eid := Eid(0); int(eid) < len(q.sparse); eid++ {
		if !q.ctx.entityBuffer.Alive(eid) {
			continue
		}
		if !q.matches(q.ctx.entityBuffer.Membership(eid)) {
			continue
		}
		if err := q.addToCurrent(eid); err != nil {
			return err
		}
		if _, had := wasIn[eid]; !had {
			q.pendingAdded[eid] = struct{}{}
		} else {
			delete(wasIn, eid)
		}
	}
	for eid := range wasIn {
		q.pendingRemoved[eid] = struct{}{}
	}
	return nil
}

func (q *registeredQuery) refresh(eid Eid) error {
	matchesNow := q.ctx.entityBuffer.Alive(eid) && q.matches(q.ctx.entityBuffer.Membership(eid))
	wasIn := q.inCurrent(eid)
	switch {
	case matchesNow && !wasIn:
		if err := q.addToCurrent(eid); err != nil {
			return err
		}
		q.pendingAdded[eid] = struct{}{}
	case !matchesNow && wasIn:
		q.removeFromCurrent(eid)
		q.pendingRemoved[eid] = struct{}{}
	}
	return nil
}

// sync drains every EventBuffer record this query has not yet observed,
// updating the live cache and the three pending delta buckets. A read
// cursor that has fallen behind an overflowed buffer is handled
// internally: the query resynchronizes with a full rescan rather than
// surfacing the condition to callers.
func (q *registeredQuery) sync() error {
	recs, newCursor, overflowed := q.ctx.eventBuffer.readSince(q.cursor)
	if overflowed {
		Config.Logger().Warn("event buffer overflow, resynchronizing query cache via full rescan",
			zapEventBufferFields(q.cursor, newCursor)...)
		if err := q.rescan(); err != nil {
			return err
		}
		q.cursor = newCursor
		return nil
	}

	for _, rec := range recs {
		switch rec.Kind {
		case EventEntityRemoved:
			if q.removeFromCurrent(rec.Eid) {
				q.pendingRemoved[rec.Eid] = struct{}{}
			}
		case EventComponentChanged:
			var bit mask.Mask256
			bit.Mark(uint32(rec.Cid))
			if q.trackingMask.ContainsAny(bit) && q.inCurrent(rec.Eid) {
				q.pendingChanged[rec.Eid] = struct{}{}
			}
		default: // EventEntityAdded, EventComponentAdded, EventComponentRemoved
			if err := q.refresh(rec.Eid); err != nil {
				return err
			}
		}
	}
	q.cursor = newCursor
	return nil
}

func drain(m map[Eid]struct{}) []Eid {
	if len(m) == 0 {
		return nil
	}
	out := make([]Eid, 0, len(m))
	for eid := range m {
		out = append(out, eid)
	}
	for eid := range m {
		delete(m, eid)
	}
	return out
}

// Query is the handle returned by QueryBuilder.Compile: the reactive
// protocol (Current/Added/Removed/Changed) plus a Cursor for ergonomic
// single-pass iteration.
type Query struct {
	rq *registeredQuery
}

// Current returns every entity presently matching the query, as of the
// latest structural event processed.
func (q *Query) Current() ([]Eid, error) {
	q.rq.mu.Lock()
	defer q.rq.mu.Unlock()
	if err := q.rq.sync(); err != nil {
		return nil, err
	}
	out := make([]Eid, len(q.rq.dense))
	copy(out, q.rq.dense)
	return out, nil
}

// Added returns entities that began matching since the last call to Added
// on this Query.
func (q *Query) Added() ([]Eid, error) {
	q.rq.mu.Lock()
	defer q.rq.mu.Unlock()
	if err := q.rq.sync(); err != nil {
		return nil, err
	}
	return drain(q.rq.pendingAdded), nil
}

// Removed returns entities that stopped matching (including via entity
// removal) since the last call to Removed on this Query.
func (q *Query) Removed() ([]Eid, error) {
	q.rq.mu.Lock()
	defer q.rq.mu.Unlock()
	if err := q.rq.sync(); err != nil {
		return nil, err
	}
	return drain(q.rq.pendingRemoved), nil
}

// Changed returns entities, among those currently matching, that had a
// Tracking-listed component field written since the last call to Changed
// on this Query.
func (q *Query) Changed() ([]Eid, error) {
	q.rq.mu.Lock()
	defer q.rq.mu.Unlock()
	if err := q.rq.sync(); err != nil {
		return nil, err
	}
	return drain(q.rq.pendingChanged), nil
}

// Len returns the size of the current match set without allocating a
// snapshot slice.
func (q *Query) Len() (int, error) {
	q.rq.mu.Lock()
	defer q.rq.mu.Unlock()
	if err := q.rq.sync(); err != nil {
		return 0, err
	}
	return len(q.rq.dense), nil
}
