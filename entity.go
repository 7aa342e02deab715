package silo

import (
	"sync"
	"sync/atomic"

	"github.com/TheBitDrifter/mask"
	"go.uber.org/zap"
)

// Eid is an opaque entity identifier. All per-entity state lives in columns
// keyed by this id; it carries no generation counter. Aliveness is carried
// entirely by EntityBuffer's alive bit.
type Eid uint32

// entityRow is the per-entity row of EntityBuffer: one alive bit and one
// component-membership bitmask, packed contiguously so the whole structure
// is a single shareable region (see EntityBuffer doc).
type entityRow struct {
	alive      bool
	membership mask.Mask256
}

// EntityBuffer is the bit-packed table keyed by entity id: per entity, an
// alive bit and an N-bit component-membership mask. Storage is a flat
// slice of fixed-size rows indexed by eid, matching the offset = eid *
// slotSize addressing discipline used throughout this package's columns.
type EntityBuffer struct {
	mu   sync.RWMutex
	rows []entityRow
}

// newEntityBuffer allocates a buffer sized for maxEntities rows.
func newEntityBuffer(maxEntities int) *EntityBuffer {
	return &EntityBuffer{rows: make([]entityRow, maxEntities)}
}

// Alive reports whether eid currently carries the alive bit.
func (b *EntityBuffer) Alive(eid Eid) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return int(eid) < len(b.rows) && b.rows[eid].alive
}

// Membership returns a copy of eid's component-membership mask. Reading an
// entity that is not alive returns whatever mask it carried at time of
// removal; clearing it is deliberately deferred (see RemoveEntity).
func (b *EntityBuffer) Membership(eid Eid) mask.Mask256 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if int(eid) >= len(b.rows) {
		return mask.Mask256{}
	}
	return b.rows[eid].membership
}

// setAlive asserts or clears the alive bit for eid.
func (b *EntityBuffer) setAlive(eid Eid, alive bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rows[eid].alive = alive
}

// markComponent sets or unsets a single membership bit for eid.
func (b *EntityBuffer) markComponent(eid Eid, cid ComponentID, present bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if present {
		b.rows[eid].membership.Mark(uint32(cid))
	} else {
		b.rows[eid].membership.Unmark(uint32(cid))
	}
}

// hasComponent tests a single membership bit for eid.
func (b *EntityBuffer) hasComponent(eid Eid, cid ComponentID) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if int(eid) >= len(b.rows) {
		return false
	}
	var bit mask.Mask256
	bit.Mark(uint32(cid))
	return b.rows[eid].membership.ContainsAll(bit)
}

// resetForReuse zeroes the membership mask for eid ahead of it being handed
// back out by the Pool. This is what lets removed()-query readers still see
// the outgoing membership/column state after the removal: clearing happens
// at reuse time, not at removeEntity time. Reuse can happen within the same
// tick, since released ids go straight back to the Pool.
func (b *EntityBuffer) resetForReuse(eid Eid) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rows[eid] = entityRow{}
}

// Pool is the thread-safe free list of entity ids: a bucketed MPMC
// structure in spirit, implemented here with a mutex-guarded stack of
// reclaimed ids plus an atomic high-water-mark counter for ids that have
// never been allocated. See DESIGN.md for why a plain mutex stands in for
// a CAS-based bucketed free list.
type Pool struct {
	maxEntities int
	nextFresh   atomic.Uint32 // never-yet-allocated ids, fetch-add under the hood
	mu          sync.Mutex
	free        []Eid
	liveCount   int
}

func newPool(maxEntities int) *Pool {
	return &Pool{maxEntities: maxEntities}
}

// Acquire returns a fresh or reclaimed entity id, or PoolExhaustedError if
// maxEntities live ids already exist.
func (p *Pool) Acquire() (Eid, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.liveCount >= p.maxEntities {
		Config.Logger().Warn("entity pool exhausted", zap.Int("max_entities", p.maxEntities))
		return 0, PoolExhaustedError{MaxEntities: p.maxEntities}
	}

	if n := len(p.free); n > 0 {
		eid := p.free[n-1]
		p.free = p.free[:n-1]
		p.liveCount++
		return eid, nil
	}

	id := p.nextFresh.Add(1) - 1
	if int(id) >= p.maxEntities {
		p.nextFresh.Add(^uint32(0)) // undo: roll back the reservation
		Config.Logger().Warn("entity pool exhausted", zap.Int("max_entities", p.maxEntities))
		return 0, PoolExhaustedError{MaxEntities: p.maxEntities}
	}
	p.liveCount++
	return Eid(id), nil
}

// Release returns eid to the free list, per the chosen eager-reclamation
// policy documented in DESIGN.md.
func (p *Pool) Release(eid Eid) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.free = append(p.free, eid)
	p.liveCount--
}

// LiveCount reports the number of currently allocated (not necessarily
// still-alive-bit-set) entity ids.
func (p *Pool) LiveCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.liveCount
}
