package silo

import "iter"

// Cursor provides ergonomic iteration over a Query's current match set. It
// takes a stable snapshot of matching entity ids when created (or when
// Reset is called), so structural changes made mid-iteration never shift
// already-yielded positions out from under the caller.
type Cursor struct {
	query     *Query
	snapshot  []Eid
	index     int
	resyncErr error
}

// NewCursor takes a snapshot of q's current match set and returns a Cursor
// over it.
func NewCursor(q *Query) (*Cursor, error) {
	c := &Cursor{query: q, index: -1}
	if err := c.Reset(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reset retakes the snapshot from the underlying Query and rewinds to
// before the first entity.
func (c *Cursor) Reset() error {
	snap, err := c.query.Current()
	if err != nil {
		c.resyncErr = err
		return err
	}
	c.snapshot = snap
	c.index = -1
	c.resyncErr = nil
	return nil
}

// Next advances to the next entity and reports whether one exists.
func (c *Cursor) Next() bool {
	if c.index+1 >= len(c.snapshot) {
		return false
	}
	c.index++
	return true
}

// Entity returns the entity at the cursor's current position. It panics if
// called before a successful Next; the position is only meaningful
// mid-iteration.
func (c *Cursor) Entity() Eid {
	return c.snapshot[c.index]
}

// EntityAtOffset returns the entity offset positions from the current one,
// without moving the cursor.
func (c *Cursor) EntityAtOffset(offset int) (Eid, bool) {
	i := c.index + offset
	if i < 0 || i >= len(c.snapshot) {
		return 0, false
	}
	return c.snapshot[i], true
}

// Remaining returns how many entities are left to visit, including the
// current one.
func (c *Cursor) Remaining() int {
	if c.index < 0 {
		return len(c.snapshot)
	}
	return len(c.snapshot) - c.index
}

// Len returns the total size of the snapshot this cursor is iterating.
func (c *Cursor) Len() int {
	return len(c.snapshot)
}

// Entities returns an iterator sequence over (index, entity) pairs in the
// cursor's snapshot.
func (c *Cursor) Entities() iter.Seq2[int, Eid] {
	return func(yield func(int, Eid) bool) {
		for i, eid := range c.snapshot {
			if !yield(i, eid) {
				return
			}
		}
	}
}

// ThreadOwns reports whether eid belongs to a given slice of a partitioned
// worker shape: eid % threadCount == threadIndex. Taking threadCount and
// threadIndex as explicit arguments, rather than reading them off a
// Context, lets several workers partition the same shared Context, each
// with its own slice of the id space.
func ThreadOwns(threadCount, threadIndex int, eid Eid) bool {
	return int(eid)%threadCount == threadIndex
}

// ThreadEntities filters a Cursor's Entities sequence down to only the
// entities owned by (threadCount, threadIndex), for use when several
// workers iterate the same Query concurrently over disjoint partitions.
func ThreadEntities(threadCount, threadIndex int, c *Cursor) iter.Seq2[int, Eid] {
	return func(yield func(int, Eid) bool) {
		for i, eid := range c.snapshot {
			if !ThreadOwns(threadCount, threadIndex, eid) {
				continue
			}
			if !yield(i, eid) {
				return
			}
		}
	}
}
