/*
Package silo provides a data-oriented Entity-Component-System runtime core.

Silo keeps components in flat, struct-of-arrays columns addressed directly
by entity id, alongside a per-entity bitmask recording which components an
entity currently carries. There is no archetype table and entities never
move storage location when components are added or removed: only their
membership bit and the written columns change.

Core Concepts:

  - Eid: an opaque entity identifier with no generation counter; aliveness
    lives entirely in the EntityBuffer's alive bit.
  - ComponentDef: an immutable name plus schema, registered once per Context
    to receive a ComponentID and a column per field.
  - Value: a closed tagged-union covering every field kind a schema can
    declare (numeric, bool, string, binary, enum, array, tuple, ref).
  - Query: a compiled With/Without/Any/Tracking predicate backed by a
    sparse-set cache, exposing Current/Added/Removed/Changed against the
    Context's structural event log.

Basic Usage:

	ctx := silo.NewContext(silo.DefaultConfig())

	position := silo.NewComponentDef("position", silo.NewSchema().
		Field("x", silo.FieldNumericOf(silo.WidthF64)).
		Field("y", silo.FieldNumericOf(silo.WidthF64)))

	eid, _ := silo.CreateEntity(ctx)
	silo.AddComponent(ctx, eid, position, nil)

	q, _ := silo.NewQuery(ctx).With(position).Compile()
	cursor, _ := silo.NewCursor(q)
	for cursor.Next() {
		view := position.Write(ctx, cursor.Entity())
		x, _ := view.Get("x")
		view.Set("x", silo.FloatValue(x.Float()+1))
	}

Silo is built to be driven one tick at a time: call Context.AdvanceTick once
per frame boundary, and let queries observe structural changes through
their own read cursor into the tick's event log rather than rescanning
every entity.
*/
package silo
