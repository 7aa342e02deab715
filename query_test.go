package silo

import "testing"

func eidSet(eids []Eid) map[Eid]bool {
	out := make(map[Eid]bool, len(eids))
	for _, e := range eids {
		out[e] = true
	}
	return out
}

func TestQueryCurrentMatchesWithWithout(t *testing.T) {
	ctx := testContext()
	pos := positionDef()
	vel := NewComponentDef("velocity", NewSchema().Field("dx", FieldNumericOf(WidthF64)))
	dead := NewComponentDef("dead", NewSchema())

	moving, _ := CreateEntity(ctx)
	_ = AddComponent(ctx, moving, pos, nil)
	_ = AddComponent(ctx, moving, vel, nil)

	still, _ := CreateEntity(ctx)
	_ = AddComponent(ctx, still, pos, nil)

	corpse, _ := CreateEntity(ctx)
	_ = AddComponent(ctx, corpse, pos, nil)
	_ = AddComponent(ctx, corpse, vel, nil)
	_ = AddComponent(ctx, corpse, dead, nil)

	q, err := NewQuery(ctx).With(pos, vel).Without(dead).Compile()
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	current, err := q.Current()
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}
	got := eidSet(current)
	if len(got) != 1 || !got[moving] {
		t.Fatalf("Current() = %v, want only %d", current, moving)
	}
}

func TestQueryCompileRejectsUnregisteredComponent(t *testing.T) {
	ctx := testContext()
	never := NewComponentDef("never-registered", NewSchema())

	_, err := NewQuery(ctx).With(never).Compile()
	if err == nil {
		t.Fatalf("Compile() should fail for a never-registered component")
	}
	if _, ok := err.(InvalidQueryError); !ok {
		t.Fatalf("expected InvalidQueryError, got %T", err)
	}
}

func TestQueryBaselineReportsNoInitialAdds(t *testing.T) {
	ctx := testContext()
	pos := positionDef()
	eid, _ := CreateEntity(ctx)
	_ = AddComponent(ctx, eid, pos, nil)

	q, err := NewQuery(ctx).With(pos).Compile()
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	added, err := q.Added()
	if err != nil {
		t.Fatalf("Added() error = %v", err)
	}
	if len(added) != 0 {
		t.Errorf("a freshly compiled query should report no Added() entries for pre-existing matches, got %v", added)
	}
}

func TestQueryAddedRemovedChanged(t *testing.T) {
	ctx := testContext()
	pos := positionDef()
	if _, err := ctx.Register(pos); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	q, err := NewQuery(ctx).With(pos).Tracking(pos).Compile()
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	eid, _ := CreateEntity(ctx)
	if err := AddComponent(ctx, eid, pos, nil); err != nil {
		t.Fatalf("AddComponent() error = %v", err)
	}

	added, err := q.Added()
	if err != nil {
		t.Fatalf("Added() error = %v", err)
	}
	if len(added) != 1 || added[0] != eid {
		t.Fatalf("Added() = %v, want [%d]", added, eid)
	}
	if added2, _ := q.Added(); len(added2) != 0 {
		t.Errorf("Added() should not repeat entries across calls, got %v", added2)
	}

	pos.Write(ctx, eid).Set("x", FloatValue(9))
	changed, err := q.Changed()
	if err != nil {
		t.Fatalf("Changed() error = %v", err)
	}
	if len(changed) != 1 || changed[0] != eid {
		t.Fatalf("Changed() = %v, want [%d]", changed, eid)
	}

	if err := RemoveEntity(ctx, eid); err != nil {
		t.Fatalf("RemoveEntity() error = %v", err)
	}
	removed, err := q.Removed()
	if err != nil {
		t.Fatalf("Removed() error = %v", err)
	}
	if len(removed) != 1 || removed[0] != eid {
		t.Fatalf("Removed() = %v, want [%d]", removed, eid)
	}
}

func TestQueryChangedIgnoresUntrackedComponents(t *testing.T) {
	ctx := testContext()
	pos := positionDef()
	vel := NewComponentDef("velocity", NewSchema().Field("dx", FieldNumericOf(WidthF64)))

	eid, _ := CreateEntity(ctx)
	_ = AddComponent(ctx, eid, pos, nil)
	_ = AddComponent(ctx, eid, vel, nil)

	q, err := NewQuery(ctx).With(pos).Tracking(pos).Compile()
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	vel.Write(ctx, eid).Set("dx", FloatValue(2))
	changed, err := q.Changed()
	if err != nil {
		t.Fatalf("Changed() error = %v", err)
	}
	if len(changed) != 0 {
		t.Errorf("writes to a non-tracked component should not surface in Changed(), got %v", changed)
	}
}

func TestCursorSnapshotIsStableDuringIteration(t *testing.T) {
	ctx := testContext()
	pos := positionDef()

	var eids []Eid
	for i := 0; i < 3; i++ {
		eid, _ := CreateEntity(ctx)
		_ = AddComponent(ctx, eid, pos, nil)
		eids = append(eids, eid)
	}

	q, err := NewQuery(ctx).With(pos).Compile()
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	cursor, err := NewCursor(q)
	if err != nil {
		t.Fatalf("NewCursor() error = %v", err)
	}

	visited := 0
	for cursor.Next() {
		visited++
		extra, _ := CreateEntity(ctx)
		_ = AddComponent(ctx, extra, pos, nil)
	}
	if visited != 3 {
		t.Errorf("cursor visited %d entities, want 3 (snapshot taken at creation time)", visited)
	}
}
