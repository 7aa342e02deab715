package silo

import "testing"

func positionDef() *ComponentDef {
	return NewComponentDef("position", NewSchema().
		Field("x", FieldNumericOf(WidthF64)).
		Field("y", FieldNumericOf(WidthF64).WithDefault(FloatValue(1))))
}

func TestAddComponentAppliesDefaultsAndZeros(t *testing.T) {
	ctx := testContext()
	pos := positionDef()
	eid, _ := CreateEntity(ctx)

	if err := AddComponent(ctx, eid, pos, map[string]Value{"x": FloatValue(3)}); err != nil {
		t.Fatalf("AddComponent() error = %v", err)
	}

	rec := pos.Read(ctx, eid)
	x, _ := rec.Get("x")
	y, _ := rec.Get("y")
	if x.Float() != 3 {
		t.Errorf("x = %v, want 3 (supplied value)", x.Float())
	}
	if y.Float() != 1 {
		t.Errorf("y = %v, want 1 (declared default)", y.Float())
	}
}

func TestAddComponentDuplicateFails(t *testing.T) {
	ctx := testContext()
	pos := positionDef()
	eid, _ := CreateEntity(ctx)

	if err := AddComponent(ctx, eid, pos, nil); err != nil {
		t.Fatalf("AddComponent() error = %v", err)
	}
	err := AddComponent(ctx, eid, pos, nil)
	if err == nil {
		t.Fatalf("re-adding an existing component should fail")
	}
	if _, ok := err.(DuplicateComponentError); !ok {
		t.Fatalf("expected DuplicateComponentError, got %T", err)
	}
}

func TestRemoveComponentOnMissingIsNoop(t *testing.T) {
	ctx := testContext()
	pos := positionDef()
	eid, _ := CreateEntity(ctx)

	if err := RemoveComponent(ctx, eid, pos); err != nil {
		t.Fatalf("removing a component the entity never had should be a no-op, got %v", err)
	}
}

func TestViewSetMarksChangedOnce(t *testing.T) {
	ctx := testContext()
	pos := positionDef()
	eid, _ := CreateEntity(ctx)
	if err := AddComponent(ctx, eid, pos, nil); err != nil {
		t.Fatalf("AddComponent() error = %v", err)
	}

	view := pos.Write(ctx, eid)
	view.Set("x", FloatValue(5))
	view.Set("y", FloatValue(6))

	cid := pos.instance(ctx).id
	recs, _, _ := ctx.eventBuffer.readSince(0)
	changed := 0
	for _, r := range recs {
		if r.Kind == EventComponentChanged && r.Eid == eid && r.Cid == cid {
			changed++
		}
	}
	if changed != 1 {
		t.Errorf("expected exactly one coalesced COMPONENT_CHANGED event this tick, got %d", changed)
	}
}

func TestRefFieldReadRepairsDeadTarget(t *testing.T) {
	ctx := testContext()
	link := NewComponentDef("link", NewSchema().Field("target", FieldRefOf()))

	target, _ := CreateEntity(ctx)
	holder, _ := CreateEntity(ctx)
	if err := AddComponent(ctx, holder, link, map[string]Value{"target": RefValue(target)}); err != nil {
		t.Fatalf("AddComponent() error = %v", err)
	}

	if err := RemoveEntity(ctx, target); err != nil {
		t.Fatalf("RemoveEntity() error = %v", err)
	}

	rec := link.Read(ctx, holder)
	v, _ := rec.Get("target")
	if !v.IsNullRef() {
		t.Errorf("expected a ref to a dead entity to read back as null, got live ref %d", v.RefEid())
	}
}

func TestGetBackrefs(t *testing.T) {
	ctx := testContext()
	link := NewComponentDef("link", NewSchema().Field("target", FieldRefOf()))

	target, _ := CreateEntity(ctx)
	a, _ := CreateEntity(ctx)
	b, _ := CreateEntity(ctx)
	other, _ := CreateEntity(ctx)

	_ = AddComponent(ctx, a, link, map[string]Value{"target": RefValue(target)})
	_ = AddComponent(ctx, b, link, map[string]Value{"target": RefValue(target)})
	_ = AddComponent(ctx, other, link, map[string]Value{"target": RefValue(other)})

	refs, err := GetBackrefs(ctx, target, link, "target")
	if err != nil {
		t.Fatalf("GetBackrefs() error = %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("got %d backrefs, want 2", len(refs))
	}
}
