package silo

import "testing"

func testContext() *Context {
	return NewContext(ContextConfig{MaxEntities: 64, MaxEvents: 256, ThreadCount: 1})
}

func TestCreateEntityAssignsAliveIds(t *testing.T) {
	ctx := testContext()

	a, err := CreateEntity(ctx)
	if err != nil {
		t.Fatalf("CreateEntity() error = %v", err)
	}
	b, err := CreateEntity(ctx)
	if err != nil {
		t.Fatalf("CreateEntity() error = %v", err)
	}
	if a == b {
		t.Fatalf("expected distinct ids, got %d twice", a)
	}
	if !ctx.entityBuffer.Alive(a) || !ctx.entityBuffer.Alive(b) {
		t.Fatalf("entities should be alive immediately after creation")
	}
}

func TestRemoveEntityUnknown(t *testing.T) {
	ctx := testContext()
	if err := RemoveEntity(ctx, Eid(5)); err == nil {
		t.Fatalf("RemoveEntity() on a never-created id should fail")
	} else if _, ok := err.(UnknownEntityError); !ok {
		t.Fatalf("expected UnknownEntityError, got %T", err)
	}
}

func TestRemoveEntityTwiceFails(t *testing.T) {
	ctx := testContext()
	eid, _ := CreateEntity(ctx)
	if err := RemoveEntity(ctx, eid); err != nil {
		t.Fatalf("RemoveEntity() error = %v", err)
	}
	if err := RemoveEntity(ctx, eid); err == nil {
		t.Fatalf("removing an already-dead entity should fail with UnknownEntityError")
	}
}

func TestPoolReclaimsReleasedIds(t *testing.T) {
	p := newPool(2)

	a, err := p.Acquire()
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if _, err := p.Acquire(); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if _, err := p.Acquire(); err == nil {
		t.Fatalf("Acquire() should fail once maxEntities live ids exist")
	}

	p.Release(a)
	reused, err := p.Acquire()
	if err != nil {
		t.Fatalf("Acquire() after Release() error = %v", err)
	}
	if reused != a {
		t.Fatalf("expected Acquire() to reclaim released id %d, got %d", a, reused)
	}
}

func TestResetForReusePreservesMembershipUntilReacquired(t *testing.T) {
	ctx := testContext()
	comp := NewComponentDef("tag", NewSchema().Field("n", FieldNumericOf(WidthI32)))

	eid, _ := CreateEntity(ctx)
	if err := AddComponent(ctx, eid, comp, nil); err != nil {
		t.Fatalf("AddComponent() error = %v", err)
	}
	if err := RemoveEntity(ctx, eid); err != nil {
		t.Fatalf("RemoveEntity() error = %v", err)
	}

	if !ctx.entityBuffer.hasComponent(eid, comp.instance(ctx).id) {
		t.Fatalf("membership should survive removeEntity until the id is reused")
	}

	reused, err := CreateEntity(ctx)
	if err != nil {
		t.Fatalf("CreateEntity() error = %v", err)
	}
	if reused != eid {
		t.Fatalf("expected the freed id to be reclaimed, got a different one")
	}
	if ctx.entityBuffer.hasComponent(eid, comp.instance(ctx).id) {
		t.Fatalf("membership should be cleared once the id is handed back out")
	}
}
