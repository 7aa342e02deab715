package silo

import "testing"

func TestFieldEnumOfRejectsDuplicateTags(t *testing.T) {
	if _, err := FieldEnumOf("idle", "run", "idle"); err == nil {
		t.Fatalf("expected an error for duplicate enum tags")
	}
}

func TestFieldEnumOfRejectsEmpty(t *testing.T) {
	if _, err := FieldEnumOf(); err == nil {
		t.Fatalf("expected an error for an empty enum tag set")
	}
}

func TestFieldArrayOfRejectsNonScalarElement(t *testing.T) {
	nested, _ := FieldArrayOf(FieldNumericOf(WidthI32), 4)
	if _, err := FieldArrayOf(nested, 4); err == nil {
		t.Fatalf("expected InvalidElementTypeError nesting an array inside an array")
	}
}

func TestComponentStringFieldTruncatesOnWrite(t *testing.T) {
	ctx := testContext()
	name, err := FieldStringOf(4)
	if err != nil {
		t.Fatalf("FieldStringOf() error = %v", err)
	}
	label := NewComponentDef("label", NewSchema().Field("name", name))
	eid, _ := CreateEntity(ctx)
	_ = AddComponent(ctx, eid, label, map[string]Value{"name": StringValue("longer than four")})

	rec := label.Read(ctx, eid)
	v, _ := rec.Get("name")
	if v.Str() != "long" {
		t.Errorf("name = %q, want truncated to maxLen 4 => %q", v.Str(), "long")
	}
}

func TestComponentTuplePadsShortInputWithZero(t *testing.T) {
	ctx := testContext()
	tupleDesc, err := FieldTupleOf(FieldNumericOf(WidthF64), 3)
	if err != nil {
		t.Fatalf("FieldTupleOf() error = %v", err)
	}
	xyz := NewComponentDef("xyz", NewSchema().Field("v", tupleDesc))
	eid, _ := CreateEntity(ctx)
	_ = AddComponent(ctx, eid, xyz, map[string]Value{"v": TupleValue(FloatValue(1), FloatValue(2))})

	rec := xyz.Read(ctx, eid)
	v, _ := rec.Get("v")
	elems := v.Elems()
	if len(elems) != 3 {
		t.Fatalf("got %d tuple elements, want 3", len(elems))
	}
	if elems[2].Float() != 0 {
		t.Errorf("short tuple write should pad the missing slot with zero, got %v", elems[2].Float())
	}
}

func TestComponentEnumUnknownTagDefaultsToFirst(t *testing.T) {
	ctx := testContext()
	desc, err := FieldEnumOf("idle", "run", "walk")
	if err != nil {
		t.Fatalf("FieldEnumOf() error = %v", err)
	}
	state := NewComponentDef("state", NewSchema().Field("tag", desc))
	eid, _ := CreateEntity(ctx)
	_ = AddComponent(ctx, eid, state, map[string]Value{"tag": EnumValue("not-a-real-tag")})

	rec := state.Read(ctx, eid)
	v, _ := rec.Get("tag")
	if v.Str() != "idle" {
		t.Errorf("unknown enum tag on write should default to the first declared tag, got %q", v.Str())
	}
}
