package silo_test

import (
	"fmt"

	"github.com/ecsilo/silo"
)

func Example_basicUsage() {
	ctx := silo.NewContext(silo.DefaultConfig())

	position := silo.NewComponentDef("position", silo.NewSchema().
		Field("x", silo.FieldNumericOf(silo.WidthF64)).
		Field("y", silo.FieldNumericOf(silo.WidthF64)))

	eid, _ := silo.CreateEntity(ctx)
	_ = silo.AddComponent(ctx, eid, position, map[string]silo.Value{
		"x": silo.FloatValue(1),
		"y": silo.FloatValue(2),
	})

	q, _ := silo.NewQuery(ctx).With(position).Compile()
	cursor, _ := silo.NewCursor(q)
	for cursor.Next() {
		view := position.Write(ctx, cursor.Entity())
		x, _ := view.Get("x")
		view.Set("x", silo.FloatValue(x.Float()+1))
	}

	rec := position.Read(ctx, eid)
	x, _ := rec.Get("x")
	y, _ := rec.Get("y")
	fmt.Println(x.Float(), y.Float())
	// Output: 2 2
}
