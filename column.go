package silo

import (
	"encoding/binary"
	"math"
	"sort"
)

// column is the flat-buffer backing store for a single schema field across
// every entity in a world, addressed by offset = eid * slotSize. One column
// exists per (component, field) pair; a component's full storage is the
// ordered set of its fields' columns (see componentInstance in
// component.go), giving a struct-of-arrays layout.
//
// A single generic implementation interprets the closed FieldDescriptor sum
// rather than branching across eight hand-written column types: the kind
// dispatch happens once per get/set call, not once per type.
type column struct {
	desc     FieldDescriptor
	slotSize int
	elemSize int // element slot size, for FieldArray/FieldTuple only
	buf      []byte
}

func newColumn(desc FieldDescriptor, maxEntities int) *column {
	c := &column{desc: desc}
	c.slotSize = slotSizeOf(desc)
	if desc.kind == FieldArray || desc.kind == FieldTuple {
		c.elemSize = slotSizeOf(*desc.elem)
	}
	c.buf = make([]byte, maxEntities*c.slotSize)
	return c
}

// slotSizeOf computes the byte width of one entity's slot for a descriptor.
func slotSizeOf(desc FieldDescriptor) int {
	switch desc.kind {
	case FieldNumeric:
		return desc.width.byteSize()
	case FieldBool:
		return 1
	case FieldString, FieldBinary:
		return 4 + desc.maxLen
	case FieldEnum:
		return enumIndexSize(len(desc.tags))
	case FieldArray:
		return 4 + desc.maxLen*slotSizeOf(*desc.elem)
	case FieldTuple:
		return desc.count * slotSizeOf(*desc.elem)
	case FieldRef:
		return 4
	default:
		return 0
	}
}

func enumIndexSize(tagCount int) int {
	if tagCount <= 256 {
		return 1
	}
	return 2
}

func (c *column) slot(eid Eid) []byte {
	off := int(eid) * c.slotSize
	return c.buf[off : off+c.slotSize]
}

// set writes v into eid's slot, applying the field's truncation rules.
func (c *column) set(eid Eid, v Value) {
	writeValue(c.slot(eid), c.desc, v)
}

// get reads eid's slot, returning a fresh Value (never a backing alias).
func (c *column) get(eid Eid) Value {
	return readValue(c.slot(eid), c.desc)
}

// writeValue encodes v into slot per desc's kind, truncating variable-width
// payloads rather than rejecting them.
func writeValue(slot []byte, desc FieldDescriptor, v Value) {
	switch desc.kind {
	case FieldNumeric:
		writeNumeric(slot, desc.width, v)
	case FieldBool:
		if v.Bool() {
			slot[0] = 1
		} else {
			slot[0] = 0
		}
	case FieldString:
		writeBytes(slot, desc.maxLen, []byte(v.Str()))
	case FieldBinary:
		writeBytes(slot, desc.maxLen, v.Bytes())
	case FieldEnum:
		writeEnum(slot, desc.tags, v.Str())
	case FieldArray:
		writeArray(slot, desc, v.Elems())
	case FieldTuple:
		writeTuple(slot, desc, v.Elems())
	case FieldRef:
		eid := v.RefEid()
		if v.IsNullRef() {
			eid = NullRef
		}
		binary.LittleEndian.PutUint32(slot, uint32(eid)&refIDMask)
	}
}

func readValue(slot []byte, desc FieldDescriptor) Value {
	switch desc.kind {
	case FieldNumeric:
		return readNumeric(slot, desc.width)
	case FieldBool:
		return BoolValue(slot[0] != 0)
	case FieldString:
		return StringValue(string(readBytes(slot, desc.maxLen)))
	case FieldBinary:
		raw := readBytes(slot, desc.maxLen)
		out := make([]byte, len(raw))
		copy(out, raw)
		return BinaryValue(out)
	case FieldEnum:
		return EnumValue(readEnum(slot, desc.tags))
	case FieldArray:
		return ArrayValue(readArray(slot, desc)...)
	case FieldTuple:
		return TupleValue(readTuple(slot, desc)...)
	case FieldRef:
		raw := binary.LittleEndian.Uint32(slot) & refIDMask
		return Value{kind: FieldRef, i64: int64(raw)}
	default:
		return Value{}
	}
}

func writeNumeric(slot []byte, width NumericWidth, v Value) {
	switch width {
	case WidthI8:
		slot[0] = byte(int8(v.Int()))
	case WidthU8:
		slot[0] = byte(v.Uint())
	case WidthI16:
		binary.LittleEndian.PutUint16(slot, uint16(int16(v.Int())))
	case WidthU16:
		binary.LittleEndian.PutUint16(slot, uint16(v.Uint()))
	case WidthI32:
		binary.LittleEndian.PutUint32(slot, uint32(int32(v.Int())))
	case WidthU32:
		binary.LittleEndian.PutUint32(slot, uint32(v.Uint()))
	case WidthF32:
		binary.LittleEndian.PutUint32(slot, math.Float32bits(float32(v.Float())))
	case WidthF64:
		binary.LittleEndian.PutUint64(slot, math.Float64bits(v.Float()))
	}
}

func readNumeric(slot []byte, width NumericWidth) Value {
	switch width {
	case WidthI8:
		return IntValue(int64(int8(slot[0])))
	case WidthU8:
		return UintValue(uint64(slot[0]))
	case WidthI16:
		return IntValue(int64(int16(binary.LittleEndian.Uint16(slot))))
	case WidthU16:
		return UintValue(uint64(binary.LittleEndian.Uint16(slot)))
	case WidthI32:
		return IntValue(int64(int32(binary.LittleEndian.Uint32(slot))))
	case WidthU32:
		return UintValue(uint64(binary.LittleEndian.Uint32(slot)))
	case WidthF32:
		return FloatValue(float64(math.Float32frombits(binary.LittleEndian.Uint32(slot))))
	case WidthF64:
		return FloatValue(math.Float64frombits(binary.LittleEndian.Uint64(slot)))
	default:
		return Value{}
	}
}

// writeBytes writes a 4-byte little-endian length prefix followed by the
// minimum of len(data) and maxLen payload bytes. Unused tail bytes are
// don't-care and left as-is.
func writeBytes(slot []byte, maxLen int, data []byte) {
	n := len(data)
	if n > maxLen {
		n = maxLen
	}
	binary.LittleEndian.PutUint32(slot[:4], uint32(n))
	copy(slot[4:4+n], data[:n])
}

func readBytes(slot []byte, maxLen int) []byte {
	n := int(binary.LittleEndian.Uint32(slot[:4]))
	if n > maxLen {
		n = maxLen
	}
	if n < 0 {
		n = 0
	}
	return slot[4 : 4+n]
}

func writeEnum(slot []byte, tags []string, tag string) {
	idx := 0
	if i := sort.SearchStrings(tags, tag); i < len(tags) && tags[i] == tag {
		idx = i
	}
	if len(slot) == 1 {
		slot[0] = byte(idx)
	} else {
		binary.LittleEndian.PutUint16(slot, uint16(idx))
	}
}

func readEnum(slot []byte, tags []string) string {
	var idx int
	if len(slot) == 1 {
		idx = int(slot[0])
	} else {
		idx = int(binary.LittleEndian.Uint16(slot))
	}
	if idx < 0 || idx >= len(tags) {
		idx = 0
	}
	return tags[idx]
}

func writeArray(slot []byte, desc FieldDescriptor, elems []Value) {
	n := len(elems)
	if n > desc.maxLen {
		n = desc.maxLen
	}
	binary.LittleEndian.PutUint32(slot[:4], uint32(n))
	body := slot[4:]
	elemSize := slotSizeOf(*desc.elem)
	for i := 0; i < n; i++ {
		writeValue(body[i*elemSize:(i+1)*elemSize], *desc.elem, elems[i])
	}
}

func readArray(slot []byte, desc FieldDescriptor) []Value {
	n := int(binary.LittleEndian.Uint32(slot[:4]))
	if n > desc.maxLen {
		n = desc.maxLen
	}
	if n < 0 {
		n = 0
	}
	body := slot[4:]
	elemSize := slotSizeOf(*desc.elem)
	out := make([]Value, n)
	for i := 0; i < n; i++ {
		out[i] = readValue(body[i*elemSize:(i+1)*elemSize], *desc.elem)
	}
	return out
}

func writeTuple(slot []byte, desc FieldDescriptor, elems []Value) {
	elemSize := slotSizeOf(*desc.elem)
	zero := zeroValue(*desc.elem)
	for i := 0; i < desc.count; i++ {
		v := zero
		if i < len(elems) {
			v = elems[i]
		}
		writeValue(slot[i*elemSize:(i+1)*elemSize], *desc.elem, v)
	}
}

func readTuple(slot []byte, desc FieldDescriptor) []Value {
	elemSize := slotSizeOf(*desc.elem)
	out := make([]Value, desc.count)
	for i := 0; i < desc.count; i++ {
		out[i] = readValue(slot[i*elemSize:(i+1)*elemSize], *desc.elem)
	}
	return out
}
