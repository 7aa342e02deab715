package silo

// NullRef is the stored entity-id bits that denote an absent ref. It is the
// all-ones pattern of the 25-bit entity-id space a ref field packs into its
// 32-bit slot.
const NullRef Eid = (1 << 25) - 1

// refIDMask extracts the 25 entity-id bits from a packed ref slot; the
// remaining 7 high bits are reserved and always zero in this implementation.
const refIDMask uint32 = 0x01FF_FFFF

// Value is the closed tagged-union counterpart to FieldKind: every field
// read or written through this package flows through one of these variants.
// Callers never see a raw string-keyed "any".
type Value struct {
	kind FieldKind

	i64 int64   // numeric signed/ref eid
	u64 uint64  // numeric unsigned
	f64 float64 // numeric float
	b   bool
	str string // string payload or enum tag
	bin []byte // binary payload
	arr []Value // array/tuple elements
}

// Kind reports the variant carried by this value.
func (v Value) Kind() FieldKind { return v.kind }

func IntValue(i int64) Value    { return Value{kind: FieldNumeric, i64: i} }
func UintValue(u uint64) Value  { return Value{kind: FieldNumeric, u64: u} }
func FloatValue(f float64) Value { return Value{kind: FieldNumeric, f64: f} }
func BoolValue(b bool) Value     { return Value{kind: FieldBool, b: b} }
func StringValue(s string) Value { return Value{kind: FieldString, str: s} }
func BinaryValue(b []byte) Value { return Value{kind: FieldBinary, bin: b} }
func EnumValue(tag string) Value { return Value{kind: FieldEnum, str: tag} }
func ArrayValue(elems ...Value) Value { return Value{kind: FieldArray, arr: elems} }
func TupleValue(elems ...Value) Value { return Value{kind: FieldTuple, arr: elems} }

// RefValue wraps a live entity id as a ref value.
func RefValue(eid Eid) Value { return Value{kind: FieldRef, i64: int64(eid)} }

// NullRefValue is the absent-ref value.
func NullRefValue() Value { return Value{kind: FieldRef, i64: int64(NullRef)} }

// Int returns the value as a signed integer, for numeric/ref variants (an
// enum value carries only its tag; see Str). Callers are expected to know
// the schema's declared kind.
func (v Value) Int() int64 { return v.i64 }

// Uint returns the value as an unsigned integer.
func (v Value) Uint() uint64 { return v.u64 }

// Float returns the value as a float64.
func (v Value) Float() float64 { return v.f64 }

// Bool returns the value as a boolean.
func (v Value) Bool() bool { return v.b }

// Str returns the value as a string (string payload, or enum tag).
func (v Value) Str() string { return v.str }

// Bytes returns the value as a byte slice.
func (v Value) Bytes() []byte { return v.bin }

// Elems returns the element values of an array or tuple.
func (v Value) Elems() []Value { return v.arr }

// IsNullRef reports whether a ref value is the absent sentinel.
func (v Value) IsNullRef() bool { return v.kind == FieldRef && Eid(v.i64) == NullRef }

// RefEid returns the packed entity id of a ref value, without liveness
// validation (see ComponentDef.Read for the lazy-validated path).
func (v Value) RefEid() Eid { return Eid(v.i64) }

// zeroValue produces the type's zero value: 0 / false / "" / empty bytes /
// empty array / tuple-of-zeros / index-0 enum tag / NullRef.
func zeroValue(f FieldDescriptor) Value {
	switch f.kind {
	case FieldNumeric:
		return Value{kind: FieldNumeric}
	case FieldBool:
		return Value{kind: FieldBool}
	case FieldString:
		return Value{kind: FieldString}
	case FieldBinary:
		return Value{kind: FieldBinary, bin: nil}
	case FieldEnum:
		return Value{kind: FieldEnum, str: f.tags[0]}
	case FieldArray:
		return Value{kind: FieldArray, arr: nil}
	case FieldTuple:
		elems := make([]Value, f.count)
		zero := zeroValue(*f.elem)
		for i := range elems {
			elems[i] = zero
		}
		return Value{kind: FieldTuple, arr: elems}
	case FieldRef:
		return NullRefValue()
	default:
		return Value{}
	}
}

// defaultOrZero resolves a field's effective default: the descriptor's
// configured default if present, else the type's zero value.
func defaultOrZero(f FieldDescriptor) Value {
	if f.hasDefault {
		return f.def
	}
	return zeroValue(f)
}
