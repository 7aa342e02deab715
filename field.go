package silo

import (
	"fmt"
	"sort"
)

// FieldKind is the closed sum of field-descriptor variants a schema can
// describe. There is no string-keyed "any" escape hatch: every field a
// component carries resolves to exactly one of these kinds.
type FieldKind uint8

const (
	FieldNumeric FieldKind = iota
	FieldBool
	FieldString
	FieldBinary
	FieldEnum
	FieldArray
	FieldTuple
	FieldRef
)

func (k FieldKind) String() string {
	switch k {
	case FieldNumeric:
		return "numeric"
	case FieldBool:
		return "bool"
	case FieldString:
		return "string"
	case FieldBinary:
		return "binary"
	case FieldEnum:
		return "enum"
	case FieldArray:
		return "array"
	case FieldTuple:
		return "tuple"
	case FieldRef:
		return "ref"
	default:
		return "unknown"
	}
}

// NumericWidth enumerates the supported fixed-width numeric storage types.
type NumericWidth uint8

const (
	WidthI8 NumericWidth = iota
	WidthI16
	WidthI32
	WidthU8
	WidthU16
	WidthU32
	WidthF32
	WidthF64
)

// byteSize returns the storage width in bytes of a numeric width.
func (w NumericWidth) byteSize() int {
	switch w {
	case WidthI8, WidthU8:
		return 1
	case WidthI16, WidthU16:
		return 2
	case WidthI32, WidthU32, WidthF32:
		return 4
	case WidthF64:
		return 8
	default:
		return 0
	}
}

func (w NumericWidth) String() string {
	switch w {
	case WidthI8:
		return "i8"
	case WidthI16:
		return "i16"
	case WidthI32:
		return "i32"
	case WidthU8:
		return "u8"
	case WidthU16:
		return "u16"
	case WidthU32:
		return "u32"
	case WidthF32:
		return "f32"
	case WidthF64:
		return "f64"
	default:
		return "unknown"
	}
}

// FieldDescriptor is an immutable, validated description of one field in a
// component schema. Construct instances with the Field* builder functions;
// zero-value FieldDescriptors are never exposed to callers.
type FieldDescriptor struct {
	kind FieldKind

	width NumericWidth // FieldNumeric

	maxLen int // FieldString, FieldBinary, FieldArray (element count)

	tags []string // FieldEnum, sorted ascending

	elem  *FieldDescriptor // FieldArray, FieldTuple
	count int              // FieldTuple

	hasDefault bool
	def        Value
}

// Kind reports which sum-type variant this descriptor describes.
func (f FieldDescriptor) Kind() FieldKind { return f.kind }

// WithDefault returns a copy of the descriptor carrying the given default
// value. The default is not validated against the field's truncation rules
// until it is first materialized by addComponent.
func (f FieldDescriptor) WithDefault(v Value) FieldDescriptor {
	f.hasDefault = true
	f.def = v
	return f
}

// FieldNumericOf builds a numeric field of the given width. width is always
// one of the NumericWidth constants, so unlike the variable-length and
// composite builders below this one cannot fail.
func FieldNumericOf(width NumericWidth) FieldDescriptor {
	return FieldDescriptor{kind: FieldNumeric, width: width}
}

// FieldBoolOf builds a boolean field.
func FieldBoolOf() FieldDescriptor {
	return FieldDescriptor{kind: FieldBool}
}

// FieldStringOf builds a UTF-8 string field with maximum byte length maxLen.
func FieldStringOf(maxLen int) (FieldDescriptor, error) {
	if maxLen <= 0 {
		return FieldDescriptor{}, InvalidFieldSpecError{Field: "<string>", Reason: "max byte length must be positive"}
	}
	return FieldDescriptor{kind: FieldString, maxLen: maxLen}, nil
}

// FieldBinaryOf builds a binary field with maximum byte length maxLen.
func FieldBinaryOf(maxLen int) (FieldDescriptor, error) {
	if maxLen <= 0 {
		return FieldDescriptor{}, InvalidFieldSpecError{Field: "<binary>", Reason: "max byte length must be positive"}
	}
	return FieldDescriptor{kind: FieldBinary, maxLen: maxLen}, nil
}

// FieldEnumOf builds an enum field over a finite set of string tags. Tags
// are sorted ascending; the default value is the index-0 tag.
func FieldEnumOf(tags ...string) (FieldDescriptor, error) {
	if len(tags) == 0 {
		return FieldDescriptor{}, InvalidFieldSpecError{Field: "<enum>", Reason: "tag set must not be empty"}
	}
	if len(tags) > 1<<16 {
		return FieldDescriptor{}, InvalidFieldSpecError{Field: "<enum>", Reason: "tag set exceeds u16 index space"}
	}
	seen := make(map[string]struct{}, len(tags))
	sorted := append([]string(nil), tags...)
	sort.Strings(sorted)
	for _, t := range sorted {
		if t == "" {
			return FieldDescriptor{}, InvalidFieldSpecError{Field: "<enum>", Reason: "tag must not be empty"}
		}
		if _, dup := seen[t]; dup {
			return FieldDescriptor{}, InvalidFieldSpecError{Field: "<enum>", Reason: fmt.Sprintf("duplicate tag %q", t)}
		}
		seen[t] = struct{}{}
	}
	return FieldDescriptor{kind: FieldEnum, tags: sorted}, nil
}

// FieldArrayOf builds an array field: a length-prefixed run of up to maxLen
// elements described by elem. elem must be a scalar (numeric, bool, string,
// or binary); nesting array/tuple/enum/ref fails with InvalidElementType.
func FieldArrayOf(elem FieldDescriptor, maxLen int) (FieldDescriptor, error) {
	if maxLen <= 0 {
		return FieldDescriptor{}, InvalidFieldSpecError{Field: "<array>", Reason: "max element count must be positive"}
	}
	if !isScalarElement(elem.kind) {
		return FieldDescriptor{}, InvalidElementTypeError{Field: "<array>", Kind: elem.kind}
	}
	e := elem
	return FieldDescriptor{kind: FieldArray, elem: &e, maxLen: maxLen}, nil
}

// FieldTupleOf builds a fixed-size tuple field of exactly count contiguous
// elem slots with no length prefix. elem must be a scalar.
func FieldTupleOf(elem FieldDescriptor, count int) (FieldDescriptor, error) {
	if count <= 0 {
		return FieldDescriptor{}, InvalidFieldSpecError{Field: "<tuple>", Reason: "element count must be positive"}
	}
	if !isScalarElement(elem.kind) {
		return FieldDescriptor{}, InvalidElementTypeError{Field: "<tuple>", Kind: elem.kind}
	}
	e := elem
	return FieldDescriptor{kind: FieldTuple, elem: &e, count: count}, nil
}

// FieldRefOf builds a weak, non-owning reference field.
func FieldRefOf() FieldDescriptor {
	return FieldDescriptor{kind: FieldRef}
}

func isScalarElement(k FieldKind) bool {
	switch k {
	case FieldNumeric, FieldBool, FieldString, FieldBinary:
		return true
	default:
		return false
	}
}
