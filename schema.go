package silo

// Schema is an ordered map from field name to FieldDescriptor. It is built
// with Field and becomes immutable the moment it is handed to
// NewComponentDef: the def copies the schema's field list rather than
// sharing the builder's backing slice.
type Schema struct {
	order []string
	byName map[string]FieldDescriptor
}

// NewSchema starts an empty schema builder.
func NewSchema() *Schema {
	return &Schema{byName: make(map[string]FieldDescriptor)}
}

// Field appends a named field descriptor, returning the schema for
// chaining. Re-declaring an existing field name overwrites its descriptor
// in place without disturbing field order.
func (s *Schema) Field(name string, desc FieldDescriptor) *Schema {
	if _, exists := s.byName[name]; !exists {
		s.order = append(s.order, name)
	}
	s.byName[name] = desc
	return s
}

// Len returns the number of fields declared so far.
func (s *Schema) Len() int { return len(s.order) }

// Names returns field names in declaration order.
func (s *Schema) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Lookup returns the descriptor for name and whether it was declared.
func (s *Schema) Lookup(name string) (FieldDescriptor, bool) {
	d, ok := s.byName[name]
	return d, ok
}

// snapshot returns an immutable copy used internally by ComponentDef.
func (s *Schema) snapshot() schemaSnapshot {
	fields := make([]schemaField, len(s.order))
	index := make(map[string]int, len(s.order))
	for i, name := range s.order {
		fields[i] = schemaField{name: name, desc: s.byName[name]}
		index[name] = i
	}
	return schemaSnapshot{fields: fields, index: index}
}

// schemaField pairs a field name with its validated descriptor.
type schemaField struct {
	name string
	desc FieldDescriptor
}

// schemaSnapshot is the immutable, registration-time-frozen form of a
// Schema that a ComponentDef carries from then on.
type schemaSnapshot struct {
	fields []schemaField
	index  map[string]int
}

func (s schemaSnapshot) fieldIndex(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}
