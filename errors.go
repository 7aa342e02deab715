package silo

import "fmt"

// InvalidFieldSpecError is raised at schema-construction time when a field
// builder receives arguments it cannot honor (zero/negative length, empty
// or duplicate enum tags, and so on).
type InvalidFieldSpecError struct {
	Field  string
	Reason string
}

func (e InvalidFieldSpecError) Error() string {
	return fmt.Sprintf("invalid field spec for %q: %s", e.Field, e.Reason)
}

// InvalidElementTypeError is raised when an array or tuple field descriptor
// nests a non-scalar element type (array, tuple, enum, or ref).
type InvalidElementTypeError struct {
	Field string
	Kind  FieldKind
}

func (e InvalidElementTypeError) Error() string {
	return fmt.Sprintf("invalid element type for field %q: %s cannot be nested in array/tuple", e.Field, e.Kind)
}

// InvalidQueryError is raised at query-compile time when a predicate
// references a component that was never registered with the Context.
type InvalidQueryError struct {
	ComponentName string
}

func (e InvalidQueryError) Error() string {
	return fmt.Sprintf("invalid query: component %q is not registered with this context", e.ComponentName)
}

// UnknownEntityError is raised by mutators and accessors invoked against an
// entity id that is not currently alive.
type UnknownEntityError struct {
	Eid Eid
}

func (e UnknownEntityError) Error() string {
	return fmt.Sprintf("unknown entity: %d", e.Eid)
}

// DuplicateComponentError is raised by addComponent when the entity already
// carries the component. This is the chosen policy for re-adding an existing
// component (see DESIGN.md open-question resolution): a consistent failure
// rather than a silent overwrite.
type DuplicateComponentError struct {
	Eid           Eid
	ComponentName string
}

func (e DuplicateComponentError) Error() string {
	return fmt.Sprintf("entity %d already has component %q", e.Eid, e.ComponentName)
}

// PoolExhaustedError indicates maxEntities live ids already exist. A
// well-behaved driver treats this as fatal.
type PoolExhaustedError struct {
	MaxEntities int
}

func (e PoolExhaustedError) Error() string {
	return fmt.Sprintf("entity pool exhausted: %d live entities is the configured maximum", e.MaxEntities)
}

// QueryCacheFullError indicates a query's sparse-set cache could not accept
// another entity because it has reached maxEntities capacity. This signals a
// bug in query bookkeeping rather than a recoverable resource condition.
type QueryCacheFullError struct {
	MaxEntities int
}

func (e QueryCacheFullError) Error() string {
	return fmt.Sprintf("query cache is full at capacity %d", e.MaxEntities)
}

// WorkerUninitializedError is the reply sent to an execute message received
// by a worker before its init message.
type WorkerUninitializedError struct{}

func (e WorkerUninitializedError) Error() string {
	return "buffer not initialized"
}

// WorkerExecuteFailureError wraps a worker-reported failure of a dispatched
// execute message. It never crashes the main thread; it surfaces as a
// structured reply on the worker's reply channel.
type WorkerExecuteFailureError struct {
	ThreadIndex int
	Message     string
}

func (e WorkerExecuteFailureError) Error() string {
	return fmt.Sprintf("worker %d execute failed: %s", e.ThreadIndex, e.Message)
}
