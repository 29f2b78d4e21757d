package state

// Field describes one settable field of M, the counterpart of a key path.
// Name is recorded on every change so mutations stay inspectable.
type Field[M, V any] struct {
	Name string
	Get  func(M) V
	Set  func(M, V) M
}

// NewField builds a Field descriptor.
func NewField[M, V any](name string, get func(M) V, set func(M, V) M) Field[M, V] {
	return Field[M, V]{Name: name, Get: get, Set: set}
}

// Change is one pending edit: either an assignment to a named field or a
// labelled custom transform.
type Change[M any] struct {
	Field  string // field name, or the label of a custom transform
	Value  any    // assigned value; nil for custom transforms
	Custom bool
	apply  func(M) M
}

// Assign returns a change that overwrites field f with v.
func Assign[M, V any](f Field[M, V], v V) Change[M] {
	return Change[M]{
		Field: f.Name,
		Value: v,
		apply: func(m M) M { return f.Set(m, v) },
	}
}

// Transform returns a change running an arbitrary pure function.
func Transform[M any](label string, fn func(M) M) Change[M] {
	return Change[M]{Field: label, Custom: true, apply: fn}
}

// Apply runs the change against m.
func (c Change[M]) Apply(m M) M {
	if c.apply == nil {
		return m
	}
	return c.apply(m)
}

// Mutation is an ordered list of changes applied left to right. The zero
// value is the empty mutation and applies as identity.
type Mutation[M any] struct {
	changes []Change[M]
}

// NewMutation groups changes into one mutation.
func NewMutation[M any](changes ...Change[M]) Mutation[M] {
	if len(changes) == 0 {
		return Mutation[M]{}
	}
	return Mutation[M]{changes: append([]Change[M](nil), changes...)}
}

// Merge returns a mutation that applies a, then b. Merge is associative.
func Merge[M any](a, b Mutation[M]) Mutation[M] {
	if len(a.changes) == 0 {
		return b
	}
	if len(b.changes) == 0 {
		return a
	}
	out := make([]Change[M], 0, len(a.changes)+len(b.changes))
	out = append(out, a.changes...)
	out = append(out, b.changes...)
	return Mutation[M]{changes: out}
}

// Apply folds every change over model in order.
func (m Mutation[M]) Apply(model M) M {
	for _, c := range m.changes {
		model = c.Apply(model)
	}
	return model
}

// IsEmpty reports whether the mutation holds no changes.
func (m Mutation[M]) IsEmpty() bool { return len(m.changes) == 0 }

// Len returns the number of changes.
func (m Mutation[M]) Len() int { return len(m.changes) }

// Changes returns a copy of the change list.
func (m Mutation[M]) Changes() []Change[M] {
	return append([]Change[M](nil), m.changes...)
}

// Fields lists the touched field names (and custom labels) in first-touch order.
func (m Mutation[M]) Fields() []string {
	seen := make(map[string]struct{}, len(m.changes))
	var out []string
	for _, c := range m.changes {
		if _, ok := seen[c.Field]; ok {
			continue
		}
		seen[c.Field] = struct{}{}
		out = append(out, c.Field)
	}
	return out
}

// UpdateBuilder accumulates changes into a single mutation.
type UpdateBuilder[M any] struct {
	changes []Change[M]
}

// NewUpdateBuilder returns an empty builder.
func NewUpdateBuilder[M any]() *UpdateBuilder[M] {
	return &UpdateBuilder[M]{}
}

// Set appends an assignment of v to field f. It is a function rather than a
// method because methods cannot introduce the type parameter V.
func Set[M, V any](b *UpdateBuilder[M], f Field[M, V], v V) *UpdateBuilder[M] {
	b.changes = append(b.changes, Assign(f, v))
	return b
}

// Add appends prepared changes.
func (b *UpdateBuilder[M]) Add(changes ...Change[M]) *UpdateBuilder[M] {
	b.changes = append(b.changes, changes...)
	return b
}

// Apply appends a custom transform.
func (b *UpdateBuilder[M]) Apply(label string, fn func(M) M) *UpdateBuilder[M] {
	b.changes = append(b.changes, Transform(label, fn))
	return b
}

// Build returns the accumulated changes as one mutation. Later writes to the
// same field win.
func (b *UpdateBuilder[M]) Build() Mutation[M] {
	return NewMutation(b.changes...)
}
