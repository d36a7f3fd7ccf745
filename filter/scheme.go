package filter

import (
	"encoding/json"
	"fmt"
	"sort"
)

// FieldPathItem is one segment of a field path. The only segment kind
// today is PathName (map-key access); new kinds can be added as further
// implementors without breaking existing callers.
type FieldPathItem interface {
	isFieldPathItem()
}

// PathName addresses a named key inside a Map value.
type PathName string

func (PathName) isFieldPathItem() {}

type fieldDef struct {
	name  string
	index int
	ty    Type
}

// Scheme is the field registry a filter is compiled against. Each field
// gets a stable slot index and a declared type at registration time;
// neither changes afterwards. A Scheme is built once, then shared
// read-only between any number of execution contexts.
type Scheme struct {
	fields map[string]*fieldDef
	order  []*fieldDef
}

// NewScheme creates an empty scheme.
func NewScheme() *Scheme {
	return &Scheme{fields: make(map[string]*fieldDef)}
}

// AddField registers a field under a name with a declared type.
// Registering the same name twice is an error.
func (s *Scheme) AddField(name string, ty Type) error {
	if _, ok := s.fields[name]; ok {
		return fmt.Errorf("field %q is already registered", name)
	}
	def := &fieldDef{name: name, index: len(s.order), ty: ty}
	s.fields[name] = def
	s.order = append(s.order, def)
	return nil
}

// FieldCount returns the number of registered fields.
func (s *Scheme) FieldCount() int {
	return len(s.order)
}

// GetField looks up a field by name.
func (s *Scheme) GetField(name string) (Field, bool) {
	def, ok := s.fields[name]
	if !ok {
		return Field{}, false
	}
	return Field{scheme: s, def: def}, true
}

// FieldNames returns the registered field names in slot order.
func (s *Scheme) FieldNames() []string {
	names := make([]string, len(s.order))
	for i, def := range s.order {
		names[i] = def.name
	}
	return names
}

// Equal reports whether two schemes are the same scheme. Schemes are
// compared by identity, not structure: a context only ever accepts
// fields from the exact scheme it was created against.
func (s *Scheme) Equal(other *Scheme) bool {
	return s == other
}

// ParseScheme builds a scheme from a JSON object mapping field names to
// type strings, e.g. {"http.host": "Bytes", "ip.src": "Ip"}. Fields are
// registered in name order so that slot indices are deterministic.
func ParseScheme(data []byte) (*Scheme, error) {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse scheme: %w", err)
	}
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	scheme := NewScheme()
	for _, name := range names {
		ty, err := ParseType(raw[name])
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		if err := scheme.AddField(name, ty); err != nil {
			return nil, err
		}
	}
	return scheme, nil
}

// Field is a compiled reference to a scheme entry, optionally narrowed
// by a path into a nested Map value. Fields are produced by the scheme
// (or by the filter compiler, which validates paths against declared
// types) and consumed by the execution context.
type Field struct {
	scheme *Scheme
	def    *fieldDef
	path   []FieldPathItem
}

// Scheme returns the scheme this field belongs to.
func (f Field) Scheme() *Scheme {
	return f.scheme
}

// Name returns the field's registered name.
func (f Field) Name() string {
	return f.def.name
}

// Index returns the field's stable slot index.
func (f Field) Index() int {
	return f.def.index
}

// GetType returns the field's declared type.
func (f Field) GetType() Type {
	return f.def.ty
}

// Path returns the path items this reference descends through.
func (f Field) Path() []FieldPathItem {
	return f.path
}

// WithPath returns a copy of the field narrowed by the given path items.
// The path is validated against the declared type: each segment must
// descend through one level of Map nesting.
func (f Field) WithPath(items ...FieldPathItem) (Field, error) {
	ty := f.def.ty
	for range items {
		next, ok := ty.Next()
		if !ok {
			return Field{}, &TypeMismatchError{
				Expected: MapType(ty),
				Actual:   ty,
			}
		}
		ty = next
	}
	narrowed := f
	narrowed.path = append(append([]FieldPathItem(nil), f.path...), items...)
	return narrowed, nil
}
