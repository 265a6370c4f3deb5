package form

import (
	"fmt"
	"sort"
)

// Definition is one raw schema entry: a field name and its rule spec.
type Definition struct {
	Name string
	Spec any
}

// Define builds a Definition.
//
//	form.Define("username", form.Rules{"required": true, "len": []int{3, 10}})
//	form.Define("email", "email")
func Define(name string, spec any) Definition {
	return Definition{Name: name, Spec: spec}
}

// Schema is an ordered, immutable collection of Fields. Compile it once at
// startup and share it across requests.
type Schema struct {
	fields map[string]*Field
	names  []string
	engine *Engine
}

// Compile compiles defs in order. The order becomes the default validation
// scope.
func Compile(reg *Registry, defs ...Definition) (*Schema, error) {
	if reg == nil {
		return nil, fmt.Errorf("%w: nil registry", ErrSchema)
	}

	s := &Schema{
		fields: make(map[string]*Field, len(defs)),
		names:  make([]string, 0, len(defs)),
		engine: NewEngine(reg),
	}
	for _, d := range defs {
		if d.Name == "" {
			return nil, fmt.Errorf("%w: empty field name", ErrSchema)
		}
		if _, dup := s.fields[d.Name]; dup {
			return nil, configErr(d.Name, "", fmt.Errorf("%w: duplicate field", ErrSchema))
		}
		f, err := CompileField(d.Name, d.Spec)
		if err != nil {
			return nil, err
		}
		s.fields[d.Name] = f
		s.names = append(s.names, d.Name)
	}
	return s, nil
}

// CompileMap compiles a name → spec mapping. Names are taken in sorted order.
func CompileMap(reg *Registry, raw map[string]any) (*Schema, error) {
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	defs := make([]Definition, 0, len(names))
	for _, name := range names {
		defs = append(defs, Define(name, raw[name]))
	}
	return Compile(reg, defs...)
}

// MustCompile is like Compile but panics on error. Use it for schemas
// declared in code at startup.
func MustCompile(reg *Registry, defs ...Definition) *Schema {
	s, err := Compile(reg, defs...)
	if err != nil {
		panic(fmt.Sprintf("form: compile schema: %v", err))
	}
	return s
}

// Field returns the compiled field name.
func (s *Schema) Field(name string) (*Field, bool) {
	f, ok := s.fields[name]
	return f, ok
}

// Fields returns every compiled field keyed by name.
func (s *Schema) Fields() map[string]*Field {
	out := make(map[string]*Field, len(s.fields))
	for k, f := range s.fields {
		out[k] = f
	}
	return out
}

// FieldNames returns the declared field order.
func (s *Schema) FieldNames() []string {
	return append([]string(nil), s.names...)
}

// Engine returns the engine the schema evaluates fields with.
func (s *Schema) Engine() *Engine { return s.engine }
