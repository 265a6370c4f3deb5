package form

import (
	"sort"
	"strings"
)

// ValidatorFunc checks c against the rule arguments. A returned error means
// the arguments themselves are unusable, never that the value is bad.
type ValidatorFunc func(c *Check, args ...any) error

// ConverterFunc rewrites c using the rule arguments. A returned error means
// the arguments themselves are unusable.
type ConverterFunc func(c *Conversion, args ...any) error

// entry pairs the two sides of a rule or type marker.
type entry struct {
	name      string
	validator ValidatorFunc
	converter ConverterFunc
}

// Registry maps rule names and type markers to validator/converter pairs.
//
// Keys are lower-cased once at registration, so "isEmail", "IsEmail" and
// "isemail" resolve to the same entry. The registry is not safe for
// concurrent mutation: register, extend and update at configuration time,
// before any request is processed.
type Registry struct {
	rules   map[string]*entry
	types   map[string]*entry
	sources []any
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		rules: make(map[string]*entry),
		types: make(map[string]*entry),
	}
}

// Register adds or replaces the rule name. Either side may be nil.
func (r *Registry) Register(name string, v ValidatorFunc, c ConverterFunc) {
	r.rules[normalize(name)] = &entry{name: name, validator: v, converter: c}
}

// RegisterType adds or replaces the type marker name. Either side may be nil.
func (r *Registry) RegisterType(name string, v ValidatorFunc, c ConverterFunc) {
	r.types[normalize(name)] = &entry{name: name, validator: v, converter: c}
}

// Resolve looks up a rule by name. Unknown names return nil functions.
func (r *Registry) Resolve(name string) (ValidatorFunc, ConverterFunc) {
	if e, ok := r.rules[normalize(name)]; ok {
		return e.validator, e.converter
	}
	return nil, nil
}

// ResolveType looks up a type marker. Unknown markers return nil functions.
func (r *Registry) ResolveType(name string) (ValidatorFunc, ConverterFunc) {
	if e, ok := r.types[normalize(name)]; ok {
		return e.validator, e.converter
	}
	return nil, nil
}

// Names returns the canonical spelling of every rule name, sorted.
func (r *Registry) Names() []string { return names(r.rules) }

// TypeNames returns the canonical spelling of every type marker, sorted.
func (r *Registry) TypeNames() []string { return names(r.types) }

// Derive scans the method sets of sources and registers what it finds. The
// sources are remembered for Update.
func (r *Registry) Derive(sources ...any) {
	for _, src := range sources {
		if src == nil {
			continue
		}
		r.sources = append(r.sources, src)
		r.scan(src)
	}
}

// Extend remembers one more source and re-derives everything.
func (r *Registry) Extend(src any) {
	if src != nil {
		r.sources = append(r.sources, src)
	}
	r.Update()
}

// Update re-derives every remembered source. Entries registered by hand stay
// unless a source method takes their name.
func (r *Registry) Update() {
	for _, src := range r.sources {
		r.scan(src)
	}
}

func (r *Registry) setValidator(table map[string]*entry, name string, fn ValidatorFunc) {
	key := normalize(name)
	e, ok := table[key]
	if !ok {
		e = &entry{name: name}
		table[key] = e
	}
	e.validator = fn
}

func (r *Registry) setConverter(table map[string]*entry, name string, fn ConverterFunc) {
	key := normalize(name)
	e, ok := table[key]
	if !ok {
		e = &entry{name: name}
		table[key] = e
	}
	e.converter = fn
}

func normalize(name string) string { return strings.ToLower(name) }

func names(table map[string]*entry) []string {
	out := make([]string, 0, len(table))
	for _, e := range table {
		out = append(out, e.name)
	}
	sort.Strings(out)
	return out
}
