// Package schemafile loads named form schemas from YAML and keeps them
// fresh with hot reload.
//
// A schema file maps form names to field specs. Field order and rule order
// are kept as written:
//
//	forms:
//	  signup:
//	    username:
//	      required: true
//	      len: [3, 10]
//	    email: email
//	    age: int
//	    birth: Date
//	    nickname:
//	      trim: ""
//	      defaultValue: anonymous
package schemafile

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/km-arc/go-iform/framework/form"
)

// ErrUnknownForm is returned when a form name is not in the set.
var ErrUnknownForm = errors.New("schemafile: unknown form")

// Set is an immutable collection of compiled, named schemas.
type Set struct {
	schemas map[string]*form.Schema
	names   []string
}

// Load reads and compiles the schema file at path. Environment variables in
// the file are expanded first.
func Load(path string, reg *form.Registry) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema file: %w", err)
	}
	return Parse(expandEnv(data), reg)
}

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv replaces ${VAR} references only, so a bare $ inside a pattern
// such as "^a$" stays as written.
func expandEnv(data []byte) []byte {
	return envRef.ReplaceAllFunc(data, func(ref []byte) []byte {
		return []byte(os.Getenv(string(envRef.FindSubmatch(ref)[1])))
	})
}

// Parse compiles a schema document.
func Parse(data []byte, reg *form.Registry) (*Set, error) {
	var doc struct {
		Forms yaml.Node `yaml:"forms"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse schema file: %w", err)
	}

	set := &Set{schemas: make(map[string]*form.Schema)}
	forms := resolve(&doc.Forms)
	if forms.Kind == 0 {
		return set, nil
	}
	if forms.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: forms must be a mapping (line %d)", form.ErrSchema, forms.Line)
	}

	for i := 0; i+1 < len(forms.Content); i += 2 {
		name := forms.Content[i].Value
		if _, dup := set.schemas[name]; dup {
			return nil, fmt.Errorf("%w: duplicate form %q (line %d)", form.ErrSchema, name, forms.Content[i].Line)
		}

		defs, err := definitions(resolve(forms.Content[i+1]))
		if err != nil {
			return nil, fmt.Errorf("form %q: %w", name, err)
		}
		schema, err := form.Compile(reg, defs...)
		if err != nil {
			return nil, fmt.Errorf("form %q: %w", name, err)
		}
		set.schemas[name] = schema
		set.names = append(set.names, name)
	}
	return set, nil
}

// Get returns the schema registered as name.
func (s *Set) Get(name string) (*form.Schema, error) {
	schema, ok := s.schemas[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownForm, name)
	}
	return schema, nil
}

// Names returns the form names in file order.
func (s *Set) Names() []string {
	return append([]string(nil), s.names...)
}

// Len returns the number of forms.
func (s *Set) Len() int { return len(s.names) }

func definitions(n *yaml.Node) ([]form.Definition, error) {
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: fields must be a mapping (line %d)", form.ErrSchema, n.Line)
	}

	defs := make([]form.Definition, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		name := n.Content[i].Value
		spec, err := ruleSpec(resolve(n.Content[i+1]))
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		defs = append(defs, form.Define(name, spec))
	}
	return defs, nil
}

// ruleSpec turns a field node into a bare type marker or an ordered RuleList.
func ruleSpec(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		return form.Type(n.Value), nil

	case yaml.MappingNode:
		list := make(form.RuleList, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			var arg any
			if err := n.Content[i+1].Decode(&arg); err != nil {
				return nil, fmt.Errorf("rule %q: %w", n.Content[i].Value, err)
			}
			list = append(list, form.Rule{Name: n.Content[i].Value, Arg: arg})
		}
		return list, nil
	}
	return nil, fmt.Errorf("%w: rule spec must be a type name or a mapping (line %d)", form.ErrSchema, n.Line)
}

func resolve(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}
