package form

import (
	"reflect"
)

// Engine evaluates one value against one Field: validators first, then
// converters. It holds no per-call state and may be shared.
type Engine struct {
	reg *Registry
}

// NewEngine returns an engine resolving rules through reg.
func NewEngine(reg *Registry) *Engine {
	return &Engine{reg: reg}
}

// Registry returns the registry rules are resolved through.
func (e *Engine) Registry() *Registry { return e.reg }

// Evaluate validates value and returns its converted form.
//
// Every failing validator calls onError; nothing short-circuits, so when
// several rules fail the last one reported is what a single-slot caller
// keeps. The returned error is non-nil only for configuration problems.
func (e *Engine) Evaluate(value any, f *Field, onError func(string)) (any, error) {
	if f == nil {
		return nil, ErrNilField
	}

	c := NewCheck(f.name, value, f.message, onError)
	if isBlank(value) {
		c.Error(requiredMessage(f.name))
	}

	for _, r := range f.rules {
		switch fn := r.Arg.(type) {
		case CheckFunc:
			fn(c)
			continue
		case ConvertFunc:
			continue
		}
		validate, _ := e.reg.Resolve(r.Name)
		if validate == nil {
			continue
		}
		if err := validate(c, spread(r.Arg)...); err != nil {
			return nil, configErr(f.name, r.Name, err)
		}
	}
	if f.typ != "" {
		if validate, _ := e.reg.ResolveType(string(f.typ)); validate != nil {
			if err := validate(c); err != nil {
				return nil, configErr(f.name, KeyType, err)
			}
		}
	}

	conv := NewConversion(value)
	for _, r := range f.rules {
		switch fn := r.Arg.(type) {
		case ConvertFunc:
			fn(conv)
			continue
		case CheckFunc:
			continue
		}
		_, convert := e.reg.Resolve(r.Name)
		if convert == nil {
			continue
		}
		if err := convert(conv, spread(r.Arg)...); err != nil {
			return nil, configErr(f.name, r.Name, err)
		}
	}
	if f.typ != "" {
		if _, convert := e.reg.ResolveType(string(f.typ)); convert != nil {
			if err := convert(conv); err != nil {
				return nil, configErr(f.name, KeyType, err)
			}
		}
	}

	return conv.Value(), nil
}

// spread turns a rule argument into positional arguments. Slices and arrays
// are spread; strings and byte slices are single arguments.
func spread(arg any) []any {
	if arg == nil {
		return nil
	}
	v := reflect.ValueOf(arg)
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return []any{arg}
		}
		out := make([]any, v.Len())
		for i := range out {
			out[i] = v.Index(i).Interface()
		}
		return out
	}
	return []any{arg}
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}
