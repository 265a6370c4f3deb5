package form

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/spf13/cast"
)

// Type is a type marker: a rule key that names both a validator and a
// converter for a semantic type ("email", "int", "float", Number, Date...).
type Type string

// Built-in markers.
const (
	Number Type = "Number"
	Date   Type = "Date"
)

// Reserved rule keys. They configure the field instead of naming a rule.
const (
	KeyType         = "type"
	KeyRequired     = "required"
	KeyDefaultValue = "defaultValue"
	KeyMessage      = "message"
)

// Rules is a rule spec keyed by rule name. Go maps carry no order, so keys
// compile in sorted order; use RuleList when order matters.
type Rules map[string]any

// Rule is one rule name with its argument. A slice argument is spread over
// the rule's parameters.
type Rule struct {
	Name string
	Arg  any
}

// RuleList is a rule spec that keeps the declared order.
type RuleList []Rule

// CheckFunc is a field-local validator given inline as a rule argument.
type CheckFunc func(c *Check)

// ConvertFunc is a field-local converter given inline as a rule argument.
type ConvertFunc func(c *Conversion)

// RequestContext is what computed default values can read from.
type RequestContext interface {
	Input(key string, fallback ...string) string
}

// DefaultValue is either a literal or a value computed from the request.
type DefaultValue struct {
	literal any
	compute func(RequestContext) (any, error)
	set     bool
}

// Literal returns a DefaultValue that always yields v.
func Literal(v any) DefaultValue {
	return DefaultValue{literal: v, set: true}
}

// Computed returns a DefaultValue computed per request.
func Computed(fn func(RequestContext) (any, error)) DefaultValue {
	return DefaultValue{compute: fn, set: fn != nil}
}

// IsSet reports whether a default was configured.
func (d DefaultValue) IsSet() bool { return d.set }

// IsComputed reports whether the default depends on the request.
func (d DefaultValue) IsComputed() bool { return d.compute != nil }

// Resolve produces the default for one request.
func (d DefaultValue) Resolve(ctx RequestContext) (any, error) {
	if d.compute != nil {
		return d.compute(ctx)
	}
	return d.literal, nil
}

// Field is the compiled unit for one schema key. It is immutable.
type Field struct {
	name     string
	typ      Type
	required bool
	message  string
	def      DefaultValue
	rules    []Rule
	spec     RuleList
}

// Name returns the field name.
func (f *Field) Name() string { return f.name }

// Type returns the type marker, "" when none was given.
func (f *Field) Type() Type { return f.typ }

// Required reports whether the field must be present and non-blank.
func (f *Field) Required() bool { return f.required }

// Message returns the custom failure message, if any.
func (f *Field) Message() string { return f.message }

// Default returns the configured default value.
func (f *Field) Default() DefaultValue { return f.def }

// Rules returns the non-reserved rules in evaluation order.
func (f *Field) Rules() []Rule {
	out := make([]Rule, len(f.rules))
	copy(out, f.rules)
	return out
}

// Spec returns every compiled key, reserved ones included, in order.
func (f *Field) Spec() RuleList {
	out := make(RuleList, len(f.spec))
	copy(out, f.spec)
	return out
}

// Rule returns the argument given for name.
func (f *Field) Rule(name string) (any, bool) {
	for _, r := range f.spec {
		if r.Name == name {
			return r.Arg, true
		}
	}
	return nil, false
}

// CompileField turns a raw rule spec into a Field. A spec that is not a
// mapping is a bare type marker.
func CompileField(name string, raw any) (*Field, error) {
	list, err := ruleList(raw)
	if err != nil {
		return nil, configErr(name, "", err)
	}

	f := &Field{name: name, spec: list}
	for _, r := range list {
		if err := f.apply(r); err != nil {
			return nil, configErr(name, r.Name, err)
		}
	}
	return f, nil
}

func (f *Field) apply(r Rule) error {
	switch strings.ToLower(r.Name) {
	case "type":
		t, err := typeMarker(r.Arg)
		if err != nil {
			return err
		}
		f.typ = t
	case "required":
		b, err := cast.ToBoolE(r.Arg)
		if err != nil {
			return fmt.Errorf("%w: required must be a boolean", ErrSchema)
		}
		f.required = b
	case "message":
		f.message = Stringify(r.Arg)
	case "defaultvalue":
		d, err := defaultValue(r.Arg)
		if err != nil {
			return err
		}
		f.def = d
	default:
		f.rules = append(f.rules, Rule{Name: r.Name, Arg: inline(r.Arg)})
	}
	return nil
}

func ruleList(raw any) (RuleList, error) {
	switch s := raw.(type) {
	case nil:
		return nil, fmt.Errorf("%w: empty rule spec", ErrSchema)
	case Type:
		return RuleList{{Name: KeyType, Arg: s}}, nil
	case string:
		return RuleList{{Name: KeyType, Arg: Type(s)}}, nil
	case Rules:
		return sortedRules(s), nil
	case map[string]any:
		return sortedRules(s), nil
	case RuleList:
		return append(RuleList(nil), s...), nil
	case []Rule:
		return append(RuleList(nil), s...), nil
	}
	if isScalar(raw) {
		return RuleList{{Name: KeyType, Arg: Type(Stringify(raw))}}, nil
	}
	return nil, fmt.Errorf("%w: unsupported rule spec %T", ErrSchema, raw)
}

func sortedRules(m map[string]any) RuleList {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	list := make(RuleList, 0, len(keys))
	for _, k := range keys {
		list = append(list, Rule{Name: k, Arg: m[k]})
	}
	return list
}

func typeMarker(v any) (Type, error) {
	switch t := v.(type) {
	case Type:
		return t, nil
	case string:
		return Type(t), nil
	}
	if isScalar(v) {
		return Type(Stringify(v)), nil
	}
	return "", fmt.Errorf("%w: type marker must be a string, got %T", ErrSchema, v)
}

func defaultValue(v any) (DefaultValue, error) {
	switch d := v.(type) {
	case DefaultValue:
		return d, nil
	case func(RequestContext) (any, error):
		return Computed(d), nil
	case func(RequestContext) any:
		return Computed(func(ctx RequestContext) (any, error) { return d(ctx), nil }), nil
	case func(RequestContext) string:
		return Computed(func(ctx RequestContext) (any, error) { return d(ctx), nil }), nil
	}
	if fn := reflect.ValueOf(v); fn.Kind() == reflect.Func {
		return computedFunc(fn)
	}
	return Literal(v), nil
}

var contextType = reflect.TypeOf((*RequestContext)(nil)).Elem()

// computedFunc adapts func(RequestContext) T and
// func(RequestContext) (T, error). Any other function is a schema error.
func computedFunc(fn reflect.Value) (DefaultValue, error) {
	ft := fn.Type()
	ok := ft.NumIn() == 1 && !ft.IsVariadic() && ft.In(0) == contextType &&
		(ft.NumOut() == 1 || (ft.NumOut() == 2 && ft.Out(1) == errorType))
	if !ok || fn.IsNil() {
		return DefaultValue{}, fmt.Errorf("%w: defaultValue function must be func(RequestContext) T or func(RequestContext) (T, error), got %s", ErrSchema, ft)
	}
	return Computed(func(ctx RequestContext) (any, error) {
		in := reflect.ValueOf(&ctx).Elem()
		out := fn.Call([]reflect.Value{in})
		if len(out) == 2 && !out[1].IsNil() {
			return nil, out[1].Interface().(error)
		}
		return out[0].Interface(), nil
	}), nil
}

// inline normalises plain function literals into CheckFunc/ConvertFunc.
func inline(arg any) any {
	switch fn := arg.(type) {
	case func(*Check):
		return CheckFunc(fn)
	case func(*Conversion):
		return ConvertFunc(fn)
	}
	return arg
}

func isScalar(v any) bool {
	switch v.(type) {
	case bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	}
	return false
}
