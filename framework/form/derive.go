package form

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/spf13/cast"
)

var (
	checkType      = reflect.TypeOf((*Check)(nil))
	conversionType = reflect.TypeOf((*Conversion)(nil))
	errorType      = reflect.TypeOf((*error)(nil)).Elem()
)

// scan registers the exported methods of src.
//
//	func (S) Name(c *form.Check, params...)       rule validator "Name"
//	func (S) IsX(c *form.Check, params...)        also type validator "X"
//	func (S) Name(c *form.Conversion, params...)  rule converter "Name"
//	func (S) ToX(c *form.Conversion, params...)   also type converter "X"
//
// A method may return a single error to flag unusable arguments. Methods
// with any other shape are skipped.
func (r *Registry) scan(src any) {
	v := reflect.ValueOf(src)
	t := v.Type()

	for i := 0; i < t.NumMethod(); i++ {
		name := t.Method(i).Name
		fn := v.Method(i)
		ft := fn.Type()
		if ft.NumIn() == 0 || !ruleResults(ft) {
			continue
		}

		switch ft.In(0) {
		case checkType:
			vf := bindValidator(fn)
			r.setValidator(r.rules, name, vf)
			if typ, ok := strings.CutPrefix(name, "Is"); ok && typ != "" {
				r.setValidator(r.types, typ, vf)
			}
		case conversionType:
			cf := bindConverter(fn)
			r.setConverter(r.rules, name, cf)
			if typ, ok := strings.CutPrefix(name, "To"); ok && typ != "" {
				r.setConverter(r.types, typ, cf)
			}
		}
	}
}

func bindValidator(fn reflect.Value) ValidatorFunc {
	return func(c *Check, args ...any) error {
		in, err := callArgs(fn.Type(), reflect.ValueOf(c), args)
		if err != nil {
			return err
		}
		return callResult(fn.Call(in))
	}
}

func bindConverter(fn reflect.Value) ConverterFunc {
	return func(c *Conversion, args ...any) error {
		in, err := callArgs(fn.Type(), reflect.ValueOf(c), args)
		if err != nil {
			return err
		}
		return callResult(fn.Call(in))
	}
}

func ruleResults(ft reflect.Type) bool {
	switch ft.NumOut() {
	case 0:
		return true
	case 1:
		return ft.Out(0) == errorType
	}
	return false
}

func callResult(out []reflect.Value) error {
	if len(out) == 0 || out[0].IsNil() {
		return nil
	}
	return out[0].Interface().(error)
}

// callArgs builds the argument list for a bound rule method. Missing
// arguments become zero values, surplus ones are dropped unless the method
// is variadic.
func callArgs(ft reflect.Type, state reflect.Value, args []any) ([]reflect.Value, error) {
	n := ft.NumIn()
	fixed := n - 1
	if ft.IsVariadic() {
		fixed--
	}

	in := make([]reflect.Value, 0, n+len(args))
	in = append(in, state)

	for i := 0; i < fixed; i++ {
		var arg any
		if i < len(args) {
			arg = args[i]
		}
		v, err := coerce(arg, ft.In(i+1))
		if err != nil {
			return nil, err
		}
		in = append(in, v)
	}

	if ft.IsVariadic() && len(args) > fixed {
		elem := ft.In(n - 1).Elem()
		for _, arg := range args[fixed:] {
			v, err := coerce(arg, elem)
			if err != nil {
				return nil, err
			}
			in = append(in, v)
		}
	}
	return in, nil
}

// coerce converts a schema-supplied argument to the parameter type t.
func coerce(arg any, t reflect.Type) (reflect.Value, error) {
	if arg == nil {
		return reflect.Zero(t), nil
	}
	if v := reflect.ValueOf(arg); v.Type().AssignableTo(t) {
		return v, nil
	}

	var (
		out any
		err error
	)
	switch t.Kind() {
	case reflect.String:
		out, err = cast.ToStringE(arg)
	case reflect.Bool:
		out, err = cast.ToBoolE(arg)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		out, err = cast.ToInt64E(arg)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		out, err = cast.ToUint64E(arg)
	case reflect.Float32, reflect.Float64:
		out, err = cast.ToFloat64E(arg)
	default:
		err = fmt.Errorf("unsupported parameter type %s", t)
	}
	if err != nil {
		return reflect.Value{}, fmt.Errorf("%w: cannot use %v (%T) as %s: %v", ErrRuleArgument, arg, arg, t, err)
	}
	return reflect.ValueOf(out).Convert(t), nil
}
