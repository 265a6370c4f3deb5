package form

import (
	"fmt"
	"strings"
)

// Values is a raw input mapping as produced by a body parser. A key that is
// present with a nil or "" value is blank; a missing key is absent.
type Values map[string]any

// Input returns the value for key as a string, so Values can serve as the
// RequestContext of computed defaults.
func (v Values) Input(key string, fallback ...string) string {
	s := Stringify(v[key])
	if s == "" && len(fallback) > 0 {
		return fallback[0]
	}
	return s
}

// Option tunes a single Process call.
type Option func(*processOptions)

type processOptions struct {
	fields []string
	ctx    RequestContext
}

// WithFields limits processing to names, in that order. Names the schema
// does not know are skipped.
func WithFields(names ...string) Option {
	return func(o *processOptions) { o.fields = names }
}

// WithContext sets the context handed to computed default values. Without
// it the input itself is used.
func WithContext(ctx RequestContext) Option {
	return func(o *processOptions) { o.ctx = ctx }
}

// Process validates and converts input. Field problems land in
// Result.Errors; the error return is reserved for configuration problems,
// such as a computed default that fails or a rule given unusable arguments.
func (s *Schema) Process(input Values, opts ...Option) (*Result, error) {
	o := processOptions{fields: s.names, ctx: input}
	for _, opt := range opts {
		opt(&o)
	}
	if o.ctx == nil {
		o.ctx = Values{}
	}

	res := newResult()
	for _, name := range o.fields {
		f, ok := s.fields[name]
		if !ok {
			continue
		}

		raw, present := input[name]
		switch {
		case !present:
			if f.required {
				res.setError(name, requiredMessage(name))
			}

		case isBlank(raw):
			switch {
			case f.required:
				res.setError(name, requiredMessage(name))
			case f.def.IsSet():
				v, err := f.def.Resolve(o.ctx)
				if err != nil {
					return nil, configErr(name, KeyDefaultValue, fmt.Errorf("%w: %w", ErrDefaultValue, err))
				}
				res.Data[name] = v
			default:
				res.Data[name] = emptyValue(f.typ)
			}

		default:
			v, err := s.engine.Evaluate(raw, f, func(msg string) {
				res.setError(name, msg)
			})
			if err != nil {
				return nil, err
			}
			res.Data[name] = v
		}
	}
	return res, nil
}

func requiredMessage(name string) string { return name + " is required" }

// emptyValue is what a blank, optional field without a default becomes.
func emptyValue(t Type) any {
	switch strings.ToLower(string(t)) {
	case "int":
		return 0
	case "number", "decimal", "float":
		return float64(0)
	case "date":
		return nil
	}
	return ""
}
