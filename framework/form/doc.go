// Package form provides declarative validation and coercion of request input.
//
// # Overview
//
// A schema maps field names to rule specs. Compiled once at startup, it turns
// one raw input mapping into converted data plus a per-field error map. Every
// requested field is evaluated independently; one failing field never stops
// the others.
//
// # Defining a schema
//
//	reg := rules.NewRegistry()
//
//	userForm := form.MustCompile(reg,
//	    form.Define("username", form.Rules{"required": true, "len": []int{3, 10}}),
//	    form.Define("email", "email"),
//	    form.Define("password", form.Rules{"required": true, "len": 3}),
//	    form.Define("age", "int"),
//	    form.Define("birth", form.Date),
//	)
//
// A bare string (or Type) is a type marker. A Rules or RuleList value is a
// set of rule names with their arguments; slice arguments are spread over the
// rule's parameters, so "len": []int{3, 10} calls Len(c, 3, 10).
//
// Reserved keys:
//   - type          type marker
//   - required      boolean
//   - defaultValue  literal, or func(form.RequestContext) any / (any, error)
//   - message       replaces every failure message of the field
//
// Any other key is resolved against the Registry. Unknown names are skipped.
// A form.CheckFunc or form.ConvertFunc argument runs inline instead.
//
// # Processing
//
//	res, err := userForm.Process(form.Values{"username": "al"})
//	// err  → configuration problems only (*form.ConfigError)
//	// res.Data   map[string]any
//	// res.Errors map[string]string, nil when valid
//
// Per field, in declared (or WithFields) order:
//   - missing key:     "<name> is required" when required, otherwise absent
//   - nil or "":       required error, else the default, else an empty value
//     (0 for int, 0.0 for number/decimal/float, nil for date, "" otherwise)
//   - anything else:   validators, then converters, via the Engine
//
// A field holds a single error slot. When several rules fail, the last one
// evaluated wins.
//
// # Registry
//
// Registry.Derive builds entries from the exported methods of capability
// sources. Methods taking *form.Check are validators (IsX also registers type
// X); methods taking *form.Conversion are converters (ToX also registers type
// converter X). Keys are case-insensitive. The registry must not be mutated
// while requests are processed.
package form
