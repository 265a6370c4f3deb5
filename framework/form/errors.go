package form

import (
	"errors"
	"fmt"
)

// ErrorKind classifies what went wrong.
type ErrorKind int

const (
	// FieldValidationError is a problem with request data. It never surfaces as
	// a Go error; it is recorded in Result.Errors.
	FieldValidationError ErrorKind = iota + 1
	// InternalConfigurationError is a schema-authoring or registry-wiring bug.
	InternalConfigurationError
)

func (k ErrorKind) String() string {
	switch k {
	case FieldValidationError:
		return "FieldValidationError"
	case InternalConfigurationError:
		return "InternalConfigurationError"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

var (
	// ErrSchema is returned when a raw schema or rule spec cannot be compiled.
	ErrSchema = errors.New("form: invalid schema")

	// ErrRuleArgument is returned when a rule argument cannot be passed to the
	// registered rule function.
	ErrRuleArgument = errors.New("form: invalid rule argument")

	// ErrDefaultValue is returned when a computed default value fails.
	ErrDefaultValue = errors.New("form: default value failed")

	// ErrNilField is returned when the engine is handed a nil field.
	ErrNilField = errors.New("form: nil field")
)

// ConfigError is an InternalConfigurationError tied to a field and, when
// known, the rule that triggered it.
type ConfigError struct {
	Field string
	Rule  string
	Err   error
}

func (e *ConfigError) Error() string {
	switch {
	case e.Field != "" && e.Rule != "":
		return fmt.Sprintf("field %q, rule %q: %v", e.Field, e.Rule, e.Err)
	case e.Field != "":
		return fmt.Sprintf("field %q: %v", e.Field, e.Err)
	}
	return e.Err.Error()
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Kind always reports InternalConfigurationError.
func (e *ConfigError) Kind() ErrorKind { return InternalConfigurationError }

// IsConfigError reports whether err carries a *ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

func configErr(field, rule string, err error) *ConfigError {
	return &ConfigError{Field: field, Rule: rule, Err: err}
}
