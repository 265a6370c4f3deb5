package form

import (
	"fmt"

	"github.com/spf13/cast"
)

// Check is the validator-side state for one value. Validators read the value
// and report failures through Error; they never return errors for bad input.
type Check struct {
	field  string
	value  any
	str    string
	msg    string
	report func(string)
}

// NewCheck prepares a Check for value. msg, when non-empty, replaces every
// failure message reported through the Check.
func NewCheck(field string, value any, msg string, report func(string)) *Check {
	return &Check{
		field:  field,
		value:  value,
		str:    Stringify(value),
		msg:    msg,
		report: report,
	}
}

// Field returns the name of the field being checked.
func (c *Check) Field() string { return c.field }

// Value returns the raw value.
func (c *Check) Value() any { return c.value }

// String returns the raw value as a string ("" for nil).
func (c *Check) String() string { return c.str }

// Error reports a failure. The field's custom message wins over msg.
func (c *Check) Error(msg string) {
	if c.msg != "" {
		msg = c.msg
	}
	if c.report != nil {
		c.report(msg)
	}
}

// Errorf is Error with formatting.
func (c *Check) Errorf(format string, args ...any) {
	c.Error(fmt.Sprintf(format, args...))
}

// Conversion is the converter-side state for one value. Converters replace
// the value in place and never fail.
type Conversion struct {
	value any
}

// NewConversion seeds a Conversion with the raw value.
func NewConversion(value any) *Conversion {
	return &Conversion{value: value}
}

// Value returns the current value.
func (c *Conversion) Value() any { return c.value }

// String returns the current value as a string ("" for nil).
func (c *Conversion) String() string { return Stringify(c.value) }

// Set replaces the current value.
func (c *Conversion) Set(v any) { c.value = v }

// Stringify renders a raw input value the way rules see it.
func Stringify(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	}
	if s, err := cast.ToStringE(v); err == nil {
		return s
	}
	return fmt.Sprint(v)
}
