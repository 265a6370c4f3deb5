package rules

import (
	"html"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/km-arc/go-iform/framework/form"
)

// Filters is the converter-side capability source. Every ToX method is also
// the type converter for marker X. Filters never fail: a value that cannot be
// converted becomes nil.
type Filters struct{}

// ── String filters ───────────────────────────────────────────────────────────

// Trim strips whitespace, or the characters in chars when given.
func (Filters) Trim(c *form.Conversion, chars ...string) {
	if len(chars) > 0 && chars[0] != "" {
		c.Set(strings.Trim(c.String(), chars[0]))
		return
	}
	c.Set(strings.TrimSpace(c.String()))
}

func (Filters) Ltrim(c *form.Conversion, chars ...string) {
	if len(chars) > 0 && chars[0] != "" {
		c.Set(strings.TrimLeft(c.String(), chars[0]))
		return
	}
	c.Set(strings.TrimLeft(c.String(), " \t\r\n"))
}

func (Filters) Rtrim(c *form.Conversion, chars ...string) {
	if len(chars) > 0 && chars[0] != "" {
		c.Set(strings.TrimRight(c.String(), chars[0]))
		return
	}
	c.Set(strings.TrimRight(c.String(), " \t\r\n"))
}

// IfNull replaces an empty value.
func (Filters) IfNull(c *form.Conversion, replacement string) {
	if c.String() == "" {
		c.Set(replacement)
	}
}

func (Filters) ToLower(c *form.Conversion) { c.Set(strings.ToLower(c.String())) }

func (Filters) ToUpper(c *form.Conversion) { c.Set(strings.ToUpper(c.String())) }

func (Filters) Escape(c *form.Conversion) { c.Set(html.EscapeString(c.String())) }

func (Filters) EntityEncode(c *form.Conversion) { c.Set(html.EscapeString(c.String())) }

func (Filters) EntityDecode(c *form.Conversion) { c.Set(html.UnescapeString(c.String())) }

// Normalize rewrites the value in Unicode normalization form C.
func (Filters) Normalize(c *form.Conversion) { c.Set(norm.NFC.String(c.String())) }

// ── Type converters ──────────────────────────────────────────────────────────

// ToInt reads a base-10 integer. A fractional number is truncated.
func (Filters) ToInt(c *form.Conversion) {
	switch v := c.Value().(type) {
	case int:
		return
	case int64:
		c.Set(int(v))
		return
	case float64:
		c.Set(truncate(v))
		return
	}

	s := strings.TrimSpace(c.String())
	if i, err := strconv.Atoi(s); err == nil {
		c.Set(i)
		return
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		c.Set(truncate(f))
		return
	}
	c.Set(nil)
}

func (Filters) ToFloat(c *form.Conversion) {
	switch v := c.Value().(type) {
	case float64:
		return
	case int:
		c.Set(float64(v))
		return
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(c.String()), 64)
	if err != nil || math.IsNaN(f) {
		c.Set(nil)
		return
	}
	c.Set(f)
}

// ToBoolean treats "", "0" and "false" as false and everything else as true.
func (Filters) ToBoolean(c *form.Conversion) {
	if b, ok := c.Value().(bool); ok {
		c.Set(b)
		return
	}
	switch strings.ToLower(strings.TrimSpace(c.String())) {
	case "", "0", "false":
		c.Set(false)
	default:
		c.Set(true)
	}
}

// ToBooleanStrict treats only "1" and "true" as true.
func (Filters) ToBooleanStrict(c *form.Conversion) {
	if b, ok := c.Value().(bool); ok {
		c.Set(b)
		return
	}
	switch strings.ToLower(strings.TrimSpace(c.String())) {
	case "1", "true":
		c.Set(true)
	default:
		c.Set(false)
	}
}

// ToDate reads a date in any of the supported layouts.
func (Filters) ToDate(c *form.Conversion) {
	if t, ok := asTime(c.Value()); ok {
		c.Set(t)
		return
	}
	c.Set(nil)
}

func truncate(f float64) any {
	// float64(math.MaxInt) rounds up to 2^63, which int cannot hold
	if math.IsNaN(f) || f < math.MinInt || f >= math.MaxInt {
		return nil
	}
	return int(f)
}
