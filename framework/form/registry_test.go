package form_test

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-iform/framework/form"
)

// ── stub sources ─────────────────────────────────────────────────────────────

type sampleSource struct{}

func (sampleSource) IsEven(c *form.Check) {
	n, err := strconv.Atoi(c.String())
	if err != nil || n%2 != 0 {
		c.Error("must be even")
	}
}

func (sampleSource) Prefix(c *form.Check, p string) {
	if !strings.HasPrefix(c.String(), p) {
		c.Errorf("must start with %s", p)
	}
}

func (sampleSource) MinLen(c *form.Check, n int) {
	if len(c.String()) < n {
		c.Errorf("too short")
	}
}

func (sampleSource) ToDouble(c *form.Conversion) {
	n, _ := strconv.Atoi(c.String())
	c.Set(n * 2)
}

func (sampleSource) Wrap(c *form.Conversion, parts ...string) {
	c.Set(strings.Join(parts, c.String()))
}

// Helper has the wrong shape and must be skipped.
func (sampleSource) Helper() string { return "" }

type extendedSource struct{ sampleSource }

func (extendedSource) IsOdd(c *form.Check) {
	n, err := strconv.Atoi(c.String())
	if err != nil || n%2 == 0 {
		c.Error("must be odd")
	}
}

func runCheck(t *testing.T, fn form.ValidatorFunc, value any, args ...any) string {
	t.Helper()
	require.NotNil(t, fn)
	var msg string
	require.NoError(t, fn(form.NewCheck("f", value, "", func(m string) { msg = m }), args...))
	return msg
}

// ── Register / Resolve ───────────────────────────────────────────────────────

func TestRegistry_RegisterResolve(t *testing.T) {
	reg := form.NewRegistry()
	reg.Register("isFoo", func(c *form.Check, _ ...any) error {
		c.Error("no foo")
		return nil
	}, nil)

	for _, name := range []string{"isFoo", "isfoo", "ISFOO"} {
		v, c := reg.Resolve(name)
		assert.NotNil(t, v, name)
		assert.Nil(t, c, name)
	}

	v, c := reg.Resolve("missing")
	assert.Nil(t, v)
	assert.Nil(t, c)

	assert.Equal(t, []string{"isFoo"}, reg.Names())
}

func TestRegistry_RegisterReplaces(t *testing.T) {
	reg := form.NewRegistry()
	reg.Register("rule", func(c *form.Check, _ ...any) error { c.Error("first"); return nil }, nil)
	reg.Register("RULE", func(c *form.Check, _ ...any) error { c.Error("second"); return nil }, nil)

	v, _ := reg.Resolve("rule")
	assert.Equal(t, "second", runCheck(t, v, "x"))
}

func TestRegistry_RegisterType(t *testing.T) {
	reg := form.NewRegistry()
	reg.RegisterType("Slug", nil, func(c *form.Conversion, _ ...any) error {
		c.Set(strings.ToLower(c.String()))
		return nil
	})

	_, conv := reg.ResolveType("slug")
	require.NotNil(t, conv)
	c := form.NewConversion("ABC")
	require.NoError(t, conv(c))
	assert.Equal(t, "abc", c.Value())

	v, _ := reg.Resolve("slug")
	assert.Nil(t, v, "type markers and rules live in separate tables")
}

// ── Derive ───────────────────────────────────────────────────────────────────

func TestRegistry_Derive(t *testing.T) {
	reg := form.NewRegistry()
	reg.Derive(sampleSource{})

	tests := []struct {
		name      string
		typ       bool
		validator bool
		converter bool
	}{
		{"IsEven", false, true, false},
		{"iseven", false, true, false},
		{"Even", true, true, false},
		{"even", true, true, false},
		{"prefix", false, true, false},
		{"ToDouble", false, false, true},
		{"double", true, false, true},
		{"wrap", false, false, true},
		{"helper", false, false, false},
		{"helper", true, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				v form.ValidatorFunc
				c form.ConverterFunc
			)
			if tt.typ {
				v, c = reg.ResolveType(tt.name)
			} else {
				v, c = reg.Resolve(tt.name)
			}
			assert.Equal(t, tt.validator, v != nil, "validator")
			assert.Equal(t, tt.converter, c != nil, "converter")
		})
	}

	assert.Contains(t, reg.Names(), "IsEven")
	assert.Contains(t, reg.TypeNames(), "Even")
	assert.Contains(t, reg.TypeNames(), "Double")
	assert.NotContains(t, reg.Names(), "Helper")
}

func TestRegistry_DerivedValidatorReportsThroughCheck(t *testing.T) {
	reg := form.NewRegistry()
	reg.Derive(sampleSource{})

	v, _ := reg.Resolve("prefix")
	assert.Equal(t, "must start with x", runCheck(t, v, "abc", "x"))
	assert.Empty(t, runCheck(t, v, "xyz", "x"))

	even, _ := reg.ResolveType("even")
	assert.Equal(t, "must be even", runCheck(t, even, "3"))
	assert.Empty(t, runCheck(t, even, 4))
}

func TestRegistry_DerivedArguments(t *testing.T) {
	reg := form.NewRegistry()
	reg.Derive(sampleSource{})

	t.Run("coerced", func(t *testing.T) {
		v, _ := reg.Resolve("minLen")
		assert.Equal(t, "too short", runCheck(t, v, "ab", "3"))
		assert.Empty(t, runCheck(t, v, "abc", 3.0))
	})

	t.Run("missing argument is the zero value", func(t *testing.T) {
		v, _ := reg.Resolve("minLen")
		assert.Empty(t, runCheck(t, v, ""))
	})

	t.Run("surplus arguments are dropped", func(t *testing.T) {
		v, _ := reg.Resolve("prefix")
		assert.Empty(t, runCheck(t, v, "xy", "x", "ignored", 42))
	})

	t.Run("variadic tail", func(t *testing.T) {
		_, conv := reg.Resolve("wrap")
		c := form.NewConversion("-")
		require.NoError(t, conv(c, "a", "b", "c"))
		assert.Equal(t, "a-b-c", c.Value())
	})

	t.Run("uncoercible argument", func(t *testing.T) {
		v, _ := reg.Resolve("minLen")
		err := v(form.NewCheck("f", "abc", "", nil), "three")
		require.Error(t, err)
		assert.ErrorIs(t, err, form.ErrRuleArgument)
	})
}

func TestRegistry_ExtendAndUpdate(t *testing.T) {
	reg := form.NewRegistry()
	reg.Derive(sampleSource{})
	reg.Register("custom", func(*form.Check, ...any) error { return nil }, nil)

	v, _ := reg.ResolveType("odd")
	require.Nil(t, v)

	reg.Extend(extendedSource{})

	v, _ = reg.ResolveType("odd")
	assert.NotNil(t, v, "new method visible after Extend")
	v, _ = reg.ResolveType("even")
	assert.NotNil(t, v, "promoted methods are derived too")
	v, _ = reg.Resolve("custom")
	assert.NotNil(t, v, "manual registrations survive Update")

	reg.Update()
	v, _ = reg.ResolveType("odd")
	assert.NotNil(t, v)
}

func TestRegistry_DeriveSkipsNil(t *testing.T) {
	reg := form.NewRegistry()
	assert.NotPanics(t, func() { reg.Derive(nil) })
	assert.Empty(t, reg.Names())
}
